package generation

import (
	"fmt"
	"time"
)

// FailureKind classifies a generation failure. The classification is
// computed once at the transport layer, never re-derived from error text.
type FailureKind string

// Failure kinds. The first four are retryable while attempts remain;
// NotConfigured and Transport short-circuit without consuming retries.
const (
	FailureRateLimited        FailureKind = "rate_limited"
	FailureServiceUnavailable FailureKind = "service_unavailable"
	FailureContentFiltered    FailureKind = "content_filtered"
	FailureMalformedResponse  FailureKind = "malformed_response"
	FailureNotConfigured      FailureKind = "not_configured"
	FailureTransport          FailureKind = "transport"
)

// Failure is the structured error returned by generation transports.
type Failure struct {
	Kind FailureKind

	// RetryAfter is the server-suggested wait before retrying, when the
	// service provided one (rate-limit responses). Zero when absent.
	RetryAfter time.Duration

	// Reason carries the content-filter explanation for FailureContentFiltered.
	Reason string

	// Err is the underlying transport error, if any.
	Err error
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureContentFiltered && f.Reason != "":
		return fmt.Sprintf("generation failed (%s): %s", f.Kind, f.Reason)
	case f.Err != nil:
		return fmt.Sprintf("generation failed (%s): %v", f.Kind, f.Err)
	default:
		return fmt.Sprintf("generation failed (%s)", f.Kind)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether the failure may resolve on a later attempt.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case FailureRateLimited, FailureServiceUnavailable,
		FailureContentFiltered, FailureMalformedResponse:
		return true
	default:
		return false
	}
}

// RateLimited builds a rate-limit failure carrying an optional
// server-suggested retry delay.
func RateLimited(retryAfter time.Duration, err error) *Failure {
	return &Failure{Kind: FailureRateLimited, RetryAfter: retryAfter, Err: err}
}

// ServiceUnavailable builds a failure for a temporarily unreachable service.
func ServiceUnavailable(err error) *Failure {
	return &Failure{Kind: FailureServiceUnavailable, Err: err}
}

// ContentFiltered builds a failure for prompts rejected by safety filters.
func ContentFiltered(reason string) *Failure {
	return &Failure{Kind: FailureContentFiltered, Reason: reason}
}

// MalformedResponse builds a failure for responses missing usable image data.
func MalformedResponse(err error) *Failure {
	return &Failure{Kind: FailureMalformedResponse, Err: err}
}

// NotConfigured builds a fatal failure for missing credentials or model
// configuration. It is never retried.
func NotConfigured(err error) *Failure {
	return &Failure{Kind: FailureNotConfigured, Err: err}
}

// Transport builds a fatal failure for errors the transport could not
// classify. It is never retried.
func Transport(err error) *Failure {
	return &Failure{Kind: FailureTransport, Err: err}
}
