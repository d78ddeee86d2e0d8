package gemini

import (
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/atelierhq/atelier-api/internal/generation"
)

// retryInfoType is the protobuf type URL of google.rpc.RetryInfo, attached
// by the API to rate-limit errors as a structured retry hint.
const retryInfoType = "type.googleapis.com/google.rpc.RetryInfo"

// classifyError maps a transport error onto the generation failure
// taxonomy. Classification happens here, once, at the call site; nothing
// downstream inspects error text.
func classifyError(err error) *generation.Failure {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return generation.Transport(err)
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return generation.RateLimited(retryAfterFromDetails(apiErr.Details), err)
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return generation.ServiceUnavailable(err)
	default:
		return generation.Transport(err)
	}
}

// retryAfterFromDetails extracts the retryDelay from a google.rpc.RetryInfo
// error detail, if present. Returns zero when absent or unparseable, which
// the retry layer treats as "no hint".
func retryAfterFromDetails(details []map[string]any) time.Duration {
	for _, detail := range details {
		if detail["@type"] != retryInfoType {
			continue
		}

		raw, ok := detail["retryDelay"].(string)
		if !ok {
			continue
		}

		delay, err := time.ParseDuration(raw)
		if err != nil || delay <= 0 {
			continue
		}

		return delay
	}

	return 0
}
