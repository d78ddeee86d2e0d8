package generation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFailureRetryability(t *testing.T) {
	cases := []struct {
		name      string
		failure   *Failure
		retryable bool
	}{
		{"rate limited", RateLimited(time.Second, errors.New("429")), true},
		{"service unavailable", ServiceUnavailable(errors.New("503")), true},
		{"content filtered", ContentFiltered("safety"), true},
		{"malformed response", MalformedResponse(errors.New("no image")), true},
		{"not configured", NotConfigured(errors.New("no key")), false},
		{"transport", Transport(errors.New("reset")), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.retryable, tc.failure.Retryable())
		})
	}
}

func TestFailureUnwrapsUnderlyingError(t *testing.T) {
	underlying := errors.New("socket closed")
	failure := ServiceUnavailable(underlying)

	assert.ErrorIs(t, failure, underlying)
}

func TestFailureErrorIncludesFilterReason(t *testing.T) {
	failure := ContentFiltered("violence")

	assert.Contains(t, failure.Error(), "content_filtered")
	assert.Contains(t, failure.Error(), "violence")
}
