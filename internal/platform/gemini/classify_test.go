package gemini

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/atelierhq/atelier-api/internal/generation"
)

func TestClassifyRateLimitWithRetryInfo(t *testing.T) {
	err := genai.APIError{
		Code:    429,
		Status:  "RESOURCE_EXHAUSTED",
		Message: "quota exceeded",
		Details: []map[string]any{
			{
				"@type":      "type.googleapis.com/google.rpc.RetryInfo",
				"retryDelay": "10s",
			},
		},
	}

	failure := classifyError(err)

	assert.Equal(t, generation.FailureRateLimited, failure.Kind)
	assert.Equal(t, 10*time.Second, failure.RetryAfter)
}

func TestClassifyRateLimitWithoutHint(t *testing.T) {
	failure := classifyError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"})

	assert.Equal(t, generation.FailureRateLimited, failure.Kind)
	assert.Zero(t, failure.RetryAfter)
}

func TestClassifyServerErrorsAsUnavailable(t *testing.T) {
	for _, code := range []int{500, 502, 503, 504} {
		failure := classifyError(genai.APIError{Code: code})
		assert.Equal(t, generation.FailureServiceUnavailable, failure.Kind, "code %d", code)
	}
}

func TestClassifyClientErrorAsTransport(t *testing.T) {
	failure := classifyError(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"})

	assert.Equal(t, generation.FailureTransport, failure.Kind)
	assert.False(t, failure.Retryable())
}

func TestClassifyPlainErrorAsTransport(t *testing.T) {
	failure := classifyError(errors.New("dial tcp: connection refused"))

	assert.Equal(t, generation.FailureTransport, failure.Kind)
}

func TestRetryAfterFromDetails(t *testing.T) {
	cases := []struct {
		name    string
		details []map[string]any
		want    time.Duration
	}{
		{
			name: "plain seconds",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "37s"},
			},
			want: 37 * time.Second,
		},
		{
			name: "fractional seconds",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "1.5s"},
			},
			want: 1500 * time.Millisecond,
		},
		{
			name: "retry info after other details",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.ErrorInfo", "reason": "RATE_LIMIT_EXCEEDED"},
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "5s"},
			},
			want: 5 * time.Second,
		},
		{name: "no details", details: nil, want: 0},
		{
			name: "malformed delay",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "soon"},
			},
			want: 0,
		},
		{
			name: "negative delay",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "-3s"},
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, retryAfterFromDetails(tc.details))
		})
	}
}

func TestDecodeResponseExtractsInlineImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "here is your illustration"},
						{InlineData: &genai.Blob{Data: []byte{0x89, 0x50}, MIMEType: "image/png"}},
					},
				},
			},
		},
	}

	img, err := decodeResponse(resp)

	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50}, img.Data)
	assert.Equal(t, "image/png", img.MIMEType)
}

func TestDecodeResponseDefaultsMIMEType(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{InlineData: &genai.Blob{Data: []byte{0x01}}},
					},
				},
			},
		},
	}

	img, err := decodeResponse(resp)

	require.NoError(t, err)
	assert.Equal(t, fallbackMIMEType, img.MIMEType)
}

func TestDecodeResponseBlockedPromptIsFiltered(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
			BlockReason:        genai.BlockedReasonSafety,
			BlockReasonMessage: "prompt rejected",
		},
	}

	_, err := decodeResponse(resp)

	var failure *generation.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, generation.FailureContentFiltered, failure.Kind)
	assert.Equal(t, "prompt rejected", failure.Reason)
}

func TestDecodeResponseSafetyFinishIsFiltered(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{FinishReason: genai.FinishReasonSafety},
		},
	}

	_, err := decodeResponse(resp)

	var failure *generation.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, generation.FailureContentFiltered, failure.Kind)
}

func TestDecodeResponseWithoutImageIsMalformed(t *testing.T) {
	cases := []struct {
		name string
		resp *genai.GenerateContentResponse
	}{
		{"nil response", nil},
		{"no candidates", &genai.GenerateContentResponse{}},
		{
			"candidate without content",
			&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
		},
		{
			"text only",
			&genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{
					{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := decodeResponse(tc.resp)

			var failure *generation.Failure
			require.ErrorAs(t, err, &failure)
			assert.Equal(t, generation.FailureMalformedResponse, failure.Kind)
		})
	}
}
