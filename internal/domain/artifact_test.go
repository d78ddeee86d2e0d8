package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, valid := range []string{"portrait", "scene", "evidence"} {
		style, err := ParseStyle(valid)
		require.NoError(t, err)
		assert.Equal(t, Style(valid), style)
	}

	for _, invalid := range []string{"", "Portrait", "landscape"} {
		_, err := ParseStyle(invalid)
		assert.ErrorIs(t, err, ErrInvalidStyle, "style %q", invalid)
	}
}

func TestNewGenerationRequest(t *testing.T) {
	req, err := NewGenerationRequest("case-01", "a locked drawing room", StyleScene)

	require.NoError(t, err)
	assert.Equal(t, "case-01", req.ID)
	assert.Equal(t, StyleScene, req.Style)
}

func TestNewGenerationRequestValidation(t *testing.T) {
	cases := []struct {
		name    string
		id      string
		prompt  string
		style   Style
		wantErr error
	}{
		{"empty id", "", "prompt", StyleScene, ErrEmptyArtifactID},
		{"empty prompt", "id", "", StyleScene, ErrEmptyPrompt},
		{"unknown style", "id", "prompt", Style("oil"), ErrInvalidStyle},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerationRequest(tc.id, tc.prompt, tc.style)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewArtifactHandle(t *testing.T) {
	entry := &CacheEntry{
		ID:       "case-01-scene",
		Blob:     []byte{0x89},
		MIMEType: "image/webp",
	}

	handle := NewArtifactHandle(entry)

	assert.Equal(t, "case-01-scene", handle.ID)
	assert.Equal(t, "image/webp", handle.MIMEType)
	assert.Equal(t, "/api/v1/artifacts/case-01-scene/content", handle.URL)
}
