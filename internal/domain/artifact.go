package domain

import (
	"errors"
	"fmt"
	"time"
)

// Style selects the visual treatment applied to a generated illustration.
type Style string

// Possible illustration styles
const (
	StylePortrait Style = "portrait"
	StyleScene    Style = "scene"
	StyleEvidence Style = "evidence"
)

// Common validation errors for pipeline entities
var (
	ErrEmptyArtifactID = errors.New("artifact ID cannot be empty")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrInvalidStyle    = errors.New("invalid illustration style")
)

// ParseStyle converts a wire-format string into a Style.
// Returns ErrInvalidStyle for unknown values.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StylePortrait, StyleScene, StyleEvidence:
		return Style(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStyle, s)
	}
}

// GenerationRequest describes one artifact to generate. It is immutable
// once created; the pipeline never mutates a request after Enqueue.
type GenerationRequest struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Style  Style  `json:"style"`
}

// NewGenerationRequest creates a validated GenerationRequest.
func NewGenerationRequest(id, prompt string, style Style) (GenerationRequest, error) {
	req := GenerationRequest{
		ID:     id,
		Prompt: prompt,
		Style:  style,
	}

	if err := req.Validate(); err != nil {
		return GenerationRequest{}, err
	}

	return req, nil
}

// Validate checks that the request carries everything a generation call needs.
func (r GenerationRequest) Validate() error {
	if r.ID == "" {
		return ErrEmptyArtifactID
	}

	if r.Prompt == "" {
		return ErrEmptyPrompt
	}

	if _, err := ParseStyle(string(r.Style)); err != nil {
		return err
	}

	return nil
}

// CacheEntry is one persisted artifact. The durable store exclusively owns
// the blob bytes; everything else holds an ArtifactHandle instead.
type CacheEntry struct {
	ID        string    `json:"id"`
	Blob      []byte    `json:"-"`
	MIMEType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
}

// ArtifactHandle is a non-owning lookup key for a cached artifact. It can
// be handed to collaborators freely; resolving the actual bytes always goes
// back through the store, so replacing or clearing the underlying entry
// never leaves a handle pointing at stale data it keeps alive.
type ArtifactHandle struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	URL      string `json:"url"`
}

// NewArtifactHandle derives a handle from a cache entry.
func NewArtifactHandle(entry *CacheEntry) ArtifactHandle {
	return ArtifactHandle{
		ID:       entry.ID,
		MIMEType: entry.MIMEType,
		URL:      fmt.Sprintf("/api/v1/artifacts/%s/content", entry.ID),
	}
}
