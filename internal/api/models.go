package api

// Common request/response structures

// SubmitArtifactRequest defines the payload for submitting a generation
// request.
type SubmitArtifactRequest struct {
	ID     string `json:"id"     validate:"required,min=1,max=128"`
	Prompt string `json:"prompt" validate:"required,min=1,max=4000"`
	Style  string `json:"style"  validate:"required,oneof=portrait scene evidence"`
}

// SubmitArtifactResponse defines the response for an accepted submission.
type SubmitArtifactResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// ArtifactStatusResponse defines the response for a status lookup.
type ArtifactStatusResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`

	// URL is the content-fetch path, present only for cached artifacts.
	URL string `json:"url,omitempty"`

	// MIMEType is present only for cached artifacts.
	MIMEType string `json:"mime_type,omitempty"`
}

// StatsResponse defines the response for the pipeline stats endpoint.
type StatsResponse struct {
	Pending int `json:"pending"`
	Loading int `json:"loading"`
	Errored int `json:"errored"`
	Cached  int `json:"cached"`
}
