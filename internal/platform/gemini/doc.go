// Package gemini implements generation.Generator against Google's Gemini
// image API. Each Generate call performs exactly one outbound request and
// classifies any failure into the structured generation.Failure taxonomy,
// including the server-suggested retry delay on rate-limit responses.
package gemini
