package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/domain"
	"github.com/atelierhq/atelier-api/internal/generation"
)

// stylePrefixes frame the collaborator's prompt for each illustration
// style. The surrounding application supplies only the subject text.
var stylePrefixes = map[domain.Style]string{
	domain.StylePortrait: "A painted character portrait, muted colors, soft lighting. ",
	domain.StyleScene:    "A wide establishing shot of a location, atmospheric, detailed background. ",
	domain.StyleEvidence: "A close-up studio photograph of a single object on a neutral surface. ",
}

// fallbackMIMEType is assumed when the service returns image bytes without
// declaring their type.
const fallbackMIMEType = "image/png"

// Generator calls the Gemini API to produce a single image per request.
type Generator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini-backed generator. Missing credentials or
// model configuration is a NotConfigured failure so the pipeline can fail
// fast instead of burning retries on it.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, generation.NotConfigured(errors.New("gemini API key cannot be empty"))
	}

	if cfg.ModelName == "" {
		return nil, generation.NotConfigured(errors.New("model name cannot be empty"))
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, generation.NotConfigured(fmt.Errorf("failed to create gemini client: %w", err))
	}

	return &Generator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

var _ generation.Generator = (*Generator)(nil)

// Generate performs one image-generation call. The response is buffered in
// full and decoded once; the first inline-image part wins.
func (g *Generator) Generate(ctx context.Context, prompt string, style domain.Style) (*generation.Image, error) {
	framed := stylePrefixes[style] + prompt

	g.logger.DebugContext(ctx, "calling gemini",
		"model", g.model,
		"style", string(style),
		"prompt_length", len(framed))

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(framed), &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	})
	if err != nil {
		return nil, classifyError(err)
	}

	img, err := decodeResponse(resp)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "gemini call succeeded",
		"mime_type", img.MIMEType,
		"bytes", len(img.Data))

	return img, nil
}

// decodeResponse extracts the generated image from a buffered API response.
// A response the service itself refused (safety block) is ContentFiltered;
// a response with no usable image part is MalformedResponse.
func decodeResponse(resp *genai.GenerateContentResponse) (*generation.Image, error) {
	if resp == nil {
		return nil, generation.MalformedResponse(errors.New("nil response"))
	}

	if pf := resp.PromptFeedback; pf != nil && pf.BlockReason != genai.BlockedReasonUnspecified {
		reason := pf.BlockReasonMessage
		if reason == "" {
			reason = string(pf.BlockReason)
		}
		return nil, generation.ContentFiltered(reason)
	}

	if len(resp.Candidates) == 0 {
		return nil, generation.MalformedResponse(errors.New("no candidates in response"))
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent:
		return nil, generation.ContentFiltered(string(cand.FinishReason))
	}

	if cand.Content == nil {
		return nil, generation.MalformedResponse(errors.New("empty content in candidate"))
	}

	for _, part := range cand.Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}

		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = fallbackMIMEType
		}

		return &generation.Image{
			Data:     part.InlineData.Data,
			MIMEType: mimeType,
		}, nil
	}

	return nil, generation.MalformedResponse(errors.New("no image data in response"))
}
