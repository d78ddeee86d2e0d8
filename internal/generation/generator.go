package generation

import (
	"context"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// Image is the raw result of one successful generation call: the encoded
// bytes and the MIME type the service reported for them.
type Image struct {
	Data     []byte
	MIMEType string
}

// Generator produces an image for a prompt in a given style. Implementations
// are one-shot: a single outbound call per Generate invocation, with any
// failure classified into a *Failure before being returned. Retrying is the
// caller's concern (see RetryingGenerator).
type Generator interface {
	Generate(ctx context.Context, prompt string, style domain.Style) (*Image, error)
}
