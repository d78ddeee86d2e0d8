package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/atelierhq/atelier-api/internal/domain"
)

// Backoff defaults, tuned for the rate limits of the image API.
const (
	// DefaultMaxAttempts is the total number of calls (first try included).
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the exponential backoff starting point; it doubles
	// after every retryable failure.
	DefaultBaseDelay = 2 * time.Second

	// DelayCeiling bounds every computed delay and is also the sanity cap on
	// server-suggested retry-after values: a hint at or above this is
	// treated as absent rather than honored.
	DelayCeiling = 300 * time.Second

	// retryAfterJitter is the spread added on top of a server-suggested
	// delay so that concurrent callers do not retry in lockstep.
	retryAfterJitter = 500 * time.Millisecond
)

// RetryingGenerator wraps a raw Generator with bounded retries and
// exponential backoff. It is stateless with respect to the queue and cache;
// it only ever sees one call at a time and never stores results.
type RetryingGenerator struct {
	inner       Generator
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger

	// sleep is swapped out in tests to make backoff observable without
	// real waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryingGenerator wraps inner with retry behavior. maxAttempts and
// baseDelay fall back to the package defaults when non-positive.
func NewRetryingGenerator(inner Generator, maxAttempts int, baseDelay time.Duration, logger *slog.Logger) *RetryingGenerator {
	if inner == nil {
		panic("inner generator cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}

	return &RetryingGenerator{
		inner:       inner,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		logger:      logger.With(slog.String("component", "retrying_generator")),
		sleep:       sleepContext,
	}
}

var _ Generator = (*RetryingGenerator)(nil)

// Generate calls the inner generator up to maxAttempts times. Retryable
// failures sleep for the computed backoff delay between attempts; fatal
// failures and unclassified errors return immediately without consuming
// retries. On exhaustion the last classified failure is returned.
func (g *RetryingGenerator) Generate(ctx context.Context, prompt string, style domain.Style) (*Image, error) {
	var last *Failure

	// A shared generator serves concurrent pipeline batches, so the jitter
	// source is per call rather than a struct field.
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		g.logger.DebugContext(ctx, "calling generation service",
			"attempt", attempt,
			"max_attempts", g.maxAttempts,
			"style", string(style))

		img, err := g.inner.Generate(ctx, prompt, style)
		if err == nil {
			g.logger.InfoContext(ctx, "generation call succeeded", "attempt", attempt)
			return img, nil
		}

		var failure *Failure
		if !errors.As(err, &failure) {
			// Unclassified transport error, surface immediately.
			g.logger.ErrorContext(ctx, "unclassified generation error", "error", err)
			return nil, Transport(err)
		}

		if !failure.Retryable() {
			g.logger.WarnContext(ctx, "fatal generation failure, not retrying",
				"kind", string(failure.Kind),
				"error", err)
			return nil, failure
		}

		last = failure

		if attempt == g.maxAttempts {
			break
		}

		delay := g.backoff(attempt, failure, rng)
		g.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attempt,
			"kind", string(failure.Kind),
			"delay_ms", delay.Milliseconds())

		if err := g.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("generation aborted during backoff: %w", err)
		}
	}

	g.logger.WarnContext(ctx, "generation attempts exhausted",
		"max_attempts", g.maxAttempts,
		"kind", string(last.Kind))
	return nil, last
}

// backoff computes the wait before the retry following the given attempt
// (1-based). A server-suggested retry-after inside (0, DelayCeiling) wins
// over the exponential value and gets uniform jitter added so herds of
// rate-limited callers spread out.
func (g *RetryingGenerator) backoff(attempt int, failure *Failure, rng *rand.Rand) time.Duration {
	if failure.RetryAfter > 0 && failure.RetryAfter < DelayCeiling {
		jitter := time.Duration(rng.Int63n(int64(retryAfterJitter)))
		return failure.RetryAfter + jitter
	}

	delay := g.baseDelay << (attempt - 1)
	if delay > DelayCeiling {
		delay = DelayCeiling
	}

	return delay
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
