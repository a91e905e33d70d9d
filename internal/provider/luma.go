package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/videogen-api/internal/luma"
)

// Progress hints reported while a Luma generation is pending.
const (
	lumaQueuedProgress   = 30
	lumaDreamingProgress = 60
)

// LumaAdapter adapts the Luma client to the Provider interface.
type LumaAdapter struct {
	client luma.Client
}

// NewLumaAdapter creates a new Luma provider adapter.
func NewLumaAdapter(client luma.Client) *LumaAdapter {
	return &LumaAdapter{client: client}
}

// Name returns "luma".
func (a *LumaAdapter) Name() string { return NameLuma }

// Available reports whether a Luma API key is configured.
func (a *LumaAdapter) Available() bool { return a.client.Configured() }

// Attempt creates a Luma generation.
func (a *LumaAdapter) Attempt(ctx context.Context, req Request) Outcome {
	opts := luma.DefaultSubmitOptions()
	opts.Prompt = req.StyledPrompt()

	genID, err := a.client.Create(ctx, opts)
	if err != nil {
		return Rejected(err.Error())
	}
	return Accepted(genID)
}

// Poll reads the state of a Luma generation.
// Client errors (4xx) end the generation; transport, 429 and 5xx errors are returned.
func (a *LumaAdapter) Poll(ctx context.Context, handle string) (PollResult, error) {
	gen, err := a.client.Get(ctx, handle)
	if errors.Is(err, luma.ErrUnauthorized) || errors.Is(err, luma.ErrRequestFailed) {
		return Failed(err.Error()), nil
	}
	if err != nil {
		return PollResult{}, fmt.Errorf("luma adapter poll: %w", err)
	}

	switch gen.State {
	case luma.StateQueued:
		return Pending(lumaQueuedProgress), nil
	case luma.StateDreaming:
		return Pending(lumaDreamingProgress), nil
	case luma.StateCompleted:
		if gen.VideoURL == "" {
			return Failed("luma: completed without a video asset"), nil
		}
		return Done(gen.VideoURL), nil
	case luma.StateFailed:
		return Failed(orDefault(gen.FailureReason, "luma: generation failed")), nil
	default:
		return Pending(0), nil
	}
}

// orDefault returns s, or fallback when s is empty.
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// Compile-time check that LumaAdapter implements Provider.
var _ Provider = (*LumaAdapter)(nil)
