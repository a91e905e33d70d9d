package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/maauso/videogen-api/internal/replicate"
)

// Progress hints reported while a Replicate prediction is pending.
const (
	replicateStartingProgress   = 30
	replicateProcessingProgress = 60
)

// ReplicateAdapter adapts the Replicate client to the Provider interface.
type ReplicateAdapter struct {
	client replicate.Client
}

// NewReplicateAdapter creates a new Replicate provider adapter.
func NewReplicateAdapter(client replicate.Client) *ReplicateAdapter {
	return &ReplicateAdapter{client: client}
}

// Name returns "replicate".
func (a *ReplicateAdapter) Name() string { return NameReplicate }

// Available reports whether a Replicate API token is configured.
func (a *ReplicateAdapter) Available() bool { return a.client.Configured() }

// Attempt creates a Replicate prediction.
func (a *ReplicateAdapter) Attempt(ctx context.Context, req Request) Outcome {
	opts := replicate.DefaultSubmitOptions()
	opts.Prompt = req.StyledPrompt()

	predID, err := a.client.Create(ctx, opts)
	if err != nil {
		return Rejected(err.Error())
	}
	return Accepted(predID)
}

// Poll reads the state of a Replicate prediction.
// A 4xx answer ends the prediction; other errors are returned for the caller to retry.
func (a *ReplicateAdapter) Poll(ctx context.Context, handle string) (PollResult, error) {
	p, err := a.client.Get(ctx, handle)
	if errors.Is(err, replicate.ErrUnauthorized) || errors.Is(err, replicate.ErrRequestFailed) {
		return Failed(err.Error()), nil
	}
	if err != nil {
		return PollResult{}, fmt.Errorf("replicate adapter poll: %w", err)
	}

	switch p.Status {
	case replicate.StatusStarting:
		return Pending(replicateStartingProgress), nil
	case replicate.StatusProcessing:
		return Pending(replicateProcessingProgress), nil
	case replicate.StatusSucceeded:
		if p.VideoURL == "" {
			return Failed("replicate: prediction succeeded without output"), nil
		}
		return Done(p.VideoURL), nil
	case replicate.StatusFailed:
		return Failed(orDefault(p.Error, "replicate: prediction failed")), nil
	case replicate.StatusCanceled:
		return Failed(orDefault(p.Error, "replicate: prediction canceled")), nil
	default:
		return Pending(0), nil
	}
}

// Compile-time check that ReplicateAdapter implements Provider.
var _ Provider = (*ReplicateAdapter)(nil)
