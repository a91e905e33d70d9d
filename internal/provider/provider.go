// Package provider provides the common interface for text-to-video providers.
// Luma, Replicate, Hugging Face and the demo fallback all implement it, so the
// orchestrator can walk them in priority order without knowing their wire formats.
package provider

import (
	"context"
	"fmt"
)

// Provider names used in configuration and in job records.
const (
	NameLuma        = "luma"
	NameReplicate   = "replicate"
	NameHuggingFace = "huggingface"
	NameDemo        = "demo"
)

// Request carries the user parameters for one generation attempt.
type Request struct {
	Prompt   string // Trimmed user prompt
	Duration int    // Clip length in seconds
	Style    string // Visual style tag
}

// StyledPrompt returns the prompt text sent to providers, with the style appended.
func (r Request) StyledPrompt() string {
	if r.Style == "" {
		return r.Prompt
	}
	return fmt.Sprintf("%s, %s style", r.Prompt, r.Style)
}

// Outcome is the synchronous answer to an Attempt: either Accepted with a remote
// handle, or Rejected with a reason.
type Outcome struct {
	Accepted bool   // True if the provider started a remote job
	Handle   string // Remote job handle (only set when Accepted)
	Reason   string // Rejection reason (only set when not Accepted)
}

// Accepted returns an Outcome for a provider that started a remote job.
func Accepted(handle string) Outcome {
	return Outcome{Accepted: true, Handle: handle}
}

// Rejected returns an Outcome for a provider that declined the job.
func Rejected(reason string) Outcome {
	return Outcome{Reason: reason}
}

// State represents the state reported when polling a remote job.
type State string

// Poll states shared by all providers.
const (
	StatePending State = "pending" // Remote job still running
	StateDone    State = "done"    // Remote job produced a video
	StateFailed  State = "failed"  // Remote job ended without a video
)

// PollResult contains the result of polling a remote job.
type PollResult struct {
	State    State  // Current remote state
	Progress int    // Progress estimate (only meaningful when pending)
	VideoURL string // Video URL (only set when done)
	Reason   string // Failure reason (only set when failed)
}

// Pending returns a PollResult for a job still in progress.
func Pending(progress int) PollResult {
	return PollResult{State: StatePending, Progress: progress}
}

// Done returns a PollResult for a job that produced a video.
func Done(videoURL string) PollResult {
	return PollResult{State: StateDone, VideoURL: videoURL}
}

// Failed returns a PollResult for a job that ended without a video.
func Failed(reason string) PollResult {
	return PollResult{State: StateFailed, Reason: reason}
}

// Provider defines the interface for text-to-video providers.
// Each Attempt or Poll call performs at most one outbound request and never retries;
// retry and fallback policy belongs to the caller.
type Provider interface {
	// Name returns the provider identifier (e.g. "luma").
	Name() string

	// Available reports whether credentials are configured.
	// An unavailable provider rejects every attempt.
	Available() bool

	// Attempt submits the request and reports whether the provider accepted it.
	Attempt(ctx context.Context, req Request) Outcome

	// Poll checks a previously accepted job. A returned error means the status could
	// not be read (transport failure); it says nothing about the remote job itself.
	Poll(ctx context.Context, handle string) (PollResult, error)
}
