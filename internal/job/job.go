// Package job provides the GenerationJob aggregate for tracking text-to-video requests.
// It includes the Job entity with its state machine, the Repository port used as the
// process-wide registry, and the service that drives each job through the provider chain.
package job

import (
	"errors"
	"slices"
	"time"

	"github.com/maauso/videogen-api/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the job was accepted but no provider has been tried yet.
	StatusQueued Status = "queued"
	// StatusProcessing indicates the job is being driven through the provider chain.
	StatusProcessing Status = "processing"
	// StatusCompleted indicates a provider produced a video.
	StatusCompleted Status = "completed"
	// StatusFailed indicates the generation ended without a video.
	StatusFailed Status = "failed"
)

// IsTerminal returns true if no further transitions can leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrInvalidTransition is returned when an invalid state transition is attempted.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrEmptyVideoURL is returned when completing a job without a video URL.
	ErrEmptyVideoURL = errors.New("video URL is required to complete a job")
)

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {},
	StatusFailed:     {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// maxActiveProgress is the ceiling for progress while the job is not terminal.
const maxActiveProgress = 99

// Job represents one text-to-video generation request.
//
// A Job value carries no lock. The background task that owns a job mutates its private
// copy and hands snapshots to the Repository, which replaces the stored record as a whole.
type Job struct {
	// ID is the generation identifier returned to the client.
	ID string
	// Prompt is the trimmed user prompt.
	Prompt string
	// Duration is the requested clip length in seconds.
	Duration int
	// Style is the requested visual style tag.
	Style string
	// Status is the current job state.
	Status Status
	// Progress is the percentage of completion (0-100).
	Progress int
	// Provider is the name of the provider that accepted the job.
	Provider string
	// VideoURL is set only once the job is completed.
	VideoURL string
	// Error is set only once the job has failed.
	Error string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when processing started.
	StartedAt time.Time
	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time
}

// New creates a new queued Job with a generated ID.
func New(prompt string, duration int, style string) *Job {
	return NewWithID(id.Generate(), prompt, duration, style)
}

// NewWithID creates a new queued Job with the specified ID.
func NewWithID(jobID, prompt string, duration int, style string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Prompt:    prompt,
		Duration:  duration,
		Style:     style,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from queued to processing.
func (j *Job) Start() error {
	return j.TransitionTo(StatusProcessing)
}

// Complete records the video URL and transitions the job to completed with progress 100.
func (j *Job) Complete(videoURL string) error {
	if videoURL == "" {
		return ErrEmptyVideoURL
	}
	if err := j.TransitionTo(StatusCompleted); err != nil {
		return err
	}
	j.VideoURL = videoURL
	j.Progress = 100
	return nil
}

// Fail records the reason and transitions the job to failed.
// Progress keeps the value it had when the failure happened.
func (j *Job) Fail(reason string) error {
	if reason == "" {
		reason = "unknown error"
	}
	if err := j.TransitionTo(StatusFailed); err != nil {
		return err
	}
	j.Error = reason
	return nil
}

// UpdateProgress raises progress while the job is processing.
// Values are clamped to [0,99] and never lower the current progress.
// It reports whether the stored progress changed.
func (j *Job) UpdateProgress(progress int) bool {
	if j.Status != StatusProcessing {
		return false
	}
	progress = min(max(progress, 0), maxActiveProgress)
	if progress <= j.Progress {
		return false
	}
	j.Progress = progress
	j.UpdatedAt = time.Now()
	return true
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Clone returns a copy of the job for safe hand-off between goroutines.
func (j *Job) Clone() *Job {
	c := *j
	return &c
}
