package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maauso/videogen-api/internal/provider"
)

// Progress checkpoints written by the orchestrator itself.
const (
	startedProgress  = 10
	acceptedProgress = 25
)

// Failure reasons recorded on jobs that end without a provider verdict.
const (
	ReasonProvidersExhausted = "all providers exhausted"
	ReasonTimedOut           = "generation timed out"
	ReasonCancelled          = "generation cancelled"
)

// ErrProvidersExhausted is the error form of ReasonProvidersExhausted.
var ErrProvidersExhausted = errors.New(ReasonProvidersExhausted)

// Default polling policy.
const (
	DefaultPollInterval  = 10 * time.Second
	DefaultMaxPollErrors = 3
)

// ReportFunc receives a snapshot of the job after every transition.
type ReportFunc func(*Job)

// Orchestrator drives a job through the providers in priority order.
// Only a synchronous rejection moves on to the next provider; once a provider has
// accepted, its verdict is final for the job.
type Orchestrator struct {
	providers     []provider.Provider
	pollInterval  time.Duration
	maxPollErrors int
	logger        *slog.Logger
}

// NewOrchestrator creates an Orchestrator over providers, tried in slice order.
func NewOrchestrator(providers []provider.Provider, pollInterval time.Duration, maxPollErrors int, logger *slog.Logger) *Orchestrator {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	if maxPollErrors <= 0 {
		maxPollErrors = DefaultMaxPollErrors
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		providers:     providers,
		pollInterval:  pollInterval,
		maxPollErrors: maxPollErrors,
		logger:        logger,
	}
}

// Providers returns the providers in the order they are tried.
func (o *Orchestrator) Providers() []provider.Provider {
	return o.providers
}

// Run moves j from queued to a terminal state, calling report after each change.
// j must be owned by the caller's goroutine; report receives clones.
func (o *Orchestrator) Run(ctx context.Context, j *Job, report ReportFunc) {
	emit := func() {
		if report != nil {
			report(j.Clone())
		}
	}

	if err := j.Start(); err != nil {
		o.logger.Error("cannot start generation",
			slog.String("generation_id", j.ID),
			slog.String("status", string(j.Status)),
		)
		return
	}
	j.UpdateProgress(startedProgress)
	emit()

	req := provider.Request{Prompt: j.Prompt, Duration: j.Duration, Style: j.Style}

	for _, p := range o.providers {
		if err := ctx.Err(); err != nil {
			o.fail(j, contextReason(err))
			emit()
			return
		}

		log := o.logger.With(slog.String("generation_id", j.ID), slog.String("provider", p.Name()))

		if !p.Available() {
			log.Debug("provider not configured, skipping")
			continue
		}

		out := p.Attempt(ctx, req)
		if !out.Accepted {
			log.Warn("provider rejected generation", slog.String("reason", out.Reason))
			continue
		}

		log.Info("provider accepted generation", slog.String("handle", out.Handle))
		j.Provider = p.Name()
		j.UpdateProgress(acceptedProgress)
		emit()

		o.poll(ctx, log, p, out.Handle, j, emit)
		return
	}

	if err := ctx.Err(); err != nil {
		o.fail(j, contextReason(err))
	} else {
		o.fail(j, ReasonProvidersExhausted)
	}
	emit()
}

// poll waits on an accepted remote job until it reaches a verdict.
func (o *Orchestrator) poll(ctx context.Context, log *slog.Logger, p provider.Provider, handle string, j *Job, emit func()) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	consecutiveErrs := 0
	for {
		res, err := p.Poll(ctx, handle)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				o.fail(j, contextReason(ctxErr))
				emit()
				return
			}
			consecutiveErrs++
			log.Warn("poll failed",
				slog.Int("attempt", consecutiveErrs),
				slog.String("error", err.Error()),
			)
			if consecutiveErrs >= o.maxPollErrors {
				o.fail(j, fmt.Sprintf("%s: polling failed: %v", p.Name(), err))
				emit()
				return
			}

		case res.State == provider.StateDone:
			if err := j.Complete(res.VideoURL); err != nil {
				o.fail(j, fmt.Sprintf("%s: finished without a video URL", p.Name()))
			} else {
				log.Info("generation completed", slog.String("video_url", res.VideoURL))
			}
			emit()
			return

		case res.State == provider.StateFailed:
			o.fail(j, res.Reason)
			emit()
			return

		default:
			consecutiveErrs = 0
			if j.UpdateProgress(res.Progress) {
				log.Debug("generation progress", slog.Int("progress", j.Progress))
				emit()
			}
		}

		select {
		case <-ctx.Done():
			o.fail(j, contextReason(ctx.Err()))
			emit()
			return
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) fail(j *Job, reason string) {
	if err := j.Fail(reason); err != nil {
		o.logger.Error("cannot fail generation",
			slog.String("generation_id", j.ID),
			slog.String("status", string(j.Status)),
			slog.String("error", err.Error()),
		)
		return
	}
	o.logger.Warn("generation failed",
		slog.String("generation_id", j.ID),
		slog.String("provider", j.Provider),
		slog.String("reason", j.Error),
	)
}

func contextReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonTimedOut
	}
	return ReasonCancelled
}
