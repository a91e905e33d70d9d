package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/maauso/videogen-api/internal/job/id"
	"github.com/maauso/videogen-api/internal/provider"
)

// Service is the use case layer for generation jobs: it validates submissions,
// registers jobs and runs one background task per job.
type Service struct {
	repo              Repository
	orchestrator      *Orchestrator
	validator         *Validator
	logger            *slog.Logger
	generationTimeout time.Duration

	pollInterval    time.Duration
	maxPollErrors   int
	maxPromptLength int
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithPollInterval sets the wait between two polls of an accepted provider job.
func WithPollInterval(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.pollInterval = d
		}
	}
}

// WithMaxPollErrors sets how many consecutive poll errors fail a job.
func WithMaxPollErrors(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxPollErrors = n
		}
	}
}

// WithGenerationTimeout bounds the whole run of a job. Zero disables the bound.
func WithGenerationTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.generationTimeout = d
		}
	}
}

// WithMaxPromptLength sets the longest accepted prompt, in characters.
func WithMaxPromptLength(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxPromptLength = n
		}
	}
}

// NewService creates a new Service trying providers in the given order.
func NewService(repo Repository, providers []provider.Provider, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:            repo,
		logger:          logger,
		pollInterval:    DefaultPollInterval,
		maxPollErrors:   DefaultMaxPollErrors,
		maxPromptLength: DefaultMaxPromptLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.orchestrator = NewOrchestrator(providers, s.pollInterval, s.maxPollErrors, logger)
	s.validator = NewValidator(s.maxPromptLength)
	return s
}

// Submit validates the input, registers a queued job and starts its background task.
// A *ValidationError is returned for invalid input, in which case no job is created.
// The task outlives ctx.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Job, *Task, error) {
	in, err := s.validator.Normalize(in)
	if err != nil {
		return nil, nil, err
	}

	j := New(in.Prompt, in.Duration, in.Style)
	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("generation_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, nil, fmt.Errorf("register job: %w", err)
	}

	s.logger.Info("generation queued",
		slog.String("generation_id", j.ID),
		slog.Int("duration", j.Duration),
		slog.String("style", j.Style),
	)

	task := newTask()
	queued := j.Clone()
	go s.run(context.WithoutCancel(ctx), j, task)

	return queued, task, nil
}

// GetJob retrieves a job snapshot by ID.
// IDs that could not have been issued are reported as ErrJobNotFound without a lookup.
func (s *Service) GetJob(ctx context.Context, generationID string) (*Job, error) {
	if !id.Valid(generationID) {
		return nil, ErrJobNotFound
	}
	return s.repo.FindByID(ctx, generationID)
}

// ActiveGenerations counts jobs that have not reached a terminal state.
func (s *Service) ActiveGenerations(ctx context.Context) (int, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, j := range jobs {
		if !j.IsTerminal() {
			n++
		}
	}
	return n, nil
}

// Providers returns the configured providers in priority order.
func (s *Service) Providers() []provider.Provider {
	return s.orchestrator.Providers()
}

// run is the single writer of j for its whole lifetime.
func (s *Service) run(ctx context.Context, j *Job, task *Task) {
	if s.generationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.generationTimeout)
		defer cancel()
	}

	save := func(snapshot *Job) {
		if err := s.repo.Save(context.WithoutCancel(ctx), snapshot); err != nil {
			s.logger.Error("failed to save job",
				slog.String("generation_id", snapshot.ID),
				slog.String("status", string(snapshot.Status)),
				slog.String("error", err.Error()),
			)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generation panicked",
				slog.String("generation_id", j.ID),
				slog.Any("panic", r),
			)
			if !j.IsTerminal() {
				_ = j.Fail(fmt.Sprintf("internal error: %v", r))
				save(j.Clone())
			}
		}
		task.resolve(j.Clone())
	}()

	s.orchestrator.Run(ctx, j, save)
}
