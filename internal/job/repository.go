package job

import (
	"context"
	"errors"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job not found")

// Repository defines the interface for the generation registry.
// It acts as a port in the hexagonal architecture pattern.
type Repository interface {
	// Save stores a snapshot of the job, replacing any previous record with the same ID.
	// Readers observe either the previous or the new snapshot, never a mix.
	Save(ctx context.Context, job *Job) error

	// FindByID retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	FindByID(ctx context.Context, id string) (*Job, error)

	// List returns all jobs.
	List(ctx context.Context) ([]*Job, error)
}
