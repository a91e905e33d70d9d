package job

import "context"

// Task is the handle of the background run driving one job.
// It resolves once the job reaches a terminal state.
type Task struct {
	done   chan struct{}
	result *Job
}

func newTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Done returns a channel closed when the run has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the run finishes or ctx is done, and returns the final job.
func (t *Task) Wait(ctx context.Context) (*Job, error) {
	select {
	case <-t.done:
		return t.result.Clone(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Job returns the final job, or nil while the run is still in progress.
func (t *Task) Job() *Job {
	select {
	case <-t.done:
		return t.result.Clone()
	default:
		return nil
	}
}

func (t *Task) resolve(j *Job) {
	t.result = j
	close(t.done)
}
