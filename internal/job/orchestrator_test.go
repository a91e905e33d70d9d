package job

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/maauso/videogen-api/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
	name string
}

func newMockProvider(name string) *mockProvider {
	p := &mockProvider{name: name}
	p.On("Available").Return(true).Maybe()
	return p
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Available() bool {
	return m.Called().Bool(0)
}

func (m *mockProvider) Attempt(ctx context.Context, req provider.Request) provider.Outcome {
	args := m.Called(ctx, req)
	return args.Get(0).(provider.Outcome)
}

func (m *mockProvider) Poll(ctx context.Context, handle string) (provider.PollResult, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(provider.PollResult), args.Error(1)
}

// recorder collects the snapshots reported by the orchestrator.
type recorder struct {
	mu    sync.Mutex
	snaps []*Job
}

func (r *recorder) report(j *Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, j)
}

func (r *recorder) progress() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.snaps))
	for _, s := range r.snaps {
		out = append(out, s.Progress)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(providers ...provider.Provider) *Orchestrator {
	return NewOrchestrator(providers, time.Millisecond, 3, discardLogger())
}

func TestOrchestrator_FallbackToSecondProvider(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	b := newMockProvider("b")
	c := newMockProvider("c")

	a.On("Attempt", ctx, mock.Anything).Return(provider.Rejected("quota exceeded"))
	b.On("Attempt", ctx, provider.Request{Prompt: "a red fox", Duration: 7, Style: "cinematic"}).
		Return(provider.Accepted("b-1"))
	b.On("Poll", ctx, "b-1").Return(provider.Pending(60), nil).Once()
	b.On("Poll", ctx, "b-1").Return(provider.Done("https://b.example/v.mp4"), nil).Once()

	j := New("a red fox", 7, "cinematic")
	rec := &recorder{}
	newTestOrchestrator(a, b, c).Run(ctx, j, rec.report)

	assert.Equal(t, StatusCompleted, j.Status)
	assert.Equal(t, "https://b.example/v.mp4", j.VideoURL)
	assert.Equal(t, "b", j.Provider)
	assert.Equal(t, 100, j.Progress)
	assert.Empty(t, j.Error)

	a.AssertExpectations(t)
	b.AssertExpectations(t)
	c.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestOrchestrator_AllProvidersExhausted(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	b := newMockProvider("b")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Rejected("unauthorized"))
	b.On("Attempt", ctx, mock.Anything).Return(provider.Rejected("rate limited"))

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a, b).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, ReasonProvidersExhausted, j.Error)
	assert.Empty(t, j.VideoURL)
	assert.Equal(t, startedProgress, j.Progress)
}

func TestOrchestrator_NoProviders(t *testing.T) {
	j := New("p", 7, "cinematic")
	newTestOrchestrator().Run(context.Background(), j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, ReasonProvidersExhausted, j.Error)
}

func TestOrchestrator_FailureAfterAcceptanceDoesNotFallBack(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	b := newMockProvider("b")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", ctx, "a-1").Return(provider.Pending(30), nil).Once()
	a.On("Poll", ctx, "a-1").Return(provider.Failed("content policy violation"), nil).Once()

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a, b).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "content policy violation", j.Error)
	assert.Equal(t, 30, j.Progress)
	assert.Empty(t, j.VideoURL)
	b.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
	b.AssertNotCalled(t, "Available")
}

func TestOrchestrator_SkipsUnavailableProvider(t *testing.T) {
	ctx := context.Background()
	a := &mockProvider{name: "a"}
	a.On("Available").Return(false)
	b := newMockProvider("b")
	b.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("b-1"))
	b.On("Poll", ctx, "b-1").Return(provider.Done("https://b/v.mp4"), nil)

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a, b).Run(ctx, j, nil)

	assert.Equal(t, StatusCompleted, j.Status)
	a.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestOrchestrator_ProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", ctx, "a-1").Return(provider.Pending(60), nil).Once()
	a.On("Poll", ctx, "a-1").Return(provider.Pending(30), nil).Once()
	a.On("Poll", ctx, "a-1").Return(provider.Pending(250), nil).Once()
	a.On("Poll", ctx, "a-1").Return(provider.Done("https://a/v.mp4"), nil).Once()

	j := New("p", 7, "cinematic")
	rec := &recorder{}
	newTestOrchestrator(a).Run(ctx, j, rec.report)

	assert.Equal(t, []int{startedProgress, acceptedProgress, 60, 99, 100}, rec.progress())
	for _, s := range rec.snaps[:len(rec.snaps)-1] {
		assert.False(t, s.IsTerminal())
		assert.Empty(t, s.VideoURL)
		assert.Empty(t, s.Error)
	}
}

func TestOrchestrator_DoneWithoutURLFails(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", ctx, "a-1").Return(provider.Done(""), nil)

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Contains(t, j.Error, "without a video URL")
}

func TestOrchestrator_PollErrorsAreRetried(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", ctx, "a-1").Return(provider.PollResult{}, errors.New("connection reset")).Twice()
	a.On("Poll", ctx, "a-1").Return(provider.Done("https://a/v.mp4"), nil).Once()

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a).Run(ctx, j, nil)

	assert.Equal(t, StatusCompleted, j.Status)
	a.AssertNumberOfCalls(t, "Poll", 3)
}

func TestOrchestrator_TooManyPollErrorsFail(t *testing.T) {
	ctx := context.Background()
	a := newMockProvider("a")
	a.On("Attempt", ctx, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", ctx, "a-1").Return(provider.PollResult{}, errors.New("503 service unavailable"))

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Contains(t, j.Error, "polling failed")
	assert.Contains(t, j.Error, "503 service unavailable")
	a.AssertNumberOfCalls(t, "Poll", 3)
}

func TestOrchestrator_Timeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	a := newMockProvider("a")
	a.On("Attempt", mock.Anything, mock.Anything).Return(provider.Accepted("a-1"))
	a.On("Poll", mock.Anything, "a-1").Return(provider.Pending(40), nil)

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, ReasonTimedOut, j.Error)
	assert.Equal(t, 40, j.Progress)
}

func TestOrchestrator_CancelledBeforeAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newMockProvider("a")

	j := New("p", 7, "cinematic")
	newTestOrchestrator(a).Run(ctx, j, nil)

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, ReasonCancelled, j.Error)
	a.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}

func TestOrchestrator_IgnoresStartedJob(t *testing.T) {
	j := New("p", 7, "cinematic")
	require.NoError(t, j.Fail("earlier failure"))

	a := newMockProvider("a")
	newTestOrchestrator(a).Run(context.Background(), j, nil)

	assert.Equal(t, "earlier failure", j.Error)
	a.AssertNotCalled(t, "Attempt", mock.Anything, mock.Anything)
}
