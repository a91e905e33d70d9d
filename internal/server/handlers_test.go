package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/maauso/videogen-api/internal/job"
	"github.com/maauso/videogen-api/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockProvider implements provider.Provider for testing.
type mockProvider struct {
	mock.Mock
	name string
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Available() bool {
	return m.Called().Bool(0)
}

func (m *mockProvider) Attempt(ctx context.Context, req provider.Request) provider.Outcome {
	return m.Called(ctx, req).Get(0).(provider.Outcome)
}

func (m *mockProvider) Poll(ctx context.Context, handle string) (provider.PollResult, error) {
	args := m.Called(ctx, handle)
	return args.Get(0).(provider.PollResult), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T, providers ...provider.Provider) (*Handlers, *job.Service) {
	t.Helper()
	svc := job.NewService(job.NewMemoryRepository(), providers, testLogger(),
		job.WithPollInterval(time.Millisecond),
	)
	return NewHandlers(svc, testLogger()), svc
}

func postGenerate(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/generate-video", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func getStatus(t *testing.T, h http.Handler, id string) (*httptest.ResponseRecorder, StatusResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/status/"+id, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Also called from require.Eventually, so decode failures surface as a zero response.
	var resp StatusResponse
	if rec.Code == http.StatusOK {
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	}
	return rec, resp
}

func TestGenerateVideo_Success(t *testing.T) {
	h, svc := newTestHandlers(t, provider.NewDemoAdapter())

	rec := postGenerate(t, http.HandlerFunc(h.GenerateVideo), `{"prompt":"  a cat on a sofa  "}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp GenerateVideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "queued", resp.Status)
	assert.NotEmpty(t, resp.GenerationID)
	assert.NotEmpty(t, resp.Message)

	stored, err := svc.GetJob(context.Background(), resp.GenerationID)
	require.NoError(t, err)
	assert.Equal(t, "a cat on a sofa", stored.Prompt)
	assert.Equal(t, job.DefaultDuration, stored.Duration)
	assert.Equal(t, job.DefaultStyle, stored.Style)
}

func TestGenerateVideo_InvalidJSON(t *testing.T) {
	h, _ := newTestHandlers(t)

	rec := postGenerate(t, http.HandlerFunc(h.GenerateVideo), "invalid json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INVALID_JSON", resp.Code)
}

func TestGenerateVideo_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing prompt", `{"duration":7}`, "prompt: must not be empty"},
		{"blank prompt", `{"prompt":"   "}`, "prompt: must not be empty"},
		{"prompt too long", `{"prompt":"` + strings.Repeat("x", 501) + `"}`, "prompt: must be at most 500 characters"},
		{"duration out of set", `{"prompt":"p","duration":60}`, "duration: must be one of: 5, 6, 7, 8, 9, 10"},
		{"explicit zero duration", `{"prompt":"p","duration":0}`, "duration: must be one of"},
		{"unknown style", `{"prompt":"p","style":"noir"}`, "style: must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newTestHandlers(t)

			rec := postGenerate(t, http.HandlerFunc(h.GenerateVideo), tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "VALIDATION_ERROR", resp.Code)
			assert.Contains(t, resp.Error, tt.message)

			active, err := svc.ActiveGenerations(context.Background())
			require.NoError(t, err)
			assert.Zero(t, active)
		})
	}
}

func TestGenerateVideo_PromptAtLimit(t *testing.T) {
	h, _ := newTestHandlers(t, provider.NewDemoAdapter())

	rec := postGenerate(t, http.HandlerFunc(h.GenerateVideo),
		`{"prompt":"`+strings.Repeat("x", 500)+`","duration":10,"style":"documentary"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestGetStatus_NotFound(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := NewRouter(h, testLogger(), DefaultConfig())

	rec, _ := getStatus(t, router, "nonexistent")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "JOB_NOT_FOUND", resp.Code)
}

func TestGetStatus_MissingID(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/status/", nil)
	rec := httptest.NewRecorder()
	h.GetStatus(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "MISSING_GENERATION_ID", resp.Code)
}

func TestGetStatus_ImmediatelyAfterSubmit(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	p := &mockProvider{name: "slow"}
	p.On("Available").Return(true)
	p.On("Attempt", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(provider.Rejected("late"))

	h, _ := newTestHandlers(t, p)
	router := NewRouter(h, testLogger(), DefaultConfig())

	rec := postGenerate(t, router, `{"prompt":"a storm"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created GenerateVideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	statusRec, status := getStatus(t, router, created.GenerationID)
	require.Equal(t, http.StatusOK, statusRec.Code)
	assert.Contains(t, []string{"queued", "processing"}, status.Status)
	assert.Empty(t, status.VideoURL)
	assert.Empty(t, status.Error)
	assert.NotContains(t, statusRec.Body.String(), "video_url")
	assert.NotContains(t, statusRec.Body.String(), `"error"`)
}

func TestRouter_GenerateAndPollToCompletion(t *testing.T) {
	rejecting := &mockProvider{name: "luma"}
	rejecting.On("Available").Return(true)
	rejecting.On("Attempt", mock.Anything, mock.Anything).Return(provider.Rejected("unauthorized"))

	h, _ := newTestHandlers(t, rejecting, provider.NewDemoAdapter())
	router := NewRouter(h, testLogger(), DefaultConfig())

	rec := postGenerate(t, router, `{"prompt":"ocean waves at sunset","duration":5,"style":"realistic"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var created GenerateVideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	require.Eventually(t, func() bool {
		_, status := getStatus(t, router, created.GenerationID)
		return status.Status == "completed"
	}, 2*time.Second, 5*time.Millisecond)

	first, status := getStatus(t, router, created.GenerationID)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, provider.SampleVideoFor("ocean waves"), status.VideoURL)
	assert.Equal(t, "demo", status.Provider)
	assert.Empty(t, status.Error)

	for range 3 {
		again, _ := getStatus(t, router, created.GenerationID)
		assert.Equal(t, first.Body.String(), again.Body.String())
	}
}

func TestRouter_ExhaustedGenerationFails(t *testing.T) {
	rejecting := &mockProvider{name: "replicate"}
	rejecting.On("Available").Return(true)
	rejecting.On("Attempt", mock.Anything, mock.Anything).Return(provider.Rejected("rate limited"))

	h, _ := newTestHandlers(t, rejecting)
	router := NewRouter(h, testLogger(), DefaultConfig())

	rec := postGenerate(t, router, `{"prompt":"p"}`)
	var created GenerateVideoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	require.Eventually(t, func() bool {
		_, status := getStatus(t, router, created.GenerationID)
		return status.Status == "failed"
	}, 2*time.Second, 5*time.Millisecond)

	_, status := getStatus(t, router, created.GenerationID)
	assert.Equal(t, job.ReasonProvidersExhausted, status.Error)
	assert.Empty(t, status.VideoURL)
}

func TestHealth(t *testing.T) {
	unavailable := &mockProvider{name: "luma"}
	unavailable.On("Available").Return(false)

	h, _ := newTestHandlers(t, unavailable, provider.NewDemoAdapter())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.now = func() time.Time { return fixed }

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, fixed, resp.Timestamp)
	assert.Equal(t, map[string]bool{"luma": false, "demo": true}, resp.APIsAvailable)
	assert.Zero(t, resp.ActiveGenerations)
}

func TestAPIInfo(t *testing.T) {
	h, _ := newTestHandlers(t, provider.NewDemoAdapter())
	h = NewHandlers(h.service, testLogger(), WithMaxPromptLength(300))

	req := httptest.NewRequest(http.MethodGet, "/api-info", nil)
	rec := httptest.NewRecorder()
	h.APIInfo(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp APIInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Providers, 1)
	assert.Equal(t, "demo", resp.Providers[0].Name)
	assert.True(t, resp.Providers[0].Available)
	assert.NotEmpty(t, resp.Providers[0].Description)
	assert.Equal(t, job.AllowedStyles, resp.AllowedStyles)
	assert.Equal(t, job.AllowedDurations, resp.AllowedDuration)
	assert.Equal(t, 300, resp.MaxPromptLength)
}

func TestRouter_ServesStoredVideos(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "huggingface_1.mp4"), []byte("mp4-bytes"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o750))

	h, _ := newTestHandlers(t)
	router := NewRouter(h, testLogger(), Config{AllowedOrigins: []string{"*"}, VideoDir: dir})

	req := httptest.NewRequest(http.MethodGet, "/videos/huggingface_1.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mp4-bytes", rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/videos/nested/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_NoVideoRouteWithoutDir(t *testing.T) {
	h, _ := newTestHandlers(t)
	router := NewRouter(h, testLogger(), DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/videos/anything.mp4", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
