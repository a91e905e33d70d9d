package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/maauso/videogen-api/internal/job"
	"github.com/maauso/videogen-api/internal/provider"
)

// providerDetails holds the static part of the API info response.
var providerDetails = map[string]ProviderInfo{
	provider.NameLuma: {
		Description: "Luma Dream Machine text-to-video generation",
		FreeTier:    "30 generations per month",
		SignupURL:   "https://lumalabs.ai/dream-machine/api",
	},
	provider.NameReplicate: {
		Description: "AnimateDiff text-to-video on Replicate",
		FreeTier:    "limited free credits for new accounts",
		SignupURL:   "https://replicate.com",
	},
	provider.NameHuggingFace: {
		Description: "ModelScope text-to-video through the Hugging Face Inference API",
		FreeTier:    "rate-limited free inference",
		SignupURL:   "https://huggingface.co/settings/tokens",
	},
	provider.NameDemo: {
		Description: "Sample clips chosen from prompt keywords, for offline demos",
		FreeTier:    "always available",
	},
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service         *job.Service
	logger          *slog.Logger
	maxPromptLength int
	now             func() time.Time
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithMaxPromptLength sets the prompt limit advertised by GET /api-info.
func WithMaxPromptLength(n int) HandlerOption {
	return func(h *Handlers) {
		if n > 0 {
			h.maxPromptLength = n
		}
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *job.Service, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:         service,
		logger:          logger,
		maxPromptLength: job.DefaultMaxPromptLength,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// GenerateVideo handles POST /generate-video requests.
func (h *Handlers) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var req GenerateVideoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	input := job.SubmitInput{
		Prompt:   req.Prompt,
		Duration: job.DefaultDuration,
		Style:    job.DefaultStyle,
	}
	if req.Duration != nil {
		input.Duration = *req.Duration
	}
	if req.Style != nil {
		input.Style = *req.Style
	}

	queued, _, err := h.service.Submit(r.Context(), input)
	if err != nil {
		var vErr *job.ValidationError
		if errors.As(err, &vErr) {
			h.logger.Warn("request validation failed",
				slog.String("field", vErr.Field),
				slog.String("error", vErr.Message),
			)
			writeError(w, http.StatusBadRequest, vErr.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to create generation",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create generation", "JOB_CREATION_FAILED")
		return
	}

	writeJSON(w, http.StatusAccepted, GenerateVideoResponse{
		Status:       string(queued.Status),
		GenerationID: queued.ID,
		Message:      "Video generation started",
	})
}

// GetStatus handles GET /status/{generation_id} requests.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	generationID := r.PathValue("generation_id")
	if generationID == "" {
		writeError(w, http.StatusBadRequest, "generation ID is required", "MISSING_GENERATION_ID")
		return
	}

	found, err := h.service.GetJob(r.Context(), generationID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "generation not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get generation",
			slog.String("generation_id", generationID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get generation", "INTERNAL_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		GenerationID: found.ID,
		Status:       string(found.Status),
		Progress:     found.Progress,
		VideoURL:     found.VideoURL,
		Error:        found.Error,
		Provider:     found.Provider,
		CreatedAt:    found.CreatedAt.UTC(),
	})
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	active, err := h.service.ActiveGenerations(r.Context())
	if err != nil {
		h.logger.Error("failed to count active generations",
			slog.String("error", err.Error()),
		)
	}

	apis := make(map[string]bool)
	for _, p := range h.service.Providers() {
		apis[p.Name()] = p.Available()
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:            "healthy",
		Timestamp:         h.now().UTC(),
		APIsAvailable:     apis,
		ActiveGenerations: active,
	})
}

// APIInfo handles GET /api-info requests.
func (h *Handlers) APIInfo(w http.ResponseWriter, r *http.Request) {
	providers := h.service.Providers()
	infos := make([]ProviderInfo, 0, len(providers))
	for _, p := range providers {
		info := providerDetails[p.Name()]
		info.Name = p.Name()
		info.Available = p.Available()
		infos = append(infos, info)
	}

	writeJSON(w, http.StatusOK, APIInfoResponse{
		Providers:       infos,
		AllowedStyles:   job.AllowedStyles,
		AllowedDuration: job.AllowedDurations,
		MaxPromptLength: h.maxPromptLength,
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
