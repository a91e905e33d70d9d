// Package server provides the HTTP server for the video generation API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import "time"

// GenerateVideoRequest is the HTTP request body for POST /generate-video.
// Duration and Style fall back to their defaults when omitted.
type GenerateVideoRequest struct {
	// Prompt is the text description of the video.
	Prompt string `json:"prompt"`
	// Duration is the clip length in seconds.
	Duration *int `json:"duration,omitempty"`
	// Style is the visual style tag.
	Style *string `json:"style,omitempty"`
}

// GenerateVideoResponse is the HTTP response after a generation is queued.
type GenerateVideoResponse struct {
	Status       string `json:"status"`
	GenerationID string `json:"generation_id"`
	Message      string `json:"message"`
}

// StatusResponse is the HTTP response for GET /status/{generation_id}.
type StatusResponse struct {
	// GenerationID is the generation identifier.
	GenerationID string `json:"generation_id"`
	// Status is one of queued, processing, completed, failed.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// VideoURL is set once the generation has completed.
	VideoURL string `json:"video_url,omitempty"`
	// Error is set once the generation has failed.
	Error string `json:"error,omitempty"`
	// Provider is the provider that accepted the generation.
	Provider string `json:"provider,omitempty"`
	// CreatedAt is when the generation was submitted.
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	Status            string          `json:"status"`
	Timestamp         time.Time       `json:"timestamp"`
	APIsAvailable     map[string]bool `json:"apis_available"`
	ActiveGenerations int             `json:"active_generations"`
}

// ProviderInfo describes one provider in the API info response.
type ProviderInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	FreeTier    string `json:"free_tier"`
	SignupURL   string `json:"signup_url,omitempty"`
	Available   bool   `json:"available"`
}

// APIInfoResponse is the HTTP response for GET /api-info.
type APIInfoResponse struct {
	Providers       []ProviderInfo `json:"providers"`
	AllowedStyles   []string       `json:"allowed_styles"`
	AllowedDuration []int          `json:"allowed_durations"`
	MaxPromptLength int            `json:"max_prompt_length"`
}
