// Package huggingface provides an HTTP client for the Hugging Face Inference API
// text-to-video models. The API answers synchronously with the encoded video bytes.
package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the inference endpoint.
const (
	DefaultBaseURL = "https://api-inference.huggingface.co/models"
	DefaultModel   = "damo-vilab/text-to-video-ms-1.7b"
)

// maxVideoBytes caps how much of a response body is read.
const maxVideoBytes = 256 << 20

// Static errors for Hugging Face client operations.
var (
	// ErrCredentialsMissing is returned when no API key is configured.
	ErrCredentialsMissing = errors.New("huggingface: API key is not configured")
	// ErrPromptRequired is returned when the prompt is empty.
	ErrPromptRequired = errors.New("huggingface: prompt is required")
	// ErrUnauthorized is returned on 401 and 403 responses.
	ErrUnauthorized = errors.New("huggingface: unauthorized")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("huggingface: rate limited")
	// ErrServerError is returned when the server returns a 5xx status code,
	// including 503 while the model is loading.
	ErrServerError = errors.New("huggingface: server error")
	// ErrRequestFailed is returned when the request fails with another non-2xx status code.
	ErrRequestFailed = errors.New("huggingface: request failed")
)

// GenerateOptions contains parameters for a text-to-video inference.
type GenerateOptions struct {
	Prompt        string  // Prompt text
	NumFrames     int     // Number of frames to render
	GuidanceScale float64 // Classifier-free guidance scale
}

// DefaultGenerateOptions returns the default inference parameters.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		NumFrames:     16,
		GuidanceScale: 9.0,
	}
}

// inferenceRequest represents the request body of an inference call.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

// inferenceParameters represents the model parameters of an inference call.
type inferenceParameters struct {
	NumFrames     int     `json:"num_frames"`
	GuidanceScale float64 `json:"guidance_scale"`
}

// errorResponse is the error body returned on non-2xx responses.
type errorResponse struct {
	Error string `json:"error,omitempty"`
}

// Client defines the interface for interacting with the Inference API.
type Client interface {
	// Configured reports whether an API key is set.
	Configured() bool

	// Generate runs the model and returns the raw video bytes.
	Generate(ctx context.Context, opts GenerateOptions) ([]byte, error)
}

// HTTPClient is the HTTP implementation of the Hugging Face Client interface.
type HTTPClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// ClientOption is a function that configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(hc *HTTPClient) {
		hc.httpClient = c
	}
}

// WithBaseURL sets a custom base URL for the Inference API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		if url != "" {
			hc.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModel sets the model repository used for inference.
func WithModel(model string) ClientOption {
	return func(hc *HTTPClient) {
		if model != "" {
			hc.model = strings.Trim(model, "/")
		}
	}
}

// NewClient creates a new Hugging Face HTTP client.
// An empty API key is allowed: the client then fails every call with ErrCredentialsMissing.
func NewClient(apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *HTTPClient) Configured() bool {
	return c.apiKey != ""
}

// Generate runs the model and returns the raw video bytes.
func (c *HTTPClient) Generate(ctx context.Context, opts GenerateOptions) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrCredentialsMissing
	}
	if opts.Prompt == "" {
		return nil, ErrPromptRequired
	}

	defaults := DefaultGenerateOptions()
	if opts.NumFrames <= 0 {
		opts.NumFrames = defaults.NumFrames
	}
	if opts.GuidanceScale <= 0 {
		opts.GuidanceScale = defaults.GuidanceScale
	}

	bodyBytes, err := json.Marshal(inferenceRequest{
		Inputs: opts.Prompt,
		Parameters: inferenceParameters{
			NumFrames:     opts.NumFrames,
			GuidanceScale: opts.GuidanceScale,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("huggingface: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("huggingface: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxVideoBytes))
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// statusError maps a non-200 response to one of the package errors.
func statusError(code int, body []byte) error {
	msg := string(body)
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		msg = er.Error
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, msg)
	case code >= 500:
		return fmt.Errorf("%w %d: %s", ErrServerError, code, msg)
	default:
		return fmt.Errorf("%w with status %d: %s", ErrRequestFailed, code, msg)
	}
}
