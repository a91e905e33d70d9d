package replicate

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

// DefaultBaseURL is the Replicate API root.
const DefaultBaseURL = "https://api.replicate.com/v1"

// Static errors for Replicate client operations.
var (
	// ErrCredentialsMissing is returned when no API token is configured.
	ErrCredentialsMissing = errors.New("replicate: API token is not configured")
	// ErrPromptRequired is returned when the prompt is empty.
	ErrPromptRequired = errors.New("replicate: prompt is required")
	// ErrPredictionIDRequired is returned when the prediction ID is not provided.
	ErrPredictionIDRequired = errors.New("replicate: prediction ID is required")
	// ErrNoPredictionID is returned when the create response contains no ID.
	ErrNoPredictionID = errors.New("replicate: create failed: no prediction ID returned")
	// ErrUnauthorized is returned on 401 and 403 responses.
	ErrUnauthorized = errors.New("replicate: unauthorized")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("replicate: rate limited")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("replicate: server error")
	// ErrRequestFailed is returned when the request fails with another non-2xx status code.
	ErrRequestFailed = errors.New("replicate: request failed")
)

// Client defines the interface for interacting with the Replicate API.
type Client interface {
	// Configured reports whether an API token is set.
	Configured() bool

	// Create starts a prediction and returns its ID.
	Create(ctx context.Context, opts SubmitOptions) (predictionID string, err error)

	// Get reads the current state of a prediction.
	Get(ctx context.Context, predictionID string) (Prediction, error)
}

// HTTPClient is the HTTP implementation of the Replicate Client interface.
// Every call performs exactly one request.
type HTTPClient struct {
	token      string
	baseURL    string
	version    string
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

// WithBaseURL sets a custom base URL for the Replicate API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		if url != "" {
			hc.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithModelVersion sets the model version used for predictions.
func WithModelVersion(version string) ClientOption {
	return func(hc *HTTPClient) {
		if version != "" {
			hc.version = version
		}
	}
}

// NewClient creates a new Replicate HTTP client.
// An empty token is allowed: the client then fails every call with ErrCredentialsMissing.
func NewClient(token string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		token:      strings.TrimSpace(token),
		baseURL:    DefaultBaseURL,
		version:    DefaultModelVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API token is set.
func (c *HTTPClient) Configured() bool {
	return c.token != ""
}

// Create starts a prediction and returns its ID.
func (c *HTTPClient) Create(ctx context.Context, opts SubmitOptions) (string, error) {
	if !c.Configured() {
		return "", ErrCredentialsMissing
	}
	if opts.Prompt == "" {
		return "", ErrPromptRequired
	}

	defaults := DefaultSubmitOptions()
	if opts.NumFrames <= 0 {
		opts.NumFrames = defaults.NumFrames
	}
	if opts.GuidanceScale <= 0 {
		opts.GuidanceScale = defaults.GuidanceScale
	}
	if opts.NumInferenceSteps <= 0 {
		opts.NumInferenceSteps = defaults.NumInferenceSteps
	}

	bodyBytes, err := json.Marshal(predictionRequest{
		Version: c.version,
		Input: predictionInput{
			Prompt:            opts.Prompt,
			NumFrames:         opts.NumFrames,
			GuidanceScale:     opts.GuidanceScale,
			NumInferenceSteps: opts.NumInferenceSteps,
		},
	})
	if err != nil {
		return "", fmt.Errorf("replicate: marshal request: %w", err)
	}

	var resp predictionResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/predictions", bodyBytes, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", ErrNoPredictionID
	}
	return resp.ID, nil
}

// Get reads the current state of a prediction.
func (c *HTTPClient) Get(ctx context.Context, predictionID string) (Prediction, error) {
	if !c.Configured() {
		return Prediction{}, ErrCredentialsMissing
	}
	if predictionID == "" {
		return Prediction{}, ErrPredictionIDRequired
	}

	var resp predictionResponse
	url := fmt.Sprintf("%s/predictions/%s", c.baseURL, predictionID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return Prediction{}, err
	}

	p := Prediction{
		ID:     resp.ID,
		Status: Status(resp.Status),
	}
	switch p.Status {
	case StatusSucceeded:
		p.VideoURL = firstOutput(resp.Output)
	case StatusFailed, StatusCanceled:
		p.Error = resp.Error
	}
	return p, nil
}

// doRequest performs a single HTTP request and decodes a 2xx body into result.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("replicate: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("replicate: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("replicate: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("replicate: unmarshal response: %w", err)
		}
	}
	return nil
}

// statusError maps a non-2xx response to one of the package errors.
func statusError(code int, body []byte) error {
	msg := string(body)
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Detail != "" {
		msg = er.Detail
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
