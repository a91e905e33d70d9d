package luma

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

// DefaultBaseURL is the Dream Machine API root.
const DefaultBaseURL = "https://api.lumalabs.ai/dream-machine/v1"

// Static errors for Luma client operations.
var (
	// ErrCredentialsMissing is returned when no API key is configured.
	ErrCredentialsMissing = errors.New("luma: API key is not configured")
	// ErrPromptRequired is returned when the prompt is empty.
	ErrPromptRequired = errors.New("luma: prompt is required")
	// ErrGenerationIDRequired is returned when the generation ID is not provided.
	ErrGenerationIDRequired = errors.New("luma: generation ID is required")
	// ErrNoGenerationID is returned when the create response contains no ID.
	ErrNoGenerationID = errors.New("luma: create failed: no generation ID returned")
	// ErrUnauthorized is returned on 401 and 403 responses.
	ErrUnauthorized = errors.New("luma: unauthorized")
	// ErrRateLimited is returned when the server returns a 429 status code.
	ErrRateLimited = errors.New("luma: rate limited")
	// ErrServerError is returned when the server returns a 5xx status code.
	ErrServerError = errors.New("luma: server error")
	// ErrRequestFailed is returned when the request fails with another non-2xx status code.
	ErrRequestFailed = errors.New("luma: request failed")
)

// Client defines the interface for interacting with the Luma API.
type Client interface {
	// Configured reports whether an API key is set.
	Configured() bool

	// Create starts a generation and returns its ID.
	Create(ctx context.Context, opts SubmitOptions) (generationID string, err error)

	// Get reads the current state of a generation.
	Get(ctx context.Context, generationID string) (Generation, error)
}

// HTTPClient is the HTTP implementation of the Luma Client interface.
// Every call performs exactly one request.
type HTTPClient struct {
	apiKey     string
	baseURL    string
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

// WithBaseURL sets a custom base URL for the Luma API.
func WithBaseURL(url string) ClientOption {
	return func(hc *HTTPClient) {
		if url != "" {
			hc.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// NewClient creates a new Luma HTTP client.
// An empty API key is allowed: the client then fails every call with ErrCredentialsMissing
// without touching the network.
func NewClient(apiKey string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
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

// Create starts a generation and returns its ID.
func (c *HTTPClient) Create(ctx context.Context, opts SubmitOptions) (string, error) {
	if !c.Configured() {
		return "", ErrCredentialsMissing
	}
	if opts.Prompt == "" {
		return "", ErrPromptRequired
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = DefaultSubmitOptions().AspectRatio
	}

	bodyBytes, err := json.Marshal(generationRequest{
		Prompt:      opts.Prompt,
		AspectRatio: opts.AspectRatio,
		Loop:        opts.Loop,
	})
	if err != nil {
		return "", fmt.Errorf("luma: marshal request: %w", err)
	}

	var resp generationResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/generations", bodyBytes, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", ErrNoGenerationID
	}
	return resp.ID, nil
}

// Get reads the current state of a generation.
func (c *HTTPClient) Get(ctx context.Context, generationID string) (Generation, error) {
	if !c.Configured() {
		return Generation{}, ErrCredentialsMissing
	}
	if generationID == "" {
		return Generation{}, ErrGenerationIDRequired
	}

	var resp generationResponse
	url := fmt.Sprintf("%s/generations/%s", c.baseURL, generationID)
	if err := c.doRequest(ctx, http.MethodGet, url, nil, &resp); err != nil {
		return Generation{}, err
	}

	gen := Generation{
		ID:    resp.ID,
		State: State(resp.State),
	}
	switch gen.State {
	case StateCompleted:
		gen.VideoURL = resp.Assets.Video
	case StateFailed:
		gen.FailureReason = resp.FailureReason
	}
	return gen, nil
}

// doRequest performs a single HTTP request and decodes a 2xx body into result.
func (c *HTTPClient) doRequest(ctx context.Context, method, url string, body []byte, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("luma: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("luma: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("luma: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("luma: unmarshal response: %w", err)
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
