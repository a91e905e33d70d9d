// Package luma provides an HTTP client for the Luma Dream Machine generations API.
package luma

// State represents the state of a Luma generation.
type State string

// Luma generation states aligned with the Dream Machine API.
const (
	StateQueued    State = "queued"
	StateDreaming  State = "dreaming"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal returns true if the state is a terminal state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// SubmitOptions contains parameters for creating a generation.
type SubmitOptions struct {
	Prompt      string // Prompt text
	AspectRatio string // Aspect ratio (default: "16:9")
	Loop        bool   // Whether the clip should loop
}

// DefaultSubmitOptions returns the default options for creating a generation.
func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		AspectRatio: "16:9",
		Loop:        false,
	}
}

// generationRequest represents the request body for POST /generations.
type generationRequest struct {
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio"`
	Loop        bool   `json:"loop"`
}

// generationResponse represents a generation returned by the API.
type generationResponse struct {
	ID            string           `json:"id"`
	State         string           `json:"state"`
	FailureReason string           `json:"failure_reason,omitempty"`
	Assets        generationAssets `json:"assets,omitempty"`
}

// generationAssets holds the asset URLs of a generation.
type generationAssets struct {
	Video string `json:"video,omitempty"`
}

// errorResponse is the error body returned on non-2xx responses.
type errorResponse struct {
	Detail string `json:"detail,omitempty"`
}

// Generation contains the result of reading a generation.
type Generation struct {
	ID            string
	State         State
	VideoURL      string // Only set when State is StateCompleted
	FailureReason string // Only set when State is StateFailed
}
