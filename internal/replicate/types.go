// Package replicate provides an HTTP client for the Replicate predictions API.
package replicate

import "encoding/json"

// Status represents the status of a Replicate prediction.
type Status string

// Prediction statuses aligned with the Replicate API.
const (
	StatusStarting   Status = "starting"
	StatusProcessing Status = "processing"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCanceled   Status = "canceled" // Replicate uses the American spelling
)

// IsTerminal returns true if the status is a terminal state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// DefaultModelVersion is the AnimateDiff model version used for text-to-video.
const DefaultModelVersion = "1531004ee4c98894ab11f0e46d69cb9d3a4b65c9"

// SubmitOptions contains parameters for creating a prediction.
type SubmitOptions struct {
	Prompt            string  // Prompt text
	NumFrames         int     // Number of frames to render
	GuidanceScale     float64 // Classifier-free guidance scale
	NumInferenceSteps int     // Denoising steps
}

// DefaultSubmitOptions returns the default options for creating a prediction.
func DefaultSubmitOptions() SubmitOptions {
	return SubmitOptions{
		NumFrames:         16,
		GuidanceScale:     7.5,
		NumInferenceSteps: 25,
	}
}

// predictionRequest represents the request body for POST /predictions.
type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

// predictionInput represents the model input of a prediction.
type predictionInput struct {
	Prompt            string  `json:"prompt"`
	NumFrames         int     `json:"num_frames"`
	GuidanceScale     float64 `json:"guidance_scale"`
	NumInferenceSteps int     `json:"num_inference_steps"`
}

// predictionResponse represents a prediction returned by the API.
// Output is either a list of URLs or a single URL depending on the model.
type predictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// errorResponse is the error body returned on non-2xx responses.
type errorResponse struct {
	Detail string `json:"detail,omitempty"`
}

// Prediction contains the result of reading a prediction.
type Prediction struct {
	ID       string
	Status   Status
	VideoURL string // First output URL (only set when Status is StatusSucceeded)
	Error    string // Error message (only set when Status is StatusFailed)
}

// firstOutput extracts the first URL from a prediction output.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 {
			return list[0]
		}
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}
	return ""
}
