package provider

import (
	"bytes"
	"context"
	"fmt"

	"github.com/maauso/videogen-api/internal/huggingface"
	"github.com/maauso/videogen-api/internal/storage"
)

// minVideoBytes is the smallest response treated as a real video file.
const minVideoBytes = 1000

// HuggingFaceAdapter adapts the Hugging Face client to the Provider interface.
// The inference API returns the video synchronously, so Attempt stores the bytes and
// uses the resulting URL as the handle; Poll then reports Done without a request.
type HuggingFaceAdapter struct {
	client huggingface.Client
	store  storage.Storage
}

// NewHuggingFaceAdapter creates a new Hugging Face provider adapter.
func NewHuggingFaceAdapter(client huggingface.Client, store storage.Storage) *HuggingFaceAdapter {
	return &HuggingFaceAdapter{client: client, store: store}
}

// Name returns "huggingface".
func (a *HuggingFaceAdapter) Name() string { return NameHuggingFace }

// Available reports whether a Hugging Face API key is configured.
func (a *HuggingFaceAdapter) Available() bool { return a.client.Configured() }

// Attempt runs the inference and stores the returned video.
func (a *HuggingFaceAdapter) Attempt(ctx context.Context, req Request) Outcome {
	opts := huggingface.DefaultGenerateOptions()
	opts.Prompt = req.StyledPrompt()

	video, err := a.client.Generate(ctx, opts)
	if err != nil {
		return Rejected(err.Error())
	}
	if len(video) <= minVideoBytes {
		return Rejected(fmt.Sprintf("huggingface: response of %d bytes is not a video", len(video)))
	}

	url, err := a.store.Save(ctx, "huggingface_*.mp4", bytes.NewReader(video))
	if err != nil {
		return Rejected(fmt.Sprintf("huggingface: store video: %v", err))
	}
	return Accepted(url)
}

// Poll reports the stored video URL as done.
func (a *HuggingFaceAdapter) Poll(_ context.Context, handle string) (PollResult, error) {
	return Done(handle), nil
}

// Compile-time check that HuggingFaceAdapter implements Provider.
var _ Provider = (*HuggingFaceAdapter)(nil)
