package provider

import (
	"context"
	"strings"
)

// demoVideo maps prompt keywords to a sample clip.
type demoVideo struct {
	keywords []string
	url      string
}

var demoVideos = []demoVideo{
	{[]string{"cat", "kitten", "pet"}, "https://sample-videos.com/zip/10/mp4/480/SampleVideo_480x270_1mb.mp4"},
	{[]string{"ocean", "wave", "water", "sea"}, "https://www.learningcontainer.com/wp-content/uploads/2020/05/sample-mp4-file.mp4"},
	{[]string{"nature", "forest", "tree", "landscape"}, "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4"},
	{[]string{"city", "urban", "building", "street"}, "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/ForBiggerJoyrides.mp4"},
}

const demoDefaultVideo = "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4"

// DemoAdapter is an offline provider that answers with a sample clip picked from
// the prompt keywords. It never rejects and completes on the first poll.
type DemoAdapter struct{}

// NewDemoAdapter creates a new demo provider.
func NewDemoAdapter() *DemoAdapter {
	return &DemoAdapter{}
}

// Name returns "demo".
func (a *DemoAdapter) Name() string { return NameDemo }

// Available always returns true.
func (a *DemoAdapter) Available() bool { return true }

// Attempt accepts the request with the selected sample URL as handle.
func (a *DemoAdapter) Attempt(_ context.Context, req Request) Outcome {
	return Accepted(SampleVideoFor(req.Prompt))
}

// Poll reports the sample URL as done.
func (a *DemoAdapter) Poll(_ context.Context, handle string) (PollResult, error) {
	return Done(handle), nil
}

// SampleVideoFor returns the sample clip URL matching the prompt keywords.
func SampleVideoFor(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, v := range demoVideos {
		for _, kw := range v.keywords {
			if strings.Contains(lower, kw) {
				return v.url
			}
		}
	}
	return demoDefaultVideo
}

// Compile-time check that DemoAdapter implements Provider.
var _ Provider = (*DemoAdapter)(nil)
