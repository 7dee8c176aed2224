package genai

import "context"

// Prompt is one request against the generative text service.
type Prompt struct {
	System      string
	User        string
	JSON        bool // ask for a structured json_object response
	WebSearch   bool // research-style call; grounding references expected
	Temperature float64
}

// GroundingRef is a source URL surfaced as evidence for generated claims.
type GroundingRef struct {
	URL     string
	Title   string
	Snippet string
}

// Fragment is one unit of streamed output.
type Fragment struct {
	Text      string
	Grounding []GroundingRef
}

// Stream is a pull-based fragment sequence. Length is unknown in advance;
// Next returns false once the upstream service closes the stream, after
// which Err reports whether it closed cleanly.
type Stream interface {
	Next() bool
	Current() Fragment
	Err() error
	Close() error
}

// TextClient abstracts the generative text backend so it can be swapped or
// mocked.
type TextClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
	Stream(ctx context.Context, prompt Prompt) (Stream, error)
}

// ImageRequest is one request against the generative image service.
type ImageRequest struct {
	Prompt      string
	AspectRatio string // "1:1", "16:9"
	Size        string // optional explicit size, overrides AspectRatio
}

// ImageClient produces a rendered image as a data URI.
type ImageClient interface {
	Generate(ctx context.Context, req ImageRequest) (string, error)
}
