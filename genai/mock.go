package genai

import (
	"context"
	"strings"
)

// MockText is a scripted TextClient for tests and offline runs. Completions
// are served from Responses in order; streams replay Fragments and then
// surface StreamErr, if set.
type MockText struct {
	Responses   []string
	CompleteErr error
	Fragments   []Fragment
	StreamErr   error
	StreamDelay int // fragments delivered before StreamErr fires; 0 means all

	Prompts       []Prompt
	StreamPrompts []Prompt
	calls         int
}

func (m *MockText) Complete(_ context.Context, prompt Prompt) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.CompleteErr != nil {
		return "", m.CompleteErr
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	resp := m.Responses[m.calls%len(m.Responses)]
	m.calls++
	return resp, nil
}

func (m *MockText) Stream(_ context.Context, prompt Prompt) (Stream, error) {
	m.StreamPrompts = append(m.StreamPrompts, prompt)
	limit := len(m.Fragments)
	if m.StreamErr != nil && m.StreamDelay > 0 && m.StreamDelay < limit {
		limit = m.StreamDelay
	}
	return &scriptedStream{fragments: m.Fragments[:limit], err: m.StreamErr}, nil
}

type scriptedStream struct {
	fragments []Fragment
	err       error
	pos       int
}

func (s *scriptedStream) Next() bool {
	if s.pos >= len(s.fragments) {
		return false
	}
	s.pos++
	return true
}

func (s *scriptedStream) Current() Fragment { return s.fragments[s.pos-1] }
func (s *scriptedStream) Err() error        { return s.err }
func (s *scriptedStream) Close() error      { return nil }

// TextFragments splits a body into single-word fragments, convenient for
// scripting streams in tests.
func TextFragments(body string) []Fragment {
	words := strings.SplitAfter(body, " ")
	frags := make([]Fragment, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		frags = append(frags, Fragment{Text: w})
	}
	return frags
}

// MockImage is a scripted ImageClient.
type MockImage struct {
	URI     string
	Err     error
	Prompts []string
}

func (m *MockImage) Generate(_ context.Context, req ImageRequest) (string, error) {
	m.Prompts = append(m.Prompts, req.Prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if m.URI == "" {
		return "data:image/png;base64,bW9jaw==", nil
	}
	return m.URI, nil
}
