package pipeline

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

type recordingSink struct {
	fragments []string
	citations []model.Citation
	finalBody string
	doneCalls int
	failErr   error
}

func (r *recordingSink) AppendFragment(text string) { r.fragments = append(r.fragments, text) }
func (r *recordingSink) AddCitations(refs []genai.GroundingRef) {
	r.citations = MergeCitations(r.citations, refs)
}
func (r *recordingSink) StreamDone(finalBody string) {
	r.finalBody = finalBody
	r.doneCalls++
}
func (r *recordingSink) StreamFailed(err error) { r.failErr = err }

func testOutline() model.ContentOutline {
	return model.ContentOutline{
		Title: "Test Article",
		Sections: []model.OutlineSection{
			{Heading: "Intro", Subheadings: []string{"a", "b"}},
			{Heading: "Section 2", Subheadings: []string{"c", "d"}},
			{Heading: "Wrap up", Subheadings: []string{"e", "f"}},
		},
	}
}

func TestGeneratorOrderedConcatenation(t *testing.T) {
	frags := []genai.Fragment{
		{Text: "# Intro\n"},
		{Text: "Some text. "},
		{Text: "## Section 2\nMore."},
	}
	llm := &genai.MockText{Fragments: frags}
	gen := NewGenerator(llm, zerolog.Nop())
	sink := &recordingSink{}

	gen.Run(context.Background(), model.NewBrief("testing"), testOutline(), sink)

	assert.Equal(t, []string{"# Intro\n", "Some text. ", "## Section 2\nMore."}, sink.fragments)
	assert.Equal(t, "# Intro\nSome text. ## Section 2\nMore.", sink.finalBody)
	assert.Equal(t, 1, sink.doneCalls)
	assert.NoError(t, sink.failErr)
}

func TestGeneratorManyTinyFragments(t *testing.T) {
	body := "one two three four five six seven eight"
	llm := &genai.MockText{Fragments: genai.TextFragments(body)}
	gen := NewGenerator(llm, zerolog.Nop())
	sink := &recordingSink{}

	gen.Run(context.Background(), model.NewBrief("chunking"), testOutline(), sink)

	assert.Equal(t, body, sink.finalBody)
}

func TestGeneratorStreamInterruption(t *testing.T) {
	llm := &genai.MockText{
		Fragments:   genai.TextFragments("partial body before the failure"),
		StreamErr:   errors.New("connection reset"),
		StreamDelay: 2,
	}
	gen := NewGenerator(llm, zerolog.Nop())
	sink := &recordingSink{}

	gen.Run(context.Background(), model.NewBrief("failure"), testOutline(), sink)

	// Partial output is kept, StreamDone never fires.
	assert.Equal(t, []string{"partial ", "body "}, sink.fragments)
	assert.Zero(t, sink.doneCalls)
	require.Error(t, sink.failErr)
}

func TestMergeCitationsDedupeFirstSeen(t *testing.T) {
	refs := []genai.GroundingRef{
		{URL: "https://a.example", Title: "First title"},
		{URL: "https://b.example", Title: "B"},
		{URL: "https://a.example", Title: "Later title"},
	}
	cits := MergeCitations(nil, refs)
	cits = MergeCitations(cits, refs)

	require.Len(t, cits, 2)
	assert.Equal(t, 1, cits[0].ID)
	assert.Equal(t, "https://a.example", cits[0].URL)
	assert.Equal(t, "First title", cits[0].Title)
	assert.Equal(t, 2, cits[1].ID)
	assert.Equal(t, "https://b.example", cits[1].URL)
}

func TestMergeCitationsIgnoresEmptyURL(t *testing.T) {
	cits := MergeCitations(nil, []genai.GroundingRef{{URL: "", Title: "no url"}})
	assert.Empty(t, cits)
}
