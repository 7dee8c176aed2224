package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// BodySink receives streamed output in strict arrival order. All methods are
// called from a single goroutine, the one running Generator.Run; the sink is
// the only writer of the body while a stream is in flight.
type BodySink interface {
	AppendFragment(text string)
	AddCitations(refs []genai.GroundingRef)
	StreamDone(finalBody string)
	StreamFailed(err error)
}

// Generator issues one streaming generative request and assembles the body
// incrementally. Not restartable: a new run starts a fresh stream and the
// sink's prior body is overwritten by the caller before Run begins.
type Generator struct {
	llm genai.TextClient
	log zerolog.Logger
}

func NewGenerator(llm genai.TextClient, log zerolog.Logger) *Generator {
	return &Generator{llm: llm, log: log.With().Str("component", "generator").Logger()}
}

// Run consumes the stream on the calling goroutine. Fragments are applied in
// arrival order; grounding references are forwarded as they appear. On clean
// exhaustion the sink gets exactly one StreamDone with the concatenated
// body. On a mid-flight error the partial body stands and StreamFailed is
// reported instead.
func (g *Generator) Run(ctx context.Context, brief model.ContentBrief, outline model.ContentOutline, sink BodySink) {
	stream, err := g.llm.Stream(ctx, BuildBodyPrompt(brief, outline))
	if err != nil {
		g.log.Warn().Err(err).Str("draft", brief.ID).Msg("stream open failed")
		sink.StreamFailed(err)
		return
	}
	defer stream.Close()

	var body strings.Builder
	for stream.Next() {
		frag := stream.Current()
		if frag.Text != "" {
			body.WriteString(frag.Text)
			sink.AppendFragment(frag.Text)
		}
		if len(frag.Grounding) > 0 {
			sink.AddCitations(frag.Grounding)
		}
	}
	if err := stream.Err(); err != nil {
		g.log.Warn().Err(err).Str("draft", brief.ID).Int("partial_bytes", body.Len()).Msg("stream interrupted")
		sink.StreamFailed(err)
		return
	}

	g.log.Info().Str("draft", brief.ID).Int("bytes", body.Len()).Msg("stream complete")
	sink.StreamDone(body.String())
}

// MergeCitations folds grounding references into an existing citation list,
// deduplicating by URL. First-seen order and first-seen titles win; IDs are
// sequential from 1.
func MergeCitations(existing []model.Citation, refs []genai.GroundingRef) []model.Citation {
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.URL] = true
	}
	for _, ref := range refs {
		if ref.URL == "" || seen[ref.URL] {
			continue
		}
		seen[ref.URL] = true
		existing = append(existing, model.Citation{
			ID:      len(existing) + 1,
			URL:     ref.URL,
			Title:   ref.Title,
			Snippet: ref.Snippet,
		})
	}
	return existing
}
