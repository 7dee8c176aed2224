package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// Outliner turns a brief into the article skeleton via one structured
// generative call.
type Outliner struct {
	llm genai.TextClient
	log zerolog.Logger
}

func NewOutliner(llm genai.TextClient, log zerolog.Logger) *Outliner {
	return &Outliner{llm: llm, log: log.With().Str("component", "outliner").Logger()}
}

// Outline never fails: malformed or missing output yields the fixed generic
// outline so the pipeline can always reach OUTLINE_READY.
func (o *Outliner) Outline(ctx context.Context, brief model.ContentBrief) model.ContentOutline {
	raw, err := o.llm.Complete(ctx, BuildOutlinePrompt(brief))
	if err != nil {
		o.log.Warn().Err(err).Msg("outline call failed, using generic outline")
		return FallbackOutline(brief.Topic)
	}

	var outline model.ContentOutline
	if err := genai.DecodeLoose(raw, &outline); err != nil || len(outline.Sections) == 0 {
		o.log.Warn().AnErr("err", err).Msg("outline output unparseable, using generic outline")
		return FallbackOutline(brief.Topic)
	}
	if outline.Title == "" {
		outline.Title = brief.Topic
	}
	return outline
}

// FallbackOutline is the deterministic four-section skeleton used whenever
// the service cannot produce one.
func FallbackOutline(topic string) model.ContentOutline {
	return model.ContentOutline{
		Title: topic,
		Sections: []model.OutlineSection{
			{Heading: "Introduction", Subheadings: []string{"Why it matters", "What this article covers"}},
			{Heading: "Background and Context", Subheadings: []string{"Key concepts", "Common misconceptions"}},
			{Heading: "Practical Applications", Subheadings: []string{"Getting started", "Best practices"}},
			{Heading: "Conclusion", Subheadings: []string{"Key takeaways", "Next steps"}},
		},
	}
}
