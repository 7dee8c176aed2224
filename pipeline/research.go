package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// Researcher turns a topic or URL into a content brief via one structured
// generative call.
type Researcher struct {
	llm genai.TextClient
	log zerolog.Logger
}

func NewResearcher(llm genai.TextClient, log zerolog.Logger) *Researcher {
	return &Researcher{llm: llm, log: log.With().Str("component", "researcher").Logger()}
}

type researchPayload struct {
	TargetKeywords    []string `json:"target_keywords"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	CompetitorURLs    []string `json:"competitor_urls"`
	BacklinkURLs      []string `json:"backlink_urls"`
	Audience          string   `json:"audience"`
	Tone              string   `json:"tone"`
}

// Research never fails: on transport or parse errors the deterministic
// fallback brief is returned so the pipeline can always reach BRIEF_READY.
// The caller may re-invoke manually; there is no automatic retry.
func (r *Researcher) Research(ctx context.Context, topicOrURL string) model.ContentBrief {
	brief := model.NewBrief(topicOrURL)
	if isURL(topicOrURL) {
		brief.ResearchSourceURL = topicOrURL
	}

	raw, err := r.llm.Complete(ctx, BuildResearchPrompt(topicOrURL))
	if err != nil {
		r.log.Warn().Err(err).Msg("research call failed, using fallback brief")
		brief.Status = model.StatusBriefReady
		return brief
	}

	var payload researchPayload
	if err := genai.DecodeLoose(raw, &payload); err != nil {
		r.log.Warn().Err(err).Msg("research output unparseable, using fallback brief")
		brief.Status = model.StatusBriefReady
		return brief
	}

	if len(payload.TargetKeywords) > 0 {
		brief.TargetKeywords = payload.TargetKeywords
	}
	if len(payload.SecondaryKeywords) > 0 {
		brief.SecondaryKeywords = payload.SecondaryKeywords
	}
	if len(payload.CompetitorURLs) > 0 {
		brief.CompetitorURLs = payload.CompetitorURLs
	}
	if len(payload.BacklinkURLs) > 0 {
		brief.BacklinkURLs = payload.BacklinkURLs
	}
	brief.Audience = payload.Audience
	brief.Tone = payload.Tone
	brief.Status = model.StatusBriefReady
	return brief
}

func isURL(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
