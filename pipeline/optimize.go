package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// Optimizer performs a second full generative pass over an existing body.
type Optimizer struct {
	llm genai.TextClient
	log zerolog.Logger
}

func NewOptimizer(llm genai.TextClient, log zerolog.Logger) *Optimizer {
	return &Optimizer{llm: llm, log: log.With().Str("component", "optimizer").Logger()}
}

// Optimize returns the rewritten body, or the original body unchanged when
// the service fails or returns nothing usable. A partial or garbled
// replacement is never committed; beyond non-emptiness the result is trusted
// as-is, since structural fidelity is a contract the service is asked to
// uphold, not one we can verify.
func (o *Optimizer) Optimize(ctx context.Context, body string, brief model.ContentBrief) string {
	raw, err := o.llm.Complete(ctx, BuildOptimizePrompt(body, brief))
	if err != nil {
		o.log.Warn().Err(err).Str("draft", brief.ID).Msg("optimization failed, keeping original body")
		return body
	}
	rewritten := strings.TrimSpace(stripFence(raw))
	if rewritten == "" {
		o.log.Warn().Str("draft", brief.ID).Msg("optimization returned empty body, keeping original")
		return body
	}
	return rewritten
}

// stripFence removes a wrapping ```markdown fence some models insist on.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```markdown")
	t = strings.TrimPrefix(t, "```md")
	t = strings.TrimPrefix(t, "```")
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return t
}
