package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

// maxAnalysisInput caps how much of the body is sent for analysis. The cut
// is a fixed leading substring so repeated calls on an unmodified body are
// reproducible.
const maxAnalysisInput = 24 * 1024

const (
	analysisCacheTTL   = 15 * time.Minute
	analysisCacheSweep = 30 * time.Minute
)

// Analyzer scores a body against target keywords. Results are cached by
// content hash; the analysis is a derived value, never a source of truth.
type Analyzer struct {
	llm   genai.TextClient
	cache *gocache.Cache
	log   zerolog.Logger
}

func NewAnalyzer(llm genai.TextClient, log zerolog.Logger) *Analyzer {
	return &Analyzer{
		llm:   llm,
		cache: gocache.New(analysisCacheTTL, analysisCacheSweep),
		log:   log.With().Str("component", "analyzer").Logger(),
	}
}

// Analyze is pure from the caller's point of view. Empty or whitespace-only
// bodies yield the neutral analysis without a service call; transport errors
// are returned to the caller with prior state untouched.
func (a *Analyzer) Analyze(ctx context.Context, body string, targetKeywords []string) (model.SEOAnalysis, error) {
	if strings.TrimSpace(body) == "" {
		return model.NeutralAnalysis(), nil
	}
	if len(body) > maxAnalysisInput {
		// Back the cut off to a rune boundary so the service never sees a
		// split multi-byte character.
		cut := maxAnalysisInput
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}

	key := analysisKey(body, targetKeywords)
	if hit, ok := a.cache.Get(key); ok {
		return hit.(model.SEOAnalysis), nil
	}

	raw, err := a.llm.Complete(ctx, BuildAnalysisPrompt(body, targetKeywords, Stats(body)))
	if err != nil {
		return model.SEOAnalysis{}, errors.Wrap(err, "seo analysis")
	}

	var analysis model.SEOAnalysis
	if err := genai.DecodeLoose(raw, &analysis); err != nil {
		a.log.Warn().Err(err).Msg("analysis output unparseable, returning neutral analysis")
		return model.NeutralAnalysis(), nil
	}
	if analysis.Score < 0 {
		analysis.Score = 0
	}
	if analysis.Score > 100 {
		analysis.Score = 100
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}
	if analysis.KeywordSuggestions == nil {
		analysis.KeywordSuggestions = []model.KeywordSuggestion{}
	}

	a.cache.Set(key, analysis, gocache.DefaultExpiration)
	return analysis, nil
}

func analysisKey(body string, keywords []string) string {
	h := xxh3.HashString(body + "\x00" + strings.Join(keywords, "\x00"))
	return fmt.Sprintf("%016x", h)
}
