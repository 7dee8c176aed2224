package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

func TestAnalyzeEmptyBodyIsNeutral(t *testing.T) {
	llm := &genai.MockText{CompleteErr: errors.New("must not be called")}
	a := NewAnalyzer(llm, zerolog.Nop())

	for _, body := range []string{"", "   \n\t "} {
		analysis, err := a.Analyze(context.Background(), body, []string{"kw"})
		require.NoError(t, err)
		assert.Equal(t, model.NeutralAnalysis(), analysis)
	}
	assert.Empty(t, llm.Prompts)
}

func TestAnalyzeParsesAndClampsScore(t *testing.T) {
	llm := &genai.MockText{Responses: []string{`{"score": 140, "readability": "easy", "suggestions": [], "keyword_suggestions": []}`}}
	a := NewAnalyzer(llm, zerolog.Nop())

	analysis, err := a.Analyze(context.Background(), "# Body\nsome text", []string{"kw"})
	require.NoError(t, err)
	assert.Equal(t, 100, analysis.Score)
	assert.Equal(t, "easy", analysis.Readability)
}

func TestAnalyzeTransportErrorSurfaces(t *testing.T) {
	llm := &genai.MockText{CompleteErr: errors.New("timeout")}
	a := NewAnalyzer(llm, zerolog.Nop())

	_, err := a.Analyze(context.Background(), "body", []string{"kw"})
	assert.Error(t, err)
}

func TestAnalyzeGarbledOutputFallsBackNeutral(t *testing.T) {
	llm := &genai.MockText{Responses: []string{"sorry, I cannot do that"}}
	a := NewAnalyzer(llm, zerolog.Nop())

	analysis, err := a.Analyze(context.Background(), "body", []string{"kw"})
	require.NoError(t, err)
	assert.Equal(t, model.NeutralAnalysis(), analysis)
}

func TestAnalyzeCachesByContent(t *testing.T) {
	llm := &genai.MockText{Responses: []string{analysisJSON}}
	a := NewAnalyzer(llm, zerolog.Nop())
	ctx := context.Background()

	first, err := a.Analyze(ctx, "stable body", []string{"kw"})
	require.NoError(t, err)
	second, err := a.Analyze(ctx, "stable body", []string{"kw"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, llm.Prompts, 1)

	// Different keywords miss the cache.
	_, err = a.Analyze(ctx, "stable body", []string{"other"})
	require.NoError(t, err)
	assert.Len(t, llm.Prompts, 2)
}

func TestAnalyzeTruncatesDeterministically(t *testing.T) {
	llm := &genai.MockText{Responses: []string{analysisJSON}}
	a := NewAnalyzer(llm, zerolog.Nop())

	huge := strings.Repeat("word ", maxAnalysisInput)
	_, err := a.Analyze(context.Background(), huge, []string{"kw"})
	require.NoError(t, err)

	require.Len(t, llm.Prompts, 1)
	assert.NotContains(t, llm.Prompts[0].User, huge)

	// Same body again, same truncation point: cache hit, no second call.
	_, err = a.Analyze(context.Background(), huge, []string{"kw"})
	require.NoError(t, err)
	assert.Len(t, llm.Prompts, 1)
}

func TestAnalyzeTruncationKeepsRuneBoundary(t *testing.T) {
	llm := &genai.MockText{Responses: []string{analysisJSON}}
	a := NewAnalyzer(llm, zerolog.Nop())

	// A three-byte rune straddling the cap would be split by a naive cut.
	body := strings.Repeat("a", maxAnalysisInput-1) + strings.Repeat("語", 8)
	_, err := a.Analyze(context.Background(), body, []string{"kw"})
	require.NoError(t, err)

	require.Len(t, llm.Prompts, 1)
	assert.True(t, utf8.ValidString(llm.Prompts[0].User))
	assert.NotContains(t, llm.Prompts[0].User, "語")
}
