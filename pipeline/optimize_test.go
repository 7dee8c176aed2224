package pipeline

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

func TestOptimizeReturnsRewrite(t *testing.T) {
	llm := &genai.MockText{Responses: []string{"# Better\n\nTighter copy."}}
	o := NewOptimizer(llm, zerolog.Nop())

	got := o.Optimize(context.Background(), "# Old\n\nLoose copy.", model.NewBrief("t"))
	assert.Equal(t, "# Better\n\nTighter copy.", got)
}

func TestOptimizeErrorReturnsOriginalVerbatim(t *testing.T) {
	llm := &genai.MockText{CompleteErr: errors.New("503")}
	o := NewOptimizer(llm, zerolog.Nop())

	original := "# Old\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"
	assert.Equal(t, original, o.Optimize(context.Background(), original, model.NewBrief("t")))
}

func TestOptimizeEmptyResultReturnsOriginal(t *testing.T) {
	llm := &genai.MockText{Responses: []string{"  \n  "}}
	o := NewOptimizer(llm, zerolog.Nop())

	assert.Equal(t, "original", o.Optimize(context.Background(), "original", model.NewBrief("t")))
}

func TestOptimizeStripsCodeFence(t *testing.T) {
	llm := &genai.MockText{Responses: []string{"```markdown\n# Wrapped\n\nbody\n```"}}
	o := NewOptimizer(llm, zerolog.Nop())

	assert.Equal(t, "# Wrapped\n\nbody", o.Optimize(context.Background(), "x", model.NewBrief("t")))
}
