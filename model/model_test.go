package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBriefFallbackShape(t *testing.T) {
	brief := NewBrief("rust borrow checker")
	assert.NotEmpty(t, brief.ID)
	assert.Equal(t, []string{"rust borrow checker"}, brief.TargetKeywords)
	assert.Empty(t, brief.SecondaryKeywords)
	assert.Equal(t, StatusDraft, brief.Status)
	assert.Equal(t, LengthMedium, brief.Length)
}

func TestCloneIsDeep(t *testing.T) {
	draft := Draft{
		ID:    "d1",
		Brief: NewBrief("topic"),
		Outline: &ContentOutline{
			Title:    "T",
			Sections: []OutlineSection{{Heading: "H", Subheadings: []string{"a"}}},
		},
		Analysis:  &SEOAnalysis{Score: 50, Suggestions: []string{"s"}},
		Images:    []ArticleImage{{ID: "i1"}},
		Citations: []Citation{{ID: 1, URL: "u"}},
	}
	clone := draft.Clone()

	clone.Brief.TargetKeywords[0] = "mutated"
	clone.Outline.Sections[0].Heading = "mutated"
	clone.Analysis.Score = 99
	clone.Images[0].ID = "mutated"
	clone.Citations[0].URL = "mutated"

	assert.Equal(t, "topic", draft.Brief.TargetKeywords[0])
	assert.Equal(t, "H", draft.Outline.Sections[0].Heading)
	assert.Equal(t, 50, draft.Analysis.Score)
	assert.Equal(t, "i1", draft.Images[0].ID)
	assert.Equal(t, "u", draft.Citations[0].URL)
}

func TestHero(t *testing.T) {
	draft := Draft{Images: []ArticleImage{{ID: "a"}, {ID: "b", IsHero: true}}}
	hero := draft.Hero()
	require.NotNil(t, hero)
	assert.Equal(t, "b", hero.ID)

	assert.Nil(t, Draft{}.Hero())
}

func TestTitlePrefersOutline(t *testing.T) {
	draft := Draft{Brief: ContentBrief{Topic: "topic"}}
	assert.Equal(t, "topic", draft.Title())

	draft.Outline = &ContentOutline{Title: "Outline Title"}
	assert.Equal(t, "Outline Title", draft.Title())
}
