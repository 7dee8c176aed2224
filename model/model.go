package model

import (
	"time"

	"github.com/google/uuid"
)

// ArticleLength buckets the requested article size.
type ArticleLength string

const (
	LengthShort  ArticleLength = "short"
	LengthMedium ArticleLength = "medium"
	LengthLong   ArticleLength = "long"
)

// BriefStatus tracks how far a brief has progressed through authoring.
type BriefStatus string

const (
	StatusDraft        BriefStatus = "draft"
	StatusBriefReady   BriefStatus = "brief_ready"
	StatusOutlineReady BriefStatus = "outline_ready"
	StatusContentReady BriefStatus = "content_ready"
)

// ContentBrief holds the strategic parameters governing generation. The ID is
// immutable once created and joins all other draft entities.
type ContentBrief struct {
	ID                string        `json:"id"`
	Topic             string        `json:"topic"`
	ResearchSourceURL string        `json:"research_source_url,omitempty"`
	CompetitorURLs    []string      `json:"competitor_urls"`
	BacklinkURLs      []string      `json:"backlink_urls"`
	TargetKeywords    []string      `json:"target_keywords"`
	SecondaryKeywords []string      `json:"secondary_keywords"`
	Audience          string        `json:"audience"`
	Tone              string        `json:"tone"`
	Length            ArticleLength `json:"length"`
	Status            BriefStatus   `json:"status"`
	Author            string        `json:"author"`
	CreatedAt         time.Time     `json:"created_at"`
}

// NewBrief builds the deterministic fallback brief for a topic: the topic
// itself is the only target keyword and every other list is empty.
func NewBrief(topic string) ContentBrief {
	return ContentBrief{
		ID:                uuid.NewString(),
		Topic:             topic,
		CompetitorURLs:    []string{},
		BacklinkURLs:      []string{},
		TargetKeywords:    []string{topic},
		SecondaryKeywords: []string{},
		Length:            LengthMedium,
		Status:            StatusDraft,
		CreatedAt:         time.Now(),
	}
}

// OutlineSection is a single ordered section of the article skeleton.
type OutlineSection struct {
	Heading     string   `json:"heading"`
	Subheadings []string `json:"subheadings"`
	KeyPoints   []string `json:"key_points"`
}

// ContentOutline is the section skeleton generated before full-body
// synthesis. Section order is meaningful and preserved through every later
// stage.
type ContentOutline struct {
	Title    string           `json:"title"`
	Sections []OutlineSection `json:"sections"`
}

// Citation is a grounding source surfaced by the text service, deduplicated
// by URL in first-seen order.
type Citation struct {
	ID      int    `json:"id"`
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// ArticleImage is a generated asset attached to a draft. At most one image
// per draft carries IsHero.
type ArticleImage struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Prompt string `json:"prompt"`
	IsHero bool   `json:"is_hero"`
}

// KeywordSuggestion is one actionable keyword recommendation.
type KeywordSuggestion struct {
	Keyword     string `json:"keyword"`
	Action      string `json:"action"`
	Explanation string `json:"explanation"`
}

// SEOAnalysis scores a body against target keywords. It is always derivable
// from (body, keywords) and is safe to discard and recompute.
type SEOAnalysis struct {
	Score              int                 `json:"score"`
	Readability        string              `json:"readability"`
	Suggestions        []string            `json:"suggestions"`
	KeywordSuggestions []KeywordSuggestion `json:"keyword_suggestions"`
}

// NeutralAnalysis is returned for empty or near-empty bodies.
func NeutralAnalysis() SEOAnalysis {
	return SEOAnalysis{
		Score:              0,
		Readability:        "n/a",
		Suggestions:        []string{},
		KeywordSuggestions: []KeywordSuggestion{},
	}
}

// DraftState is the pipeline state machine position for a draft.
type DraftState string

const (
	StateEmpty        DraftState = "EMPTY"
	StateBriefReady   DraftState = "BRIEF_READY"
	StateOutlineReady DraftState = "OUTLINE_READY"
	StateGenerating   DraftState = "GENERATING"
	StateGenerated    DraftState = "GENERATED"
	StateOptimizing   DraftState = "OPTIMIZING"
	StateFinalized    DraftState = "FINALIZED"
)

// Draft is the persisted aggregate for one article. UpdatedAt is display
// metadata set by the store at write time; it never participates in conflict
// resolution.
type Draft struct {
	ID         string          `json:"id"`
	Brief      ContentBrief    `json:"brief"`
	Outline    *ContentOutline `json:"outline,omitempty"`
	Body       string          `json:"body"`
	Analysis   *SEOAnalysis    `json:"analysis,omitempty"`
	Images     []ArticleImage  `json:"images"`
	Citations  []Citation      `json:"citations"`
	HasStarted bool            `json:"has_started"`
	State      DraftState      `json:"state"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Clone deep-copies the draft so snapshots can leave the owning session.
func (d Draft) Clone() Draft {
	out := d
	out.Brief.CompetitorURLs = append([]string(nil), d.Brief.CompetitorURLs...)
	out.Brief.BacklinkURLs = append([]string(nil), d.Brief.BacklinkURLs...)
	out.Brief.TargetKeywords = append([]string(nil), d.Brief.TargetKeywords...)
	out.Brief.SecondaryKeywords = append([]string(nil), d.Brief.SecondaryKeywords...)
	if d.Outline != nil {
		o := ContentOutline{Title: d.Outline.Title, Sections: make([]OutlineSection, len(d.Outline.Sections))}
		for i, s := range d.Outline.Sections {
			o.Sections[i] = OutlineSection{
				Heading:     s.Heading,
				Subheadings: append([]string(nil), s.Subheadings...),
				KeyPoints:   append([]string(nil), s.KeyPoints...),
			}
		}
		out.Outline = &o
	}
	if d.Analysis != nil {
		a := *d.Analysis
		a.Suggestions = append([]string(nil), d.Analysis.Suggestions...)
		a.KeywordSuggestions = append([]KeywordSuggestion(nil), d.Analysis.KeywordSuggestions...)
		out.Analysis = &a
	}
	out.Images = append([]ArticleImage(nil), d.Images...)
	out.Citations = append([]Citation(nil), d.Citations...)
	return out
}

// Hero returns the hero image, if one has been attached.
func (d Draft) Hero() *ArticleImage {
	for i := range d.Images {
		if d.Images[i].IsHero {
			return &d.Images[i]
		}
	}
	return nil
}

// Title prefers the outline title and falls back to the topic.
func (d Draft) Title() string {
	if d.Outline != nil && d.Outline.Title != "" {
		return d.Outline.Title
	}
	return d.Brief.Topic
}

// ArticleMetadata is the dashboard/history projection of a draft.
type ArticleMetadata struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Score     int        `json:"score"`
	Status    DraftState `json:"status"`
	UpdatedAt time.Time  `json:"updated_at"`
}
