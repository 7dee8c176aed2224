package pipeline

import (
	"fmt"
	"strings"

	"seo_article_studio/genai"
	"seo_article_studio/model"
)

const (
	systemWriter   = "You are a professional long-form content writer. Output Markdown only, no extra commentary."
	systemStrategy = "You are an SEO content strategist. Respond with a single JSON object and nothing else."
)

// BuildResearchPrompt asks for the strategic brief around a topic or URL.
func BuildResearchPrompt(topicOrURL string) genai.Prompt {
	var sb strings.Builder
	sb.WriteString("Research the following topic for a long-form SEO article.\n")
	sb.WriteString(fmt.Sprintf("Topic or URL: %s\n\n", topicOrURL))
	sb.WriteString("Return a JSON object with exactly these keys:\n")
	sb.WriteString("- \"target_keywords\": 3-5 primary keywords (array of strings)\n")
	sb.WriteString("- \"secondary_keywords\": 5-10 supporting keywords (array of strings)\n")
	sb.WriteString("- \"competitor_urls\": up to 5 URLs of competing articles (array of strings)\n")
	sb.WriteString("- \"backlink_urls\": up to 5 authoritative URLs worth citing (array of strings)\n")
	sb.WriteString("- \"audience\": one sentence describing the target reader\n")
	sb.WriteString("- \"tone\": a short tone descriptor\n")
	return genai.Prompt{
		System:      systemStrategy,
		User:        sb.String(),
		JSON:        true,
		WebSearch:   true,
		Temperature: 0.4,
	}
}

// BuildOutlinePrompt asks for the section skeleton for a brief.
func BuildOutlinePrompt(brief model.ContentBrief) genai.Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Create an article outline for the topic: %s\n", brief.Topic))
	writeBriefConstraints(&sb, brief)
	sb.WriteString("\nReturn a JSON object with exactly these keys:\n")
	sb.WriteString("- \"title\": the article title, containing the primary keyword\n")
	sb.WriteString("- \"sections\": an ordered array of {\"heading\", \"subheadings\", \"key_points\"}\n")
	sb.WriteString(fmt.Sprintf("Target %d sections.\n", sectionTarget(brief.Length)))
	return genai.Prompt{
		System:      systemStrategy,
		User:        sb.String(),
		JSON:        true,
		Temperature: 0.5,
	}
}

// BuildBodyPrompt asks for the full article, streamed.
func BuildBodyPrompt(brief model.ContentBrief, outline model.ContentOutline) genai.Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write the complete article titled %q in Markdown.\n", outline.Title))
	writeBriefConstraints(&sb, brief)
	sb.WriteString(fmt.Sprintf("- Target length: %s.\n", lengthWords(brief.Length)))
	sb.WriteString("- Start with a single H1 title line.\n")
	sb.WriteString("- Use H2 for sections and H3 for subheadings, in the exact order given.\n")
	sb.WriteString("- Work the target keywords in naturally; never keyword-stuff.\n")
	sb.WriteString("\nOutline to follow, in order:\n")
	for i, sec := range outline.Sections {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, sec.Heading))
		for _, sub := range sec.Subheadings {
			sb.WriteString(fmt.Sprintf("   - %s\n", sub))
		}
		for _, kp := range sec.KeyPoints {
			sb.WriteString(fmt.Sprintf("   * key point: %s\n", kp))
		}
	}
	return genai.Prompt{
		System:      systemWriter,
		User:        sb.String(),
		WebSearch:   true,
		Temperature: 0.7,
	}
}

// BuildAnalysisPrompt asks for the SEO score of a body.
func BuildAnalysisPrompt(body string, keywords []string, stats DocStats) genai.Prompt {
	var sb strings.Builder
	sb.WriteString("Score the following article for SEO quality.\n")
	sb.WriteString(fmt.Sprintf("Target keywords: %s\n", strings.Join(keywords, ", ")))
	sb.WriteString(fmt.Sprintf("Document stats: %d words, %d H2 sections, %d links.\n\n", stats.Words, stats.H2Count, stats.Links))
	sb.WriteString("Return a JSON object with exactly these keys:\n")
	sb.WriteString("- \"score\": integer 0-100\n")
	sb.WriteString("- \"readability\": one of \"easy\", \"standard\", \"difficult\"\n")
	sb.WriteString("- \"suggestions\": array of short, prioritized improvement strings\n")
	sb.WriteString("- \"keyword_suggestions\": array of {\"keyword\", \"action\", \"explanation\"}\n\n")
	sb.WriteString("Article:\n")
	sb.WriteString(body)
	return genai.Prompt{
		System:      systemStrategy,
		User:        sb.String(),
		JSON:        true,
		Temperature: 0.2,
	}
}

// BuildOptimizePrompt asks for a full rewrite guided by the brief.
func BuildOptimizePrompt(body string, brief model.ContentBrief) genai.Prompt {
	var sb strings.Builder
	sb.WriteString("Rewrite the article below to improve its SEO performance.\n")
	writeBriefConstraints(&sb, brief)
	sb.WriteString("- Preserve the heading hierarchy, tables and list formatting exactly.\n")
	sb.WriteString("- Keep factual claims; improve flow, keyword placement and scannability.\n")
	sb.WriteString("- Output the full revised article as Markdown, nothing else.\n\n")
	sb.WriteString("Article:\n")
	sb.WriteString(body)
	return genai.Prompt{
		System:      systemWriter,
		User:        sb.String(),
		Temperature: 0.6,
	}
}

// BuildHeroImagePrompt describes the lead image for an article.
func BuildHeroImagePrompt(brief model.ContentBrief, title string) string {
	subject := title
	if subject == "" {
		subject = brief.Topic
	}
	tone := brief.Tone
	if tone == "" {
		tone = "clean, editorial"
	}
	return fmt.Sprintf("Wide hero illustration for an article titled %q. Style: %s, no embedded text, strong focal subject.", subject, tone)
}

func writeBriefConstraints(sb *strings.Builder, brief model.ContentBrief) {
	if len(brief.TargetKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("- Primary keywords: %s\n", strings.Join(brief.TargetKeywords, ", ")))
	}
	if len(brief.SecondaryKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("- Secondary keywords: %s\n", strings.Join(brief.SecondaryKeywords, ", ")))
	}
	if brief.Audience != "" {
		sb.WriteString(fmt.Sprintf("- Audience: %s\n", brief.Audience))
	}
	if brief.Tone != "" {
		sb.WriteString(fmt.Sprintf("- Tone: %s\n", brief.Tone))
	}
}

func sectionTarget(length model.ArticleLength) int {
	switch length {
	case model.LengthShort:
		return 4
	case model.LengthLong:
		return 8
	default:
		return 6
	}
}

func lengthWords(length model.ArticleLength) string {
	switch length {
	case model.LengthShort:
		return "about 800 words"
	case model.LengthLong:
		return "about 2500 words"
	default:
		return "about 1500 words"
	}
}
