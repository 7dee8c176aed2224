package pipeline

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gtext "github.com/yuin/goldmark/text"
)

// DocStats summarizes the structure of a Markdown body.
type DocStats struct {
	Words     int
	H1Count   int
	H2Count   int
	H3Count   int
	Links     int
	Title     string // text of the first H1, if any
	FirstPara string
}

// Stats walks the Markdown AST and collects structural counts used by the
// analyzer prompt and the dashboard projection.
func Stats(markdown string) DocStats {
	src := []byte(markdown)
	doc := goldmark.New().Parser().Parse(gtext.NewReader(src))

	stats := DocStats{Words: len(strings.Fields(markdown))}
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Heading:
			switch v.Level {
			case 1:
				stats.H1Count++
				if stats.Title == "" {
					stats.Title = nodeText(v, src)
				}
			case 2:
				stats.H2Count++
			case 3:
				stats.H3Count++
			}
		case *ast.Link:
			stats.Links++
		case *ast.AutoLink:
			stats.Links++
		case *ast.Paragraph:
			if stats.FirstPara == "" {
				stats.FirstPara = nodeText(v, src)
			}
		}
		return ast.WalkContinue, nil
	})
	return stats
}

func nodeText(n ast.Node, src []byte) string {
	var b bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
			continue
		}
		b.WriteString(nodeText(c, src))
	}
	return strings.TrimSpace(b.String())
}

// RenderHTML converts a Markdown body to HTML for previews and publish
// handoff.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return buf.String(), nil
}
