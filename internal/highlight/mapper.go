// Package highlight turns offset-based spans into rendering output.
package highlight

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/scoring"
)

// Clamp bounds every span to [0, length] and drops spans that end up empty.
// Input order is preserved.
func Clamp(highlights []models.Highlight, length int) []models.Highlight {
	out := make([]models.Highlight, 0, len(highlights))
	for _, h := range highlights {
		start := max(0, min(h.StartOffset, length))
		end := max(0, min(h.EndOffset, length))
		if start >= end {
			continue
		}
		h.StartOffset, h.EndOffset = start, end
		out = append(out, h)
	}
	return out
}

// Position derives the percentage box for a span in a text of length runes.
func Position(h models.Highlight, length int) models.Position {
	if length <= 0 {
		return models.Position{}
	}
	total := float64(length)
	return models.Position{
		X:     scoring.Round4(float64(h.StartOffset) / total * 100),
		Width: scoring.Round4(float64(h.EndOffset-h.StartOffset) / total * 100),
	}
}

// Map clamps highlights to the text and attaches positions, ordered by start
// offset.
func Map(highlights []models.Highlight, length int) []models.PositionedHighlight {
	clamped := Clamp(highlights, length)
	sort.SliceStable(clamped, func(i, j int) bool {
		return clamped[i].StartOffset < clamped[j].StartOffset
	})

	out := make([]models.PositionedHighlight, 0, len(clamped))
	for _, h := range clamped {
		out = append(out, models.PositionedHighlight{Highlight: h, Position: Position(h, length)})
	}
	return out
}

// RenderHTML escapes text and wraps each span in a <mark> tag. Spans are
// applied back-to-front; a span overlapping one already applied is clipped
// to the untouched prefix so earlier markup is never split.
func RenderHTML(text string, highlights []models.Highlight) string {
	runes := []rune(text)
	spans := Clamp(highlights, len(runes))

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].StartOffset == spans[j].StartOffset {
			return spans[i].EndOffset > spans[j].EndOffset
		}
		return spans[i].StartOffset > spans[j].StartOffset
	})

	pieces := make([]string, 0, len(spans)*2+1)
	cursor := len(runes)
	for _, h := range spans {
		end := min(h.EndOffset, cursor)
		if h.StartOffset >= end {
			continue
		}
		pieces = append(pieces, html.EscapeString(string(runes[end:cursor])))
		pieces = append(pieces, fmt.Sprintf(`<mark class="%s" data-confidence="%.4f">%s</mark>`,
			h.Kind, h.Confidence, html.EscapeString(string(runes[h.StartOffset:end]))))
		cursor = h.StartOffset
	}
	pieces = append(pieces, html.EscapeString(string(runes[:cursor])))

	var b strings.Builder
	for i := len(pieces) - 1; i >= 0; i-- {
		b.WriteString(pieces[i])
	}
	return b.String()
}
