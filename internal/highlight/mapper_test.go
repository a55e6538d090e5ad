package highlight

import (
	"regexp"
	"testing"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func span(kind models.HighlightKind, start, end int) models.Highlight {
	return models.Highlight{Kind: kind, StartOffset: start, EndOffset: end, Confidence: 0.5}
}

var markTag = regexp.MustCompile(`</?mark[^>]*>`)

func TestClamp(t *testing.T) {
	got := Clamp([]models.Highlight{
		span(models.HighlightPlagiarism, -5, 4),
		span(models.HighlightPlagiarism, 8, 50),
		span(models.HighlightPlagiarism, 6, 6),
		span(models.HighlightPlagiarism, 12, 20),
	}, 10)

	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].StartOffset)
	assert.Equal(t, 4, got[0].EndOffset)
	assert.Equal(t, 8, got[1].StartOffset)
	assert.Equal(t, 10, got[1].EndOffset)
}

func TestMapPositions(t *testing.T) {
	got := Map([]models.Highlight{
		span(models.HighlightAIGenerated, 500, 1000),
		span(models.HighlightPlagiarism, 0, 200),
	}, 1000)

	require.Len(t, got, 2)
	assert.Equal(t, models.Position{X: 0, Width: 20}, got[0].Position)
	assert.Equal(t, models.Position{X: 50, Width: 50}, got[1].Position)
	assert.Equal(t, models.HighlightAIGenerated, got[1].Kind)
}

func TestMapEmptyText(t *testing.T) {
	got := Map([]models.Highlight{span(models.HighlightPlagiarism, 0, 5)}, 0)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestRenderHTMLSingleSpan(t *testing.T) {
	got := RenderHTML("hello <world>", []models.Highlight{span(models.HighlightPlagiarism, 6, 13)})
	assert.Equal(t, `hello <mark class="plagiarism" data-confidence="0.5000">&lt;world&gt;</mark>`, got)
}

func TestRenderHTMLOutOfOrderAndOverlapping(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	spans := []models.Highlight{
		span(models.HighlightPlagiarism, 4, 15),
		span(models.HighlightAIGenerated, 35, 43),
		span(models.HighlightAIGenerated, 10, 25),
		span(models.HighlightPlagiarism, 0, 3),
	}

	got := RenderHTML(text, spans)

	assert.Equal(t, text, markTag.ReplaceAllString(got, ""))
	assert.Contains(t, got, `<mark class="plagiarism" data-confidence="0.5000">quick </mark>`)
	assert.Contains(t, got, `<mark class="ai-generated" data-confidence="0.5000">brown fox jumps</mark>`)
	assert.Contains(t, got, `<mark class="ai-generated" data-confidence="0.5000">lazy dog</mark>`)
}

func TestRenderHTMLNestedSpanIsClipped(t *testing.T) {
	text := "abcdefghij"
	got := RenderHTML(text, []models.Highlight{
		span(models.HighlightPlagiarism, 0, 10),
		span(models.HighlightAIGenerated, 2, 5),
	})

	assert.Equal(t, text, markTag.ReplaceAllString(got, ""))
	assert.Equal(t,
		`<mark class="plagiarism" data-confidence="0.5000">ab</mark>`+
			`<mark class="ai-generated" data-confidence="0.5000">cde</mark>fghij`,
		got)
}

func TestRenderHTMLMultibyte(t *testing.T) {
	text := "naïve café text"
	got := RenderHTML(text, []models.Highlight{span(models.HighlightPlagiarism, 6, 10)})
	assert.Equal(t, `naïve <mark class="plagiarism" data-confidence="0.5000">café</mark> text`, got)
}
