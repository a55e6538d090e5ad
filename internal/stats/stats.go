package stats

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
)

const (
	charsPerPage   = 1500
	msPerChar      = 14.69
	wordsPerMinute = 200
)

// Calculate never fails; reading time falls back to a words-per-minute
// estimate when the per-character model gives an unusable value.
func Calculate(text string) models.Stats {
	chars := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))

	return models.Stats{
		WordCount:      words,
		CharacterCount: chars,
		PageCount:      pageCount(chars),
		ReadingTime:    readingTime(chars, words),
	}
}

// pageCount is ceil(chars/1500), at least 1: a full 1500-character page
// does not open a new one.
func pageCount(chars int) int {
	return max(1, (chars+charsPerPage-1)/charsPerPage)
}

func readingTime(chars, words int) int {
	minutes := estimateMinutes(chars)
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		return max(1, words/wordsPerMinute)
	}
	return max(1, int(math.Round(minutes)))
}

func estimateMinutes(chars int) float64 {
	return float64(chars) * msPerChar / 1000 / 60
}
