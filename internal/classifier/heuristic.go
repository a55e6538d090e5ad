package classifier

import (
	"context"
	"math"
	"regexp"
	"strings"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordToken     = regexp.MustCompile(`[\p{L}']+`)
)

// Phrases that turn up far more often in model output than in human prose.
var stockPhrases = []string{
	"it is important to note",
	"it's worth noting",
	"it is worth noting",
	"in conclusion",
	"in summary",
	"furthermore",
	"moreover",
	"additionally",
	"delve",
	"plays a crucial role",
	"a testament to",
	"in today's",
	"landscape",
	"tapestry",
	"seamless",
	"robust",
	"leverage",
	"overall",
	"ultimately",
	"navigate the",
	"foster",
	"multifaceted",
}

// Heuristic is an offline stylometric classifier. It scores uniform sentence
// rhythm, stock-phrase density and long average word length.
type Heuristic struct{}

func NewHeuristic() *Heuristic {
	return &Heuristic{}
}

func (h *Heuristic) Classify(ctx context.Context, texts []string) ([]Prediction, error) {
	out := make([]Prediction, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = predictionFromProbability(aiProbability(text))
	}
	return out, nil
}

func aiProbability(text string) float64 {
	lower := strings.ToLower(text)
	words := wordToken.FindAllString(lower, -1)
	if len(words) == 0 {
		return 0
	}

	uniformity := clamp01((0.6 - sentenceLengthCV(lower)) / 0.6)

	hits := 0
	for _, phrase := range stockPhrases {
		hits += strings.Count(lower, phrase)
	}
	phraseDensity := float64(hits) / float64(len(words)) * 100
	phrases := clamp01(phraseDensity / 3)

	letters := 0
	for _, w := range words {
		letters += len([]rune(w))
	}
	avgLen := float64(letters) / float64(len(words))
	wordLength := clamp01((avgLen - 4.2) / 1.5)

	return 0.45*uniformity + 0.35*phrases + 0.2*wordLength
}

// sentenceLengthCV is the coefficient of variation of sentence lengths in
// words. Fewer than two sentences count as fully varied.
func sentenceLengthCV(text string) float64 {
	var lengths []float64
	for _, s := range sentenceSplit.Split(text, -1) {
		if n := len(wordToken.FindAllString(s, -1)); n > 0 {
			lengths = append(lengths, float64(n))
		}
	}
	if len(lengths) < 2 {
		return 1
	}

	var total float64
	for _, l := range lengths {
		total += l
	}
	mean := total / float64(len(lengths))

	var variance float64
	for _, l := range lengths {
		d := l - mean
		variance += d * d
	}
	variance /= float64(len(lengths))
	return math.Sqrt(variance) / mean
}

func clamp01(x float64) float64 {
	return min(max(x, 0), 1)
}
