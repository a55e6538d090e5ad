package similarity

import (
	"math"
	"strings"
	"unicode"
)

// Vector is a sparse, L2-normalized TF-IDF vector keyed by feature index.
type Vector map[int]float64

// Vectorizer is a character n-gram TF-IDF model fitted on a fixed set of
// documents. Weighting uses smoothed idf: ln((1+n)/(1+df)) + 1.
type Vectorizer struct {
	n     int
	vocab map[string]int
	idf   []float64
}

// Fit builds the feature space from docs.
func Fit(docs []string, n int) *Vectorizer {
	v := &Vectorizer{n: n, vocab: make(map[string]int)}

	var df []int
	for _, doc := range docs {
		seen := make(map[int]struct{})
		for _, gram := range charNGrams(doc, n) {
			idx, ok := v.vocab[gram]
			if !ok {
				idx = len(v.vocab)
				v.vocab[gram] = idx
				df = append(df, 0)
			}
			if _, dup := seen[idx]; !dup {
				seen[idx] = struct{}{}
				df[idx]++
			}
		}
	}

	total := float64(len(docs))
	v.idf = make([]float64, len(df))
	for i, d := range df {
		v.idf[i] = math.Log((1+total)/(1+float64(d))) + 1
	}

	return v
}

// Transform projects text into the fitted feature space. N-grams outside the
// vocabulary are ignored.
func (v *Vectorizer) Transform(text string) Vector {
	counts := make(map[int]float64)
	for _, gram := range charNGrams(text, v.n) {
		if idx, ok := v.vocab[gram]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		w := tf * v.idf[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return Vector{}
	}

	norm = math.Sqrt(norm)
	for idx := range counts {
		counts[idx] /= norm
	}
	return Vector(counts)
}

func (v *Vectorizer) Features() int {
	return len(v.vocab)
}

// Cosine of two normalized vectors is their dot product.
func Cosine(a, b Vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for idx, w := range a {
		dot += w * b[idx]
	}
	return dot
}

// charNGrams lowercases text, collapses whitespace runs to one space and
// returns every n-rune substring.
func charNGrams(text string, n int) []string {
	if n <= 0 {
		return nil
	}

	runes := make([]rune, 0, len(text))
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if lastSpace {
				continue
			}
			r = ' '
			lastSpace = true
		} else {
			lastSpace = false
		}
		runes = append(runes, r)
	}

	if len(runes) < n {
		return nil
	}

	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}
