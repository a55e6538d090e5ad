// Package similarity scores textual overlap between a candidate document and
// the corpus using sliding windows over character n-gram TF-IDF vectors.
package similarity

import (
	"sort"
	"strings"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/scoring"
)

const maxSnippets = 3

type Config struct {
	NGram     int
	Window    int
	Step      int
	Threshold float64
}

func DefaultConfig() Config {
	return Config{
		NGram:     5,
		Window:    200,
		Step:      100,
		Threshold: 0.3,
	}
}

type Result struct {
	// Score is the percentage of characters covered by at least one
	// matching window.
	Score      float64
	Highlights []models.Highlight
	Sources    []models.SourceMatch
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	if cfg.NGram <= 0 || cfg.Window <= 0 || cfg.Step <= 0 {
		cfg = DefaultConfig()
	}
	return &Engine{cfg: cfg}
}

type sourceCoverage struct {
	covered  []bool
	count    int
	snippets []string
}

// Compare scans text against corpus. An empty corpus, or text shorter than
// one window, yields a zero result without any vectorization.
func (e *Engine) Compare(text string, corpus []models.CorpusEntry) Result {
	runes := []rune(text)
	if len(corpus) == 0 || len(runes) < e.cfg.Window {
		return Result{Highlights: []models.Highlight{}, Sources: []models.SourceMatch{}}
	}

	docs := make([]string, 0, len(corpus)+1)
	docs = append(docs, text)
	for _, entry := range corpus {
		docs = append(docs, entry.Text)
	}

	vectorizer := Fit(docs, e.cfg.NGram)
	corpusVectors := make([]Vector, len(corpus))
	for i, entry := range corpus {
		corpusVectors[i] = vectorizer.Transform(entry.Text)
	}

	matched := make([]bool, len(runes))
	matchedCount := 0
	highlights := make([]models.Highlight, 0)
	coverage := make(map[int]*sourceCoverage)

	for start := 0; start+e.cfg.Window <= len(runes); start += e.cfg.Step {
		end := start + e.cfg.Window
		window := string(runes[start:end])
		windowVector := vectorizer.Transform(window)

		best, bestSim := -1, 0.0
		for i, cv := range corpusVectors {
			sim := Cosine(windowVector, cv)
			if sim <= e.cfg.Threshold {
				continue
			}

			sc, ok := coverage[i]
			if !ok {
				sc = &sourceCoverage{covered: make([]bool, len(runes))}
				coverage[i] = sc
			}
			for p := start; p < end; p++ {
				if !sc.covered[p] {
					sc.covered[p] = true
					sc.count++
				}
			}
			if len(sc.snippets) < maxSnippets {
				sc.snippets = append(sc.snippets, strings.TrimSpace(window))
			}

			if sim > bestSim {
				best, bestSim = i, sim
			}
		}

		if best < 0 {
			continue
		}

		for p := start; p < end; p++ {
			if !matched[p] {
				matched[p] = true
				matchedCount++
			}
		}

		highlights = append(highlights, models.Highlight{
			Kind:        models.HighlightPlagiarism,
			StartOffset: start,
			EndOffset:   end,
			Confidence:  scoring.Round4(min(bestSim, 1)),
			SourceID:    corpus[best].ID,
		})
	}

	return Result{
		Score:      min(100, scoring.Round1(float64(matchedCount)/float64(len(runes))*100)),
		Highlights: highlights,
		Sources:    buildSources(corpus, coverage, len(runes)),
	}
}

func buildSources(corpus []models.CorpusEntry, coverage map[int]*sourceCoverage, total int) []models.SourceMatch {
	sources := make([]models.SourceMatch, 0, len(coverage))
	for i, sc := range coverage {
		sources = append(sources, models.SourceMatch{
			DocumentID:      corpus[i].ID,
			Filename:        corpus[i].Filename,
			MatchPercentage: min(100, scoring.Round1(float64(sc.count)/float64(total)*100)),
			Snippets:        sc.snippets,
		})
	}

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].MatchPercentage == sources[j].MatchPercentage {
			return sources[i].DocumentID < sources[j].DocumentID
		}
		return sources[i].MatchPercentage > sources[j].MatchPercentage
	})

	return sources
}
