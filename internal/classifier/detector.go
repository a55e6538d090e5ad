package classifier

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/scoring"
)

type DetectorConfig struct {
	ChunkSize int
	MinChunk  int
	// MinLength is the shortest text worth classifying at all.
	MinLength int
	Workers   int
	BatchSize int
}

func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		ChunkSize: 512,
		MinChunk:  100,
		MinLength: 300,
		Workers:   4,
		BatchSize: 8,
	}
}

type Result struct {
	// Score is the raw document score before the plagiarism cap.
	Score      float64
	Highlights []models.Highlight
}

type chunk struct {
	start, end int
	text       string
}

type batch struct {
	first  int
	chunks []chunk
}

// Detector splits text into chunks, classifies them in parallel batches and
// aggregates the chunk scores.
type Detector struct {
	clf Classifier
	cfg DetectorConfig
}

func NewDetector(clf Classifier, cfg DetectorConfig) *Detector {
	def := DefaultDetectorConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.MinChunk < 0 {
		cfg.MinChunk = def.MinChunk
	}
	if cfg.MinLength < 0 {
		cfg.MinLength = def.MinLength
	}
	if cfg.Workers <= 0 {
		cfg.Workers = max(1, runtime.NumCPU())
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	return &Detector{clf: clf, cfg: cfg}
}

func emptyResult() Result {
	return Result{Highlights: []models.Highlight{}}
}

// Detect scores text. Short texts score 0 without calling the classifier.
// Any failed batch discards the whole pass and returns a zero result with
// an error wrapping ErrClassifierUnavailable.
func (d *Detector) Detect(ctx context.Context, text string) (Result, error) {
	runes := []rune(text)
	if len(runes) < d.cfg.MinLength {
		return emptyResult(), nil
	}

	chunks := d.split(runes)
	if len(chunks) == 0 {
		return emptyResult(), nil
	}

	predictions, err := d.classify(ctx, chunks)
	if err != nil {
		return emptyResult(), fmt.Errorf("%w: %v", ErrClassifierUnavailable, err)
	}

	var weighted, totalLen float64
	highlights := make([]models.Highlight, 0)
	for i, c := range chunks {
		p := predictions[i]
		length := float64(c.end - c.start)
		weighted += AIContribution(p) * length
		totalLen += length

		if p.Label == LabelAI {
			highlights = append(highlights, models.Highlight{
				Kind:        models.HighlightAIGenerated,
				StartOffset: c.start,
				EndOffset:   c.end,
				Confidence:  scoring.Round4(clamp01(p.Confidence)),
			})
		}
	}

	return Result{
		Score:      min(100, scoring.Round1(weighted/totalLen)),
		Highlights: highlights,
	}, nil
}

func (d *Detector) split(runes []rune) []chunk {
	var chunks []chunk
	for start := 0; start < len(runes); start += d.cfg.ChunkSize {
		end := min(start+d.cfg.ChunkSize, len(runes))
		if end-start < d.cfg.MinChunk {
			break
		}
		chunks = append(chunks, chunk{start: start, end: end, text: string(runes[start:end])})
	}
	return chunks
}

// classify runs batches through a worker pool and writes each prediction at
// its chunk index, so completion order does not matter.
func (d *Detector) classify(ctx context.Context, chunks []chunk) ([]Prediction, error) {
	var batches []batch
	for i := 0; i < len(chunks); i += d.cfg.BatchSize {
		batches = append(batches, batch{first: i, chunks: chunks[i:min(i+d.cfg.BatchSize, len(chunks))]})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	predictions := make([]Prediction, len(chunks))
	jobs := make(chan batch)
	errs := make(chan error, len(batches))
	var wg sync.WaitGroup

	for i := 0; i < min(d.cfg.Workers, len(batches)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if err := d.classifyBatch(ctx, b, predictions); err != nil {
					errs <- err
					cancel()
				}
			}
		}()
	}

	for _, b := range batches {
		jobs <- b
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return nil, err
	}
	return predictions, nil
}

func (d *Detector) classifyBatch(ctx context.Context, b batch, predictions []Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	texts := make([]string, len(b.chunks))
	for i, c := range b.chunks {
		texts[i] = c.text
	}

	preds, err := d.clf.Classify(ctx, texts)
	if err != nil {
		return fmt.Errorf("batch at chunk %d: %w", b.first, err)
	}
	if len(preds) != len(texts) {
		return fmt.Errorf("batch at chunk %d: expected %d predictions, got %d", b.first, len(texts), len(preds))
	}

	copy(predictions[b.first:], preds)
	return nil
}
