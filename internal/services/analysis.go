package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/godfrey-tankan/document-insight-view/internal/cache"
	"github.com/godfrey-tankan/document-insight-view/internal/classifier"
	"github.com/godfrey-tankan/document-insight-view/internal/events"
	"github.com/godfrey-tankan/document-insight-view/internal/extractor"
	"github.com/godfrey-tankan/document-insight-view/internal/fingerprint"
	"github.com/godfrey-tankan/document-insight-view/internal/highlight"
	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/godfrey-tankan/document-insight-view/internal/repository"
	"github.com/godfrey-tankan/document-insight-view/internal/scoring"
	"github.com/godfrey-tankan/document-insight-view/internal/similarity"
	"github.com/godfrey-tankan/document-insight-view/internal/stats"
	"github.com/godfrey-tankan/document-insight-view/internal/storage"
	"github.com/godfrey-tankan/document-insight-view/internal/utils"
)

// AI scores above this mark a document as generated.
const generatedThreshold = 70.0

type AnalysisService interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error)
	GetDocument(ctx context.Context, id string) (*models.AnalysisResult, error)
	GetHighlighted(ctx context.Context, id string) (*models.HighlightedDocument, error)
}

type Options struct {
	Extract           extractor.Options
	MinTextLength     int
	DedupScope        string
	ClassifierTimeout time.Duration
	UpsertAttempts    int
}

func DefaultOptions() Options {
	return Options{
		Extract:           extractor.DefaultOptions(),
		MinTextLength:     100,
		DedupScope:        repository.DedupGlobal,
		ClassifierTimeout: 60 * time.Second,
		UpsertAttempts:    3,
	}
}

// Deps are the collaborators of the analysis pipeline. Storage, Cache and
// Publisher are optional and default to no-ops.
type Deps struct {
	Repo       repository.Repository
	Similarity *similarity.Engine
	Detector   *classifier.Detector
	Storage    storage.Storage
	Cache      cache.ResultCache
	Publisher  events.Publisher
	Logger     *utils.Logger
}

type analysisService struct {
	repo      repository.Repository
	engine    *similarity.Engine
	detector  *classifier.Detector
	storage   storage.Storage
	cache     cache.ResultCache
	publisher events.Publisher
	logger    *utils.Logger
	opts      Options
	now       func() time.Time
}

func NewAnalysisService(deps Deps, opts Options) AnalysisService {
	if deps.Storage == nil {
		deps.Storage = storage.NewNopStorage()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNopCache()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewNopPublisher()
	}
	if deps.Logger == nil {
		deps.Logger = utils.NopLogger()
	}
	if deps.Similarity == nil {
		deps.Similarity = similarity.NewEngine(similarity.DefaultConfig())
	}
	if deps.Detector == nil {
		deps.Detector = classifier.NewDetector(classifier.NewHeuristic(), classifier.DefaultDetectorConfig())
	}
	if opts.UpsertAttempts <= 0 {
		opts.UpsertAttempts = 1
	}
	if opts.ClassifierTimeout <= 0 {
		opts.ClassifierTimeout = DefaultOptions().ClassifierTimeout
	}

	return &analysisService{
		repo:      deps.Repo,
		engine:    deps.Similarity,
		detector:  deps.Detector,
		storage:   deps.Storage,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		opts:      opts,
		now:       time.Now,
	}
}

func (s *analysisService) Analyze(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisResult, error) {
	log := s.logger.With("filename", req.Filename, "owner_id", req.OwnerID)
	log.Info("Starting document analysis", "size", len(req.File))

	extracted, err := extractor.Extract(bytes.NewReader(req.File), req.Filename, req.ContentType, s.opts.Extract)
	if err != nil {
		if extractor.IsExtractionError(err) {
			log.Warn("Text extraction failed", "error", err)
			return nil, s.extractionError(err)
		}
		log.Error("Failed to read upload", "error", err)
		return nil, utils.NewInternalError("Failed to analyze document")
	}

	text := extracted.Text
	if strings.TrimSpace(text) == "" {
		return nil, s.extractionError(extractor.ErrEmptyDocument)
	}
	if utf8.RuneCountInString(text) < s.opts.MinTextLength {
		log.Warn("Document too short to analyze", "characters", utf8.RuneCountInString(text))
		return nil, s.extractionError(extractor.ErrInsufficientText)
	}

	fp := fingerprint.Of(text)
	docStats := stats.Calculate(text)
	key := repository.DedupKey(s.opts.DedupScope, req.OwnerID, fp)
	log = log.With("fingerprint", fp)

	existing, err := s.repo.FindByDedupKey(ctx, key)
	if err != nil {
		log.Error("Failed to look up document", "error", err)
		return nil, utils.NewInternalError("Failed to analyze document")
	}

	corpus, err := s.repo.FetchOtherTexts(ctx, fp)
	if err != nil {
		log.Error("Failed to load corpus", "error", err)
		return nil, utils.NewInternalError("Failed to analyze document")
	}

	plagiarism := s.engine.Compare(text, corpus)
	ai := s.detectAI(ctx, text, log)
	scores := scoring.Reconcile(plagiarism.Score, ai.Score)

	highlights := make([]models.Highlight, 0, len(plagiarism.Highlights)+len(ai.Highlights))
	highlights = append(highlights, plagiarism.Highlights...)
	highlights = append(highlights, ai.Highlights...)

	now := s.now().UTC()
	doc := &models.Document{
		ID:              utils.GenerateID(),
		DedupKey:        key,
		OwnerID:         req.OwnerID,
		Filename:        req.Filename,
		Format:          extracted.Format,
		Fingerprint:     fp,
		NormalizedText:  text,
		PlagiarismScore: scores.Plagiarism,
		AIScore:         scores.AI,
		OriginalScore:   scores.Original,
		Stats:           docStats,
		Highlights:      highlighted(highlights, docStats.CharacterCount),
		Sources:         plagiarism.Sources,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if existing != nil {
		doc.ID = existing.ID
		doc.OwnerID = existing.OwnerID
		doc.CreatedAt = existing.CreatedAt
	}

	proposedID := doc.ID
	id, err := s.upsert(ctx, doc, log)
	if err != nil {
		log.Error("Failed to save document", "error", err)
		return nil, utils.NewInternalError("Failed to save analysis results")
	}
	deduplicated := existing != nil || id != proposedID
	doc.ID = id

	s.archive(ctx, req, fp, log)

	result := buildResult(doc)
	result.Deduplicated = deduplicated

	if err := s.cache.Set(ctx, result); err != nil {
		log.Warn("Failed to cache analysis result", "error", err)
	}
	s.publish(ctx, doc, deduplicated, log)

	log.Info("Document analyzed successfully",
		"id", doc.ID,
		"plagiarism_score", scores.Plagiarism,
		"ai_score", scores.AI,
		"original_score", scores.Original,
		"corpus_size", len(corpus),
		"deduplicated", deduplicated)

	return result, nil
}

// detectAI runs the classifier under its own deadline. Failures and
// timeouts degrade to a zero AI score.
func (s *analysisService) detectAI(ctx context.Context, text string, log *utils.Logger) classifier.Result {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ClassifierTimeout)
	defer cancel()

	result, err := s.detector.Detect(ctx, text)
	if err != nil {
		log.Warn("Classifier unavailable, falling back to plagiarism-only scoring", "error", err)
		return classifier.Result{Highlights: []models.Highlight{}}
	}
	return result
}

// upsert writes doc, retrying when a concurrent writer won the race for the
// same dedup key. The retry adopts the winner's id and overwrites its fields.
func (s *analysisService) upsert(ctx context.Context, doc *models.Document, log *utils.Logger) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.opts.UpsertAttempts; attempt++ {
		id, err := s.repo.Upsert(ctx, doc)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrStorageConflict) {
			return "", err
		}

		lastErr = err
		log.Warn("Storage conflict, retrying upsert", "attempt", attempt, "error", err)

		winner, findErr := s.repo.FindByDedupKey(ctx, doc.DedupKey)
		if findErr != nil {
			return "", findErr
		}
		if winner != nil {
			doc.ID = winner.ID
			doc.OwnerID = winner.OwnerID
			doc.CreatedAt = winner.CreatedAt
		}
	}
	return "", fmt.Errorf("upsert failed after %d attempts: %w", s.opts.UpsertAttempts, lastErr)
}

func (s *analysisService) archive(ctx context.Context, req *models.AnalyzeRequest, fp string, log *utils.Logger) {
	key := storage.ArchiveKey(fp, req.Filename)

	exists, err := s.storage.Exists(ctx, key)
	if err != nil {
		log.Warn("Failed to check archive", "error", err, "s3_key", key)
		return
	}
	if exists {
		return
	}

	if err := s.storage.Upload(ctx, key, req.File, req.ContentType); err != nil {
		log.Warn("Failed to archive upload", "error", err, "s3_key", key)
	}
}

func (s *analysisService) publish(ctx context.Context, doc *models.Document, deduplicated bool, log *utils.Logger) {
	event := models.AnalysisCompletedEvent{
		DocumentID:      doc.ID,
		OwnerID:         doc.OwnerID,
		Fingerprint:     doc.Fingerprint,
		PlagiarismScore: doc.PlagiarismScore,
		AIScore:         doc.AIScore,
		PlagiarismFlag:  len(doc.Sources) > 0,
		Deduplicated:    deduplicated,
		Timestamp:       doc.UpdatedAt.Unix(),
	}
	if len(doc.Sources) > 0 {
		event.TopSourceID = doc.Sources[0].DocumentID
	}

	if err := s.publisher.PublishAnalysisCompleted(ctx, event); err != nil {
		log.Warn("Failed to publish analysis event", "error", err)
	}
}

func (s *analysisService) GetDocument(ctx context.Context, id string) (*models.AnalysisResult, error) {
	if cached, err := s.cache.Get(ctx, id); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("Failed to read cached result", "error", err, "id", id)
	}

	doc, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}

	result := buildResult(doc)
	if err := s.cache.Set(ctx, result); err != nil {
		s.logger.Warn("Failed to cache analysis result", "error", err, "id", id)
	}
	return result, nil
}

func (s *analysisService) GetHighlighted(ctx context.Context, id string) (*models.HighlightedDocument, error) {
	doc, err := s.getStored(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.HighlightedDocument{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		HTML:       highlight.RenderHTML(doc.NormalizedText, doc.Highlights),
	}, nil
}

func (s *analysisService) getStored(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Document not found")
	}
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	return doc, nil
}

func (s *analysisService) extractionError(err error) *utils.AppError {
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Message:    "Unsupported file type. Only PDF, DOCX and TXT files are allowed",
			Err:        err,
		}
	case errors.Is(err, extractor.ErrEmptyDocument):
		return &utils.AppError{
			StatusCode: http.StatusBadRequest,
			Message:    "No text could be extracted from the document. The file may be empty",
			Err:        err,
		}
	case errors.Is(err, extractor.ErrImageBasedDocument):
		return utils.NewUnprocessableError("The document appears to be scanned or image-based. No text could be extracted", err)
	case errors.Is(err, extractor.ErrInsufficientText):
		return utils.NewUnprocessableError(
			fmt.Sprintf("The document contains too little text to analyze (minimum %d characters)", s.opts.MinTextLength), err)
	default:
		return utils.NewUnprocessableError("The document could not be read. It may be corrupted", err)
	}
}

// highlighted drops spans outside the text and orders them by offset.
func highlighted(spans []models.Highlight, length int) []models.Highlight {
	mapped := highlight.Map(spans, length)
	out := make([]models.Highlight, len(mapped))
	for i, m := range mapped {
		out[i] = m.Highlight
	}
	return out
}

func buildResult(doc *models.Document) *models.AnalysisResult {
	sources := doc.Sources
	if sources == nil {
		sources = []models.SourceMatch{}
	}

	return &models.AnalysisResult{
		DocumentID:      doc.ID,
		Filename:        doc.Filename,
		Format:          doc.Format,
		Fingerprint:     doc.Fingerprint,
		PlagiarismScore: doc.PlagiarismScore,
		AIScore:         doc.AIScore,
		OriginalScore:   doc.OriginalScore,
		AI: models.AIVerdict{
			Score:       doc.AIScore,
			IsGenerated: doc.AIScore > generatedThreshold,
		},
		TextAnalysis: models.TextAnalysis{
			OriginalContent:    doc.OriginalScore,
			PlagiarizedContent: doc.PlagiarismScore,
			AIGeneratedContent: doc.AIScore,
		},
		Stats:      doc.Stats,
		Highlights: highlight.Map(doc.Highlights, doc.Stats.CharacterCount),
		Sources:    sources,
		AnalyzedAt: doc.UpdatedAt,
	}
}
