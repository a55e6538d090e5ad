package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
)

// MemoryRepository keeps the corpus in process. Selected with
// DATABASE_URL=memory; nothing survives a restart.
type MemoryRepository struct {
	mu    sync.RWMutex
	byKey map[string]*models.Document
	byID  map[string]*models.Document
	order []string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byKey: make(map[string]*models.Document),
		byID:  make(map[string]*models.Document),
	}
}

func (m *MemoryRepository) FetchOtherTexts(_ context.Context, excludeFingerprint string) ([]models.CorpusEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []models.CorpusEntry{}
	for _, id := range m.order {
		doc := m.byID[id]
		if doc.Fingerprint == excludeFingerprint {
			continue
		}
		entries = append(entries, models.CorpusEntry{ID: doc.ID, Filename: doc.Filename, Text: doc.NormalizedText})
	}
	return entries, nil
}

func (m *MemoryRepository) FindByDedupKey(_ context.Context, key string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	return clone(doc), nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(doc), nil
}

func (m *MemoryRepository) Upsert(_ context.Context, doc *models.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byKey[doc.DedupKey]; ok {
		existing.Filename = doc.Filename
		existing.Format = doc.Format
		existing.PlagiarismScore = doc.PlagiarismScore
		existing.AIScore = doc.AIScore
		existing.OriginalScore = doc.OriginalScore
		existing.Stats = doc.Stats
		existing.Highlights = append([]models.Highlight{}, doc.Highlights...)
		existing.Sources = append([]models.SourceMatch{}, doc.Sources...)
		existing.UpdatedAt = doc.UpdatedAt
		return existing.ID, nil
	}

	stored := clone(doc)
	m.byKey[doc.DedupKey] = stored
	m.byID[doc.ID] = stored
	m.order = append(m.order, doc.ID)
	sort.SliceStable(m.order, func(i, j int) bool {
		return m.byID[m.order[i]].CreatedAt.Before(m.byID[m.order[j]].CreatedAt)
	})
	return doc.ID, nil
}

func clone(doc *models.Document) *models.Document {
	c := *doc
	c.Highlights = append([]models.Highlight{}, doc.Highlights...)
	c.Sources = append([]models.SourceMatch{}, doc.Sources...)
	return &c
}
