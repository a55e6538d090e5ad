package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

// NewRepository works with both sqlite and postgres; queries use ? and are
// rebound for the connection's driver.
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

type documentRow struct {
	ID              string    `db:"id"`
	DedupKey        string    `db:"dedup_key"`
	OwnerID         string    `db:"owner_id"`
	Filename        string    `db:"filename"`
	Format          string    `db:"format"`
	Fingerprint     string    `db:"fingerprint"`
	Content         string    `db:"content"`
	PlagiarismScore float64   `db:"plagiarism_score"`
	AIScore         float64   `db:"ai_score"`
	OriginalScore   float64   `db:"original_score"`
	WordCount       int       `db:"word_count"`
	CharacterCount  int       `db:"character_count"`
	PageCount       int       `db:"page_count"`
	ReadingTime     int       `db:"reading_time"`
	Highlights      string    `db:"highlights"`
	Sources         string    `db:"sources"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

const documentColumns = `id, dedup_key, owner_id, filename, format, fingerprint, content,
	plagiarism_score, ai_score, original_score,
	word_count, character_count, page_count, reading_time,
	highlights, sources, created_at, updated_at`

func (r *repository) FetchOtherTexts(ctx context.Context, excludeFingerprint string) ([]models.CorpusEntry, error) {
	query := r.db.Rebind(`
		SELECT id, filename, content
		FROM documents
		WHERE fingerprint <> ?
		ORDER BY created_at, id
	`)

	entries := []models.CorpusEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, excludeFingerprint); err != nil {
		return nil, fmt.Errorf("failed to fetch corpus: %w", err)
	}
	return entries, nil
}

func (r *repository) FindByDedupKey(ctx context.Context, key string) (*models.Document, error) {
	return r.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE dedup_key = ?`, key)
}

func (r *repository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	doc, err := r.getOne(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (r *repository) getOne(ctx context.Context, query string, arg string) (*models.Document, error) {
	var row documentRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDocument()
}

func (r *repository) Upsert(ctx context.Context, doc *models.Document) (string, error) {
	row, err := rowFromDocument(doc)
	if err != nil {
		return "", err
	}

	// Scores, stats and highlights are replaced wholesale; id, owner and
	// created_at belong to the first writer.
	query := r.db.Rebind(`
		INSERT INTO documents (` + documentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (dedup_key) DO UPDATE SET
			filename = excluded.filename,
			format = excluded.format,
			plagiarism_score = excluded.plagiarism_score,
			ai_score = excluded.ai_score,
			original_score = excluded.original_score,
			word_count = excluded.word_count,
			character_count = excluded.character_count,
			page_count = excluded.page_count,
			reading_time = excluded.reading_time,
			highlights = excluded.highlights,
			sources = excluded.sources,
			updated_at = excluded.updated_at
		RETURNING id
	`)

	var id string
	err = r.db.QueryRowxContext(ctx, query,
		row.ID,
		row.DedupKey,
		row.OwnerID,
		row.Filename,
		row.Format,
		row.Fingerprint,
		row.Content,
		row.PlagiarismScore,
		row.AIScore,
		row.OriginalScore,
		row.WordCount,
		row.CharacterCount,
		row.PageCount,
		row.ReadingTime,
		row.Highlights,
		row.Sources,
		row.CreatedAt,
		row.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if isConflict(err) {
			return "", fmt.Errorf("%w: %v", ErrStorageConflict, err)
		}
		return "", fmt.Errorf("failed to upsert document: %w", err)
	}

	return id, nil
}

// isConflict recognizes lost races: unique violations and serialization
// failures on postgres, locked or constrained writes on sqlite.
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" || pgErr.Code == "40001"
	}

	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

func rowFromDocument(doc *models.Document) (documentRow, error) {
	highlights := doc.Highlights
	if highlights == nil {
		highlights = []models.Highlight{}
	}
	sources := doc.Sources
	if sources == nil {
		sources = []models.SourceMatch{}
	}

	highlightsJSON, err := json.Marshal(highlights)
	if err != nil {
		return documentRow{}, err
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return documentRow{}, err
	}

	return documentRow{
		ID:              doc.ID,
		DedupKey:        doc.DedupKey,
		OwnerID:         doc.OwnerID,
		Filename:        doc.Filename,
		Format:          doc.Format,
		Fingerprint:     doc.Fingerprint,
		Content:         doc.NormalizedText,
		PlagiarismScore: doc.PlagiarismScore,
		AIScore:         doc.AIScore,
		OriginalScore:   doc.OriginalScore,
		WordCount:       doc.Stats.WordCount,
		CharacterCount:  doc.Stats.CharacterCount,
		PageCount:       doc.Stats.PageCount,
		ReadingTime:     doc.Stats.ReadingTime,
		Highlights:      string(highlightsJSON),
		Sources:         string(sourcesJSON),
		CreatedAt:       doc.CreatedAt.UTC(),
		UpdatedAt:       doc.UpdatedAt.UTC(),
	}, nil
}

func (row documentRow) toDocument() (*models.Document, error) {
	doc := &models.Document{
		ID:              row.ID,
		DedupKey:        row.DedupKey,
		OwnerID:         row.OwnerID,
		Filename:        row.Filename,
		Format:          row.Format,
		Fingerprint:     row.Fingerprint,
		NormalizedText:  row.Content,
		PlagiarismScore: row.PlagiarismScore,
		AIScore:         row.AIScore,
		OriginalScore:   row.OriginalScore,
		Stats: models.Stats{
			WordCount:      row.WordCount,
			CharacterCount: row.CharacterCount,
			PageCount:      row.PageCount,
			ReadingTime:    row.ReadingTime,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}

	if err := json.Unmarshal([]byte(row.Highlights), &doc.Highlights); err != nil {
		return nil, fmt.Errorf("failed to decode highlights: %w", err)
	}
	if err := json.Unmarshal([]byte(row.Sources), &doc.Sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources: %w", err)
	}

	return doc, nil
}
