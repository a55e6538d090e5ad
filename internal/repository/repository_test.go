package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/godfrey-tankan/document-insight-view/internal/db"
	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteRepository(t *testing.T) Repository {
	t.Helper()

	conn, err := db.Open(filepath.Join(t.TempDir(), "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(conn))

	return NewRepository(conn)
}

func backends(t *testing.T) map[string]func(t *testing.T) Repository {
	return map[string]func(t *testing.T) Repository{
		"sqlite": newSQLiteRepository,
		"memory": func(*testing.T) Repository { return NewMemoryRepository() },
	}
}

func newDocument(id, owner, fingerprint, scope string, created time.Time) *models.Document {
	return &models.Document{
		ID:              id,
		DedupKey:        DedupKey(scope, owner, fingerprint),
		OwnerID:         owner,
		Filename:        id + ".txt",
		Format:          "txt",
		Fingerprint:     fingerprint,
		NormalizedText:  "text of " + id,
		PlagiarismScore: 10,
		AIScore:         20,
		OriginalScore:   70,
		Stats:           models.Stats{WordCount: 3, CharacterCount: 12, PageCount: 1, ReadingTime: 1},
		Highlights: []models.Highlight{
			{Kind: models.HighlightPlagiarism, StartOffset: 0, EndOffset: 4, Confidence: 0.5, SourceID: "x"},
		},
		Sources:   []models.SourceMatch{{DocumentID: "x", Filename: "x.txt", MatchPercentage: 10, Snippets: []string{"text"}}},
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestUpsertInsertsThenUpdatesInPlace(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()
			now := time.Now().UTC().Truncate(time.Second)

			first := newDocument("doc-1", "alice", "fp1", DedupGlobal, now)
			id, err := repo.Upsert(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, "doc-1", id)

			second := newDocument("doc-2", "bob", "fp1", DedupGlobal, now.Add(time.Minute))
			second.PlagiarismScore = 55
			second.Highlights = nil
			second.Filename = "renamed.txt"
			id, err = repo.Upsert(ctx, second)
			require.NoError(t, err)
			assert.Equal(t, "doc-1", id)

			stored, err := repo.FindByDedupKey(ctx, "fp1")
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, "doc-1", stored.ID)
			assert.Equal(t, "alice", stored.OwnerID)
			assert.Equal(t, "renamed.txt", stored.Filename)
			assert.Equal(t, 55.0, stored.PlagiarismScore)
			assert.Empty(t, stored.Highlights)
			assert.True(t, stored.UpdatedAt.After(stored.CreatedAt))

			_, err = repo.GetByID(ctx, "doc-2")
			assert.ErrorIs(t, err, ErrNotFound)

			corpus, err := repo.FetchOtherTexts(ctx, "other")
			require.NoError(t, err)
			assert.Len(t, corpus, 1)
		})
	}
}

func TestGetByIDRoundTrip(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()
			doc := newDocument("doc-1", "alice", "fp1", DedupGlobal, time.Now().UTC().Truncate(time.Second))

			_, err := repo.Upsert(ctx, doc)
			require.NoError(t, err)

			got, err := repo.GetByID(ctx, "doc-1")
			require.NoError(t, err)
			assert.Equal(t, doc.Highlights, got.Highlights)
			assert.Equal(t, doc.Sources, got.Sources)
			assert.Equal(t, doc.Stats, got.Stats)
			assert.Equal(t, doc.NormalizedText, got.NormalizedText)
			assert.True(t, doc.CreatedAt.Equal(got.CreatedAt))

			missing, err := repo.FindByDedupKey(ctx, "nope")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestFetchOtherTextsExcludesFingerprintAcrossOwners(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()
			base := time.Now().UTC().Truncate(time.Second)

			docs := []*models.Document{
				newDocument("a", "alice", "shared", DedupOwner, base),
				newDocument("b", "bob", "shared", DedupOwner, base.Add(time.Second)),
				newDocument("c", "carol", "unique", DedupOwner, base.Add(2*time.Second)),
			}
			for _, d := range docs {
				_, err := repo.Upsert(ctx, d)
				require.NoError(t, err)
			}

			corpus, err := repo.FetchOtherTexts(ctx, "shared")
			require.NoError(t, err)
			require.Len(t, corpus, 1)
			assert.Equal(t, models.CorpusEntry{ID: "c", Filename: "c.txt", Text: "text of c"}, corpus[0])

			corpus, err = repo.FetchOtherTexts(ctx, "unique")
			require.NoError(t, err)
			require.Len(t, corpus, 2)
			assert.Equal(t, "a", corpus[0].ID)
			assert.Equal(t, "b", corpus[1].ID)
		})
	}
}

func TestConcurrentUpsertKeepsOneDocument(t *testing.T) {
	for name, build := range backends(t) {
		t.Run(name, func(t *testing.T) {
			repo := build(t)
			ctx := context.Background()
			now := time.Now().UTC()

			ids := make([]string, 8)
			var wg sync.WaitGroup
			for i := range ids {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					doc := newDocument(string(rune('a'+i)), "alice", "same", DedupGlobal, now)
					id, err := repo.Upsert(ctx, doc)
					assert.NoError(t, err)
					ids[i] = id
				}(i)
			}
			wg.Wait()

			for _, id := range ids {
				assert.Equal(t, ids[0], id)
			}
			corpus, err := repo.FetchOtherTexts(ctx, "")
			require.NoError(t, err)
			assert.Len(t, corpus, 1)
		})
	}
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "fp", DedupKey(DedupGlobal, "alice", "fp"))
	assert.Equal(t, "fp", DedupKey("", "alice", "fp"))
	assert.Equal(t, "alice:fp", DedupKey(DedupOwner, "alice", "fp"))
	assert.Equal(t, "alice:fp", DedupKey("OWNER", "alice", "fp"))
}

func TestIsConflict(t *testing.T) {
	assert.True(t, isConflict(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isConflict(&pgconn.PgError{Code: "40001"}))
	assert.False(t, isConflict(&pgconn.PgError{Code: "42P01"}))
	assert.True(t, isConflict(errors.New("constraint failed: UNIQUE constraint failed: documents.id (1555)")))
	assert.True(t, isConflict(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isConflict(errors.New("no such table: documents")))
}
