package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
)

var (
	ErrNotFound = errors.New("document not found")
	// ErrStorageConflict is returned when a concurrent writer raced the same
	// dedup key. The caller retries the upsert.
	ErrStorageConflict = errors.New("storage conflict")
)

const (
	DedupGlobal = "global"
	DedupOwner  = "owner"
)

// Repository is the corpus store.
type Repository interface {
	// FetchOtherTexts returns every stored document whose fingerprint differs
	// from excludeFingerprint, regardless of owner.
	FetchOtherTexts(ctx context.Context, excludeFingerprint string) ([]models.CorpusEntry, error)
	// FindByDedupKey returns nil, nil when no document has the key.
	FindByDedupKey(ctx context.Context, key string) (*models.Document, error)
	// Upsert inserts doc or, if its DedupKey exists, refreshes the existing
	// row in place. It returns the stored document id.
	Upsert(ctx context.Context, doc *models.Document) (string, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
}

// DedupKey scopes a fingerprint. In owner scope identical content from two
// owners yields two documents; in global scope it yields one.
func DedupKey(scope, ownerID, fingerprint string) string {
	if strings.EqualFold(scope, DedupOwner) {
		return ownerID + ":" + fingerprint
	}
	return fingerprint
}
