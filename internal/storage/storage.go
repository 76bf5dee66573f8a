// Package storage defines persistence for documents and crawl state.
package storage

import (
	"context"

	"github.com/civicline/araldo/internal/models"
)

// Store defines the persisted state the pipeline owns: the URL-keyed
// document collection and the URL→checksum crawl state. One refresh run at
// a time owns the store for writing; retrieval reads may interleave.
type Store interface {
	// UpsertDocument inserts doc or replaces the existing document with the
	// same key in place. The document id is stable across replacement and is
	// written back to doc.ID.
	UpsertDocument(ctx context.Context, doc *models.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentByKey(ctx context.Context, key string) (*models.Document, error)
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)
	CountDocuments(ctx context.Context) (int64, error)

	// Crawl state: one checksum per URL, always that of the most recently
	// committed fetch.
	GetChecksum(ctx context.Context, url string) (string, bool, error)
	PutChecksum(ctx context.Context, url, checksum string) error
	CountChecksums(ctx context.Context) (int64, error)

	Close() error
}
