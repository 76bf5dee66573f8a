// Package storage provides the SQLite implementation of Store.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/civicline/araldo/internal/models"
)

// SQLiteStore implements Store using SQLite in WAL mode.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		doc_key TEXT NOT NULL UNIQUE,
		url TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL,
		meta_description TEXT NOT NULL DEFAULT '',
		meta_keywords TEXT NOT NULL DEFAULT '',
		breadcrumbs TEXT NOT NULL DEFAULT '[]',
		content_type TEXT NOT NULL DEFAULT 'page',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_content_type ON documents(content_type);

	CREATE TABLE IF NOT EXISTS crawl_state (
		url TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// UpsertDocument inserts doc or replaces the row with the same doc_key,
// keeping the row id stable so chunk-map entries written against the old
// version still resolve to the replacing document.
func (s *SQLiteStore) UpsertDocument(ctx context.Context, doc *models.Document) (int64, error) {
	crumbs, err := json.Marshal(doc.Breadcrumbs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal breadcrumbs: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (doc_key, url, source, title, text, meta_description, meta_keywords, breadcrumbs, content_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(doc_key) DO UPDATE SET
			title = excluded.title,
			text = excluded.text,
			meta_description = excluded.meta_description,
			meta_keywords = excluded.meta_keywords,
			breadcrumbs = excluded.breadcrumbs,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at`,
		doc.Key(), doc.URL, doc.Source, doc.Title, doc.Text,
		doc.MetaDescription, doc.MetaKeywords, string(crumbs), doc.ContentType, now, now,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM documents WHERE doc_key = ?`, doc.Key(),
	).Scan(&id); err != nil {
		return 0, err
	}
	doc.ID = id
	return id, nil
}

// GetDocument returns a document by its stable id.
func (s *SQLiteStore) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByKey returns a document by its structural key (URL or upload source).
func (s *SQLiteStore) GetDocumentByKey(ctx context.Context, key string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE doc_key = ?`, key)
	return scanDocument(row)
}

const selectColumns = `SELECT id, url, source, title, text, meta_description, meta_keywords, breadcrumbs, content_type, created_at, updated_at FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var crumbs string
	err := row.Scan(&doc.ID, &doc.URL, &doc.Source, &doc.Title, &doc.Text,
		&doc.MetaDescription, &doc.MetaKeywords, &crumbs, &doc.ContentType,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found")
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(crumbs), &doc.Breadcrumbs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal breadcrumbs: %w", err)
	}
	return &doc, nil
}

// ListDocuments returns documents ordered by id (insertion order is stable).
func (s *SQLiteStore) ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// CountDocuments returns the number of stored documents.
func (s *SQLiteStore) CountDocuments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// GetChecksum returns the recorded checksum for url, if any.
func (s *SQLiteStore) GetChecksum(ctx context.Context, url string) (string, bool, error) {
	var sum string
	err := s.db.QueryRowContext(ctx, `SELECT checksum FROM crawl_state WHERE url = ?`, url).Scan(&sum)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return sum, true, nil
}

// PutChecksum records the checksum of the most recently committed fetch of url.
func (s *SQLiteStore) PutChecksum(ctx context.Context, url, checksum string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crawl_state (url, checksum, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET checksum = excluded.checksum, updated_at = excluded.updated_at`,
		url, checksum, time.Now(),
	)
	return err
}

// CountChecksums returns the number of URLs with recorded crawl state.
func (s *SQLiteStore) CountChecksums(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crawl_state`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
