package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/civicline/araldo/internal/models"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(filepath.Join(t.TempDir(), "keyword.bleve"))
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexAndSearch(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	docs := []*models.Document{
		{ID: 1, Title: "Orari della biblioteca", Text: "La biblioteca comunale è aperta dal lunedì al venerdì.", ContentType: models.ContentTypePage},
		{ID: 2, Title: "Bando mensa scolastica", Text: "Pubblicato il bando per il servizio di mensa.", ContentType: models.ContentTypeTender},
	}
	for _, d := range docs {
		if err := idx.Index(ctx, d); err != nil {
			t.Fatalf("Index failed: %v", err)
		}
	}

	hits, err := idx.Search(ctx, "biblioteca", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 || hits[0].DocID != 1 {
		t.Fatalf("expected doc 1 only, got %+v", hits)
	}

	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("DocCount = %d, want 2", count)
	}
}

func TestReindexReplaces(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	doc := &models.Document{ID: 1, Title: "Avviso neve", Text: "Scuole chiuse per neve.", ContentType: models.ContentTypeNews}
	if err := idx.Index(ctx, doc); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	doc.Text = "Scuole riaperte, viabilità regolare."
	if err := idx.Index(ctx, doc); err != nil {
		t.Fatalf("re-Index failed: %v", err)
	}

	hits, err := idx.Search(ctx, "neve", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected the updated document once, got %d hits", len(hits))
	}
	count, _ := idx.DocCount()
	if count != 1 {
		t.Errorf("DocCount = %d, want 1", count)
	}
}

func TestIndexRequiresID(t *testing.T) {
	idx := newTestIndex(t)
	if err := idx.Index(context.Background(), &models.Document{Title: "x", Text: "y"}); err == nil {
		t.Fatal("expected error for document without id")
	}
}
