package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/civicline/araldo/internal/crawl"
	"github.com/civicline/araldo/internal/embedding"
	"github.com/civicline/araldo/internal/extract"
	"github.com/civicline/araldo/internal/keyword"
	"github.com/civicline/araldo/internal/storage"
	"github.com/civicline/araldo/internal/vector"
)

func pageHTML(title, body string) string {
	return fmt.Sprintf(`<html><head><title>%s</title></head><body><main>%s</main></body></html>`, title, body)
}

// testSite serves a small two-level site. The mutable map lets tests change
// page content between refresh runs.
func testSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPipeline(t *testing.T) (*Pipeline, storage.Store, *vector.FlatIndex) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.NewSQLiteStore(filepath.Join(dir, "araldo.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	kw, err := keyword.NewIndex(filepath.Join(dir, "keyword.bleve"))
	if err != nil {
		t.Fatalf("keyword.NewIndex failed: %v", err)
	}
	t.Cleanup(func() { kw.Close() })

	idx := vector.NewFlatIndex()
	fetcher := crawl.NewFetcher(2, 5*time.Second, 100, "araldo-test/1.0")
	p := New(Deps{
		Crawler:   crawl.NewCrawler(fetcher, 2),
		Extractor: extract.NewHTMLExtractor(10),
		Files:     extract.NewFileExtractor(),
		Store:     store,
		Index:     idx,
		Keyword:   kw,
		Embedder:  embedding.NewMockEmbedder(16),
		Chunker:   NewChunker(&embedding.WordTokenizer{}, 50),
		IndexPath: filepath.Join(dir, "vectors.bin"),
	})
	return p, store, idx
}

func TestRefreshIndexesSite(t *testing.T) {
	pages := map[string]string{
		"/": pageHTML("Home", `Benvenuti sul sito del comune. <a href="/notizie/festa">Festa</a> <a href="/bandi/mensa">Mensa</a>`),
		"/notizie/festa": pageHTML("Festa del patrono", "Il programma completo della festa del patrono con eventi in piazza."),
		"/bandi/mensa":   pageHTML("Bando mensa", "Avviso pubblico per il servizio di refezione scolastica per le scuole."),
	}
	srv := testSite(t, pages)
	p, store, idx := newTestPipeline(t)
	ctx := context.Background()

	processed, err := p.Refresh(ctx, srv.URL+"/", 10, 2)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if processed != 3 {
		t.Fatalf("processed = %d, want 3", processed)
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 3 {
		t.Errorf("stored documents = %d, want 3", count)
	}
	if idx.Size() != 3 {
		t.Errorf("index size = %d, want 3 (one chunk per short page)", idx.Size())
	}

	doc, err := store.GetDocumentByKey(ctx, srv.URL+"/notizie/festa")
	if err != nil {
		t.Fatalf("GetDocumentByKey failed: %v", err)
	}
	if doc.ContentType != "news" {
		t.Errorf("content type = %q, want news", doc.ContentType)
	}
}

func TestRefreshSkipsUnchanged(t *testing.T) {
	pages := map[string]string{
		"/": pageHTML("Home", "Contenuto stabile della pagina principale del sito istituzionale."),
	}
	srv := testSite(t, pages)
	p, _, idx := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, srv.URL+"/", 10, 1); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}
	sizeAfterFirst := idx.Size()

	processed, err := p.Refresh(ctx, srv.URL+"/", 10, 1)
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if processed != 0 {
		t.Errorf("second run processed = %d, want 0", processed)
	}
	if idx.Size() != sizeAfterFirst {
		t.Errorf("index grew on unchanged content: %d -> %d", sizeAfterFirst, idx.Size())
	}
}

func TestRefreshReindexesChanged(t *testing.T) {
	pages := map[string]string{
		"/": pageHTML("Home", "Prima versione del contenuto con abbastanza testo."),
	}
	srv := testSite(t, pages)
	p, store, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.Refresh(ctx, srv.URL+"/", 10, 1); err != nil {
		t.Fatalf("first Refresh failed: %v", err)
	}

	pages["/"] = pageHTML("Home", "Seconda versione del contenuto, aggiornata con nuove informazioni.")
	processed, err := p.Refresh(ctx, srv.URL+"/", 10, 1)
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}

	doc, err := store.GetDocumentByKey(ctx, srv.URL+"/")
	if err != nil {
		t.Fatalf("GetDocumentByKey failed: %v", err)
	}
	if !strings.Contains(doc.Text, "Seconda versione") {
		t.Errorf("stored text not updated: %q", doc.Text)
	}
	count, _ := store.CountDocuments(ctx)
	if count != 1 {
		t.Errorf("document count = %d, want 1 (update in place)", count)
	}
}

func TestRefreshSkipsThinPages(t *testing.T) {
	pages := map[string]string{
		"/":      pageHTML("Home", `Pagina principale con contenuto sufficiente. <a href="/vuota">Vuota</a>`),
		"/vuota": pageHTML("Vuota", "ok"),
	}
	srv := testSite(t, pages)
	p, store, _ := newTestPipeline(t)
	ctx := context.Background()

	processed, err := p.Refresh(ctx, srv.URL+"/", 10, 1)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if processed != 1 {
		t.Errorf("processed = %d, want 1 (thin page rejected)", processed)
	}
	if _, err := store.GetDocumentByKey(ctx, srv.URL+"/vuota"); err == nil {
		t.Error("thin page should not be stored")
	}
	// The rejection is remembered, so the next run skips the page outright.
	if _, ok, _ := store.GetChecksum(ctx, srv.URL+"/vuota"); !ok {
		t.Error("thin page checksum not recorded")
	}
}

func TestRefreshAbortsOnEmbeddingFailure(t *testing.T) {
	pages := map[string]string{
		"/": pageHTML("Home", "Contenuto della pagina principale con testo a sufficienza."),
	}
	srv := testSite(t, pages)
	p, store, _ := newTestPipeline(t)
	p.embedder = failingEmbedder{}
	ctx := context.Background()

	if _, err := p.Refresh(ctx, srv.URL+"/", 10, 1); err == nil {
		t.Fatal("expected Refresh to fail when embedding fails")
	}
	// No checksum committed, so the page is retried on the next run.
	if _, ok, _ := store.GetChecksum(ctx, srv.URL+"/"); ok {
		t.Error("checksum must not be committed for an unembedded page")
	}
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("embedding service unavailable")
}

func (failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding service unavailable")
}

func (failingEmbedder) Dimensions() int { return 16 }
func (failingEmbedder) Close() error    { return nil }

func TestIngestUpload(t *testing.T) {
	p, store, idx := newTestPipeline(t)
	ctx := context.Background()

	id, err := p.IngestUpload(ctx, "regolamento.pdf", "Il regolamento edilizio comunale disciplina le attività di costruzione.")
	if err != nil {
		t.Fatalf("IngestUpload failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a document id")
	}

	doc, err := store.GetDocumentByKey(ctx, "upload:regolamento.pdf")
	if err != nil {
		t.Fatalf("GetDocumentByKey failed: %v", err)
	}
	if doc.ID != id {
		t.Errorf("returned id %d does not match stored id %d", id, doc.ID)
	}
	if idx.Size() == 0 {
		t.Error("upload produced no vectors")
	}
}

func TestIngestUploadRejectsEmpty(t *testing.T) {
	p, _, _ := newTestPipeline(t)
	if _, err := p.IngestUpload(context.Background(), "vuoto.txt", "   \n"); err == nil {
		t.Fatal("expected error for empty upload")
	}
}
