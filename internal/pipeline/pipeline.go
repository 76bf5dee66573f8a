// Package pipeline ties crawling, extraction, chunking, embedding and
// indexing into the refresh and upload ingestion flows.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/civicline/araldo/internal/crawl"
	"github.com/civicline/araldo/internal/embedding"
	"github.com/civicline/araldo/internal/extract"
	"github.com/civicline/araldo/internal/keyword"
	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/internal/storage"
	"github.com/civicline/araldo/internal/vector"
)

// Pipeline runs refresh crawls and upload ingestion. Runs are serialized:
// at most one writer mutates the index at a time, while queries keep reading.
type Pipeline struct {
	crawler   *crawl.Crawler
	extractor *extract.HTMLExtractor
	files     *extract.FileExtractor
	store     storage.Store
	index     *vector.FlatIndex
	keyword   *keyword.Index
	embedder  embedding.Embedder
	chunker   *Chunker
	indexPath string
	logger    *zap.Logger

	runMu sync.Mutex
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Deps are the collaborators a Pipeline needs.
type Deps struct {
	Crawler   *crawl.Crawler
	Extractor *extract.HTMLExtractor
	Files     *extract.FileExtractor
	Store     storage.Store
	Index     *vector.FlatIndex
	Keyword   *keyword.Index
	Embedder  embedding.Embedder
	Chunker   *Chunker
	IndexPath string
}

// New creates a Pipeline from its collaborators.
func New(deps Deps, opts ...Option) *Pipeline {
	p := &Pipeline{
		crawler:   deps.Crawler,
		extractor: deps.Extractor,
		files:     deps.Files,
		store:     deps.Store,
		index:     deps.Index,
		keyword:   deps.Keyword,
		embedder:  deps.Embedder,
		chunker:   deps.Chunker,
		indexPath: deps.IndexPath,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh crawls from seedURL and indexes every new or changed page. It
// returns the number of documents indexed this run. Pages whose content hash
// matches the stored checksum are skipped without re-embedding. An embedding
// failure aborts the run; documents already committed stay indexed and their
// pages will not be re-processed on the next run.
func (p *Pipeline) Refresh(ctx context.Context, seedURL string, maxPages, maxDepth int) (int, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	logger.Info("starting refresh",
		zap.String("seed_url", seedURL),
		zap.Int("max_pages", maxPages),
		zap.Int("max_depth", maxDepth))

	processed := 0
	crawlErr := p.crawler.Crawl(ctx, seedURL, crawl.Limits{MaxPages: maxPages, MaxDepth: maxDepth}, func(page *crawl.Page) error {
		indexed, err := p.processPage(ctx, logger, page)
		if err != nil {
			return err
		}
		if indexed {
			processed++
		}
		return nil
	})

	// Persist whatever was appended even when the run aborts midway;
	// committed documents already carry their checksum.
	if err := p.index.Save(p.indexPath); err != nil {
		logger.Error("failed to save vector index", zap.Error(err))
		if crawlErr == nil {
			crawlErr = err
		}
	}
	if crawlErr != nil {
		logger.Error("refresh aborted", zap.Int("processed", processed), zap.Error(crawlErr))
		return processed, crawlErr
	}

	logger.Info("refresh complete",
		zap.Int("processed", processed),
		zap.Int("index_size", p.index.Size()))
	return processed, nil
}

// processPage handles one fetched page. It returns true when the page was
// indexed, false when it was skipped (unchanged, thin, or unparseable).
func (p *Pipeline) processPage(ctx context.Context, logger *zap.Logger, page *crawl.Page) (bool, error) {
	sum := sha256.Sum256(page.Body)
	checksum := hex.EncodeToString(sum[:])

	stored, ok, err := p.store.GetChecksum(ctx, page.URL)
	if err != nil {
		return false, fmt.Errorf("failed to read checksum for %s: %w", page.URL, err)
	}
	if ok && stored == checksum {
		logger.Debug("page unchanged", zap.String("url", page.URL))
		return false, nil
	}

	doc, err := p.extractor.Page(page.Body, page.URL)
	if err != nil {
		if errors.Is(err, extract.ErrThinContent) {
			// Remember the rejection so the page is not re-fetched into
			// the extractor every run. A content change resets it.
			if err := p.store.PutChecksum(ctx, page.URL, checksum); err != nil {
				return false, fmt.Errorf("failed to record checksum for %s: %w", page.URL, err)
			}
			logger.Debug("page too thin, skipped", zap.String("url", page.URL))
			return false, nil
		}
		logger.Warn("extraction failed, page skipped", zap.String("url", page.URL), zap.Error(err))
		return false, nil
	}

	if err := p.indexDocument(ctx, logger, doc); err != nil {
		return false, err
	}
	if err := p.store.PutChecksum(ctx, page.URL, checksum); err != nil {
		return false, fmt.Errorf("failed to record checksum for %s: %w", page.URL, err)
	}
	return true, nil
}

// indexDocument chunks, embeds, stores and indexes one document. The
// checksum is NOT written here; callers commit it only after this succeeds.
func (p *Pipeline) indexDocument(ctx context.Context, logger *zap.Logger, doc *models.Document) error {
	chunks := p.chunker.Split(EnrichText(doc))
	if len(chunks) == 0 {
		logger.Debug("document produced no chunks", zap.String("key", doc.Key()))
		return nil
	}

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", doc.Key(), err)
	}

	id, err := p.store.UpsertDocument(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", doc.Key(), err)
	}

	owners := make([]int64, len(vectors))
	for i := range owners {
		owners[i] = id
	}
	if err := p.index.Append(ctx, vectors, owners); err != nil {
		return fmt.Errorf("failed to index vectors for %s: %w", doc.Key(), err)
	}
	if err := p.keyword.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index keywords for %s: %w", doc.Key(), err)
	}

	logger.Info("document indexed",
		zap.String("key", doc.Key()),
		zap.String("content_type", doc.ContentType),
		zap.Int("chunks", len(chunks)))
	return nil
}

// IngestUpload indexes a manually supplied text under sourceName. Uploads
// have no URL and no checksum; re-ingesting the same source name replaces
// the stored document.
func (p *Pipeline) IngestUpload(ctx context.Context, sourceName, text string) (int64, error) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	if strings.TrimSpace(text) == "" {
		return 0, fmt.Errorf("upload %q has no text content", sourceName)
	}

	doc := &models.Document{
		Source:      sourceName,
		Title:       sourceName,
		Text:        text,
		ContentType: models.ContentTypePage,
	}
	if err := p.indexDocument(ctx, p.logger, doc); err != nil {
		return 0, err
	}
	if err := p.index.Save(p.indexPath); err != nil {
		return 0, fmt.Errorf("failed to save vector index: %w", err)
	}
	return doc.ID, nil
}

// IngestFile extracts text from a local file and ingests it under its base
// name. Supported formats follow the file extractor (.pdf, .docx, .odt,
// .rtf, .xlsx and plain text).
func (p *Pipeline) IngestFile(ctx context.Context, path string) (int64, error) {
	text, err := p.files.Extract(path)
	if err != nil {
		return 0, fmt.Errorf("failed to extract %s: %w", path, err)
	}
	return p.IngestUpload(ctx, filepath.Base(path), text)
}
