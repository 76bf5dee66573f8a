// Package keyword provides a Bleve full-text index over documents, used for
// exact-term lookup alongside vector retrieval.
package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"

	"github.com/civicline/araldo/internal/models"
)

// Result is a single keyword hit.
type Result struct {
	DocID int64
	Score float64
}

// Index wraps a Bleve index over document titles and text.
type Index struct {
	index bleve.Index
}

type indexedDocument struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// NewIndex creates or opens a Bleve index at path. An existing index is
// opened and reused so that incremental refresh does not re-index unchanged
// documents. If the mapping changes in code, remove the index directory to
// force a full re-index.
func NewIndex(path string) (*Index, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) keeps Italian
	// terms like "ordinanze" matching exactly as typed.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("content_type", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("url", keywordFieldMapping)
	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open keyword index: %w", openErr)
		}
		return &Index{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}
	return &Index{index: index}, nil
}

// Index indexes (or re-indexes) a document under its store id.
func (x *Index) Index(ctx context.Context, doc *models.Document) error {
	if doc.ID == 0 {
		return fmt.Errorf("document has no id, store it first")
	}
	return x.index.Index(strconv.FormatInt(doc.ID, 10), indexedDocument{
		Title:       doc.Title,
		Text:        doc.Text,
		ContentType: doc.ContentType,
		URL:         doc.URL,
	})
}

// Search runs a match query over title and text and returns up to limit hits
// by descending score.
func (x *Index) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	res, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Result{DocID: id, Score: hit.Score})
	}
	return out, nil
}

// DocCount returns the number of indexed documents.
func (x *Index) DocCount() (uint64, error) {
	return x.index.DocCount()
}

// Close releases the underlying Bleve index.
func (x *Index) Close() error {
	return x.index.Close()
}
