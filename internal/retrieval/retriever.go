// Package retrieval answers queries against the vector index and resolves
// hits back to stored documents.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/civicline/araldo/internal/embedding"
	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/internal/storage"
	"github.com/civicline/araldo/internal/vector"
)

// Retriever embeds a query and returns the closest documents.
type Retriever struct {
	embedder embedding.Embedder
	index    *vector.FlatIndex
	store    storage.Store
	logger   *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// NewRetriever creates a Retriever over the given index and store.
func NewRetriever(embedder embedding.Embedder, index *vector.FlatIndex, store storage.Store, opts ...Option) *Retriever {
	r := &Retriever{
		embedder: embedder,
		index:    index,
		store:    store,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AnswerQuery returns up to topK distinct documents nearest to the query,
// ordered by ascending distance. A document that owns several matching
// chunks appears once, at its best rank. An empty index yields an empty
// result without error.
func (r *Retriever) AnswerQuery(ctx context.Context, query string, topK int) ([]*models.Document, error) {
	if r.index.Size() == 0 {
		return []*models.Document{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Over-fetch so that duplicate chunks of one document do not crowd
	// distinct documents out of the top K.
	k := topK * 4
	if k > r.index.Size() {
		k = r.index.Size()
	}
	hits, err := r.index.Search(ctx, queryVec, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	seen := make(map[int64]bool, topK)
	docs := make([]*models.Document, 0, topK)
	for _, hit := range hits {
		if seen[hit.DocID] {
			continue
		}
		seen[hit.DocID] = true
		doc, err := r.store.GetDocument(ctx, hit.DocID)
		if err != nil {
			// An owner id with no stored row means the store and index
			// diverged; surface it instead of silently thinning results.
			return nil, fmt.Errorf("failed to resolve document %d: %w", hit.DocID, err)
		}
		docs = append(docs, doc)
		if len(docs) == topK {
			break
		}
	}

	r.logger.Debug("query answered",
		zap.String("query", query),
		zap.Int("hits", len(hits)),
		zap.Int("documents", len(docs)))
	return docs, nil
}
