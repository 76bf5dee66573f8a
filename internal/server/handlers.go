package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/internal/storage"
)

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("query request", zap.String("query", req.Query), zap.Int("top_k", req.TopK))

	start := time.Now()
	docs, err := s.retriever.AnswerQuery(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.logger.Error("query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.QueryResponse{
		Query:       req.Query,
		Documents:   docs,
		Count:       len(docs),
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.SeedURL == "" {
		req.SeedURL = s.config.Crawl.SeedURL
	}
	if req.MaxPages <= 0 {
		req.MaxPages = s.config.Crawl.MaxPages
	}
	if req.MaxDepth <= 0 {
		req.MaxDepth = s.config.Crawl.MaxDepth
	}
	if req.SeedURL == "" {
		s.respondError(w, http.StatusBadRequest, "no seed URL configured or supplied")
		return
	}

	start := time.Now()
	processed, err := s.pipeline.Refresh(r.Context(), req.SeedURL, req.MaxPages, req.MaxDepth)
	if err != nil {
		s.logger.Error("refresh failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.RefreshResponse{
		Processed: processed,
		ElapsedMS: time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SourceName == "" {
		s.respondError(w, http.StatusBadRequest, "source_name is required")
		return
	}
	id, err := s.pipeline.IngestUpload(r.Context(), req.SourceName, req.Text)
	if err != nil {
		s.logger.Error("upload ingestion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"id": id, "status": "indexed"})
}

func (s *Server) handleKeywordSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = s.config.Retrieval.TopK
	}
	if limit > s.config.Retrieval.MaxTopK {
		limit = s.config.Retrieval.MaxTopK
	}

	hits, err := s.keyword.Search(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("keyword search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type keywordHit struct {
		Document *models.Document `json:"document"`
		Score    float64          `json:"score"`
	}
	out := make([]keywordHit, 0, len(hits))
	for _, hit := range hits {
		doc, err := s.store.GetDocument(r.Context(), hit.DocID)
		if err != nil {
			continue
		}
		out = append(out, keywordHit{Document: doc, Score: hit.Score})
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"query": query, "results": out, "count": len(out)})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := s.store.GetDocument(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	docs, err := s.store.ListDocuments(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs, "count": len(docs)})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	docCount, err := s.store.CountDocuments(ctx)
	if err != nil {
		s.logger.Error("status: count documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	checksumCount, err := s.store.CountChecksums(ctx)
	if err != nil {
		s.logger.Error("status: count checksums failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{
		"documents":         docCount,
		"tracked_pages":     checksumCount,
		"vector_index_size": s.index.Size(),
	}
	if kwCount, err := s.keyword.DocCount(); err == nil {
		resp["keyword_documents"] = kwCount
	}
	if diskBytes, err := storage.DiskUsageBytes(
		s.config.Storage.DatabasePath,
		s.config.Storage.VectorIndexPath,
		s.config.Storage.KeywordIndexPath,
	); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	resp["config"] = map[string]interface{}{
		"seed_url":             s.config.Crawl.SeedURL,
		"embedding_model":      s.config.Embedding.Model,
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"max_tokens_per_chunk": s.config.Embedding.MaxTokensPerChunk,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
