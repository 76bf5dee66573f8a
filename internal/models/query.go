package models

import "fmt"

// QueryRequest is a retrieval request against the indexed content.
type QueryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k,omitempty"`
}

// Validate checks the request and applies limit defaults.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK <= 0 {
		q.TopK = 5
	}
	if q.TopK > 100 {
		q.TopK = 100
	}
	return nil
}

// QueryResponse carries the documents retrieved for a query, best match
// first. An empty Documents slice means "no knowledge available", not an
// error; the conversational layer maps it to a fallback message.
type QueryResponse struct {
	Query       string      `json:"query"`
	Documents   []*Document `json:"documents"`
	Count       int         `json:"count"`
	QueryTimeMS int64       `json:"query_time_ms"`
}

// RefreshRequest triggers one incremental crawl-and-index run. Zero values
// fall back to the configured crawl limits.
type RefreshRequest struct {
	SeedURL  string `json:"seed_url,omitempty"`
	MaxPages int    `json:"max_pages,omitempty"`
	MaxDepth int    `json:"max_depth,omitempty"`
}

// RefreshResponse reports the outcome of one refresh run.
type RefreshResponse struct {
	Processed int   `json:"processed"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// UploadRequest adds or updates one manually supplied document.
type UploadRequest struct {
	SourceName string `json:"source_name"`
	Text       string `json:"text"`
}
