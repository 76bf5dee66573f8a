// Package models defines core data structures for documents, queries, and retrieval results.
package models

import "time"

// Content categories assigned by the page classifier. The set is closed:
// every document carries exactly one of these values.
const (
	ContentTypeNews      = "news"
	ContentTypeTender    = "tender"
	ContentTypeOrdinance = "ordinance"
	ContentTypePage      = "page"
)

// Document is one crawled page or one uploaded file, after extraction.
//
// Crawled documents are keyed by URL; uploaded documents have an empty URL
// and are keyed by Source (the upload filename). At most one live document
// exists per key: re-crawling a changed page replaces its document in place.
type Document struct {
	ID              int64     `json:"id"`
	URL             string    `json:"url,omitempty"`
	Source          string    `json:"source,omitempty"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	MetaDescription string    `json:"meta_description,omitempty"`
	MetaKeywords    string    `json:"meta_keywords,omitempty"`
	Breadcrumbs     []string  `json:"breadcrumbs,omitempty"`
	ContentType     string    `json:"content_type"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Key returns the structural identity of the document: the URL for crawled
// pages, or "upload:"+Source for uploads. Documents are deduplicated by this
// key, never by whole-record equality.
func (d *Document) Key() string {
	if d.URL != "" {
		return d.URL
	}
	return "upload:" + d.Source
}
