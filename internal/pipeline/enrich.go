package pipeline

import (
	"strings"

	"github.com/civicline/araldo/internal/models"
)

// EnrichText builds the text that gets embedded for a document: title,
// breadcrumb trail, meta description and keywords, then the body. Prefixing
// the page context this way lets short navigational queries land on the
// right page even when the body never repeats the section name.
func EnrichText(doc *models.Document) string {
	var parts []string
	if doc.Title != "" {
		parts = append(parts, doc.Title)
	}
	if len(doc.Breadcrumbs) > 0 {
		parts = append(parts, strings.Join(doc.Breadcrumbs, " > "))
	}
	if doc.MetaDescription != "" {
		parts = append(parts, doc.MetaDescription)
	}
	if doc.MetaKeywords != "" {
		parts = append(parts, doc.MetaKeywords)
	}
	if doc.Text != "" {
		parts = append(parts, doc.Text)
	}
	return strings.Join(parts, "\n")
}
