// Package cli provides CLI output utilities for Araldo.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/civicline/araldo/internal/models"
	"github.com/civicline/araldo/pkg/utils"
)

// OutputFormat is the format for query result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one result per line.
	OutputCompact OutputFormat = "compact"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "compact":
		return OutputCompact, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

// WriteQueryResults writes query results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteQueryResults(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	case OutputCompact:
		writeQueryResultsCompact(w, response)
		return nil
	default:
		writeQueryResultsText(w, response)
		return nil
	}
}

func writeQueryResultsText(w io.Writer, response *models.QueryResponse) {
	fmt.Fprintf(w, "\nFound %d documents in %dms\n\n", response.Count, response.QueryTimeMS)
	for i, doc := range response.Documents {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | %s\n", i+1, doc.ContentType)
		fmt.Fprintf(w, "Title: %s\n", doc.Title)
		if doc.URL != "" {
			fmt.Fprintf(w, "URL: %s\n", doc.URL)
		} else {
			fmt.Fprintf(w, "Source: %s\n", doc.Source)
		}
		if len(doc.Breadcrumbs) > 0 {
			fmt.Fprintf(w, "Section: %s\n", strings.Join(doc.Breadcrumbs, " > "))
		}
		fmt.Fprintf(w, "%s\n", utils.Truncate(doc.Text, 300))
	}
}

func writeQueryResultsCompact(w io.Writer, response *models.QueryResponse) {
	for i, doc := range response.Documents {
		location := doc.URL
		if location == "" {
			location = doc.Source
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, doc.ContentType, doc.Title, location)
	}
}
