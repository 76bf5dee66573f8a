package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/civicline/araldo/internal/models"
)

func sampleResponse() *models.QueryResponse {
	return &models.QueryResponse{
		Query: "orari biblioteca",
		Documents: []*models.Document{
			{
				ID:          1,
				URL:         "https://www.comune.test/biblioteca",
				Title:       "Orari della biblioteca",
				Text:        "La biblioteca comunale è aperta dal lunedì al venerdì.",
				Breadcrumbs: []string{"Home", "Servizi"},
				ContentType: models.ContentTypePage,
			},
		},
		Count:       1,
		QueryTimeMS: 12,
	}
}

func TestWriteQueryResultsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteQueryResults failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 documents", "Orari della biblioteca", "Home > Servizi"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteQueryResultsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteQueryResults failed: %v", err)
	}
	var decoded models.QueryResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output not parseable: %v", err)
	}
	if decoded.Count != 1 {
		t.Errorf("count = %d, want 1", decoded.Count)
	}
}

func TestWriteQueryResultsCompact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteQueryResults(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatalf("WriteQueryResults failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "\t") {
		t.Error("compact output should be tab-separated")
	}
}

func TestParseOutputFormat(t *testing.T) {
	if _, err := ParseOutputFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
	format, err := ParseOutputFormat("")
	if err != nil || format != OutputText {
		t.Errorf("empty format should default to text, got %v %v", format, err)
	}
}
