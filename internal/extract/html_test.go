package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/civicline/araldo/internal/models"
)

var samplePage = `<!DOCTYPE html>
<html>
<head>
<title>  Servizi al cittadino  </title>
<meta name="description" content="Elenco dei servizi comunali">
<meta name="keywords" content="servizi, comune">
<script>console.log("tracking")</script>
<style>.x { color: red }</style>
</head>
<body>
<header>MENU HEADER</header>
<nav>main navigation</nav>
<ol class="breadcrumb">
  <li><a href="/">Home</a></li>
  <li><a href="/servizi">Servizi</a></li>
  <li>Anagrafe</li>
</ol>
<main>` + longParagraph + `</main>
<footer>FOOTER TEXT</footer>
</body>
</html>`

var longParagraph = strings.Repeat("Il servizio anagrafe rilascia certificati e carte di identità. ", 10)

func TestPageExtraction(t *testing.T) {
	e := NewHTMLExtractor(200)
	doc, err := e.Page([]byte(samplePage), "https://example.org/servizi/anagrafe")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "Servizi al cittadino" {
		t.Errorf("Title=%q", doc.Title)
	}
	if doc.MetaDescription != "Elenco dei servizi comunali" {
		t.Errorf("MetaDescription=%q", doc.MetaDescription)
	}
	if doc.MetaKeywords != "servizi, comune" {
		t.Errorf("MetaKeywords=%q", doc.MetaKeywords)
	}
	want := []string{"Home", "Servizi", "Anagrafe"}
	if len(doc.Breadcrumbs) != len(want) {
		t.Fatalf("Breadcrumbs=%v", doc.Breadcrumbs)
	}
	for i := range want {
		if doc.Breadcrumbs[i] != want[i] {
			t.Errorf("Breadcrumbs[%d]=%q want %q", i, doc.Breadcrumbs[i], want[i])
		}
	}
	for _, chrome := range []string{"MENU HEADER", "FOOTER TEXT", "main navigation", "console.log", "color: red"} {
		if strings.Contains(doc.Text, chrome) {
			t.Errorf("text should not contain chrome %q", chrome)
		}
	}
	if !strings.Contains(doc.Text, "servizio anagrafe") {
		t.Error("text should contain the body content")
	}
	if strings.Contains(doc.Text, "  ") {
		t.Error("whitespace should be collapsed to single spaces")
	}
}

func TestPageThinContent(t *testing.T) {
	e := NewHTMLExtractor(200)
	_, err := e.Page([]byte("<html><body>short</body></html>"), "https://example.org/x")
	if !errors.Is(err, ErrThinContent) {
		t.Errorf("expected ErrThinContent, got %v", err)
	}
}

func TestPageTitlePlaceholder(t *testing.T) {
	e := NewHTMLExtractor(10)
	doc, err := e.Page([]byte("<html><body>"+longParagraph+"</body></html>"), "https://example.org/x")
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != TitlePlaceholder {
		t.Errorf("Title=%q", doc.Title)
	}
	if doc.MetaDescription != "" || doc.MetaKeywords != "" {
		t.Error("missing metadata should default to empty strings")
	}
}

func TestPageContentTypeFromURL(t *testing.T) {
	e := NewHTMLExtractor(10)
	doc, err := e.Page([]byte("<html><body>"+longParagraph+"</body></html>"), "https://example.org/notizie/evento")
	if err != nil {
		t.Fatal(err)
	}
	if doc.ContentType != models.ContentTypeNews {
		t.Errorf("ContentType=%q", doc.ContentType)
	}
}
