package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "regolamento.txt")
	if err := os.WriteFile(path, []byte("articolo 1: disposizioni generali"), 0600); err != nil {
		t.Fatal(err)
	}
	e := NewFileExtractor()
	text, err := e.Extract(path)
	if err != nil {
		t.Fatal(err)
	}
	if text != "articolo 1: disposizioni generali" {
		t.Errorf("text=%q", text)
	}
}

func TestExtractPlainInvalidUTF8(t *testing.T) {
	e := NewFileExtractor()
	text, err := e.ExtractBytes([]byte{0x74, 0x65, 0xff, 0x73, 0x74}, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "�") {
		t.Error("invalid bytes should be replaced")
	}
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte(`<w:document><w:body><w:p w:rsidR="00A"><w:r><w:t xml:space="preserve">Delibera comunale</w:t></w:r><w:r><w:t>numero 12</w:t></w:r></w:p></w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	e := NewFileExtractor()
	text, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Delibera comunale numero 12" {
		t.Errorf("text=%q", text)
	}
}

func TestExtractDOCXNotZip(t *testing.T) {
	e := NewFileExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
