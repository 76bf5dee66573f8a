package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileExtractor extracts plain text from uploaded document files. It is the
// collaborator behind manual ingestion; the pipeline itself never looks
// inside file formats.
type FileExtractor struct{}

// NewFileExtractor returns a new FileExtractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// Extract reads the file at path and returns its text content.
// PDF, DOCX, ODT, RTF, and XLSX are decoded from their binary formats;
// everything else is treated as plain text.
func (e *FileExtractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, strings.ToLower(filepath.Ext(path)))
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *FileExtractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		return extractDOCX(content)
	case ".odt", ".rtf":
		return extractCat(content)
	case ".xlsx":
		return extractExcel(content)
	default:
		return extractPlain(content)
	}
}
