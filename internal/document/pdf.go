// Package document turns uploaded resumes into plain text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/spigell/hr-screener/internal/errs"
	"go.uber.org/zap"
)

var pdfMagic = []byte("%PDF-")

// ErrNotPDF is returned for input that does not start with a PDF header.
var ErrNotPDF = errors.New("file is not a PDF document")

type Extractor struct {
	logger *zap.Logger
}

// NewExtractor returns a PDF text extractor.
func NewExtractor(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// ExtractPDF reads the file at path and returns its text.
func (e *Extractor) ExtractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: read resume: %w", errs.ErrExtraction, err)
	}
	return e.ExtractPDFBytes(data)
}

// ExtractPDFBytes returns the text of every page joined by blank lines.
// A document with no extractable text, such as a scanned image, is an error.
func (e *Extractor) ExtractPDFBytes(data []byte) (string, error) {
	if !IsPDF(data) {
		return "", fmt.Errorf("%w: %w", errs.ErrExtraction, ErrNotPDF)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", errs.ErrExtraction, err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	e.logger.Debug("extracting resume text", zap.Int("pages", pages))

	var text strings.Builder
	for n := 0; n < pages; n++ {
		page, err := doc.Text(n)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %w", errs.ErrExtraction, n+1, err)
		}
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(page)
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("%w: pdf has no extractable text", errs.ErrExtraction)
	}

	return text.String(), nil
}

// IsPDF reports whether data starts with a PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), pdfMagic)
}
