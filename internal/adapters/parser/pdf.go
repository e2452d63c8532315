// Package parser provides document parsing adapters implementing
// ports.DocumentParser.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// PDFParser extracts text from PDF bytes, page by page.
type PDFParser struct{}

// NewPDFParser creates a PDF parser.
func NewPDFParser() *PDFParser {
	return &PDFParser{}
}

// Parse extracts the plain text of every page, in page order.
// Failures are wrapped in entities.ErrIngest so the indexer can apply
// its skip-and-continue policy per document.
func (p *PDFParser) Parse(ctx context.Context, data []byte, filename string) (text string, err error) {
	// The pdf library panics on some malformed files; turn that into the
	// same ingest error a parse failure produces.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %s: %v", entities.ErrIngest, filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", entities.ErrIngest, filename, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not sink the document.
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", fmt.Errorf("%w: %s: no extractable text", entities.ErrIngest, filename)
	}
	return content, nil
}

// SupportedFormats returns extensions this parser handles.
func (p *PDFParser) SupportedFormats() []string {
	return []string{".pdf"}
}
