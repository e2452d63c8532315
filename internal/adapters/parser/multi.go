package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
)

// TextParser handles plain-text formats without transformation.
type TextParser struct{}

// NewTextParser creates a plain-text parser.
func NewTextParser() *TextParser {
	return &TextParser{}
}

// Parse returns the bytes as UTF-8 text.
func (p *TextParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	content := strings.TrimSpace(string(data))
	if content == "" {
		return "", fmt.Errorf("%w: %s: empty document", entities.ErrIngest, filename)
	}
	return content, nil
}

// SupportedFormats returns extensions this parser handles.
func (p *TextParser) SupportedFormats() []string {
	return []string{".txt", ".md", ".markdown"}
}

// MultiParser dispatches to a parser by file extension.
type MultiParser struct {
	parsers map[string]ports.DocumentParser
}

// NewMultiParser combines parsers; later parsers win extension conflicts.
func NewMultiParser(parsers ...ports.DocumentParser) *MultiParser {
	m := &MultiParser{parsers: make(map[string]ports.DocumentParser)}
	for _, p := range parsers {
		for _, ext := range p.SupportedFormats() {
			m.parsers[ext] = p
		}
	}
	return m
}

// Parse dispatches on the filename's extension.
func (m *MultiParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	p, ok := m.parsers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s: unsupported format %q", entities.ErrIngest, filename, ext)
	}
	return p.Parse(ctx, data, filename)
}

// SupportedFormats returns all supported extensions, sorted.
func (m *MultiParser) SupportedFormats() []string {
	exts := make([]string, 0, len(m.parsers))
	for ext := range m.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
