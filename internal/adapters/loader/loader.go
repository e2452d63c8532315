// Package loader reads document files from a directory for indexing.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// DirLoader collects supported files from a directory as raw payloads.
// Parsing is the indexer's job; the loader only reads bytes.
type DirLoader struct {
	extensions map[string]bool
}

// NewDirLoader creates a loader for the given extensions
// (defaults: .pdf, .txt, .md).
func NewDirLoader(extensions []string) *DirLoader {
	if len(extensions) == 0 {
		extensions = []string{".pdf", ".txt", ".md"}
	}
	set := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		set[strings.ToLower(ext)] = true
	}
	return &DirLoader{extensions: set}
}

// Load reads every supported file in dir, sorted by name so repeated
// loads produce the same document order. A missing directory is not an
// error; it simply yields no files.
func (l *DirLoader) Load(dir string) ([]entities.UploadedFile, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading documents directory: %w", err)
	}

	var files []entities.UploadedFile
	for _, entry := range dirEntries {
		if entry.IsDir() {
			continue
		}
		if !l.Supported(entry.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entry.Name(), err)
		}
		files = append(files, entities.UploadedFile{Name: entry.Name(), Data: data})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Supported reports whether the filename's extension is loadable.
func (l *DirLoader) Supported(name string) bool {
	return l.extensions[strings.ToLower(filepath.Ext(name))]
}
