package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
)

type fakeParser struct {
	failOn map[string]bool
}

func (p *fakeParser) Parse(_ context.Context, data []byte, filename string) (string, error) {
	if p.failOn[filename] {
		return "", fmt.Errorf("%w: corrupt file %s", entities.ErrIngest, filename)
	}
	return string(data), nil
}

func (p *fakeParser) SupportedFormats() []string { return []string{".pdf", ".txt"} }

type fakeEmbedder struct {
	err   error
	calls int
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (e *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type fakeStore struct {
	chunks  []entities.Chunk
	results []entities.QueryResult
	err     error
}

func (s *fakeStore) Store(_ context.Context, chunks []entities.Chunk) error {
	if s.err != nil {
		return s.err
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ []float32, topK int) ([]entities.QueryResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.results) > topK {
		return s.results[:topK], nil
	}
	return s.results, nil
}

func (s *fakeStore) Clear(_ context.Context) error {
	s.chunks = nil
	return nil
}

func newTestIndexer(parser ports.DocumentParser, embedder ports.EmbeddingService, store *fakeStore) *Indexer {
	return NewIndexer(parser, embedder, func() ports.VectorStore { return store }, nil, 100, 20, 4)
}

func TestIndexerBuild(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, store)

	files := []entities.UploadedFile{
		{Name: "diet.pdf", Data: []byte("Chicken breast is high in protein and low in fat.")},
		{Name: "notes.txt", Data: []byte("Avoid refined sugar in the morning.")},
	}
	skipped, err := ix.Build(context.Background(), files)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, want none", skipped)
	}
	if !ix.Ready() {
		t.Error("Ready() = false after successful build")
	}
	if got := ix.DocumentCount(); got != 2 {
		t.Errorf("DocumentCount() = %d, want 2", got)
	}
	if len(store.chunks) == 0 {
		t.Fatal("no chunks stored")
	}
	for _, c := range store.chunks {
		if len(c.Embedding) == 0 {
			t.Errorf("chunk %s has no embedding", c.ID)
		}
	}
}

func TestIndexerBuildSkipsUnparsableDocuments(t *testing.T) {
	store := &fakeStore{}
	parser := &fakeParser{failOn: map[string]bool{"broken.pdf": true}}
	ix := newTestIndexer(parser, &fakeEmbedder{}, store)

	files := []entities.UploadedFile{
		{Name: "broken.pdf", Data: []byte("ignored")},
		{Name: "good.pdf", Data: []byte("Oatmeal keeps you full longer.")},
	}
	skipped, err := ix.Build(context.Background(), files)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(skipped) != 1 || skipped[0] != "broken.pdf" {
		t.Errorf("skipped = %v, want [broken.pdf]", skipped)
	}
	if got := ix.DocumentCount(); got != 1 {
		t.Errorf("DocumentCount() = %d, want 1", got)
	}
}

func TestIndexerBuildFailsWhenNothingParses(t *testing.T) {
	parser := &fakeParser{failOn: map[string]bool{"a.pdf": true, "b.pdf": true}}
	ix := newTestIndexer(parser, &fakeEmbedder{}, &fakeStore{})

	files := []entities.UploadedFile{
		{Name: "a.pdf", Data: []byte("x")},
		{Name: "b.pdf", Data: []byte("y")},
	}
	_, err := ix.Build(context.Background(), files)
	if !errors.Is(err, entities.ErrIngest) {
		t.Errorf("Build() error = %v, want ErrIngest", err)
	}
	if ix.Ready() {
		t.Error("Ready() = true after failed build")
	}
}

func TestIndexerBuildKeepsOldIndexOnEmbeddingFailure(t *testing.T) {
	store := &fakeStore{}
	embedder := &fakeEmbedder{}
	ix := newTestIndexer(&fakeParser{}, embedder, store)

	files := []entities.UploadedFile{{Name: "first.pdf", Data: []byte("Greek yogurt with berries.")}}
	if _, err := ix.Build(context.Background(), files); err != nil {
		t.Fatalf("first Build() error = %v", err)
	}

	embedder.err = fmt.Errorf("%w: quota exceeded", entities.ErrEmbedding)
	_, err := ix.Build(context.Background(), []entities.UploadedFile{{Name: "second.pdf", Data: []byte("new")}})
	if !errors.Is(err, entities.ErrEmbedding) {
		t.Fatalf("Build() error = %v, want ErrEmbedding", err)
	}
	if !ix.Ready() {
		t.Error("previous index discarded after failed rebuild")
	}
	if got := ix.DocumentCount(); got != 1 {
		t.Errorf("DocumentCount() = %d, want previous count 1", got)
	}
}

func TestIndexerBuildEmptyClearsIndex(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, store)

	files := []entities.UploadedFile{{Name: "a.pdf", Data: []byte("Lentil soup is rich in fiber.")}}
	if _, err := ix.Build(context.Background(), files); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if _, err := ix.Build(context.Background(), nil); err != nil {
		t.Fatalf("Build(nil) error = %v", err)
	}
	if ix.Ready() {
		t.Error("Ready() = true after clearing build")
	}
	if got := ix.DocumentCount(); got != 0 {
		t.Errorf("DocumentCount() = %d, want 0", got)
	}
}

func TestIndexerRetrieve(t *testing.T) {
	store := &fakeStore{
		results: []entities.QueryResult{
			{Chunk: entities.Chunk{Content: "Tuna has 165 kcal per serving."}, SourceDoc: "nutrition.pdf", Score: 0.92},
			{Chunk: entities.Chunk{Content: "Brown rice digests slowly."}, SourceDoc: "grains.pdf", Score: 0.81},
		},
	}
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, store)
	if _, err := ix.Build(context.Background(), []entities.UploadedFile{{Name: "nutrition.pdf", Data: []byte("seed")}}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	got, err := ix.Retrieve(context.Background(), "칼로리")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if !strings.Contains(got, "[Source: nutrition.pdf]") {
		t.Errorf("missing source attribution in %q", got)
	}
	if !strings.Contains(got, "165 kcal") {
		t.Errorf("missing chunk content in %q", got)
	}
	if !strings.Contains(got, "[Source: grains.pdf]") {
		t.Errorf("missing second result in %q", got)
	}
}

func TestIndexerRetrieveWithoutIndex(t *testing.T) {
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, &fakeStore{})
	_, err := ix.Retrieve(context.Background(), "anything")
	if !errors.Is(err, entities.ErrNoIndex) {
		t.Errorf("Retrieve() error = %v, want ErrNoIndex", err)
	}
}

func TestIndexerRetrieveNoMatches(t *testing.T) {
	store := &fakeStore{}
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, store)
	if _, err := ix.Build(context.Background(), []entities.UploadedFile{{Name: "a.pdf", Data: []byte("seed")}}); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	store.results = nil

	got, err := ix.Retrieve(context.Background(), "없는 내용")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if got != "관련 문서를 찾지 못했습니다." {
		t.Errorf("Retrieve() = %q, want no-match sentinel", got)
	}
}

func TestChunkDocumentOverlap(t *testing.T) {
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, &fakeStore{})

	var sb strings.Builder
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&sb, "word%d ", i)
	}
	doc := entities.Document{ID: "doc-1", Name: "long.txt", Content: sb.String()}

	chunks := ix.chunkDocument(doc)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	content := strings.TrimSpace(doc.Content)
	for i, c := range chunks {
		if len(c.Content) > ix.chunkSize {
			t.Errorf("chunk %d length %d exceeds limit %d", i, len(c.Content), ix.chunkSize)
		}
		if !strings.Contains(content, c.Content) {
			t.Errorf("chunk %d is not a substring of the document", i)
		}
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
		if c.DocumentID != "doc-1" || c.SourceName != "long.txt" {
			t.Errorf("chunk %d missing document metadata: %+v", i, c)
		}
	}

	// Consecutive chunks must share text so boundary context survives.
	prevStart := strings.Index(content, chunks[0].Content)
	for i := 1; i < len(chunks); i++ {
		start := strings.Index(content, chunks[i].Content)
		if start < 0 {
			t.Fatalf("chunk %d not found in document", i)
		}
		if start >= prevStart+len(chunks[i-1].Content) {
			t.Errorf("chunks %d and %d do not overlap", i-1, i)
		}
		if start <= prevStart {
			t.Errorf("chunk %d does not advance past chunk %d", i, i-1)
		}
		prevStart = start
	}
}

func TestChunkDocumentKeepsRunesIntact(t *testing.T) {
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, &fakeStore{})

	// PDF extraction often yields long unspaced Korean runs; chunk cuts
	// and overlap re-entry must both land on rune boundaries.
	content := strings.Repeat("닭", 200)
	doc := entities.Document{ID: "doc-kr", Name: "korean.pdf", Content: content}

	chunks := ix.chunkDocument(doc)
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c.Content) {
			t.Errorf("chunk %d contains invalid UTF-8 (len=%d): %q", i, len(c.Content), c.Content)
		}
		if len(c.Content) > ix.chunkSize {
			t.Errorf("chunk %d length %d exceeds limit %d", i, len(c.Content), ix.chunkSize)
		}
		if !strings.Contains(content, c.Content) {
			t.Errorf("chunk %d is not a substring of the document", i)
		}
	}
	lastChunk := chunks[len(chunks)-1].Content
	if !strings.HasSuffix(content, lastChunk) {
		t.Error("final chunk does not reach the end of the document")
	}
}

func TestChunkDocumentShortContent(t *testing.T) {
	ix := newTestIndexer(&fakeParser{}, &fakeEmbedder{}, &fakeStore{})

	chunks := ix.chunkDocument(entities.Document{ID: "d", Name: "s.txt", Content: "short text"})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if chunks[0].Content != "short text" {
		t.Errorf("chunk content = %q", chunks[0].Content)
	}

	if got := ix.chunkDocument(entities.Document{Content: "   \n  "}); got != nil {
		t.Errorf("whitespace-only content produced %d chunks", len(got))
	}
}
