// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only.
package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// Chunking and retrieval defaults.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultTopK         = 4
)

// Indexer turns uploaded documents into the active semantic index and
// answers retrieval queries against it.
//
// Builds are atomic: a new store is fully constructed before it replaces
// the previous one, so concurrent readers never see a half-built index.
type Indexer struct {
	parser       ports.DocumentParser
	embedder     ports.EmbeddingService
	newStore     func() ports.VectorStore
	logger       log.Logger
	chunkSize    int
	chunkOverlap int
	topK         int

	mu    sync.RWMutex
	store ports.VectorStore // nil until the first successful build
	docs  int
}

// NewIndexer creates an Indexer with injected dependencies. newStore
// constructs an empty vector store for each build.
func NewIndexer(
	parser ports.DocumentParser,
	embedder ports.EmbeddingService,
	newStore func() ports.VectorStore,
	logger log.Logger,
	chunkSize, chunkOverlap, topK int,
) *Indexer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Indexer{
		parser:       parser,
		embedder:     embedder,
		newStore:     newStore,
		logger:       logger,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		topK:         topK,
	}
}

// Build parses, chunks, and embeds the given files, then swaps the new
// index in. A document that fails to parse is skipped with a warning and
// reported in skipped; the build fails only when every document fails,
// or when embedding fails (a partial index would answer confidently and
// wrongly). An empty file list clears the index.
func (ix *Indexer) Build(ctx context.Context, files []entities.UploadedFile) (skipped []string, err error) {
	if len(files) == 0 {
		ix.swap(nil, 0)
		return nil, nil
	}

	var chunks []entities.Chunk
	parsed := 0
	for _, file := range files {
		text, parseErr := ix.parser.Parse(ctx, file.Data, file.Name)
		if parseErr != nil {
			if errors.Is(parseErr, context.Canceled) || errors.Is(parseErr, context.DeadlineExceeded) {
				return nil, parseErr
			}
			ix.logger.Warn("skipping document", "name", file.Name, "error", parseErr)
			skipped = append(skipped, file.Name)
			continue
		}
		doc := entities.Document{
			ID:      uuid.NewString(),
			Name:    file.Name,
			Content: text,
		}
		chunks = append(chunks, ix.chunkDocument(doc)...)
		parsed++
	}

	if parsed == 0 {
		return skipped, fmt.Errorf("%w: no document could be parsed", entities.ErrIngest)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return skipped, err
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	store := ix.newStore()
	if err := store.Store(ctx, chunks); err != nil {
		return skipped, fmt.Errorf("storing chunks: %w", err)
	}

	ix.swap(store, parsed)
	ix.logger.Info("index rebuilt", "documents", parsed, "chunks", len(chunks), "skipped", len(skipped))
	return skipped, nil
}

// swap atomically replaces the active index.
func (ix *Indexer) swap(store ports.VectorStore, docs int) {
	ix.mu.Lock()
	ix.store = store
	ix.docs = docs
	ix.mu.Unlock()
}

// Ready reports whether an index is available for retrieval.
func (ix *Indexer) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store != nil
}

// DocumentCount returns how many documents the active index holds.
func (ix *Indexer) DocumentCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs
}

// Retrieve embeds the query, fetches the most similar chunks, and
// concatenates their text with source attribution.
func (ix *Indexer) Retrieve(ctx context.Context, query string) (string, error) {
	ix.mu.RLock()
	store := ix.store
	ix.mu.RUnlock()
	if store == nil {
		return "", entities.ErrNoIndex
	}

	queryEmbedding, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return "", err
	}

	results, err := store.Search(ctx, queryEmbedding, ix.topK)
	if err != nil {
		return "", fmt.Errorf("searching index: %w", err)
	}
	if len(results) == 0 {
		return "관련 문서를 찾지 못했습니다.", nil
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", r.SourceDoc, r.Chunk.Content)
	}
	return strings.Join(parts, "\n\n"), nil
}

// chunkDocument splits document content into overlapping chunks,
// breaking at word boundaries where possible.
func (ix *Indexer) chunkDocument(doc entities.Document) []entities.Chunk {
	content := strings.TrimSpace(doc.Content)
	if len(content) == 0 {
		return nil
	}

	var chunks []entities.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := start + ix.chunkSize
		last := end >= len(content)
		if last {
			end = len(content)
		} else {
			// Unspaced text (CJK extracted from PDFs) must never be
			// cut mid-rune.
			for end > start && !utf8.RuneStart(content[end]) {
				end--
			}
			if i := strings.LastIndex(content[start:end], " "); i > 0 {
				end = start + i
			}
			if end <= start {
				_, size := utf8.DecodeRuneInString(content[start:])
				end = start + size
			}
		}

		chunkContent := strings.TrimSpace(content[start:end])
		if len(chunkContent) > 0 {
			chunks = append(chunks, entities.Chunk{
				ID:         chunkID(doc.ID, index),
				DocumentID: doc.ID,
				SourceName: doc.Name,
				Content:    chunkContent,
				Index:      index,
			})
			index++
		}

		if last {
			break
		}
		next := end - ix.chunkOverlap
		for next > start && !utf8.RuneStart(content[next]) {
			next--
		}
		if next <= start {
			// Overlap would stall on an unbreakable span; move on.
			next = end
		}
		start = next
	}

	return chunks
}

// chunkID creates a deterministic ID for a chunk.
func chunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", docID, index)))
	return hex.EncodeToString(hash[:8])
}
