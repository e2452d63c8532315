// Package vectordb provides the vector store adapter.
// The semantic index lives entirely in memory: it is rebuilt per upload
// set and discarded at process end, so no persistence layer is involved.
package vectordb

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// InMemoryStore is an in-memory vector store ranking by cosine similarity.
// Read-only after construction from the agent's perspective; writes happen
// only during an index build, which owns the store exclusively.
type InMemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]entities.Chunk // chunkID -> chunk
	docs   map[string][]string       // docID -> []chunkID
}

// NewInMemoryStore creates an empty in-memory vector store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		chunks: make(map[string]entities.Chunk),
		docs:   make(map[string][]string),
	}
}

// Store saves chunks with their embeddings.
func (s *InMemoryStore) Store(ctx context.Context, chunks []entities.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
		s.docs[chunk.DocumentID] = append(s.docs[chunk.DocumentID], chunk.ID)
	}
	return nil
}

// Search finds the topK chunks most similar to the query embedding.
func (s *InMemoryStore) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		chunk entities.Chunk
		score float64
	}

	var results []scored
	for _, chunk := range s.chunks {
		score := cosineSimilarity(embedding, chunk.Embedding)
		results = append(results, scored{chunk: chunk, score: score})
	}

	// Sort by score descending; chunk ID breaks ties so identical queries
	// rank identically.
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].chunk.ID < results[j].chunk.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}

	queryResults := make([]entities.QueryResult, len(results))
	for i, r := range results {
		source := r.chunk.SourceName
		if source == "" {
			source = r.chunk.DocumentID
		}
		queryResults[i] = entities.QueryResult{
			Chunk:     r.chunk,
			Score:     r.score,
			SourceDoc: source,
		}
	}

	return queryResults, nil
}

// Clear removes all data from the store.
func (s *InMemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = make(map[string]entities.Chunk)
	s.docs = make(map[string][]string)
	return nil
}

// Len returns the number of stored chunks.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
