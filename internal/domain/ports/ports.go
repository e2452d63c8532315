// Package ports defines interfaces for external collaborators.
// Usecases depend on these abstractions, not concrete implementations;
// adapters implement them. All external services are injected.
package ports

import (
	"context"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelRequest is one invocation of the language model: a fixed system
// policy, the working message context, and the tools it may call.
type ModelRequest struct {
	System      string
	Messages    []entities.Message
	Tools       []entities.ToolDefinition
	Temperature float64
}

// ChatModel invokes the language model once. The returned assistant
// message carries either final content or one or more tool calls.
type ChatModel interface {
	Generate(ctx context.Context, req ModelRequest) (entities.Message, error)
}

// VectorStore holds chunk embeddings and answers nearest-neighbor queries.
type VectorStore interface {
	// Store saves chunks with their embeddings.
	Store(ctx context.Context, chunks []entities.Chunk) error

	// Search finds the topK chunks most similar to the query embedding.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Clear removes all data from the store.
	Clear(ctx context.Context) error
}

// DocumentParser extracts text from binary document formats.
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns extensions this parser handles (e.g. ".pdf").
	SupportedFormats() []string
}

// Tool is a named callable capability the agent may invoke mid-reasoning.
// Invoke takes the model's query string and returns an observation.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Invoke(ctx context.Context, query string) (string, error)
}

// SessionStore keeps per-session conversation history for the process
// lifetime. Sessions are created lazily on first access.
type SessionStore interface {
	// GetOrCreate ensures the session for id exists and returns a
	// snapshot of it. The snapshot owns its history slice, so callers
	// never share state with concurrent appends.
	GetOrCreate(id string) entities.Session

	// Append adds a message to the session's history, creating the
	// session if needed.
	Append(id string, msg entities.Message)

	// History returns a copy of the session's ordered messages.
	History(id string) []entities.Message

	// ClearAll removes every session.
	ClearAll()
}

// FileWatcher monitors a directory for document changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
