// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// Document represents a source document parsed from an uploaded file.
type Document struct {
	ID        string
	Name      string
	Content   string
	CreatedAt time.Time
}

// UploadedFile is the raw payload handed to the indexer by the boundary.
type UploadedFile struct {
	Name string
	Data []byte
}

// Chunk is a bounded span of document text, the unit of retrieval.
// Consecutive chunks from the same document overlap so that context
// spanning a boundary is not lost.
type Chunk struct {
	ID         string
	DocumentID string
	SourceName string
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated at index build)
}

// QueryResult is one retrieved chunk with its similarity score.
type QueryResult struct {
	Chunk     Chunk
	Score     float64
	SourceDoc string
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a structured request from the model to invoke a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON argument payload
}

// Message is one conversation turn. Session history persists only plain
// user and assistant messages; tool-call and tool-result messages exist
// only inside a single agent turn.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall // assistant messages only
	ToolCallID string     // tool result messages only
}

// Session is one ongoing conversation keyed by an identifier.
// History is append-only; insertion order reconstructs dialogue order.
type Session struct {
	ID      string
	History []Message
}

// ToolInvocation records one tool call made during an agent turn,
// for diagnostics. It is never persisted into session history.
type ToolInvocation struct {
	ToolName string
	Input    string
	Output   string
}

// TurnResult is the outcome of one user-message-to-answer cycle.
type TurnResult struct {
	FinalAnswer string
	Invocations []ToolInvocation
}

// ToolDefinition describes a callable tool to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema for the argument object
}
