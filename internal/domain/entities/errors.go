package entities

import "errors"

// Error taxonomy for the conversational core. Callers wrap these with
// fmt.Errorf("%w: ...") and check with errors.Is.
var (
	// ErrIngest indicates a document could not be parsed into text.
	ErrIngest = errors.New("document ingestion failed")

	// ErrEmbedding indicates the embedding service failed or was unreachable.
	ErrEmbedding = errors.New("embedding service failed")

	// ErrSearch indicates the web search provider failed, was unreachable,
	// or credentials were missing.
	ErrSearch = errors.New("web search failed")

	// ErrUnknownTool indicates the model requested a tool name that is not
	// registered. Recovered inside the agent loop as an observation.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolExecution indicates a registered tool's invocation failed.
	// Recovered inside the agent loop as an observation.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrDuplicateTool indicates two tools were registered under one name.
	ErrDuplicateTool = errors.New("duplicate tool name")

	// ErrAgent indicates the model call failed after retries, or the turn
	// could not complete. Always surfaced to the user as a generic failure.
	ErrAgent = errors.New("agent turn failed")

	// ErrMaxSteps indicates the iteration budget ran out before the model
	// produced a final answer. Always wrapped in ErrAgent semantics.
	ErrMaxSteps = errors.New("agent iteration budget exhausted")

	// ErrNoIndex indicates retrieval was attempted with no documents indexed.
	ErrNoIndex = errors.New("no document index available")
)
