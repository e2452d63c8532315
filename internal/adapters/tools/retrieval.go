package tools

import (
	"context"

	"github.com/dipa-ai/dipa/internal/domain/usecases"
)

// Retriever answers a natural-language query from the document index.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (string, error)
}

// RetrievalTool exposes the document index to the agent as pdf_search.
type RetrievalTool struct {
	retriever Retriever
	schema    map[string]any
}

// NewRetrievalTool wraps a retriever as an agent tool.
func NewRetrievalTool(retriever Retriever) *RetrievalTool {
	return &RetrievalTool{
		retriever: retriever,
		schema:    generateSchema[queryArgs](),
	}
}

func (t *RetrievalTool) Name() string { return usecases.RetrievalToolName }

func (t *RetrievalTool) Description() string {
	return "Search the uploaded PDF documents for diet, nutrition, and recipe information. " +
		"Use this first for any factual question about the user's documents."
}

func (t *RetrievalTool) Parameters() map[string]any { return t.schema }

func (t *RetrievalTool) Invoke(ctx context.Context, query string) (string, error) {
	return t.retriever.Retrieve(ctx, query)
}
