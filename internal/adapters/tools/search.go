package tools

import (
	"context"

	"github.com/dipa-ai/dipa/internal/domain/usecases"
)

// Searcher runs a web search and returns a formatted digest.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// WebSearchTool exposes live web search to the agent as web_search.
type WebSearchTool struct {
	searcher Searcher
	schema   map[string]any
}

// NewWebSearchTool wraps a searcher as an agent tool.
func NewWebSearchTool(searcher Searcher) *WebSearchTool {
	return &WebSearchTool{
		searcher: searcher,
		schema:   generateSchema[queryArgs](),
	}
}

func (t *WebSearchTool) Name() string { return usecases.WebSearchToolName }

func (t *WebSearchTool) Description() string {
	return "Search the web with Google for current information. " +
		"Use this for recent or time-sensitive questions, or when the documents do not cover the topic."
}

func (t *WebSearchTool) Parameters() map[string]any { return t.schema }

func (t *WebSearchTool) Invoke(ctx context.Context, query string) (string, error) {
	return t.searcher.Search(ctx, query)
}
