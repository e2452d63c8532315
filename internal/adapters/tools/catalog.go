package tools

import (
	"sync"

	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// IndexRetriever is the slice of the indexer the catalog needs: whether
// an index exists, and retrieval against it.
type IndexRetriever interface {
	Retriever
	Ready() bool
}

// Catalog derives the currently available toolset from runtime state:
// pdf_search appears only while an index is built, web_search only when
// a searcher is configured. Rebuild after every index change.
type Catalog struct {
	index  IndexRetriever
	search Searcher // nil when web search is not configured
	logger log.Logger

	mu    sync.RWMutex
	tools []ports.Tool
}

// NewCatalog creates a catalog and computes the initial toolset.
func NewCatalog(index IndexRetriever, search Searcher, logger log.Logger) *Catalog {
	if logger == nil {
		logger = log.NewNop()
	}
	c := &Catalog{index: index, search: search, logger: logger}
	c.Rebuild()
	return c
}

// Rebuild recomputes the toolset from current state.
func (c *Catalog) Rebuild() {
	registry := NewRegistry()
	if c.index != nil && c.index.Ready() {
		if err := registry.Register(NewRetrievalTool(c.index)); err != nil {
			c.logger.Error("registering retrieval tool", "error", err)
		}
	}
	if c.search != nil {
		if err := registry.Register(NewWebSearchTool(c.search)); err != nil {
			c.logger.Error("registering web search tool", "error", err)
		}
	}
	tools := registry.List()

	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	c.logger.Info("toolset rebuilt", "tools", names)
}

// Tools returns the current toolset.
func (c *Catalog) Tools() []ports.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ports.Tool, len(c.tools))
	copy(out, c.tools)
	return out
}
