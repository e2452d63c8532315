// Command dipa runs the diet recommendation assistant: an HTTP API over
// a tool-using conversational agent with document retrieval and web
// search.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/openai/openai-go/v2/option"

	"github.com/dipa-ai/dipa/internal/adapters/embedding"
	"github.com/dipa-ai/dipa/internal/adapters/filewatcher"
	"github.com/dipa-ai/dipa/internal/adapters/llm"
	"github.com/dipa-ai/dipa/internal/adapters/loader"
	"github.com/dipa-ai/dipa/internal/adapters/parser"
	"github.com/dipa-ai/dipa/internal/adapters/sessionstore"
	"github.com/dipa-ai/dipa/internal/adapters/tools"
	"github.com/dipa-ai/dipa/internal/adapters/vectordb"
	"github.com/dipa-ai/dipa/internal/adapters/websearch"
	"github.com/dipa-ai/dipa/internal/config"
	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/domain/usecases"
	httpserver "github.com/dipa-ai/dipa/internal/infrastructure/http"
	"github.com/dipa-ai/dipa/internal/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "dipa:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.Config{JSON: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docParser := parser.NewMultiParser(parser.NewPDFParser(), parser.NewTextParser())
	embedder := embedding.NewOpenAIAdapter(cfg.EmbeddingModel, option.WithAPIKey(cfg.OpenAIAPIKey))
	model := llm.NewOpenAIAdapter(cfg.ChatModel, option.WithAPIKey(cfg.OpenAIAPIKey))

	indexer := usecases.NewIndexer(
		docParser,
		embedder,
		func() ports.VectorStore { return vectordb.NewInMemoryStore() },
		logger,
		cfg.ChunkSize, cfg.ChunkOverlap, cfg.TopK,
	)

	var search tools.Searcher
	if cfg.WebSearchEnabled() {
		search = websearch.NewSerpAPIAdapter(cfg.SerpAPIKey, "")
	} else {
		logger.Warn("web search disabled, no SerpAPI key configured")
	}
	catalog := tools.NewCatalog(indexer, search, logger)

	sessions := sessionstore.NewInMemoryStore()
	agent := usecases.NewAgentLoop(model, cfg.Language, cfg.Temperature, cfg.MaxSteps, logger)
	orchestrator := usecases.NewOrchestrator(sessions, agent, catalog, logger)

	if cfg.DocumentsDir != "" {
		if err := startDocumentWatcher(ctx, cfg.DocumentsDir, docParser, indexer, catalog, logger); err != nil {
			return err
		}
	}

	server := httpserver.NewServer(orchestrator, indexer, catalog, logger, httpserver.Options{
		Addr:           cfg.HTTPAddr,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})
	return server.Start(ctx)
}

// startDocumentWatcher indexes the documents directory and keeps the
// index in sync with on-disk changes.
func startDocumentWatcher(
	ctx context.Context,
	dir string,
	docParser ports.DocumentParser,
	indexer *usecases.Indexer,
	catalog *tools.Catalog,
	logger log.Logger,
) error {
	dirLoader := loader.NewDirLoader(docParser.SupportedFormats())
	reload := func(ctx context.Context) error {
		files, err := dirLoader.Load(dir)
		if err != nil {
			return err
		}
		skipped, err := indexer.Build(ctx, files)
		if err != nil {
			return err
		}
		if len(skipped) > 0 {
			logger.Warn("some documents were skipped", "skipped", skipped)
		}
		catalog.Rebuild()
		return nil
	}

	// Initial index from whatever is already on disk.
	if err := reload(ctx); err != nil {
		logger.Warn("initial index build failed", "dir", dir, "error", err)
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(docParser.SupportedFormats(), logger)
	if err != nil {
		return err
	}
	reloader := filewatcher.NewReloader(watcher, reload, filewatcher.DefaultDebounce, logger)
	go func() {
		defer watcher.Stop()
		if err := reloader.Run(ctx, dir); err != nil && ctx.Err() == nil {
			logger.Error("document watcher stopped", "error", err)
		}
	}()
	logger.Info("watching documents directory", "dir", dir)
	return nil
}
