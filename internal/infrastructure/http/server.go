// Package http provides the HTTP server infrastructure.
// Clean Architecture: Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dipa-ai/dipa/internal/domain/entities"
	"github.com/dipa-ai/dipa/internal/domain/ports"
	"github.com/dipa-ai/dipa/internal/log"
)

// maxUploadBytes bounds a single document upload request.
const maxUploadBytes = 64 << 20

// Conversations runs chat turns and session resets.
type Conversations interface {
	HandleTurn(ctx context.Context, sessionID, userInput string) (string, error)
	Reset()
}

// DocumentIndex rebuilds and inspects the document index.
type DocumentIndex interface {
	Build(ctx context.Context, files []entities.UploadedFile) (skipped []string, err error)
	Ready() bool
	DocumentCount() int
}

// ToolCatalog tracks the toolset derived from index state.
type ToolCatalog interface {
	Rebuild()
	Tools() []ports.Tool
}

// Options configures the server.
type Options struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Server is the HTTP front for the assistant API.
type Server struct {
	conversations Conversations
	index         DocumentIndex
	catalog       ToolCatalog
	logger        log.Logger
	opts          Options
}

// NewServer creates an HTTP server over the given use cases.
func NewServer(conversations Conversations, index DocumentIndex, catalog ToolCatalog, logger log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.NewNop()
	}
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 10
	}
	return &Server{
		conversations: conversations,
		index:         index,
		catalog:       catalog,
		logger:        logger,
		opts:          opts,
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", requirePost(s.handleChat))
	mux.HandleFunc("/api/documents", requirePost(s.handleDocuments))
	mux.HandleFunc("/api/reset", requirePost(s.handleReset))
	mux.HandleFunc("/api/health", s.handleHealth)

	limiter := newRateLimiter(s.opts.RateLimitRPS, s.opts.RateLimitBurst)
	var handler http.Handler = mux
	handler = rateLimitMiddleware(limiter, s.logger)(handler)
	handler = loggingMiddleware(s.logger)(handler)
	handler = corsMiddleware(handler)
	return handler
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.logger.Info("server starting", "addr", s.opts.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	answer, err := s.conversations.HandleTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		// The orchestrator supplies a user-facing fallback answer so the
		// conversation can continue client-side.
		writeJSON(w, http.StatusServiceUnavailable, chatResponse{
			SessionID: req.SessionID,
			Answer:    answer,
		})
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Answer: answer})
}

type documentsResponse struct {
	Indexed int      `json:"indexed"`
	Skipped []string `json:"skipped,omitempty"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "expected multipart form upload")
		return
	}

	var files []entities.UploadedFile
	for _, header := range r.MultipartForm.File["files"] {
		f, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "unreadable upload: "+header.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "unreadable upload: "+header.Filename)
			return
		}
		files = append(files, entities.UploadedFile{Name: header.Filename, Data: data})
	}
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "no files in upload")
		return
	}

	skipped, err := s.index.Build(r.Context(), files)
	if err != nil {
		if errors.Is(err, entities.ErrIngest) {
			writeError(w, http.StatusUnprocessableEntity, "ingest_failed", err.Error())
			return
		}
		s.logger.Error("index build failed", "error", err)
		writeError(w, http.StatusInternalServerError, "index_failed", "could not build index")
		return
	}
	s.catalog.Rebuild()

	writeJSON(w, http.StatusOK, documentsResponse{
		Indexed: s.index.DocumentCount(),
		Skipped: skipped,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.conversations.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type healthResponse struct {
	Status     string   `json:"status"`
	IndexReady bool     `json:"index_ready"`
	Documents  int      `json:"documents"`
	Tools      []string `json:"tools"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use GET")
		return
	}
	tools := s.catalog.Tools()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		IndexReady: s.index.Ready(),
		Documents:  s.index.DocumentCount(),
		Tools:      names,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}
