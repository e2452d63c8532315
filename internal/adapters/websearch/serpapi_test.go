package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *SerpAPIAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSerpAPIAdapter("test-key", srv.URL)
}

func TestSearch_RendersResults(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "다이어트 뉴스" {
			t.Errorf("unexpected query: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]any{
				{"title": "Diet News", "link": "https://example.com/a", "source": "Example", "snippet": "today's news"},
				{"title": "No Link Entry", "source": "Other", "snippet": "text"},
			},
		})
	})

	out, err := adapter.Search(context.Background(), "다이어트 뉴스")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if !strings.Contains(out, "- [Diet News](https://example.com/a) (Example)") {
		t.Errorf("linked result not rendered: %q", out)
	}
	if !strings.Contains(out, "- No Link Entry (출처: Other)") {
		t.Errorf("linkless result not rendered: %q", out)
	}
	if !strings.Contains(out, "  today's news") {
		t.Errorf("snippet missing: %q", out)
	}
}

func TestSearch_TopFiveOnly(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		var results []map[string]any
		for i := 0; i < 8; i++ {
			results = append(results, map[string]any{"title": "r", "link": "https://e.com", "source": "s", "snippet": "x"})
		}
		json.NewEncoder(w).Encode(map[string]any{"organic_results": results})
	})

	out, err := adapter.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if got := strings.Count(out, "- ["); got != 5 {
		t.Errorf("expected 5 results, got %d", got)
	}
}

func TestSearch_NoResultsSentinel(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"organic_results": []any{}})
	})

	out, err := adapter.Search(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if out != NoResults {
		t.Errorf("expected no-results sentinel, got %q", out)
	}
	if out == "" {
		t.Error("sentinel must never be empty")
	}
}

func TestSearch_MissingCredentials(t *testing.T) {
	adapter := NewSerpAPIAdapter("", "")

	_, err := adapter.Search(context.Background(), "q")
	if !errors.Is(err, entities.ErrSearch) {
		t.Errorf("expected ErrSearch for missing key, got %v", err)
	}
}

func TestSearch_ProviderFailure(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := adapter.Search(context.Background(), "q")
	if !errors.Is(err, entities.ErrSearch) {
		t.Errorf("expected ErrSearch, got %v", err)
	}
}
