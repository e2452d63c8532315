// Package websearch provides the SerpAPI search adapter.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dipa-ai/dipa/internal/domain/entities"
)

const (
	defaultBaseURL = "https://serpapi.com"

	// maxResults is how many organic results are rendered per query.
	maxResults = 5

	// NoResults is returned when the provider finds nothing, so callers
	// can tell "ran and found nothing" from "never invoked".
	NoResults = "검색 결과가 없습니다."
)

// SerpAPIAdapter queries the SerpAPI Google engine and renders results
// as a readable citation list.
type SerpAPIAdapter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewSerpAPIAdapter creates a search adapter. baseURL is overridable
// for tests; empty picks the real endpoint.
func NewSerpAPIAdapter(apiKey, baseURL string) *SerpAPIAdapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &SerpAPIAdapter{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// organicResult is the subset of SerpAPI's result fields we render.
// Any field may be absent.
type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
}

// Search runs the query and renders the top organic results, one per
// line: title, source, link when present, and snippet.
func (a *SerpAPIAdapter) Search(ctx context.Context, query string) (string, error) {
	if a.apiKey == "" {
		return "", fmt.Errorf("%w: missing SerpAPI key", entities.ErrSearch)
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", a.baseURL+"/search.json?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", entities.ErrSearch, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: calling provider: %v", entities.ErrSearch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: provider returned status %d", entities.ErrSearch, resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", entities.ErrSearch, err)
	}

	return formatResults(result.OrganicResults), nil
}

func formatResults(results []organicResult) string {
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	var lines []string
	for _, r := range results {
		if r.Link != "" {
			lines = append(lines, fmt.Sprintf("- [%s](%s) (%s)\n  %s", r.Title, r.Link, r.Source, r.Snippet))
		} else {
			lines = append(lines, fmt.Sprintf("- %s (출처: %s)\n  %s", r.Title, r.Source, r.Snippet))
		}
	}

	if len(lines) == 0 {
		return NoResults
	}
	return strings.Join(lines, "\n")
}
