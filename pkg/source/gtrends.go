package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// GoogleTrends collects trending searches via the SerpApi trending-now
// engine. Records carry no natural key and are appended each cycle; the
// retention cleanup keeps the collection bounded.
type GoogleTrends struct {
	client  *http.Client
	apiKey  string
	baseURL string
	geo     string
	limit   int
}

// NewGoogleTrends creates a new search-trends adapter.
func NewGoogleTrends(apiKey, geo string, limit int) *GoogleTrends {
	if geo == "" {
		geo = "IN"
	}
	if limit <= 0 {
		limit = 4
	}
	return &GoogleTrends{
		client:  &http.Client{Timeout: 30 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://serpapi.com/search.json",
		geo:     geo,
		limit:   limit,
	}
}

func (g *GoogleTrends) Name() SourceType { return SourceGoogleTrends }

// SetBaseURL overrides the SerpApi endpoint. Used by tests.
func (g *GoogleTrends) SetBaseURL(u string) {
	g.baseURL = strings.TrimRight(u, "/")
}

// Sync appends the current trending searches. Unlike the other sources
// nothing is deleted here.
func (g *GoogleTrends) Sync(ctx context.Context, w Writer) ([]Trend, error) {
	trends, err := g.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  google trends fetch error, using fallback: %v\n", err)
		trends = g.Fallback()
	}

	if err := w.InsertMany(ctx, trends); err != nil {
		return trends, fmt.Errorf("insert google trends: %w", err)
	}
	return trends, nil
}

// Fetch returns the current trending searches.
func (g *GoogleTrends) Fetch(ctx context.Context) ([]Trend, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("serpapi key not configured")
	}

	params := url.Values{}
	params.Set("api_key", g.apiKey)
	params.Set("engine", "google_trends_trending_now")
	params.Set("geo", g.geo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create google trends request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch google trends: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google trends status %d", resp.StatusCode)
	}

	var payload struct {
		TrendingSearches []struct {
			Query        string `json:"query"`
			SearchVolume int    `json:"search_volume"`
		} `json:"trending_searches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode google trends: %w", err)
	}

	searches := payload.TrendingSearches
	if len(searches) > g.limit {
		searches = searches[:g.limit]
	}

	trends := make([]Trend, 0, len(searches))
	now := time.Now().UTC()
	for _, s := range searches {
		title := s.Query
		if title == "" {
			title = "Trending Topic"
		}
		volume := s.SearchVolume
		if volume <= 0 {
			volume = 1000
		}
		trends = append(trends, Trend{
			Source:      SourceGoogleTrends,
			Title:       title,
			Description: fmt.Sprintf("Search volume: %d", volume),
			URL:         "https://www.google.com/search?q=" + url.QueryEscape(title),
			Score:       volume,
			Author:      "google",
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return trends, nil
}

// Fallback returns the fixed search-trend substitute set, truncated to the
// configured limit.
func (g *GoogleTrends) Fallback() []Trend {
	trends := googleTrendsFallback()
	if len(trends) > g.limit {
		trends = trends[:g.limit]
	}
	return trends
}
