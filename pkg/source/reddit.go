package source

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

const scopedSampleSize = 3

// Reddit collects trending posts from the Reddit listing API.
//
// The global feed (r/all) is upserted by natural key and never deleted outside
// the retention cleanup. Topic-scoped fetches replace all prior scoped records
// with a small random sample per topic.
type Reddit struct {
	client       *http.Client
	clientID     string
	clientSecret string
	userAgent    string
	authURL      string
	apiURL       string
	rng          *rand.Rand

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewReddit creates a new Reddit adapter. A nil rng falls back to a
// time-seeded source.
func NewReddit(clientID, clientSecret, userAgent string, rng *rand.Rand) *Reddit {
	if userAgent == "" {
		userAgent = "insighty/1.0"
	}
	return &Reddit{
		client:       &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
		userAgent:    userAgent,
		authURL:      "https://www.reddit.com/api/v1/access_token",
		apiURL:       "https://oauth.reddit.com",
		rng:          orSeeded(rng),
	}
}

func (r *Reddit) Name() SourceType { return SourceReddit }

// SetBaseURLs overrides the auth and API endpoints. Used by tests.
func (r *Reddit) SetBaseURLs(authURL, apiURL string) {
	r.authURL = strings.TrimRight(authURL, "/")
	r.apiURL = strings.TrimRight(apiURL, "/")
}

// SyncGlobal fetches the unfiltered r/all feed and upserts each post by its
// natural key. Upstream failures degrade to fallback data and are never
// returned; only persistence errors surface.
func (r *Reddit) SyncGlobal(ctx context.Context, w Writer, limit int) ([]Trend, error) {
	trends, err := r.FetchGlobal(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  reddit global fetch error, using fallback: %v\n", err)
		trends = redditGlobalFallback()
	}

	for i := range trends {
		if err := w.Upsert(ctx, &trends[i]); err != nil {
			return trends, fmt.Errorf("upsert reddit global: %w", err)
		}
	}
	return trends, nil
}

// SyncTopics replaces all scoped (non-global) reddit records: prior scoped
// records are deleted, then each topic contributes a uniform sample of up to
// three freshly fetched posts.
func (r *Reddit) SyncTopics(ctx context.Context, w Writer, topics []string) ([]Trend, error) {
	if err := w.DeleteScoped(ctx, SourceReddit); err != nil {
		return nil, fmt.Errorf("delete scoped reddit: %w", err)
	}

	var all []Trend
	for _, topic := range topics {
		trends, err := r.FetchTopic(ctx, topic, 10)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  reddit r/%s fetch error, using fallback: %v\n", topic, err)
			trends = redditTopicFallback(topic)
		}

		selected := sample(r.rng, trends, scopedSampleSize)
		for i := range selected {
			if err := w.Upsert(ctx, &selected[i]); err != nil {
				return all, fmt.Errorf("upsert reddit r/%s: %w", topic, err)
			}
		}
		all = append(all, selected...)
	}
	return all, nil
}

// FetchGlobal returns the hot posts of the unfiltered r/all feed.
func (r *Reddit) FetchGlobal(ctx context.Context, limit int) ([]Trend, error) {
	return r.fetchListing(ctx, "all", limit, true)
}

// FetchTopic returns the hot posts of a single subreddit.
func (r *Reddit) FetchTopic(ctx context.Context, topic string, limit int) ([]Trend, error) {
	return r.fetchListing(ctx, topic, limit, false)
}

func (r *Reddit) fetchListing(ctx context.Context, subreddit string, limit int, global bool) ([]Trend, error) {
	if err := r.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("reddit auth: %w", err)
	}

	if limit <= 0 {
		limit = 10
	}
	reqURL := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", r.apiURL, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.token)
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch r/%s: %w", subreddit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit r/%s status %d", subreddit, resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode r/%s: %w", subreddit, err)
	}

	var trends []Trend
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Stickied {
			continue
		}
		trends = append(trends, normalizeRedditPost(post, global))
	}
	return trends, nil
}

// normalizeRedditPost maps a raw listing child to the common record shape.
// Unmappable fields degrade to defaults rather than failing.
func normalizeRedditPost(post redditPost, global bool) Trend {
	now := time.Now().UTC()
	return Trend{
		Source:      SourceReddit,
		NaturalKey:  post.ID,
		Title:       post.Title,
		Description: truncate(post.Selftext, 500),
		URL:         "https://reddit.com" + post.Permalink,
		Score:       clampScore(post.Score),
		Topic:       post.Subreddit,
		Author:      post.Author,
		FromGlobal:  global,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// authenticate performs the client-credentials token exchange, reusing a
// cached token until shortly before expiry.
func (r *Reddit) authenticate(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.token != "" && time.Now().Before(r.tokenExpiry) {
		return nil
	}
	if r.clientID == "" || r.clientSecret == "" {
		return fmt.Errorf("reddit credentials not configured")
	}

	data := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.authURL,
		strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(r.clientID, r.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("reddit token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("decode reddit token: %w", err)
	}

	r.token = tokenResp.AccessToken
	r.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Permalink string `json:"permalink"`
	Selftext  string `json:"selftext"`
	Author    string `json:"author"`
	Score     int    `json:"score"`
	Subreddit string `json:"subreddit"`
	Stickied  bool   `json:"stickied"`
}
