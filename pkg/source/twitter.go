package source

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Twitter collects trending topics from Twitter/X.
//
// The live path reads account timelines as Nitter RSS. Whenever the bearer
// token is unset or the fetch fails, a random sample of the deterministic
// fallback pool is substituted so the dashboard never shows an empty section.
type Twitter struct {
	client      *http.Client
	parser      *gofeed.Parser
	bearerToken string
	nitterURL   string
	accounts    []string
	rng         *rand.Rand
}

// NewTwitter creates a new Twitter adapter. A nil rng falls back to a
// time-seeded source.
func NewTwitter(bearerToken, nitterURL string, accounts []string, rng *rand.Rand) *Twitter {
	if nitterURL == "" {
		nitterURL = "https://nitter.net"
	}
	return &Twitter{
		client:      &http.Client{Timeout: 30 * time.Second},
		parser:      gofeed.NewParser(),
		bearerToken: bearerToken,
		nitterURL:   strings.TrimRight(nitterURL, "/"),
		accounts:    accounts,
		rng:         orSeeded(rng),
	}
}

func (t *Twitter) Name() SourceType { return SourceTwitter }

// SetNitterURL overrides the Nitter endpoint. Used by tests.
func (t *Twitter) SetNitterURL(u string) {
	t.nitterURL = strings.TrimRight(u, "/")
}

// Sync replaces all stored twitter records with the current fetch: prior
// records are deleted, the new batch is deduplicated by title (first
// occurrence wins) and appended. There is no natural key for this source.
func (t *Twitter) Sync(ctx context.Context, w Writer) ([]Trend, error) {
	trends, err := t.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  twitter fetch error, using fallback: %v\n", err)
		trends = t.Fallback()
	}

	if err := w.DeleteBySource(ctx, SourceTwitter); err != nil {
		return trends, fmt.Errorf("delete twitter records: %w", err)
	}
	if err := w.InsertMany(ctx, dedupByTitle(trends)); err != nil {
		return trends, fmt.Errorf("insert twitter records: %w", err)
	}
	return trends, nil
}

// Fetch returns the current trending topics from the live timelines.
func (t *Twitter) Fetch(ctx context.Context) ([]Trend, error) {
	if t.bearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token not configured")
	}

	var all []Trend
	for _, account := range t.accounts {
		trends, err := t.fetchAccount(ctx, account)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  twitter @%s error: %v\n", account, err)
			continue
		}
		all = append(all, trends...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no twitter timelines available")
	}
	return all, nil
}

func (t *Twitter) fetchAccount(ctx context.Context, account string) ([]Trend, error) {
	feedURL := fmt.Sprintf("%s/%s/rss", t.nitterURL, account)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create twitter request @%s: %w", account, err)
	}
	req.Header.Set("User-Agent", "insighty/1.0")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch twitter @%s: %w", account, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twitter @%s status %d", account, resp.StatusCode)
	}

	feed, err := t.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse twitter @%s: %w", account, err)
	}

	var trends []Trend
	for _, entry := range feed.Items {
		trends = append(trends, t.normalizeEntry(entry, account))
	}
	return trends, nil
}

func (t *Twitter) normalizeEntry(entry *gofeed.Item, account string) Trend {
	now := time.Now().UTC()
	link := strings.Replace(entry.Link, t.nitterURL, "https://x.com", 1)
	return Trend{
		Source:      SourceTwitter,
		Title:       truncate(entry.Title, 280),
		Description: truncate(entry.Description, 500),
		URL:         link,
		Score:       0,
		Author:      account,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Fallback returns a uniform sample of three topics from the deterministic
// pool.
func (t *Twitter) Fallback() []Trend {
	return sample(t.rng, twitterFallbackPool(), 3)
}
