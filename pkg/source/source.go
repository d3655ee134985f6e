package source

import (
	"context"
	"math/rand"
	"time"
)

// SourceType identifies which platform a trend came from.
type SourceType string

const (
	SourceReddit       SourceType = "reddit"
	SourceTwitter      SourceType = "twitter"
	SourceGoogleTrends SourceType = "google-trends"
)

// Trend is the standardized record every source normalizes into.
type Trend struct {
	ID          int64      `json:"id" db:"id"`
	Source      SourceType `json:"source" db:"source"`
	NaturalKey  string     `json:"natural_key,omitempty" db:"natural_key"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	URL         string     `json:"url" db:"url"`
	Score       int        `json:"score" db:"score"`
	Topic       string     `json:"topic,omitempty" db:"topic"`
	Author      string     `json:"author,omitempty" db:"author"`
	FromGlobal  bool       `json:"from_global" db:"from_global"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Writer is the subset of the store that adapters persist through.
type Writer interface {
	Upsert(ctx context.Context, t *Trend) error
	InsertMany(ctx context.Context, trends []Trend) error
	DeleteScoped(ctx context.Context, src SourceType) error
	DeleteBySource(ctx context.Context, src SourceType) error
}

// AllSourceTypes returns all known source types.
func AllSourceTypes() []SourceType {
	return []SourceType{SourceReddit, SourceTwitter, SourceGoogleTrends}
}

// sample picks a uniform sample without replacement of size min(n, len(trends)).
func sample(rng *rand.Rand, trends []Trend, n int) []Trend {
	if len(trends) <= n {
		return trends
	}
	picked := make([]Trend, 0, n)
	for _, i := range rng.Perm(len(trends))[:n] {
		picked = append(picked, trends[i])
	}
	return picked
}

// dedupByTitle keeps the first occurrence of each title, preserving order.
func dedupByTitle(trends []Trend) []Trend {
	seen := make(map[string]bool, len(trends))
	var out []Trend
	for _, t := range trends {
		if seen[t.Title] {
			continue
		}
		seen[t.Title] = true
		out = append(out, t)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	return score
}

func orSeeded(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
