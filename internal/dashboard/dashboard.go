// Package dashboard assembles the personalized merged view over stored
// trends. It is strictly read-only and always produces a structurally valid
// payload: a failed section shows up empty, never as an error.
package dashboard

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/SHASHWATSINHA024/insighty/internal/store"
	"github.com/SHASHWATSINHA024/insighty/internal/user"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

const sectionLimit = 8

// Payload is the per-user dashboard response.
type Payload struct {
	Reddit          []source.Trend `json:"reddit"`
	Twitter         []source.Trend `json:"twitter"`
	GoogleTrends    []source.Trend `json:"googleTrends"`
	SubredditLatest []source.Trend `json:"subredditLatest"`
}

// Assembler builds dashboard payloads from the store.
type Assembler struct {
	store store.Store
	users user.Directory
}

// New creates an assembler.
func New(st store.Store, users user.Directory) *Assembler {
	return &Assembler{store: st, users: users}
}

// Build assembles the payload for one user:
//
//   - the global social feed, excluding the user's primary topic and capped;
//   - the single most recent scoped post per preferred topic, in list order;
//   - the microblog and search-trend sections, fetched concurrently;
//   - per-section title dedup, then the search-trend section filtered down
//     to titles not already used anywhere else (lowest-priority gap filler).
func (a *Assembler) Build(ctx context.Context, userID string) *Payload {
	prefs := a.preferences(ctx, userID)
	primary := "programming"
	if len(prefs) > 0 {
		primary = prefs[0]
	}

	globalFeed := true
	reddit, err := a.store.List(ctx, store.ListOpts{
		Source:     source.SourceReddit,
		Global:     &globalFeed,
		NotTopic:   primary,
		ActiveOnly: true,
		ByScore:    true,
		Limit:      sectionLimit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: reddit query error: %v\n", err)
	}

	scoped := false
	var latest []source.Trend
	for _, topic := range prefs {
		posts, err := a.store.List(ctx, store.ListOpts{
			Source:     source.SourceReddit,
			Topic:      topic,
			Global:     &scoped,
			ActiveOnly: true,
			Limit:      1,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "dashboard: r/%s query error: %v\n", topic, err)
			continue
		}
		latest = append(latest, posts...)
	}

	var (
		wg               sync.WaitGroup
		twitter, gtrends []source.Trend
	)
	for _, section := range []struct {
		src  source.SourceType
		dest *[]source.Trend
	}{
		{source.SourceTwitter, &twitter},
		{source.SourceGoogleTrends, &gtrends},
	} {
		section := section
		wg.Add(1)
		go func() {
			defer wg.Done()
			trends, err := a.store.List(ctx, store.ListOpts{
				Source:     section.src,
				ActiveOnly: true,
				ByScore:    true,
				Limit:      sectionLimit,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "dashboard: %s query error: %v\n", section.src, err)
				return
			}
			*section.dest = trends
		}()
	}
	wg.Wait()

	reddit = dedupByTitle(reddit)
	latest = dedupByTitle(latest)
	twitter = dedupByTitle(twitter)
	gtrends = dedupByTitle(gtrends)

	// Search trends only fill gaps: drop anything already titled elsewhere.
	used := make(map[string]bool)
	for _, list := range [][]source.Trend{latest, reddit, twitter} {
		for _, t := range list {
			used[t.Title] = true
		}
	}
	filtered := make([]source.Trend, 0, len(gtrends))
	for _, t := range gtrends {
		if used[t.Title] {
			continue
		}
		filtered = append(filtered, t)
	}

	return &Payload{
		Reddit:          reddit,
		Twitter:         twitter,
		GoogleTrends:    filtered,
		SubredditLatest: latest,
	}
}

func (a *Assembler) preferences(ctx context.Context, userID string) []string {
	u, err := a.users.GetUser(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: get user %s: %v\n", userID, err)
		return nil
	}
	return u.Preferences
}

// dedupByTitle keeps the first occurrence of each title, case-sensitive and
// order-preserving.
func dedupByTitle(trends []source.Trend) []source.Trend {
	seen := make(map[string]bool, len(trends))
	var out []source.Trend
	for _, t := range trends {
		if seen[t.Title] {
			continue
		}
		seen[t.Title] = true
		out = append(out, t)
	}
	return out
}
