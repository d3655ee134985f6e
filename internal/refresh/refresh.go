// Package refresh runs one trend refresh cycle: resolve the effective topic
// set, sync every source into the store and clean out stale records. At most
// one cycle runs at a time.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SHASHWATSINHA024/insighty/internal/store"
	"github.com/SHASHWATSINHA024/insighty/internal/user"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

// ErrCycleRunning is returned when Run is invoked while a cycle is already
// in flight. The call is dropped, not queued.
var ErrCycleRunning = errors.New("refresh cycle already running")

// DefaultTopics is used when no user has any preference configured.
var DefaultTopics = []string{"programming", "technology", "science", "news"}

// SocialSource is the link-aggregation adapter: a global feed upserted by
// natural key plus topic-scoped replacement fetches.
type SocialSource interface {
	SyncGlobal(ctx context.Context, w source.Writer, limit int) ([]source.Trend, error)
	SyncTopics(ctx context.Context, w source.Writer, topics []string) ([]source.Trend, error)
}

// FeedSource is a keyless adapter refreshed as a whole.
type FeedSource interface {
	Name() source.SourceType
	Sync(ctx context.Context, w source.Writer) ([]source.Trend, error)
}

// Result reports what a cycle fetched per source, plus how many stale
// records the cleanup removed.
type Result struct {
	RedditGlobal int   `json:"reddit_global"`
	RedditScoped int   `json:"reddit_scoped"`
	Twitter      int   `json:"twitter"`
	GoogleTrends int   `json:"google_trends"`
	Cleaned      int64 `json:"cleaned"`
}

// Orchestrator coordinates refresh cycles.
type Orchestrator struct {
	store       store.Store
	users       user.Directory
	social      SocialSource
	microblog   FeedSource
	searchTrend FeedSource
	globalLimit int
	retention   time.Duration

	running atomic.Bool
}

// New creates an orchestrator. retention <= 0 defaults to 24 hours.
func New(st store.Store, users user.Directory, social SocialSource, microblog, searchTrend FeedSource, globalLimit int, retention time.Duration) *Orchestrator {
	if globalLimit <= 0 {
		globalLimit = 50
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Orchestrator{
		store:       st,
		users:       users,
		social:      social,
		microblog:   microblog,
		searchTrend: searchTrend,
		globalLimit: globalLimit,
		retention:   retention,
	}
}

// Running reports whether a cycle is currently executing.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run executes one refresh cycle. Concurrent invocations return
// ErrCycleRunning immediately. Every step's failure is isolated: a source or
// store fault skips that step's contribution and the cycle keeps going.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		fmt.Fprintln(os.Stderr, "refresh: cycle already in progress, skipping")
		return nil, ErrCycleRunning
	}
	defer o.running.Store(false)

	res := &Result{}
	topics := o.resolveTopics(ctx)
	fmt.Fprintf(os.Stderr, "refresh: cycle started (topics: %v)\n", topics)

	// The global and scoped reddit fetches share one collection window, so
	// they are sequenced: the scoped delete must not race an in-flight
	// global upsert.
	global, err := o.social.SyncGlobal(ctx, o.store, o.globalLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  reddit global sync error: %v\n", err)
	}
	res.RedditGlobal = len(global)

	scoped, err := o.social.SyncTopics(ctx, o.store, topics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  reddit scoped sync error: %v\n", err)
	}
	res.RedditScoped = len(scoped)

	// Microblog and search trends have no data dependency; run them
	// concurrently with independent failure domains.
	var wg sync.WaitGroup
	for _, step := range []struct {
		src   FeedSource
		count *int
	}{
		{o.microblog, &res.Twitter},
		{o.searchTrend, &res.GoogleTrends},
	} {
		step := step
		wg.Add(1)
		go func() {
			defer wg.Done()
			trends, err := step.src.Sync(ctx, o.store)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  %s sync error: %v\n", step.src.Name(), err)
			}
			*step.count = len(trends)
		}()
	}
	wg.Wait()

	cleaned, err := o.store.DeleteOlderThan(ctx, time.Now().UTC().Add(-o.retention))
	if err != nil {
		fmt.Fprintf(os.Stderr, "  cleanup error: %v\n", err)
	}
	res.Cleaned = cleaned

	fmt.Fprintf(os.Stderr, "refresh: cycle done (global: %d, scoped: %d, twitter: %d, google: %d, cleaned: %d)\n",
		res.RedditGlobal, res.RedditScoped, res.Twitter, res.GoogleTrends, res.Cleaned)
	return res, nil
}

// resolveTopics unions all users' preference lists, deduplicated in order of
// first appearance. An empty union substitutes the default topic list.
func (o *Orchestrator) resolveTopics(ctx context.Context) []string {
	users, err := o.users.AllUsers(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "  list users error, using default topics: %v\n", err)
		return DefaultTopics
	}

	seen := make(map[string]bool)
	var topics []string
	for _, u := range users {
		for _, p := range u.Preferences {
			if p == "" || seen[p] {
				continue
			}
			seen[p] = true
			topics = append(topics, p)
		}
	}

	if len(topics) == 0 {
		return DefaultTopics
	}
	return topics
}
