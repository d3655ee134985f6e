package refresh

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SHASHWATSINHA024/insighty/internal/store"
	"github.com/SHASHWATSINHA024/insighty/internal/user"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

type fakeDirectory struct {
	users []user.User
	err   error
}

func (d *fakeDirectory) AllUsers(ctx context.Context) ([]user.User, error) {
	return d.users, d.err
}

func (d *fakeDirectory) GetUser(ctx context.Context, id string) (*user.User, error) {
	for i := range d.users {
		if d.users[i].ID == id {
			return &d.users[i], nil
		}
	}
	return nil, errors.New("no such user")
}

type fakeSocial struct {
	mu          sync.Mutex
	gotTopics   []string
	globalFn    func(ctx context.Context, w source.Writer, limit int) ([]source.Trend, error)
	globalCalls int
}

func (f *fakeSocial) SyncGlobal(ctx context.Context, w source.Writer, limit int) ([]source.Trend, error) {
	f.mu.Lock()
	f.globalCalls++
	f.mu.Unlock()
	if f.globalFn != nil {
		return f.globalFn(ctx, w, limit)
	}
	return nil, nil
}

func (f *fakeSocial) SyncTopics(ctx context.Context, w source.Writer, topics []string) ([]source.Trend, error) {
	f.mu.Lock()
	f.gotTopics = topics
	f.mu.Unlock()
	return nil, nil
}

type fakeFeed struct {
	name   source.SourceType
	syncFn func(ctx context.Context, w source.Writer) ([]source.Trend, error)
}

func (f *fakeFeed) Name() source.SourceType { return f.name }

func (f *fakeFeed) Sync(ctx context.Context, w source.Writer) ([]source.Trend, error) {
	if f.syncFn != nil {
		return f.syncFn(ctx, w)
	}
	return nil, nil
}

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSingleFlight(t *testing.T) {
	db := testStore(t)
	release := make(chan struct{})
	entered := make(chan struct{})
	var enteredOnce sync.Once

	social := &fakeSocial{
		globalFn: func(ctx context.Context, w source.Writer, limit int) ([]source.Trend, error) {
			enteredOnce.Do(func() { close(entered) })
			<-release
			return nil, nil
		},
	}
	orch := New(db, &fakeDirectory{}, social,
		&fakeFeed{name: source.SourceTwitter},
		&fakeFeed{name: source.SourceGoogleTrends}, 50, 0)

	done := make(chan error, 1)
	go func() {
		_, err := orch.Run(context.Background())
		done <- err
	}()

	<-entered
	require.True(t, orch.Running())

	_, err := orch.Run(context.Background())
	require.ErrorIs(t, err, ErrCycleRunning, "concurrent start must be dropped, not queued")

	close(release)
	require.NoError(t, <-done)
	require.False(t, orch.Running(), "flag released after the cycle")
	require.Equal(t, 1, social.globalCalls)

	// A fresh cycle may start once the first completes.
	_, err = orch.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, social.globalCalls)
}

func TestTopicResolutionUnionsPreferences(t *testing.T) {
	db := testStore(t)
	social := &fakeSocial{}
	dir := &fakeDirectory{users: []user.User{
		{ID: "u1", Preferences: []string{"golang", "science"}},
		{ID: "u2", Preferences: []string{"science", "rust"}},
	}}

	orch := New(db, dir, social,
		&fakeFeed{name: source.SourceTwitter},
		&fakeFeed{name: source.SourceGoogleTrends}, 50, 0)

	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"golang", "science", "rust"}, social.gotTopics)
}

func TestTopicResolutionDefaults(t *testing.T) {
	db := testStore(t)
	social := &fakeSocial{}
	orch := New(db, &fakeDirectory{}, social,
		&fakeFeed{name: source.SourceTwitter},
		&fakeFeed{name: source.SourceGoogleTrends}, 50, 0)

	_, err := orch.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, DefaultTopics, social.gotTopics)
}

func TestFeedFailureIsolation(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	microblog := &fakeFeed{
		name: source.SourceTwitter,
		syncFn: func(ctx context.Context, w source.Writer) ([]source.Trend, error) {
			return nil, errors.New("microblog store unavailable")
		},
	}
	searchTrend := &fakeFeed{
		name: source.SourceGoogleTrends,
		syncFn: func(ctx context.Context, w source.Writer) ([]source.Trend, error) {
			trends := []source.Trend{{Source: source.SourceGoogleTrends, Title: "survivor", IsActive: true}}
			return trends, w.InsertMany(ctx, trends)
		},
	}

	orch := New(db, &fakeDirectory{}, &fakeSocial{}, microblog, searchTrend, 50, 0)
	res, err := orch.Run(ctx)
	require.NoError(t, err, "a failing step must not abort the cycle")
	require.Equal(t, 1, res.GoogleTrends)

	got, err := db.List(ctx, store.ListOpts{Source: source.SourceGoogleTrends})
	require.NoError(t, err)
	require.Len(t, got, 1, "sibling step persists despite microblog failure")
}

func TestCycleCleansStaleRecords(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	old := source.Trend{
		Source: source.SourceTwitter, Title: "#Ancient", IsActive: true,
		CreatedAt: time.Now().UTC().Add(-25 * time.Hour),
		UpdatedAt: time.Now().UTC().Add(-25 * time.Hour),
	}
	require.NoError(t, db.InsertMany(ctx, []source.Trend{old}))

	orch := New(db, &fakeDirectory{}, &fakeSocial{},
		&fakeFeed{name: source.SourceTwitter},
		&fakeFeed{name: source.SourceGoogleTrends}, 50, 24*time.Hour)

	res, err := orch.Run(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Cleaned)

	got, err := db.List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Empty(t, got)
}

// With no credentials configured anywhere, a full cycle against the real
// adapters still leaves every source populated via fallback data.
func TestFallbackCycleWithoutCredentials(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))

	reddit := source.NewReddit("", "", "", rng)
	twitter := source.NewTwitter("", "", nil, rng)
	gtrends := source.NewGoogleTrends("", "", 4)

	orch := New(db, &fakeDirectory{}, reddit, twitter, gtrends, 50, 0)
	res, err := orch.Run(ctx)
	require.NoError(t, err)
	require.NotZero(t, res.RedditGlobal)
	require.NotZero(t, res.RedditScoped)
	require.NotZero(t, res.Twitter)
	require.NotZero(t, res.GoogleTrends)

	counts, err := db.CountBySource(ctx)
	require.NoError(t, err)
	for _, src := range source.AllSourceTypes() {
		require.NotZero(t, counts[src], "source %s must not be empty", src)
	}
}
