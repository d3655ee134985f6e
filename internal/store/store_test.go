package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func redditTrend(key, title string, created time.Time) source.Trend {
	return source.Trend{
		Source:     source.SourceReddit,
		NaturalKey: key,
		Title:      title,
		URL:        "https://reddit.com/r/testing",
		Score:      100,
		Topic:      "testing",
		Author:     "someone",
		IsActive:   true,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestUpsertIdempotence(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	t1 := time.Now().UTC().Add(-2 * time.Hour)
	first := redditTrend("abc123", "first title", t1)
	require.NoError(t, db.Upsert(ctx, &first))

	t2 := time.Now().UTC()
	second := redditTrend("abc123", "second title", t2)
	second.Score = 250
	require.NoError(t, db.Upsert(ctx, &second))

	got, err := db.List(ctx, ListOpts{Source: source.SourceReddit})
	require.NoError(t, err)
	require.Len(t, got, 1, "same natural key must leave exactly one record")

	require.Equal(t, "second title", got[0].Title)
	require.Equal(t, 250, got[0].Score)
	require.WithinDuration(t, t2, got[0].UpdatedAt, time.Second, "updated_at advances on rewrite")
	require.WithinDuration(t, t1, got[0].CreatedAt, time.Second, "created_at survives the conflict")
}

func TestUpsertRequiresNaturalKey(t *testing.T) {
	db := testStore(t)

	keyless := redditTrend("", "no key", time.Now().UTC())
	require.Error(t, db.Upsert(context.Background(), &keyless))
}

func TestKeylessRecordsCoexist(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	batch := []source.Trend{
		{Source: source.SourceTwitter, Title: "#One", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Source: source.SourceTwitter, Title: "#Two", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{Source: source.SourceGoogleTrends, Title: "query", IsActive: true, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, db.InsertMany(ctx, batch))

	counts, err := db.CountBySource(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, counts[source.SourceTwitter], "sparse constraint must not collapse keyless records")
	require.Equal(t, 1, counts[source.SourceGoogleTrends])
}

func TestDeleteScopedKeepsGlobal(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	global := redditTrend("g1", "global post", now)
	global.FromGlobal = true
	require.NoError(t, db.Upsert(ctx, &global))

	scoped := redditTrend("s1", "scoped post", now)
	require.NoError(t, db.Upsert(ctx, &scoped))

	tweet := source.Trend{Source: source.SourceTwitter, Title: "#Keep", IsActive: true, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, db.InsertMany(ctx, []source.Trend{tweet}))

	require.NoError(t, db.DeleteScoped(ctx, source.SourceReddit))

	got, err := db.List(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	titles := []string{got[0].Title, got[1].Title}
	require.ElementsMatch(t, []string{"global post", "#Keep"}, titles)
}

func TestDeleteOlderThan(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	old := redditTrend("old", "stale", now.Add(-25*time.Hour))
	fresh := redditTrend("new", "fresh", now.Add(-1*time.Hour))
	require.NoError(t, db.Upsert(ctx, &old))
	require.NoError(t, db.Upsert(ctx, &fresh))

	tweet := source.Trend{
		Source: source.SourceTwitter, Title: "#Stale", IsActive: true,
		CreatedAt: now.Add(-25 * time.Hour), UpdatedAt: now.Add(-25 * time.Hour),
	}
	require.NoError(t, db.InsertMany(ctx, []source.Trend{tweet}))

	n, err := db.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 2, n, "cleanup applies to every source")

	got, err := db.List(ctx, ListOpts{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "fresh", got[0].Title)
}

func TestListFiltersAndOrdering(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	records := []source.Trend{
		{Source: source.SourceReddit, NaturalKey: "a", Title: "low", Score: 10, Topic: "golang", FromGlobal: true, IsActive: true, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now},
		{Source: source.SourceReddit, NaturalKey: "b", Title: "high", Score: 90, Topic: "rust", FromGlobal: true, IsActive: true, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now},
		{Source: source.SourceReddit, NaturalKey: "c", Title: "scoped", Score: 50, Topic: "golang", IsActive: true, CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now},
		{Source: source.SourceReddit, NaturalKey: "d", Title: "inactive", Score: 99, Topic: "rust", FromGlobal: true, CreatedAt: now, UpdatedAt: now},
	}
	for i := range records {
		require.NoError(t, db.Upsert(ctx, &records[i]))
	}

	global := true
	got, err := db.List(ctx, ListOpts{
		Source:     source.SourceReddit,
		Global:     &global,
		NotTopic:   "golang",
		ActiveOnly: true,
		ByScore:    true,
		Limit:      8,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "high", got[0].Title)

	got, err = db.List(ctx, ListOpts{Source: source.SourceReddit, Topic: "golang", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "scoped", got[0].Title, "recency ordering puts the newest first")

	got, err = db.List(ctx, ListOpts{Source: source.SourceReddit, ActiveOnly: true, ByScore: true})
	require.NoError(t, err)
	require.Equal(t, "high", got[0].Title)
	require.Equal(t, "scoped", got[1].Title)
	require.Equal(t, "low", got[2].Title)
}

func TestUserPreferences(t *testing.T) {
	db := testStore(t)
	ctx := context.Background()

	_, err := db.GetUser(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.UpdatePreferences(ctx, "u1", []string{"golang", "rust"}))
	require.NoError(t, db.UpdatePreferences(ctx, "u2", []string{"science"}))

	u, err := db.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"golang", "rust"}, u.Preferences)

	require.NoError(t, db.UpdatePreferences(ctx, "u1", []string{"news"}))
	u, err = db.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"news"}, u.Preferences)

	users, err := db.AllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
}
