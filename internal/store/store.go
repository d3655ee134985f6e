package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/SHASHWATSINHA024/insighty/internal/user"
	"github.com/SHASHWATSINHA024/insighty/pkg/source"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ListOpts controls trend listing.
type ListOpts struct {
	Source     source.SourceType
	Topic      string
	NotTopic   string
	Global     *bool // nil = both global-feed and scoped records
	ActiveOnly bool
	ByScore    bool // score DESC, created_at DESC; otherwise created_at DESC
	Limit      int
}

// Store is the persistence interface.
type Store interface {
	source.Writer
	user.Directory

	List(ctx context.Context, opts ListOpts) ([]source.Trend, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	CountBySource(ctx context.Context) (map[source.SourceType]int, error)
	UpdatePreferences(ctx context.Context, userID string, prefs []string) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or replaces a trend keyed by (source, natural_key). The
// natural key must be present; keyless sources go through InsertMany.
// created_at survives a conflict, updated_at always moves forward.
func (s *SQLiteStore) Upsert(ctx context.Context, t *source.Trend) error {
	if t.NaturalKey == "" {
		return fmt.Errorf("upsert %s trend %q: natural key required", t.Source, t.Title)
	}
	stampTrend(t)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trends (source, natural_key, title, description, url, score, topic, author, from_global, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, natural_key) WHERE natural_key != '' DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			url = excluded.url,
			score = excluded.score,
			topic = excluded.topic,
			author = excluded.author,
			from_global = excluded.from_global,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`, t.Source, t.NaturalKey, t.Title, t.Description, t.URL, t.Score,
		t.Topic, t.Author, t.FromGlobal, t.IsActive, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert trend %s/%s: %w", t.Source, t.NaturalKey, err)
	}
	return nil
}

// InsertMany appends trends without deduplication.
func (s *SQLiteStore) InsertMany(ctx context.Context, trends []source.Trend) error {
	for i := range trends {
		t := &trends[i]
		stampTrend(t)
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO trends (source, natural_key, title, description, url, score, topic, author, from_global, is_active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.Source, t.NaturalKey, t.Title, t.Description, t.URL, t.Score,
			t.Topic, t.Author, t.FromGlobal, t.IsActive, t.CreatedAt, t.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert trend %s %q: %w", t.Source, t.Title, err)
		}
	}
	return nil
}

// DeleteScoped removes the non-global records of a source, leaving global
// feed records untouched.
func (s *SQLiteStore) DeleteScoped(ctx context.Context, src source.SourceType) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM trends WHERE source = ? AND from_global = 0", src)
	if err != nil {
		return fmt.Errorf("delete scoped %s: %w", src, err)
	}
	return nil
}

// DeleteBySource removes every record of a source.
func (s *SQLiteStore) DeleteBySource(ctx context.Context, src source.SourceType) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM trends WHERE source = ?", src)
	if err != nil {
		return fmt.Errorf("delete source %s: %w", src, err)
	}
	return nil
}

// DeleteOlderThan hard-deletes records created before the cutoff, for any
// source. Returns the number of removed rows.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trends WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old trends: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOpts) ([]source.Trend, error) {
	query := "SELECT * FROM trends WHERE 1=1"
	var args []any

	if opts.Source != "" {
		query += " AND source = ?"
		args = append(args, opts.Source)
	}
	if opts.Topic != "" {
		query += " AND topic = ?"
		args = append(args, opts.Topic)
	}
	if opts.NotTopic != "" {
		query += " AND topic != ?"
		args = append(args, opts.NotTopic)
	}
	if opts.Global != nil {
		query += " AND from_global = ?"
		args = append(args, *opts.Global)
	}
	if opts.ActiveOnly {
		query += " AND is_active = 1"
	}

	if opts.ByScore {
		query += " ORDER BY score DESC, created_at DESC"
	} else {
		query += " ORDER BY created_at DESC"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var trends []source.Trend
	if err := s.db.SelectContext(ctx, &trends, query, args...); err != nil {
		return nil, fmt.Errorf("list trends: %w", err)
	}
	return trends, nil
}

func (s *SQLiteStore) CountBySource(ctx context.Context) (map[source.SourceType]int, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT source, COUNT(*) AS cnt FROM trends GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("count trends by source: %w", err)
	}
	defer rows.Close()

	counts := make(map[source.SourceType]int)
	for rows.Next() {
		var src string
		var cnt int
		if err := rows.Scan(&src, &cnt); err != nil {
			return nil, err
		}
		counts[source.SourceType(src)] = cnt
	}
	return counts, rows.Err()
}

type userRow struct {
	ID          string `db:"id"`
	Username    string `db:"username"`
	Preferences string `db:"preferences"`
}

func (r userRow) toUser() user.User {
	u := user.User{ID: r.ID, Username: r.Username}
	json.Unmarshal([]byte(r.Preferences), &u.Preferences)
	return u
}

func (s *SQLiteStore) AllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT * FROM users"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.toUser())
	}
	return users, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	u := row.toUser()
	return &u, nil
}

// UpdatePreferences replaces a user's topic list, creating the user row if it
// does not exist yet.
func (s *SQLiteStore) UpdatePreferences(ctx context.Context, userID string, prefs []string) error {
	prefsJSON, _ := json.Marshal(prefs)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, preferences) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET preferences = excluded.preferences
	`, userID, string(prefsJSON))
	if err != nil {
		return fmt.Errorf("update preferences %s: %w", userID, err)
	}
	return nil
}

func stampTrend(t *source.Trend) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
}
