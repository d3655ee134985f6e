package store

const schema = `
CREATE TABLE IF NOT EXISTS trends (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    source      TEXT NOT NULL,
    natural_key TEXT NOT NULL DEFAULT '',
    title       TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    url         TEXT NOT NULL DEFAULT '',
    score       INTEGER NOT NULL DEFAULT 0,
    topic       TEXT NOT NULL DEFAULT '',
    author      TEXT NOT NULL DEFAULT '',
    from_global BOOLEAN NOT NULL DEFAULT 0,
    is_active   BOOLEAN NOT NULL DEFAULT 1,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

-- Sparse uniqueness: only records that expose a provider identifier take
-- part in the constraint. Keyless sources may hold any number of rows.
CREATE UNIQUE INDEX IF NOT EXISTS idx_trends_natural_key
    ON trends(source, natural_key) WHERE natural_key != '';

CREATE INDEX IF NOT EXISTS idx_trends_source_created ON trends(source, created_at);
CREATE INDEX IF NOT EXISTS idx_trends_topic_created ON trends(topic, created_at);

CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    username    TEXT NOT NULL DEFAULT '',
    preferences TEXT NOT NULL DEFAULT '[]'
);
`
