package record

import "database/sql"

// Schema is the full record store schema. Every statement is idempotent so
// ApplySchema can run on every startup.
const Schema = `
-- One row per ingested item, deduplicated on (source, source_id)
CREATE TABLE IF NOT EXISTS content_records (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    source          TEXT NOT NULL,
    source_id       TEXT NOT NULL,
    title           TEXT NOT NULL,
    description     TEXT,
    tags            TEXT,
    score           REAL,
    score_breakdown TEXT,
    processed       INTEGER NOT NULL DEFAULT 0,
    created_at      INTEGER NOT NULL,
    updated_at      INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_records_source_key ON content_records(source, source_id);
CREATE INDEX IF NOT EXISTS idx_records_source ON content_records(source);
CREATE INDEX IF NOT EXISTS idx_records_score ON content_records(score);
CREATE INDEX IF NOT EXISTS idx_records_processed ON content_records(processed);
CREATE INDEX IF NOT EXISTS idx_records_created ON content_records(created_at);

-- One row per collector run (observability)
CREATE TABLE IF NOT EXISTS collection_runs (
    id            TEXT PRIMARY KEY,
    source        TEXT NOT NULL,
    items_seen    INTEGER NOT NULL DEFAULT 0,
    items_new     INTEGER NOT NULL DEFAULT 0,
    items_updated INTEGER NOT NULL DEFAULT 0,
    duration_ms   INTEGER NOT NULL DEFAULT 0,
    error         TEXT NOT NULL DEFAULT '',
    started_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON collection_runs(started_at DESC);
`

// ApplySchema creates the tables and indexes if they do not exist.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
