package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const SchemaSQL = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    label TEXT,
    created_at TEXT,
    words INTEGER,
    chars INTEGER,
    similarity_score REAL,
    similarity_flagged INTEGER,
    self_similarity_score REAL,
    ai_probability REAL,
    classification TEXT,
    acceptable INTEGER,
    payload TEXT
);

CREATE INDEX IF NOT EXISTS reports_created_at ON reports(created_at);

CREATE TABLE IF NOT EXISTS matches (
    id INTEGER PRIMARY KEY,
    report_id TEXT REFERENCES reports(id) ON DELETE CASCADE,
    scope TEXT,
    kind TEXT,
    source_label TEXT,
    similarity REAL,
    start_index INTEGER,
    end_index INTEGER,
    matched_text TEXT
);

CREATE TABLE IF NOT EXISTS indicators (
    id INTEGER PRIMARY KEY,
    report_id TEXT REFERENCES reports(id) ON DELETE CASCADE,
    name TEXT,
    score REAL,
    severity TEXT
);
`

var tables = map[string]bool{"reports": true, "matches": true, "indicators": true}

func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(SchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}
