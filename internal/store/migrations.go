package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "companions: profile and current state",
		SQL: `
CREATE TABLE companions (
    id               INTEGER PRIMARY KEY,
    companion_id     TEXT NOT NULL UNIQUE,

    -- Profile (immutable after insert)
    name             TEXT NOT NULL,
    core             TEXT,
    personality      TEXT,
    lore             TEXT,
    abilities        TEXT NOT NULL DEFAULT '[]',
    rarity           TEXT NOT NULL CHECK (rarity IN ('Common', 'Rare', 'Epic', 'Legendary')),
    owner_address    TEXT,

    -- State
    emotion          REAL NOT NULL DEFAULT 0  CHECK (emotion BETWEEN -100 AND 100),
    corruption       REAL NOT NULL DEFAULT 0  CHECK (corruption BETWEEN 0 AND 100),
    bond_level       REAL NOT NULL DEFAULT 50 CHECK (bond_level BETWEEN 0 AND 100),
    last_interaction INTEGER NOT NULL,
    last_decay       INTEGER,

    created_at       INTEGER NOT NULL,
    updated_at       INTEGER NOT NULL
);

CREATE INDEX idx_companions_owner   ON companions(owner_address);
CREATE INDEX idx_companions_created ON companions(created_at);
`,
	},
	{
		Version:     2,
		Description: "memory_entries: per-companion memory log",
		SQL: `
CREATE TABLE memory_entries (
    id           INTEGER PRIMARY KEY,
    companion_id TEXT NOT NULL,
    seq          INTEGER NOT NULL,
    action       TEXT NOT NULL,
    at           INTEGER NOT NULL,
    data         TEXT,

    UNIQUE (companion_id, seq),
    FOREIGN KEY (companion_id) REFERENCES companions(companion_id) ON DELETE CASCADE
);

CREATE INDEX idx_memory_companion ON memory_entries(companion_id, seq);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
