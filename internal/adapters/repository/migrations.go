package repository

import "strings"

// migration holds a single schema migration with its target version and SQL.
// {{serial}} is replaced with the dialect's auto-increment primary key.
type migration struct {
	version int
	sql     string
}

// migrations must stay append-only; versions are sequential from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS members (
	id         BIGINT PRIMARY KEY,
	name       TEXT NOT NULL,
	avatar     TEXT NOT NULL DEFAULT '',
	points     INTEGER NOT NULL DEFAULT 0,
	rank_no    INTEGER NOT NULL DEFAULT 0,
	watermark  TEXT NOT NULL DEFAULT '',
	updated_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ranking_snapshots (
	id             {{serial}},
	scope          TEXT NOT NULL,
	subject_id     BIGINT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	taken_at       TEXT NOT NULL,
	rank_no        INTEGER NOT NULL DEFAULT 0,
	points         INTEGER NOT NULL DEFAULT 0,
	user_owns      INTEGER NOT NULL DEFAULT 0,
	system_owns    INTEGER NOT NULL DEFAULT 0,
	challenge_owns INTEGER NOT NULL DEFAULT 0,
	fortress_owns  INTEGER NOT NULL DEFAULT 0,
	endgame_owns   INTEGER NOT NULL DEFAULT 0,
	prolab_owns    INTEGER NOT NULL DEFAULT 0,
	bloods         INTEGER NOT NULL DEFAULT 0,
	respects       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ranking_snapshots_subject
	ON ranking_snapshots (scope, subject_id, taken_at);

CREATE TABLE IF NOT EXISTS scheduler_state (
	state_key   TEXT PRIMARY KEY,
	state_value TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);`,
	},
}

func (d dialect) render(sql string) string {
	return strings.ReplaceAll(sql, "{{serial}}", d.serial)
}
