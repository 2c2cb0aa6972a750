package store

// schemaVersionV1 is the single-table run log.
const schemaVersionV1 = 1

const currentSchemaVersion = schemaVersionV1

var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL DEFAULT '',
	run_tag TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL,
	label TEXT NOT NULL DEFAULT '',
	scenario TEXT NOT NULL DEFAULT '',
	seed INTEGER NOT NULL DEFAULT 0,
	schema_version INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	payload BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_label_seed ON runs(label, seed);
CREATE INDEX IF NOT EXISTS idx_runs_run_id ON runs(run_id);
`
