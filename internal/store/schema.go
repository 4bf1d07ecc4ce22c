package store

// schemaVersion is the target schema version for this build.
const schemaVersion = 1

// schemaV1 holds the training corpus, the versioned rule sets and the
// operation metrics.
var schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

-- Append-only training corpus. seq orders samples for retraining snapshots.
CREATE TABLE IF NOT EXISTS samples (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	file_id TEXT NOT NULL DEFAULT '',
	spans TEXT NOT NULL,
	corrections TEXT NOT NULL,
	created_at TEXT NOT NULL
);

-- Published rule sets. Rows are never updated.
CREATE TABLE IF NOT EXISTS rule_sets (
	version INTEGER PRIMARY KEY,
	parent INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	rules TEXT NOT NULL
);

-- Single row naming the rule set used for serving.
CREATE TABLE IF NOT EXISTS active_rule_set (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	version INTEGER NOT NULL REFERENCES rule_sets(version),
	activated_at TEXT NOT NULL
);

-- Append-only log of extract, upload and retrain operations.
CREATE TABLE IF NOT EXISTS metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	operation TEXT NOT NULL,
	provider TEXT NOT NULL DEFAULT '',
	rule_set_version INTEGER NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	spans INTEGER NOT NULL DEFAULT 0,
	fields INTEGER NOT NULL DEFAULT 0,
	seconds REAL NOT NULL DEFAULT 0,
	success INTEGER NOT NULL,
	error_type TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS metrics_operation ON metrics(operation, created_at);
`
