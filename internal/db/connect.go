package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:formbuilder.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/formbuilder?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

// EnsureSchema applies the embedded schema for the driver. Exposed so the
// migrate CLI command can run it against an already-open handle.
func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  fullname TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'owner',
  credits INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS forms (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  public INTEGER NOT NULL DEFAULT 0,
  settings_json TEXT NOT NULL DEFAULT '{}',
  ai_generated INTEGER NOT NULL DEFAULT 0,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_forms_owner ON forms(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS ix_forms_status ON forms(status);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  ord INTEGER NOT NULL,
  required INTEGER NOT NULL DEFAULT 0,
  points REAL NOT NULL DEFAULT 0,
  body_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_questions_form_ord ON questions(form_id, ord);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  respondent_key TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL,
  score REAL,
  max_score REAL,
  started_at INTEGER,
  submitted_at INTEGER NOT NULL,
  duration_sec INTEGER
);
CREATE INDEX IF NOT EXISTS ix_responses_form ON responses(form_id, submitted_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS ux_responses_attempt
  ON responses(form_id, respondent_key) WHERE respondent_key <> '';

CREATE TABLE IF NOT EXISTS form_stats (
  form_id TEXT PRIMARY KEY REFERENCES forms(id) ON DELETE CASCADE,
  total_responses INTEGER NOT NULL DEFAULT 0,
  score_sum REAL NOT NULL DEFAULT 0,
  scored_count INTEGER NOT NULL DEFAULT 0,
  completion_sum REAL NOT NULL DEFAULT 0,
  last_submitted_at INTEGER NOT NULL DEFAULT 0
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  fullname TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'owner',
  credits BIGINT NOT NULL DEFAULT 0,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS forms (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  kind TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  public BOOLEAN NOT NULL DEFAULT FALSE,
  settings_json TEXT NOT NULL DEFAULT '{}',
  ai_generated BOOLEAN NOT NULL DEFAULT FALSE,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_forms_owner ON forms(owner_id, created_at DESC);
CREATE INDEX IF NOT EXISTS ix_forms_status ON forms(status);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  ord INTEGER NOT NULL,
  required BOOLEAN NOT NULL DEFAULT FALSE,
  points DOUBLE PRECISION NOT NULL DEFAULT 0,
  body_json TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_questions_form_ord ON questions(form_id, ord);

CREATE TABLE IF NOT EXISTS responses (
  id TEXT PRIMARY KEY,
  form_id TEXT NOT NULL REFERENCES forms(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  respondent_key TEXT NOT NULL DEFAULT '',
  answers_json TEXT NOT NULL,
  score DOUBLE PRECISION,
  max_score DOUBLE PRECISION,
  started_at BIGINT,
  submitted_at BIGINT NOT NULL,
  duration_sec BIGINT
);
CREATE INDEX IF NOT EXISTS ix_responses_form ON responses(form_id, submitted_at DESC);
CREATE UNIQUE INDEX IF NOT EXISTS ux_responses_attempt
  ON responses(form_id, respondent_key) WHERE respondent_key <> '';

CREATE TABLE IF NOT EXISTS form_stats (
  form_id TEXT PRIMARY KEY REFERENCES forms(id) ON DELETE CASCADE,
  total_responses BIGINT NOT NULL DEFAULT 0,
  score_sum DOUBLE PRECISION NOT NULL DEFAULT 0,
  scored_count BIGINT NOT NULL DEFAULT 0,
  completion_sum DOUBLE PRECISION NOT NULL DEFAULT 0,
  last_submitted_at BIGINT NOT NULL DEFAULT 0
);
`
