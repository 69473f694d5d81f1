package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Every statement must be safe to re-run against an existing database.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT    NOT NULL UNIQUE,
		password_hash TEXT    NOT NULL DEFAULT '',
		user_type     TEXT    NOT NULL CHECK (user_type IN ('institution', 'owner', 'tenant', 'investor')),
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT     PRIMARY KEY,
		user_id    INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS passkey_credentials (
		id              TEXT    PRIMARY KEY,
		user_id         INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name            TEXT    NOT NULL DEFAULT '',
		credential_json TEXT    NOT NULL,
		created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id      INTEGER NOT NULL REFERENCES users(id),
		address       TEXT    NOT NULL,
		city          TEXT    NOT NULL,
		area          INTEGER NOT NULL DEFAULT 0 CHECK (area >= 0),
		rooms         INTEGER NOT NULL DEFAULT 0 CHECK (rooms >= 0),
		bathrooms     INTEGER NOT NULL DEFAULT 0 CHECK (bathrooms >= 0),
		has_courtyard INTEGER NOT NULL DEFAULT 0,
		floor         INTEGER NOT NULL DEFAULT 0,
		image         TEXT    NOT NULL DEFAULT '',
		number        TEXT    NOT NULL UNIQUE,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS contracts (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		property_id   INTEGER NOT NULL UNIQUE REFERENCES properties(id) ON DELETE CASCADE,
		contract_type TEXT    NOT NULL CHECK (contract_type IN ('4+4', 'student')),
		document      TEXT    NOT NULL,
		uploaded_by   INTEGER REFERENCES users(id) ON DELETE SET NULL,
		created_at    DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id        INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		payment_method TEXT    NOT NULL,
		details        TEXT    NOT NULL,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS meeting_requests (
		id          INTEGER  PRIMARY KEY AUTOINCREMENT,
		investor_id INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date        DATETIME NOT NULL,
		message     TEXT     NOT NULL,
		response    TEXT     NOT NULL DEFAULT '',
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_requests_investor ON meeting_requests(investor_id)`,
	`CREATE TRIGGER IF NOT EXISTS properties_owner_type_insert
	BEFORE INSERT ON properties
	WHEN (SELECT user_type FROM users WHERE id = NEW.owner_id) IS NOT 'owner'
	BEGIN
		SELECT RAISE(ABORT, 'property owner must be an owner user');
	END`,
	`CREATE TRIGGER IF NOT EXISTS properties_owner_type_update
	BEFORE UPDATE OF owner_id ON properties
	WHEN (SELECT user_type FROM users WHERE id = NEW.owner_id) IS NOT 'owner'
	BEGIN
		SELECT RAISE(ABORT, 'property owner must be an owner user');
	END`,
	`CREATE TRIGGER IF NOT EXISTS meeting_requests_investor_type
	BEFORE INSERT ON meeting_requests
	WHEN (SELECT user_type FROM users WHERE id = NEW.investor_id) IS NOT 'investor'
	BEGIN
		SELECT RAISE(ABORT, 'meeting requester must be an investor user');
	END`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
