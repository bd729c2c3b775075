package store

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

type migration struct {
	version    int
	statements []string
}

// runMigrations applies every migration newer than the recorded schema
// version. Statements run one at a time so the postgres driver can use its
// prepared protocol.
func (s *SQLStore) runMigrations() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	var current sql.NullInt64
	if err := s.db.Get(&current, `SELECT MAX(version) FROM schema_version`); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations(s.dialect) {
		if current.Valid && int64(m.version) <= current.Int64 {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("applying migration %d: %w", m.version, err)
			}
		}
		if _, err := s.db.Exec(s.db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.version, err)
		}
		s.logger.Info("Applied schema migration", zap.Int("version", m.version))
	}
	return nil
}

func migrations(d dialect) []migration {
	switch d {
	case dialectPostgres:
		return []migration{{version: 1, statements: postgresSchemaV1}}
	case dialectMySQL:
		return []migration{{version: 1, statements: mysqlSchemaV1}}
	default:
		return []migration{{version: 1, statements: sqliteSchemaV1}}
	}
}

var sqliteSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'Uncategorized',
		raw_data TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email_id TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
		task TEXT NOT NULL,
		deadline TEXT NOT NULL DEFAULT 'Not specified',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email_id TEXT REFERENCES emails(id) ON DELETE SET NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		metadata TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_email ON action_items(email_id)`,
}

var postgresSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT 'Uncategorized',
		raw_data TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id BIGSERIAL PRIMARY KEY,
		email_id TEXT NOT NULL REFERENCES emails(id) ON DELETE CASCADE,
		task TEXT NOT NULL,
		deadline TEXT NOT NULL DEFAULT 'Not specified',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		is_active SMALLINT NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id BIGSERIAL PRIMARY KEY,
		email_id TEXT REFERENCES emails(id) ON DELETE SET NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		metadata TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(category)`,
	`CREATE INDEX IF NOT EXISTS idx_action_items_email ON action_items(email_id)`,
}

var mysqlSchemaV1 = []string{
	`CREATE TABLE IF NOT EXISTS emails (
		id VARCHAR(255) PRIMARY KEY,
		sender TEXT NOT NULL,
		subject TEXT NOT NULL,
		body MEDIUMTEXT NOT NULL,
		timestamp VARCHAR(64) NOT NULL,
		category VARCHAR(32) NOT NULL DEFAULT 'Uncategorized',
		raw_data MEDIUMTEXT,
		created_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS action_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email_id VARCHAR(255) NOT NULL,
		task TEXT NOT NULL,
		deadline VARCHAR(255) NOT NULL DEFAULT 'Not specified',
		status VARCHAR(32) NOT NULL DEFAULT 'pending',
		created_at VARCHAR(64) NOT NULL,
		FOREIGN KEY (email_id) REFERENCES emails(id) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS prompts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL UNIQUE,
		content MEDIUMTEXT NOT NULL,
		is_active TINYINT NOT NULL DEFAULT 1,
		created_at VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drafts (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		email_id VARCHAR(255) NULL,
		subject TEXT NOT NULL,
		body MEDIUMTEXT NOT NULL,
		metadata TEXT,
		created_at VARCHAR(64) NOT NULL,
		FOREIGN KEY (email_id) REFERENCES emails(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX idx_emails_category ON emails(category)`,
	`CREATE INDEX idx_action_items_email ON action_items(email_id)`,
}
