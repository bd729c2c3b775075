package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	// Database drivers selected by the storage.driver setting.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mikey/inbox-agent/internal/core"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
	dialectMySQL
)

// SQLStore is the relational store behind every persistence port: emails,
// action items, prompts and drafts. One database, three supported dialects.
type SQLStore struct {
	db      *sqlx.DB
	dialect dialect
	logger  *zap.Logger
}

var (
	_ core.EmailStore      = (*SQLStore)(nil)
	_ core.ActionItemStore = (*SQLStore)(nil)
	_ core.PromptStore     = (*SQLStore)(nil)
	_ core.DraftStore      = (*SQLStore)(nil)
)

// Open connects to the database and applies pending migrations. driverName
// is one of sqlite3, pgx or mysql.
func Open(driverName, dsn string, logger *zap.Logger) (*SQLStore, error) {
	d, err := dialectForDriver(driverName)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLStore{
		db:      db,
		dialect: d,
		logger:  logger,
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Store opened", zap.String("driver", driverName))
	return s, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func dialectForDriver(driverName string) (dialect, error) {
	switch driverName {
	case "sqlite3":
		return dialectSQLite, nil
	case "pgx":
		return dialectPostgres, nil
	case "mysql":
		return dialectMySQL, nil
	default:
		return 0, fmt.Errorf("unsupported database driver: %s", driverName)
	}
}

// insertReturningID runs an INSERT and reports the generated key. Postgres
// has no LastInsertId, so the query grows a RETURNING clause there.
func (s *SQLStore) insertReturningID(query string, args ...interface{}) (int64, error) {
	if s.dialect == dialectPostgres {
		var id int64
		if err := s.db.QueryRowx(s.db.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := s.db.Exec(s.db.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Timestamps are stored as RFC3339 UTC text, which orders correctly as a
// string and scans identically on every driver.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	// Rows written by SQL-side defaults use the bare datetime form
	t, err2 := time.Parse("2006-01-02 15:04:05", s)
	if err2 == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("parsing stored timestamp %q: %w", s, err)
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
