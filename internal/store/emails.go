package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mikey/inbox-agent/internal/core"
)

type emailRow struct {
	ID        string         `db:"id"`
	Sender    string         `db:"sender"`
	Subject   string         `db:"subject"`
	Body      string         `db:"body"`
	Timestamp string         `db:"timestamp"`
	Category  string         `db:"category"`
	RawData   sql.NullString `db:"raw_data"`
	CreatedAt string         `db:"created_at"`
}

func (r emailRow) toEmail() (core.Email, error) {
	ts, err := parseTime(r.Timestamp)
	if err != nil {
		return core.Email{}, err
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Email{}, err
	}
	return core.Email{
		ID:        r.ID,
		Sender:    r.Sender,
		Subject:   r.Subject,
		Body:      r.Body,
		Timestamp: ts,
		Category:  core.Category(r.Category),
		RawData:   r.RawData.String,
		CreatedAt: created,
	}, nil
}

const emailColumns = `id, sender, subject, body, timestamp, category, raw_data, created_at`

// InsertEmail stores an email unless its ID already exists. The first write
// wins; a duplicate ID is reported as inserted=false with no error.
func (s *SQLStore) InsertEmail(ctx context.Context, email *core.Email) (bool, error) {
	created := email.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	ts := email.Timestamp
	if ts.IsZero() {
		ts = created
	}
	category := email.Category
	if category == "" {
		category = core.CategoryUncategorized
	}

	var query string
	switch s.dialect {
	case dialectPostgres:
		query = `INSERT INTO emails (` + emailColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`
	case dialectMySQL:
		query = `INSERT IGNORE INTO emails (` + emailColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	default:
		query = `INSERT OR IGNORE INTO emails (` + emailColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query),
		email.ID, email.Sender, email.Subject, email.Body,
		formatTime(ts), string(category), email.RawData, formatTime(created))
	if err != nil {
		return false, fmt.Errorf("inserting email %s: %w", email.ID, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert of email %s: %w", email.ID, err)
	}
	return inserted > 0, nil
}

// GetEmail returns the email with the given ID or ErrNotFound.
func (s *SQLStore) GetEmail(ctx context.Context, id string) (*core.Email, error) {
	var row emailRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT `+emailColumns+` FROM emails WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("email %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading email %s: %w", id, err)
	}

	email, err := row.toEmail()
	if err != nil {
		return nil, err
	}
	return &email, nil
}

// ListEmails returns emails matching the filter, newest first.
func (s *SQLStore) ListEmails(ctx context.Context, filter core.EmailFilter) ([]core.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails`
	var conds []string
	var args []interface{}

	if filter.Category != nil {
		conds = append(conds, `category = ?`)
		args = append(args, string(*filter.Category))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		conds = append(conds, `(sender LIKE ? OR subject LIKE ? OR body LIKE ?)`)
		args = append(args, like, like, like)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY timestamp DESC, id ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}

	var rows []emailRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing emails: %w", err)
	}

	emails := make([]core.Email, 0, len(rows))
	for _, r := range rows {
		email, err := r.toEmail()
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, nil
}

// UpdateCategory assigns a category to an existing email.
func (s *SQLStore) UpdateCategory(ctx context.Context, id string, category core.Category) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE emails SET category = ? WHERE id = ?`), string(category), id)
	if err != nil {
		return fmt.Errorf("updating category of %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking category update of %s: %w", id, err)
	}
	if affected == 0 {
		// MySQL reports zero affected rows for a same-value update, so a
		// miss has to be confirmed before treating it as not found.
		if _, err := s.GetEmail(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CountByCategory returns the number of stored emails per category.
func (s *SQLStore) CountByCategory(ctx context.Context) (map[core.Category]int, error) {
	var rows []struct {
		Category string `db:"category"`
		Count    int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT category, COUNT(*) AS n FROM emails GROUP BY category`); err != nil {
		return nil, fmt.Errorf("counting emails by category: %w", err)
	}

	counts := make(map[core.Category]int, len(rows))
	for _, r := range rows {
		counts[core.Category(r.Category)] = r.Count
	}
	return counts, nil
}

// ClearAll removes every stored email, action item and draft.
func (s *SQLStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting clear transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"action_items", "drafts", "emails"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing clear: %w", err)
	}

	s.logger.Info("Cleared all stored data")
	return nil
}
