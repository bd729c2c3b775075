package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mikey/inbox-agent/internal/core"
)

type draftRow struct {
	ID        int64          `db:"id"`
	EmailID   sql.NullString `db:"email_id"`
	Subject   string         `db:"subject"`
	Body      string         `db:"body"`
	Metadata  sql.NullString `db:"metadata"`
	CreatedAt string         `db:"created_at"`
}

func (r draftRow) toDraft() (core.Draft, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Draft{}, err
	}
	draft := core.Draft{
		ID:        r.ID,
		Subject:   r.Subject,
		Body:      r.Body,
		CreatedAt: created,
	}
	if r.EmailID.Valid {
		emailID := r.EmailID.String
		draft.EmailID = &emailID
	}
	if r.Metadata.Valid {
		metadata := r.Metadata.String
		draft.Metadata = &metadata
	}
	return draft, nil
}

// InsertDraft stores a draft and returns its generated ID.
func (s *SQLStore) InsertDraft(ctx context.Context, draft *core.Draft) (int64, error) {
	created := draft.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}

	id, err := s.insertReturningID(
		`INSERT INTO drafts (email_id, subject, body, metadata, created_at) VALUES (?, ?, ?, ?, ?)`,
		draft.EmailID, draft.Subject, draft.Body, draft.Metadata, formatTime(created))
	if err != nil {
		return 0, fmt.Errorf("inserting draft: %w", err)
	}
	return id, nil
}

// GetDraft returns the draft with the given ID or ErrNotFound.
func (s *SQLStore) GetDraft(ctx context.Context, id int64) (*core.Draft, error) {
	var row draftRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT id, email_id, subject, body, metadata, created_at FROM drafts WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading draft %d: %w", id, err)
	}

	draft, err := row.toDraft()
	if err != nil {
		return nil, err
	}
	return &draft, nil
}

// ListDrafts returns all drafts, newest first.
func (s *SQLStore) ListDrafts(ctx context.Context) ([]core.Draft, error) {
	var rows []draftRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, email_id, subject, body, metadata, created_at FROM drafts ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}

	drafts := make([]core.Draft, 0, len(rows))
	for _, r := range rows {
		draft, err := r.toDraft()
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// UpdateDraft replaces a draft's subject and body.
func (s *SQLStore) UpdateDraft(ctx context.Context, id int64, subject, body string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE drafts SET subject = ?, body = ? WHERE id = ?`), subject, body, id)
	if err != nil {
		return fmt.Errorf("updating draft %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of draft %d: %w", id, err)
	}
	if affected == 0 {
		// Same-value updates report zero rows on MySQL, so confirm the miss.
		var exists int
		if err := s.db.GetContext(ctx, &exists,
			s.db.Rebind(`SELECT COUNT(*) FROM drafts WHERE id = ?`), id); err != nil {
			return fmt.Errorf("checking draft %d: %w", id, err)
		}
		if exists == 0 {
			return fmt.Errorf("draft %d: %w", id, core.ErrNotFound)
		}
	}
	return nil
}

// DeleteDraft removes a draft.
func (s *SQLStore) DeleteDraft(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM drafts WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("deleting draft %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of draft %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("draft %d: %w", id, core.ErrNotFound)
	}
	return nil
}
