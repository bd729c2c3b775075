package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/mikey/inbox-agent/internal/core"
)

type actionItemRow struct {
	ID        int64  `db:"id"`
	EmailID   string `db:"email_id"`
	Task      string `db:"task"`
	Deadline  string `db:"deadline"`
	Status    string `db:"status"`
	CreatedAt string `db:"created_at"`
}

func (r actionItemRow) toActionItem() (core.ActionItem, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.ActionItem{}, err
	}
	return core.ActionItem{
		ID:        r.ID,
		EmailID:   r.EmailID,
		Task:      r.Task,
		Deadline:  r.Deadline,
		Status:    r.Status,
		CreatedAt: created,
	}, nil
}

// InsertActionItem appends a task and returns its generated ID. Extraction
// is append-only: reprocessing an email adds new rows next to the old ones.
func (s *SQLStore) InsertActionItem(ctx context.Context, item *core.ActionItem) (int64, error) {
	deadline := item.Deadline
	if deadline == "" {
		deadline = core.DefaultDeadline
	}
	status := item.Status
	if status == "" {
		status = core.StatusPending
	}
	created := item.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}

	id, err := s.insertReturningID(
		`INSERT INTO action_items (email_id, task, deadline, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		item.EmailID, item.Task, deadline, status, formatTime(created))
	if err != nil {
		return 0, fmt.Errorf("inserting action item for %s: %w", item.EmailID, err)
	}
	return id, nil
}

// ListActionItems returns tasks, newest first. Empty emailID or status means
// no filtering on that field.
func (s *SQLStore) ListActionItems(ctx context.Context, emailID string, status string) ([]core.ActionItem, error) {
	query := `SELECT id, email_id, task, deadline, status, created_at FROM action_items`
	var conds []string
	var args []interface{}

	if emailID != "" {
		conds = append(conds, `email_id = ?`)
		args = append(args, emailID)
	}
	if status != "" {
		conds = append(conds, `status = ?`)
		args = append(args, status)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	var rows []actionItemRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing action items: %w", err)
	}

	items := make([]core.ActionItem, 0, len(rows))
	for _, r := range rows {
		item, err := r.toActionItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// UpdateActionItemStatus marks a task pending or completed.
func (s *SQLStore) UpdateActionItemStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind(`UPDATE action_items SET status = ? WHERE id = ?`), status, id)
	if err != nil {
		return fmt.Errorf("updating action item %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of action item %d: %w", id, err)
	}
	if affected == 0 {
		// Same-value updates report zero rows on MySQL, so confirm the miss.
		var exists int
		if err := s.db.GetContext(ctx, &exists,
			s.db.Rebind(`SELECT COUNT(*) FROM action_items WHERE id = ?`), id); err != nil {
			return fmt.Errorf("checking action item %d: %w", id, err)
		}
		if exists == 0 {
			return fmt.Errorf("action item %d: %w", id, core.ErrNotFound)
		}
	}
	return nil
}
