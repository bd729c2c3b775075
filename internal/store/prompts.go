package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mikey/inbox-agent/internal/core"
)

type promptRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	Content   string `db:"content"`
	IsActive  int    `db:"is_active"`
	CreatedAt string `db:"created_at"`
}

func (r promptRow) toPrompt() (core.Prompt, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Prompt{}, err
	}
	return core.Prompt{
		ID:        r.ID,
		Name:      r.Name,
		Content:   r.Content,
		Active:    r.IsActive != 0,
		CreatedAt: created,
	}, nil
}

// GetPrompt returns the active prompt with the given name or ErrNotFound.
func (s *SQLStore) GetPrompt(ctx context.Context, name string) (*core.Prompt, error) {
	var row promptRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind(`SELECT id, name, content, is_active, created_at FROM prompts WHERE name = ? AND is_active = 1`),
		name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("prompt %q: %w", name, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading prompt %q: %w", name, err)
	}

	prompt, err := row.toPrompt()
	if err != nil {
		return nil, err
	}
	return &prompt, nil
}

// UpsertPrompt stores content under name, replacing any previous version and
// reactivating it.
func (s *SQLStore) UpsertPrompt(ctx context.Context, name, content string) error {
	var query string
	switch s.dialect {
	case dialectMySQL:
		query = `INSERT INTO prompts (name, content, is_active, created_at) VALUES (?, ?, 1, ?)
			ON DUPLICATE KEY UPDATE content = VALUES(content), is_active = 1`
	default:
		query = `INSERT INTO prompts (name, content, is_active, created_at) VALUES (?, ?, 1, ?)
			ON CONFLICT (name) DO UPDATE SET content = excluded.content, is_active = 1`
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), name, content, formatTime(nowUTC())); err != nil {
		return fmt.Errorf("upserting prompt %q: %w", name, err)
	}
	return nil
}

// ListPrompts returns all prompts ordered by name.
func (s *SQLStore) ListPrompts(ctx context.Context) ([]core.Prompt, error) {
	var rows []promptRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, content, is_active, created_at FROM prompts ORDER BY name`); err != nil {
		return nil, fmt.Errorf("listing prompts: %w", err)
	}

	prompts := make([]core.Prompt, 0, len(rows))
	for _, r := range rows {
		prompt, err := r.toPrompt()
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, prompt)
	}
	return prompts, nil
}
