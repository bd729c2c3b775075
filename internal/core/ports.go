package core

import (
	"context"
)

// TextGenerator produces completion text for a prompt. Implementations wrap a
// single hosted model; temperature and maxTokens apply to the one call.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float32, maxTokens int) (string, error)
}

// EmailStore persists emails and their categories.
type EmailStore interface {
	// InsertEmail stores an email unless its ID already exists. It reports
	// whether a row was inserted; existing rows are never modified.
	InsertEmail(ctx context.Context, email *Email) (bool, error)

	// GetEmail returns the email with the given ID or ErrNotFound.
	GetEmail(ctx context.Context, id string) (*Email, error)

	// ListEmails returns emails matching the filter, newest first.
	ListEmails(ctx context.Context, filter EmailFilter) ([]Email, error)

	// UpdateCategory assigns a category to an existing email.
	UpdateCategory(ctx context.Context, id string, category Category) error

	// CountByCategory returns the number of stored emails per category.
	CountByCategory(ctx context.Context) (map[Category]int, error)
}

// ActionItemStore persists tasks extracted from emails.
type ActionItemStore interface {
	// InsertActionItem appends a task and returns its generated ID.
	InsertActionItem(ctx context.Context, item *ActionItem) (int64, error)

	// ListActionItems returns tasks, newest first. Empty emailID or status
	// means no filtering on that field.
	ListActionItems(ctx context.Context, emailID string, status string) ([]ActionItem, error)

	// UpdateActionItemStatus marks a task pending or completed.
	UpdateActionItemStatus(ctx context.Context, id int64, status string) error
}

// PromptStore persists named prompt templates.
type PromptStore interface {
	// GetPrompt returns the active prompt with the given name or ErrNotFound.
	GetPrompt(ctx context.Context, name string) (*Prompt, error)

	// UpsertPrompt stores content under name, replacing any previous version.
	UpsertPrompt(ctx context.Context, name, content string) error

	// ListPrompts returns all prompts.
	ListPrompts(ctx context.Context) ([]Prompt, error)
}

// DraftStore persists reply drafts.
type DraftStore interface {
	InsertDraft(ctx context.Context, draft *Draft) (int64, error)
	GetDraft(ctx context.Context, id int64) (*Draft, error)
	ListDrafts(ctx context.Context) ([]Draft, error)
	UpdateDraft(ctx context.Context, id int64, subject, body string) error
	DeleteDraft(ctx context.Context, id int64) error
}

// BodyProcessor prepares raw email bodies before they enter a prompt.
type BodyProcessor interface {
	ProcessText(text string) string
}

// SenderRule resolves a sender to a fixed category ahead of the model call.
// Implementations return false to let the model decide.
type SenderRule interface {
	Lookup(sender string) (Category, bool)
}

// ProgressFunc receives advisory progress during a batch run.
type ProgressFunc func(processed, total int, label string)
