package core

import (
	"fmt"
	"strings"
	"time"
)

// Category is the triage bucket an email lands in after processing.
type Category string

const (
	CategoryImportant     Category = "Important"
	CategoryNewsletter    Category = "Newsletter"
	CategorySpam          Category = "Spam"
	CategoryToDo          Category = "To-Do"
	CategoryUncategorized Category = "Uncategorized"
)

// KnownCategories returns every category the pipeline can assign, in display order.
func KnownCategories() []Category {
	return []Category{
		CategoryImportant,
		CategoryNewsletter,
		CategorySpam,
		CategoryToDo,
		CategoryUncategorized,
	}
}

// ParseKnownCategory validates a user-supplied category name.
func ParseKnownCategory(s string) (Category, error) {
	for _, c := range KnownCategories() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Email represents a stored email message. RawData preserves the source
// payload verbatim so the message can be reprocessed later.
type Email struct {
	ID        string
	Sender    string
	Subject   string
	Body      string
	Timestamp time.Time
	Category  Category
	RawData   string
	CreatedAt time.Time
}

// Action item status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// DefaultDeadline is stored when the model omits a deadline for a task.
const DefaultDeadline = "Not specified"

// ActionItem is a task extracted from a To-Do email.
type ActionItem struct {
	ID        int64
	EmailID   string
	Task      string
	Deadline  string
	Status    string
	CreatedAt time.Time
}

// ActionItemInput is one parsed entry from an extraction response.
type ActionItemInput struct {
	Task     string
	Deadline string
}

// Names of the prompt templates the pipeline depends on.
const (
	PromptCategorization = "categorization"
	PromptActionItem     = "action_item"
	PromptAutoReply      = "auto_reply"
)

// Prompt is a stored, named prompt template.
type Prompt struct {
	ID        int64
	Name      string
	Content   string
	Active    bool
	CreatedAt time.Time
}

// Draft is a persisted reply draft. EmailID is a weak reference: removing the
// email nulls it rather than deleting the draft.
type Draft struct {
	ID        int64
	EmailID   *string
	Subject   string
	Body      string
	Metadata  *string
	CreatedAt time.Time
}

// DraftContent is generated reply material. Nothing is persisted; callers
// decide whether to save it as a Draft.
type DraftContent struct {
	EmailID string
	Subject string
	Body    string
}

// EmailFilter narrows ListEmails. The zero value selects everything.
type EmailFilter struct {
	Category *Category
	Search   string
	Limit    int
}

// EmailResult reports the outcome of processing a single email.
type EmailResult struct {
	EmailID     string
	Category    Category
	Matched     bool
	ActionItems int
}

// ItemError records one email's failure inside a batch run.
type ItemError struct {
	EmailID string
	Err     error
}

// BatchResult summarizes one inbox processing run.
type BatchResult struct {
	RunID     string
	Processed int
	Total     int
	Errors    []ItemError
}
