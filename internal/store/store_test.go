package store

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

var memSeq atomic.Int64

// newTestStore opens an isolated in-memory SQLite store with the schema
// applied and closes it when the test finishes. Each store gets its own
// named database so pooled connections share state without leaking it
// across tests.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := fmt.Sprintf("file:memtest%d?mode=memory&cache=shared&_foreign_keys=on", memSeq.Add(1))
	s, err := Open("sqlite3", dsn, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

func storedEmail(id string, ts time.Time) *core.Email {
	return &core.Email{
		ID:        id,
		Sender:    id + "@example.test",
		Subject:   "subject " + id,
		Body:      "body " + id,
		Timestamp: ts,
	}
}

func TestInsertEmailFirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := storedEmail("em-1", time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC))
	inserted, err := s.InsertEmail(ctx, original)
	require.NoError(t, err)
	assert.True(t, inserted)

	replay := storedEmail("em-1", time.Now().UTC())
	replay.Subject = "changed"
	inserted, err = s.InsertEmail(ctx, replay)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetEmail(ctx, "em-1")
	require.NoError(t, err)
	assert.Equal(t, "subject em-1", got.Subject)
	assert.Equal(t, core.CategoryUncategorized, got.Category)
	assert.True(t, got.Timestamp.Equal(time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)))
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetEmailNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEmail(context.Background(), "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorContains(t, err, "ghost")
}

func TestListEmails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)

	oldest := storedEmail("em-a", base.Add(-2*time.Hour))
	middle := storedEmail("em-b", base.Add(-time.Hour))
	newest := storedEmail("em-c", base)
	newest.Body = "the quarterly budget numbers"
	for _, email := range []*core.Email{oldest, middle, newest} {
		_, err := s.InsertEmail(ctx, email)
		require.NoError(t, err)
	}
	require.NoError(t, s.UpdateCategory(ctx, "em-b", core.CategorySpam))

	t.Run("newest first", func(t *testing.T) {
		list, err := s.ListEmails(ctx, core.EmailFilter{})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, "em-c", list[0].ID)
		assert.Equal(t, "em-b", list[1].ID)
		assert.Equal(t, "em-a", list[2].ID)
	})

	t.Run("category filter", func(t *testing.T) {
		spam := core.CategorySpam
		list, err := s.ListEmails(ctx, core.EmailFilter{Category: &spam})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "em-b", list[0].ID)
	})

	t.Run("search matches bodies", func(t *testing.T) {
		list, err := s.ListEmails(ctx, core.EmailFilter{Search: "quarterly budget"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "em-c", list[0].ID)
	})

	t.Run("search matches senders", func(t *testing.T) {
		list, err := s.ListEmails(ctx, core.EmailFilter{Search: "em-a@example"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "em-a", list[0].ID)
	})

	t.Run("search misses", func(t *testing.T) {
		list, err := s.ListEmails(ctx, core.EmailFilter{Search: "nothing matches this"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("limit", func(t *testing.T) {
		list, err := s.ListEmails(ctx, core.EmailFilter{Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "em-c", list[0].ID)
		assert.Equal(t, "em-b", list[1].ID)
	})
}

func TestUpdateCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.InsertEmail(ctx, storedEmail("em-1", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, s.UpdateCategory(ctx, "em-1", core.CategoryToDo))
	got, err := s.GetEmail(ctx, "em-1")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryToDo, got.Category)

	// Writing the same value again is not a missing row.
	require.NoError(t, s.UpdateCategory(ctx, "em-1", core.CategoryToDo))

	err = s.UpdateCategory(ctx, "ghost", core.CategorySpam)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestCountByCategory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"em-1", "em-2", "em-3"} {
		_, err := s.InsertEmail(ctx, storedEmail(id, time.Now().UTC()))
		require.NoError(t, err)
	}
	require.NoError(t, s.UpdateCategory(ctx, "em-1", core.CategoryImportant))
	require.NoError(t, s.UpdateCategory(ctx, "em-2", core.CategoryImportant))

	counts, err := s.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[core.CategoryImportant])
	assert.Equal(t, 1, counts[core.CategoryUncategorized])
	assert.Zero(t, counts[core.CategorySpam])
}

func TestActionItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.InsertEmail(ctx, storedEmail("em-1", time.Now().UTC()))
	require.NoError(t, err)

	first, err := s.InsertActionItem(ctx, &core.ActionItem{EmailID: "em-1", Task: "send the report"})
	require.NoError(t, err)
	second, err := s.InsertActionItem(ctx, &core.ActionItem{EmailID: "em-1", Task: "book flights", Deadline: "Friday"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	list, err := s.ListActionItems(ctx, "em-1", "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "book flights", list[0].Task)
	assert.Equal(t, "Friday", list[0].Deadline)
	assert.Equal(t, "send the report", list[1].Task)
	assert.Equal(t, core.DefaultDeadline, list[1].Deadline)
	assert.Equal(t, core.StatusPending, list[1].Status)
	assert.False(t, list[1].CreatedAt.IsZero())

	// Extraction is append-only, so identical tasks coexist.
	_, err = s.InsertActionItem(ctx, &core.ActionItem{EmailID: "em-1", Task: "send the report"})
	require.NoError(t, err)
	list, err = s.ListActionItems(ctx, "em-1", "")
	require.NoError(t, err)
	assert.Len(t, list, 3)

	require.NoError(t, s.UpdateActionItemStatus(ctx, first, core.StatusCompleted))
	pending, err := s.ListActionItems(ctx, "", core.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	completed, err := s.ListActionItems(ctx, "", core.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, first, completed[0].ID)

	err = s.UpdateActionItemStatus(ctx, 9999, core.StatusCompleted)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestActionItemRequiresEmail(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertActionItem(context.Background(), &core.ActionItem{EmailID: "ghost", Task: "orphan"})
	require.Error(t, err)
}

func TestPrompts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetPrompt(ctx, "categorization")
	require.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.UpsertPrompt(ctx, "categorization", "v1 {body}"))
	p, err := s.GetPrompt(ctx, "categorization")
	require.NoError(t, err)
	assert.Equal(t, "v1 {body}", p.Content)
	assert.True(t, p.Active)
	firstID := p.ID

	// Upsert replaces content in place instead of adding a row.
	require.NoError(t, s.UpsertPrompt(ctx, "categorization", "v2 {body}"))
	p, err = s.GetPrompt(ctx, "categorization")
	require.NoError(t, err)
	assert.Equal(t, "v2 {body}", p.Content)
	assert.Equal(t, firstID, p.ID)

	require.NoError(t, s.UpsertPrompt(ctx, "auto_reply", "reply {body}"))
	list, err := s.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "auto_reply", list[0].Name)
	assert.Equal(t, "categorization", list[1].Name)
}

func TestDrafts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.InsertEmail(ctx, storedEmail("em-1", time.Now().UTC()))
	require.NoError(t, err)

	emailID := "em-1"
	metadata := `{"tone":"friendly"}`
	linked, err := s.InsertDraft(ctx, &core.Draft{
		EmailID:  &emailID,
		Subject:  "Re: subject em-1",
		Body:     "Thanks, will do.",
		Metadata: &metadata,
	})
	require.NoError(t, err)

	got, err := s.GetDraft(ctx, linked)
	require.NoError(t, err)
	require.NotNil(t, got.EmailID)
	assert.Equal(t, "em-1", *got.EmailID)
	require.NotNil(t, got.Metadata)
	assert.Equal(t, metadata, *got.Metadata)
	assert.Equal(t, "Re: subject em-1", got.Subject)
	assert.False(t, got.CreatedAt.IsZero())

	// Drafts can exist without an email reference.
	standalone, err := s.InsertDraft(ctx, &core.Draft{Subject: "standalone", Body: "note to self"})
	require.NoError(t, err)
	free, err := s.GetDraft(ctx, standalone)
	require.NoError(t, err)
	assert.Nil(t, free.EmailID)
	assert.Nil(t, free.Metadata)

	list, err := s.ListDrafts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, standalone, list[0].ID)

	require.NoError(t, s.UpdateDraft(ctx, linked, "Re: updated", "New body."))
	got, err = s.GetDraft(ctx, linked)
	require.NoError(t, err)
	assert.Equal(t, "Re: updated", got.Subject)
	assert.Equal(t, "New body.", got.Body)

	require.ErrorIs(t, s.UpdateDraft(ctx, 9999, "s", "b"), core.ErrNotFound)

	require.NoError(t, s.DeleteDraft(ctx, linked))
	_, err = s.GetDraft(ctx, linked)
	require.ErrorIs(t, err, core.ErrNotFound)
	require.ErrorIs(t, s.DeleteDraft(ctx, linked), core.ErrNotFound)
}

func TestDraftKeepsWeakEmailReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.InsertEmail(ctx, storedEmail("em-1", time.Now().UTC()))
	require.NoError(t, err)

	emailID := "em-1"
	id, err := s.InsertDraft(ctx, &core.Draft{EmailID: &emailID, Subject: "s", Body: "b"})
	require.NoError(t, err)

	// Deleting the email nulls the reference instead of cascading.
	_, err = s.db.ExecContext(ctx, "DELETE FROM emails WHERE id = 'em-1'")
	require.NoError(t, err)

	got, err := s.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got.EmailID)
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.InsertEmail(ctx, storedEmail("em-1", time.Now().UTC()))
	require.NoError(t, err)
	_, err = s.InsertActionItem(ctx, &core.ActionItem{EmailID: "em-1", Task: "task"})
	require.NoError(t, err)
	_, err = s.InsertDraft(ctx, &core.Draft{Subject: "s", Body: "b"})
	require.NoError(t, err)
	require.NoError(t, s.UpsertPrompt(ctx, "categorization", "keep me"))

	require.NoError(t, s.ClearAll(ctx))

	emails, err := s.ListEmails(ctx, core.EmailFilter{})
	require.NoError(t, err)
	assert.Empty(t, emails)
	items, err := s.ListActionItems(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, items)
	drafts, err := s.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Empty(t, drafts)

	// Prompt templates survive a reset.
	p, err := s.GetPrompt(ctx, "categorization")
	require.NoError(t, err)
	assert.Equal(t, "keep me", p.Content)
}
