package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// scriptedResponse is one canned generator outcome.
type scriptedResponse struct {
	text string
	err  error
}

// scriptedGenerator replays responses in order and records every call it
// receives. Running past the script is an error so tests notice unexpected
// model traffic.
type scriptedGenerator struct {
	script []scriptedResponse
	calls  []generatorCall
}

type generatorCall struct {
	prompt      string
	temperature float32
	maxTokens   int
}

func respond(texts ...string) []scriptedResponse {
	script := make([]scriptedResponse, 0, len(texts))
	for _, text := range texts {
		script = append(script, scriptedResponse{text: text})
	}
	return script
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string, temperature float32, maxTokens int) (string, error) {
	g.calls = append(g.calls, generatorCall{prompt: prompt, temperature: temperature, maxTokens: maxTokens})
	if len(g.script) == 0 {
		return "", fmt.Errorf("unscripted generator call %d", len(g.calls))
	}
	next := g.script[0]
	g.script = g.script[1:]
	return next.text, next.err
}

// memEmailStore is an in-memory EmailStore with the same ordering and
// not-found semantics as the SQL implementation.
type memEmailStore struct {
	emails map[string]Email
}

func newMemEmailStore(emails ...Email) *memEmailStore {
	s := &memEmailStore{emails: make(map[string]Email)}
	for _, email := range emails {
		if email.Category == "" {
			email.Category = CategoryUncategorized
		}
		s.emails[email.ID] = email
	}
	return s
}

func (s *memEmailStore) InsertEmail(_ context.Context, email *Email) (bool, error) {
	if _, ok := s.emails[email.ID]; ok {
		return false, nil
	}
	stored := *email
	if stored.Category == "" {
		stored.Category = CategoryUncategorized
	}
	s.emails[email.ID] = stored
	return true, nil
}

func (s *memEmailStore) GetEmail(_ context.Context, id string) (*Email, error) {
	email, ok := s.emails[id]
	if !ok {
		return nil, fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	return &email, nil
}

func (s *memEmailStore) ListEmails(_ context.Context, filter EmailFilter) ([]Email, error) {
	var list []Email
	for _, email := range s.emails {
		if filter.Category != nil && email.Category != *filter.Category {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			haystack := strings.ToLower(email.Sender + " " + email.Subject + " " + email.Body)
			if !strings.Contains(haystack, needle) {
				continue
			}
		}
		list = append(list, email)
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return list[i].ID < list[j].ID
	})
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (s *memEmailStore) UpdateCategory(_ context.Context, id string, category Category) error {
	email, ok := s.emails[id]
	if !ok {
		return fmt.Errorf("email %s: %w", id, ErrNotFound)
	}
	email.Category = category
	s.emails[id] = email
	return nil
}

func (s *memEmailStore) CountByCategory(_ context.Context) (map[Category]int, error) {
	counts := make(map[Category]int)
	for _, email := range s.emails {
		counts[email.Category]++
	}
	return counts, nil
}

// memItemStore is an in-memory ActionItemStore. insertErr, when set, fails
// every insert.
type memItemStore struct {
	nextID    int64
	items     []ActionItem
	insertErr error
}

func (s *memItemStore) InsertActionItem(_ context.Context, item *ActionItem) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	s.nextID++
	stored := *item
	stored.ID = s.nextID
	if stored.Deadline == "" {
		stored.Deadline = DefaultDeadline
	}
	if stored.Status == "" {
		stored.Status = StatusPending
	}
	s.items = append(s.items, stored)
	return stored.ID, nil
}

func (s *memItemStore) ListActionItems(_ context.Context, emailID string, status string) ([]ActionItem, error) {
	var list []ActionItem
	for i := len(s.items) - 1; i >= 0; i-- {
		item := s.items[i]
		if emailID != "" && item.EmailID != emailID {
			continue
		}
		if status != "" && item.Status != status {
			continue
		}
		list = append(list, item)
	}
	return list, nil
}

func (s *memItemStore) UpdateActionItemStatus(_ context.Context, id int64, status string) error {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("action item %d: %w", id, ErrNotFound)
}

// memPromptStore is an in-memory PromptStore.
type memPromptStore struct {
	nextID  int64
	prompts map[string]Prompt
}

func newMemPromptStore() *memPromptStore {
	return &memPromptStore{prompts: make(map[string]Prompt)}
}

func (s *memPromptStore) GetPrompt(_ context.Context, name string) (*Prompt, error) {
	prompt, ok := s.prompts[name]
	if !ok || !prompt.Active {
		return nil, fmt.Errorf("prompt %q: %w", name, ErrNotFound)
	}
	return &prompt, nil
}

func (s *memPromptStore) UpsertPrompt(_ context.Context, name, content string) error {
	prompt, ok := s.prompts[name]
	if !ok {
		s.nextID++
		prompt = Prompt{ID: s.nextID, Name: name}
	}
	prompt.Content = content
	prompt.Active = true
	s.prompts[name] = prompt
	return nil
}

func (s *memPromptStore) ListPrompts(_ context.Context) ([]Prompt, error) {
	names := make([]string, 0, len(s.prompts))
	for name := range s.prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	list := make([]Prompt, 0, len(names))
	for _, name := range names {
		list = append(list, s.prompts[name])
	}
	return list, nil
}

// stubRules maps full sender addresses to categories.
type stubRules map[string]Category

func (r stubRules) Lookup(sender string) (Category, bool) {
	category, ok := r[sender]
	return category, ok
}

// passthroughText leaves bodies untouched.
type passthroughText struct{}

func (passthroughText) ProcessText(text string) string { return text }

// markedText prefixes bodies so tests can see that processing ran before
// the prompt was rendered.
type markedText struct{ prefix string }

func (m markedText) ProcessText(text string) string { return m.prefix + text }

const testMaxTokens = 321

func seedTestPrompts(t *testing.T, prompts *memPromptStore) {
	t.Helper()
	ctx := context.Background()
	for name, content := range map[string]string{
		PromptCategorization: "Categorize mail from {sender} about {subject}:\n{body}",
		PromptActionItem:     "List tasks from {sender} about {subject}:\n{body}",
		PromptAutoReply:      "Reply to {sender} about {subject}:\n{body}",
	} {
		if err := prompts.UpsertPrompt(ctx, name, content); err != nil {
			t.Fatalf("seeding prompt %s: %v", name, err)
		}
	}
}

func newTestService(generator TextGenerator, emails *memEmailStore, items *memItemStore, prompts *memPromptStore, rules SenderRule) *PipelineService {
	registry := NewPromptRegistry(prompts, zap.NewNop())
	return NewPipelineService(generator, emails, items, registry, rules, passthroughText{}, zap.NewNop(), testMaxTokens)
}
