package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PromptRegistry hands out prompt templates backed by the prompt store. Reads
// go to the store every time so edits take effect on the next use, including
// mid-batch.
type PromptRegistry struct {
	prompts PromptStore
	logger  *zap.Logger
}

// NewPromptRegistry creates a new prompt registry.
func NewPromptRegistry(prompts PromptStore, logger *zap.Logger) *PromptRegistry {
	return &PromptRegistry{
		prompts: prompts,
		logger:  logger,
	}
}

// Template returns the active content stored under name. A missing prompt is
// reported as ErrPromptMissing.
func (r *PromptRegistry) Template(ctx context.Context, name string) (string, error) {
	p, err := r.prompts.GetPrompt(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%w: %s", ErrPromptMissing, name)
		}
		return "", fmt.Errorf("loading prompt %q: %w", name, err)
	}
	return p.Content, nil
}

// SetTemplate stores content under name, replacing any previous version.
func (r *PromptRegistry) SetTemplate(ctx context.Context, name, content string) error {
	if err := r.prompts.UpsertPrompt(ctx, name, content); err != nil {
		return fmt.Errorf("saving prompt %q: %w", name, err)
	}
	r.logger.Info("Prompt template updated", zap.String("name", name))
	return nil
}

// EnsureLoaded seeds the defaults when the store holds no prompts at all. A
// store with any prompt, even a single customized one, is left untouched.
func (r *PromptRegistry) EnsureLoaded(ctx context.Context, defaults map[string]string) error {
	existing, err := r.prompts.ListPrompts(ctx)
	if err != nil {
		return fmt.Errorf("listing prompts: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for name, content := range defaults {
		if err := r.prompts.UpsertPrompt(ctx, name, content); err != nil {
			return fmt.Errorf("seeding prompt %q: %w", name, err)
		}
	}
	r.logger.Info("Seeded default prompt templates", zap.Int("count", len(defaults)))
	return nil
}

// RenderTemplate substitutes email fields into a template. Only the literal
// markers {sender}, {subject} and {body} are replaced; any other brace
// sequence stays verbatim.
func RenderTemplate(template, sender, subject, body string) string {
	return strings.NewReplacer(
		"{sender}", sender,
		"{subject}", subject,
		"{body}", body,
	).Replace(template)
}
