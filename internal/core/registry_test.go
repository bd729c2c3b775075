package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryTemplate(t *testing.T) {
	ctx := context.Background()
	prompts := newMemPromptStore()
	registry := NewPromptRegistry(prompts, zap.NewNop())

	_, err := registry.Template(ctx, PromptCategorization)
	require.ErrorIs(t, err, ErrPromptMissing)

	require.NoError(t, registry.SetTemplate(ctx, PromptCategorization, "categorize {body}"))

	content, err := registry.Template(ctx, PromptCategorization)
	require.NoError(t, err)
	assert.Equal(t, "categorize {body}", content)

	// Edits take effect on the next read.
	require.NoError(t, registry.SetTemplate(ctx, PromptCategorization, "v2 {body}"))
	content, err = registry.Template(ctx, PromptCategorization)
	require.NoError(t, err)
	assert.Equal(t, "v2 {body}", content)
}

func TestRegistryEnsureLoaded(t *testing.T) {
	ctx := context.Background()
	defaults := map[string]string{
		PromptCategorization: "categorize {body}",
		PromptActionItem:     "extract {body}",
		PromptAutoReply:      "reply {body}",
	}

	t.Run("seeds an empty store", func(t *testing.T) {
		prompts := newMemPromptStore()
		registry := NewPromptRegistry(prompts, zap.NewNop())

		require.NoError(t, registry.EnsureLoaded(ctx, defaults))

		for name, content := range defaults {
			got, err := registry.Template(ctx, name)
			require.NoError(t, err)
			assert.Equal(t, content, got)
		}
	})

	t.Run("leaves a customized store alone", func(t *testing.T) {
		prompts := newMemPromptStore()
		registry := NewPromptRegistry(prompts, zap.NewNop())
		require.NoError(t, registry.SetTemplate(ctx, PromptCategorization, "customized"))

		require.NoError(t, registry.EnsureLoaded(ctx, defaults))

		got, err := registry.Template(ctx, PromptCategorization)
		require.NoError(t, err)
		assert.Equal(t, "customized", got)

		// The other defaults were not seeded either.
		_, err = registry.Template(ctx, PromptAutoReply)
		assert.ErrorIs(t, err, ErrPromptMissing)
	})
}

func TestRenderTemplate(t *testing.T) {
	rendered := RenderTemplate(
		"From {sender} about {subject}:\n{body}\n-- {sender}",
		"alice@example.com", "Lunch", "See you at noon.")
	assert.Equal(t, "From alice@example.com about Lunch:\nSee you at noon.\n-- alice@example.com", rendered)

	// Unknown markers stay verbatim.
	assert.Equal(t, "keep {unknown} and {Body}", RenderTemplate("keep {unknown} and {Body}", "s", "j", "b"))

	assert.Equal(t, "", RenderTemplate("", "s", "j", "b"))
}
