package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

func TestMatcherLookup(t *testing.T) {
	m := NewMatcher(map[string]string{
		"GitHub.test":   "Important",
		"substack.test": "newsletter",
		"bogus.test":    "NotACategory",
	}, zap.NewNop())

	category, ok := m.Lookup("ci@github.test")
	assert.True(t, ok)
	assert.Equal(t, core.CategoryImportant, category)

	// Domain comparison ignores case, and category names are canonical.
	category, ok = m.Lookup("Digest@Substack.TEST")
	assert.True(t, ok)
	assert.Equal(t, core.CategoryNewsletter, category)

	// An assignment with an unknown category is dropped at construction.
	_, ok = m.Lookup("x@bogus.test")
	assert.False(t, ok)

	_, ok = m.Lookup("someone@elsewhere.test")
	assert.False(t, ok)
}

func TestMatcherLookupRejectsNonAddresses(t *testing.T) {
	m := NewMatcher(map[string]string{"github.test": "Important"}, zap.NewNop())

	_, ok := m.Lookup("not-an-address")
	assert.False(t, ok)

	_, ok = m.Lookup("two@ats@github.test")
	assert.False(t, ok)

	_, ok = m.Lookup("")
	assert.False(t, ok)
}

func TestMatcherEmptyRules(t *testing.T) {
	m := NewMatcher(nil, zap.NewNop())

	_, ok := m.Lookup("anyone@anywhere.test")
	assert.False(t, ok)
}
