package rules

import (
	"strings"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

// Matcher assigns fixed categories to senders by domain, skipping the model
// call for mail the user has already triaged by policy. An empty rule set
// matches nothing.
type Matcher struct {
	categories map[string]core.Category
	logger     *zap.Logger
}

// NewMatcher creates a matcher from a domain to category-name map. Unknown
// category names are logged and skipped.
func NewMatcher(assignments map[string]string, logger *zap.Logger) *Matcher {
	categories := make(map[string]core.Category, len(assignments))
	for domain, name := range assignments {
		category, err := core.ParseKnownCategory(name)
		if err != nil {
			if logger != nil {
				logger.Warn("Ignoring sender rule with unknown category",
					zap.String("domain", domain),
					zap.String("category", name))
			}
			continue
		}
		categories[strings.ToLower(strings.TrimSpace(domain))] = category
	}

	if len(categories) > 0 && logger != nil {
		logger.Info("Initialized sender rules", zap.Int("count", len(categories)))
	}

	return &Matcher{
		categories: categories,
		logger:     logger,
	}
}

// Lookup resolves a sender address to a rule category by its domain.
func (m *Matcher) Lookup(sender string) (core.Category, bool) {
	if len(m.categories) == 0 {
		return "", false
	}

	parts := strings.Split(sender, "@")
	if len(parts) != 2 {
		return "", false
	}
	domain := strings.ToLower(parts[1])

	category, ok := m.categories[domain]
	if ok && m.logger != nil {
		m.logger.Debug("Sender rule matched",
			zap.String("domain", domain),
			zap.String("sender", sender))
	}
	return category, ok
}
