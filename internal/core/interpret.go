package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// categoryPriority is the match order for ParseCategory. A response that
// names several categories resolves to the earliest entry.
var categoryPriority = [...]Category{
	CategoryImportant,
	CategoryNewsletter,
	CategorySpam,
	CategoryToDo,
}

// ParseCategory maps a raw categorization response to a known category by
// case-insensitive substring containment. The second return is false when
// nothing matched and the fallback category is returned instead.
func ParseCategory(raw string) (Category, bool) {
	lowered := strings.ToLower(raw)
	for _, c := range categoryPriority {
		if strings.Contains(lowered, strings.ToLower(string(c))) {
			return c, true
		}
	}
	return CategoryUncategorized, false
}

type actionItemJSON struct {
	Task     string `json:"task"`
	Deadline string `json:"deadline"`
}

// ParseActionItems decodes an extraction response into task inputs. The
// response must be a JSON array of {task, deadline} objects, optionally
// wrapped in a single fenced code block whose first and last lines are the
// fence markers. A missing deadline becomes DefaultDeadline. On any decode
// failure the list is nil and the error describes the problem; the pipeline
// treats that as "no tasks found".
func ParseActionItems(raw string) ([]ActionItemInput, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		lines := strings.Split(cleaned, "\n")
		if len(lines) > 2 {
			cleaned = strings.Join(lines[1:len(lines)-1], "\n")
		}
	}

	var decoded []actionItemJSON
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return nil, fmt.Errorf("decoding action items: %w", err)
	}

	items := make([]ActionItemInput, 0, len(decoded))
	for _, d := range decoded {
		deadline := d.Deadline
		if deadline == "" {
			deadline = DefaultDeadline
		}
		items = append(items, ActionItemInput{Task: d.Task, Deadline: deadline})
	}
	return items, nil
}

// ParseReply returns the reply body: the response with surrounding whitespace
// trimmed, otherwise verbatim.
func ParseReply(raw string) string {
	return strings.TrimSpace(raw)
}
