package loader

import (
	"encoding/json"
	"fmt"
	"os"
)

// promptSeed mirrors one entry of the default prompts file.
type promptSeed struct {
	Content     string `json:"content"`
	Description string `json:"description"`
}

// LoadDefaultPrompts reads a prompt template file: a JSON object keyed by
// prompt name, each value carrying at least a content field.
func LoadDefaultPrompts(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading prompts file: %w", err)
	}

	var seeds map[string]promptSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parsing prompts file %s: %w", path, err)
	}

	defaults := make(map[string]string, len(seeds))
	for name, seed := range seeds {
		if seed.Content == "" {
			return nil, fmt.Errorf("prompt %q has no content", name)
		}
		defaults[name] = seed.Content
	}
	return defaults, nil
}
