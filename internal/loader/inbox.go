package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/core"
)

// emailRecord mirrors one entry of a JSON inbox file.
type emailRecord struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
	Category  string `json:"category"`
}

// ImportResult reports an inbox import.
type ImportResult struct {
	Loaded  int
	Skipped int
	Total   int
}

// ImportInbox loads a JSON inbox file into the store. Each record's original
// JSON is preserved verbatim as the email's raw payload. Existing IDs are
// left untouched, so re-importing the same file is safe.
func ImportInbox(ctx context.Context, emails core.EmailStore, path string, logger *zap.Logger) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inbox file: %w", err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing inbox file %s: %w", path, err)
	}

	result := &ImportResult{Total: len(records)}
	for i, raw := range records {
		var record emailRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return result, fmt.Errorf("parsing inbox record %d: %w", i, err)
		}
		if record.ID == "" {
			return result, fmt.Errorf("inbox record %d has no id", i)
		}

		email := &core.Email{
			ID:        record.ID,
			Sender:    record.Sender,
			Subject:   record.Subject,
			Body:      record.Body,
			Timestamp: parseRecordTime(record.Timestamp),
			Category:  core.Category(record.Category),
			RawData:   string(raw),
		}
		inserted, err := emails.InsertEmail(ctx, email)
		if err != nil {
			return result, err
		}
		if inserted {
			result.Loaded++
		} else {
			result.Skipped++
		}
	}

	logger.Info("Inbox imported",
		zap.String("path", path),
		zap.Int("loaded", result.Loaded),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func parseRecordTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
