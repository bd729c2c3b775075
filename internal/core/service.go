package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Temperatures are fixed per pipeline step; maxTokens comes from config.
const (
	TemperatureCategorize float32 = 0.3
	TemperatureExtract    float32 = 0.2
	TemperatureReply      float32 = 0.7
)

// DefaultTone is the reply tone that adds no directive to the prompt.
const DefaultTone = "professional"

// PipelineService runs the email processing pipeline: categorization,
// action-item extraction for To-Do emails, reply drafting and inbox Q&A.
type PipelineService struct {
	generator TextGenerator
	emails    EmailStore
	items     ActionItemStore
	registry  *PromptRegistry
	rules     SenderRule
	text      BodyProcessor
	logger    *zap.Logger
	maxTokens int
}

// NewPipelineService creates a new pipeline service.
func NewPipelineService(
	generator TextGenerator,
	emails EmailStore,
	items ActionItemStore,
	registry *PromptRegistry,
	rules SenderRule,
	text BodyProcessor,
	logger *zap.Logger,
	maxTokens int,
) *PipelineService {
	return &PipelineService{
		generator: generator,
		emails:    emails,
		items:     items,
		registry:  registry,
		rules:     rules,
		text:      text,
		logger:    logger,
		maxTokens: maxTokens,
	}
}

// ProcessInbox runs the pipeline over every Uncategorized email, newest
// first. Both processing templates must exist before any work starts. One
// email's failure is recorded and the run continues; context cancellation
// stops between emails and keeps the mutations already committed.
func (s *PipelineService) ProcessInbox(ctx context.Context, progress ProgressFunc) (*BatchResult, error) {
	if _, err := s.registry.Template(ctx, PromptCategorization); err != nil {
		return nil, err
	}
	if _, err := s.registry.Template(ctx, PromptActionItem); err != nil {
		return nil, err
	}

	pending := CategoryUncategorized
	emails, err := s.emails.ListEmails(ctx, EmailFilter{Category: &pending})
	if err != nil {
		return nil, fmt.Errorf("listing uncategorized emails: %w", err)
	}

	result := &BatchResult{RunID: uuid.NewString(), Total: len(emails)}
	s.logger.Info("Processing inbox",
		zap.String("run_id", result.RunID),
		zap.Int("total", result.Total))

	for i := range emails {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Inbox processing cancelled",
				zap.String("run_id", result.RunID),
				zap.Int("processed", result.Processed),
				zap.Int("total", result.Total))
			return result, err
		}

		email := &emails[i]
		if progress != nil {
			progress(result.Processed, result.Total, "Processing: "+truncateLabel(email.Subject, 50))
		}
		if _, err := s.processOne(ctx, email); err != nil {
			s.logger.Error("Email processing failed",
				zap.String("run_id", result.RunID),
				zap.String("email_id", email.ID),
				zap.Error(err))
			result.Errors = append(result.Errors, ItemError{EmailID: email.ID, Err: err})
		}
		result.Processed++
	}

	if progress != nil {
		progress(result.Processed, result.Total, "Complete")
	}
	s.logger.Info("Inbox processing finished",
		zap.String("run_id", result.RunID),
		zap.Int("processed", result.Processed),
		zap.Int("failed", len(result.Errors)))
	return result, nil
}

// ProcessEmail runs the pipeline for a single email, regardless of its
// current category. Reprocessing a To-Do email appends its tasks again.
func (s *PipelineService) ProcessEmail(ctx context.Context, id string) (*EmailResult, error) {
	email, err := s.emails.GetEmail(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.processOne(ctx, email)
}

// processOne categorizes one email and, for To-Do, extracts its tasks. The
// category update is committed before extraction, so an extraction failure
// surfaces as the item error while the category sticks.
func (s *PipelineService) processOne(ctx context.Context, email *Email) (*EmailResult, error) {
	category, matched, err := s.categorize(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := s.emails.UpdateCategory(ctx, email.ID, category); err != nil {
		return nil, fmt.Errorf("storing category for %s: %w", email.ID, err)
	}

	result := &EmailResult{EmailID: email.ID, Category: category, Matched: matched}
	s.logger.Info("Email categorized",
		zap.String("email_id", email.ID),
		zap.String("category", string(category)))

	if category == CategoryToDo {
		stored, err := s.extractActionItems(ctx, email)
		result.ActionItems = stored
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *PipelineService) categorize(ctx context.Context, email *Email) (Category, bool, error) {
	if s.rules != nil {
		if category, ok := s.rules.Lookup(email.Sender); ok {
			s.logger.Info("Sender rule applied",
				zap.String("email_id", email.ID),
				zap.String("sender", email.Sender),
				zap.String("category", string(category)),
				zap.String("action", "rule_bypass"))
			return category, true, nil
		}
	}

	template, err := s.registry.Template(ctx, PromptCategorization)
	if err != nil {
		return "", false, err
	}
	prompt := RenderTemplate(template, email.Sender, email.Subject, s.text.ProcessText(email.Body))

	raw, err := s.generator.Generate(ctx, prompt, TemperatureCategorize, s.maxTokens)
	if err != nil {
		return "", false, fmt.Errorf("categorizing email %s: %w", email.ID, err)
	}

	category, matched := ParseCategory(raw)
	if !matched {
		s.logger.Warn("Unrecognized categorization response",
			zap.String("email_id", email.ID),
			zap.String("response", raw))
	}
	return category, matched, nil
}

// extractActionItems asks the model for tasks and appends every parsed entry.
// An unparseable response is logged and treated as zero tasks.
func (s *PipelineService) extractActionItems(ctx context.Context, email *Email) (int, error) {
	template, err := s.registry.Template(ctx, PromptActionItem)
	if err != nil {
		return 0, err
	}
	prompt := RenderTemplate(template, email.Sender, email.Subject, s.text.ProcessText(email.Body))

	raw, err := s.generator.Generate(ctx, prompt, TemperatureExtract, s.maxTokens)
	if err != nil {
		return 0, fmt.Errorf("extracting action items for %s: %w", email.ID, err)
	}

	inputs, err := ParseActionItems(raw)
	if err != nil {
		s.logger.Warn("Unparseable action item response",
			zap.String("email_id", email.ID),
			zap.String("response", raw),
			zap.Error(err))
		return 0, nil
	}

	stored := 0
	for _, input := range inputs {
		item := &ActionItem{
			EmailID:  email.ID,
			Task:     input.Task,
			Deadline: input.Deadline,
			Status:   StatusPending,
		}
		if _, err := s.items.InsertActionItem(ctx, item); err != nil {
			return stored, fmt.Errorf("storing action item for %s: %w", email.ID, err)
		}
		stored++
	}
	if stored > 0 {
		s.logger.Info("Action items extracted",
			zap.String("email_id", email.ID),
			zap.Int("count", stored))
	}
	return stored, nil
}

func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
