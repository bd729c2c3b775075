package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// GenerateDraft produces reply material for an email. The email and the
// auto_reply template are resolved before any model call; either one missing
// fails fast without touching the provider. A tone other than DefaultTone is
// appended to the prompt as a directive. The draft is returned, never stored.
func (s *PipelineService) GenerateDraft(ctx context.Context, emailID, tone string) (*DraftContent, error) {
	email, err := s.emails.GetEmail(ctx, emailID)
	if err != nil {
		return nil, err
	}
	template, err := s.registry.Template(ctx, PromptAutoReply)
	if err != nil {
		return nil, err
	}

	prompt := RenderTemplate(template, email.Sender, email.Subject, s.text.ProcessText(email.Body))
	if tone != "" && tone != DefaultTone {
		prompt += "\n\nTone: " + tone
	}

	raw, err := s.generator.Generate(ctx, prompt, TemperatureReply, s.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("drafting reply for %s: %w", emailID, err)
	}

	s.logger.Info("Draft generated",
		zap.String("email_id", email.ID),
		zap.String("tone", toneOrDefault(tone)))
	return &DraftContent{
		EmailID: email.ID,
		Subject: "Re: " + email.Subject,
		Body:    ParseReply(raw),
	}, nil
}

// Answer responds to a free-form question about the inbox. With an emailID
// the context is that email; otherwise it is an inbox summary built from the
// store. Uses the conversational temperature.
func (s *PipelineService) Answer(ctx context.Context, question, emailID string) (string, error) {
	contextText, err := s.assistantContext(ctx, emailID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"You are a helpful email assistant. Answer the question using only the context below.\n\nContext:\n%s\n\nQuestion: %s",
		contextText, question)

	raw, err := s.generator.Generate(ctx, prompt, TemperatureReply, s.maxTokens)
	if err != nil {
		return "", fmt.Errorf("answering inbox question: %w", err)
	}
	return ParseReply(raw), nil
}

func (s *PipelineService) assistantContext(ctx context.Context, emailID string) (string, error) {
	if emailID != "" {
		email, err := s.emails.GetEmail(ctx, emailID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Email from %s\nSubject: %s\nCategory: %s\nBody:\n%s",
			email.Sender, email.Subject, email.Category, s.text.ProcessText(email.Body)), nil
	}

	counts, err := s.emails.CountByCategory(ctx)
	if err != nil {
		return "", fmt.Errorf("summarizing inbox: %w", err)
	}
	recent, err := s.emails.ListEmails(ctx, EmailFilter{Limit: 5})
	if err != nil {
		return "", fmt.Errorf("listing recent emails: %w", err)
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Inbox contains %d emails.\n", total)
	for _, c := range KnownCategories() {
		if n := counts[c]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", c, n)
		}
	}
	if len(recent) > 0 {
		b.WriteString("Most recent:\n")
		for _, e := range recent {
			fmt.Fprintf(&b, "- %q from %s\n", e.Subject, e.Sender)
		}
	}
	return b.String(), nil
}

func toneOrDefault(tone string) string {
	if tone == "" {
		return DefaultTone
	}
	return tone
}
