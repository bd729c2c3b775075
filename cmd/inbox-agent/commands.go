package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
	"github.com/mikey/inbox-agent/internal/intake"
	"github.com/mikey/inbox-agent/internal/loader"
	"github.com/mikey/inbox-agent/internal/store"
)

func cmdImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "Inbox JSON file (defaults to data.inbox_path)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(cfg *config.Config, logger *zap.Logger, emails core.EmailStore) error {
		path := *file
		if path == "" {
			path = cfg.GetData().InboxPath
		}
		result, err := loader.ImportInbox(context.Background(), emails, path, logger)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d of %d emails (%d already present)\n",
			result.Loaded, result.Total, result.Skipped)
		return nil
	})
}

func cmdSeedPrompts(args []string) error {
	fs := flag.NewFlagSet("seed-prompts", flag.ExitOnError)
	file := fs.String("file", "", "Prompts JSON file (defaults to data.prompts_path)")
	force := fs.Bool("force", false, "Overwrite prompts that already exist")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(cfg *config.Config, registry *core.PromptRegistry) error {
		path := *file
		if path == "" {
			path = cfg.GetData().PromptsPath
		}
		defaults, err := loader.LoadDefaultPrompts(path)
		if err != nil {
			return err
		}

		ctx := context.Background()
		if *force {
			for name, content := range defaults {
				if err := registry.SetTemplate(ctx, name, content); err != nil {
					return err
				}
			}
			fmt.Printf("Stored %d prompt templates\n", len(defaults))
			return nil
		}
		if err := registry.EnsureLoaded(ctx, defaults); err != nil {
			return err
		}
		fmt.Println("Prompt templates ready (use -force to overwrite existing ones)")
		return nil
	})
}

func cmdProcess(args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	emailID := fs.String("email", "", "Process a single email by ID instead of the whole inbox")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(svc *core.PipelineService) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if *emailID != "" {
			result, err := svc.ProcessEmail(ctx, *emailID)
			if err != nil {
				return err
			}
			printEmailResult(result)
			return nil
		}

		result, err := svc.ProcessInbox(ctx, func(processed, total int, label string) {
			fmt.Printf("[%d/%d] %s\n", processed, total, label)
		})
		if result == nil {
			return err
		}

		fmt.Printf("\nRun %s: processed %d of %d emails\n", result.RunID, result.Processed, result.Total)
		for _, e := range result.Errors {
			fmt.Printf("  failed %s: %v\n", e.EmailID, e.Err)
		}
		return err
	})
}

func printEmailResult(result *core.EmailResult) {
	fmt.Printf("Email %s -> %s\n", result.EmailID, result.Category)
	if !result.Matched {
		fmt.Println("The model response named no known category; the email stays Uncategorized")
	}
	if result.ActionItems > 0 {
		fmt.Printf("Extracted %d action items\n", result.ActionItems)
	}
}

func cmdDraft(args []string) error {
	fs := flag.NewFlagSet("draft", flag.ExitOnError)
	emailID := fs.String("email", "", "Email ID to reply to (required)")
	tone := fs.String("tone", core.DefaultTone, "Tone for the reply")
	save := fs.Bool("save", false, "Save the generated draft")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *emailID == "" {
		return errors.New("missing required -email flag")
	}

	return invoke(func(svc *core.PipelineService, drafts core.DraftStore) error {
		ctx := context.Background()
		content, err := svc.GenerateDraft(ctx, *emailID, *tone)
		if err != nil {
			return err
		}

		fmt.Printf("Subject: %s\n\n%s\n", content.Subject, content.Body)

		if *save {
			metadata := fmt.Sprintf(`{"tone":%q}`, *tone)
			id, err := drafts.InsertDraft(ctx, &core.Draft{
				EmailID:  &content.EmailID,
				Subject:  content.Subject,
				Body:     content.Body,
				Metadata: &metadata,
			})
			if err != nil {
				return err
			}
			fmt.Printf("\nSaved as draft %d\n", id)
		}
		return nil
	})
}

func cmdEmails(args []string) error {
	fs := flag.NewFlagSet("emails", flag.ExitOnError)
	category := fs.String("category", "", "Only show emails in this category")
	search := fs.String("search", "", "Only show emails matching this text")
	limit := fs.Int("limit", 0, "Maximum number of emails to show (0 for all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filter := core.EmailFilter{Search: *search, Limit: *limit}
	if *category != "" {
		c, err := core.ParseKnownCategory(*category)
		if err != nil {
			return err
		}
		filter.Category = &c
	}

	return invoke(func(emails core.EmailStore) error {
		list, err := emails.ListEmails(context.Background(), filter)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No emails found")
			return nil
		}
		for _, e := range list {
			fmt.Printf("%-40s  %-13s  %-30s  %s\n",
				e.ID, e.Category, clip(e.Sender, 30), clip(e.Subject, 50))
		}
		fmt.Printf("\n%d emails\n", len(list))
		return nil
	})
}

func cmdEmailShow(args []string) error {
	fs := flag.NewFlagSet("email", flag.ExitOnError)
	id := fs.String("id", "", "Email ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("missing required -id flag")
	}

	return invoke(func(emails core.EmailStore, items core.ActionItemStore) error {
		ctx := context.Background()
		e, err := emails.GetEmail(ctx, *id)
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %s\n", e.ID)
		fmt.Printf("From:      %s\n", e.Sender)
		fmt.Printf("Subject:   %s\n", e.Subject)
		fmt.Printf("Date:      %s\n", e.Timestamp.Format(time.RFC3339))
		fmt.Printf("Category:  %s\n", e.Category)
		fmt.Printf("\n%s\n", e.Body)

		tasks, err := items.ListActionItems(ctx, e.ID, "")
		if err != nil {
			return err
		}
		if len(tasks) > 0 {
			fmt.Println("\nAction items:")
			for _, t := range tasks {
				fmt.Printf("  [%d] %s (deadline: %s, %s)\n", t.ID, t.Task, t.Deadline, t.Status)
			}
		}
		return nil
	})
}

func cmdTasks(args []string) error {
	fs := flag.NewFlagSet("tasks", flag.ExitOnError)
	status := fs.String("status", "", "Only show tasks with this status (pending or completed)")
	emailID := fs.String("email", "", "Only show tasks extracted from this email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	switch *status {
	case "", core.StatusPending, core.StatusCompleted:
	default:
		return fmt.Errorf("unknown status %q", *status)
	}

	return invoke(func(items core.ActionItemStore) error {
		tasks, err := items.ListActionItems(context.Background(), *emailID, *status)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No action items found")
			return nil
		}
		for _, t := range tasks {
			fmt.Printf("[%d] %-9s  %-50s  deadline: %s  (email %s)\n",
				t.ID, t.Status, clip(t.Task, 50), t.Deadline, t.EmailID)
		}
		fmt.Printf("\n%d action items\n", len(tasks))
		return nil
	})
}

func cmdTaskDone(args []string) error {
	fs := flag.NewFlagSet("task-done", flag.ExitOnError)
	id := fs.Int64("id", 0, "Action item ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing required -id flag")
	}

	return invoke(func(items core.ActionItemStore) error {
		if err := items.UpdateActionItemStatus(context.Background(), *id, core.StatusCompleted); err != nil {
			return err
		}
		fmt.Printf("Task %d completed\n", *id)
		return nil
	})
}

func cmdDrafts(args []string) error {
	fs := flag.NewFlagSet("drafts", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(drafts core.DraftStore) error {
		list, err := drafts.ListDrafts(context.Background())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No drafts found")
			return nil
		}
		for _, d := range list {
			ref := "-"
			if d.EmailID != nil {
				ref = *d.EmailID
			}
			fmt.Printf("[%d] %-50s  email: %s\n", d.ID, clip(d.Subject, 50), ref)
		}
		fmt.Printf("\n%d drafts\n", len(list))
		return nil
	})
}

func cmdDraftShow(args []string) error {
	fs := flag.NewFlagSet("draft-show", flag.ExitOnError)
	id := fs.Int64("id", 0, "Draft ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing required -id flag")
	}

	return invoke(func(drafts core.DraftStore) error {
		d, err := drafts.GetDraft(context.Background(), *id)
		if err != nil {
			return err
		}
		fmt.Printf("Draft:    %d\n", d.ID)
		if d.EmailID != nil {
			fmt.Printf("Email:    %s\n", *d.EmailID)
		}
		fmt.Printf("Created:  %s\n", d.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Subject:  %s\n\n%s\n", d.Subject, d.Body)
		return nil
	})
}

func cmdDraftEdit(args []string) error {
	fs := flag.NewFlagSet("draft-edit", flag.ExitOnError)
	id := fs.Int64("id", 0, "Draft ID (required)")
	subject := fs.String("subject", "", "New subject (keeps the current one when empty)")
	body := fs.String("body", "", "New body (keeps the current one when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing required -id flag")
	}
	if *subject == "" && *body == "" {
		return errors.New("nothing to change: pass -subject or -body")
	}

	return invoke(func(drafts core.DraftStore) error {
		ctx := context.Background()
		d, err := drafts.GetDraft(ctx, *id)
		if err != nil {
			return err
		}
		newSubject, newBody := d.Subject, d.Body
		if *subject != "" {
			newSubject = *subject
		}
		if *body != "" {
			newBody = *body
		}
		if err := drafts.UpdateDraft(ctx, *id, newSubject, newBody); err != nil {
			return err
		}
		fmt.Printf("Draft %d updated\n", *id)
		return nil
	})
}

func cmdDraftDelete(args []string) error {
	fs := flag.NewFlagSet("draft-delete", flag.ExitOnError)
	id := fs.Int64("id", 0, "Draft ID (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("missing required -id flag")
	}

	return invoke(func(drafts core.DraftStore) error {
		if err := drafts.DeleteDraft(context.Background(), *id); err != nil {
			return err
		}
		fmt.Printf("Draft %d deleted\n", *id)
		return nil
	})
}

func cmdPrompts(args []string) error {
	fs := flag.NewFlagSet("prompts", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(prompts core.PromptStore) error {
		list, err := prompts.ListPrompts(context.Background())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No prompts stored (run 'inbox-agent seed-prompts')")
			return nil
		}
		for _, p := range list {
			state := "active"
			if !p.Active {
				state = "inactive"
			}
			fmt.Printf("%-16s  %-8s  %4d chars\n", p.Name, state, len(p.Content))
		}
		return nil
	})
}

func cmdPromptShow(args []string) error {
	fs := flag.NewFlagSet("prompt-show", flag.ExitOnError)
	name := fs.String("name", "", "Prompt name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("missing required -name flag")
	}

	return invoke(func(prompts core.PromptStore) error {
		p, err := prompts.GetPrompt(context.Background(), *name)
		if err != nil {
			return err
		}
		fmt.Println(p.Content)
		return nil
	})
}

func cmdPromptSet(args []string) error {
	fs := flag.NewFlagSet("prompt-set", flag.ExitOnError)
	name := fs.String("name", "", "Prompt name (required)")
	file := fs.String("file", "", "File holding the template content")
	content := fs.String("content", "", "Template content given inline")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return errors.New("missing required -name flag")
	}
	if (*file == "") == (*content == "") {
		return errors.New("pass exactly one of -file or -content")
	}

	text := *content
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return err
		}
		text = string(data)
	}

	return invoke(func(registry *core.PromptRegistry) error {
		if err := registry.SetTemplate(context.Background(), *name, text); err != nil {
			return err
		}
		fmt.Printf("Prompt %q stored\n", *name)
		return nil
	})
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(emails core.EmailStore, items core.ActionItemStore, drafts core.DraftStore) error {
		ctx := context.Background()
		counts, err := emails.CountByCategory(ctx)
		if err != nil {
			return err
		}
		total := 0
		for _, n := range counts {
			total += n
		}

		fmt.Printf("Emails: %d\n", total)
		for _, c := range core.KnownCategories() {
			fmt.Printf("  %-14s %d\n", c, counts[c])
		}

		pending, err := items.ListActionItems(ctx, "", core.StatusPending)
		if err != nil {
			return err
		}
		completed, err := items.ListActionItems(ctx, "", core.StatusCompleted)
		if err != nil {
			return err
		}
		fmt.Printf("Action items: %d pending, %d completed\n", len(pending), len(completed))

		list, err := drafts.ListDrafts(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Drafts: %d\n", len(list))
		return nil
	})
}

func cmdAsk(args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	emailID := fs.String("email", "", "Scope the question to this email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" {
		return errors.New("missing question: inbox-agent ask [-email ID] <question>")
	}

	return invoke(func(svc *core.PipelineService) error {
		answer, err := svc.Answer(context.Background(), question, *emailID)
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	})
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	return invoke(func(
		logger *zap.Logger,
		server *intake.Server,
		svc *core.PipelineService,
		cfg *config.Config,
		generator core.TextGenerator,
		st *store.SQLStore,
	) error {
		defer logger.Sync()

		if err := server.Start(); err != nil {
			logger.Error("Failed to start SMTP intake", zap.Error(err))
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Optionally process the inbox on a schedule
		if interval := cfg.GetIntake().ProcessInterval; interval > 0 {
			go processLoop(ctx, svc, logger, interval)
			logger.Info("Scheduled processing enabled", zap.Duration("interval", interval))
		}

		// Handle graceful shutdown
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		<-sigCh
		logger.Info("Shutting down...")
		cancel()

		if err := server.Stop(); err != nil {
			logger.Error("Failed to stop SMTP intake", zap.Error(err))
		}

		// Close any resources that need closing
		if closer, ok := generator.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close LLM client", zap.Error(err))
			}
		}
		if err := st.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
		}

		logger.Info("Shutdown complete")
		return nil
	})
}

func processLoop(ctx context.Context, svc *core.PipelineService, logger *zap.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := svc.ProcessInbox(ctx, nil)
			if err != nil {
				logger.Error("Scheduled processing failed", zap.Error(err))
				continue
			}
			if result.Total > 0 {
				logger.Info("Scheduled processing finished",
					zap.String("run_id", result.RunID),
					zap.Int("processed", result.Processed),
					zap.Int("failed", len(result.Errors)))
			}
		}
	}
}

func cmdReset(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm deleting all stored data")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to delete all data without -yes")
	}

	return invoke(func(st *store.SQLStore) error {
		if err := st.ClearAll(context.Background()); err != nil {
			return err
		}
		fmt.Println("All stored data deleted")
		return nil
	})
}

// clip shortens s for single-line table output.
func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
