package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mikey/inbox-agent/internal/di"
)

const usageText = `inbox-agent manages an LLM-assisted email inbox.

Usage: inbox-agent <command> [flags]

Inbox commands:
  import        Load emails from a JSON inbox file
  emails        List stored emails
  email         Show one email with its action items
  stats         Show stored email, task and draft counts
  reset         Delete all stored data

Processing commands:
  process       Categorize uncategorized emails and extract tasks
  draft         Generate a reply draft for an email
  ask           Ask a question about the inbox or one email
  tasks         List extracted action items
  task-done     Mark an action item completed

Draft commands:
  drafts        List saved drafts
  draft-show    Show one saved draft
  draft-edit    Update a saved draft
  draft-delete  Delete a saved draft

Prompt commands:
  seed-prompts  Store the default prompt templates
  prompts       List stored prompt templates
  prompt-show   Show one prompt template
  prompt-set    Store a prompt template

Server commands:
  serve         Run the SMTP intake server

Run 'inbox-agent <command> -h' for the flags of a command.
`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "import":
		err = cmdImport(args)
	case "seed-prompts":
		err = cmdSeedPrompts(args)
	case "process":
		err = cmdProcess(args)
	case "draft":
		err = cmdDraft(args)
	case "emails":
		err = cmdEmails(args)
	case "email":
		err = cmdEmailShow(args)
	case "tasks":
		err = cmdTasks(args)
	case "task-done":
		err = cmdTaskDone(args)
	case "drafts":
		err = cmdDrafts(args)
	case "draft-show":
		err = cmdDraftShow(args)
	case "draft-edit":
		err = cmdDraftEdit(args)
	case "draft-delete":
		err = cmdDraftDelete(args)
	case "prompts":
		err = cmdPrompts(args)
	case "prompt-show":
		err = cmdPromptShow(args)
	case "prompt-set":
		err = cmdPromptSet(args)
	case "stats":
		err = cmdStats(args)
	case "ask":
		err = cmdAsk(args)
	case "serve":
		err = cmdServe(args)
	case "reset":
		err = cmdReset(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, usageText)
}

// invoke builds the dependency injection container and runs fn with its
// dependencies injected.
func invoke(fn interface{}) error {
	container, err := di.BuildContainer()
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}
