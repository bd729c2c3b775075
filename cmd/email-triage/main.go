package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net/mail"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
	"github.com/mikey/inbox-agent/internal/factory"
	"github.com/mikey/inbox-agent/internal/loader"
	"github.com/mikey/inbox-agent/internal/logging"
	"github.com/mikey/inbox-agent/internal/utils"
)

// Built-in prompt templates used when no prompts file is given. They match
// the seeds shipped in configs/default_prompts.json.
const (
	builtinCategorization = `You are an email triage assistant. Assign the email below exactly one of these categories: Important, Newsletter, Spam, To-Do.

Reply with the category name and nothing else.

From: {sender}
Subject: {subject}

{body}`

	builtinActionItem = `Extract every actionable task from the email below. Respond with a JSON array only. Each element must be an object with a "task" field and a "deadline" field. Use "Not specified" when the email names no deadline. Respond with [] when there is nothing to do.

From: {sender}
Subject: {subject}

{body}`

	builtinAutoReply = `Write a reply to the email below. Keep it concise and address the points raised. Respond with the reply body only, without a subject line.

From: {sender}
Subject: {subject}

{body}`
)

var (
	// LLM provider flags
	provider    = flag.String("provider", "openai", "LLM provider (openai, anthropic, gemini, grok, bedrock)")
	maxTokens   = flag.Int("max-tokens", 500, "Maximum tokens for LLM responses")
	maxBodySize = flag.Int("max-body-size", 8192, "Maximum email body size to send to the LLM")

	// OpenAI flags
	openaiAPIKey    = flag.String("openai-api-key", "", "API key for OpenAI")
	openaiModelName = flag.String("openai-model", "gpt-4o-mini", "OpenAI model name")

	// Anthropic flags
	anthropicAPIKey    = flag.String("anthropic-api-key", "", "API key for Anthropic")
	anthropicModelName = flag.String("anthropic-model", "claude-sonnet-4-5-20250929", "Anthropic model name")

	// Gemini flags
	geminiAPIKey    = flag.String("gemini-api-key", "", "API key for Google Gemini")
	geminiModelName = flag.String("gemini-model", "gemini-2.0-flash", "Gemini model name")

	// Grok flags
	grokAPIKey    = flag.String("grok-api-key", "", "API key for xAI Grok")
	grokModelName = flag.String("grok-model", "grok-beta", "Grok model name")
	grokBaseURL   = flag.String("grok-base-url", "https://api.x.ai/v1", "Base URL for the xAI API")

	// Bedrock flags
	bedrockRegion  = flag.String("bedrock-region", "us-east-1", "AWS region for Bedrock")
	bedrockModelID = flag.String("bedrock-model", "anthropic.claude-3-haiku-20240307-v1:0", "Bedrock model ID")

	// Triage flags
	tone        = flag.String("tone", core.DefaultTone, "Tone for the generated reply")
	withDraft   = flag.Bool("draft", false, "Also generate a reply draft")
	promptsFile = flag.String("prompts", "", "Prompts JSON file (uses built-in templates if not specified)")

	// Input flags
	inputFile  = flag.String("file", "", "Input email file (use stdin if not specified)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	_ = godotenv.Load()
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", *configFile))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Initialize LLM client
	generator, err := factory.NewLLMFactory(cfg, logger).CreateTextGenerator()
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	templates, err := loadTemplates()
	if err != nil {
		logger.Fatal("Failed to load prompt templates", zap.Error(err))
	}

	// Read email from file or stdin
	var emailReader io.Reader
	if *inputFile != "" {
		file, err := os.Open(*inputFile)
		if err != nil {
			logger.Fatal("Failed to open input file", zap.Error(err), zap.String("file", *inputFile))
		}
		defer file.Close()
		emailReader = file
		logger.Info("Reading email from file", zap.String("file", *inputFile))
	} else {
		emailReader = os.Stdin
		logger.Info("Reading email from stdin")
	}

	// Parse email
	msg, err := mail.ReadMessage(bufio.NewReader(emailReader))
	if err != nil {
		logger.Fatal("Failed to parse email", zap.Error(err))
	}

	from := msg.Header.Get("From")
	subject := msg.Header.Get("Subject")

	bodyBytes, err := io.ReadAll(msg.Body)
	if err != nil {
		logger.Fatal("Failed to read email body", zap.Error(err))
	}
	body := string(bodyBytes)

	// Print email summary
	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("From: %s\n", from)
	fmt.Printf("Subject: %s\n", subject)
	fmt.Printf("Body length: %d bytes\n", len(body))

	fmt.Printf("\n=== Analysis ===\n")
	fmt.Printf("Provider: %s\n", cfg.GetString("llm.provider"))

	textProc := utils.NewTextProcessor(cfg.GetLLM().MaxBodySize, logger)
	cleanBody := textProc.ProcessText(body)

	ctx := context.Background()
	tokens := cfg.GetLLM().MaxTokens
	startTime := time.Now()

	// Categorize
	raw, err := generator.Generate(ctx,
		core.RenderTemplate(templates[core.PromptCategorization], from, subject, cleanBody),
		core.TemperatureCategorize, tokens)
	if err != nil {
		logger.Fatal("Failed to categorize email", zap.Error(err))
	}
	category, matched := core.ParseCategory(raw)

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Category: %s\n", category)
	if !matched {
		fmt.Println("The model response named no known category")
	}

	// Extract action items for To-Do emails
	if category == core.CategoryToDo {
		raw, err := generator.Generate(ctx,
			core.RenderTemplate(templates[core.PromptActionItem], from, subject, cleanBody),
			core.TemperatureExtract, tokens)
		if err != nil {
			logger.Fatal("Failed to extract action items", zap.Error(err))
		}
		items, err := core.ParseActionItems(raw)
		if err != nil {
			logger.Warn("Unparseable action item response", zap.Error(err))
		}
		if len(items) == 0 {
			fmt.Println("Action items: none")
		} else {
			fmt.Println("Action items:")
			for _, item := range items {
				fmt.Printf("  - %s (deadline: %s)\n", item.Task, item.Deadline)
			}
		}
	}

	// Generate a reply draft if requested
	if *withDraft {
		prompt := core.RenderTemplate(templates[core.PromptAutoReply], from, subject, cleanBody)
		if *tone != "" && *tone != core.DefaultTone {
			prompt += "\n\nTone: " + *tone
		}
		raw, err := generator.Generate(ctx, prompt, core.TemperatureReply, tokens)
		if err != nil {
			logger.Fatal("Failed to generate reply draft", zap.Error(err))
		}

		fmt.Printf("\n=== Reply Draft ===\n")
		fmt.Printf("Subject: Re: %s\n\n%s\n", subject, core.ParseReply(raw))
	}

	fmt.Printf("\nProcessing time: %v\n", time.Since(startTime))

	// Close any resources that need closing
	if closer, ok := generator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

// loadTemplates returns the three pipeline templates, from the prompts file
// when one was given and from the built-ins otherwise.
func loadTemplates() (map[string]string, error) {
	if *promptsFile == "" {
		return map[string]string{
			core.PromptCategorization: builtinCategorization,
			core.PromptActionItem:     builtinActionItem,
			core.PromptAutoReply:      builtinAutoReply,
		}, nil
	}

	templates, err := loader.LoadDefaultPrompts(*promptsFile)
	if err != nil {
		return nil, err
	}
	for _, name := range []string{core.PromptCategorization, core.PromptActionItem, core.PromptAutoReply} {
		if _, ok := templates[name]; !ok {
			return nil, fmt.Errorf("prompts file is missing the %q template", name)
		}
	}
	return templates, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	// Set LLM provider
	v.Set("llm.provider", *provider)
	v.Set("llm.max_tokens", *maxTokens)
	v.Set("llm.max_body_size", *maxBodySize)

	// Set provider-specific configuration
	switch *provider {
	case "openai":
		v.Set("openai.api_key", *openaiAPIKey)
		v.Set("openai.model_name", *openaiModelName)
	case "anthropic":
		v.Set("anthropic.api_key", *anthropicAPIKey)
		v.Set("anthropic.model_name", *anthropicModelName)
	case "gemini":
		v.Set("gemini.api_key", *geminiAPIKey)
		v.Set("gemini.model_name", *geminiModelName)
	case "grok":
		v.Set("grok.api_key", *grokAPIKey)
		v.Set("grok.model_name", *grokModelName)
		v.Set("grok.base_url", *grokBaseURL)
	case "bedrock":
		v.Set("bedrock.region", *bedrockRegion)
		v.Set("bedrock.model_id", *bedrockModelID)
	}

	return config.NewFromViper(v)
}
