package config

import (
	"fmt"
	"time"
)

// LLMConfig represents the provider-independent LLM settings
type LLMConfig struct {
	Provider    string
	MaxTokens   int
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey    string
	ModelName string
}

// AnthropicConfig represents the configuration for Anthropic
type AnthropicConfig struct {
	APIKey    string
	ModelName string
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey    string
	ModelName string
}

// GrokConfig represents the configuration for xAI Grok
type GrokConfig struct {
	APIKey    string
	ModelName string
	BaseURL   string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region  string
	ModelID string
}

// StorageConfig represents the relational storage configuration
type StorageConfig struct {
	Driver     string
	SQLitePath string
	DSN        string
}

// DataConfig represents the bundled data file locations
type DataConfig struct {
	InboxPath   string
	PromptsPath string
}

// IntakeConfig represents the SMTP intake configuration
type IntakeConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	ProcessInterval time.Duration
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider:    c.GetString("llm.provider"),
		MaxTokens:   c.GetInt("llm.max_tokens"),
		MaxBodySize: c.GetInt("llm.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:    c.GetString("openai.api_key"),
		ModelName: c.GetString("openai.model_name"),
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:    c.GetString("anthropic.api_key"),
		ModelName: c.GetString("anthropic.model_name"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:    c.GetString("gemini.api_key"),
		ModelName: c.GetString("gemini.model_name"),
	}
}

// GetGrok returns the Grok configuration
func (c *Config) GetGrok() GrokConfig {
	return GrokConfig{
		APIKey:    c.GetString("grok.api_key"),
		ModelName: c.GetString("grok.model_name"),
		BaseURL:   c.GetString("grok.base_url"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:  c.GetString("bedrock.region"),
		ModelID: c.GetString("bedrock.model_id"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Driver:     c.GetString("storage.driver"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		DSN:        c.GetString("storage.dsn"),
	}
}

// GetData returns the data file configuration
func (c *Config) GetData() DataConfig {
	return DataConfig{
		InboxPath:   c.GetString("data.inbox_path"),
		PromptsPath: c.GetString("data.prompts_path"),
	}
}

// GetIntake returns the SMTP intake configuration
func (c *Config) GetIntake() IntakeConfig {
	return IntakeConfig{
		ListenAddress:   c.GetString("intake.listen_address"),
		Domain:          c.GetString("intake.domain"),
		MaxMessageBytes: int64(c.GetInt("intake.max_message_bytes")),
		ProcessInterval: c.v.GetDuration("intake.process_interval"),
	}
}

// GetSenderRules returns the domain to category assignments
func (c *Config) GetSenderRules() map[string]string {
	return c.v.GetStringMapString("rules.sender_categories")
}

// Validate checks that the selected provider and storage driver are usable.
// The returned error names the configuration key or environment variable to
// set, so the failure is actionable from the command line.
func (c *Config) Validate() error {
	switch provider := c.GetString("llm.provider"); provider {
	case "openai":
		if c.GetString("openai.api_key") == "" {
			return fmt.Errorf("openai api key is required: set openai.api_key or INBOX_AGENT_OPENAI_API_KEY")
		}
	case "anthropic":
		if c.GetString("anthropic.api_key") == "" {
			return fmt.Errorf("anthropic api key is required: set anthropic.api_key or INBOX_AGENT_ANTHROPIC_API_KEY")
		}
	case "gemini":
		if c.GetString("gemini.api_key") == "" {
			return fmt.Errorf("gemini api key is required: set gemini.api_key or INBOX_AGENT_GEMINI_API_KEY")
		}
	case "grok":
		if c.GetString("grok.api_key") == "" {
			return fmt.Errorf("grok api key is required: set grok.api_key or INBOX_AGENT_GROK_API_KEY")
		}
	case "bedrock":
		// Credentials come from the AWS default chain
	default:
		return fmt.Errorf("unsupported llm provider: %s", provider)
	}

	switch driver := c.GetString("storage.driver"); driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported storage driver: %s", driver)
	}
	return nil
}
