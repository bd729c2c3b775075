package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
)

// Factory creates OpenAI-compatible clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAI-compatible clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a client for the OpenAI API
func (f *Factory) CreateClient() (core.TextGenerator, error) {
	openaiCfg := f.cfg.GetOpenAI()
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not configured")
	}

	client := openai.NewClient(openaiCfg.APIKey)
	return NewClient(client, openaiCfg.ModelName, "openai", f.logger), nil
}

// CreateGrokClient creates a client for the xAI Grok API, which speaks the
// OpenAI wire protocol on its own base URL.
func (f *Factory) CreateGrokClient() (core.TextGenerator, error) {
	grokCfg := f.cfg.GetGrok()
	if grokCfg.APIKey == "" {
		return nil, fmt.Errorf("grok api key is not configured")
	}

	clientCfg := openai.DefaultConfig(grokCfg.APIKey)
	clientCfg.BaseURL = grokCfg.BaseURL

	client := openai.NewClientWithConfig(clientCfg)
	return NewClient(client, grokCfg.ModelName, "grok", f.logger), nil
}
