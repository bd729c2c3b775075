package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/adapters/anthropic"
	"github.com/mikey/inbox-agent/internal/adapters/bedrock"
	"github.com/mikey/inbox-agent/internal/adapters/gemini"
	"github.com/mikey/inbox-agent/internal/adapters/openai"
	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
)

// LLMFactory creates text generators
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextGenerator creates a text generator for the configured provider.
// Callers that must not fail at startup should convert the error into
// core.NewUnavailableGenerator instead of aborting.
func (f *LLMFactory) CreateTextGenerator() (core.TextGenerator, error) {
	llmCfg := f.cfg.GetLLM()

	switch llmCfg.Provider {
	case "openai":
		return openai.NewFactory(f.cfg, f.logger).CreateClient()
	case "anthropic":
		return anthropic.NewFactory(f.cfg, f.logger).CreateClient()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger).CreateClient()
	case "grok":
		return openai.NewFactory(f.cfg, f.logger).CreateGrokClient()
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger).CreateClient()
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", llmCfg.Provider)
	}
}
