package anthropic

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
)

// Factory creates Anthropic clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Anthropic clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a client for the Anthropic Messages API
func (f *Factory) CreateClient() (core.TextGenerator, error) {
	anthropicCfg := f.cfg.GetAnthropic()
	if anthropicCfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is not configured")
	}

	return NewClient(anthropicCfg.APIKey, anthropicCfg.ModelName, f.logger), nil
}
