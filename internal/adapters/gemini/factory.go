package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
)

// retiredModels maps Gemini model names Google has shut down to the current
// replacement, so stale configs keep working.
var retiredModels = map[string]string{
	"gemini-pro":       "gemini-2.0-flash",
	"gemini-1.5-flash": "gemini-2.0-flash",
}

// Factory creates Gemini clients from configuration
type Factory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewFactory creates a new factory for Gemini clients
func NewFactory(cfg *config.Config, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a client for the Gemini API
func (f *Factory) CreateClient() (core.TextGenerator, error) {
	geminiCfg := f.cfg.GetGemini()
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	modelName := geminiCfg.ModelName
	if replacement, ok := retiredModels[modelName]; ok {
		f.logger.Warn("Configured gemini model is retired, using replacement",
			zap.String("configured", modelName),
			zap.String("replacement", replacement))
		modelName = replacement
	}

	return NewClient(context.Background(), geminiCfg.APIKey, modelName, f.logger)
}
