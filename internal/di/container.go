package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/inbox-agent/internal/config"
	"github.com/mikey/inbox-agent/internal/core"
	"github.com/mikey/inbox-agent/internal/factory"
	"github.com/mikey/inbox-agent/internal/intake"
	"github.com/mikey/inbox-agent/internal/logging"
	"github.com/mikey/inbox-agent/internal/rules"
	"github.com/mikey/inbox-agent/internal/store"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewStorageFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text generator. A misconfigured provider degrades to a
	// generator that fails per call, so commands that never reach the
	// model still run.
	if err := container.Provide(func(f *factory.LLMFactory, logger *zap.Logger) core.TextGenerator {
		generator, err := f.CreateTextGenerator()
		if err != nil {
			logger.Warn("LLM provider unavailable", zap.Error(err))
			return core.NewUnavailableGenerator(err)
		}
		return generator
	}); err != nil {
		return nil, err
	}

	// Register store
	if err := container.Provide(func(f *factory.StorageFactory) (*store.SQLStore, error) {
		return f.CreateStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.SQLStore) core.EmailStore { return s }); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.SQLStore) core.ActionItemStore { return s }); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.SQLStore) core.PromptStore { return s }); err != nil {
		return nil, err
	}
	if err := container.Provide(func(s *store.SQLStore) core.DraftStore { return s }); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) core.BodyProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register sender rules
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) core.SenderRule {
		return rules.NewMatcher(cfg.GetSenderRules(), logger)
	}); err != nil {
		return nil, err
	}

	// Register prompt registry
	if err := container.Provide(core.NewPromptRegistry); err != nil {
		return nil, err
	}

	// Register pipeline service
	if err := container.Provide(func(
		generator core.TextGenerator,
		emails core.EmailStore,
		items core.ActionItemStore,
		registry *core.PromptRegistry,
		senderRules core.SenderRule,
		text core.BodyProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) *core.PipelineService {
		return core.NewPipelineService(generator, emails, items, registry, senderRules, text, logger, cfg.GetLLM().MaxTokens)
	}); err != nil {
		return nil, err
	}

	// Register SMTP intake server
	if err := container.Provide(func(emails core.EmailStore, cfg *config.Config, logger *zap.Logger) *intake.Server {
		intakeCfg := cfg.GetIntake()
		return intake.NewServer(emails, logger, intakeCfg.ListenAddress, intakeCfg.Domain, intakeCfg.MaxMessageBytes)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
