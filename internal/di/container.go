package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/spam-sweeper/internal/adapters/httpserver"
	"github.com/mikey/spam-sweeper/internal/adapters/xlsx"
	"github.com/mikey/spam-sweeper/internal/config"
	"github.com/mikey/spam-sweeper/internal/core"
	"github.com/mikey/spam-sweeper/internal/factory"
	"github.com/mikey/spam-sweeper/internal/logging"
	"github.com/mikey/spam-sweeper/internal/ports"
	"github.com/mikey/spam-sweeper/internal/utils"
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
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ResultCache, error) {
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register spreadsheet codec
	if err := container.Provide(xlsx.NewCodec); err != nil {
		return nil, err
	}

	// Register sweep service
	if err := container.Provide(core.NewSweepService); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(func(
		cfg *config.Config,
		logger *zap.Logger,
		service *core.SweepService,
		cache core.ResultCache,
		codec *xlsx.Codec,
		textProcessor *utils.TextProcessor,
	) (ports.Server, error) {
		return httpserver.NewServer(cfg, logger, service, cache, codec, textProcessor)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
