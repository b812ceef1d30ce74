// Package di wires the media pipelines together with samber/do.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/di/providers"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

// NewContainer creates the DI container for one deployable function. The
// configuration is loaded and validated by the caller.
func NewContainer(cfg *config.Config, fn config.Function) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, fn)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideAWSConfig)
	do.Provide(injector, providers.ProvideSentry)

	// Adapters
	do.Provide(injector, providers.ProvideObjectStore)
	do.Provide(injector, providers.ProvideEngine)
	do.Provide(injector, providers.ProvidePublisher)
	do.Provide(injector, providers.ProvideReporter)
	do.Provide(injector, providers.ProvideDedup)

	// Inspection tools
	do.Provide(injector, providers.ProvideProber)
	do.Provide(injector, providers.ProvideMediaInfo)
	do.Provide(injector, providers.ProvideContentTypeResolver)
	do.Provide(injector, providers.ProvideTemplateLoader)

	// Pipelines
	do.Provide(injector, providers.ProvideSubmitter)
	do.Provide(injector, providers.ProvideCompleter)
	do.Provide(injector, providers.ProvideAudioProcessor)
	do.Provide(injector, providers.ProvideMediaInfoService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Handler resolves the pipeline a Lambda function runs. Only the collaborators that
// pipeline needs are constructed.
func Handler(injector *do.RootScope, fn config.Function) (pipeline.Handler, error) {
	switch fn {
	case config.FunctionSubmit:
		return invokeHandler[*pipeline.Submitter](injector)
	case config.FunctionComplete:
		return invokeHandler[*pipeline.Completer](injector)
	case config.FunctionAudio:
		return invokeHandler[*pipeline.AudioProcessor](injector)
	default:
		return nil, fmt.Errorf("function %q has no event handler", fn)
	}
}

func invokeHandler[T pipeline.Handler](i do.Injector) (pipeline.Handler, error) {
	h, err := do.Invoke[T](i)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Bootstrap starts the local ingress with every pipeline behind it.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*logger.Logger](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return fmt.Errorf("start ingress: %w", err)
	}
	return nil
}
