package providers

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	fn := do.MustInvoke[config.Function](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting media pipeline",
		"function", string(fn),
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage", cfg.Storage.Backend,
		"dedup", cfg.Dedup.Backend,
	)

	return log, nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideValidator provides the struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideAWSConfig loads the shared AWS SDK configuration from the environment.
func ProvideAWSConfig(i do.Injector) (aws.Config, error) {
	cfg := do.MustInvoke[*config.Config](i)

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.App.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.App.Region))
	}
	return awsconfig.LoadDefaultConfig(context.Background(), opts...)
}
