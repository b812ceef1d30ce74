package providers

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/getsentry/sentry-go"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
)

// SentryHandle wraps the telemetry hub with shutdown capability. Hub is nil when
// SENTRY_DSN is empty.
type SentryHandle struct {
	Hub *sentry.Hub
}

// Shutdown implements do.Shutdownable.
func (h *SentryHandle) Shutdown() error {
	if h.Hub != nil {
		h.Hub.Flush(sentryFlushTimeout)
	}
	return nil
}

// ProvideSentry provides the error telemetry hub.
func ProvideSentry(i do.Injector) (*SentryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Sentry.DSN == "" {
		log.Debug("Sentry disabled")
		return &SentryHandle{}, nil
	}

	hub, err := notify.NewSentryHub(notify.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Environment:      cfg.App.Environment,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Sentry initialized", "environment", cfg.App.Environment)
	return &SentryHandle{Hub: hub}, nil
}

// ProvidePublisher provides the SNS notifier.
func ProvidePublisher(i do.Injector) (notify.Publisher, error) {
	awsCfg := do.MustInvoke[aws.Config](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return notify.NewSNS(awsCfg, m, log), nil
}

// ProvideReporter provides the failure reporter shared by every pipeline.
func ProvideReporter(i do.Injector) (*notify.Reporter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	awsCfg := do.MustInvoke[aws.Config](i)
	publisher := do.MustInvoke[notify.Publisher](i)
	sentryHandle := do.MustInvoke[*SentryHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return notify.NewReporter(publisher, cfg.Output.TopicARN, awsCfg.Region, sentryHandle.Hub, log), nil
}
