package notify

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
)

const sentryFlushTimeout = 2 * time.Second

// SentryConfig configures the error telemetry client.
type SentryConfig struct {
	DSN              string
	Environment      string
	TracesSampleRate float64
	BeforeSend       func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// NewSentryHub creates a hub bound to its own client. An empty DSN yields a client that drops events.
func NewSentryHub(cfg SentryConfig) (*sentry.Hub, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		BeforeSend:       cfg.BeforeSend,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to initialize sentry")
	}
	return sentry.NewHub(client, sentry.NewScope()), nil
}

// Reporter turns pipeline failures into diagnostic messages.
type Reporter struct {
	publisher Publisher
	topic     string
	region    string
	hub       *sentry.Hub
	log       *logger.Logger
}

// NewReporter creates a Reporter. hub may be nil.
func NewReporter(publisher Publisher, topic, region string, hub *sentry.Hub, log *logger.Logger) *Reporter {
	return &Reporter{
		publisher: publisher,
		topic:     topic,
		region:    region,
		hub:       hub,
		log:       log,
	}
}

// Report publishes a diagnostic for err and records it in Sentry.
// The returned error is the publish failure, never err itself.
func (r *Reporter) Report(ctx context.Context, logGroup string, err error, path string) error {
	r.capture(err, logGroup, path)

	msg := NewDiagnosticMessage(LogStreamLink(r.region, logGroup), err.Error(), path)
	if pubErr := r.publisher.Publish(ctx, r.topic, msg); pubErr != nil {
		r.log.Error("Failed to publish diagnostic", "error", pubErr, "path", path)
		return pubErr
	}
	return nil
}

// Flush waits for buffered telemetry events.
func (r *Reporter) Flush() {
	if r.hub != nil {
		r.hub.Flush(sentryFlushTimeout)
	}
}

func (r *Reporter) capture(err error, logGroup, path string) {
	if r.hub == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("code", string(domainerrors.CodeOf(err)))
		scope.SetTag("class", domainerrors.Classify(err).String())
		scope.SetTag("log_group", logGroup)
		scope.SetTag("path", path)
		r.hub.CaptureException(err)
	})
}
