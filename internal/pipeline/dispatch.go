// Package pipeline wires the event handlers of the media conversion flow.
//
// Each handler turns one inbound event into work and hands its final error to a
// Dispatcher. The Dispatcher is the only place that decides, from the error's class,
// whether a failure is ignored, reported and swallowed, or reported and returned.
package pipeline

import (
	"context"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
)

// Pipeline names, used as metric labels.
const (
	NameSubmit   = "submit-video"
	NameComplete = "complete-video"
	NameAudio    = "process-audio"
)

// UnknownLogGroup is reported when the host gives no log group.
const UnknownLogGroup = "unknown"

// Invocation identifies one run of a handler.
type Invocation struct {
	RequestID string
	LogGroup  string
}

func (inv Invocation) logGroup() string {
	if inv.LogGroup == "" {
		return UnknownLogGroup
	}
	return inv.LogGroup
}

// Handler processes one raw inbound event.
type Handler interface {
	Handle(ctx context.Context, inv Invocation, raw []byte) error
}

// FailureReporter publishes diagnostics for failed invocations.
type FailureReporter interface {
	Report(ctx context.Context, logGroup string, err error, path string) error
}

// Dispatcher applies the failure policy of one pipeline.
type Dispatcher struct {
	pipeline string
	reporter FailureReporter
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// NewDispatcher creates a Dispatcher for the named pipeline.
func NewDispatcher(pipeline string, reporter FailureReporter, m *metrics.Metrics, log *logger.Logger) *Dispatcher {
	return &Dispatcher{pipeline: pipeline, reporter: reporter, metrics: m, log: log}
}

// Handle records the outcome of an invocation. err is the invocation's final error
// and path names the asset it was working on.
//
// Ignorable errors are logged. Reportable errors are published and swallowed.
// Everything else is published and returned so the host marks the invocation failed.
func (d *Dispatcher) Handle(ctx context.Context, inv Invocation, err error, path string) error {
	if err == nil {
		d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeOK).Inc()
		return nil
	}

	class := domainerrors.Classify(err)
	code := domainerrors.CodeOf(err)
	d.metrics.Failures.WithLabelValues(d.pipeline, string(code), class.String()).Inc()
	log := d.log.ForInvocation(inv.RequestID, inv.LogGroup)

	switch class {
	case domainerrors.ClassIgnorable:
		log.Info("Ignoring event", "path", path, "reason", err.Error())
		d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeIgnored).Inc()
		return nil

	case domainerrors.ClassReportable:
		log.Warn("Reporting failure", "path", path, "code", code, "error", err)
		if reportErr := d.reporter.Report(ctx, inv.logGroup(), err, path); reportErr != nil {
			d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeFailed).Inc()
			return reportErr
		}
		d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeReported).Inc()
		return nil

	default:
		log.Error("Invocation failed", "path", path, "code", code, "error", err)
		d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeFailed).Inc()
		if reportErr := d.reporter.Report(ctx, inv.logGroup(), err, path); reportErr != nil {
			return domainerrors.Join(err, reportErr)
		}
		return err
	}
}

// Skip records an invocation that had nothing to do.
func (d *Dispatcher) Skip(log *logger.Logger, msg string, args ...any) {
	log.Info(msg, args...)
	d.metrics.Invocations.WithLabelValues(d.pipeline, metrics.OutcomeIgnored).Inc()
}
