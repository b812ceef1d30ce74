package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/crawlora/aws-platform-engineering/internal/engine"
	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
)

// Presigner issues time-limited read URLs.
type Presigner interface {
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Prober inspects media behind a URL.
type Prober interface {
	Probe(ctx context.Context, url string) (*probe.Result, error)
}

// TemplateLoader returns a fresh copy of the job template.
type TemplateLoader interface {
	Load(ctx context.Context) (*jobspec.Job, error)
}

// SubmitConfig holds the settings of the submission pipeline.
type SubmitConfig struct {
	DestinationBucket string
	Role              string
	MaxWidth          int
	MaxHeight         int
	PresignExpiry     time.Duration
}

// Submitter turns an uploaded video into a transcoding job.
type Submitter struct {
	cfg        SubmitConfig
	locator    *events.Locator
	presigner  Presigner
	prober     Prober
	templates  TemplateLoader
	engine     engine.Engine
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
	log        *logger.Logger
	newGUID    func() string
}

// SubmitterDeps groups the collaborators of a Submitter.
type SubmitterDeps struct {
	Locator   *events.Locator
	Presigner Presigner
	Prober    Prober
	Templates TemplateLoader
	Engine    engine.Engine
	Reporter  FailureReporter
	Metrics   *metrics.Metrics
	Logger    *logger.Logger
}

// NewSubmitter creates a Submitter.
func NewSubmitter(cfg SubmitConfig, deps SubmitterDeps) *Submitter {
	return &Submitter{
		cfg:        cfg,
		locator:    deps.Locator,
		presigner:  deps.Presigner,
		prober:     deps.Prober,
		templates:  deps.Templates,
		engine:     deps.Engine,
		dispatcher: NewDispatcher(NameSubmit, deps.Reporter, deps.Metrics, deps.Logger),
		metrics:    deps.Metrics,
		log:        deps.Logger,
		newGUID:    uuid.NewString,
	}
}

// Handle processes one storage notification.
func (s *Submitter) Handle(ctx context.Context, inv Invocation, raw []byte) error {
	log := s.log.ForInvocation(inv.RequestID, inv.LogGroup)
	log.Info("REQUEST", "event", string(raw))

	ref, err := s.locator.Locate(raw)
	if err == nil {
		err = s.submit(ctx, log, ref)
	}
	return s.dispatcher.Handle(ctx, inv, err, ref.Key)
}

func (s *Submitter) submit(ctx context.Context, log *logger.Logger, ref events.SourceReference) error {
	url, err := s.presigner.PresignGet(ctx, ref.Bucket, ref.Key, s.cfg.PresignExpiry)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := s.prober.Probe(ctx, url)
	s.metrics.ToolDuration.WithLabelValues("ffprobe").Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	if err := probe.ValidateInputProbe(result); err != nil {
		return err
	}

	width, height, _ := probe.WidthHeight(result)
	log.Info("INPUT", "format", result.Format.FormatName, "duration", result.Format.Duration, "size", result.Format.Size)
	log.Info("WxH", "width", width, "height", height)

	tmpl, err := s.templates.Load(ctx)
	if err != nil {
		return err
	}

	job, err := jobspec.Build(tmpl, jobspec.BuildInput{
		Source:            ref,
		DestinationBucket: s.cfg.DestinationBucket,
		Role:              s.cfg.Role,
		GUID:              s.newGUID(),
		Probe:             result,
		MaxWidth:          s.cfg.MaxWidth,
		MaxHeight:         s.cfg.MaxHeight,
	})
	if err != nil {
		return err
	}

	if doc, err := json.Marshal(job); err == nil {
		log.Info("JOB", "job", string(doc))
	}

	id, err := s.engine.CreateJob(ctx, job)
	if err != nil {
		return err
	}
	if id == "" {
		return domainerrors.New(domainerrors.CodeSubmission, "Error submitting job to MediaConvert: no job id returned")
	}

	s.metrics.JobsSubmitted.Inc()
	log.Info("Job submitted to MediaConvert", "job_id", id, "source", ref.URI())
	return nil
}
