package pipeline

import (
	"context"

	"github.com/crawlora/aws-platform-engineering/internal/dedup"
	"github.com/crawlora/aws-platform-engineering/internal/engine"
	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
	"github.com/crawlora/aws-platform-engineering/internal/thumbnail"
)

// ContentTypeResolver decides the content type of a stored object.
type ContentTypeResolver interface {
	Resolve(ctx context.Context, bucket, key string) (string, error)
}

// CompleteConfig holds the settings of the completion pipeline.
type CompleteConfig struct {
	TopicARN string
	// Region is used for console links when the event does not name one.
	Region string
}

// CompleterDeps groups the collaborators of a Completer.
type CompleterDeps struct {
	Engine       engine.Engine
	Objects      storage.ObjectStore
	ContentTypes ContentTypeResolver
	Publisher    notify.Publisher
	Dedup        dedup.Store
	Reporter     FailureReporter
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

// Completer reacts to transcoding job state changes.
type Completer struct {
	cfg          CompleteConfig
	engine       engine.Engine
	objects      storage.ObjectStore
	contentTypes ContentTypeResolver
	publisher    notify.Publisher
	dedup        dedup.Store
	dispatcher   *Dispatcher
	metrics      *metrics.Metrics
	log          *logger.Logger
}

// NewCompleter creates a Completer. A nil Dedup store disables deduplication.
func NewCompleter(cfg CompleteConfig, deps CompleterDeps) *Completer {
	store := deps.Dedup
	if store == nil {
		store = dedup.Noop{}
	}
	return &Completer{
		cfg:          cfg,
		engine:       deps.Engine,
		objects:      deps.Objects,
		contentTypes: deps.ContentTypes,
		publisher:    deps.Publisher,
		dedup:        store,
		dispatcher:   NewDispatcher(NameComplete, deps.Reporter, deps.Metrics, deps.Logger),
		metrics:      deps.Metrics,
		log:          deps.Logger,
	}
}

// Handle processes one job state-change event.
//
// Progress updates are ignored before any lookup. Each (job, status) pair is leased
// before the work and marked done once it was delivered or reported. A failure that is
// returned to the host releases the lease so a redelivery can retry it, and a lease left
// by an invocation that never returned lapses on its own.
func (c *Completer) Handle(ctx context.Context, inv Invocation, raw []byte) error {
	log := c.log.ForInvocation(inv.RequestID, inv.LogGroup)
	log.Info("REQUEST", "event", string(raw))

	event, err := events.DecodeJobEvent(raw).Unwrap()
	if err != nil {
		return c.dispatcher.Handle(ctx, inv, err, "")
	}
	log = log.WithJob(event.JobID, string(event.Status))
	c.metrics.JobStatuses.WithLabelValues(string(event.Status)).Inc()

	if event.Status.Informational() {
		c.dispatcher.Skip(log, "Ignoring status")
		return nil
	}

	key := dedup.Key(event.JobID, string(event.Status))
	claimed, err := c.dedup.Claim(ctx, key)
	if err != nil {
		log.Warn("Dedup store unavailable, processing event anyway", "error", err)
		claimed = true
	}
	if !claimed {
		c.metrics.Duplicates.Inc()
		c.dispatcher.Skip(log, "Ignoring duplicate event", "key", key)
		return nil
	}

	path := event.JobID
	summary, err := engine.Summarize(ctx, c.engine, event)
	if err == nil {
		path = summary.SourceKey()
		err = c.handleStatus(ctx, log, event, summary)
	}

	result := c.dispatcher.Handle(ctx, inv, err, path)
	if result != nil {
		if releaseErr := c.dedup.Release(ctx, key); releaseErr != nil {
			log.Warn("Failed to release dedup claim", "key", key, "error", releaseErr)
		}
		return result
	}
	if doneErr := c.dedup.Complete(ctx, key); doneErr != nil {
		log.Warn("Failed to mark event done", "key", key, "error", doneErr)
	}
	return nil
}

func (c *Completer) handleStatus(ctx context.Context, log *logger.Logger, event events.JobEvent, summary *engine.Summary) error {
	switch {
	case event.Status == events.StatusComplete:
		return c.finalize(ctx, log, summary)
	case event.Status.Failed():
		region := event.Region
		if region == "" {
			region = c.cfg.Region
		}
		return domainerrors.ElementalConvert(notify.ConsoleJobLink(region, event.JobID))
	default:
		return domainerrors.UnknownStatusf("Unknown job status: %s", event.Status)
	}
}

// finalize corrects the output's content type, publishes its thumbnail and announces it.
func (c *Completer) finalize(ctx context.Context, log *logger.Logger, summary *engine.Summary) error {
	if summary.OutputFile == "" {
		return domainerrors.ElementalConvertf("Job completed without an output file: %s", summary.ID)
	}
	output, err := storage.ParseS3URL(summary.OutputFile)
	if err != nil {
		return domainerrors.ElementalConvertf("Job completed with an invalid output file: %s", summary.OutputFile)
	}

	contentType, err := c.contentTypes.Resolve(ctx, output.Bucket, output.Key)
	if err != nil {
		return err
	}
	if err := c.objects.CopyObject(ctx, output, output.Bucket, contentType); err != nil {
		return err
	}
	log.Info("Output content type set", "output", summary.OutputFile, "content_type", contentType)

	pngKey, hash, err := c.publishThumbnail(ctx, output)
	if err != nil {
		return err
	}
	summary.Thumbnail = storage.S3URL(output.Bucket, pngKey)
	summary.BlurHash = hash
	log.Info("Thumbnail uploaded", "thumbnail", summary.Thumbnail)

	data, err := summary.ToMap()
	if err != nil {
		return err
	}
	msg := notify.NewJobStatusMessage(string(events.StatusComplete), summary.ID, summary.InputFile, summary.OutputFile, summary.PathElements, data)
	return c.publisher.Publish(ctx, c.cfg.TopicARN, msg)
}

func (c *Completer) publishThumbnail(ctx context.Context, output storage.Location) (string, string, error) {
	captureKey, pngKey := thumbnail.Keys(output.Key)

	capture, err := c.objects.GetObject(ctx, output.Bucket, captureKey)
	if err != nil {
		return "", "", err
	}
	png, hash, err := thumbnail.Convert(capture)
	if err != nil {
		return "", "", err
	}
	err = c.objects.PutObject(ctx, output.Bucket, pngKey, png, thumbnail.ContentType, storage.ContentTypeMetadata(thumbnail.ContentType))
	if err != nil {
		return "", "", err
	}
	return pngKey, hash, nil
}
