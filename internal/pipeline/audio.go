package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
)

// AudioConfig holds the settings of the audio pipeline.
type AudioConfig struct {
	DestinationBucket string
	TopicARN          string
}

// AudioDeps groups the collaborators of an AudioProcessor.
type AudioDeps struct {
	Locator      *events.Locator
	Objects      storage.ObjectStore
	ContentTypes ContentTypeResolver
	Publisher    notify.Publisher
	Reporter     FailureReporter
	Metrics      *metrics.Metrics
	Logger       *logger.Logger
}

// AudioProcessor moves uploaded audio to the destination bucket without transcoding it.
type AudioProcessor struct {
	cfg          AudioConfig
	locator      *events.Locator
	objects      storage.ObjectStore
	contentTypes ContentTypeResolver
	publisher    notify.Publisher
	dispatcher   *Dispatcher
	log          *logger.Logger
	newID        func() string
}

// NewAudioProcessor creates an AudioProcessor.
func NewAudioProcessor(cfg AudioConfig, deps AudioDeps) *AudioProcessor {
	return &AudioProcessor{
		cfg:          cfg,
		locator:      deps.Locator,
		objects:      deps.Objects,
		contentTypes: deps.ContentTypes,
		publisher:    deps.Publisher,
		dispatcher:   NewDispatcher(NameAudio, deps.Reporter, deps.Metrics, deps.Logger),
		log:          deps.Logger,
		newID:        uuid.NewString,
	}
}

// Handle processes one storage notification.
func (a *AudioProcessor) Handle(ctx context.Context, inv Invocation, raw []byte) error {
	log := a.log.ForInvocation(inv.RequestID, inv.LogGroup)
	log.Info("REQUEST", "event", string(raw))

	ref, err := a.locator.Locate(raw)
	if err == nil {
		err = a.process(ctx, log, ref)
	}
	return a.dispatcher.Handle(ctx, inv, err, ref.Key)
}

// process copies the source to the destination with its content type set, removes
// the source and announces the result.
func (a *AudioProcessor) process(ctx context.Context, log *logger.Logger, ref events.SourceReference) error {
	contentType, err := a.contentTypes.Resolve(ctx, ref.Bucket, ref.Key)
	if err != nil {
		return err
	}

	src := storage.Location{Bucket: ref.Bucket, Key: ref.Key}
	if err := a.objects.CopyObject(ctx, src, a.cfg.DestinationBucket, contentType); err != nil {
		return err
	}
	if err := a.objects.DeleteObject(ctx, ref.Bucket, ref.Key); err != nil {
		return err
	}

	output := storage.S3URL(a.cfg.DestinationBucket, ref.Key)
	log.Info("Audio moved", "input", ref.URI(), "output", output, "content_type", contentType)

	msg := notify.NewJobStatusMessage(string(events.StatusComplete), a.newID(), ref.URI(), output, ref.PathElements(), nil)
	return a.publisher.Publish(ctx, a.cfg.TopicARN, msg)
}
