package providers

import (
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/engine"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/notify"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// ProvideSubmitter provides the video submission pipeline.
func ProvideSubmitter(i do.Injector) (*pipeline.Submitter, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return pipeline.NewSubmitter(pipeline.SubmitConfig{
		DestinationBucket: cfg.Output.DestinationBucket,
		Role:              cfg.MediaConvert.Role,
		MaxWidth:          cfg.Resize.MaxWidth,
		MaxHeight:         cfg.Resize.MaxHeight,
		PresignExpiry:     cfg.Probe.PresignExpiry,
	}, pipeline.SubmitterDeps{
		Locator:   events.NewLocator(cfg.Input.FileSuffixes),
		Presigner: do.MustInvoke[storage.ObjectStore](i),
		Prober:    do.MustInvoke[*probe.Prober](i),
		Templates: do.MustInvoke[*jobspec.Loader](i),
		Engine:    do.MustInvoke[engine.Engine](i),
		Reporter:  do.MustInvoke[*notify.Reporter](i),
		Metrics:   do.MustInvoke[*metrics.Metrics](i),
		Logger:    do.MustInvoke[*logger.Logger](i),
	}), nil
}

// ProvideCompleter provides the job completion pipeline.
func ProvideCompleter(i do.Injector) (*pipeline.Completer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	awsCfg := do.MustInvoke[aws.Config](i)

	return pipeline.NewCompleter(pipeline.CompleteConfig{
		TopicARN: cfg.Output.TopicARN,
		Region:   awsCfg.Region,
	}, pipeline.CompleterDeps{
		Engine:       do.MustInvoke[engine.Engine](i),
		Objects:      do.MustInvoke[storage.ObjectStore](i),
		ContentTypes: do.MustInvoke[*probe.ContentTypeResolver](i),
		Publisher:    do.MustInvoke[notify.Publisher](i),
		Dedup:        do.MustInvoke[*DedupHandle](i).Store,
		Reporter:     do.MustInvoke[*notify.Reporter](i),
		Metrics:      do.MustInvoke[*metrics.Metrics](i),
		Logger:       do.MustInvoke[*logger.Logger](i),
	}), nil
}

// ProvideAudioProcessor provides the audio pass-through pipeline.
func ProvideAudioProcessor(i do.Injector) (*pipeline.AudioProcessor, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return pipeline.NewAudioProcessor(pipeline.AudioConfig{
		DestinationBucket: cfg.Output.DestinationBucket,
		TopicARN:          cfg.Output.TopicARN,
	}, pipeline.AudioDeps{
		Locator:      events.NewLocator(cfg.Input.AudioFileSuffixes),
		Objects:      do.MustInvoke[storage.ObjectStore](i),
		ContentTypes: do.MustInvoke[*probe.ContentTypeResolver](i),
		Publisher:    do.MustInvoke[notify.Publisher](i),
		Reporter:     do.MustInvoke[*notify.Reporter](i),
		Metrics:      do.MustInvoke[*metrics.Metrics](i),
		Logger:       do.MustInvoke[*logger.Logger](i),
	}), nil
}

// ProvideMediaInfoService provides media-info lookups for video and audio files.
func ProvideMediaInfoService(i do.Injector) (*pipeline.MediaInfoService, error) {
	cfg := do.MustInvoke[*config.Config](i)

	suffixes := slices.Concat(cfg.Input.FileSuffixes, cfg.Input.AudioFileSuffixes)
	return pipeline.NewMediaInfoService(
		events.NewLocator(suffixes),
		do.MustInvoke[*validation.Validator](i),
		do.MustInvoke[storage.ObjectStore](i),
		do.MustInvoke[*probe.MediaInfo](i),
		cfg.Probe.PresignExpiry,
		do.MustInvoke[*metrics.Metrics](i),
		do.MustInvoke[*logger.Logger](i),
	), nil
}
