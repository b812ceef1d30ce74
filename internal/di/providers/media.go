package providers

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/engine"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// ProvideEngine provides the MediaConvert transcoding engine.
func ProvideEngine(i do.Injector) (engine.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	awsCfg := do.MustInvoke[aws.Config](i)

	return engine.NewMediaConvert(awsCfg, cfg.MediaConvert.Endpoint, cfg.MediaConvert.SubmitRateLimit), nil
}

// ProvideTemplateLoader provides the job template loader.
func ProvideTemplateLoader(i do.Injector) (*jobspec.Loader, error) {
	cfg := do.MustInvoke[*config.Config](i)
	objects := do.MustInvoke[storage.ObjectStore](i)
	v := do.MustInvoke[*validation.Validator](i)

	return jobspec.NewLoader(objects, cfg.Template.Bucket, cfg.Template.Key, v), nil
}

// ProvideProber provides the ffprobe media prober.
func ProvideProber(i do.Injector) (*probe.Prober, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return probe.NewProber(probe.ExecRunner{}, cfg.Probe.FFprobePath, cfg.Probe.MaxAttempts, cfg.Probe.RetryDelay, log), nil
}

// ProvideMediaInfo provides the mediainfo lookup.
func ProvideMediaInfo(i do.Injector) (*probe.MediaInfo, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return probe.NewMediaInfo(probe.ExecRunner{}, cfg.Probe.MediaInfoPath, cfg.Probe.MaxAttempts, cfg.Probe.RetryDelay, log), nil
}

// ProvideContentTypeResolver provides content-type resolution for finalized objects.
func ProvideContentTypeResolver(i do.Injector) (*probe.ContentTypeResolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	objects := do.MustInvoke[storage.ObjectStore](i)
	info := do.MustInvoke[*probe.MediaInfo](i)

	return probe.NewContentTypeResolver(objects, info, cfg.Probe.PresignExpiry, log), nil
}
