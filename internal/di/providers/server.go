package providers

import (
	"context"
	"errors"
	"net/http"
	"os/exec"
	"time"

	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/api"
	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
	"github.com/crawlora/aws-platform-engineering/internal/ratelimit"
)

const limiterSweepInterval = time.Minute

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	stopSweeper context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	h.stopSweeper()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the local ingress and starts serving in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	limiter := ratelimit.New(cfg.Server.RateLimit, cfg.Server.RateBurst)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go limiter.Run(sweepCtx, limiterSweepInterval)

	handler := api.NewServer(api.Pipelines{
		Submit:    do.MustInvoke[*pipeline.Submitter](i),
		Complete:  do.MustInvoke[*pipeline.Completer](i),
		Audio:     do.MustInvoke[*pipeline.AudioProcessor](i),
		MediaInfo: do.MustInvoke[*pipeline.MediaInfoService](i),
	}, do.MustInvoke[*metrics.Metrics](i), log, api.Options{
		Limiter: limiter,
		Checks: map[string]api.HealthCheck{
			"ffprobe":   binaryCheck(cfg.Probe.FFprobePath),
			"mediainfo": binaryCheck(cfg.Probe.MediaInfoPath),
		},
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, stopSweeper: stopSweeper}, nil
}

// binaryCheck reports whether an inspection tool can be found on PATH.
func binaryCheck(path string) api.HealthCheck {
	return func(context.Context) error {
		_, err := exec.LookPath(path)
		return err
	}
}
