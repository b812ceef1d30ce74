package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/dedup"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
)

// DedupHandle wraps the idempotency store with shutdown capability.
type DedupHandle struct {
	dedup.Store
}

// Shutdown implements do.Shutdownable.
func (h *DedupHandle) Shutdown() error {
	return h.Close()
}

// ProvideDedup provides the completion-event idempotency store selected by DEDUP_BACKEND.
func ProvideDedup(i do.Injector) (*DedupHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	expiry := dedup.Expiry{Lease: cfg.Dedup.Lease, Done: cfg.Dedup.TTL}

	switch cfg.Dedup.Backend {
	case "badger":
		store, err := dedup.NewBadger(cfg.Dedup.Path, expiry, log.Logger)
		if err != nil {
			return nil, err
		}
		return &DedupHandle{Store: store}, nil
	case "redis":
		store, err := dedup.NewRedis(context.Background(), dedup.RedisConfig{
			Addr:     cfg.Dedup.RedisAddr,
			Password: cfg.Dedup.RedisPassword,
			DB:       cfg.Dedup.RedisDB,
		}, expiry)
		if err != nil {
			return nil, err
		}
		log.Info("Dedup store connected", "backend", "redis", "addr", cfg.Dedup.RedisAddr)
		return &DedupHandle{Store: store}, nil
	default:
		return &DedupHandle{Store: dedup.Noop{}}, nil
	}
}
