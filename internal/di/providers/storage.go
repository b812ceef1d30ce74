package providers

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/samber/do/v2"

	"github.com/crawlora/aws-platform-engineering/internal/config"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
)

// ProvideObjectStore provides the object store selected by STORAGE_BACKEND.
func ProvideObjectStore(i do.Injector) (storage.ObjectStore, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Storage.Backend == "minio" {
		store, err := storage.NewMinIOStore(storage.MinIOConfig{
			Endpoint:  cfg.Storage.MinIOEndpoint,
			AccessKey: cfg.Storage.MinIOAccessKey,
			SecretKey: cfg.Storage.MinIOSecretKey,
			UseSSL:    cfg.Storage.MinIOUseSSL,
			Region:    cfg.App.Region,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Object storage initialized", "backend", "minio", "endpoint", cfg.Storage.MinIOEndpoint)
		return store, nil
	}

	awsCfg := do.MustInvoke[aws.Config](i)
	log.Info("Object storage initialized", "backend", "s3", "region", awsCfg.Region)
	return storage.NewS3Store(awsCfg), nil
}
