package storage

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// MinIOConfig holds connection settings for an S3-compatible MinIO server.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
}

// MinIOStore is an ObjectStore backed by MinIO, used for local development.
type MinIOStore struct {
	client *minio.Client
}

// NewMinIOStore connects to a MinIO server. No request is made until first use.
func NewMinIOStore(cfg MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "minio connection")
	}
	return &MinIOStore{client: client}, nil
}

// PresignGet returns a time-limited GET URL.
func (m *MinIOStore) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, bucket, key, expiry, url.Values{})
	if err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to presign s3://%s/%s", bucket, key)
	}
	return u.String(), nil
}

// GetObject downloads a whole object.
func (m *MinIOStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	return m.get(ctx, bucket, key, minio.GetObjectOptions{})
}

// GetRange downloads part of an object.
func (m *MinIOStore) GetRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}
	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(offset, offset+length-1); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeStorage, "invalid range")
	}
	return m.get(ctx, bucket, key, opts)
}

func (m *MinIOStore) get(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to download s3://%s/%s", bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to read body of s3://%s/%s", bucket, key)
	}
	return data, nil
}

// PutObject uploads an object.
func (m *MinIOStore) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	_, err := m.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to upload s3://%s/%s", bucket, key)
	}
	return nil
}

// CopyObject copies src to dstBucket with replaced metadata. MinIO sends
// standard headers found in UserMetadata as real headers, which is how the
// content type of the copy is set.
func (m *MinIOStore) CopyObject(ctx context.Context, src Location, dstBucket, contentType string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket:          dstBucket,
			Object:          src.Key,
			ReplaceMetadata: true,
			UserMetadata:    ContentTypeMetadata(contentType),
		},
		minio.CopySrcOptions{Bucket: src.Bucket, Object: src.Key},
	)
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to copy %s to s3://%s/%s", src.URL(), dstBucket, src.Key)
	}
	return nil
}

// DeleteObject removes an object.
func (m *MinIOStore) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := m.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to delete s3://%s/%s", bucket, key)
	}
	return nil
}
