package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// S3Store is an ObjectStore backed by Amazon S3.
type S3Store struct {
	client   *s3.Client
	presign  *s3.PresignClient
	uploader *manager.Uploader
}

// NewS3Store creates an S3 store from an AWS configuration.
func NewS3Store(cfg aws.Config, optFns ...func(*s3.Options)) *S3Store {
	client := s3.NewFromConfig(cfg, optFns...)
	return &S3Store{
		client:   client,
		presign:  s3.NewPresignClient(client),
		uploader: manager.NewUploader(client),
	}
}

// PresignGet returns a time-limited GET URL.
func (s *S3Store) PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to presign s3://%s/%s", bucket, key)
	}
	return req.URL, nil
}

// GetObject downloads a whole object.
func (s *S3Store) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	return s.get(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}

// GetRange downloads part of an object.
func (s *S3Store) GetRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error) {
	if length <= 0 {
		return nil, nil
	}
	return s.get(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, offset+length-1)),
	})
}

func (s *S3Store) get(ctx context.Context, in *s3.GetObjectInput) ([]byte, error) {
	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to download s3://%s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	defer out.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(out.Body); err != nil {
		return nil, domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to read body of s3://%s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	return buf.Bytes(), nil
}

// PutObject uploads an object, switching to multipart for large bodies.
func (s *S3Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to upload s3://%s/%s", bucket, key)
	}
	return nil
}

// CopyObject copies src to dstBucket with replaced metadata.
func (s *S3Store) CopyObject(ctx context.Context, src Location, dstBucket, contentType string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(dstBucket),
		Key:               aws.String(src.Key),
		CopySource:        aws.String(copySource(src.Bucket, src.Key)),
		ContentType:       aws.String(contentType),
		Metadata:          ContentTypeMetadata(contentType),
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to copy %s to s3://%s/%s", src.URL(), dstBucket, src.Key)
	}
	return nil
}

// DeleteObject removes an object.
func (s *S3Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeStorage, "failed to delete s3://%s/%s", bucket, key)
	}
	return nil
}
