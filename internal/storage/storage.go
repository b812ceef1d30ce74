// Package storage provides object storage access for the media pipelines.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ObjectStore is the object storage the pipelines read from and write to.
type ObjectStore interface {
	// PresignGet returns a time-limited read URL for an object.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	// GetObject reads a whole object.
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	// GetRange reads length bytes starting at offset. Short objects return fewer bytes.
	GetRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error)
	// PutObject writes an object with a content type and user metadata.
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string, metadata map[string]string) error
	// CopyObject copies src to dstBucket under the same key, replacing its
	// metadata so the copy carries contentType. Copying onto itself rewrites
	// the object's metadata in place.
	CopyObject(ctx context.Context, src Location, dstBucket, contentType string) error
	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Location is a bucket and key pair.
type Location struct {
	Bucket string
	Key    string
}

// URL returns the s3:// form of the location.
func (l Location) URL() string {
	return S3URL(l.Bucket, l.Key)
}

// S3URL joins bucket and key into an s3:// URL.
func S3URL(bucket, key string) string {
	return "s3://" + bucket + "/" + strings.TrimPrefix(key, "/")
}

// ParseS3URL splits an s3://bucket/key URL. The scheme is optional.
func ParseS3URL(raw string) (Location, error) {
	trimmed := strings.TrimPrefix(raw, "s3://")
	bucket, key, _ := strings.Cut(trimmed, "/")
	key = strings.TrimLeft(key, "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid object URL %q", raw)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// PathElements returns the bucket and key segments of an s3:// URL.
func PathElements(raw string) []string {
	return strings.Split(strings.TrimPrefix(raw, "s3://"), "/")
}

// ContentTypeMetadata is the user metadata written next to a content type,
// for consumers that only read x-amz-meta headers.
func ContentTypeMetadata(contentType string) map[string]string {
	return map[string]string{"Content-Type": contentType}
}

// copySource URL-encodes each segment of bucket/key for the copy source header.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}
