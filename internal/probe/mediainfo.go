package probe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/retry"
)

const (
	// SniffSize is how much of an object is read when mediainfo knows nothing about it.
	SniffSize = 3 * 1024

	// DefaultContentType is stored when no better type can be determined.
	DefaultContentType = "binary/octet-stream"
)

// GeneralTrack is the "General" track of a mediainfo report.
type GeneralTrack struct {
	Type              string `json:"@type"`
	FileName          string `json:"FileName"`
	FileExtension     string `json:"FileExtension"`
	FileNameExtension string `json:"FileNameExtension"`
	InternetMediaType string `json:"InternetMediaType"`
	FileSize          string `json:"FileSize"`
	FileSizeString    string `json:"FileSize_String"`
	Duration          string `json:"Duration"`
	Format            string `json:"Format"`
}

// DurationSeconds parses the track duration. Unknown durations are 0.
func (t GeneralTrack) DurationSeconds() float64 {
	v, _ := strconv.ParseFloat(t.Duration, 64)
	return v
}

type mediaInfoReport struct {
	Media *struct {
		Track []json.RawMessage `json:"track"`
	} `json:"media"`
}

// MediaInfo runs mediainfo against a URL with a bounded fixed-delay retry.
type MediaInfo struct {
	runner CommandRunner
	binary string
	policy retry.Policy
	log    *logger.Logger
}

// NewMediaInfo creates a mediainfo client.
func NewMediaInfo(runner CommandRunner, binary string, maxAttempts int, delay time.Duration, log *logger.Logger) *MediaInfo {
	m := &MediaInfo{runner: runner, binary: binary, log: log}
	m.policy = retry.Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Retryable:   func(err error) bool { return domainerrors.Is(err, domainerrors.ErrMediaInfo) },
		OnRetry: func(attempt int, err error) {
			m.log.Warn("mediainfo attempt failed", "attempt", attempt, "error", err)
		},
	}
	return m
}

// Lookup returns the general track of the media behind url,
// or nil when mediainfo does not recognise it as media.
func (m *MediaInfo) Lookup(ctx context.Context, url string) (*GeneralTrack, error) {
	res := retry.Do(ctx, m.policy, func(ctx context.Context) (*GeneralTrack, error) {
		return m.run(ctx, url)
	})
	return res.Unwrap()
}

func (m *MediaInfo) run(ctx context.Context, url string) (*GeneralTrack, error) {
	stdout, stderr, err := m.runner.Run(ctx, m.binary, "--full", "--output=JSON", url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domainerrors.MediaInfof("mediainfo failed: %s", strings.TrimSpace(string(stderr))).WithCause(err)
	}

	var report mediaInfoReport
	if err := json.Unmarshal(stdout, &report); err != nil {
		return nil, domainerrors.MediaInfof("mediainfo returned unparseable output").WithCause(err)
	}
	if report.Media == nil || len(report.Media.Track) == 0 {
		return nil, nil
	}

	var track GeneralTrack
	if err := json.Unmarshal(report.Media.Track[0], &track); err != nil {
		return nil, domainerrors.MediaInfof("mediainfo general track is malformed").WithCause(err)
	}
	return &track, nil
}

// ContentTypeFromInfo maps a general track to a content type.
// ok is false when the track carries no usable type.
func ContentTypeFromInfo(t *GeneralTrack) (contentType string, ok bool) {
	if t == nil {
		return "", false
	}
	switch strings.ToLower(t.FileExtension) {
	case "svg":
		return "image/svg+xml", true
	case "webp":
		return "image/webp", true
	}
	if t.InternetMediaType == "" {
		return "", false
	}
	return t.InternetMediaType, true
}

// SniffContentType detects a content type from the first bytes of an object.
func SniffContentType(head []byte) string {
	if len(head) == 0 {
		return DefaultContentType
	}
	mt := mimetype.Detect(head)
	if mt.Is("application/octet-stream") {
		return DefaultContentType
	}
	return mt.String()
}

// ObjectReader is the slice of object storage content-type resolution needs.
type ObjectReader interface {
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
	GetRange(ctx context.Context, bucket, key string, offset, length int64) ([]byte, error)
}

// ContentTypeResolver decides which content type a stored object should carry.
type ContentTypeResolver struct {
	objects ObjectReader
	info    *MediaInfo
	expiry  time.Duration
	log     *logger.Logger
}

// NewContentTypeResolver creates a resolver.
func NewContentTypeResolver(objects ObjectReader, info *MediaInfo, expiry time.Duration, log *logger.Logger) *ContentTypeResolver {
	return &ContentTypeResolver{objects: objects, info: info, expiry: expiry, log: log}
}

// Resolve asks mediainfo first and falls back to sniffing the object's first bytes.
func (r *ContentTypeResolver) Resolve(ctx context.Context, bucket, key string) (string, error) {
	url, err := r.objects.PresignGet(ctx, bucket, key, r.expiry)
	if err != nil {
		return "", err
	}

	track, err := r.info.Lookup(ctx, url)
	if err != nil {
		return "", err
	}
	if contentType, ok := ContentTypeFromInfo(track); ok {
		return contentType, nil
	}

	head, err := r.objects.GetRange(ctx, bucket, key, 0, SniffSize)
	if err != nil {
		r.log.Warn("content sniffing failed", "bucket", bucket, "key", key, "error", err)
		return DefaultContentType, nil
	}
	contentType := SniffContentType(head)
	r.log.Debug("content type sniffed", "key", key, "content_type", contentType)
	return contentType, nil
}
