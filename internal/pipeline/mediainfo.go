package pipeline

import (
	"context"
	"time"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/metrics"
	"github.com/crawlora/aws-platform-engineering/internal/probe"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

// MediaLookup reads the general track of the media behind a URL.
type MediaLookup interface {
	Lookup(ctx context.Context, url string) (*probe.GeneralTrack, error)
}

// MediaInfo is the technical description returned for a stored object.
type MediaInfo struct {
	FileName          string  `json:"filename"`
	FileExtension     string  `json:"file_extension"`
	FileNameExtension string  `json:"filname_extension"`
	ContentType       string  `json:"content-type"`
	FileSize          string  `json:"file_size"`
	DurationSeconds   float64 `json:"duration_seconds"`
	Format            string  `json:"format"`
}

// MediaInfoService answers media-info requests.
type MediaInfoService struct {
	locator   *events.Locator
	validator *validation.Validator
	presigner Presigner
	lookup    MediaLookup
	expiry    time.Duration
	metrics   *metrics.Metrics
	log       *logger.Logger
}

// NewMediaInfoService creates a MediaInfoService.
func NewMediaInfoService(locator *events.Locator, v *validation.Validator, presigner Presigner, lookup MediaLookup, expiry time.Duration, m *metrics.Metrics, log *logger.Logger) *MediaInfoService {
	return &MediaInfoService{
		locator:   locator,
		validator: v,
		presigner: presigner,
		lookup:    lookup,
		expiry:    expiry,
		metrics:   m,
		log:       log,
	}
}

// Describe parses a strict {"path": "s3://..."} request and looks the object up.
// Request problems are validation, payload or file errors; a nil report is
// a MEDIAINFO error.
func (s *MediaInfoService) Describe(ctx context.Context, raw []byte) (*MediaInfo, error) {
	req, err := events.ParseMediaInfoRequest(raw, s.validator, s.locator).Unwrap()
	if err != nil {
		s.log.Info("Payload validation error", "error", err)
		return nil, err
	}

	loc, err := storage.ParseS3URL(req.Path)
	if err != nil {
		return nil, domainerrors.UnsupportedPayloadf("Not an S3 file path: %s", req.Path)
	}

	url, err := s.presigner.PresignGet(ctx, loc.Bucket, loc.Key, s.expiry)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	track, err := s.lookup.Lookup(ctx, url)
	s.metrics.ToolDuration.WithLabelValues("mediainfo").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if track == nil {
		return nil, domainerrors.MediaInfof("No media information found.")
	}

	return &MediaInfo{
		FileName:          track.FileName,
		FileExtension:     track.FileExtension,
		FileNameExtension: track.FileNameExtension,
		ContentType:       track.InternetMediaType,
		FileSize:          track.FileSizeString,
		DurationSeconds:   track.DurationSeconds(),
		Format:            track.Format,
	}, nil
}
