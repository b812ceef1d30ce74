package probe

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/logger"
	"github.com/crawlora/aws-platform-engineering/internal/retry"
)

// Stream codec types reported by ffprobe.
const (
	CodecTypeVideo = "video"
	CodecTypeAudio = "audio"
)

// Result is the parsed ffprobe report for one input.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes one elementary stream of the input.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name,omitempty"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

// Format describes the container. ffprobe reports numbers as strings; they are
// kept verbatim so they can be forwarded unchanged.
type Format struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

// DurationSeconds parses the container duration. Unknown durations are 0.
func (f Format) DurationSeconds() float64 {
	v, _ := strconv.ParseFloat(f.Duration, 64)
	return v
}

// SizeBytes parses the container size. Unknown sizes are 0.
func (f Format) SizeBytes() int64 {
	v, _ := strconv.ParseInt(f.Size, 10, 64)
	return v
}

// BitRateBps parses the container bit rate. Unknown bit rates are 0.
func (f Format) BitRateBps() int64 {
	v, _ := strconv.ParseInt(f.BitRate, 10, 64)
	return v
}

// Prober runs ffprobe against a URL with a bounded fixed-delay retry.
type Prober struct {
	runner CommandRunner
	binary string
	policy retry.Policy
	log    *logger.Logger
}

// NewProber creates a prober. Only tool failures are retried; the result's
// content is never a reason to call ffprobe again.
func NewProber(runner CommandRunner, binary string, maxAttempts int, delay time.Duration, log *logger.Logger) *Prober {
	p := &Prober{runner: runner, binary: binary, log: log}
	p.policy = retry.Policy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		Retryable:   func(err error) bool { return domainerrors.Is(err, domainerrors.ErrFFProbe) },
		OnRetry: func(attempt int, err error) {
			p.log.Warn("ffprobe attempt failed", "attempt", attempt, "error", err)
		},
	}
	return p
}

// Probe inspects the media behind url.
func (p *Prober) Probe(ctx context.Context, url string) (*Result, error) {
	res := retry.Do(ctx, p.policy, func(ctx context.Context) (*Result, error) {
		return p.run(ctx, url)
	})
	if !res.OK() {
		return nil, res.Err
	}

	p.log.Debug("ffprobe finished", "attempts", res.Attempts, "streams", len(res.Value.Streams))
	return res.Value, nil
}

func (p *Prober) run(ctx context.Context, url string) (*Result, error) {
	stdout, stderr, err := p.runner.Run(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-i", url,
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domainerrors.FFProbef("ffprobe failed: %s", strings.TrimSpace(string(stderr))).WithCause(err)
	}

	var result Result
	if err := json.Unmarshal(stdout, &result); err != nil {
		return nil, domainerrors.FFProbef("ffprobe returned unparseable output").WithCause(err)
	}
	return &result, nil
}

// ValidateInputProbe rejects inputs that cannot be transcoded to video.
func ValidateInputProbe(r *Result) error {
	if r == nil || len(r.Streams) == 0 {
		return domainerrors.InputFormat("No streams found in the input file")
	}
	if len(r.Streams) == 1 && r.Streams[0].CodecType == CodecTypeAudio {
		return domainerrors.InputFormat("Input file is audio only")
	}
	return nil
}

// WidthHeight returns the dimensions of the first video stream.
// ok is false when the input has no video stream.
func WidthHeight(r *Result) (width, height int, ok bool) {
	if r == nil {
		return 0, 0, false
	}
	for _, s := range r.Streams {
		if s.CodecType == CodecTypeVideo {
			return s.Width, s.Height, true
		}
	}
	return 0, 0, false
}
