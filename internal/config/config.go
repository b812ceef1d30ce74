// Package config builds the single configuration value shared by every pipeline.
// It is loaded once at process start and handed to components explicitly.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

const defaultAudioSuffixes = ".mp3,.m4a,.aac,.wav,.flac,.ogg"

// Function names the deployable unit a Config is validated for.
type Function string

// Deployable units.
const (
	FunctionSubmit   Function = "submit-video"
	FunctionComplete Function = "complete-video"
	FunctionAudio    Function = "process-audio"
	FunctionServer   Function = "server"
)

// Config holds the application configuration.
type Config struct {
	App          AppConfig
	Logger       LoggerConfig
	Sentry       SentryConfig
	MediaConvert MediaConvertConfig
	Template     TemplateConfig
	Output       OutputConfig
	Resize       ResizeConfig
	Input        InputConfig
	Probe        ProbeConfig
	Storage      StorageConfig
	Dedup        DedupConfig
	Server       ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `env:"ENVIRONMENT" validate:"oneof=local development staging production"`
	Region      string `env:"AWS_REGION"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string `env:"LOG_LEVEL" validate:"oneof=debug info warn warning error"`
}

// SentryConfig holds error telemetry configuration. An empty DSN disables it.
type SentryConfig struct {
	DSN              string  `env:"SENTRY_DSN"`
	TracesSampleRate float64 `env:"SENTRY_TRACES_SAMPLE_RATE" validate:"gte=0,lte=1"`
}

// MediaConvertConfig holds transcoding engine configuration.
type MediaConvertConfig struct {
	Endpoint string `env:"MEDIACONVERT_ENDPOINT" validate:"required,url"`
	Role     string `env:"MEDIACONVERT_ROLE" validate:"required"`
	// SubmitRateLimit caps CreateJob calls per second from one process.
	SubmitRateLimit float64 `env:"SUBMIT_RATE_LIMIT" validate:"gt=0"`
}

// TemplateConfig locates the job template document.
type TemplateConfig struct {
	Bucket string `env:"CONFIG_BUCKET" validate:"required"`
	Key    string `env:"JOB_CONFIG" validate:"required"`
}

// OutputConfig holds destination and notification settings.
type OutputConfig struct {
	DestinationBucket string `env:"DESTINATION_BUCKET" validate:"required"`
	TopicARN          string `env:"SNS_TOPIC_ARN" validate:"required"`
}

// ResizeConfig bounds the longer side of the output.
type ResizeConfig struct {
	MaxWidth  int `env:"MAX_WIDTH" validate:"gt=0"`
	MaxHeight int `env:"MAX_HEIGHT" validate:"gt=0"`
}

// InputConfig holds the extension allow-lists of the video and audio pipelines.
type InputConfig struct {
	FileSuffixes      []string `env:"INPUT_FILE_SUFFIXES" validate:"min=1"`
	AudioFileSuffixes []string `env:"AUDIO_FILE_SUFFIXES" validate:"min=1"`
}

// ProbeConfig holds external inspection tool settings.
type ProbeConfig struct {
	FFprobePath   string        `env:"FFPROBE_PATH" validate:"required"`
	MediaInfoPath string        `env:"MEDIAINFO_PATH" validate:"required"`
	MaxAttempts   int           `env:"PROBE_MAX_ATTEMPTS" validate:"gt=0"`
	RetryDelay    time.Duration `env:"PROBE_RETRY_DELAY" validate:"gte=0"`
	PresignExpiry time.Duration `env:"PRESIGN_EXPIRY" validate:"gt=0"`
}

// StorageConfig selects the object storage backend.
type StorageConfig struct {
	Backend        string `env:"STORAGE_BACKEND" validate:"oneof=s3 minio"`
	MinIOEndpoint  string `env:"MINIO_ENDPOINT" validate:"required_if=Backend minio"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY" validate:"required_if=Backend minio"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY" validate:"required_if=Backend minio"`
	MinIOUseSSL    bool   `env:"MINIO_USE_SSL"`
}

// DedupConfig selects the completion-event idempotency store.
type DedupConfig struct {
	Backend       string        `env:"DEDUP_BACKEND" validate:"oneof=none badger redis"`
	Path          string        `env:"DEDUP_PATH" validate:"required_if=Backend badger"`
	TTL           time.Duration `env:"DEDUP_TTL" validate:"gt=0"`
	Lease         time.Duration `env:"DEDUP_LEASE" validate:"gt=0,ltefield=TTL"`
	RedisAddr     string        `env:"REDIS_ADDR" validate:"required_if=Backend redis"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" validate:"gte=0"`
}

// ServerConfig holds local ingress configuration.
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" validate:"required"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" validate:"gt=0"`
	// RateLimit is requests per second per client IP.
	RateLimit float64 `env:"SERVER_RATE_LIMIT" validate:"gt=0"`
	RateBurst int     `env:"SERVER_RATE_BURST" validate:"gt=0"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("mediaconv", flag.ContinueOnError)
	env := fs.String("env", "", "Environment (local, development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	serverPort := fs.String("port", "", "Local ingress port (default: 8080)")
	storageBackend := fs.String("storage", "", "Object storage backend: s3 or minio")
	dedupBackend := fs.String("dedup", "", "Completion dedup backend: none, badger or redis")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are normal in Lambda.
	_ = godotenv.Load(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENVIRONMENT", "local"),
			Region:      getConfigValue("", "AWS_REGION", os.Getenv("AWS_DEFAULT_REGION")),
		},
		Logger: LoggerConfig{
			Level: strings.ToLower(getConfigValue(*logLevel, "LOG_LEVEL", "info")),
		},
		Sentry: SentryConfig{
			DSN: getConfigValue("", "SENTRY_DSN", ""),
		},
		MediaConvert: MediaConvertConfig{
			Endpoint: getConfigValue("", "MEDIACONVERT_ENDPOINT", ""),
			Role:     getConfigValue("", "MEDIACONVERT_ROLE", ""),
		},
		Template: TemplateConfig{
			Bucket: getConfigValue("", "CONFIG_BUCKET", ""),
			Key:    getConfigValue("", "JOB_CONFIG", ""),
		},
		Output: OutputConfig{
			DestinationBucket: getConfigValue("", "DESTINATION_BUCKET", ""),
			TopicARN:          getConfigValue("", "SNS_TOPIC_ARN", ""),
		},
		Probe: ProbeConfig{
			FFprobePath:   getConfigValue("", "FFPROBE_PATH", "ffprobe"),
			MediaInfoPath: getConfigValue("", "MEDIAINFO_PATH", "mediainfo"),
		},
		Storage: StorageConfig{
			Backend:        getConfigValue(*storageBackend, "STORAGE_BACKEND", "s3"),
			MinIOEndpoint:  getConfigValue("", "MINIO_ENDPOINT", ""),
			MinIOAccessKey: getConfigValue("", "MINIO_ACCESS_KEY", ""),
			MinIOSecretKey: getConfigValue("", "MINIO_SECRET_KEY", ""),
			MinIOUseSSL:    getBoolConfigValue("", "MINIO_USE_SSL", true),
		},
		Dedup: DedupConfig{
			Backend:       getConfigValue(*dedupBackend, "DEDUP_BACKEND", "none"),
			Path:          getConfigValue("", "DEDUP_PATH", "/tmp/mediaconv-dedup"),
			RedisAddr:     getConfigValue("", "REDIS_ADDR", ""),
			RedisPassword: getConfigValue("", "REDIS_PASSWORD", ""),
		},
		Server: ServerConfig{
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
	}

	var err error
	if cfg.Sentry.TracesSampleRate, err = getFloatConfigValue("SENTRY_TRACES_SAMPLE_RATE", 0.1); err != nil {
		return nil, err
	}
	if cfg.MediaConvert.SubmitRateLimit, err = getFloatConfigValue("SUBMIT_RATE_LIMIT", 2); err != nil {
		return nil, err
	}
	if cfg.Resize.MaxWidth, err = getIntConfigValue("MAX_WIDTH", 1920); err != nil {
		return nil, err
	}
	if cfg.Resize.MaxHeight, err = getIntConfigValue("MAX_HEIGHT", 1920); err != nil {
		return nil, err
	}
	if cfg.Probe.MaxAttempts, err = getIntConfigValue("PROBE_MAX_ATTEMPTS", 5); err != nil {
		return nil, err
	}
	if cfg.Dedup.RedisDB, err = getIntConfigValue("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Server.RateLimit, err = getFloatConfigValue("SERVER_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.Server.RateBurst, err = getIntConfigValue("SERVER_RATE_BURST", 20); err != nil {
		return nil, err
	}

	durations := []struct {
		dst *time.Duration
		key string
		def string
	}{
		{&cfg.Probe.RetryDelay, "PROBE_RETRY_DELAY", "3s"},
		{&cfg.Probe.PresignExpiry, "PRESIGN_EXPIRY", "2h"},
		{&cfg.Dedup.TTL, "DEDUP_TTL", "24h"},
		{&cfg.Dedup.Lease, "DEDUP_LEASE", "15m"},
		{&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT", "5m"},
	}
	for _, d := range durations {
		raw := getConfigValue("", d.key, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
		*d.dst = parsed
	}

	suffixes, err := ParseSuffixes(getConfigValue("", "INPUT_FILE_SUFFIXES", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid INPUT_FILE_SUFFIXES: %w", err)
	}
	cfg.Input.FileSuffixes = suffixes

	audio, err := ParseSuffixes(getConfigValue("", "AUDIO_FILE_SUFFIXES", defaultAudioSuffixes))
	if err != nil {
		return nil, fmt.Errorf("invalid AUDIO_FILE_SUFFIXES: %w", err)
	}
	cfg.Input.AudioFileSuffixes = audio

	return cfg, nil
}

// Validate checks the sections the given function depends on.
func (c *Config) Validate(fn Function) error {
	v := validation.New()

	sections := []any{c.App, c.Logger, c.Sentry, c.Probe, c.Storage}
	switch fn {
	case FunctionSubmit:
		sections = append(sections, c.MediaConvert, c.Template, c.Output, c.Resize, c.Input)
	case FunctionComplete:
		// The completion function reads jobs but never creates them, so no role is needed.
		sections = append(sections, c.Dedup, struct {
			Endpoint string `env:"MEDIACONVERT_ENDPOINT" validate:"required,url"`
			TopicARN string `env:"SNS_TOPIC_ARN" validate:"required"`
		}{c.MediaConvert.Endpoint, c.Output.TopicARN})
	case FunctionAudio:
		sections = append(sections, c.Output, struct {
			AudioFileSuffixes []string `env:"AUDIO_FILE_SUFFIXES" validate:"min=1"`
		}{c.Input.AudioFileSuffixes})
	case FunctionServer:
		sections = append(sections, c.MediaConvert, c.Template, c.Output, c.Resize, c.Input, c.Dedup, c.Server)
	default:
		return fmt.Errorf("unknown function %q", fn)
	}

	for _, section := range sections {
		if err := v.Validate(section); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// ParseSuffixes accepts a JSON list (`[".mp4", ".mov"]`) or a comma separated list
// and returns lower-cased extensions with a leading dot.
func ParseSuffixes(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var items []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			return nil, err
		}
	} else {
		items = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		if !strings.HasPrefix(item, ".") {
			item = "." + item
		}
		out = append(out, item)
	}
	return out, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

func getIntConfigValue(envKey string, defaultValue int) (int, error) {
	strValue := getConfigValue("", envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}

func getFloatConfigValue(envKey string, defaultValue float64) (float64, error) {
	strValue := getConfigValue("", envKey, "")
	if strValue == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return v, nil
}
