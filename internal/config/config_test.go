package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSubmitEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MEDIACONVERT_ENDPOINT", "https://abcd1234.mediaconvert.eu-west-1.amazonaws.com")
	t.Setenv("MEDIACONVERT_ROLE", "arn:aws:iam::123456789012:role/dev-mediaconvert-role")
	t.Setenv("CONFIG_BUCKET", "dev-media-config-bucket")
	t.Setenv("JOB_CONFIG", "job-config.json")
	t.Setenv("DESTINATION_BUCKET", "dev-media-output-bucket")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:123456789012:dev-media-upload-updates")
	t.Setenv("MAX_WIDTH", "1800")
	t.Setenv("MAX_HEIGHT", "1800")
	t.Setenv("INPUT_FILE_SUFFIXES", `[".mp4", ".mov", ".avi", ".mkv"]`)
}

func TestLoad_SubmitSettings(t *testing.T) {
	setSubmitEnv(t)

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, 1800, cfg.Resize.MaxWidth)
	assert.Equal(t, 1800, cfg.Resize.MaxHeight)
	assert.Equal(t, []string{".mp4", ".mov", ".avi", ".mkv"}, cfg.Input.FileSuffixes)
	assert.Equal(t, 5, cfg.Probe.MaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.Probe.RetryDelay)
	assert.Equal(t, 2*time.Hour, cfg.Probe.PresignExpiry)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "none", cfg.Dedup.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Dedup.TTL)
	assert.Equal(t, 15*time.Minute, cfg.Dedup.Lease)

	assert.NoError(t, cfg.Validate(FunctionSubmit))
}

func TestLoad_AudioAndServerDefaults(t *testing.T) {
	t.Setenv("DESTINATION_BUCKET", "dev-media-output-bucket")
	t.Setenv("SNS_TOPIC_ARN", "arn:aws:sns:eu-west-1:123456789012:dev-media-upload-updates")

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "none")})
	require.NoError(t, err)

	assert.Equal(t, []string{".mp3", ".m4a", ".aac", ".wav", ".flac", ".ogg"}, cfg.Input.AudioFileSuffixes)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.InDelta(t, 10.0, cfg.Server.RateLimit, 0.001)
	assert.Equal(t, 20, cfg.Server.RateBurst)
	assert.NoError(t, cfg.Validate(FunctionAudio), "audio needs no video allow-list")
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	setSubmitEnv(t)
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load([]string{"-log-level", "DEBUG", "-env-file", filepath.Join(t.TempDir(), "none")})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEDUP_BACKEND=redis\nREDIS_ADDR=localhost:6379\n"), 0o600))
	t.Setenv("DEDUP_BACKEND", "")
	t.Setenv("REDIS_ADDR", "")
	// godotenv does not override variables that are already present, even empty ones.
	require.NoError(t, os.Unsetenv("DEDUP_BACKEND"))
	require.NoError(t, os.Unsetenv("REDIS_ADDR"))

	cfg, err := Load([]string{"-env-file", envFile})
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Dedup.Backend)
	assert.Equal(t, "localhost:6379", cfg.Dedup.RedisAddr)
}

func TestLoad_InvalidNumbers(t *testing.T) {
	tests := map[string]string{
		"MAX_WIDTH":         "wide",
		"PROBE_RETRY_DELAY": "soon",
		"SUBMIT_RATE_LIMIT": "fast",
	}

	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "none")})
			assert.Error(t, err)
		})
	}
}

func TestValidate_PerFunction(t *testing.T) {
	setSubmitEnv(t)
	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "none")})
	require.NoError(t, err)

	cfg.MediaConvert.Role = ""
	assert.Error(t, cfg.Validate(FunctionSubmit))
	assert.NoError(t, cfg.Validate(FunctionComplete), "completion does not create jobs")

	cfg.Output.TopicARN = ""
	assert.Error(t, cfg.Validate(FunctionComplete))
	assert.Error(t, cfg.Validate(FunctionAudio))

	assert.Error(t, cfg.Validate(Function("bogus")))
}

func TestValidate_ConditionalBackends(t *testing.T) {
	setSubmitEnv(t)
	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "none")})
	require.NoError(t, err)

	cfg.Storage.Backend = "minio"
	assert.Error(t, cfg.Validate(FunctionSubmit))

	cfg.Storage.MinIOEndpoint = "localhost:9000"
	cfg.Storage.MinIOAccessKey = "minio"
	cfg.Storage.MinIOSecretKey = "minio123"
	assert.NoError(t, cfg.Validate(FunctionSubmit))

	cfg.Dedup.Lease = 48 * time.Hour
	assert.Error(t, cfg.Validate(FunctionComplete), "lease longer than the done marker")
	cfg.Dedup.Lease = 15 * time.Minute

	cfg.Dedup.Backend = "redis"
	assert.Error(t, cfg.Validate(FunctionComplete))
	cfg.Dedup.RedisAddr = "localhost:6379"
	assert.NoError(t, cfg.Validate(FunctionComplete))
}

func TestParseSuffixes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
		wantErr  bool
	}{
		{name: "json list", raw: `[".mp4", ".MOV"]`, expected: []string{".mp4", ".mov"}},
		{name: "comma list", raw: "mp3, .wav,,FLAC", expected: []string{".mp3", ".wav", ".flac"}},
		{name: "empty", raw: "", expected: nil},
		{name: "broken json", raw: `[".mp4"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSuffixes(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
