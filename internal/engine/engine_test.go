package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/validation"
)

type fakeEngine struct {
	details *JobDetails
	err     error
}

func (f *fakeEngine) CreateJob(context.Context, *jobspec.Job) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeEngine) GetJob(context.Context, string) (*JobDetails, error) {
	return f.details, f.err
}

func TestSummarize(t *testing.T) {
	eng := &fakeEngine{details: &JobDetails{
		ID:        "j1",
		InputFile: "s3://in/a/movie.mp4",
		Document:  map[string]any{"Id": "j1"},
	}}

	tests := []struct {
		name           string
		event          events.JobEvent
		wantOutputFile string
		wantGroups     bool
	}{
		{
			name: "with output details",
			event: events.JobEvent{
				JobID:                 "j1",
				Status:                events.StatusComplete,
				OutputGroupDetails:    []events.OutputGroupDetail{{OutputDetails: []events.OutputDetail{{OutputFilePaths: []string{"s3://out/a/movie.mp4"}}}}},
				RawOutputGroupDetails: json.RawMessage(`[{"outputDetails":[{"outputFilePaths":["s3://out/a/movie.mp4"]}]}]`),
			},
			wantOutputFile: "s3://out/a/movie.mp4",
			wantGroups:     true,
		},
		{
			name:  "without output details",
			event: events.JobEvent{JobID: "j1", Status: events.StatusComplete},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, err := Summarize(context.Background(), eng, tt.event)
			require.NoError(t, err)

			assert.Equal(t, "j1", summary.ID)
			assert.Equal(t, "s3://in/a/movie.mp4", summary.InputFile)
			assert.Equal(t, []string{"in", "a", "movie.mp4"}, summary.PathElements)
			assert.Equal(t, "a/movie.mp4", summary.SourceKey())
			assert.Equal(t, tt.wantOutputFile, summary.OutputFile)
			assert.Equal(t, tt.wantGroups, summary.OutputGroupDetails != nil)

			doc, err := summary.ToMap()
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutputFile, doc["OutputFile"])
			assert.Equal(t, map[string]any{"Id": "j1"}, doc["Job"])
		})
	}
}

func TestSummarize_Failures(t *testing.T) {
	_, err := Summarize(context.Background(), &fakeEngine{err: domainerrors.New(domainerrors.CodeJobDetails, "boom")}, events.JobEvent{JobID: "j1"})
	assert.ErrorIs(t, err, domainerrors.ErrJobDetails)

	_, err = Summarize(context.Background(), &fakeEngine{details: &JobDetails{ID: "j1"}}, events.JobEvent{JobID: "j1"})
	assert.ErrorIs(t, err, domainerrors.ErrJobDetails)
}

func newTestMediaConvert(t *testing.T, handler http.HandlerFunc) *MediaConvert {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := aws.Config{
		Region:      "eu-west-1",
		Credentials: credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", ""),
	}
	return NewMediaConvert(cfg, srv.URL, 100)
}

func loadJob(t *testing.T) *jobspec.Job {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "jobspec", "testdata", "job-config.json"))
	require.NoError(t, err)
	job, err := jobspec.ParseTemplate(data, validation.New())
	require.NoError(t, err)
	job.Role = "arn:aws:iam::123456789012:role/mediaconvert"
	job.Settings.Inputs[0]["FileInput"] = "s3://in/a/movie.mp4"
	job.UserMetadata = map[string]string{"guid": "g1"}
	return job
}

func TestMediaConvert_CreateJob(t *testing.T) {
	var body map[string]any
	var path string
	mc := newTestMediaConvert(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"job": {"id": "1700000000000-abc123", "status": "SUBMITTED"}}`))
	})

	id, err := mc.CreateJob(context.Background(), loadJob(t))
	require.NoError(t, err)
	assert.Equal(t, "1700000000000-abc123", id)

	assert.Equal(t, "/2017-08-29/jobs", path)
	assert.Equal(t, "arn:aws:iam::123456789012:role/mediaconvert", body["role"])
	assert.Equal(t, "arn:aws:mediaconvert:eu-west-1:123456789012:queues/Default", body["queue"])
	assert.Equal(t, "SECONDS_60", body["statusUpdateInterval"])
	assert.Equal(t, map[string]any{"guid": "g1"}, body["userMetadata"])

	settings := body["settings"].(map[string]any)
	input := settings["inputs"].([]any)[0].(map[string]any)
	assert.Equal(t, "s3://in/a/movie.mp4", input["fileInput"])
	groups := settings["outputGroups"].([]any)
	assert.Len(t, groups, 3)
}

func TestMediaConvert_CreateJobFailure(t *testing.T) {
	mc := newTestMediaConvert(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Amzn-ErrorType", "BadRequestException")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "/outputGroups/0: should have at least 1 output"}`))
	})

	_, err := mc.CreateJob(context.Background(), loadJob(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrSubmission)
	assert.Contains(t, err.Error(), "Error submitting job to MediaConvert")
	assert.Equal(t, domainerrors.ClassFatal, domainerrors.Classify(err))
}

func TestMediaConvert_GetJob(t *testing.T) {
	var path string
	mc := newTestMediaConvert(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"job": {
			"id": "j1",
			"status": "COMPLETE",
			"role": "arn:aws:iam::123456789012:role/mediaconvert",
			"settings": {"inputs": [{"fileInput": "s3://in/a/movie.mp4"}], "outputGroups": []}
		}}`))
	})

	details, err := mc.GetJob(context.Background(), "j1")
	require.NoError(t, err)

	assert.Equal(t, "/2017-08-29/jobs/j1", path)
	assert.Equal(t, "j1", details.ID)
	assert.Equal(t, "COMPLETE", details.Status)
	assert.Equal(t, "s3://in/a/movie.mp4", details.InputFile)
	assert.NotNil(t, details.Document)
}
