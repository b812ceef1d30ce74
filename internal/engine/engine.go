// Package engine talks to the transcoding engine that runs submitted jobs.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
	"github.com/crawlora/aws-platform-engineering/internal/events"
	"github.com/crawlora/aws-platform-engineering/internal/jobspec"
	"github.com/crawlora/aws-platform-engineering/internal/storage"
)

// Engine creates transcoding jobs and reads them back.
type Engine interface {
	// CreateJob submits a job and returns its engine id.
	CreateJob(ctx context.Context, job *jobspec.Job) (string, error)
	// GetJob returns the engine's view of a job.
	GetJob(ctx context.Context, id string) (*JobDetails, error)
}

// JobDetails is the part of an engine job the pipelines need.
type JobDetails struct {
	ID        string
	Status    string
	InputFile string
	// Document is the full job as reported by the engine, forwarded in notifications.
	Document any
}

// Summary describes a finished job for downstream consumers.
type Summary struct {
	ID                 string          `json:"Id"`
	Job                any             `json:"Job"`
	InputFile          string          `json:"InputFile"`
	PathElements       []string        `json:"PathElements"`
	OutputGroupDetails json.RawMessage `json:"OutputGroupDetails,omitempty"`
	OutputFile         string          `json:"OutputFile"`
	Thumbnail          string          `json:"Thumbnail,omitempty"`
	BlurHash           string          `json:"BlurHash,omitempty"`
}

// SourceKey returns the key of the job's input object, or the job id when the
// input is not an object URL.
func (s *Summary) SourceKey() string {
	loc, err := storage.ParseS3URL(s.InputFile)
	if err != nil {
		return s.ID
	}
	return loc.Key
}

// Summarize looks the job up and combines it with the event's output details.
func Summarize(ctx context.Context, eng Engine, event events.JobEvent) (*Summary, error) {
	details, err := eng.GetJob(ctx, event.JobID)
	if err != nil {
		return nil, err
	}
	if details.InputFile == "" {
		return nil, domainerrors.Newf(domainerrors.CodeJobDetails, "Error processing job details: job %s has no input file", event.JobID)
	}

	summary := &Summary{
		ID:           event.JobID,
		Job:          details.Document,
		InputFile:    details.InputFile,
		PathElements: storage.PathElements(details.InputFile),
	}
	if event.HasOutputGroupDetails() {
		summary.OutputGroupDetails = event.RawOutputGroupDetails
		summary.OutputFile = event.OutputFile()
	}
	return summary, nil
}

// ToMap converts the summary to a generic document for notification payloads.
func (s *Summary) ToMap() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode job summary: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode job summary: %w", err)
	}
	return out, nil
}
