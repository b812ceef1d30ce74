package events

import (
	"bytes"
	"encoding/json"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// JobStatus is the state reported by a transcoding job state-change event.
type JobStatus string

// Job statuses emitted by the engine.
const (
	StatusInputInformation JobStatus = "INPUT_INFORMATION"
	StatusProgressing      JobStatus = "PROGRESSING"
	StatusComplete         JobStatus = "COMPLETE"
	StatusCanceled         JobStatus = "CANCELED"
	StatusError            JobStatus = "ERROR"
)

// Informational reports whether the status is a progress update that needs no action.
func (s JobStatus) Informational() bool {
	return s == StatusInputInformation || s == StatusProgressing
}

// Failed reports whether the engine gave up on the job.
func (s JobStatus) Failed() bool {
	return s == StatusCanceled || s == StatusError
}

// OutputDetail describes one file written by an output group.
type OutputDetail struct {
	OutputFilePaths []string `json:"outputFilePaths"`
}

// OutputGroupDetail describes the files written by one output group.
type OutputGroupDetail struct {
	OutputDetails []OutputDetail `json:"outputDetails"`
}

// JobEvent is the detail of an engine job state-change event.
type JobEvent struct {
	JobID              string              `json:"jobId"`
	Status             JobStatus           `json:"status"`
	Region             string              `json:"-"`
	OutputGroupDetails []OutputGroupDetail `json:"outputGroupDetails,omitempty"`

	// RawOutputGroupDetails keeps the group details exactly as received so they can
	// be forwarded downstream without losing fields this type does not model.
	RawOutputGroupDetails json.RawMessage `json:"-"`
}

// HasOutputGroupDetails reports whether the event carried the outputGroupDetails key.
func (e JobEvent) HasOutputGroupDetails() bool {
	raw := bytes.TrimSpace(e.RawOutputGroupDetails)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// OutputFile returns the first path of the first output of the first group, or "".
func (e JobEvent) OutputFile() string {
	if len(e.OutputGroupDetails) == 0 {
		return ""
	}
	outputs := e.OutputGroupDetails[0].OutputDetails
	if len(outputs) == 0 || len(outputs[0].OutputFilePaths) == 0 {
		return ""
	}
	return outputs[0].OutputFilePaths[0]
}

// DecodeJobEvent parses an EventBridge job state-change event.
func DecodeJobEvent(raw []byte) ParseResult[JobEvent] {
	envelope := Decode[lambdaevents.CloudWatchEvent](raw, Permissive)
	if !envelope.OK() {
		return failed[JobEvent](unsupported("job event", envelope.Err))
	}
	if len(envelope.Value.Detail) == 0 {
		return failed[JobEvent](domainerrors.UnsupportedPayloadf("job event has no detail"))
	}

	detail := Decode[JobEvent](envelope.Value.Detail, Permissive)
	if !detail.OK() {
		return failed[JobEvent](unsupported("job event detail", detail.Err))
	}
	event := detail.Value
	if event.JobID == "" || event.Status == "" {
		return failed[JobEvent](domainerrors.UnsupportedPayloadf("job event detail is missing jobId or status"))
	}

	raws := Decode[struct {
		OutputGroupDetails json.RawMessage `json:"outputGroupDetails"`
	}](envelope.Value.Detail, Permissive)
	event.RawOutputGroupDetails = raws.Value.OutputGroupDetails
	event.Region = envelope.Value.Region

	return ParseResult[JobEvent]{Value: event}
}
