// Package notify publishes pipeline outcomes to the downstream notification topic.
package notify

import (
	"fmt"
	"net/http"
)

// Subjects of published messages.
const (
	SubjectComplete = "COMPLETE"
	SubjectError    = "ERROR"
)

// Message is anything that can be published to the topic.
type Message interface {
	MessageSubject() string
}

// JobStatusMessage announces a finished asset.
type JobStatusMessage struct {
	Status       int            `json:"status"`
	Subject      string         `json:"subject"`
	Data         map[string]any `json:"data"`
	ID           string         `json:"id"`
	OutputFile   string         `json:"output_file"`
	InputFile    string         `json:"input_file"`
	PathElements []string       `json:"path_elements"`
}

// NewJobStatusMessage creates a success message. A nil data map is sent as {}.
func NewJobStatusMessage(subject, id, inputFile, outputFile string, pathElements []string, data map[string]any) *JobStatusMessage {
	if data == nil {
		data = map[string]any{}
	}
	if pathElements == nil {
		pathElements = []string{}
	}
	return &JobStatusMessage{
		Status:       http.StatusOK,
		Subject:      subject,
		Data:         data,
		ID:           id,
		OutputFile:   outputFile,
		InputFile:    inputFile,
		PathElements: pathElements,
	}
}

// MessageSubject implements Message.
func (m *JobStatusMessage) MessageSubject() string {
	return m.Subject
}

// DiagnosticMessage reports a failed invocation to operators.
type DiagnosticMessage struct {
	Status  int            `json:"status"`
	Subject string         `json:"subject"`
	Data    map[string]any `json:"data"`
	Detail  string         `json:"detail"`
	Error   string         `json:"error"`
	Path    string         `json:"path"`
}

// NewDiagnosticMessage creates a failure message.
func NewDiagnosticMessage(detail, errText, path string) *DiagnosticMessage {
	return &DiagnosticMessage{
		Status:  http.StatusInternalServerError,
		Subject: SubjectError,
		Data:    map[string]any{},
		Detail:  detail,
		Error:   errText,
		Path:    path,
	}
}

// MessageSubject implements Message.
func (m *DiagnosticMessage) MessageSubject() string {
	return m.Subject
}

// ConsoleJobLink links to a transcoding job in the operator console.
func ConsoleJobLink(region, jobID string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/mediaconvert/home?region=%s#/jobs/summary/%s", region, jobID)
}

// LogStreamLink links to the log group of the failing invocation.
func LogStreamLink(region, logGroup string) string {
	return fmt.Sprintf("https://console.aws.amazon.com/cloudwatch/home?region=%s#logStream:group=%s", region, logGroup)
}
