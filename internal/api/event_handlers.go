package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/crawlora/aws-platform-engineering/internal/id"
	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

func (s *Server) registerEventRoutes() {
	routes := []struct {
		operationID string
		path        string
		summary     string
		handler     pipeline.Handler
	}{
		{"submitVideo", "/v1/events/storage", "Submit an uploaded video for transcoding", s.pipelines.Submit},
		{"completeVideo", "/v1/events/jobs", "Handle a transcoding job state change", s.pipelines.Complete},
		{"processAudio", "/v1/events/audio", "Move an uploaded audio file to the destination bucket", s.pipelines.Audio},
	}

	for _, r := range routes {
		if r.handler == nil {
			continue
		}
		huma.Register(s.api, huma.Operation{
			OperationID:   r.operationID,
			Method:        http.MethodPost,
			Path:          r.path,
			Summary:       r.summary,
			Tags:          []string{"Events"},
			DefaultStatus: http.StatusAccepted,
		}, s.eventHandler(r.handler))
	}
}

// EventInput carries the raw event document, exactly as the hosted runtime would pass it.
type EventInput struct {
	RawBody []byte
}

// EventResponse acknowledges a handled event.
type EventResponse struct {
	RequestID string `json:"request_id" doc:"Invocation id used in logs and diagnostics"`
	Status    string `json:"status" doc:"accepted once the pipeline returned"`
}

// EventOutput wraps the event response for Huma.
type EventOutput struct {
	Body EventResponse
}

// eventHandler runs one pipeline invocation. Ignored and reported failures are
// acknowledged like successes; only fatal failures produce an error status.
func (s *Server) eventHandler(h pipeline.Handler) func(context.Context, *EventInput) (*EventOutput, error) {
	return func(ctx context.Context, input *EventInput) (*EventOutput, error) {
		inv := pipeline.Invocation{RequestID: id.Invocation(), LogGroup: s.logGroup}

		if err := h.Handle(ctx, inv, input.RawBody); err != nil {
			return nil, statusError(err)
		}

		return &EventOutput{
			Body: EventResponse{RequestID: inv.RequestID, Status: "accepted"},
		}, nil
	}
}
