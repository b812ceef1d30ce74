package api

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

const checkTimeout = 2 * time.Second

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns ingress health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Pipelines  []string                   `json:"pipelines" doc:"Pipelines served by this ingress"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth, len(s.checks))
	overall := "healthy"

	for _, name := range slices.Sorted(maps.Keys(s.checks)) {
		health := runCheck(ctx, s.checks[name])
		components[name] = health
		if health.Status != "healthy" {
			overall = "degraded"
		}
	}

	pipelines := s.servedPipelines()
	if len(pipelines) == 0 {
		overall = "unhealthy"
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Pipelines:  pipelines,
			Components: components,
		},
	}, nil
}

func runCheck(ctx context.Context, check HealthCheck) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := check(ctx)
	latency := time.Since(start).Round(time.Microsecond).String()
	if err != nil {
		return ComponentHealth{Status: "unhealthy", Latency: latency, Message: err.Error()}
	}
	return ComponentHealth{Status: "healthy", Latency: latency}
}

func (s *Server) servedPipelines() []string {
	pipelines := []string{}
	if s.pipelines.Submit != nil {
		pipelines = append(pipelines, pipeline.NameSubmit)
	}
	if s.pipelines.Complete != nil {
		pipelines = append(pipelines, pipeline.NameComplete)
	}
	if s.pipelines.Audio != nil {
		pipelines = append(pipelines, pipeline.NameAudio)
	}
	if s.pipelines.MediaInfo != nil {
		pipelines = append(pipelines, "media-info")
	}
	return pipelines
}
