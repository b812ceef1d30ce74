package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/crawlora/aws-platform-engineering/internal/pipeline"
)

func (s *Server) registerMediaInfoRoutes() {
	if s.pipelines.MediaInfo == nil {
		return
	}
	huma.Register(s.api, huma.Operation{
		OperationID: "getMediaInfo",
		Method:      http.MethodPost,
		Path:        "/v1/media-info",
		Summary:     "Describe a stored media file",
		Description: `Takes {"path": "s3://bucket/key"} and returns the technical description of the object`,
		Tags:        []string{"Media"},
		Middlewares: huma.Middlewares{allowAnyOrigin},
	}, s.handleMediaInfo)
}

// MediaInfoInput carries the {"path": ...} request. It is decoded strictly by the
// service, so unknown fields are rejected.
type MediaInfoInput struct {
	RawBody []byte
}

// MediaInfoOutput wraps the media description for Huma.
type MediaInfoOutput struct {
	Body pipeline.MediaInfo
}

func (s *Server) handleMediaInfo(ctx context.Context, input *MediaInfoInput) (*MediaInfoOutput, error) {
	info, err := s.pipelines.MediaInfo.Describe(ctx, input.RawBody)
	if err != nil {
		return nil, statusError(err)
	}
	return &MediaInfoOutput{Body: *info}, nil
}

// allowAnyOrigin sets the CORS header on every media-info response, errors included.
func allowAnyOrigin(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	next(ctx)
}
