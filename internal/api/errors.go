package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

// CodeRateLimited is returned when a client exceeds the ingress rate limit.
const CodeRateLimited = "RATE_LIMITED"

// APIError is the JSON error body of the ingress. It implements huma.StatusError.
type APIError struct {
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler makes huma render pipeline errors with their code and status.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// statusError renders err through the registered error handler so the response
// carries the pipeline error's own status.
func statusError(err error) error {
	return huma.NewError(http.StatusInternalServerError, err.Error(), err)
}

// statusToCode maps statuses huma produces on its own (decoding, routing) to error codes.
func statusToCode(status int) string {
	switch {
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status >= 400 && status < 500:
		return string(domainerrors.CodeValidation)
	default:
		return string(domainerrors.CodeInternal)
	}
}
