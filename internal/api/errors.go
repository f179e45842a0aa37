package api

import (
	"context"
	"errors"
	"net/http"

	"gluesync/internal/domain"
	"gluesync/internal/gluecatalog"
	"gluesync/internal/host"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Code       int    `json:"code"`
	Message    string `json:"message"`
	EventID    string `json:"event_id,omitempty"`
	GlueError  string `json:"glue_error,omitempty"`
	RenameStep string `json:"rename_step,omitempty"`
}

// httpStatusFromError maps sync outcomes to HTTP status codes. Failures
// reported by Glue are upstream failures and map to 502.
func httpStatusFromError(err error) int {
	var validation *domain.ValidationError
	var partial *domain.PartialMigrationError
	var conflict *domain.ConflictError
	var notFound *domain.NotFoundError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, host.ErrStopped), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &partial), gluecatalog.ErrorCode(err) != "":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func errorBodyFrom(err error, eventID string) errorBody {
	body := errorBody{
		Code:      httpStatusFromError(err),
		Message:   err.Error(),
		EventID:   eventID,
		GlueError: gluecatalog.ErrorCode(err),
	}
	var partial *domain.PartialMigrationError
	if errors.As(err, &partial) {
		body.RenameStep = string(partial.Step)
	}
	return body
}
