package api

import (
	"errors"
	"net/http"

	"shareit/internal/domain"
	"shareit/internal/dto"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const internalErrorMessage = "internal server error"

// ErrBadRequest marks malformed headers, parameters or bodies.
var ErrBadRequest = errors.New("bad request")

// statusFor maps an error returned by a service or handler to its HTTP status.
func statusFor(err error) int {
	var violations dto.Violations
	var unknownState *models.UnknownStateError

	switch {
	case errors.As(err, &violations), errors.As(err, &unknownState):
		return http.StatusBadRequest
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOwnerMismatch):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidEntity),
		errors.Is(err, domain.ErrItemUnavailable),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInvalidCommentAuthor):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// WriteError sends the standard error body and aborts the chain.
func WriteError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// RespondError reports err with its mapped status. Details of
// unexpected errors are logged and replaced by a generic message.
func RespondError(c *gin.Context, logger *zerolog.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("request_id", RequestIDFrom(c)).
			Str("route", c.FullPath()).
			Msg("request failed")
		WriteError(c, status, internalErrorMessage)
		return
	}
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		logger.Debug().Err(err).Str("route", c.FullPath()).Int("status", status).Msg("request rejected")
	}
	WriteError(c, status, err.Error())
}
