package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shareit/internal/dto"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// UserIDFromHeader parses the acting user from the X-Sharer-User-Id header.
func UserIDFromHeader(c *gin.Context) (int64, error) {
	raw := strings.TrimSpace(c.GetHeader(models.HeaderUserID))
	if raw == "" {
		return 0, fmt.Errorf("%w: header %s is required", ErrBadRequest, models.HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: header %s must be an integer", ErrBadRequest, models.HeaderUserID)
	}
	return id, nil
}

// PathID parses a numeric path parameter.
func PathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return id, nil
}

// PageParams reads from/size with their defaults and checks their bounds.
func PageParams(c *gin.Context) (from, size int, err error) {
	from, err = intQuery(c, "from", models.DefaultFrom)
	if err != nil {
		return 0, 0, err
	}
	size, err = intQuery(c, "size", models.DefaultSize)
	if err != nil {
		return 0, 0, err
	}
	if err := dto.ValidatePage(from, size).Err(); err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

// StateParam parses the optional state query parameter.
func StateParam(c *gin.Context) (models.BookingState, error) {
	return models.ParseBookingState(c.Query("state"))
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || strings.TrimSpace(raw) == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", ErrBadRequest, name)
	}
	return v, nil
}

// Validatable is a request body with its own validation rules.
type Validatable interface {
	Validate(now time.Time) dto.Violations
}

// BindJSON decodes the body into req and runs its validation rules. The raw
// body stays cached on the context under gin.BodyBytesKey.
func BindJSON(c *gin.Context, req Validatable, now time.Time) error {
	if err := c.ShouldBindBodyWith(req, binding.JSON); err != nil {
		return fmt.Errorf("%w: malformed JSON body", ErrBadRequest)
	}
	return req.Validate(now).Err()
}
