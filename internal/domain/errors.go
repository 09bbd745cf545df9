package domain

import "errors"

// Lookup failures.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotFound     = errors.New("entity not found")
)

// Rule violations.
var (
	ErrOwnerMismatch        = errors.New("owner mismatch")
	ErrInvalidEntity        = errors.New("invalid entity")
	ErrItemUnavailable      = errors.New("item unavailable")
	ErrInvalidState         = errors.New("invalid booking state")
	ErrInvalidCommentAuthor = errors.New("invalid comment author")
)

var (
	ErrDataConflict = errors.New("data conflict")
	ErrRateLimited  = errors.New("rate limit exceeded")
)
