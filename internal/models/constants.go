package models

const (
	// HeaderUserID identifies the acting user on every request.
	HeaderUserID = "X-Sharer-User-Id"

	// DateTimeLayout is the wire format of all timestamps; values are UTC.
	DateTimeLayout = "2006-01-02T15:04:05"

	DefaultFrom = 0
	DefaultSize = 10
)
