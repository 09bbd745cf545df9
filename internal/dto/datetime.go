package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"shareit/internal/models"
)

// DateTime is a UTC instant encoded as "2006-01-02T15:04:05" with no offset.
type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.UTC()}
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.UTC().Format(models.DateTimeLayout))
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("datetime must be a string: %w", err)
	}
	t, err := ParseDateTime(raw)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ParseDateTime reads the wire layout as UTC. A trailing fractional second is
// accepted.
func ParseDateTime(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(models.DateTimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("datetime %q must match %s", raw, models.DateTimeLayout)
	}
	return t, nil
}

// timePtr unwraps an optional DateTime.
func timePtr(d *DateTime) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}
