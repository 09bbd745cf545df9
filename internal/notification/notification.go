package notification

import (
	"context"
	"fmt"

	"shareit/internal/events"
	"shareit/internal/models"
)

// Sink delivers booking lifecycle events to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, eventType string, booking events.BookingEventPayload) error
}

// FormatMessage renders a short operator-facing text for an event.
func FormatMessage(eventType string, b events.BookingEventPayload) string {
	var title string
	switch eventType {
	case events.EventBookingCreated:
		title = "New booking request"
	case events.EventBookingApproved:
		title = "Booking approved"
	case events.EventBookingRejected:
		title = "Booking rejected"
	default:
		title = eventType
	}

	booker := b.BookerName
	if booker == "" {
		booker = fmt.Sprintf("user %d", b.BookerID)
	}
	return fmt.Sprintf("%s #%d\nItem: %s (#%d)\nBooker: %s\nFrom: %s\nTo: %s\nStatus: %s",
		title,
		b.BookingID,
		b.ItemName,
		b.ItemID,
		booker,
		b.Start.UTC().Format(models.DateTimeLayout),
		b.End.UTC().Format(models.DateTimeLayout),
		b.Status,
	)
}
