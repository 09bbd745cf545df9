package service

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	clock    domain.Clock
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, clock domain.Clock, logger *zerolog.Logger) *BookingService {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		clock:    clock,
		logger:   logger,
	}
}

// CreateBooking books itemID for bookerID over [start, end). The checks run in
// a fixed order so that the first failing rule decides the error.
func (s *BookingService) CreateBooking(ctx context.Context, bookerID, itemID int64, start, end *time.Time) (*models.Booking, error) {
	booker, err := loadUser(ctx, s.repo, bookerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: item %d", domain.ErrItemUnavailable, itemID)
	}
	if item.OwnerID == bookerID {
		return nil, fmt.Errorf("%w: owner cannot book own item %d", domain.ErrOwnerMismatch, itemID)
	}
	now := s.clock.Now()
	if err := ValidateBookingWindow(start, end, now); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ItemID:    itemID,
		BookerID:  bookerID,
		Start:     start.UTC(),
		End:       end.UTC(),
		Status:    models.StatusWaiting,
		CreatedAt: now,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", itemID))
	}
	booking.Item = item
	booking.Booker = booker

	s.publishEvent(events.EventBookingCreated, booking, bookerID)
	return booking, nil
}

// ValidateBookingWindow requires both bounds, start before end, start not in
// the past and end in the future, all relative to now.
func ValidateBookingWindow(start, end *time.Time, now time.Time) error {
	switch {
	case start == nil || end == nil:
		return fmt.Errorf("%w: start and end are required", domain.ErrInvalidEntity)
	case !start.Before(*end):
		return fmt.Errorf("%w: start must be before end", domain.ErrInvalidEntity)
	case start.Before(now):
		return fmt.Errorf("%w: start must not be in the past", domain.ErrInvalidEntity)
	case !end.After(now):
		return fmt.Errorf("%w: end must be in the future", domain.ErrInvalidEntity)
	}
	return nil
}

// SetApproval decides a WAITING booking. Only the item owner may decide, and
// only once; a decision lost to a concurrent one reports ErrInvalidState.
func (s *BookingService) SetApproval(ctx context.Context, sharerID, bookingID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("booking %d", bookingID))
	}
	item, err := s.itemOf(ctx, booking)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != sharerID {
		return nil, fmt.Errorf("%w: user %d does not own item %d", domain.ErrOwnerMismatch, sharerID, item.ID)
	}
	if booking.Status != models.StatusWaiting {
		return nil, fmt.Errorf("%w: booking %d already decided", domain.ErrInvalidState, bookingID)
	}

	to := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		to = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	decidedAt := s.clock.Now()
	if err := s.repo.UpdateBookingStatusFrom(ctx, bookingID, models.StatusWaiting, to, decidedAt); err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("booking %d", bookingID))
	}
	booking.Status = to
	booking.Version++
	booking.UpdatedAt = decidedAt

	s.publishEvent(eventType, booking, sharerID)
	return booking, nil
}

func (s *BookingService) GetBooking(ctx context.Context, requesterID, bookingID int64) (*models.Booking, error) {
	if err := requireUser(ctx, s.repo, requesterID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("booking %d", bookingID))
	}
	item, err := s.itemOf(ctx, booking)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != requesterID && item.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: user %d is neither booker nor owner of booking %d",
			domain.ErrOwnerMismatch, requesterID, bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, userID int64, state models.BookingState, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, domain.BookingFilter{BookerID: userID, State: state}, userID, from, size)
}

// ListForOwner lists bookings of every item owned by userID. A user without
// items gets an empty list.
func (s *BookingService) ListForOwner(ctx context.Context, userID int64, state models.BookingState, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, domain.BookingFilter{OwnerID: userID, State: state}, userID, from, size)
}

func (s *BookingService) list(ctx context.Context, filter domain.BookingFilter, userID int64, from, size int) ([]*models.Booking, error) {
	if err := validatePage(from, size); err != nil {
		return nil, err
	}
	if err := requireUser(ctx, s.repo, userID); err != nil {
		return nil, err
	}
	filter.Now = s.clock.Now()
	filter.Page = models.NewPage(from, size)
	return s.repo.ListBookings(ctx, filter)
}

// AdjacentBookings picks, among the non-rejected bookings, the one that
// started most recently before now and the one starting soonest after now.
func AdjacentBookings(bookings []*models.Booking, now time.Time) (last, next *models.Booking) {
	for _, b := range bookings {
		if b.Status == models.StatusRejected {
			continue
		}
		switch {
		case b.Start.Before(now):
			if last == nil || b.Start.After(last.Start) {
				last = b
			}
		case b.Start.After(now):
			if next == nil || b.Start.Before(next.Start) {
				next = b
			}
		}
	}
	return last, next
}

func (s *BookingService) itemOf(ctx context.Context, booking *models.Booking) (*models.Item, error) {
	if booking.Item != nil {
		return booking.Item, nil
	}
	item, err := s.repo.GetItemByID(ctx, booking.ItemID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound, fmt.Sprintf("item %d", booking.ItemID))
	}
	booking.Item = item
	return item, nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedBy int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		Status:    string(booking.Status),
		Start:     booking.Start,
		End:       booking.End,
		ChangedBy: changedBy,
	}
	if booking.Item != nil {
		payload.ItemName = booking.Item.Name
		payload.OwnerID = booking.Item.OwnerID
	}
	if booking.Booker != nil {
		payload.BookerName = booking.Booker.Name
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func validatePage(from, size int) error {
	if from < 0 {
		return fmt.Errorf("%w: from must not be negative", domain.ErrInvalidEntity)
	}
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive", domain.ErrInvalidEntity)
	}
	return nil
}
