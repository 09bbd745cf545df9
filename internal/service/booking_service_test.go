package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

func newBookingService(repo *mockRepo, pub *mockPublisher) *BookingService {
	logger := zerolog.Nop()
	var publisher domain.EventPublisher
	if pub != nil {
		publisher = pub
	}
	return NewBookingService(repo, publisher, domain.FixedClock(now), &logger)
}

func ptr[T any](v T) *T { return &v }

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	booker := &models.User{ID: 2, Name: "booker"}
	item := &models.Item{ID: 10, OwnerID: 1, Name: "drill", Available: true}
	start := now.Add(time.Hour)
	end := now.Add(2 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		repo := new(mockRepo)
		pub := new(mockPublisher)
		s := newBookingService(repo, pub)

		repo.On("GetUserByID", mock.Anything, int64(2)).Return(booker, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(item, nil)
		repo.On("CreateBooking", mock.Anything, mock.MatchedBy(func(b *models.Booking) bool {
			return b.ItemID == 10 && b.BookerID == 2 && b.Status == models.StatusWaiting && b.CreatedAt.Equal(now)
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Booking).ID = 100
		}).Return(nil)
		pub.On("PublishJSON", events.EventBookingCreated, mock.MatchedBy(func(p events.BookingEventPayload) bool {
			return p.BookingID == 100 && p.OwnerID == 1 && p.BookerName == "booker"
		})).Return(nil)

		got, err := s.CreateBooking(ctx, 2, 10, &start, &end)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.ID)
		assert.Equal(t, models.StatusWaiting, got.Status)
		assert.Equal(t, item, got.Item)
		repo.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("BookerMissing", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(2)).Return(nil, database.ErrNotFound)

		_, err := s.CreateBooking(ctx, 2, 10, &start, &end)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("ItemMissing", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(2)).Return(booker, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(nil, database.ErrNotFound)

		_, err := s.CreateBooking(ctx, 2, 10, &start, &end)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("UnavailableCheckedBeforeTimes", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(2)).Return(booker, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(&models.Item{ID: 10, OwnerID: 1, Available: false}, nil)

		_, err := s.CreateBooking(ctx, 2, 10, nil, nil)
		assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	})

	t.Run("OwnerCannotBook", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(1)).Return(&models.User{ID: 1}, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(item, nil)

		_, err := s.CreateBooking(ctx, 1, 10, &start, &end)
		assert.ErrorIs(t, err, domain.ErrOwnerMismatch)
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(2)).Return(booker, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(item, nil)

		_, err := s.CreateBooking(ctx, 2, 10, &end, &start)
		assert.ErrorIs(t, err, domain.ErrInvalidEntity)
		repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("ItemClosedMeanwhile", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetUserByID", mock.Anything, int64(2)).Return(booker, nil)
		repo.On("GetItemByID", mock.Anything, int64(10)).Return(item, nil)
		repo.On("CreateBooking", mock.Anything, mock.Anything).Return(database.ErrNotAvailable)

		_, err := s.CreateBooking(ctx, 2, 10, &start, &end)
		assert.ErrorIs(t, err, domain.ErrItemUnavailable)
	})
}

func TestValidateBookingWindow(t *testing.T) {
	tests := []struct {
		name    string
		start   *time.Time
		end     *time.Time
		wantErr bool
	}{
		{name: "Valid", start: ptr(now.Add(time.Hour)), end: ptr(now.Add(2 * time.Hour))},
		{name: "StartNow", start: ptr(now), end: ptr(now.Add(time.Hour))},
		{name: "MissingStart", end: ptr(now.Add(time.Hour)), wantErr: true},
		{name: "MissingEnd", start: ptr(now.Add(time.Hour)), wantErr: true},
		{name: "StartEqualsEnd", start: ptr(now.Add(time.Hour)), end: ptr(now.Add(time.Hour)), wantErr: true},
		{name: "EndBeforeStart", start: ptr(now.Add(2 * time.Hour)), end: ptr(now.Add(time.Hour)), wantErr: true},
		{name: "StartInPast", start: ptr(now.Add(-time.Second)), end: ptr(now.Add(time.Hour)), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBookingWindow(tt.start, tt.end, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidEntity)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBookingService_SetApproval(t *testing.T) {
	ctx := context.Background()
	waiting := func() *models.Booking {
		return &models.Booking{
			ID: 100, ItemID: 10, BookerID: 2, Status: models.StatusWaiting, Version: 1,
			Item: &models.Item{ID: 10, OwnerID: 1, Name: "drill"},
		}
	}

	t.Run("Approve", func(t *testing.T) {
		repo := new(mockRepo)
		pub := new(mockPublisher)
		s := newBookingService(repo, pub)
		repo.On("GetBooking", mock.Anything, int64(100)).Return(waiting(), nil)
		repo.On("UpdateBookingStatusFrom", mock.Anything, int64(100), models.StatusWaiting, models.StatusApproved, now).Return(nil)
		pub.On("PublishJSON", events.EventBookingApproved, mock.Anything).Return(nil)

		got, err := s.SetApproval(ctx, 1, 100, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
		assert.Equal(t, int64(2), got.Version)
		assert.True(t, got.UpdatedAt.Equal(now))
		pub.AssertExpectations(t)
	})

	t.Run("Reject", func(t *testing.T) {
		repo := new(mockRepo)
		pub := new(mockPublisher)
		s := newBookingService(repo, pub)
		repo.On("GetBooking", mock.Anything, int64(100)).Return(waiting(), nil)
		repo.On("UpdateBookingStatusFrom", mock.Anything, int64(100), models.StatusWaiting, models.StatusRejected, now).Return(nil)
		pub.On("PublishJSON", events.EventBookingRejected, mock.Anything).Return(nil)

		got, err := s.SetApproval(ctx, 1, 100, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, got.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetBooking", mock.Anything, int64(100)).Return(nil, database.ErrNotFound)

		_, err := s.SetApproval(ctx, 1, 100, true)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("NotOwner", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("GetBooking", mock.Anything, int64(100)).Return(waiting(), nil)

		_, err := s.SetApproval(ctx, 2, 100, true)
		assert.ErrorIs(t, err, domain.ErrOwnerMismatch)
	})

	for _, status := range []models.BookingStatus{models.StatusApproved, models.StatusRejected} {
		for _, approved := range []bool{true, false} {
			t.Run("AlreadyDecided_"+string(status)+"_"+strconv.FormatBool(approved), func(t *testing.T) {
				repo := new(mockRepo)
				s := newBookingService(repo, nil)
				b := waiting()
				b.Status = status
				repo.On("GetBooking", mock.Anything, int64(100)).Return(b, nil)

				_, err := s.SetApproval(ctx, 1, 100, approved)
				assert.ErrorIs(t, err, domain.ErrInvalidState)
				repo.AssertNotCalled(t, "UpdateBookingStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			})
		}
	}

	t.Run("LostRace", func(t *testing.T) {
		repo := new(mockRepo)
		pub := new(mockPublisher)
		s := newBookingService(repo, pub)
		repo.On("GetBooking", mock.Anything, int64(100)).Return(waiting(), nil)
		repo.On("UpdateBookingStatusFrom", mock.Anything, int64(100), models.StatusWaiting, models.StatusApproved, now).
			Return(database.ErrConcurrentModification)

		_, err := s.SetApproval(ctx, 1, 100, true)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
		pub.AssertNotCalled(t, "PublishJSON", mock.Anything, mock.Anything)
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()
	booking := &models.Booking{ID: 100, ItemID: 10, BookerID: 2, Item: &models.Item{ID: 10, OwnerID: 1}}

	tests := []struct {
		name    string
		userID  int64
		wantErr error
	}{
		{name: "Booker", userID: 2},
		{name: "Owner", userID: 1},
		{name: "Stranger", userID: 3, wantErr: domain.ErrOwnerMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			s := newBookingService(repo, nil)
			repo.On("UserExists", mock.Anything, tt.userID).Return(true, nil)
			repo.On("GetBooking", mock.Anything, int64(100)).Return(booking, nil)

			got, err := s.GetBooking(ctx, tt.userID, 100)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, booking, got)
		})
	}

	t.Run("UnknownUser", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("UserExists", mock.Anything, int64(9)).Return(false, nil)

		_, err := s.GetBooking(ctx, 9, 100)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

func TestBookingService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("ForOwnerBuildsFilter", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("UserExists", mock.Anything, int64(1)).Return(true, nil)
		repo.On("ListBookings", mock.Anything, domain.BookingFilter{
			OwnerID: 1,
			State:   models.StateCurrent,
			Now:     now,
			Page:    models.Page{Offset: 10, Limit: 5},
		}).Return([]*models.Booking{}, nil)

		got, err := s.ListForOwner(ctx, 1, models.StateCurrent, 12, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
		repo.AssertExpectations(t)
	})

	t.Run("ForBookerUnknownUser", func(t *testing.T) {
		repo := new(mockRepo)
		s := newBookingService(repo, nil)
		repo.On("UserExists", mock.Anything, int64(7)).Return(false, nil)

		_, err := s.ListForBooker(ctx, 7, models.StateAll, 0, 10)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("BadPage", func(t *testing.T) {
		s := newBookingService(new(mockRepo), nil)
		_, err := s.ListForBooker(ctx, 1, models.StateAll, -1, 10)
		assert.ErrorIs(t, err, domain.ErrInvalidEntity)
		_, err = s.ListForBooker(ctx, 1, models.StateAll, 0, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidEntity)
	})
}

func TestAdjacentBookings(t *testing.T) {
	older := &models.Booking{ID: 1, Start: now.Add(-48 * time.Hour), Status: models.StatusApproved}
	recent := &models.Booking{ID: 2, Start: now.Add(-time.Hour), Status: models.StatusWaiting}
	rejectedRecent := &models.Booking{ID: 3, Start: now.Add(-time.Minute), Status: models.StatusRejected}
	soon := &models.Booking{ID: 4, Start: now.Add(time.Hour), Status: models.StatusApproved}
	later := &models.Booking{ID: 5, Start: now.Add(48 * time.Hour), Status: models.StatusWaiting}
	rejectedSooner := &models.Booking{ID: 6, Start: now.Add(time.Minute), Status: models.StatusRejected}

	last, next := AdjacentBookings([]*models.Booking{later, older, soon, rejectedRecent, recent, rejectedSooner}, now)
	assert.Equal(t, recent, last)
	assert.Equal(t, soon, next)

	last, next = AdjacentBookings(nil, now)
	assert.Nil(t, last)
	assert.Nil(t, next)

	last, next = AdjacentBookings([]*models.Booking{rejectedRecent}, now)
	assert.Nil(t, last)
	assert.Nil(t, next)
}
