package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status,
                 b.created_at, b.updated_at, b.version,
                 ` + itemColumns + `,
                 u.id, u.name, u.email, u.created_at, u.updated_at
          FROM bookings b
          JOIN items i ON i.id = b.item_id
          JOIN users u ON u.id = b.booker_id`

// CreateBooking inserts a WAITING booking only while the item is still
// available; otherwise it returns ErrNotAvailable without writing. A set
// CreatedAt is stored as both timestamps.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status, created_at, updated_at, version)
              SELECT ?, ?, ?, ?, ?, ?, ?, 1
              WHERE EXISTS (SELECT 1 FROM items WHERE id = ? AND available = 1)`
	now := booking.CreatedAt.UTC()
	if booking.CreatedAt.IsZero() {
		now = time.Now().UTC()
	}
	status := booking.Status
	if status == "" {
		status = models.StatusWaiting
	}
	result, err := db.ExecContext(ctx, query,
		booking.ItemID,
		booking.BookerID,
		formatTime(booking.Start),
		formatTime(booking.End),
		status,
		formatTime(now),
		formatTime(now),
		booking.ItemID,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", translateError(err))
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotAvailable
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.Status = status
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := bookingSelect + ` WHERE b.id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %d: %w", id, translateError(err))
	}
	return booking, nil
}

// UpdateBookingStatusFrom moves a booking from one status to another only if
// it is still in the expected status, stamping updated_at with at. A lost
// race yields ErrConcurrentModification.
func (db *DB) UpdateBookingStatusFrom(ctx context.Context, id int64, from, to models.BookingStatus, at time.Time) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, to, formatTime(at), id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", translateError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookings WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check booking %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("failed to update booking %d: %w", id, ErrNotFound)
	}
	return ErrConcurrentModification
}

// ListBookings returns one page of the bookings of a booker (BookerID) or of
// the items of an owner (OwnerID), restricted to State at Now.
func (db *DB) ListBookings(ctx context.Context, filter domain.BookingFilter) ([]*models.Booking, error) {
	var conds []string
	var args []interface{}

	if filter.BookerID != 0 {
		conds = append(conds, "b.booker_id = ?")
		args = append(args, filter.BookerID)
	}
	if filter.OwnerID != 0 {
		conds = append(conds, "i.owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	now := formatTime(filter.Now)
	order := "b.id DESC"
	switch filter.State {
	case models.StateAll, "":
	case models.StateCurrent:
		conds = append(conds, "b.start_at < ?", "b.end_at > ?")
		args = append(args, now, now)
		order = "b.end_at DESC, b.id DESC"
	case models.StatePast:
		conds = append(conds, "b.end_at < ?")
		args = append(args, now)
	case models.StateFuture:
		conds = append(conds, "b.start_at > ?")
		args = append(args, now)
	case models.StateWaiting:
		conds = append(conds, "b.status = ?")
		args = append(args, models.StatusWaiting)
	case models.StateRejected:
		conds = append(conds, "b.status = ?")
		args = append(args, models.StatusRejected)
	default:
		return nil, &models.UnknownStateError{Raw: string(filter.State)}
	}

	query := bookingSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY " + order

	limit := filter.Page.Limit
	if limit <= 0 {
		limit = -1
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Page.Offset)

	return db.queryBookings(ctx, query, args...)
}

// GetBookingsByItem returns every booking of an item ordered by start.
func (db *DB) GetBookingsByItem(ctx context.Context, itemID int64) ([]*models.Booking, error) {
	query := bookingSelect + ` WHERE b.item_id = ? ORDER BY b.start_at, b.id`
	return db.queryBookings(ctx, query, itemID)
}

// HasFinishedBooking reports whether the booker has a non-rejected booking of
// the item that ended before now.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	query := `SELECT EXISTS(
                SELECT 1 FROM bookings
                WHERE booker_id = ? AND item_id = ? AND end_at < ? AND status != ?
              )`
	var exists bool
	err := db.QueryRowContext(ctx, query, bookerID, itemID, formatTime(now), models.StatusRejected).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

func scanBooking(row scanner) (*models.Booking, error) {
	var b models.Booking
	var item models.Item
	var booker models.User
	var start, end, created, updated string
	var itemRequestID sql.NullInt64
	var itemCreated, itemUpdated, bookerCreated, bookerUpdated string

	err := row.Scan(
		&b.ID, &b.ItemID, &b.BookerID, &start, &end, &b.Status, &created, &updated, &b.Version,
		&item.ID, &item.OwnerID, &item.Name, &item.Description, &item.Available, &itemRequestID,
		&itemCreated, &itemUpdated,
		&booker.ID, &booker.Name, &booker.Email, &bookerCreated, &bookerUpdated,
	)
	if err != nil {
		return nil, err
	}

	item.RequestID = idPtr(itemRequestID)
	for _, f := range []struct {
		dst *time.Time
		src string
	}{
		{&b.Start, start}, {&b.End, end}, {&b.CreatedAt, created}, {&b.UpdatedAt, updated},
		{&item.CreatedAt, itemCreated}, {&item.UpdatedAt, itemUpdated},
		{&booker.CreatedAt, bookerCreated}, {&booker.UpdatedAt, bookerUpdated},
	} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}

	b.Item = &item
	b.Booker = &booker
	return &b, nil
}
