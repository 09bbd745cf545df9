package export

import (
	"bytes"
	"testing"
	"time"

	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingExporter_Write(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	bookings := []*models.Booking{
		{
			ID: 7, ItemID: 1, BookerID: 2, Status: models.StatusApproved,
			Start: now.Add(time.Hour), End: now.Add(2 * time.Hour),
			Item:   &models.Item{ID: 1, Name: "Drill"},
			Booker: &models.User{ID: 2, Name: "Bob"},
		},
		{ID: 8, ItemID: 3, BookerID: 4, Status: models.StatusWaiting, Start: now, End: now.Add(time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, NewBookingExporter("Owner bookings").Write(&buf, bookings, now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Owner bookings"}, f.GetSheetList())

	rows, err := f.GetRows("Owner bookings")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Generated: 2026-05-10T12:00:00", rows[0][0])
	assert.Equal(t, bookingHeaders, rows[1])
	assert.Equal(t, []string{"7", "Drill", "Bob", "2026-05-10T13:00:00", "2026-05-10T14:00:00", "APPROVED"}, rows[2])
	assert.Equal(t, []string{"8", "#3", "#4", "2026-05-10T12:00:00", "2026-05-10T13:00:00", "WAITING"}, rows[3])
}

func TestBookingExporter_EmptyDefaultsSheet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewBookingExporter("").Write(&buf, nil, time.Now()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
