package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"shareit/internal/dto"
	"shareit/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportPageSize  = 500
)

func (s *HTTPServer) createBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := BindJSON(c, &req, s.clock.Now()); err != nil {
		RespondError(c, s.log, err)
		return
	}
	start, end := req.Window()
	booking, err := s.svc.Bookings.CreateBooking(c.Request.Context(), sharerID(c), req.ItemID, start, end)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (s *HTTPServer) setApproval(c *gin.Context) {
	bookingID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	approved, err := ApprovedParam(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	booking, err := s.svc.Bookings.SetApproval(c.Request.Context(), sharerID(c), bookingID, approved)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (s *HTTPServer) getBooking(c *gin.Context) {
	bookingID, err := PathID(c, "id")
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(c.Request.Context(), sharerID(c), bookingID)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (s *HTTPServer) bookerBookings(c *gin.Context) {
	s.listBookings(c, false)
}

func (s *HTTPServer) ownerBookings(c *gin.Context) {
	s.listBookings(c, true)
}

func (s *HTTPServer) listBookings(c *gin.Context, owner bool) {
	state, err := StateParam(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	from, size, err := PageParams(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}

	list := s.svc.Bookings.ListForBooker
	if owner {
		list = s.svc.Bookings.ListForOwner
	}
	bookings, err := list(c.Request.Context(), sharerID(c), state, from, size)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToBookingResponses(bookings))
}

// exportOwnerBookings streams every booking on the sharer's items, filtered
// by state, as an XLSX workbook.
func (s *HTTPServer) exportOwnerBookings(c *gin.Context) {
	state, err := StateParam(c)
	if err != nil {
		RespondError(c, s.log, err)
		return
	}

	ownerID := sharerID(c)
	var all []*models.Booking
	for from := 0; ; from += exportPageSize {
		batch, err := s.svc.Bookings.ListForOwner(c.Request.Context(), ownerID, state, from, exportPageSize)
		if err != nil {
			RespondError(c, s.log, err)
			return
		}
		all = append(all, batch...)
		if len(batch) < exportPageSize {
			break
		}
	}

	var buf bytes.Buffer
	if err := s.exporter.Write(&buf, all, s.clock.Now()); err != nil {
		RespondError(c, s.log, fmt.Errorf("export bookings: %w", err))
		return
	}

	filename := fmt.Sprintf("bookings_%d_%s.xlsx", ownerID, strings.ToLower(string(state)))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ApprovedParam parses the required approved=true|false query parameter.
func ApprovedParam(c *gin.Context) (bool, error) {
	raw, ok := c.GetQuery("approved")
	if !ok {
		return false, fmt.Errorf("%w: approved is required", ErrBadRequest)
	}
	approved, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, fmt.Errorf("%w: approved must be true or false", ErrBadRequest)
	}
	return approved, nil
}
