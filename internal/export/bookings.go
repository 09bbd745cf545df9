package export

import (
	"fmt"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

var bookingHeaders = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

// BookingExporter renders booking listings as XLSX workbooks.
type BookingExporter struct {
	sheetName string
}

func NewBookingExporter(sheetName string) *BookingExporter {
	if sheetName == "" {
		sheetName = "Bookings"
	}
	return &BookingExporter{sheetName: sheetName}
}

// Write renders bookings into one sheet and writes the workbook to w. Row 1
// holds the generation time, row 2 the headers.
func (e *BookingExporter) Write(w io.Writer, bookings []*models.Booking, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.sheetName
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != defaultSheet {
		_ = f.DeleteSheet(defaultSheet)
	}

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Generated: %s", generatedAt.UTC().Format(models.DateTimeLayout)))
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for col, title := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheet, cell, title)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.ID,
			itemName(b),
			bookerName(b),
			b.Start.UTC().Format(models.DateTimeLayout),
			b.End.UTC().Format(models.DateTimeLayout),
			string(b.Status),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("error writing row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 10)
	_ = f.SetColWidth(sheet, "B", "C", 25)
	_ = f.SetColWidth(sheet, "D", "E", 22)
	_ = f.SetColWidth(sheet, "F", "F", 12)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

func itemName(b *models.Booking) string {
	if b.Item == nil {
		return fmt.Sprintf("#%d", b.ItemID)
	}
	return b.Item.Name
}

func bookerName(b *models.Booking) string {
	if b.Booker == nil {
		return fmt.Sprintf("#%d", b.BookerID)
	}
	return b.Booker.Name
}
