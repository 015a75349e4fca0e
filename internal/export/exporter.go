package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

// Supported output formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

func ValidFormat(f string) bool {
	return f == FormatCSV || f == FormatXLSX || f == FormatPDF
}

// ContentType returns the MIME type for a format.
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "text/csv"
	}
}

var intentHeader = []string{"ID", "Title", "Owner Email", "Visibility", "Join Mode", "Start At", "Members", "Checked In", "Canceled"}

var memberHeader = []string{"User ID", "Full Name", "Email", "Status", "Role", "Checked In", "Checked In At", "Method", "Joined At"}

func intentRecords(rows []IntentRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.Title,
			r.OwnerEmail,
			r.Visibility,
			r.JoinMode,
			r.StartAt.Format(time.RFC3339),
			strconv.Itoa(r.MemberCount),
			strconv.Itoa(r.CheckedIn),
			strconv.FormatBool(r.Canceled),
		})
	}
	return records
}

func memberRecords(rows []MemberRow) [][]string {
	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		checkedInAt := ""
		if r.CheckedInAt != nil {
			checkedInAt = r.CheckedInAt.Format(time.RFC3339)
		}
		joinedAt := ""
		if r.JoinedAt != nil {
			joinedAt = r.JoinedAt.Format(time.RFC3339)
		}
		records = append(records, []string{
			strconv.FormatUint(uint64(r.UserID), 10),
			r.FullName,
			r.Email,
			r.Status,
			r.Role,
			strconv.FormatBool(r.IsCheckedIn),
			checkedInAt,
			r.CheckInMethod,
			joinedAt,
		})
	}
	return records
}

// Render serializes a header plus records into the requested format.
func Render(format, title string, header []string, records [][]string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return renderCSV(header, records)
	case FormatXLSX:
		return renderXLSX(title, header, records)
	case FormatPDF:
		return renderPDF(title, header, records)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

func renderCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(title string, header []string, records [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	if err := f.SetSheetName(sheet, title); err == nil {
		sheet = title
	}

	for col, h := range header {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for rowIdx, record := range records {
		for col, v := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderPDF(title string, header []string, records [][]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)

	colWidth := 270.0 / float64(len(header))

	pdf.SetFont("Arial", "B", 9)
	for _, h := range header {
		pdf.CellFormat(colWidth, 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, record := range records {
		for _, v := range record {
			if len(v) > 40 {
				v = v[:37] + "..."
			}
			pdf.CellFormat(colWidth, 6, v, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
