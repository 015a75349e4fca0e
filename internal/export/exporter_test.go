package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMembers() []MemberRow {
	checkedIn := time.Date(2026, 8, 1, 18, 30, 0, 0, time.UTC)
	return []MemberRow{
		{UserID: 5, FullName: "Ada Example", Email: "ada@example.com", Status: "JOINED", Role: "MEMBER", IsCheckedIn: true, CheckedInAt: &checkedIn, CheckInMethod: "EVENT_QR"},
		{UserID: 6, FullName: "Ben Example", Email: "ben@example.com", Status: "PENDING", Role: "MEMBER"},
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := Render(FormatCSV, "Members", memberHeader, memberRecords(sampleMembers()))
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3) // header + 2 rows

	assert.Equal(t, memberHeader, records[0])
	assert.Equal(t, "ada@example.com", records[1][2])
	assert.Equal(t, "true", records[1][5])
	assert.Equal(t, "2026-08-01T18:30:00Z", records[1][6])
	assert.Empty(t, records[2][6]) // never checked in
}

func TestRenderXLSXAndPDFProduceOutput(t *testing.T) {
	records := memberRecords(sampleMembers())

	xlsx, err := Render(FormatXLSX, "Members", memberHeader, records)
	require.NoError(t, err)
	assert.NotEmpty(t, xlsx)

	pdf, err := Render(FormatPDF, "Members", memberHeader, records)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render("docx", "Members", memberHeader, nil)
	assert.Error(t, err)
	assert.False(t, ValidFormat("docx"))
	assert.True(t, ValidFormat(FormatCSV))
}
