package sheet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestReadMapsColumnsCaseInsensitively(t *testing.T) {
	wb := buildWorkbook(t, [][]interface{}{
		{"  title ", "ARN", "Target  Activity Date(s)", "Extra"},
		{"Orientation", "ARN-001", "November 25, 2025", "ignored"},
		{"", "", "", ""},
		{"Assembly", "ARN-002", "", ""},
	})

	rows, err := Read(wb, []string{"Title", "ARN", "Target Activity Date(s)"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, "Orientation", rows[0].Get("Title"))
	assert.Equal(t, "November 25, 2025", rows[0].Get("Target Activity Date(s)"))
	assert.Equal(t, "ARN-002", rows[1].Get("ARN"))
	assert.Equal(t, "", rows[1].Get("Target Activity Date(s)"))
}

func TestReadReportsMissingColumns(t *testing.T) {
	wb := buildWorkbook(t, [][]interface{}{
		{"Title", "Venue"},
		{"Orientation", "Hall"},
	})

	_, err := Read(wb, []string{"Title", "ARN", "Nature"})
	require.Error(t, err)
	var missing *MissingColumnsError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"ARN", "Nature"}, missing.Missing)
}

func TestReadRejectsNonWorkbook(t *testing.T) {
	_, err := Read(bytes.NewReader([]byte("not a workbook")), []string{"Title"})
	require.Error(t, err)
	var missing *MissingColumnsError
	assert.False(t, errors.As(err, &missing))
}
