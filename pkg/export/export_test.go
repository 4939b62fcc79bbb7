package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:   "Import report",
		Headers: []string{"Row", "Status", "Detail"},
		Rows: [][]string{
			{"0", "success", "evt-1"},
			{"1", "failure"},
		},
	}
}

func TestCSVExporterPadsShortRows(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Row,Status,Detail\n0,success,evt-1\n1,failure,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRendersDocument(t *testing.T) {
	data := sampleDataset()
	data.Rows = append(data.Rows, []string{"2", "failure", string(bytes.Repeat([]byte("long message "), 40))})
	out, err := NewPDFExporter(1, 2, 6).Render(data)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}
