package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() Dataset {
	return Dataset{
		Title:   "Grade 5A attendance",
		Headers: []string{"Student", "Date", "Status"},
		Rows: []map[string]string{
			{"Student": "Alice", "Date": "2024-07-01", "Status": "Present"},
			{"Student": "Charlie", "Date": "2024-07-01", "Status": "Absent"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := CSV{}.Render(sample())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Student,Date,Status", lines[0])
	assert.Equal(t, "Charlie,2024-07-01,Absent", lines[2])
}

func TestRenderRequiresHeaders(t *testing.T) {
	for _, f := range []Format{FormatCSV, FormatPDF, FormatXLSX} {
		r, err := RendererFor(f)
		require.NoError(t, err)
		_, err = r.Render(Dataset{})
		assert.Error(t, err, string(f))
	}
}

func TestPDFRender(t *testing.T) {
	out, err := PDF{}.Render(sample())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXRender(t *testing.T) {
	out, err := XLSX{}.Render(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Grade 5A attendance", title)

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Student", "Date", "Status"}, rows[2])
	assert.Equal(t, []string{"Charlie", "2024-07-01", "Absent"}, rows[4])
}
