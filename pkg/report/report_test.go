package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pranjalchakraborty/RMS-filler/pkg/routine"
)

func TestEncodeRecordsRoundTrip(t *testing.T) {
	records := []routine.ScrapedRecord{
		{Day: "Monday", Column: 3, Subject: "Algebra", Date: "2024-03-04"},
		{Day: "Tuesday", Column: 5, Subject: "Physics", Date: "2024-03-05"},
	}

	data, err := EncodeRecords(records)
	require.NoError(t, err)

	in, err := DecodeInput(data)
	require.NoError(t, err)

	assert.Equal(t, routine.Headers, in.Headers)
	require.Len(t, in.Rows, 2)
	assert.Equal(t, "Monday", in.Rows[0].Field(routine.FieldDays))
	assert.Equal(t, "3", in.Rows[0].Field(routine.FieldColumn))
	assert.Equal(t, "2024-03-04", in.Rows[0].Field(routine.FieldDate))
	assert.Equal(t, "Algebra", in.Rows[0].Field(routine.FieldSubject))
	assert.Equal(t, "", in.Rows[0].Field(routine.FieldSubmitted),
		"editable columns start empty")
}

// buildWorkbook assembles an xlsx in memory the way a user's spreadsheet
// editor would, including imperfect headers and short rows.
func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeInputNormalizesDriftedHeaders(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{" DAYS ", "Column", "date", "Subject", "class   EXECUTION", "Submitted"},
		{"Monday", "3", "2024-03-04", "Algebra", "Yes", "Ready"},
	})

	in, err := DecodeInput(data)
	require.NoError(t, err)
	require.Len(t, in.Rows, 1)

	r := in.Rows[0]
	assert.Equal(t, "Monday", r.Field(routine.FieldDays))
	assert.Equal(t, "Yes", r.Field(routine.FieldExecution))
	assert.True(t, routine.Eligible(r))
}

func TestDecodeInputPadsShortRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Days", "Column", "Date", "Subject"},
		{"Monday", "3"},
	})

	in, err := DecodeInput(data)
	require.NoError(t, err)
	require.Len(t, in.Rows, 1)
	assert.Equal(t, "", in.Rows[0].Field(routine.FieldSubject),
		"missing cells default to empty string")
}

func TestDecodeInputSkipsEmptyLines(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"Days", "Column"},
		{"", ""},
		{"Monday", "3"},
	})

	in, err := DecodeInput(data)
	require.NoError(t, err)
	require.Len(t, in.Rows, 1)
	assert.Equal(t, "Monday", in.Rows[0].Field(routine.FieldDays))
}

func TestDecodeInputEmptyWorkbook(t *testing.T) {
	data := buildWorkbook(t, nil)
	in, err := DecodeInput(data)
	require.NoError(t, err)
	assert.Empty(t, in.Rows, "an empty upload yields zero rows, not an error")
}

func TestEncodeOutcomesPreservesForeignColumns(t *testing.T) {
	headers := []string{"Days", "Column", "Notes", "Submitted"}
	row := routine.InputRow{}
	row.Set("Days", "Monday")
	row.Set("Column", "3")
	row.Set("Notes", "keep me")
	row.Set("Submitted", routine.OutcomeSuccess)

	data, err := EncodeOutcomes(headers, []routine.InputRow{row})
	require.NoError(t, err)

	in, err := DecodeInput(data)
	require.NoError(t, err)
	assert.Equal(t, headers, in.Headers)
	require.Len(t, in.Rows, 1)
	assert.Equal(t, "keep me", in.Rows[0].Field("notes"))
	assert.Equal(t, routine.OutcomeSuccess, in.Rows[0].Field(routine.FieldSubmitted))
}

func TestFileExporterWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	e := FileExporter{Dir: dir}
	require.NoError(t, e.Export(ScrapeFileName, []byte("payload")))

	// Second export overwrites, mirroring the one-shot artifact contract.
	require.NoError(t, e.Export(ScrapeFileName, []byte("payload2")))
}
