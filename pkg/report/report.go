// Package report is the spreadsheet codec: it encodes scraped records and
// fill outcomes as xlsx workbooks and decodes uploaded workbooks back into
// input rows. Everything is text in, text out; the drivers never see
// spreadsheet types.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/pranjalchakraborty/RMS-filler/pkg/routine"
)

// Fixed artifact names for the two export cases.
const (
	ScrapeFileName     = "RMS_Routine_Data.xlsx"
	FillReportFileName = "RMS_Fill_Report.xlsx"
)

const defaultSheet = "Sheet1"

// Input is a decoded upload: the original header cells (order preserved for
// re-export) and one normalized row per data line.
type Input struct {
	Headers []string
	Rows    []routine.InputRow
}

// EncodeRecords writes freshly scraped records under the canonical header
// row, leaving the user-editable columns empty.
func EncodeRecords(records []routine.ScrapedRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, stringsToAny(routine.Headers)); err != nil {
		return nil, err
	}
	for i, rec := range records {
		row := []interface{}{rec.Day, rec.Column, rec.Date, rec.Subject, "", "", "", "", "", ""}
		if err := setRow(f, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeOutcomes writes the post-fill row set back out under the uploaded
// sheet's own header order, so columns this tool does not know about survive
// the round trip.
func EncodeOutcomes(headers []string, rows []routine.InputRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := setRow(f, 1, stringsToAny(headers)); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cells := make([]interface{}, len(headers))
		for j, h := range headers {
			cells[j] = r[routine.NormalizeKey(h)]
		}
		if err := setRow(f, i+2, cells); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeInput parses an uploaded workbook's first sheet. The header row
// becomes field names, every value decodes as text, and cells missing from
// short rows default to the empty string. Fully empty lines are dropped.
func DecodeInput(data []byte) (*Input, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(lines) == 0 {
		return &Input{}, nil
	}

	in := &Input{}
	for _, h := range lines[0] {
		in.Headers = append(in.Headers, strings.TrimSpace(h))
	}

	for _, line := range lines[1:] {
		row := make(routine.InputRow, len(in.Headers))
		empty := true
		for j, h := range in.Headers {
			v := ""
			if j < len(line) {
				v = line[j]
			}
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[routine.NormalizeKey(h)] = v
		}
		if empty {
			continue
		}
		in.Rows = append(in.Rows, row)
	}
	return in, nil
}

func setRow(f *excelize.File, rowNum int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(defaultSheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", rowNum, err)
	}
	return nil
}

func stringsToAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// FileExporter saves exported artifacts into a directory, the CLI's stand-in
// for the browser's download action.
type FileExporter struct {
	Dir string
}

func (e FileExporter) Export(name string, data []byte) error {
	if err := os.MkdirAll(e.Dir, 0750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(e.Dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	logrus.Infof("✓ Exported %s", path)
	return nil
}
