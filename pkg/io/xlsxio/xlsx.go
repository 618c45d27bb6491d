// Package xlsxio reads and writes tables as Excel workbooks using excelize.
// The first row of the sheet is the header.
package xlsxio

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/wdm0006/mice/pkg/io/csvio"
	tb "github.com/wdm0006/mice/pkg/table"
)

// DefaultSheet is the sheet used when none is named.
const DefaultSheet = "Sheet1"

type Options struct {
	Sheet   string
	Missing []string
	Logger  *slog.Logger
}

func (o Options) sheet() string {
	if o.Sheet == "" {
		return DefaultSheet
	}
	return o.Sheet
}

// Read loads one sheet of a workbook. Cell kinds are inferred as for CSV.
func Read(path string, opt Options) (*tb.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(opt.sheet(), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opt.sheet(), err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", opt.sheet())
	}
	return csvio.FromRecords(rows, csvio.ReaderOptions{HasHeader: true, Missing: opt.Missing, Logger: opt.Logger})
}

// WriteAll saves t as a workbook with a single sheet. Missing cells are left
// empty and booleans are written as text.
func WriteAll(path string, t *tb.Table, opt Options) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := opt.sheet()
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return err
		}
	}
	header := make([]any, t.Cols())
	for i, n := range t.Schema().Names() {
		header[i] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for r := 0; r < t.Rows(); r++ {
		for c := 0; c < t.Cols(); c++ {
			v := t.Value(r, c)
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if b, ok := v.(bool); ok {
				v = strconv.FormatBool(b)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}
