package importer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ReadWorkbook returns the first sheet of an xlsx workbook as raw cell
// text. Date cells come back as Excel serials.
func ReadWorkbook(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Section: -1, Err: fmt.Errorf("opening workbook: %w", err)}
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ParseError{Section: -1, Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &ParseError{Section: -1, Err: fmt.Errorf("reading sheet %q: %w", sheet, err)}
	}
	return Grid(rows), nil
}
