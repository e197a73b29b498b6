package importer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const statementDateFormat = "02/01/2006"

var amountStripper = strings.NewReplacer(
	"\u00a0", "",
	"\u202f", "",
	" ", "",
	"€", "",
)

// ParseEuroAmount parses an amount written with European conventions:
// "1 234,56" with ASCII, no-break or narrow no-break spaces, "1.234,56", or
// a plain "1234.56" raw cell.
func ParseEuroAmount(s string) (decimal.Decimal, error) {
	clean := amountStripper.Replace(strings.TrimSpace(s))
	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}
	if clean == "" {
		return decimal.Zero, fmt.Errorf("empty amount %q", s)
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return d, nil
}

// parseAmountCell returns an absent amount for an empty cell and zero for a
// cell that does not hold a number.
func parseAmountCell(s string) decimal.NullDecimal {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}
	}
	d, err := ParseEuroAmount(s)
	if err != nil {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	return decimal.NewNullDecimal(d)
}

// ParseCellDate accepts a DD/MM/YYYY text date, an ISO date, or an Excel
// date serial as returned for raw date cells.
func ParseCellDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{statementDateFormat, "2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < 1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}
