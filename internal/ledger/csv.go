// Package ledger holds the CSV form of the ledger and the invariants a
// stored ledger must satisfy.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/releve-dev/releve/internal/model"
)

// Header is the CSV header line of an exported ledger.
var Header = strings.Join(model.Columns, ",")

const (
	numFields  = 13
	dateFormat = "2006-01-02"

	colID               = 0
	colDate             = 1
	colLabel            = 2
	colDebit            = 3
	colCredit           = 4
	colAccountID        = 5
	colFinalBalance     = 6
	colFinalBalanceDate = 7
	colNetAmount        = 8
	colRunningBalance   = 9
	colCategory         = 10
	colMatchedKeyword   = 11
	colSettled          = 12
)

// ReadRows reads an exported ledger, header included.
func ReadRows(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected ledger header %q", got)
	}

	var rows []model.Transaction
	for i, rec := range records[1:] {
		t, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, t)
	}
	return rows, nil
}

// WriteRows writes the header and one line per row.
func WriteRows(w io.Writer, rows []model.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, t := range rows {
		if err := cw.Write(MarshalRow(t)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts a Transaction to a CSV record. Absent amounts and
// dates are empty cells.
func MarshalRow(t model.Transaction) []string {
	row := make([]string, numFields)
	row[colID] = strconv.Itoa(t.ID)
	row[colDate] = t.Date.Format(dateFormat)
	row[colLabel] = t.Label
	row[colDebit] = fixed(t.Debit)
	row[colCredit] = fixed(t.Credit)
	row[colAccountID] = strconv.Itoa(t.AccountID)
	row[colFinalBalance] = fixed(t.FinalBalance)
	if !t.FinalBalanceDate.IsZero() {
		row[colFinalBalanceDate] = t.FinalBalanceDate.Format(dateFormat)
	}
	row[colNetAmount] = t.NetAmount.StringFixed(2)
	row[colRunningBalance] = fixed(t.RunningBalance)
	row[colCategory] = t.Category
	row[colMatchedKeyword] = t.MatchedKeyword
	row[colSettled] = strconv.FormatBool(t.Settled)
	return row
}

func fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// UnmarshalRow converts a CSV record to a Transaction.
func UnmarshalRow(record []string) (model.Transaction, error) {
	if len(record) != numFields {
		return model.Transaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	var t model.Transaction
	var err error

	if t.ID, err = strconv.Atoi(record[colID]); err != nil {
		return t, fmt.Errorf("parsing id %q: %w", record[colID], err)
	}
	if t.Date, err = time.Parse(dateFormat, record[colDate]); err != nil {
		return t, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}
	t.Label = record[colLabel]
	if t.Debit, err = parseOptional(record[colDebit]); err != nil {
		return t, fmt.Errorf("parsing debit %q: %w", record[colDebit], err)
	}
	if t.Credit, err = parseOptional(record[colCredit]); err != nil {
		return t, fmt.Errorf("parsing credit %q: %w", record[colCredit], err)
	}
	if t.AccountID, err = strconv.Atoi(record[colAccountID]); err != nil {
		return t, fmt.Errorf("parsing account_id %q: %w", record[colAccountID], err)
	}
	if t.FinalBalance, err = parseOptional(record[colFinalBalance]); err != nil {
		return t, fmt.Errorf("parsing final_balance %q: %w", record[colFinalBalance], err)
	}
	if record[colFinalBalanceDate] != "" {
		if t.FinalBalanceDate, err = time.Parse(dateFormat, record[colFinalBalanceDate]); err != nil {
			return t, fmt.Errorf("parsing final_balance_date %q: %w", record[colFinalBalanceDate], err)
		}
	}
	if t.NetAmount, err = decimal.NewFromString(record[colNetAmount]); err != nil {
		return t, fmt.Errorf("parsing net_amount %q: %w", record[colNetAmount], err)
	}
	if t.RunningBalance, err = parseOptional(record[colRunningBalance]); err != nil {
		return t, fmt.Errorf("parsing running_balance %q: %w", record[colRunningBalance], err)
	}
	t.Category = record[colCategory]
	t.MatchedKeyword = record[colMatchedKeyword]
	if t.Settled, err = strconv.ParseBool(record[colSettled]); err != nil {
		return t, fmt.Errorf("parsing settled %q: %w", record[colSettled], err)
	}
	return t, nil
}

func parseOptional(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
