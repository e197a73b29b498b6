// Package reconcile merges a freshly parsed batch into the existing ledger
// without duplicating rows that an earlier statement already delivered.
package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/releve-dev/releve/internal/id"
	"github.com/releve-dev/releve/internal/model"
)

var (
	// ErrSchemaMismatch means the ledger and the batch do not both carry the
	// columns needed to recognise a duplicate.
	ErrSchemaMismatch = errors.New("ledger and batch schemas are incompatible")
	// ErrEmptyBatch means there is nothing to merge. Callers treat it as a
	// successful no-op.
	ErrEmptyBatch = errors.New("batch has no transactions")
)

// Table is a set of ledger rows plus the columns they actually carry.
type Table struct {
	Columns []string
	Rows    []model.Transaction
}

// NewTable returns a table carrying every ledger column.
func NewTable(rows []model.Transaction) Table {
	return Table{Columns: model.Columns, Rows: rows}
}

// Result is the merged ledger plus what happened to the batch.
type Result struct {
	Rows    []model.Transaction
	Columns []string
	Cutoff  time.Time // latest ledger date, zero for an empty ledger

	Accepted            int // batch rows kept
	DroppedBeforeCutoff int // batch rows older than Cutoff
	Duplicates          int // batch rows at Cutoff already in the ledger
}

// Merge appends the batch rows dated on or after the ledger's latest date,
// ledger rows first, and drops batch rows dated exactly on that date whose
// key (date, label, net amount, account) the ledger already holds. Keys are
// matched by occurrence: the n-th batch row with a key is a duplicate only if
// the ledger has at least n rows with that key. Ledger rows are never
// dropped or modified. Identifiers are reassigned 1..N in the final order.
func Merge(ledger, batch Table) (*Result, error) {
	if len(batch.Rows) == 0 {
		return nil, ErrEmptyBatch
	}

	ledgerCols := ledger.Columns
	if len(ledgerCols) == 0 && len(ledger.Rows) == 0 {
		ledgerCols = batch.Columns
	}
	common := CommonColumns(ledgerCols, batch.Columns)
	keep := make(map[string]bool, len(common))
	for _, c := range common {
		keep[c] = true
	}
	for _, k := range model.KeyColumns {
		if !keep[k] {
			return nil, fmt.Errorf("%w: column %q missing from one side", ErrSchemaMismatch, k)
		}
	}

	res := &Result{Columns: common}
	rows := make([]model.Transaction, 0, len(ledger.Rows)+len(batch.Rows))

	var hasCutoff bool
	for _, t := range ledger.Rows {
		t = model.Project(t, keep)
		if !hasCutoff || t.Date.After(res.Cutoff) {
			res.Cutoff, hasCutoff = t.Date, true
		}
		rows = append(rows, t)
	}

	atCutoff := make(map[rowKey]int)
	if hasCutoff {
		for _, t := range rows {
			if t.Date.Equal(res.Cutoff) {
				atCutoff[keyOf(t)]++
			}
		}
	}

	for _, t := range batch.Rows {
		t = model.Project(t, keep)
		if hasCutoff {
			if t.Date.Before(res.Cutoff) {
				res.DroppedBeforeCutoff++
				continue
			}
			if t.Date.Equal(res.Cutoff) {
				k := keyOf(t)
				if atCutoff[k] > 0 {
					atCutoff[k]--
					res.Duplicates++
					continue
				}
			}
		}
		rows = append(rows, t)
		res.Accepted++
	}

	id.AssignDense(rows)
	res.Rows = rows
	return res, nil
}

// CommonColumns returns the columns present in both a and b, in a's order.
func CommonColumns(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, c := range b {
		inB[c] = true
	}
	var out []string
	for _, c := range a {
		if inB[c] {
			out = append(out, c)
		}
	}
	return out
}

type rowKey struct {
	date    string
	label   string
	net     string
	account int
}

func keyOf(t model.Transaction) rowKey {
	return rowKey{
		date:    t.Date.Format(time.DateOnly),
		label:   t.Label,
		net:     t.NetAmount.String(),
		account: t.AccountID,
	}
}
