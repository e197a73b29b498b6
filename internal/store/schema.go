package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/releve-dev/releve/internal/model"
	"github.com/releve-dev/releve/internal/reconcile"
)

var columnTypes = map[string]string{
	model.ColID:               "INTEGER PRIMARY KEY",
	model.ColDate:             "TEXT NOT NULL",
	model.ColLabel:            "TEXT NOT NULL",
	model.ColDebit:            "TEXT",
	model.ColCredit:           "TEXT",
	model.ColAccountID:        "INTEGER NOT NULL",
	model.ColFinalBalance:     "TEXT",
	model.ColFinalBalanceDate: "TEXT",
	model.ColNetAmount:        "TEXT NOT NULL",
	model.ColRunningBalance:   "TEXT",
	model.ColCategory:         "TEXT NOT NULL",
	model.ColMatchedKeyword:   "TEXT",
	model.ColSettled:          "INTEGER NOT NULL DEFAULT 0",
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func createTableSQL(name string) string {
	defs := make([]string, len(model.Columns))
	for i, c := range model.Columns {
		defs[i] = c + " " + columnTypes[c]
	}
	return "CREATE TABLE " + quoteIdent(name) + " (" + strings.Join(defs, ", ") + ")"
}

func renameSQL(from, to string) string {
	return "ALTER TABLE " + quoteIdent(from) + " RENAME TO " + quoteIdent(to)
}

func insertRows(ctx context.Context, tx *sql.Tx, name string, rows []model.Transaction) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(model.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+quoteIdent(name)+
		" ("+strings.Join(model.Columns, ", ")+") VALUES ("+placeholders+")")
	if err != nil {
		return fmt.Errorf("preparing insert into %s: %w", name, err)
	}
	defer stmt.Close()

	for _, t := range rows {
		if _, err := stmt.ExecContext(ctx, rowValues(t)...); err != nil {
			return fmt.Errorf("inserting row %d into %s: %w", t.ID, name, err)
		}
	}
	return nil
}

// rowValues follows model.Columns order.
func rowValues(t model.Transaction) []any {
	return []any{
		t.ID,
		t.Date.Format(time.DateOnly),
		t.Label,
		nullDecimal(t.Debit),
		nullDecimal(t.Credit),
		t.AccountID,
		nullDecimal(t.FinalBalance),
		nullDate(t.FinalBalanceDate),
		t.NetAmount.String(),
		nullDecimal(t.RunningBalance),
		t.Category,
		nullString(t.MatchedKeyword),
		boolInt(t.Settled),
	}
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.DateOnly)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ReadTable reads any ledger-shaped table. Columns the table lacks are
// reported absent in the returned Table; unknown columns are ignored.
func (s *SQLite) ReadTable(ctx context.Context, name string) (reconcile.Table, error) {
	exists, err := tableExists(ctx, s.db, name)
	if err != nil {
		return reconcile.Table{}, err
	}
	if !exists {
		return reconcile.NewTable(nil), nil
	}

	cols, err := s.tableColumns(ctx, name)
	if err != nil {
		return reconcile.Table{}, err
	}

	order := ""
	if containsString(cols, model.ColID) {
		order = " ORDER BY " + model.ColID
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+strings.Join(cols, ", ")+" FROM "+quoteIdent(name)+order)
	if err != nil {
		return reconcile.Table{}, fmt.Errorf("querying %s: %w", name, err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return reconcile.Table{}, fmt.Errorf("scanning %s: %w", name, err)
		}
		t := model.Transaction{Category: s.def}
		for i, c := range cols {
			if err := decodeColumn(&t, c, vals[i]); err != nil {
				return reconcile.Table{}, fmt.Errorf("reading %s row %d: %w", name, len(out)+1, err)
			}
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return reconcile.Table{}, fmt.Errorf("iterating %s: %w", name, err)
	}
	return reconcile.Table{Columns: cols, Rows: out}, nil
}

// tableColumns returns the ledger columns present in name, in model order.
func (s *SQLite) tableColumns(ctx context.Context, name string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", name)
	if err != nil {
		return nil, fmt.Errorf("describing %s: %w", name, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("describing %s: %w", name, err)
		}
		present[strings.ToLower(c)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("describing %s: %w", name, err)
	}

	var cols []string
	for _, c := range model.Columns {
		if present[c] {
			cols = append(cols, c)
		}
	}
	return cols, nil
}

func decodeColumn(t *model.Transaction, col string, v sql.NullString) error {
	if !v.Valid {
		return nil
	}
	var err error
	switch col {
	case model.ColID:
		t.ID, err = strconv.Atoi(v.String)
	case model.ColDate:
		t.Date, err = time.Parse(time.DateOnly, v.String)
	case model.ColLabel:
		t.Label = v.String
	case model.ColDebit:
		t.Debit, err = parseNullDecimal(v.String)
	case model.ColCredit:
		t.Credit, err = parseNullDecimal(v.String)
	case model.ColAccountID:
		t.AccountID, err = strconv.Atoi(v.String)
	case model.ColFinalBalance:
		t.FinalBalance, err = parseNullDecimal(v.String)
	case model.ColFinalBalanceDate:
		t.FinalBalanceDate, err = time.Parse(time.DateOnly, v.String)
	case model.ColNetAmount:
		t.NetAmount, err = decimal.NewFromString(v.String)
	case model.ColRunningBalance:
		t.RunningBalance, err = parseNullDecimal(v.String)
	case model.ColCategory:
		t.Category = v.String
	case model.ColMatchedKeyword:
		t.MatchedKeyword = v.String
	case model.ColSettled:
		t.Settled = v.String == "1" || strings.EqualFold(v.String, "true")
	}
	if err != nil {
		return fmt.Errorf("column %s: %w", col, err)
	}
	return nil
}

func parseNullDecimal(s string) (decimal.NullDecimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
