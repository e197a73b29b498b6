package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is the category of a transaction no rule or person has
// classified yet.
const DefaultCategory = "Uncategorized"

// BalanceMarker is a "Solde au" line found in a raw statement sheet.
type BalanceMarker struct {
	Row     int // zero-based row index in the sheet
	AsOf    time.Time
	Balance decimal.Decimal
}

// Transaction is one canonical ledger row.
type Transaction struct {
	ID    int       // dense 1..N, only stable within one write
	Date  time.Time
	Label string

	Debit  decimal.NullDecimal // absent on credit rows
	Credit decimal.NullDecimal // absent on debit rows

	AccountID        int                 // 0 = section without a preceding balance marker
	FinalBalance     decimal.NullDecimal // balance of the marker the section trails
	FinalBalanceDate time.Time           // zero when FinalBalance is absent

	NetAmount      decimal.Decimal // credit - debit
	RunningBalance decimal.NullDecimal

	Category       string
	MatchedKeyword string
	Settled        bool
}

// IsDebit reports whether the row is a spending row, the only kind the
// classifier touches.
func (t Transaction) IsDebit() bool {
	return t.Debit.Valid
}

// HasBalance reports whether the row is anchored to a balance marker.
func (t Transaction) HasBalance() bool {
	return t.FinalBalance.Valid
}

// Day truncates a time to its civil date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
