package accounts

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/releve-dev/releve/internal/model"
)

// Summary is one line of the accounts report.
type Summary struct {
	AccountID     int
	Label         string
	Transactions  int
	LatestDate    time.Time
	LatestBalance decimal.NullDecimal
	Uncategorized int // unsettled debit rows
}

// Summarize groups ledger rows by account. The latest balance is the running
// balance of the account's highest-id row that has one.
func (s *Service) Summarize(rows []model.Transaction) []Summary {
	byID := make(map[int]*Summary)
	latestID := make(map[int]int)
	for _, t := range rows {
		sum, ok := byID[t.AccountID]
		if !ok {
			sum = &Summary{AccountID: t.AccountID, Label: s.Label(t.AccountID)}
			byID[t.AccountID] = sum
		}
		sum.Transactions++
		if t.Date.After(sum.LatestDate) {
			sum.LatestDate = t.Date
		}
		if t.RunningBalance.Valid && t.ID >= latestID[t.AccountID] {
			latestID[t.AccountID] = t.ID
			sum.LatestBalance = t.RunningBalance
		}
		if t.IsDebit() && !t.Settled {
			sum.Uncategorized++
		}
	}

	out := make([]Summary, 0, len(byID))
	for _, sum := range byID {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out
}
