package model

// Ledger column names, shared by the store, the CSV export and the merge
// schema check.
const (
	ColID               = "id"
	ColDate             = "date"
	ColLabel            = "label"
	ColDebit            = "debit"
	ColCredit           = "credit"
	ColAccountID        = "account_id"
	ColFinalBalance     = "final_balance"
	ColFinalBalanceDate = "final_balance_date"
	ColNetAmount        = "net_amount"
	ColRunningBalance   = "running_balance"
	ColCategory         = "category"
	ColMatchedKeyword   = "matched_keyword"
	ColSettled          = "settled"
)

// Columns lists every ledger column in storage order.
var Columns = []string{
	ColID,
	ColDate,
	ColLabel,
	ColDebit,
	ColCredit,
	ColAccountID,
	ColFinalBalance,
	ColFinalBalanceDate,
	ColNetAmount,
	ColRunningBalance,
	ColCategory,
	ColMatchedKeyword,
	ColSettled,
}

// KeyColumns identify the same transaction across two statement exports.
var KeyColumns = []string{ColDate, ColLabel, ColNetAmount, ColAccountID}

// Project clears every field whose column is not in keep. The id column is
// always kept since it is reassigned on write.
func Project(t Transaction, keep map[string]bool) Transaction {
	var out Transaction
	out.ID = t.ID
	if keep[ColDate] {
		out.Date = t.Date
	}
	if keep[ColLabel] {
		out.Label = t.Label
	}
	if keep[ColDebit] {
		out.Debit = t.Debit
	}
	if keep[ColCredit] {
		out.Credit = t.Credit
	}
	if keep[ColAccountID] {
		out.AccountID = t.AccountID
	}
	if keep[ColFinalBalance] {
		out.FinalBalance = t.FinalBalance
	}
	if keep[ColFinalBalanceDate] {
		out.FinalBalanceDate = t.FinalBalanceDate
	}
	if keep[ColNetAmount] {
		out.NetAmount = t.NetAmount
	}
	if keep[ColRunningBalance] {
		out.RunningBalance = t.RunningBalance
	}
	if keep[ColCategory] {
		out.Category = t.Category
	} else {
		out.Category = DefaultCategory
	}
	if keep[ColMatchedKeyword] {
		out.MatchedKeyword = t.MatchedKeyword
	}
	if keep[ColSettled] {
		out.Settled = t.Settled
	}
	return out
}
