package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/releve-dev/releve/internal/id"
	"github.com/releve-dev/releve/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	RowID       int // 0 when the violation concerns the whole ledger
	Description string
}

func (e ValidationError) Error() string {
	if e.RowID == 0 {
		return fmt.Sprintf("invariant %d [ledger]: %s", e.Invariant, e.Description)
	}
	return fmt.Sprintf("invariant %d [row %d]: %s", e.Invariant, e.RowID, e.Description)
}

// AccountChecker tests whether an account id has a registered label.
type AccountChecker interface {
	Exists(id int) bool
}

type accountDay struct {
	account int
	day     string
}

type segmentKey struct {
	account int
	balance string
	asOf    string
}

// Validate checks a stored ledger:
//
//  1. the last row of each balance segment carries the segment's final balance
//  2. adjacent rows of a segment differ by the later row's net amount
//  3. no row has both a debit and a credit
//  4. identifiers are 1..N without gaps or repeats
//  5. dates never decrease within an account, in identifier order
//  6. every anchored account is registered (skipped when accounts is nil)
//
// A balance segment is the rows sharing (account_id, final_balance,
// final_balance_date), i.e. one account of one statement.
//
// Checks 1 and 2 are skipped on overlap days: a date the account already
// holds from an earlier segment. The merge may drop a segment's rows there
// as duplicates of the earlier copy, so the chain can have holes on that day.
func Validate(rows []model.Transaction, accounts AccountChecker) []ValidationError {
	var errs []ValidationError

	ordered := make([]model.Transaction, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	segments := make(map[segmentKey][]model.Transaction)
	var segmentOrder []segmentKey
	lastDate := make(map[int]time.Time)
	unknown := make(map[int]bool)

	for _, t := range ordered {
		// Invariant 3
		if t.Debit.Valid && t.Credit.Valid {
			errs = append(errs, ValidationError{
				Invariant:   3,
				RowID:       t.ID,
				Description: "row has both a debit and a credit",
			})
		}

		// Invariant 5
		if prev, ok := lastDate[t.AccountID]; ok && t.Date.Before(prev) {
			errs = append(errs, ValidationError{
				Invariant: 5,
				RowID:     t.ID,
				Description: fmt.Sprintf("date %s before %s in account %d",
					t.Date.Format(dateFormat), prev.Format(dateFormat), t.AccountID),
			})
		} else {
			lastDate[t.AccountID] = t.Date
		}

		// Invariant 6
		if accounts != nil && t.AccountID > 0 && !accounts.Exists(t.AccountID) && !unknown[t.AccountID] {
			unknown[t.AccountID] = true
			errs = append(errs, ValidationError{
				Invariant:   6,
				RowID:       t.ID,
				Description: fmt.Sprintf("account %d is not registered", t.AccountID),
			})
		}

		if !t.HasBalance() {
			continue
		}
		k := segmentKey{t.AccountID, t.FinalBalance.Decimal.StringFixed(2), t.FinalBalanceDate.Format(dateFormat)}
		if _, seen := segments[k]; !seen {
			segmentOrder = append(segmentOrder, k)
		}
		segments[k] = append(segments[k], t)
	}

	firstOnDay := make(map[accountDay]int)
	for _, k := range segmentOrder {
		for _, t := range segments[k] {
			d := accountDay{t.AccountID, t.Date.Format(dateFormat)}
			if first, ok := firstOnDay[d]; !ok || t.ID < first {
				firstOnDay[d] = t.ID
			}
		}
	}
	for _, k := range segmentOrder {
		seg := segments[k]
		overlap := func(t model.Transaction) bool {
			return firstOnDay[accountDay{t.AccountID, t.Date.Format(dateFormat)}] < seg[0].ID
		}
		errs = append(errs, validateSegment(seg, overlap)...)
	}

	// Invariant 4
	ids := make([]int, len(rows))
	for i, t := range rows {
		ids[i] = t.ID
	}
	missing, dup := id.Gaps(ids)
	for _, m := range missing {
		errs = append(errs, ValidationError{
			Invariant:   4,
			Description: fmt.Sprintf("missing id %d in 1..%d", m, len(rows)),
		})
	}
	for _, d := range dup {
		errs = append(errs, ValidationError{
			Invariant:   4,
			RowID:       d,
			Description: "id used more than once",
		})
	}

	return errs
}

func validateSegment(seg []model.Transaction, overlap func(model.Transaction) bool) []ValidationError {
	var errs []ValidationError
	for i, t := range seg {
		if !t.RunningBalance.Valid {
			errs = append(errs, ValidationError{
				Invariant:   2,
				RowID:       t.ID,
				Description: "anchored row has no running balance",
			})
			return errs
		}
		if i == 0 || overlap(t) {
			continue
		}
		prev := seg[i-1]
		if diff := t.RunningBalance.Decimal.Sub(prev.RunningBalance.Decimal); !diff.Equal(t.NetAmount) {
			errs = append(errs, ValidationError{
				Invariant: 2,
				RowID:     t.ID,
				Description: fmt.Sprintf("balance moved by %s since row %d, net amount is %s",
					diff.StringFixed(2), prev.ID, t.NetAmount.StringFixed(2)),
			})
		}
	}

	last := seg[len(seg)-1]
	if !overlap(last) && !last.RunningBalance.Decimal.Equal(last.FinalBalance.Decimal) {
		errs = append(errs, ValidationError{
			Invariant: 1,
			RowID:     last.ID,
			Description: fmt.Sprintf("running balance %s does not match final balance %s of %s",
				last.RunningBalance.Decimal.StringFixed(2), last.FinalBalance.Decimal.StringFixed(2),
				last.FinalBalanceDate.Format(dateFormat)),
		})
	}
	return errs
}
