package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/releve-dev/releve/internal/model"
)

type mockAccounts map[int]bool

func (m mockAccounts) Exists(id int) bool { return m[id] }

func anchored(id, day int, net, running string) model.Transaction {
	t := model.Transaction{
		ID:               id,
		Date:             date(2025, 11, day),
		Label:            "OP",
		AccountID:        1,
		FinalBalance:     some("100"),
		FinalBalanceDate: date(2025, 11, 30),
		NetAmount:        dec(net),
		RunningBalance:   some(running),
	}
	if t.NetAmount.IsNegative() {
		t.Debit = some(t.NetAmount.Neg().String())
	} else {
		t.Credit = some(net)
	}
	return t
}

func invariants(errs []ValidationError) []int {
	var out []int
	for _, e := range errs {
		out = append(out, e.Invariant)
	}
	return out
}

func validSegment() []model.Transaction {
	return []model.Transaction{
		anchored(1, 28, "-10", "60"),
		anchored(2, 29, "50", "110"),
		anchored(3, 30, "-10", "100"),
	}
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validSegment(), nil))
	assert.Empty(t, Validate(validSegment(), mockAccounts{1: true}))
}

func TestValidate_Invariant1_FinalBalance(t *testing.T) {
	rows := validSegment()
	rows[2].RunningBalance = some("101")
	rows[1].RunningBalance = some("111")
	rows[0].RunningBalance = some("61")

	errs := Validate(rows, nil)
	assert.Equal(t, []int{1}, invariants(errs))
	assert.Equal(t, 3, errs[0].RowID)
}

func TestValidate_Invariant2_Chain(t *testing.T) {
	rows := validSegment()
	rows[0].RunningBalance = some("65")

	errs := Validate(rows, nil)
	assert.Equal(t, []int{2}, invariants(errs))
	assert.Equal(t, 2, errs[0].RowID)
	assert.Contains(t, errs[0].Error(), "invariant 2 [row 2]")
}

func TestValidate_Invariant2_MissingRunningBalance(t *testing.T) {
	rows := validSegment()
	rows[1].RunningBalance.Valid = false
	assert.Equal(t, []int{2}, invariants(Validate(rows, nil)))
}

func TestValidate_Invariant3_DebitAndCredit(t *testing.T) {
	rows := validSegment()
	rows[0].Credit = some("0")

	assert.Equal(t, []int{3}, invariants(Validate(rows, nil)))
}

func TestValidate_Invariant4_Ids(t *testing.T) {
	rows := validSegment()
	rows[2].ID = 2

	errs := Validate(rows, nil)
	assert.ElementsMatch(t, []int{4, 4}, invariants(errs))
}

func TestValidate_Invariant5_Dates(t *testing.T) {
	rows := []model.Transaction{
		{ID: 1, Date: date(2025, 11, 10), AccountID: 0, NetAmount: dec("0")},
		{ID: 2, Date: date(2025, 11, 9), AccountID: 0, NetAmount: dec("0")},
		{ID: 3, Date: date(2025, 11, 1), AccountID: 2, NetAmount: dec("0")},
	}

	errs := Validate(rows, nil)
	assert.Equal(t, []int{5}, invariants(errs))
	assert.Equal(t, 2, errs[0].RowID)
}

func TestValidate_Invariant6_UnknownAccount(t *testing.T) {
	errs := Validate(validSegment(), mockAccounts{2: true})
	assert.Equal(t, []int{6}, invariants(errs))
	assert.Contains(t, errs[0].Error(), "account 1")
}

func TestValidate_SeparateSegments(t *testing.T) {
	older := validSegment()
	newer := anchored(4, 30, "-5", "95")
	newer.FinalBalance = some("95")

	rows := append(older, newer)
	assert.Empty(t, Validate(rows, nil))
}

// statementRow is a row of a later statement of account 1 whose balance was
// taken at the end of 30/11.
func statementRow(id int, net, running, final string) model.Transaction {
	t := anchored(id, 30, net, running)
	t.FinalBalance = some(final)
	return t
}

func TestValidate_TailDroppedOnOverlapDay(t *testing.T) {
	// The later statement listed -3 then -10 on 30/11; the -10 was already
	// in the ledger as row 3 and was dropped, so row 4 is its last row.
	rows := append(validSegment(), statementRow(4, "-3", "107", "97"))
	assert.Empty(t, Validate(rows, nil))
}

func TestValidate_HoleOnOverlapDay(t *testing.T) {
	// -3, -10 (dropped), -2 on 30/11.
	rows := append(validSegment(),
		statementRow(4, "-3", "97", "85"),
		statementRow(5, "-2", "85", "85"),
	)
	assert.Empty(t, Validate(rows, nil))
}

func TestValidate_OverlapDayOnlyAfterEarlierSegment(t *testing.T) {
	rows := validSegment()
	rows[2].RunningBalance = some("99")
	rows[1].RunningBalance = some("109")
	rows[0].RunningBalance = some("59")

	errs := Validate(append(rows, statementRow(4, "-3", "96", "96")), nil)
	assert.Equal(t, []int{1}, invariants(errs))
	assert.Equal(t, 3, errs[0].RowID)
}

func TestValidationError_LedgerLevel(t *testing.T) {
	e := ValidationError{Invariant: 4, Description: "missing id 2 in 1..3"}
	assert.Equal(t, "invariant 4 [ledger]: missing id 2 in 1..3", e.Error())
}
