package ledger

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releve-dev/releve/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func some(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func sampleRows() []model.Transaction {
	return []model.Transaction{
		{
			ID:               1,
			Date:             date(2025, 11, 28),
			Label:            "CB CARREFOUR, PARIS",
			Debit:            some("10"),
			AccountID:        1,
			FinalBalance:     some("1234.56"),
			FinalBalanceDate: date(2025, 11, 30),
			NetAmount:        dec("-10"),
			RunningBalance:   some("1189.56"),
			Category:         "Alimentation",
			MatchedKeyword:   "CARREFOUR",
			Settled:          true,
		},
		{
			ID:        2,
			Date:      date(2025, 11, 29),
			Label:     `VIR "SALAIRE"`,
			Credit:    some("50"),
			NetAmount: dec("50"),
			Category:  model.DefaultCategory,
		},
	}
}

func TestRoundTrip(t *testing.T) {
	rows := sampleRows()

	var buf bytes.Buffer
	require.NoError(t, WriteRows(&buf, rows))

	got, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, rows[0].Label, got[0].Label)
	assert.True(t, got[0].Debit.Decimal.Equal(dec("10")))
	assert.False(t, got[0].Credit.Valid)
	assert.True(t, got[0].FinalBalanceDate.Equal(rows[0].FinalBalanceDate))
	assert.True(t, got[0].RunningBalance.Decimal.Equal(dec("1189.56")))
	assert.Equal(t, "CARREFOUR", got[0].MatchedKeyword)
	assert.True(t, got[0].Settled)

	assert.Equal(t, `VIR "SALAIRE"`, got[1].Label)
	assert.False(t, got[1].FinalBalance.Valid)
	assert.True(t, got[1].FinalBalanceDate.IsZero())
	assert.False(t, got[1].Settled)
}

func TestMarshalRow_Formatting(t *testing.T) {
	row := MarshalRow(sampleRows()[0])
	assert.Equal(t, []string{
		"1", "2025-11-28", "CB CARREFOUR, PARIS", "10.00", "", "1",
		"1234.56", "2025-11-30", "-10.00", "1189.56", "Alimentation", "CARREFOUR", "true",
	}, row)
}

func TestReadRows_Empty(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestReadRows_HeaderOnly(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestReadRows_WrongHeader(t *testing.T) {
	bad := strings.Replace(Header, "label", "libelle", 1)
	_, err := ReadRows(strings.NewReader(bad + "\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected ledger header")
}

func TestUnmarshalRow_Errors(t *testing.T) {
	good := MarshalRow(sampleRows()[0])

	tests := []struct {
		col  int
		val  string
		want string
	}{
		{colID, "x", "parsing id"},
		{colDate, "28/11/2025", "parsing date"},
		{colDebit, "ten", "parsing debit"},
		{colNetAmount, "", "parsing net_amount"},
		{colSettled, "yes", "parsing settled"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			rec := append([]string(nil), good...)
			rec[tt.col] = tt.val
			_, err := UnmarshalRow(rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := UnmarshalRow(good[:5])
	assert.Error(t, err)
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "ledger.csv")
	require.NoError(t, WriteFile(path, sampleRows()))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.NoError(t, err)
	assert.Nil(t, rows)
}
