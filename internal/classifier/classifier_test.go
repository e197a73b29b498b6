package classifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/releve-dev/releve/internal/config"
	"github.com/releve-dev/releve/internal/model"
)

func debit(label string) model.Transaction {
	return model.Transaction{
		Label:    label,
		Debit:    decimal.NewNullDecimal(decimal.RequireFromString("10")),
		Category: model.DefaultCategory,
	}
}

func credit(label string) model.Transaction {
	return model.Transaction{
		Label:    label,
		Credit:   decimal.NewNullDecimal(decimal.RequireFromString("10")),
		Category: model.DefaultCategory,
	}
}

func settled(label, category string) model.Transaction {
	t := debit(label)
	t.Category = category
	t.Settled = true
	return t
}

func defaultClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := FromConfig(config.Default().Classifier)
	require.NoError(t, err)
	return c
}

func TestNewRule_InvalidPattern(t *testing.T) {
	_, err := NewRule("(UNCLOSED", "Cat")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cat")
}

func TestFromConfig_BadRule(t *testing.T) {
	cfg := config.Default().Classifier
	cfg.Rules = append(cfg.Rules, config.Rule{Category: "Bad", Pattern: "[z-a]"})
	_, err := FromConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule 8")
}

func TestApplyRules_FirstMatchWins(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{debit("cb Carrefour City 12/11")}

	st := c.ApplyRules(txns)
	assert.Equal(t, Stats{Matched: 1}, st)
	assert.Equal(t, "Alimentation", txns[0].Category)
	assert.Equal(t, "CARREFOUR", txns[0].MatchedKeyword)
	assert.True(t, txns[0].Settled)
}

func TestApplyRules_ExclusionBeatsPattern(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{debit("CB PHARMACIE CARREFOUR")}

	st := c.ApplyRules(txns)
	assert.Equal(t, 1, st.Excluded)
	assert.Equal(t, model.DefaultCategory, txns[0].Category)
	assert.Equal(t, "PHARMACIE", txns[0].MatchedKeyword)
	assert.True(t, txns[0].Settled)
}

func TestApplyRules_Unmatched(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{debit("CHEQUE 0001234")}

	st := c.ApplyRules(txns)
	assert.Equal(t, 1, st.Unmatched)
	assert.Equal(t, model.DefaultCategory, txns[0].Category)
	assert.Empty(t, txns[0].MatchedKeyword)
	assert.False(t, txns[0].Settled)
}

func TestApplyRules_SkipsCreditAndSettledRows(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{
		credit("VIR SEPA CARREFOUR"),
		settled("CB CARREFOUR", "Loisirs"),
	}

	st := c.ApplyRules(txns)
	assert.Equal(t, Stats{}, st)
	assert.Equal(t, model.DefaultCategory, txns[0].Category)
	assert.False(t, txns[0].Settled)
	assert.Equal(t, "Loisirs", txns[1].Category)
}

func TestApplyRules_CustomDefaultCategory(t *testing.T) {
	rule, err := NewRule(`NETFLIX`, "Abonnements")
	require.NoError(t, err)
	c := New(Options{Rules: []Rule{rule}, Exclusions: []string{" andrea "}, DefaultCategory: "Autres"})

	txns := []model.Transaction{debit("VIR ANDREA NETFLIX"), debit("INCONNU")}
	c.ApplyRules(txns)
	assert.Equal(t, "Autres", txns[0].Category)
	assert.True(t, txns[0].Settled)
	assert.Equal(t, "Autres", txns[1].Category)
	assert.False(t, txns[1].Settled)
}

func TestTokenSortRatio(t *testing.T) {
	assert.Equal(t, 100.0, TokenSortRatio("CB CARREFOUR CITY", "city carrefour cb"))
	assert.Equal(t, 0.0, TokenSortRatio("ABC", "XYZ"))
	assert.Equal(t, 100.0, TokenSortRatio("", "  "))
	assert.InDelta(t, 96.0, TokenSortRatio("PAYPAL EUROPE", "PAYPAL EUROP"), 1e-9)
	assert.InDelta(t, 200.0*20/41, TokenSortRatio("CB LA MIE DOREE PARI", "CB LA MIE DOREE PARIS"), 1e-9)
}

func TestPropagate_NoReferences(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{debit("INCONNU 1"), debit("INCONNU 2")}

	st := c.Propagate(txns)
	assert.Equal(t, Stats{Unmatched: 2}, st)
	assert.False(t, txns[0].Settled)
}

func TestPropagate_NoCandidates(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{settled("CB BOULANGERIE", "Alimentation")}

	assert.Equal(t, Stats{}, c.Propagate(txns))
}

func TestPropagate_ContainmentAndThreshold(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{
		settled("CB LA MIE DOREE PARIS", "Alimentation"),
		debit("CB LA MIE DOREE PARI"),
		debit("cb la mie doree pari 12/11"),
		debit("VIR XYZ"),
		credit("CB LA MIE DOREE PARI REMB"),
	}

	st := c.Propagate(txns)
	assert.Equal(t, 2, st.Propagated)
	assert.Equal(t, 1, st.Unmatched)

	for _, i := range []int{1, 2} {
		assert.Equal(t, "Alimentation", txns[i].Category, txns[i].Label)
		assert.Equal(t, "CB LA MIE DOREE PARIS", txns[i].MatchedKeyword)
		assert.True(t, txns[i].Settled)
	}
	assert.False(t, txns[3].Settled)
	assert.False(t, txns[4].Settled)
	assert.Equal(t, model.DefaultCategory, txns[4].Category)
}

func TestPropagate_ReferenceUsesFirstOccurrence(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{
		settled("SUMUP *LE ZINC", "Alimentation"),
		settled("SUMUP *LE ZINC", "Loisirs"),
		debit("SUMUP *LE ZINC"),
	}

	c.Propagate(txns)
	assert.Equal(t, "Alimentation", txns[2].Category)
}

func TestPropagate_HigherScoreWins(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{
		settled("SNCF INTERNET", "Transports"),
		settled("SNCF INTERNET BAGAGES", "Loisirs"),
		debit("SNCF INTERNET BAGAGE"),
		debit("SNCF INTERNET"),
	}

	sgs := c.Suggest(txns)
	require.Len(t, sgs, 2)
	assert.Equal(t, "SNCF INTERNET", sgs[0].Label)
	assert.Equal(t, 100.0, sgs[0].Score)
	assert.Equal(t, "SNCF INTERNET BAGAGES", sgs[1].Reference)

	st := c.Propagate(txns)
	assert.Equal(t, 2, st.Propagated)
	assert.Equal(t, "Transports", txns[2].Category)
	assert.Equal(t, "Transports", txns[3].Category)
}

func TestClassify_BothStages(t *testing.T) {
	c := defaultClassifier(t)
	txns := []model.Transaction{
		settled("CHEQUE MME DURAND", "Logement"),
		debit("CB NETFLIX.COM"),
		debit("CB PHARMACIE DU MARCHE"),
		debit("CHEQUE MME DURAN"),
		debit("CHEQUE 0001234"),
		credit("REMISE CHEQUE"),
	}

	st := c.Classify(txns)
	assert.Equal(t, Stats{Excluded: 1, Matched: 1, Propagated: 1, Unmatched: 1}, st)
	assert.Equal(t, "Abonnements", txns[1].Category)
	assert.Equal(t, "Logement", txns[3].Category)
	assert.False(t, txns[4].Settled)
	assert.False(t, txns[5].Settled)
}
