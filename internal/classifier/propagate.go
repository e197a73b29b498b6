package classifier

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"

	"github.com/releve-dev/releve/internal/model"
)

// Suggestion is a candidate label whose closest settled label scored at or
// above the threshold.
type Suggestion struct {
	Label     string // unsettled label
	Reference string // closest settled label
	Category  string
	Score     float64
}

// Suggest pairs each distinct unsettled debit label with its closest settled
// label. Settled rows of any category are references; a reference label
// carries the category of its first occurrence. Suggestions are ordered by
// descending score.
func (c *Classifier) Suggest(txns []model.Transaction) []Suggestion {
	var refs []string
	refCategory := make(map[string]string)
	for _, t := range txns {
		if !t.Settled || strings.TrimSpace(t.Label) == "" {
			continue
		}
		if _, ok := refCategory[t.Label]; !ok {
			refCategory[t.Label] = t.Category
			refs = append(refs, t.Label)
		}
	}
	if len(refs) == 0 {
		return nil
	}

	var out []Suggestion
	seen := make(map[string]bool)
	for _, t := range txns {
		if !isCandidate(t) || strings.TrimSpace(t.Label) == "" || seen[t.Label] {
			continue
		}
		seen[t.Label] = true

		best, bestScore := "", -1.0
		for _, ref := range refs {
			if s := TokenSortRatio(t.Label, ref); s > bestScore {
				best, bestScore = ref, s
			}
		}
		if bestScore >= c.threshold {
			out = append(out, Suggestion{
				Label:     t.Label,
				Reference: best,
				Category:  refCategory[best],
				Score:     bestScore,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Propagate applies Suggest: every unsettled debit row whose label contains a
// suggested label, ignoring case, takes the reference's category and is
// settled. A row settled by a higher-scoring suggestion is not overwritten.
func (c *Classifier) Propagate(txns []model.Transaction) Stats {
	var st Stats
	for _, sg := range c.Suggest(txns) {
		needle := strings.ToLower(sg.Label)
		for i := range txns {
			t := &txns[i]
			if !isCandidate(*t) || !strings.Contains(strings.ToLower(t.Label), needle) {
				continue
			}
			t.Category, t.MatchedKeyword, t.Settled = sg.Category, sg.Reference, true
			st.Propagated++
		}
	}
	for _, t := range txns {
		if isCandidate(t) {
			st.Unmatched++
		}
	}
	return st
}

func isCandidate(t model.Transaction) bool {
	return t.IsDebit() && !t.Settled
}

// TokenSortRatio scores two labels 0-100 after upper-casing them and sorting
// their whitespace-separated tokens, so word order does not matter. The
// score is 200*LCS/(len(a)+len(b)) in runes.
func TokenSortRatio(a, b string) float64 {
	sa, sb := sortTokens(a), sortTokens(b)
	total := utf8.RuneCountInString(sa) + utf8.RuneCountInString(sb)
	if total == 0 {
		return 100
	}
	return 200 * float64(edlib.LCS(sa, sb)) / float64(total)
}

func sortTokens(s string) string {
	tokens := strings.Fields(strings.ToUpper(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
