package importer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/releve-dev/releve/internal/model"
)

// Grid is a raw sheet: rows of cell text, no header interpretation.
type Grid [][]string

// Column labels of a transaction section.
const (
	HeaderDate   = "Date"
	HeaderLabel  = "Libellé"
	HeaderDebit  = "Débit euros"
	HeaderCredit = "Crédit euros"
)

var balanceRe = regexp.MustCompile(`Solde au\s+(\d{2}/\d{2}/\d{4})[\s\x{00A0}\x{202F}]+(-?\d[\d\s\x{00A0}\x{202F}.,]*)`)

// Statement is the parsed content of one export.
type Statement struct {
	Transactions []model.Transaction
	Markers      []model.BalanceMarker
	Sections     int // sections that yielded at least one transaction
	Diagnostics  []string
}

// Accounts returns the number of distinct anchored accounts.
func (s *Statement) Accounts() int {
	seen := make(map[int]bool)
	for _, t := range s.Transactions {
		if t.AccountID > 0 {
			seen[t.AccountID] = true
		}
	}
	return len(seen)
}

func (s *Statement) diag(format string, args ...any) {
	s.Diagnostics = append(s.Diagnostics, fmt.Sprintf(format, args...))
}

type section struct {
	header int
	rows   []model.Transaction
	marker *model.BalanceMarker
}

// ParseGrid turns a raw statement sheet into canonical transactions with
// account identifiers and running balances.
func ParseGrid(grid Grid) (*Statement, error) {
	st := &Statement{}
	st.Markers = findMarkers(grid, st)

	headers := findHeaders(grid)
	if len(headers) == 0 {
		return nil, parseErr(-1, "no transaction sections found (no %q header row)", HeaderDate)
	}

	var sections []section
	for i, start := range headers {
		end := len(grid)
		if i+1 < len(headers) {
			end = headers[i+1]
		}

		rows, err := readSection(grid, start, end)
		if err != nil {
			return nil, err
		}

		marker := precedingMarker(st.Markers, start)
		if len(rows) == 0 {
			if marker != nil {
				st.diag("section at row %d has no transactions; balance of %s as of %s dropped",
					start+1, marker.Balance.StringFixed(2), marker.AsOf.Format(statementDateFormat))
			} else {
				st.diag("section at row %d has no transactions", start+1)
			}
			continue
		}
		if marker == nil {
			st.diag("section at row %d has no preceding balance; running balance not computed", start+1)
		}
		sections = append(sections, section{header: start, rows: rows, marker: marker})
	}

	if len(sections) == 0 {
		return nil, parseErr(-1, "all %d transaction sections are empty", len(headers))
	}
	st.Sections = len(sections)

	var txns []model.Transaction
	for _, sec := range sections {
		for _, t := range sec.rows {
			if sec.marker != nil {
				t.FinalBalance = decimal.NewNullDecimal(sec.marker.Balance)
				t.FinalBalanceDate = sec.marker.AsOf
			}
			txns = append(txns, t)
		}
	}

	assignAccounts(txns)
	sort.SliceStable(txns, func(i, j int) bool {
		if txns[i].AccountID != txns[j].AccountID {
			return txns[i].AccountID < txns[j].AccountID
		}
		return txns[i].Date.Before(txns[j].Date)
	})
	ReconstructBalances(txns)

	st.Transactions = txns
	return st, nil
}

func findMarkers(grid Grid, st *Statement) []model.BalanceMarker {
	var markers []model.BalanceMarker
	for i, row := range grid {
		m := balanceRe.FindStringSubmatch(joinRow(row))
		if m == nil {
			continue
		}
		asOf, err := time.Parse(statementDateFormat, m[1])
		if err != nil {
			st.diag("row %d: balance date %q: %v", i+1, m[1], err)
			continue
		}
		bal, err := ParseEuroAmount(m[2])
		if err != nil {
			st.diag("row %d: balance amount: %v", i+1, err)
			continue
		}
		markers = append(markers, model.BalanceMarker{Row: i, AsOf: asOf, Balance: bal})
	}
	return markers
}

func joinRow(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " ")
}

func findHeaders(grid Grid) []int {
	var rows []int
	for i, row := range grid {
		for _, c := range row {
			if strings.TrimSpace(c) == HeaderDate {
				rows = append(rows, i)
				break
			}
		}
	}
	return rows
}

// precedingMarker returns the marker with the largest row strictly above
// header, or nil.
func precedingMarker(markers []model.BalanceMarker, header int) *model.BalanceMarker {
	var best *model.BalanceMarker
	for i := range markers {
		if markers[i].Row < header && (best == nil || markers[i].Row > best.Row) {
			best = &markers[i]
		}
	}
	return best
}

// readSection re-reads grid[start:end] using grid[start] as the header and
// keeps rows whose date parses.
func readSection(grid Grid, start, end int) ([]model.Transaction, error) {
	cols := make(map[string]int)
	for i, c := range grid[start] {
		label := strings.TrimSpace(c)
		if _, dup := cols[label]; label != "" && !dup {
			cols[label] = i
		}
	}
	if _, ok := cols[HeaderLabel]; !ok {
		return nil, parseErr(start, "missing %q column", HeaderLabel)
	}

	cell := func(row []string, label string) string {
		i, ok := cols[label]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var txns []model.Transaction
	for _, row := range grid[start+1 : end] {
		date, ok := ParseCellDate(cell(row, HeaderDate))
		if !ok {
			continue
		}
		debit := parseAmountCell(cell(row, HeaderDebit))
		credit := parseAmountCell(cell(row, HeaderCredit))
		txns = append(txns, model.Transaction{
			Date:      date,
			Label:     strings.TrimSpace(cell(row, HeaderLabel)),
			Debit:     debit,
			Credit:    credit,
			NetAmount: credit.Decimal.Sub(debit.Decimal),
			Category:  model.DefaultCategory,
		})
	}
	return txns, nil
}

type balanceKey struct {
	balance decimal.Decimal
	asOf    time.Time
}

// assignAccounts numbers accounts by the dense rank of their trailing
// balance signature, ordered by balance then date. Rows without a balance
// keep account 0.
func assignAccounts(txns []model.Transaction) {
	var keys []balanceKey
	for _, t := range txns {
		if !t.HasBalance() {
			continue
		}
		k := balanceKey{t.FinalBalance.Decimal, t.FinalBalanceDate}
		if indexOfKey(keys, k) < 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if c := keys[i].balance.Cmp(keys[j].balance); c != 0 {
			return c < 0
		}
		return keys[i].asOf.Before(keys[j].asOf)
	})
	for i := range txns {
		if !txns[i].HasBalance() {
			continue
		}
		txns[i].AccountID = indexOfKey(keys, balanceKey{txns[i].FinalBalance.Decimal, txns[i].FinalBalanceDate}) + 1
	}
}

func indexOfKey(keys []balanceKey, k balanceKey) int {
	for i, e := range keys {
		if e.balance.Equal(k.balance) && e.asOf.Equal(k.asOf) {
			return i
		}
	}
	return -1
}

// ReconstructBalances fills RunningBalance for rows sorted by account then
// date. The last row of an account carries the final balance; each earlier
// row carries the next row's balance minus the next row's net amount.
func ReconstructBalances(txns []model.Transaction) {
	end := len(txns)
	for end > 0 {
		start := end - 1
		for start > 0 && txns[start-1].AccountID == txns[end-1].AccountID {
			start--
		}
		last := txns[end-1]
		if last.HasBalance() {
			bal := last.FinalBalance.Decimal
			for i := end - 1; i >= start; i-- {
				txns[i].RunningBalance = decimal.NewNullDecimal(bal)
				bal = bal.Sub(txns[i].NetAmount)
			}
		}
		end = start
	}
}
