package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/releve-dev/releve/internal/model"
)

// Header is the first line of accounts.csv.
var Header = []string{"account_id", "name", "description"}

// The description column may be left off in a hand-edited file.
const (
	minFields = 2
	colID     = 0
	colName   = 1
	colDesc   = 2
)

// ReadAccounts parses accounts.csv. Blank lines are ignored; an id may
// appear only once.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading accounts header: %w", err)
	}
	if len(head) < minFields || !slices.Equal(head[:minFields], Header[:minFields]) {
		return nil, fmt.Errorf("unexpected accounts header %q", strings.Join(head, ","))
	}

	var out []model.Account
	seen := make(map[int]int)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading accounts: %w", err)
		}
		line, _ := cr.FieldPos(colID)
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if first, dup := seen[acct.ID]; dup {
			return nil, fmt.Errorf("line %d: account %d already defined on line %d", line, acct.ID, first)
		}
		seen[acct.ID] = line
		out = append(out, acct)
	}
}

// WriteAccounts writes accounts.csv with the header.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	rows := make([][]string, 0, len(accounts)+1)
	rows = append(rows, Header)
	for _, a := range accounts {
		rows = append(rows, MarshalAccount(a))
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	return []string{strconv.Itoa(acct.ID), acct.Name, acct.Description}
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) < minFields || len(record) > len(Header) {
		return model.Account{}, fmt.Errorf("expected %d or %d fields, got %d", minFields, len(Header), len(record))
	}

	raw := strings.TrimSpace(record[colID])
	id, err := strconv.Atoi(raw)
	if err != nil {
		return model.Account{}, fmt.Errorf("account_id %q is not a number", raw)
	}
	if id < 1 {
		return model.Account{}, fmt.Errorf("account_id %d must be >= 1", id)
	}

	acct := model.Account{ID: id, Name: strings.TrimSpace(record[colName])}
	if len(record) > colDesc {
		acct.Description = strings.TrimSpace(record[colDesc])
	}
	return acct, nil
}
