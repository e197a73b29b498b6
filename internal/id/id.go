package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/releve-dev/releve/internal/model"
)

// AssignDense numbers rows 1..N in their current order. Identifiers are only
// meaningful within one write of the ledger.
func AssignDense(rows []model.Transaction) {
	for i := range rows {
		rows[i].ID = i + 1
	}
}

// Gaps returns the identifiers missing from 1..len(ids), plus any identifier
// seen more than once, in ascending order.
func Gaps(ids []int) (missing, duplicate []int) {
	seen := make(map[int]int, len(ids))
	for _, v := range ids {
		seen[v]++
	}
	for i := 1; i <= len(ids); i++ {
		if seen[i] == 0 {
			missing = append(missing, i)
		}
	}
	for i := 1; i <= len(ids); i++ {
		if seen[i] > 1 {
			duplicate = append(duplicate, i)
		}
	}
	return missing, duplicate
}

// ParseRowID parses a ledger row identifier given on the command line.
func ParseRowID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid row id %q: %w", s, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("invalid row id %q: must be >= 1", s)
	}
	return n, nil
}

// NewRunID returns an identifier for one pipeline run.
func NewRunID() string {
	return uuid.NewString()
}
