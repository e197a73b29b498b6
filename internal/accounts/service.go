package accounts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/releve-dev/releve/internal/model"
)

// Dir and FileName locate the label file under the repo root.
const (
	Dir      = "accounts"
	FileName = "accounts.csv"
)

// Service maps statement account ids to human labels.
type Service struct {
	accounts []model.Account
	byID     map[int]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	s := &Service{byID: make(map[int]model.Account, len(accounts))}
	for _, a := range accounts {
		s.Set(a)
	}
	return s
}

// Path returns the label file for a repo root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, Dir, FileName)
}

// Load reads accounts/accounts.csv. A missing file is an empty registry.
func Load(repoRoot string) (*Service, error) {
	f, err := os.Open(Path(repoRoot))
	if errors.Is(err, fs.ErrNotExist) {
		return NewService(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening accounts: %w", err)
	}
	defer f.Close()

	accts, err := ReadAccounts(f)
	if err != nil {
		return nil, fmt.Errorf("reading accounts: %w", err)
	}
	return NewService(accts), nil
}

// All returns all accounts ordered by id.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id int) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Exists reports whether an account ID has a label.
func (s *Service) Exists(id int) bool {
	_, ok := s.byID[id]
	return ok
}

// Label returns the account's name, or "Compte <id>" when none is set.
func (s *Service) Label(id int) string {
	if a, ok := s.byID[id]; ok && a.Name != "" {
		return a.Name
	}
	return "Compte " + strconv.Itoa(id)
}

// Set adds or replaces an account.
func (s *Service) Set(a model.Account) {
	if _, ok := s.byID[a.ID]; ok {
		for i := range s.accounts {
			if s.accounts[i].ID == a.ID {
				s.accounts[i] = a
			}
		}
	} else {
		s.accounts = append(s.accounts, a)
		sort.Slice(s.accounts, func(i, j int) bool { return s.accounts[i].ID < s.accounts[j].ID })
	}
	s.byID[a.ID] = a
}

// Save writes accounts/accounts.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating accounts dir: %w", err)
	}

	f, err := os.Create(Path(repoRoot))
	if err != nil {
		return fmt.Errorf("creating accounts file: %w", err)
	}
	defer f.Close()

	if err := WriteAccounts(f, s.accounts); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}
	return nil
}
