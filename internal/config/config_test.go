package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Classifier.Threshold = 85
	cfg.Classifier.Rules = append(cfg.Classifier.Rules, Rule{Category: "Santé", Pattern: `(MEDECIN|DENTISTE)`})

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Ledger, got.Ledger)
	assert.Equal(t, cfg.Import, got.Import)
	assert.InDelta(t, 85, got.Classifier.Threshold, 0.001)
	assert.Equal(t, cfg.Classifier.Exclusions, got.Classifier.Exclusions)
	require.Len(t, got.Classifier.Rules, len(cfg.Classifier.Rules))
	assert.Equal(t, "Santé", got.Classifier.Rules[len(got.Classifier.Rules)-1].Category)
	assert.Equal(t, cfg.Classifier.Rules[0].Pattern, got.Classifier.Rules[0].Pattern)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "releve.db", cfg.Ledger.Path)
	assert.Equal(t, "operations", cfg.Ledger.Table)
	assert.Equal(t, "operations_old", cfg.Ledger.BackupTable)
	assert.Equal(t, "operations_temp", cfg.Ledger.TempTable)
	assert.Equal(t, "Uncategorized", cfg.Classifier.DefaultCategory)
	assert.InDelta(t, 90, cfg.Classifier.Threshold, 0.001)
	assert.Equal(t, []string{"PHARMACIE", "ANDREA"}, cfg.Classifier.Exclusions)
	assert.Equal(t, "Abonnements", cfg.Classifier.Rules[0].Category)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no ledger path", func(c *Config) { c.Ledger.Path = "" }},
		{"no backup table", func(c *Config) { c.Ledger.BackupTable = "" }},
		{"same table names", func(c *Config) { c.Ledger.TempTable = c.Ledger.Table }},
		{"no default category", func(c *Config) { c.Classifier.DefaultCategory = "" }},
		{"threshold too high", func(c *Config) { c.Classifier.Threshold = 101 }},
		{"rule without pattern", func(c *Config) { c.Classifier.Rules = []Rule{{Category: "X"}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("ledger:\n  path: x.db\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	cfg := Default()
	assert.Equal(t, filepath.Join("/repo", "releve.db"), cfg.LedgerPath("/repo"))
	assert.Equal(t, filepath.Join("/repo", "import"), cfg.ImportDir("/repo"))

	cfg.Ledger.Path = "/var/lib/releve.db"
	assert.Equal(t, "/var/lib/releve.db", cfg.LedgerPath("/repo"))
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "table: operations")
	assert.Contains(t, contents, "default_category: Uncategorized")
	assert.Contains(t, contents, "threshold: 90")
	assert.Contains(t, contents, "- PHARMACIE")
}
