package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.Get("nonexistent"))
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(&CreditAgricoleParser{})
	p := r.Get("ca")
	require.NotNil(t, p)
	assert.Equal(t, "ca", p.Format())
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&CreditAgricoleParser{})
	assert.NotNil(t, r.Get("CA"))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&CreditAgricoleParser{})
	assert.Panics(t, func() { r.Register(&CreditAgricoleParser{}) })
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("ca"))
}

func TestScan_FindsWorkbooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "releve.xlsx"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "UPPER.XLSX"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$releve.xlsx"), []byte("lock"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "UPPER.XLSX", files[0].Name)
	assert.Equal(t, "releve.xlsx", files[1].Name)
	assert.Equal(t, int64(4), files[1].Size)
}

func TestScan_IgnoresProcessedDir(t *testing.T) {
	dir := t.TempDir()
	processed := filepath.Join(dir, ProcessedDir)
	require.NoError(t, os.MkdirAll(processed, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.xlsx"), []byte("data"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(processed, "old.xlsx"), []byte("data"), 0o644))

	files, err := Scan(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "new.xlsx", files[0].Name)
}

func TestScan_MissingDir(t *testing.T) {
	files, err := Scan(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestMarkProcessed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bank.xlsx"), []byte("data"), 0o644))

	require.NoError(t, MarkProcessed(dir, "bank.xlsx"))

	_, err := os.Stat(filepath.Join(dir, "bank.xlsx"))
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(dir, ProcessedDir, "bank.xlsx"))
	assert.NoError(t, err)
}

func TestMarkProcessed_MissingFile(t *testing.T) {
	err := MarkProcessed(t.TempDir(), "ghost.xlsx")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.xlsx")
}
