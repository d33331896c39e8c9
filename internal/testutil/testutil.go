// Package testutil provides shared test helpers for setting up vaults and journals.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/notetidy/internal/journal"
	"github.com/starford/notetidy/internal/storage"
)

// TestJournal creates a temporary SQLite journal that is automatically cleaned up.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "notetidy-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := journal.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// WriteNote writes content to the vault-relative path rel, creating folders.
func WriteNote(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	abs := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// ReadNote returns the content of the vault-relative path rel.
func ReadNote(t *testing.T, vaultDir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(vaultDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
