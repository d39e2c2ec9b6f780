package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/declarch-sh/declarch/internal/identity"
)

func TestNew(t *testing.T) {
	s := New()

	if s.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", s.Version, CurrentVersion)
	}
	if s.Records == nil {
		t.Error("Records should be initialized")
	}
}

func TestStatePutPreservesInstalledAt(t *testing.T) {
	s := New()
	k, _ := identity.NewKey("aur", "bat")

	first := time.Now().Add(-24 * time.Hour)
	s.Put(Record{Backend: "aur", Name: "bat", ManagedBy: ManagedByDeclarch, InstalledAt: first, LastSyncedAt: first})

	second := time.Now()
	s.Put(Record{Backend: "aur", Name: "bat", ManagedBy: ManagedByDeclarch, InstalledAt: second, LastSyncedAt: second})

	r, ok := s.Get(k)
	if !ok {
		t.Fatal("Get() did not find record after Put()")
	}
	if !r.InstalledAt.Equal(first) {
		t.Errorf("InstalledAt = %v, want preserved value %v", r.InstalledAt, first)
	}
	if !r.LastSyncedAt.Equal(second) {
		t.Errorf("LastSyncedAt = %v, want updated value %v", r.LastSyncedAt, second)
	}
}

func TestStateRemove(t *testing.T) {
	s := New()
	k, _ := identity.NewKey("aur", "bat")
	s.Put(Record{Backend: "aur", Name: "bat", ManagedBy: ManagedByDeclarch})

	s.Remove(k)

	if _, ok := s.Get(k); ok {
		t.Error("record should be gone after Remove()")
	}
}

func TestStateForBackend(t *testing.T) {
	s := New()
	s.Put(Record{Backend: "aur", Name: "bat"})
	s.Put(Record{Backend: "aur", Name: "ripgrep"})
	s.Put(Record{Backend: "npm", Name: "typescript"})

	aur := s.ForBackend("aur")
	if len(aur) != 2 {
		t.Errorf("len(ForBackend(aur)) = %d, want 2", len(aur))
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st := NewStoreAt(filepath.Join(dir, "state.json"))

	s := New()
	s.Put(Record{Backend: "aur", Name: "bat", ManagedBy: ManagedByDeclarch, InstalledAt: time.Now(), LastSyncedAt: time.Now()})

	if err := st.Save(s); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, warnings, err := st.Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("Load() warnings = %v, want none for a clean file", warnings)
	}
	k, _ := identity.NewKey("aur", "bat")
	if _, ok := loaded.Get(k); !ok {
		t.Error("loaded state is missing the saved record")
	}
}

func TestStoreLoadMissingFileReturnsEmptyState(t *testing.T) {
	dir := t.TempDir()
	st := NewStoreAt(filepath.Join(dir, "state.json"))

	s, _, err := st.Load()
	if err != nil {
		t.Fatalf("Load() on missing file should not error, got: %v", err)
	}
	if len(s.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(s.Records))
	}
}

func TestStoreExists(t *testing.T) {
	dir := t.TempDir()
	st := NewStoreAt(filepath.Join(dir, "state.json"))

	if st.Exists() {
		t.Error("Exists() should be false before any Save()")
	}
	if err := st.Save(New()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !st.Exists() {
		t.Error("Exists() should be true after Save()")
	}
}

func TestStoreDelete(t *testing.T) {
	dir := t.TempDir()
	st := NewStoreAt(filepath.Join(dir, "state.json"))

	if err := st.Save(New()); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if err := st.Delete(); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if st.Exists() {
		t.Error("Exists() should be false after Delete()")
	}
}

func TestStoreDeleteMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	st := NewStoreAt(filepath.Join(dir, "state.json"))

	if err := st.Delete(); err != nil {
		t.Errorf("Delete() on a missing file should not error, got: %v", err)
	}
}

func TestStoreSaveRotatesBackup(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	st := NewStoreAt(statePath)

	if err := st.Save(New()); err != nil {
		t.Fatalf("first Save() failed: %v", err)
	}
	s2 := New()
	s2.Put(Record{Backend: "aur", Name: "bat"})
	if err := st.Save(s2); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}

	if _, err := os.Stat(statePath + ".backup.1"); err != nil {
		t.Errorf("expected a .backup.1 file after second Save(): %v", err)
	}
}

func TestDecodeStrictRejectsInvalidKey(t *testing.T) {
	_, _, err := decode([]byte(`{"version":1,"records":{"not-a-valid-key":{}}}`), true)
	if err == nil {
		t.Error("decode(strict=true) should reject a state file with a malformed record key")
	}
}

func TestDecodeNonStrictSanitizesInvalidKey(t *testing.T) {
	s, warnings, err := decode([]byte(`{"version":1,"records":{"not-a-valid-key":{},"aur:bat":{"backend":"aur","name":"bat"}}}`), false)
	if err != nil {
		t.Fatalf("decode(strict=false) failed: %v", err)
	}
	if len(s.Records) != 1 {
		t.Errorf("len(Records) = %d, want 1 (malformed key dropped)", len(s.Records))
	}
	if _, ok := s.Records["aur:bat"]; !ok {
		t.Error("well-formed record should survive sanitization")
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", warnings)
	}
}

func TestLoadStrictAbortsOnMalformedKey(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	if err := os.WriteFile(statePath, []byte(`{"version":1,"records":{"not-a-valid-key":{}}}`), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	st := NewStoreAt(statePath)

	if _, err := st.LoadStrict(); err == nil {
		t.Error("LoadStrict() should abort on a malformed record key")
	}
}

func TestLoadRecoversFromBackupOnParseFailure(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	st := NewStoreAt(statePath)

	good := New()
	good.Put(Record{Backend: "aur", Name: "bat"})
	if err := st.Save(good); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	// Corrupt the primary file directly; the prior generation should still
	// be readable as .backup.1 after the next Save() rotates it, so do the
	// rotation first, then corrupt the primary.
	another := New()
	another.Put(Record{Backend: "aur", Name: "bat"})
	another.Put(Record{Backend: "npm", Name: "typescript"})
	if err := st.Save(another); err != nil {
		t.Fatalf("second Save() failed: %v", err)
	}
	if err := os.WriteFile(statePath, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("failed to corrupt primary state file: %v", err)
	}

	loaded, warnings, err := st.Load()
	if err != nil {
		t.Fatalf("Load() should recover from backup instead of failing, got: %v", err)
	}
	if len(warnings) == 0 {
		t.Error("Load() should report a recovery warning when falling back to a backup")
	}
	k, _ := identity.NewKey("aur", "bat")
	if _, ok := loaded.Get(k); !ok {
		t.Error("recovered state should contain the backed-up record")
	}
}

func TestLoadStartsEmptyWhenAllGenerationsFailToParse(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	if err := os.WriteFile(statePath, []byte("{not valid json"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	st := NewStoreAt(statePath)

	loaded, warnings, err := st.Load()
	if err != nil {
		t.Fatalf("Load() should not fail even with no parseable generation, got: %v", err)
	}
	if len(loaded.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(loaded.Records))
	}
	if len(warnings) == 0 {
		t.Error("Load() should warn when starting from empty state")
	}
	if _, err := os.Stat(statePath); err != nil {
		t.Errorf("corrupt primary file should be left on disk, got: %v", err)
	}
}
