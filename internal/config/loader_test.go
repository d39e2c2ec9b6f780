package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKDL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSimple(t *testing.T) {
	dir := t.TempDir()
	path := writeKDL(t, dir, ConfigFileName, `
meta {
    title "test config"
}
aur {
    bat
    ripgrep
}
`)

	cfg, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Metadata.Title != "test config" {
		t.Errorf("Metadata.Title = %q, want %q", cfg.Metadata.Title, "test config")
	}
	entries := cfg.EntriesForBackend("aur")
	if len(entries) != 2 {
		t.Fatalf("len(EntriesForBackend(aur)) = %d, want 2", len(entries))
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("/path/that/does/not/exist/declarch.kdl", Selectors{})
	if err == nil {
		t.Error("Load() should fail for non-existent file")
	}
}

func TestLoadImports(t *testing.T) {
	dir := t.TempDir()
	writeKDL(t, dir, "extra.kdl", `
npm {
    typescript
}
`)
	path := writeKDL(t, dir, ConfigFileName, `
import "extra.kdl"
aur {
    bat
}
`)

	cfg, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.EntriesForBackend("aur")) != 1 {
		t.Errorf("len(aur entries) = %d, want 1", len(cfg.EntriesForBackend("aur")))
	}
	if len(cfg.EntriesForBackend("npm")) != 1 {
		t.Errorf("len(npm entries) = %d, want 1", len(cfg.EntriesForBackend("npm")))
	}
}

func TestLoadCyclicImportRejected(t *testing.T) {
	dir := t.TempDir()
	writeKDL(t, dir, "a.kdl", `import "b.kdl"`)
	path := writeKDL(t, dir, "b.kdl", `import "a.kdl"`)

	_, err := Load(path, Selectors{})
	if err == nil {
		t.Fatal("Load() should reject a cyclic import chain")
	}
}

func TestLoadPathTraversalRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeKDL(t, dir, ConfigFileName, `import "../outside.kdl"`)

	_, err := Load(path, Selectors{})
	if err == nil {
		t.Fatal("Load() should reject an import that escapes the config root")
	}
}

func TestLoadDedupesPackageEntries(t *testing.T) {
	dir := t.TempDir()
	path := writeKDL(t, dir, ConfigFileName, `
aur {
    bat
    bat
}
`)
	cfg, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.EntriesForBackend("aur")) != 1 {
		t.Errorf("duplicate package entry was not deduplicated: got %d entries", len(cfg.EntriesForBackend("aur")))
	}
}

func TestLoadDiamondImportOwnsSharedFragmentOnce(t *testing.T) {
	dir := t.TempDir()
	writeKDL(t, dir, "shared.kdl", `
backend "custom" {
    binary "custom-tool"
    install "custom-tool install {packages}"
}
hook {
    pre-sync "echo shared"
}
`)
	writeKDL(t, dir, "a.kdl", `import "shared.kdl"`)
	writeKDL(t, dir, "b.kdl", `import "shared.kdl"`)
	path := writeKDL(t, dir, ConfigFileName, `
import "a.kdl"
import "b.kdl"
`)

	cfg, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed on a diamond import: %v", err)
	}
	if len(cfg.Hooks) != 1 {
		t.Errorf("len(Hooks) = %d, want 1 (shared fragment loaded once)", len(cfg.Hooks))
	}
	if len(cfg.Backends) != 1 {
		t.Errorf("len(Backends) = %d, want 1 (shared fragment loaded once)", len(cfg.Backends))
	}
	for _, d := range cfg.Diagnostics {
		if d.Severity == SeverityError {
			t.Errorf("diamond import of a shared backend def should not produce a diagnostic, got: %+v", d)
		}
	}
}

func TestLoadProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeKDL(t, dir, ConfigFileName, `
aur {
    bat
}
profile "work" {
    npm {
        typescript
    }
}
`)

	cfg, err := Load(path, Selectors{Profiles: []string{"work"}})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfg.EntriesForBackend("npm")) != 1 {
		t.Errorf("active profile overlay was not merged in")
	}

	cfgInactive, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(cfgInactive.EntriesForBackend("npm")) != 0 {
		t.Errorf("inactive profile overlay should not be merged in")
	}
}

func TestLoadExperimentalHooksOptIn(t *testing.T) {
	dir := t.TempDir()
	path := writeKDL(t, dir, ConfigFileName, `
aur {
    bat
}
experimental {
    hooks
}
`)
	cfg, err := Load(path, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.ExperimentalHooks {
		t.Error("experimental { hooks } block should set ExperimentalHooks")
	}

	pathNoOptIn := writeKDL(t, dir, "noop.kdl", `aur { bat }`)
	cfgNoOptIn, err := Load(pathNoOptIn, Selectors{})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfgNoOptIn.ExperimentalHooks {
		t.Error("ExperimentalHooks should default to false without the opt-in block")
	}
}
