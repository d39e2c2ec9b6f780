package config

import (
	"strings"
	"testing"
)

func TestValidatePackageEntries(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *MergedConfig
		wantErrs bool
	}{
		{
			name: "valid builtin backend",
			cfg: &MergedConfig{
				Groups: []PackageGroup{{Backend: "aur", Entries: []PackageEntry{{Backend: "aur", Name: "bat"}}}},
			},
			wantErrs: false,
		},
		{
			name: "invalid package name",
			cfg: &MergedConfig{
				Groups: []PackageGroup{{Backend: "aur", Entries: []PackageEntry{{Backend: "aur", Name: "-bat"}}}},
			},
			wantErrs: true,
		},
		{
			name: "undefined custom backend",
			cfg: &MergedConfig{
				Groups: []PackageGroup{{Backend: "custom", Entries: []PackageEntry{{Backend: "custom", Name: "thing"}}}},
			},
			wantErrs: true,
		},
		{
			name: "defined custom backend",
			cfg: &MergedConfig{
				Groups:   []PackageGroup{{Backend: "custom", Entries: []PackageEntry{{Backend: "custom", Name: "thing"}}}},
				Backends: []BackendDef{{Name: "custom", Binaries: []string{"customctl"}, Install: "customctl install {packages}", List: "customctl list"}},
			},
			wantErrs: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Validate()
			if got := tt.cfg.HasErrors(); got != tt.wantErrs {
				t.Errorf("HasErrors() = %v, want %v (diagnostics: %v)", got, tt.wantErrs, tt.cfg.Diagnostics)
			}
		})
	}
}

func TestValidateBackendDefsRequiresInstallAndList(t *testing.T) {
	cfg := &MergedConfig{
		Backends: []BackendDef{{Name: "custom", Binaries: []string{"customctl"}}},
	}
	cfg.Validate()
	if !cfg.HasErrors() {
		t.Error("backend missing install/list should produce an error diagnostic")
	}
}

func TestValidateHooksRejectsUnsafeCommand(t *testing.T) {
	cfg := &MergedConfig{
		Hooks: []HookDecl{{Phase: "pre-sync", Command: "sudo rm -rf /"}},
	}
	cfg.Validate()
	if !cfg.HasErrors() {
		t.Error("hook invoking sudo directly should produce an error diagnostic")
	}
}

func TestValidateHooksAcceptsSafeCommand(t *testing.T) {
	cfg := &MergedConfig{
		Hooks: []HookDecl{{Phase: "pre-sync", Command: "echo starting sync"}},
	}
	cfg.Validate()
	if cfg.HasErrors() {
		t.Errorf("safe hook command should not produce an error diagnostic: %v", cfg.Diagnostics)
	}
}

func TestFormatDiagnosticsOrdersErrorsFirst(t *testing.T) {
	diags := []Diagnostic{
		{Severity: SeverityWarning, File: "a.kdl", Message: "warn"},
		{Severity: SeverityError, File: "b.kdl", Message: "err"},
	}
	out := FormatDiagnostics(diags)
	if out == "" {
		t.Fatal("FormatDiagnostics() returned empty string")
	}
	if !strings.HasPrefix(out, "b.kdl: error: err") {
		t.Errorf("FormatDiagnostics() = %q, want the error listed before the warning", out)
	}
}
