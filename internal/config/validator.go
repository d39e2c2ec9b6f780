package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/declarch-sh/declarch/internal/validation"
)

// Validate checks a MergedConfig for semantic errors beyond what parsing
// already caught (M1-M3 §3, plus package/backend/hook field validity), and
// appends any findings to its Diagnostics. It never mutates Groups/Backends
// themselves; callers decide whether error-severity diagnostics should
// abort a run.
func (m *MergedConfig) Validate() {
	m.validatePackageEntries()
	m.validateBackendDefs()
	m.validateHooks()
}

// HasErrors reports whether any diagnostic is fatal-severity.
func (m *MergedConfig) HasErrors() bool {
	for _, d := range m.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the fatal-severity diagnostics, in order.
func (m *MergedConfig) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range m.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

func (m *MergedConfig) addError(file, msg string) {
	m.Diagnostics = append(m.Diagnostics, Diagnostic{Severity: SeverityError, File: file, Message: msg})
}

func (m *MergedConfig) addWarning(file, msg string) {
	m.Diagnostics = append(m.Diagnostics, Diagnostic{Severity: SeverityWarning, File: file, Message: msg})
}

func (m *MergedConfig) validatePackageEntries() {
	definedBackends := map[string]bool{}
	for _, bd := range m.Backends {
		definedBackends[bd.Name] = true
	}

	for _, g := range m.Groups {
		for _, e := range g.Entries {
			if err := validation.ValidatePackageName(e.Name); err != nil {
				m.addError(e.SourceFile, fmt.Sprintf("package %q: %v", e.Name, err))
			}
			if !isBuiltinBackend(e.Backend) && !definedBackends[e.Backend] {
				m.addError(e.SourceFile, fmt.Sprintf("package %q declared under undefined backend %q", e.Name, e.Backend))
			}
		}
	}
}

func (m *MergedConfig) validateBackendDefs() {
	for _, bd := range m.Backends {
		if bd.Install == "" {
			m.addError(bd.SourceFile, fmt.Sprintf("backend %q: install command is required", bd.Name))
		}
		if bd.ListDelegatesTo == "" && bd.List == "" {
			m.addError(bd.SourceFile, fmt.Sprintf("backend %q: list command or list_delegates_to is required", bd.Name))
		}
		if len(bd.Binaries) == 0 {
			m.addWarning(bd.SourceFile, fmt.Sprintf("backend %q: no binary candidates declared, availability check will always fail", bd.Name))
		}
	}
}

func (m *MergedConfig) validateHooks() {
	for _, h := range m.Hooks {
		if err := validation.ValidateHookCommand(h.Command); err != nil {
			m.addError(h.SourceFile, fmt.Sprintf("hook %q: %v", h.Phase, err))
		}
		if h.Phase == "" {
			m.addError(h.SourceFile, "hook: phase is required")
		}
	}
}

// isBuiltinBackend reports whether name is one of declarch's built-in
// backend definitions, which need no corresponding "backend" block.
func isBuiltinBackend(name string) bool {
	switch name {
	case "aur", "flatpak", "brew", "npm", "pip", "cargo", "soar", "apt", "dnf", "pacman":
		return true
	}
	return false
}

// FormatDiagnostics renders diagnostics one per line, errors first, for
// CLI lint output.
func FormatDiagnostics(diags []Diagnostic) string {
	sorted := append([]Diagnostic{}, diags...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity > sorted[j].Severity
	})
	lines := make([]string, 0, len(sorted))
	for _, d := range sorted {
		lines = append(lines, d.String())
	}
	return strings.Join(lines, "\n")
}
