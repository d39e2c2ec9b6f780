package backend

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/validation"
)

// Registry resolves backend names to their definitions, applying
// precedence (user-defined overrides a built-in of the same name),
// OS gating, and binary/fallback discovery (§4.3).
type Registry struct {
	defs     map[string]config.BackendDef
	lookPath func(string) (string, error)
}

// NewRegistry builds a Registry from the built-in set overlaid with any
// user-defined backends from the merged config.
func NewRegistry(userDefs []config.BackendDef) *Registry {
	defs := make(map[string]config.BackendDef)
	for _, bd := range Builtins() {
		defs[bd.Name] = bd
	}
	for _, bd := range userDefs {
		defs[bd.Name] = bd
	}
	return &Registry{defs: defs, lookPath: exec.LookPath}
}

// Lookup returns the definition for a backend name.
func (r *Registry) Lookup(name string) (config.BackendDef, bool) {
	bd, ok := r.defs[name]
	return bd, ok
}

// Names returns every registered backend name.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	return names
}

// ResolvedBinary is the outcome of discovering which of a backend's
// candidate binaries is actually present on this machine.
type ResolvedBinary struct {
	Path     string
	Name     string
	IsHelper bool // true if this is an AUR-style helper rather than the primary binary
}

// Resolve determines whether a backend is usable on this machine: its
// declared SupportedOS must include the current OS (or be unset, meaning
// any OS), and at least one of its Binaries, or its Fallback backend's
// binaries, must be found in PATH.
func (r *Registry) Resolve(name string) (ResolvedBinary, error) {
	bd, ok := r.Lookup(name)
	if !ok {
		return ResolvedBinary{}, fmt.Errorf("unknown backend %q", name)
	}

	if !osSupported(bd) {
		return ResolvedBinary{}, fmt.Errorf("backend %q does not support %s", name, runtime.GOOS)
	}

	for _, bin := range bd.Binaries {
		if err := validation.ValidateBinaryName(bin); err != nil {
			continue
		}
		if path, err := r.lookPath(bin); err == nil {
			return ResolvedBinary{Path: path, Name: bin, IsHelper: bd.Fallback != ""}, nil
		}
	}

	if bd.Fallback != "" {
		return r.Resolve(bd.Fallback)
	}

	return ResolvedBinary{}, fmt.Errorf("backend %q: no candidate binary found in PATH", name)
}

// IsAvailable reports whether Resolve would succeed, without returning
// the error detail.
func (r *Registry) IsAvailable(name string) bool {
	_, err := r.Resolve(name)
	return err == nil
}

func osSupported(bd config.BackendDef) bool {
	if len(bd.SupportedOS) == 0 {
		return true
	}
	for _, os := range bd.SupportedOS {
		if os == runtime.GOOS {
			return true
		}
	}
	return false
}
