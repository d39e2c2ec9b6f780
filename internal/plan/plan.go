// Package plan computes the per-backend reconciliation sets (install,
// adopt, keep, remove) that turn a merged config and observed machine
// state into a SyncPlan (§4.6 "Planner").
package plan

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/match"
	"github.com/declarch-sh/declarch/internal/state"
)

// Mode selects whether the plan removes packages no longer declared.
type Mode int

const (
	// ModePreview computes the plan without any intent to apply it.
	ModePreview Mode = iota
	// ModeApply installs/adopts but never removes.
	ModeApply
	// ModeApplyWithPrune additionally removes previously-managed packages
	// that are no longer declared.
	ModeApplyWithPrune
)

// BackendPlan is the reconciliation result for a single backend.
type BackendPlan struct {
	Backend string
	Install []string
	Adopt   []string
	Keep    []string
	Remove  []string
}

// SkipReason records why a backend was excluded from planning.
type SkipReason struct {
	Backend string
	Reason  string
}

// SyncPlan is the full output of planning across every backend named in
// the merged config.
type SyncPlan struct {
	PerBackend map[string]BackendPlan
	Skipped    []SkipReason
	Warnings   []config.Diagnostic
}

// Filter narrows planning to a subset of backends and/or package names.
// Zero values mean "no restriction".
type Filter struct {
	Backends []string
	Packages []string
}

func (f Filter) allowsBackend(name string) bool {
	if len(f.Backends) == 0 {
		return true
	}
	for _, b := range f.Backends {
		if b == name {
			return true
		}
	}
	return false
}

func (f Filter) allowsPackage(name string) bool {
	if len(f.Packages) == 0 {
		return true
	}
	for _, p := range f.Packages {
		if p == name {
			return true
		}
	}
	return false
}

// Lister lists what is currently installed for one backend.
type Lister interface {
	ListInstalled() ([]backend.InstalledPackage, error)
}

// ListerFunc adapts a plain function to the Lister interface.
type ListerFunc func() ([]backend.InstalledPackage, error)

// ListInstalled implements Lister.
func (f ListerFunc) ListInstalled() ([]backend.InstalledPackage, error) { return f() }

// Build computes a SyncPlan for every backend declared in merged, using
// listers to obtain each backend's observed installed set and st to obtain
// previously-managed records. listers supplies one Lister per backend name
// that is available; a backend with no entry in listers (or whose Resolve
// failed upstream) is reported in the Skipped bucket.
func Build(merged *config.MergedConfig, st *state.State, listers map[string]Lister, mode Mode, filter Filter) SyncPlan {
	out := SyncPlan{PerBackend: map[string]BackendPlan{}}

	conflicts := match.DetectConflicts(merged.Groups)
	out.Warnings = append(out.Warnings, match.AsDiagnostics(conflicts)...)

	for _, name := range merged.BackendNames() {
		if !filter.allowsBackend(name) {
			continue
		}

		lister, ok := listers[name]
		if !ok {
			out.Skipped = append(out.Skipped, SkipReason{Backend: name, Reason: "backend handle unavailable"})
			continue
		}

		observedList, err := lister.ListInstalled()
		if err != nil {
			out.Skipped = append(out.Skipped, SkipReason{Backend: name, Reason: "list_installed failed: " + err.Error()})
			continue
		}

		entries := merged.EntriesForBackend(name)
		declared := toSet(filterNames(entryNames(entries), filter))
		observed := toSliceSet(observedList)
		previouslyManaged := toSet(recordNames(st.ForBackend(name)))

		bp := BackendPlan{Backend: name}
		bp.Install = sortedDifference(declared, observed)
		bp.Adopt = sortedDifference(intersect(declared, observed), previouslyManaged)
		bp.Keep = sortedIntersect3(declared, observed, previouslyManaged)
		if mode == ModeApplyWithPrune {
			bp.Remove = sortedDifference(previouslyManaged, declared)
		}

		out.Warnings = append(out.Warnings, versionDriftDiagnostics(name, entries, observedList)...)

		out.PerBackend[name] = bp
	}

	return out
}

// versionDriftDiagnostics reports, as informational warnings only, any
// declared package whose "version" option is a semver constraint the
// currently installed version does not satisfy. Per the no-surprise-upgrade
// policy, drift never alters the install/adopt/keep/remove sets themselves
// — a user who wants the constraint enforced reinstalls explicitly.
func versionDriftDiagnostics(backendName string, entries []config.PackageEntry, observed []backend.InstalledPackage) []config.Diagnostic {
	installedVersions := make(map[string]string, len(observed))
	for _, p := range observed {
		installedVersions[p.Name] = p.Version
	}

	var diags []config.Diagnostic
	for _, e := range entries {
		constraintStr, ok := e.Options["version"]
		if !ok || constraintStr == "" {
			continue
		}
		installedStr, ok := installedVersions[e.Name]
		if !ok || installedStr == "" {
			continue
		}

		constraint, err := semver.NewConstraint(constraintStr)
		if err != nil {
			continue
		}
		installed, err := semver.NewVersion(installedStr)
		if err != nil {
			continue
		}
		if !constraint.Check(installed) {
			diags = append(diags, config.Diagnostic{
				Severity: config.SeverityWarning,
				File:     e.SourceFile,
				Line:     e.SourceLine,
				Message: fmt.Sprintf("%s:%s installed version %s does not satisfy declared constraint %q",
					backendName, e.Name, installedStr, constraintStr),
			})
		}
	}
	return diags
}

func entryNames(entries []config.PackageEntry) []string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func recordNames(records []state.Record) []string {
	names := make([]string, 0, len(records))
	for _, r := range records {
		names = append(names, r.Name)
	}
	return names
}

func filterNames(names []string, filter Filter) []string {
	if len(filter.Packages) == 0 {
		return names
	}
	var out []string
	for _, n := range names {
		if filter.allowsPackage(n) {
			out = append(out, n)
		}
	}
	return out
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func toSliceSet(pkgs []backend.InstalledPackage) map[string]bool {
	set := make(map[string]bool, len(pkgs))
	for _, p := range pkgs {
		set[p.Name] = true
	}
	return set
}

func intersect(a, b map[string]bool) map[string]bool {
	out := map[string]bool{}
	for k := range a {
		if b[k] {
			out[k] = true
		}
	}
	return out
}

func sortedDifference(a, b map[string]bool) []string {
	var out []string
	for k := range a {
		if !b[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func sortedIntersect3(a, b, c map[string]bool) []string {
	var out []string
	for k := range a {
		if b[k] && c[k] {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
