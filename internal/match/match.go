// Package match canonicalizes package names for conflict detection and
// flags the same logical package declared under more than one backend
// (§4.9 "Match and conflict utilities").
package match

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/declarch-sh/declarch/internal/config"
)

// variantSuffixRegexp strips trailing version/variant markers commonly
// appended by package managers (e.g. "python3" -> "python", "foo-bin" ->
// "foo") purely for cross-backend collision detection. Identity
// canonicalization (state keys, dedup) never uses this; only conflict
// detection does, per §4.9.
var variantSuffixRegexp = regexp.MustCompile(`(-bin|-git|-nightly|-git|@\d+(\.\d+)*|\d+)$`)

// Canonicalize reduces a declared package name to the form used for
// cross-backend conflict detection: lowercased, trimmed, with known
// variant/version suffixes stripped.
func Canonicalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if stripped := variantSuffixRegexp.ReplaceAllString(n, ""); stripped != "" {
		n = stripped
	}
	return n
}

// Conflict is one package name declared under two or more backends.
type Conflict struct {
	CanonicalName string
	Backends      []string
}

// String renders a human-readable summary of the conflict.
func (c Conflict) String() string {
	return fmt.Sprintf("%q declared under multiple backends: %s", c.CanonicalName, strings.Join(c.Backends, ", "))
}

// DetectConflicts enumerates (backend, canonical-name) pairs across the
// merged config and flags any canonical name declared under more than one
// backend. Conflicts are diagnostics, never planning errors: the plan
// proceeds per backend independently and the user's PATH resolves runtime
// precedence (§4.6).
func DetectConflicts(groups []config.PackageGroup) []Conflict {
	byName := map[string]map[string]bool{}
	for _, g := range groups {
		for _, e := range g.Entries {
			c := Canonicalize(e.Name)
			if byName[c] == nil {
				byName[c] = map[string]bool{}
			}
			byName[c][g.Backend] = true
		}
	}

	var conflicts []Conflict
	for name, backends := range byName {
		if len(backends) < 2 {
			continue
		}
		list := make([]string, 0, len(backends))
		for b := range backends {
			list = append(list, b)
		}
		sort.Strings(list)
		conflicts = append(conflicts, Conflict{CanonicalName: name, Backends: list})
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].CanonicalName < conflicts[j].CanonicalName })
	return conflicts
}

// AsDiagnostics converts conflicts into warning-level config diagnostics
// suitable for merging into a MergedConfig's diagnostic list.
func AsDiagnostics(conflicts []Conflict) []config.Diagnostic {
	diags := make([]config.Diagnostic, 0, len(conflicts))
	for _, c := range conflicts {
		diags = append(diags, config.Diagnostic{
			Severity: config.SeverityWarning,
			Message:  c.String(),
		})
	}
	return diags
}
