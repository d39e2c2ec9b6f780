// Package config implements the declarch.kdl document language: parsing it
// into a typed AST, resolving its import graph into a single merged
// configuration, and validating the result.
package config

import "sort"

// Fragment is one parsed declarch.kdl file (or import), before merging.
type Fragment struct {
	Path              string
	Metadata          Metadata
	Imports           []string
	Groups            []PackageGroup
	Profiles          []Overlay
	Hosts             []Overlay
	Hooks             []HookDecl
	Backends          []BackendDef
	Diagnostics       []Diagnostic
	ExperimentalHooks bool // explicit "experimental { hooks }" opt-in, §4.8 gate (a)
}

// Metadata is purely informational project metadata.
type Metadata struct {
	Title       string
	Description string
	Author      string
}

// PackageGroup is a backend's block of declared package entries within one
// fragment (either the top-level form or a profile/host overlay's block).
type PackageGroup struct {
	Backend string
	Entries []PackageEntry
}

// PackageEntry is one declared package (§3 "Package entry (declared)").
type PackageEntry struct {
	Backend    string
	Name       string
	Variant    string
	Options    map[string]string
	SourceFile string
	SourceLine int
}

// CanonicalName returns the entry's name including its variant marker, the
// form used for backend-specific canonicalization downstream.
func (e PackageEntry) CanonicalName() string {
	if e.Variant == "" {
		return e.Name
	}
	return e.Name + e.Variant
}

// Overlay is a profile or host block: a named, additive-only set of
// package groups merged in only when the selector matches (§4.1).
type Overlay struct {
	Name   string
	Groups []PackageGroup
}

// HookDecl is one user-configured lifecycle hook (§4.8).
type HookDecl struct {
	Phase      string // pre-sync, post-sync, on-success, on-failure, or "<package>:phase"
	Command    string
	Sudo       bool
	Required   bool
	Ignore     bool
	Conditions map[string]string
	SourceFile string
	SourceLine int
}

// BackendDef is a custom backend definition declared inline in a
// fragment's "backend" block (§3, §4.3). Files under the config root's
// backends/ directory are not read.
type BackendDef struct {
	Name            string
	Binaries        []string
	Fallback        string
	Install         string
	Remove          string
	List            string
	Search          string
	NoConfirmFlag   string
	NeedsPrivilege  bool
	SupportedOS     []string
	ListFormat      OutputFormat
	SearchFormat    OutputFormat
	ListDelegatesTo string
	Meta            Metadata
	SourceFile      string
	SourceLine      int
}

// OutputFormat describes how to decode a backend's list/search stdout
// (§4.4). Exactly one of the parser-specific fields is meaningful, selected
// by Kind.
type OutputFormat struct {
	Kind FormatKind

	// Whitespace / TabSeparated
	NameCol    int
	VersionCol int // -1 if not present

	// JSON
	JSONPath   string // dotted path; empty means root
	NameKey    string
	VersionKey string

	// Regex
	Pattern      string
	NameGroup    int
	VersionGroup int // 0 if not present
}

// FormatKind enumerates the four output parsers of §4.4.
type FormatKind int

const (
	FormatUnknown FormatKind = iota
	FormatWhitespace
	FormatTabSeparated
	FormatJSON
	FormatRegex
)

// Diagnostic is a non-fatal (warning) or fatal (error) finding produced
// while parsing or merging a fragment.
type Diagnostic struct {
	Severity Severity
	File     string
	Line     int
	Message  string
}

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (d Diagnostic) String() string {
	sev := "warning"
	if d.Severity == SeverityError {
		sev = "error"
	}
	if d.Line > 0 {
		return d.File + ":" + itoa(d.Line) + ": " + sev + ": " + d.Message
	}
	return d.File + ": " + sev + ": " + d.Message
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// MergedConfig is the result of loading and flattening the import graph
// with active selectors applied (§3 "Merged config").
type MergedConfig struct {
	Metadata          Metadata
	Groups            []PackageGroup // deduplicated by (backend, canonical-name), M1
	Hooks             []HookDecl
	Backends          []BackendDef
	Diagnostics       []Diagnostic
	ExperimentalHooks bool
}

// EntriesForBackend returns all declared entries for the given backend
// name across all merged groups.
func (m *MergedConfig) EntriesForBackend(backend string) []PackageEntry {
	var out []PackageEntry
	for _, g := range m.Groups {
		if g.Backend == backend {
			out = append(out, g.Entries...)
		}
	}
	return out
}

// BackendNames returns the sorted, deduplicated set of backend names that
// appear anywhere in the merged config.
func (m *MergedConfig) BackendNames() []string {
	seen := map[string]bool{}
	var names []string
	for _, g := range m.Groups {
		if !seen[g.Backend] {
			seen[g.Backend] = true
			names = append(names, g.Backend)
		}
	}
	sort.Strings(names)
	return names
}
