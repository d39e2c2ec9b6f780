package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/sblinch/kdl-go/document"

	"github.com/declarch-sh/declarch/internal/validation"
)

// packageScopedPhaseRegexp matches a per-package hook phase such as
// "bat:pre-install" or "ripgrep:pre-remove".
var packageScopedPhaseRegexp = regexp.MustCompile(`^[^:\s]+:(pre-install|pre-remove)$`)

// knownHookPhases is the set of fixed (non-package-scoped) hook phases.
var knownHookPhases = map[string]bool{
	"pre-sync": true, "post-sync": true, "on-success": true, "on-failure": true,
}

// knownBackendDefFields is the set of child node names a "backend" block
// understands; anything else is a typo or a forward-incompatible field.
var knownBackendDefFields = map[string]bool{
	"binary": true, "fallback": true, "install": true, "remove": true,
	"list": true, "search": true, "noconfirm": true, "needs_sudo": true,
	"supported_os": true, "list_format": true, "search_format": true,
	"list_delegates_to": true, "meta": true,
}

// ParseFragment parses one declarch.kdl file's content into a Fragment.
// A bare top-level node whose name is not a recognized keyword is treated
// as a package group named after its backend (the preferred nesting form);
// a bare node whose name fails identifier validation is instead unknown
// and produces a warning diagnostic rather than being parsed. Unknown
// children of a known block (a "backend" field declarch doesn't
// recognize, a hook phase that isn't one of the fixed or package-scoped
// forms) produce an error diagnostic (§4.2).
func ParseFragment(path string, content []byte) (*Fragment, error) {
	doc, err := parseDocument(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	frag := &Fragment{Path: path}

	for _, n := range doc.Nodes {
		name := nodeName(n)
		switch name {
		case "meta", "metadata":
			frag.Metadata = parseMetadata(n)
		case "import":
			frag.Imports = append(frag.Imports, stringArgs(n)...)
			frag.Imports = append(frag.Imports, childStringArgs(n)...)
		case "hook":
			decls, diags := parseHooks(n, path)
			frag.Hooks = append(frag.Hooks, decls...)
			frag.Diagnostics = append(frag.Diagnostics, diags...)
		case "backend":
			bd, diags, ok := parseBackendDef(n, path)
			frag.Diagnostics = append(frag.Diagnostics, diags...)
			if ok {
				frag.Backends = append(frag.Backends, bd)
			}
		case "profile":
			ov := parseOverlay(n, path)
			if err := validation.ValidateConfigName(ov.Name); err != nil {
				frag.Diagnostics = append(frag.Diagnostics, Diagnostic{
					Severity: SeverityError, File: path, Message: fmt.Sprintf("profile %q: %v", ov.Name, err),
				})
			}
			frag.Profiles = append(frag.Profiles, ov)
		case "host":
			ov := parseOverlay(n, path)
			if err := validation.ValidateConfigName(ov.Name); err != nil {
				frag.Diagnostics = append(frag.Diagnostics, Diagnostic{
					Severity: SeverityError, File: path, Message: fmt.Sprintf("host %q: %v", ov.Name, err),
				})
			}
			frag.Hosts = append(frag.Hosts, ov)
		case "packages":
			frag.Groups = append(frag.Groups, parsePackagesBlock(n, path)...)
		case "archived":
			// accepted, no-op
		case "experimental":
			frag.ExperimentalHooks = frag.ExperimentalHooks || hasChild(n, "hooks")
		case "":
			continue
		default:
			// Preferred nesting: a bare top-level node is a package group
			// named after its backend, provided the name is a plausible
			// identifier. A name that isn't is more likely a typo of a
			// reserved keyword than a real backend, so it's unknown.
			if err := validation.ValidateConfigName(name); err != nil {
				frag.Diagnostics = append(frag.Diagnostics, Diagnostic{
					Severity: SeverityWarning,
					File:     path,
					Message:  fmt.Sprintf("unknown top-level node %q: %v", name, err),
				})
				continue
			}
			frag.Groups = append(frag.Groups, PackageGroup{
				Backend: name,
				Entries: parsePackageEntries(n, path, name),
			})
		}
	}

	return frag, nil
}

// LoadFragment reads and parses one file from disk.
func LoadFragment(path string) (*Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseFragment(path, data)
}

func childStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	var out []string
	for _, c := range n.Children {
		if s, ok := firstStringArg(c); ok {
			out = append(out, s)
		} else if nodeName(c) != "" {
			out = append(out, nodeName(c))
		}
	}
	return out
}

func parseMetadata(n *document.Node) Metadata {
	m := Metadata{}
	for _, c := range n.Children {
		switch nodeName(c) {
		case "title", "name":
			if v, ok := firstStringArg(c); ok {
				m.Title = v
			}
		case "description":
			if v, ok := firstStringArg(c); ok {
				m.Description = v
			}
		case "author":
			if v, ok := firstStringArg(c); ok {
				m.Author = v
			}
		}
	}
	return m
}

// parsePackagesBlock handles the inline colon-prefixed child form:
//
//	packages {
//	    :aur { bat }
//	}
//
// and the equivalent nested form where the child's own node name is the
// backend.
func parsePackagesBlock(n *document.Node, path string) []PackageGroup {
	var groups []PackageGroup
	for _, c := range n.Children {
		backend := nodeName(c)
		if backend == "" {
			continue
		}
		if backend[0] == ':' {
			backend = backend[1:]
		}
		groups = append(groups, PackageGroup{
			Backend: backend,
			Entries: parsePackageEntries(c, path, backend),
		})
	}
	return groups
}

func parsePackageEntries(groupNode *document.Node, path, backend string) []PackageEntry {
	var entries []PackageEntry

	// Bare string arguments directly on the group node name the package.
	for _, name := range stringArgs(groupNode) {
		entries = append(entries, PackageEntry{
			Backend:    backend,
			Name:       name,
			SourceFile: path,
		})
	}

	for _, c := range groupNode.Children {
		name := nodeName(c)
		if name == "" {
			continue
		}
		entry := PackageEntry{
			Backend:    backend,
			Name:       name,
			SourceFile: path,
		}
		if len(c.Children) > 0 {
			opts := childPairs(c)
			if v, ok := opts["variant"]; ok {
				entry.Variant = v
				delete(opts, "variant")
			}
			if len(opts) > 0 {
				entry.Options = opts
			}
		}
		entries = append(entries, entry)
	}

	return entries
}

func parseOverlay(n *document.Node, path string) Overlay {
	name, _ := firstStringArg(n)
	ov := Overlay{Name: name}
	for _, c := range n.Children {
		backend := nodeName(c)
		if backend == "" {
			continue
		}
		if backend == "packages" {
			ov.Groups = append(ov.Groups, parsePackagesBlock(c, path)...)
			continue
		}
		ov.Groups = append(ov.Groups, PackageGroup{
			Backend: backend,
			Entries: parsePackageEntries(c, path, backend),
		})
	}
	return ov
}

// isKnownHookPhase reports whether phase is one of the fixed lifecycle
// phases or a valid "<package>:pre-install"/"<package>:pre-remove" form.
func isKnownHookPhase(phase string) bool {
	return knownHookPhases[phase] || packageScopedPhaseRegexp.MatchString(phase)
}

func parseHooks(n *document.Node, path string) ([]HookDecl, []Diagnostic) {
	var hooks []HookDecl
	var diags []Diagnostic
	for _, c := range n.Children {
		phase := nodeName(c)
		if phase == "" {
			continue
		}
		if !isKnownHookPhase(phase) {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				File:     path,
				Message:  fmt.Sprintf("unknown hook phase %q", phase),
			})
			continue
		}
		cmd, _ := firstStringArg(c)
		hook := HookDecl{
			Phase:      phase,
			Command:    cmd,
			SourceFile: path,
		}
		hook.Sudo = hasChild(c, "sudo")
		hook.Required = hasChild(c, "required")
		hook.Ignore = hasChild(c, "ignore")
		if ifNode := childByName(c, "if"); ifNode != nil {
			hook.Conditions = childPairs(ifNode)
		}
		hooks = append(hooks, hook)
	}
	return hooks, diags
}

func parseBackendDef(n *document.Node, path string) (BackendDef, []Diagnostic, bool) {
	var diags []Diagnostic
	name, ok := firstStringArg(n)
	if !ok || name == "" {
		return BackendDef{}, diags, false
	}
	for _, c := range n.Children {
		field := nodeName(c)
		if field == "" || knownBackendDefFields[field] {
			continue
		}
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			File:     path,
			Message:  fmt.Sprintf("backend %q: unknown field %q", name, field),
		})
	}
	bd := BackendDef{Name: name, SourceFile: path}
	bd.Binaries = childStringsByName(n, "binary")
	if fb := childByName(n, "fallback"); fb != nil {
		bd.Fallback, _ = firstStringArg(fb)
	}
	if v := childByName(n, "install"); v != nil {
		bd.Install, _ = firstStringArg(v)
	}
	if v := childByName(n, "remove"); v != nil {
		bd.Remove, _ = firstStringArg(v)
	}
	if v := childByName(n, "list"); v != nil {
		bd.List, _ = firstStringArg(v)
	}
	if v := childByName(n, "search"); v != nil {
		bd.Search, _ = firstStringArg(v)
	}
	if v := childByName(n, "noconfirm"); v != nil {
		bd.NoConfirmFlag, _ = firstStringArg(v)
	}
	if v := childByName(n, "needs_sudo"); v != nil {
		bd.NeedsPrivilege, _ = firstBoolArg(v)
	}
	if v := childByName(n, "supported_os"); v != nil {
		bd.SupportedOS = stringArgs(v)
	}
	if v := childByName(n, "list_format"); v != nil {
		bd.ListFormat = parseOutputFormat(v)
	}
	if v := childByName(n, "search_format"); v != nil {
		bd.SearchFormat = parseOutputFormat(v)
	}
	if v := childByName(n, "list_delegates_to"); v != nil {
		bd.ListDelegatesTo, _ = firstStringArg(v)
	}
	if v := childByName(n, "meta"); v != nil {
		bd.Meta = parseMetadata(v)
	}
	return bd, diags, true
}

func parseOutputFormat(n *document.Node) OutputFormat {
	of := OutputFormat{VersionCol: -1}
	kindStr, _ := firstStringArg(childByName(n, "kind"))
	switch kindStr {
	case "whitespace":
		of.Kind = FormatWhitespace
	case "tsv", "tab", "tab_separated":
		of.Kind = FormatTabSeparated
	case "json":
		of.Kind = FormatJSON
	case "regex":
		of.Kind = FormatRegex
	}
	if v := childByName(n, "name_col"); v != nil {
		of.NameCol, _ = firstIntArg(v)
	}
	if v := childByName(n, "version_col"); v != nil {
		of.VersionCol, _ = firstIntArg(v)
	}
	if v := childByName(n, "path"); v != nil {
		of.JSONPath, _ = firstStringArg(v)
	}
	if v := childByName(n, "name_key"); v != nil {
		of.NameKey, _ = firstStringArg(v)
	}
	if v := childByName(n, "version_key"); v != nil {
		of.VersionKey, _ = firstStringArg(v)
	}
	if v := childByName(n, "pattern"); v != nil {
		of.Pattern, _ = firstStringArg(v)
	}
	if v := childByName(n, "name_group"); v != nil {
		of.NameGroup, _ = firstIntArg(v)
	}
	if v := childByName(n, "version_group"); v != nil {
		of.VersionGroup, _ = firstIntArg(v)
	}
	return of
}
