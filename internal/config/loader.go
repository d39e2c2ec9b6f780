package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/declarch-sh/declarch/internal/identity"
	"github.com/declarch-sh/declarch/internal/validation"
)

// ConfigFileName is the root config file name searched for in discovery.
const ConfigFileName = identity.ConfigFileName

// ErrConfigNotFound is returned when no declarch.kdl can be located.
var ErrConfigNotFound = errors.New("config not found")

// ErrCyclicImport is returned when an import chain revisits a file already
// on its own ancestor path.
var ErrCyclicImport = errors.New("cyclic import")

// ErrPathTraversalBlocked is returned when an import path would resolve
// outside the config root, or uses an ambiguous root marker.
var ErrPathTraversalBlocked = errors.New("import path escapes config root")

func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}

// Selectors narrows which profile/host overlays apply during a merge.
type Selectors struct {
	Profiles []string
	Host     string
}

// Load reads declarch.kdl at path, resolves its import graph, and returns
// the merged, selector-applied configuration.
func Load(path string, sel Selectors) (*MergedConfig, error) {
	root := filepath.Dir(path)
	frags, err := loadGraph(root, path, nil, map[string]bool{})
	if err != nil {
		return nil, err
	}
	return merge(frags, sel), nil
}

// LoadFromDiscovery finds declarch.kdl via identity.FindConfig and loads it.
func LoadFromDiscovery(sel Selectors) (*MergedConfig, string, error) {
	path, err := findConfigFile()
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path, sel)
	return cfg, path, err
}

func findConfigFile() (string, error) {
	path, err := identity.FindConfig()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrConfigNotFound, err)
	}
	return path, nil
}

// loadGraph loads path and recursively resolves its "import" statements,
// returning the flat, depth-first list of fragments (root first). ancestors
// is the chain of absolute paths currently being resolved, used for cycle
// detection. visited is the set of canonical paths already loaded anywhere
// in the graph so far; a fragment reached again through a second import
// path (a diamond) is owned once and not reprocessed, so its hooks and
// backend defs are not duplicated and a shared backend def is not falsely
// reported as conflicting with itself (§4.1/§9).
func loadGraph(root, path string, ancestors []string, visited map[string]bool) ([]*Fragment, error) {
	abs, err := sandboxedPath(root, path)
	if err != nil {
		return nil, err
	}

	for _, a := range ancestors {
		if a == abs {
			return nil, fmt.Errorf("%w: %s", ErrCyclicImport, cycleChain(ancestors, abs))
		}
	}

	if visited[abs] {
		return nil, nil
	}
	visited[abs] = true

	frag, err := LoadFragment(abs)
	if err != nil {
		return nil, err
	}

	frags := []*Fragment{frag}
	nextAncestors := append(append([]string{}, ancestors...), abs)

	for _, imp := range frag.Imports {
		for _, seg := range strings.Split(filepath.ToSlash(imp), "/") {
			if seg == ".." {
				return nil, fmt.Errorf("%w: %q contains a .. segment", ErrPathTraversalBlocked, imp)
			}
		}
		importPath := imp
		if !filepath.IsAbs(importPath) {
			importPath = filepath.Join(filepath.Dir(abs), importPath)
		}
		children, err := loadGraph(root, importPath, nextAncestors, visited)
		if err != nil {
			return nil, err
		}
		frags = append(frags, children...)
	}

	return frags, nil
}

func cycleChain(ancestors []string, closing string) string {
	chain := append(append([]string{}, ancestors...), closing)
	return strings.Join(chain, " -> ")
}

// sandboxedPath resolves path relative to root and rejects any result that
// escapes root, or that uses an ambiguous home/absolute marker outside it.
func sandboxedPath(root, path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("%w: %q uses an ambiguous ~ root", ErrPathTraversalBlocked, path)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(root, path)
	}
	abs = filepath.Clean(abs)

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config root: %w", err)
	}

	if err := validation.ValidateDestinationPath(abs, rootAbs); err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrPathTraversalBlocked, path, err)
	}

	return abs, nil
}

// merge flattens a fragment list into one MergedConfig. Package groups
// merge first-seen-wins per (backend, canonical name), §3 M1. Matching
// profile/host selectors append their groups using the same precedence.
// Backend definitions and hooks are concatenated in fragment order, with
// duplicate backend names reported as diagnostics rather than rejected
// outright, so a lint pass can surface every conflict in one run.
func merge(frags []*Fragment, sel Selectors) *MergedConfig {
	out := &MergedConfig{}
	seenEntries := map[string]bool{}
	seenBackends := map[string]string{} // name -> defining file

	addGroup := func(g PackageGroup) {
		var kept []PackageEntry
		for _, e := range g.Entries {
			key := e.Backend + ":" + e.CanonicalName()
			if seenEntries[key] {
				continue
			}
			seenEntries[key] = true
			kept = append(kept, e)
		}
		if len(kept) > 0 {
			out.Groups = append(out.Groups, PackageGroup{Backend: g.Backend, Entries: kept})
		}
	}

	profileActive := map[string]bool{}
	for _, p := range sel.Profiles {
		profileActive[p] = true
	}

	for i, frag := range frags {
		if i == 0 && frag.Metadata != (Metadata{}) {
			out.Metadata = frag.Metadata
		}
		for _, g := range frag.Groups {
			addGroup(g)
		}
		for _, ov := range frag.Profiles {
			if profileActive[ov.Name] {
				for _, g := range ov.Groups {
					addGroup(g)
				}
			}
		}
		for _, ov := range frag.Hosts {
			if ov.Name == sel.Host {
				for _, g := range ov.Groups {
					addGroup(g)
				}
			}
		}
		out.Hooks = append(out.Hooks, frag.Hooks...)
		for _, bd := range frag.Backends {
			if prior, dup := seenBackends[bd.Name]; dup {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					Severity: SeverityError,
					File:     bd.SourceFile,
					Message:  fmt.Sprintf("backend %q already defined in %s", bd.Name, prior),
				})
				continue
			}
			seenBackends[bd.Name] = bd.SourceFile
			out.Backends = append(out.Backends, bd)
		}
		out.Diagnostics = append(out.Diagnostics, frag.Diagnostics...)
		out.ExperimentalHooks = out.ExperimentalHooks || frag.ExperimentalHooks
	}

	return out
}
