package backend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/declarch-sh/declarch/internal/config"
)

// InstalledPackage is one entry decoded from a backend's list/search
// output: a name and, when the format carries one, a version.
type InstalledPackage struct {
	Name    string
	Version string
}

// ansiEscapeRegexp strips terminal color/formatting codes some backends
// emit even when not attached to a TTY.
var ansiEscapeRegexp = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// ParseOutput decodes raw command stdout per the backend's declared
// OutputFormat (§4.4). Parsers are forgiving of blank lines and dedupe
// on name, keeping the first occurrence, so a backend that prints a
// package twice (e.g. once per architecture) does not trip planner
// invariant I2.
func ParseOutput(format config.OutputFormat, raw []byte) ([]InstalledPackage, error) {
	clean := ansiEscapeRegexp.ReplaceAll(raw, nil)

	var pkgs []InstalledPackage
	var err error
	switch format.Kind {
	case config.FormatWhitespace:
		pkgs = parseColumns(clean, nil, format.NameCol, format.VersionCol)
	case config.FormatTabSeparated:
		pkgs = parseColumns(clean, []byte("\t"), format.NameCol, format.VersionCol)
	case config.FormatJSON:
		pkgs, err = parseJSON(format, clean)
	case config.FormatRegex:
		pkgs, err = parseRegex(format, clean)
	default:
		return nil, fmt.Errorf("unsupported output format kind %v", format.Kind)
	}
	if err != nil {
		return nil, err
	}
	return dedupeByName(pkgs), nil
}

func parseColumns(raw, sep []byte, nameCol, versionCol int) []InstalledPackage {
	var pkgs []InstalledPackage
	lines := strings.Split(string(raw), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var fields []string
		if sep == nil {
			fields = strings.Fields(line)
		} else {
			fields = strings.Split(line, string(sep))
		}
		if nameCol >= len(fields) {
			continue
		}
		p := InstalledPackage{Name: strings.TrimSpace(fields[nameCol])}
		if versionCol >= 0 && versionCol < len(fields) {
			p.Version = strings.TrimSpace(fields[versionCol])
		}
		if p.Name != "" {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}

func parseJSON(format config.OutputFormat, raw []byte) ([]InstalledPackage, error) {
	var root interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("failed to parse JSON output: %w", err)
	}

	node := root
	if format.JSONPath != "" {
		for _, seg := range strings.Split(format.JSONPath, ".") {
			m, ok := node.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("JSON path %q: %q is not an object", format.JSONPath, seg)
			}
			node, ok = m[seg]
			if !ok {
				return nil, fmt.Errorf("JSON path %q: key %q not found", format.JSONPath, seg)
			}
		}
	}

	nameKey := format.NameKey
	if nameKey == "" {
		nameKey = "name"
	}

	switch n := node.(type) {
	case []interface{}:
		var pkgs []InstalledPackage
		for _, item := range n {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := obj[nameKey].(string)
			if name == "" {
				continue
			}
			pkgs = append(pkgs, InstalledPackage{Name: name, Version: extractVersion(obj, format.VersionKey)})
		}
		return pkgs, nil
	case map[string]interface{}:
		// A map-keyed target (e.g. npm's "dependencies" object): each key is
		// the package name and the value carries (or is) its version.
		var pkgs []InstalledPackage
		for name, v := range n {
			if name == "" {
				continue
			}
			p := InstalledPackage{Name: name}
			switch val := v.(type) {
			case map[string]interface{}:
				p.Version = extractVersion(val, format.VersionKey)
			case string:
				p.Version = val
			}
			pkgs = append(pkgs, p)
		}
		return pkgs, nil
	default:
		return nil, fmt.Errorf("JSON output at path %q is not an array or object", format.JSONPath)
	}
}

// extractVersion reads the version field named by versionKey (defaulting
// to "version") out of a decoded JSON object, coercing a numeric version
// to its string form.
func extractVersion(obj map[string]interface{}, versionKey string) string {
	if versionKey == "" {
		versionKey = "version"
	}
	switch v := obj[versionKey].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%v", v)
	default:
		return ""
	}
}

func parseRegex(format config.OutputFormat, raw []byte) ([]InstalledPackage, error) {
	if format.Pattern == "" {
		return nil, fmt.Errorf("regex output format requires a pattern")
	}
	re, err := regexp.Compile(format.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern %q: %w", format.Pattern, err)
	}

	nameGroup := format.NameGroup
	if nameGroup == 0 {
		nameGroup = 1
	}

	var pkgs []InstalledPackage
	for _, line := range strings.Split(string(raw), "\n") {
		m := re.FindStringSubmatch(line)
		if m == nil || nameGroup >= len(m) {
			continue
		}
		p := InstalledPackage{Name: m[nameGroup]}
		if format.VersionGroup > 0 && format.VersionGroup < len(m) {
			p.Version = m[format.VersionGroup]
		}
		if p.Name != "" {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

func dedupeByName(pkgs []InstalledPackage) []InstalledPackage {
	seen := make(map[string]bool, len(pkgs))
	out := make([]InstalledPackage, 0, len(pkgs))
	for _, p := range pkgs {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		out = append(out, p)
	}
	return out
}
