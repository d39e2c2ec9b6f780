package backend

import "strings"

// packagesArgsPlaceholder is the argv-per-package form of the packages
// placeholder: a backend command template using it is executed by passing
// each package name as its own argv element rather than splicing a single
// shell-quoted string, sidestepping shell quoting entirely for that call.
const packagesArgsPlaceholder = "{packages_args}"

// shellQuote wraps s in single quotes, escaping any embedded single quote
// as '\'' so the result is safe to splice into a templated command string
// regardless of its contents. Double-quote based escaping is deliberately
// not used here: it still honors $, `, and \ inside the quotes, which
// single-quoting closes off entirely.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// renderTemplate substitutes {binary} and {query} placeholders in a
// backend-defined command template. Every substituted value is
// shell-quoted; the template author controls only the surrounding literal
// command text, never quoting.
func renderTemplate(tmpl string, vars map[string]string) string {
	out := tmpl
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", shellQuote(val))
	}
	return out
}

// renderTemplateMulti substitutes {packages} with a space-joined, each
// individually shell-quoted, list -- used by install/remove when the
// backend invokes a single "sh -c" command for the whole batch.
func renderTemplateMulti(tmpl string, names []string, extra map[string]string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = shellQuote(n)
	}
	out := strings.ReplaceAll(tmpl, "{packages}", strings.Join(quoted, " "))
	for key, val := range extra {
		out = strings.ReplaceAll(out, "{"+key+"}", shellQuote(val))
	}
	return out
}

// usesPackagesArgs reports whether tmpl uses the argv-per-package form
// instead of the single shell-quoted {packages} string.
func usesPackagesArgs(tmpl string) bool {
	return strings.Contains(tmpl, packagesArgsPlaceholder)
}

// renderArgv builds an argv slice for a backend command template
// containing {packages_args}: the literal text before and after the
// placeholder is split into shell words, {binary}/{query}-style
// placeholders in that literal text are substituted directly (no shell
// involved, so no quoting is needed), and each package name becomes its
// own argv element between the two halves.
func renderArgv(tmpl string, names []string, extra map[string]string) []string {
	rendered := tmpl
	for key, val := range extra {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", val)
	}

	idx := strings.Index(rendered, packagesArgsPlaceholder)
	if idx < 0 {
		return append(strings.Fields(rendered), names...)
	}

	prefix := strings.Fields(rendered[:idx])
	suffix := strings.Fields(rendered[idx+len(packagesArgsPlaceholder):])
	argv := make([]string, 0, len(prefix)+len(names)+len(suffix))
	argv = append(argv, prefix...)
	argv = append(argv, names...)
	argv = append(argv, suffix...)
	return argv
}
