package backend

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/validation"
)

// defaultTimeout bounds any single backend invocation (§5).
const defaultTimeout = 10 * time.Minute

// Runtime executes the operations of a single resolved backend by
// templating its declared commands and running them through a Commander.
type Runtime struct {
	Def       config.BackendDef
	Binary    ResolvedBinary
	Commander Commander
}

// NewRuntime builds a Runtime for an already-resolved backend.
func NewRuntime(def config.BackendDef, bin ResolvedBinary) *Runtime {
	return &Runtime{Def: def, Binary: bin, Commander: &ExecCommander{}}
}

// IsAvailable reports whether the runtime's backend binary is present.
func (rt *Runtime) IsAvailable() bool {
	return rt.Binary.Path != ""
}

// ListInstalled runs the backend's list command and parses its output.
func (rt *Runtime) ListInstalled(ctx context.Context) ([]InstalledPackage, error) {
	if rt.Def.ListDelegatesTo != "" {
		return nil, fmt.Errorf("backend %q delegates listing to %q, call that backend's runtime instead", rt.Def.Name, rt.Def.ListDelegatesTo)
	}
	if rt.Def.List == "" {
		return nil, fmt.Errorf("backend %q has no list command configured", rt.Def.Name)
	}

	out, err := rt.run(ctx, rt.Def.List, nil)
	if err != nil {
		return nil, fmt.Errorf("backend %q: list failed: %w", rt.Def.Name, err)
	}
	return ParseOutput(rt.Def.ListFormat, out)
}

// Install installs the given package names. When stdout is not a
// terminal (e.g. during an unattended sync), the backend's noconfirm
// flag is appended so it never blocks on an interactive prompt.
func (rt *Runtime) Install(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := rt.validateNames(names); err != nil {
		return err
	}

	if usesPackagesArgs(rt.Def.Install) {
		argv := renderArgv(rt.Def.Install, names, rt.extraVars())
		if !Interactive() && rt.Def.NoConfirmFlag != "" && !containsArg(argv, rt.Def.NoConfirmFlag) {
			argv = append(argv, rt.Def.NoConfirmFlag)
		}
		if _, err := rt.runArgv(ctx, argv); err != nil {
			return fmt.Errorf("backend %q: install failed for %s: %w", rt.Def.Name, strings.Join(names, ", "), err)
		}
		return nil
	}

	cmd := renderTemplateMulti(rt.Def.Install, names, rt.extraVars())
	if !Interactive() && rt.Def.NoConfirmFlag != "" && !strings.Contains(rt.Def.Install, rt.Def.NoConfirmFlag) {
		cmd = cmd + " " + rt.Def.NoConfirmFlag
	}
	if _, err := rt.runShell(ctx, cmd); err != nil {
		return fmt.Errorf("backend %q: install failed for %s: %w", rt.Def.Name, strings.Join(names, ", "), err)
	}
	return nil
}

// Remove removes the given package names.
func (rt *Runtime) Remove(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := rt.validateNames(names); err != nil {
		return err
	}
	if rt.Def.Remove == "" {
		return fmt.Errorf("backend %q has no remove command configured", rt.Def.Name)
	}

	if usesPackagesArgs(rt.Def.Remove) {
		argv := renderArgv(rt.Def.Remove, names, rt.extraVars())
		if _, err := rt.runArgv(ctx, argv); err != nil {
			return fmt.Errorf("backend %q: remove failed for %s: %w", rt.Def.Name, strings.Join(names, ", "), err)
		}
		return nil
	}

	cmd := renderTemplateMulti(rt.Def.Remove, names, rt.extraVars())
	if _, err := rt.runShell(ctx, cmd); err != nil {
		return fmt.Errorf("backend %q: remove failed for %s: %w", rt.Def.Name, strings.Join(names, ", "), err)
	}
	return nil
}

// Search runs the backend's search command for query and parses its output.
func (rt *Runtime) Search(ctx context.Context, query string) ([]InstalledPackage, error) {
	if rt.Def.Search == "" {
		return nil, fmt.Errorf("backend %q has no search command configured", rt.Def.Name)
	}
	if err := validation.ValidatePackageName(query); err != nil {
		return nil, fmt.Errorf("invalid search query: %w", err)
	}

	out, err := rt.run(ctx, rt.Def.Search, map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("backend %q: search failed: %w", rt.Def.Name, err)
	}
	return ParseOutput(rt.Def.SearchFormat, out)
}

// Version runs the backend binary's own version command (one of the
// whitelisted forms --version/-v/-V/version) and returns its trimmed
// output, used by "declarch info --doctor" to report which manager
// version is actually on the machine.
func (rt *Runtime) Version(ctx context.Context) (string, error) {
	const versionCmd = "--version"
	if err := validation.ValidateVersionCmd(versionCmd); err != nil {
		return "", err
	}
	out, _, err := rt.Commander.Run(ctx, defaultTimeout, rt.Binary.Path, versionCmd)
	if err != nil {
		return "", fmt.Errorf("backend %q: version check failed: %w", rt.Def.Name, err)
	}
	return strings.TrimSpace(strings.SplitN(string(out), "\n", 2)[0]), nil
}

func (rt *Runtime) validateNames(names []string) error {
	for _, n := range names {
		if err := validation.ValidatePackageName(n); err != nil {
			return fmt.Errorf("invalid package name %q: %w", n, err)
		}
	}
	return nil
}

func (rt *Runtime) extraVars() map[string]string {
	vars := map[string]string{}
	if rt.Binary.Name != "" {
		vars["binary"] = rt.Binary.Name
	}
	return vars
}

// containsArg reports whether argv already has flag among its elements.
func containsArg(argv []string, flag string) bool {
	for _, a := range argv {
		if a == flag {
			return true
		}
	}
	return false
}

func (rt *Runtime) run(ctx context.Context, tmpl string, vars map[string]string) ([]byte, error) {
	all := rt.extraVars()
	for k, v := range vars {
		all[k] = v
	}
	return rt.runShell(ctx, renderTemplate(tmpl, all))
}

// runShell executes a fully-rendered command line through "sh -c". Every
// variable spliced into it was shell-quoted by the template layer, so the
// only unquoted text is the backend definition's own literal command,
// which is config-controlled rather than per-invocation user input.
func (rt *Runtime) runShell(ctx context.Context, cmd string) ([]byte, error) {
	stdout, stderr, err := rt.Commander.Run(ctx, defaultTimeout, "sh", "-c", cmd)
	if err != nil {
		if len(stderr) > 0 {
			return stdout, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr)))
		}
		return stdout, err
	}
	return stdout, nil
}

// runArgv executes a fully-rendered argv directly, with no shell
// involved -- the {packages_args} form's entire point is to put each
// package name in its own argv slot instead of a shell-quoted string.
func (rt *Runtime) runArgv(ctx context.Context, argv []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("backend %q: rendered an empty command", rt.Def.Name)
	}
	stdout, stderr, err := rt.Commander.Run(ctx, defaultTimeout, argv[0], argv[1:]...)
	if err != nil {
		if len(stderr) > 0 {
			return stdout, fmt.Errorf("%w: %s", err, strings.TrimSpace(string(stderr)))
		}
		return stdout, err
	}
	return stdout, nil
}

// Interactive reports whether stdout is attached to a terminal, used to
// decide whether a backend's own interactive prompts (e.g. an AUR
// helper's build review) should be allowed through instead of suppressed
// via its noconfirm flag.
func Interactive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
