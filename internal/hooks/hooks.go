// Package hooks runs user-configured shell commands at sync lifecycle
// points, gated by an explicit two-factor opt-in (§4.8 "Hook engine").
package hooks

import (
	"context"
	"fmt"
	"strings"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/platform"
	"github.com/declarch-sh/declarch/internal/validation"
)

// Facts is the subset of plan/executor state that hook conditions
// evaluate against.
type Facts struct {
	Changed   map[string]bool // canonical package names touched this run
	Installed map[string]bool // canonical package names currently observed
	Success   map[string]bool // per-backend: did this backend's batches succeed
	Host      *platform.Platform
}

// Outcome records what happened when a declared hook was considered.
type Outcome struct {
	Hook    config.HookDecl
	Ran     bool
	Skipped bool
	Reason  string
	Err     error
}

// Gate reports whether hooks may execute at all: the merged config must
// carry an explicit opt-in, and the invoking command must carry its own
// explicit flag. Neither condition is overridable at runtime.
func Gate(configOptIn, cliFlag bool) bool {
	return configOptIn && cliFlag
}

// defaultElevator is the Runner.Elevator that NewRunner sets: the command
// prepended to a hook's command line when it is tagged --sudo, until a
// user-configured equivalent replaces it.
const defaultElevator = "sudo"

// Runner executes hook commands through a Commander, honoring phase
// gating, condition evaluation and the required/ignore failure policy.
type Runner struct {
	Commander backend.Commander
	Elevator  string
}

// NewRunner builds a Runner with the default elevator.
func NewRunner(cmd backend.Commander) *Runner {
	return &Runner{Commander: cmd, Elevator: defaultElevator}
}

// Run executes every hook declared for the given phase, in declaration
// order, evaluating each hook's conditions against facts first.
func (r *Runner) Run(ctx context.Context, phase string, hooks []config.HookDecl, facts Facts, enabled bool) ([]Outcome, error) {
	var outcomes []Outcome
	for _, h := range hooks {
		if h.Phase != phase {
			continue
		}

		if err := validation.ValidateHookCommand(h.Command); err != nil {
			outcomes = append(outcomes, Outcome{Hook: h, Err: fmt.Errorf("rejected: %w", err)})
			if isPreSync(phase) && !h.Ignore {
				return outcomes, fmt.Errorf("hook validation failed for phase %q: %w", phase, err)
			}
			continue
		}

		if !evaluate(h.Conditions, facts) {
			outcomes = append(outcomes, Outcome{Hook: h, Skipped: true, Reason: "condition not satisfied"})
			continue
		}

		if !enabled {
			outcomes = append(outcomes, Outcome{Hook: h, Skipped: true, Reason: "hooks not enabled, listed only"})
			continue
		}

		cmd := h.Command
		if h.Sudo {
			cmd = r.Elevator + " " + cmd
		}

		_, stderr, runErr := r.Commander.Run(ctx, 0, "sh", "-c", cmd)
		if runErr != nil {
			failure := fmt.Errorf("hook %q failed: %w", phase, runErr)
			if len(stderr) > 0 {
				failure = fmt.Errorf("%w: %s", failure, strings.TrimSpace(string(stderr)))
			}
			outcomes = append(outcomes, Outcome{Hook: h, Ran: true, Err: failure})

			escalates := h.Required || (isPreSync(phase) && !h.Ignore)
			if escalates && !h.Ignore {
				return outcomes, failure
			}
			continue
		}

		outcomes = append(outcomes, Outcome{Hook: h, Ran: true})
	}
	return outcomes, nil
}

func isPreSync(phase string) bool {
	return phase == "pre-sync" || strings.HasSuffix(phase, ":pre-install") || strings.HasSuffix(phase, ":pre-remove")
}

// evaluate checks a hook's if-conditions against observed facts. The
// core vocabulary is changed=, installed=, backend=, success; any other
// key (platform, os, distro, package_manager, wsl, arch/architecture) is
// delegated to the detected host so hooks can also gate on the machine
// they're running on. An empty condition set always passes.
func evaluate(conditions map[string]string, facts Facts) bool {
	var hostConditions map[string]string
	for key, val := range conditions {
		switch key {
		case "changed":
			if !facts.Changed[val] {
				return false
			}
		case "installed":
			if !facts.Installed[val] {
				return false
			}
		case "backend":
			if !facts.Success[val] {
				return false
			}
		case "success":
			allOK := true
			for _, ok := range facts.Success {
				if !ok {
					allOK = false
					break
				}
			}
			if !allOK {
				return false
			}
		default:
			if hostConditions == nil {
				hostConditions = map[string]string{}
			}
			hostConditions[key] = val
		}
	}
	if len(hostConditions) > 0 {
		if facts.Host == nil {
			return false
		}
		if !platform.CheckCondition(hostConditions, facts.Host) {
			return false
		}
	}
	return true
}
