// Package executor applies a sync plan in the strict phase order of
// §4.7: pre-sync hooks, remove batch, install batch, atomic state commit,
// post-sync hooks.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/hooks"
	"github.com/declarch-sh/declarch/internal/lockutil"
	"github.com/declarch-sh/declarch/internal/plan"
	"github.com/declarch-sh/declarch/internal/state"
)

// ProgressFunc reports coarse progress to the caller; current/total are
// 1-based counters over the work items of the phase currently running.
type ProgressFunc func(current, total int, msg string)

// BackendRuntime is the subset of *backend.Runtime the executor needs:
// batch install/remove against one resolved backend.
type BackendRuntime interface {
	Install(ctx context.Context, names []string) error
	Remove(ctx context.Context, names []string) error
}

// Options configures one Run.
type Options struct {
	DryRun       bool
	HooksEnabled bool
	Progress     ProgressFunc
}

// BatchResult records the outcome of one backend's install or remove batch.
type BatchResult struct {
	Backend   string
	Operation string // "install" or "remove"
	Succeeded []string
	Failed    []string
	Err       error
}

// Result is the outcome of one executor Run.
type Result struct {
	Installed   []BatchResult
	Adopted     []BatchResult
	Removed     []BatchResult
	HookRuns    []hooks.Outcome
	Interrupted bool
}

// Runtimes resolves a backend name to the runtime that executes its
// install/remove commands; a backend absent here was already skipped by
// the planner and is not retried here.
type Runtimes map[string]BackendRuntime

// Executor drives one sync run to completion.
type Executor struct {
	Runtimes Runtimes
	Hooks    *hooks.Runner
	Store    state.Manager
}

// ErrRunFatal wraps an error that must abort the entire run, leaving
// state untouched (a failed pre-sync hook, or state-lock or state-write
// failures, per §4.7).
var ErrRunFatal = errors.New("run-fatal error")

// Run executes sp's batches in strict phase order and returns the
// accumulated result. A SIGINT stops further batches from starting; work
// already committed to state remains committed.
func (ex *Executor) Run(ctx context.Context, sp plan.SyncPlan, st *state.State, declaredHooks []config.HookDecl, opts Options) (Result, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result Result

	preOutcomes, err := ex.runHookPhase(ctx, "pre-sync", declaredHooks, hooks.Facts{}, opts)
	result.HookRuns = append(result.HookRuns, preOutcomes...)
	if err != nil {
		return result, fmt.Errorf("%w: pre-sync hooks: %v", ErrRunFatal, err)
	}

	success := map[string]bool{}
	changed := map[string]bool{}

	if opts.DryRun {
		return result, nil
	}

	for _, name := range sortedBackends(sp.PerBackend) {
		bp := sp.PerBackend[name]
		if len(bp.Remove) == 0 || ctx.Err() != nil {
			if ctx.Err() != nil {
				result.Interrupted = true
			}
			continue
		}
		br := ex.runBatch(ctx, name, "remove", bp.Remove, ex.Runtimes[name].Remove)
		result.Removed = append(result.Removed, br)
		success[name] = br.Err == nil
		for _, n := range br.Succeeded {
			changed[n] = true
		}
	}

	for _, name := range sortedBackends(sp.PerBackend) {
		bp := sp.PerBackend[name]
		if ctx.Err() != nil {
			result.Interrupted = true
			continue
		}

		// Adoption only records an already-installed package as managed; it
		// never invokes the backend's install command (§8 scenario 2).
		if len(bp.Adopt) > 0 {
			adopted := BatchResult{Backend: name, Operation: "adopt", Succeeded: append([]string{}, bp.Adopt...)}
			result.Adopted = append(result.Adopted, adopted)
			if existing, ok := success[name]; !ok || existing {
				success[name] = true
			}
		}

		if len(bp.Install) == 0 {
			continue
		}
		br := ex.runBatch(ctx, name, "install", bp.Install, ex.Runtimes[name].Install)
		result.Installed = append(result.Installed, br)
		if existing, ok := success[name]; !ok || existing {
			success[name] = br.Err == nil
		}
		for _, n := range br.Succeeded {
			changed[n] = true
		}
	}

	if err := ex.commit(st, result); err != nil {
		return result, fmt.Errorf("%w: state commit: %v", ErrRunFatal, err)
	}

	allOK := true
	for _, ok := range success {
		if !ok {
			allOK = false
			break
		}
	}
	phase := "on-failure"
	if allOK {
		phase = "on-success"
	}
	facts := hooks.Facts{Changed: changed, Success: success}
	postOutcomes, _ := ex.runHookPhase(ctx, "post-sync", declaredHooks, facts, opts)
	result.HookRuns = append(result.HookRuns, postOutcomes...)
	outcomeRuns, _ := ex.runHookPhase(ctx, phase, declaredHooks, facts, opts)
	result.HookRuns = append(result.HookRuns, outcomeRuns...)

	return result, nil
}

func (ex *Executor) runHookPhase(ctx context.Context, phase string, declared []config.HookDecl, facts hooks.Facts, opts Options) ([]hooks.Outcome, error) {
	if ex.Hooks == nil {
		return nil, nil
	}
	return ex.Hooks.Run(ctx, phase, declared, facts, opts.HooksEnabled)
}

// runBatch invokes apply once, retrying a single time after a bounded
// exponential backoff on failure (§4.7's retryable/batch-fatal tiers).
func (ex *Executor) runBatch(ctx context.Context, backendName, op string, names []string, apply func(context.Context, []string) error) BatchResult {
	if len(names) == 0 {
		return BatchResult{Backend: backendName, Operation: op}
	}

	err := lockutil.RetryWithBackoff(ctx, func() error {
		return apply(ctx, names)
	})

	if err != nil {
		return BatchResult{Backend: backendName, Operation: op, Failed: names, Err: err}
	}
	return BatchResult{Backend: backendName, Operation: op, Succeeded: names}
}

func (ex *Executor) commit(st *state.State, result Result) error {
	now := commitTime()
	for _, br := range result.Installed {
		for _, name := range br.Succeeded {
			st.Put(state.Record{Backend: br.Backend, Name: name, ManagedBy: state.ManagedByDeclarch, InstalledAt: now, LastSyncedAt: now})
		}
	}
	for _, br := range result.Adopted {
		for _, name := range br.Succeeded {
			st.Put(state.Record{Backend: br.Backend, Name: name, ManagedBy: state.ManagedByAdopted, InstalledAt: now, LastSyncedAt: now})
		}
	}
	for _, br := range result.Removed {
		for _, name := range br.Succeeded {
			k, err := newKey(br.Backend, name)
			if err != nil {
				continue
			}
			st.Remove(k)
		}
	}
	return ex.Store.Save(st)
}

func sortedBackends(m map[string]plan.BackendPlan) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// commitTime is isolated behind a var so tests can pin a deterministic
// timestamp instead of depending on wall-clock time.
var commitTime = func() time.Time { return time.Now() }
