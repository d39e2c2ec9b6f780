package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/executor"
	"github.com/declarch-sh/declarch/internal/hooks"
	"github.com/declarch-sh/declarch/internal/plan"
	"github.com/declarch-sh/declarch/internal/print"
	"github.com/declarch-sh/declarch/internal/settings"
	"github.com/declarch-sh/declarch/internal/state"
)

var (
	syncPrune        bool
	syncHooksEnabled bool
	syncProfile      string
	syncHost         string
	syncBackends     []string
	syncPackages     []string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile installed packages with the declared configuration",
	Long: `sync computes, and then applies, the install/adopt/remove sets for
every backend named in declarch.kdl.

Without --prune, packages no longer declared are left alone. With
--prune, they are removed. --dry-run (a global flag) computes the plan
without installing, removing or committing state; pre-sync hooks still
run when hooks are enabled.`,
	Run: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncPrune, "prune", false, "remove previously-managed packages no longer declared")
	syncCmd.Flags().BoolVar(&syncHooksEnabled, "hooks-enabled", false, "allow configured lifecycle hooks to execute")
	syncCmd.Flags().StringVar(&syncProfile, "profile", "", "activate a named profile overlay")
	syncCmd.Flags().StringVar(&syncHost, "host", "", "activate a named host overlay")
	syncCmd.Flags().StringSliceVar(&syncBackends, "backend", nil, "restrict sync to these backends")
	syncCmd.Flags().StringSliceVar(&syncPackages, "package", nil, "restrict sync to these packages")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	persisted, err := settings.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	host := syncHost
	if host == "" {
		host = persisted.ActiveHost
	}
	profile := syncProfile
	if profile == "" {
		profile = persisted.ActiveProfile
	}

	sel := config.Selectors{Host: host}
	if profile != "" {
		sel.Profiles = []string{profile}
	}

	merged, _ := loadMergedConfig(sel)

	store, err := state.NewManager()
	if err != nil {
		fail(exitConfigError, "error: failed to open state store: %v", err)
	}
	st, loadWarnings, err := store.Load()
	if err != nil {
		if err == state.ErrLocked {
			fail(exitStateLockFailure, "error: %v", err)
		}
		fail(exitUserFailure, "error: failed to load state: %v", err)
	}
	for _, w := range loadWarnings {
		print.Warning("%s", w)
	}

	reg := backend.NewRegistry(merged.Backends)
	listers := map[string]plan.Lister{}
	runtimes := executor.Runtimes{}
	for _, name := range merged.BackendNames() {
		bd, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		bin, resolveErr := reg.Resolve(name)
		if resolveErr != nil {
			continue
		}
		rt := backend.NewRuntime(bd, bin)
		listers[name] = plan.ListerFunc(func() ([]backend.InstalledPackage, error) {
			return rt.ListInstalled(context.Background())
		})
		runtimes[name] = rt
	}

	mode := plan.ModeApply
	if syncPrune {
		mode = plan.ModeApplyWithPrune
	}
	sp := plan.Build(merged, st, listers, mode, plan.Filter{Backends: syncBackends, Packages: syncPackages})

	envWarnings := append([]string{}, loadWarnings...)
	for _, s := range sp.Skipped {
		print.Warning("%s: %s", s.Backend, s.Reason)
		envWarnings = append(envWarnings, fmt.Sprintf("%s: %s", s.Backend, s.Reason))
	}
	for _, w := range sp.Warnings {
		print.Warning("%s", w.Message)
		envWarnings = append(envWarnings, w.Message)
	}

	printPlan(sp)

	if emptyPlan(sp) {
		print.Success("nothing to do")
		if wantsEnvelope() {
			emitEnvelope("sync", sp, envWarnings, nil)
		}
		return
	}

	if flags.dryRun && wantsEnvelope() {
		emitEnvelope("sync", sp, envWarnings, nil)
		return
	}

	if !flags.dryRun && !flags.yes && backend.Interactive() {
		var proceed bool
		if err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title("Apply this plan?").Affirmative("Yes").Negative("No").Value(&proceed),
		)).Run(); err != nil || !proceed {
			fmt.Println("sync cancelled.")
			return
		}
	}

	hookRunner := hooks.NewRunner(&backend.ExecCommander{})
	hookRunner.Elevator = persisted.ElevatorOrDefault()

	ex := &executor.Executor{
		Runtimes: runtimes,
		Hooks:    hookRunner,
		Store:    store,
	}

	opts := executor.Options{
		DryRun:       flags.dryRun,
		HooksEnabled: hooks.Gate(merged.ExperimentalHooks, syncHooksEnabled),
	}

	result, err := ex.Run(context.Background(), sp, st, merged.Hooks, opts)
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	var batchErrs []string
	for _, br := range append(append([]executor.BatchResult{}, result.Installed...), result.Removed...) {
		if br.Err != nil {
			print.Error("%s: %s failed: %v", br.Backend, br.Operation, br.Err)
			batchErrs = append(batchErrs, fmt.Sprintf("%s: %s failed: %v", br.Backend, br.Operation, br.Err))
		}
	}

	if wantsEnvelope() {
		emitEnvelope("sync", result, envWarnings, batchErrs)
		return
	}

	if flags.dryRun {
		print.Info("dry run: no changes applied")
		return
	}
	print.Success("sync complete")
}

func emptyPlan(sp plan.SyncPlan) bool {
	for _, bp := range sp.PerBackend {
		if len(bp.Install) > 0 || len(bp.Adopt) > 0 || len(bp.Remove) > 0 {
			return false
		}
	}
	return true
}

func printPlan(sp plan.SyncPlan) {
	for _, name := range sortedKeys(sp.PerBackend) {
		bp := sp.PerBackend[name]
		if len(bp.Install) == 0 && len(bp.Adopt) == 0 && len(bp.Remove) == 0 {
			continue
		}
		fmt.Printf("%s:\n", name)
		for _, p := range bp.Install {
			fmt.Printf("  + %s (install)\n", p)
		}
		for _, p := range bp.Adopt {
			fmt.Printf("  ~ %s (adopt)\n", p)
		}
		for _, p := range bp.Remove {
			fmt.Printf("  - %s (remove)\n", p)
		}
	}
}

func sortedKeys(m map[string]plan.BackendPlan) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
