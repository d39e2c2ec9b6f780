package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/plan"
	"github.com/declarch-sh/declarch/internal/print"
	"github.com/declarch-sh/declarch/internal/state"
)

var (
	infoDoctor bool
	infoPlan   bool
	infoList   bool
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Inspect the current configuration, plan, and machine state",
	Run:   runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoDoctor, "doctor", false, "report host detection and backend availability")
	infoCmd.Flags().BoolVar(&infoPlan, "plan", false, "show the computed sync plan without applying it")
	infoCmd.Flags().BoolVar(&infoList, "list", false, "list every currently-managed package")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) {
	switch {
	case infoDoctor:
		runInfoDoctor()
	case infoPlan:
		runInfoPlan()
	case infoList:
		runInfoList()
	default:
		runInfoSummary()
	}
}

func runInfoDoctor() {
	print.Section("Host")
	host, err := backend.DetectHost()
	if err != nil {
		print.Error("failed to detect host: %v", err)
		return
	}
	fmt.Printf("OS: %s\n", host.OS)
	if host.Distro != "" {
		fmt.Printf("Distro: %s\n", host.Distro)
	}
	fmt.Printf("Architecture: %s\n", host.Architecture)
	fmt.Printf("System packager: %s\n", host.SystemPackager)

	merged, _ := loadMergedConfig(config.Selectors{})
	reg := backend.NewRegistry(merged.Backends)

	print.Section("Backends")
	for _, name := range merged.BackendNames() {
		bd, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		bin, err := reg.Resolve(name)
		if err != nil {
			print.Warning("%s: unavailable", name)
			continue
		}
		rt := backend.NewRuntime(bd, bin)
		if v, err := rt.Version(context.Background()); err == nil && v != "" {
			print.Success("%s: available (%s)", name, v)
		} else {
			print.Success("%s: available", name)
		}
	}
}

func runInfoPlan() {
	merged, _ := loadMergedConfig(config.Selectors{})
	store, err := state.NewManager()
	if err != nil {
		fail(exitConfigError, "error: %v", err)
	}
	st, loadWarnings, err := store.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	if !wantsEnvelope() {
		for _, w := range loadWarnings {
			print.Warning("%s", w)
		}
	}

	reg := backend.NewRegistry(merged.Backends)
	listers := map[string]plan.Lister{}
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
	}

	sp := plan.Build(merged, st, listers, plan.ModePreview, plan.Filter{})

	if wantsEnvelope() {
		warnings := append([]string{}, loadWarnings...)
		for _, s := range sp.Skipped {
			warnings = append(warnings, fmt.Sprintf("%s: %s", s.Backend, s.Reason))
		}
		emitEnvelope("info --plan", sp, warnings, nil)
		return
	}

	printPlan(sp)
	for _, s := range sp.Skipped {
		print.Warning("%s: %s", s.Backend, s.Reason)
	}
}

func runInfoList() {
	store, err := state.NewManager()
	if err != nil {
		fail(exitConfigError, "error: %v", err)
	}
	st, loadWarnings, err := store.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	for _, w := range loadWarnings {
		print.Warning("%s", w)
	}
	for key := range st.Records {
		fmt.Println(key)
	}
}

func runInfoSummary() {
	merged, path := loadMergedConfig(config.Selectors{})
	fmt.Printf("config: %s\n", path)
	if merged.Metadata.Title != "" {
		fmt.Printf("title: %s\n", merged.Metadata.Title)
	}
	fmt.Printf("backends: %d\n", len(merged.BackendNames()))
	total := 0
	for _, name := range merged.BackendNames() {
		total += len(merged.EntriesForBackend(name))
	}
	fmt.Printf("declared packages: %d\n", total)
}
