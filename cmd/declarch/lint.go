package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/match"
	"github.com/declarch-sh/declarch/internal/print"
)

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate the configuration and report diagnostics without syncing",
	Run:   runLint,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) {
	merged, _, err := config.LoadFromDiscovery(config.Selectors{})
	if err != nil {
		fail(exitConfigError, "error: %v", err)
	}
	merged.Validate()

	var groups []config.PackageGroup
	for _, name := range merged.BackendNames() {
		groups = append(groups, config.PackageGroup{Backend: name, Entries: merged.EntriesForBackend(name)})
	}
	conflicts := match.DetectConflicts(groups)
	diags := append(append([]config.Diagnostic{}, merged.Diagnostics...), match.AsDiagnostics(conflicts)...)

	if len(diags) == 0 {
		print.Success("no issues found")
		return
	}

	fmt.Fprintln(os.Stderr, config.FormatDiagnostics(diags))

	if merged.HasErrors() {
		os.Exit(exitConfigError)
	}
}
