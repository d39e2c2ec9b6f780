package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/print"
)

var installBackend string

var installCmd = &cobra.Command{
	Use:   "install <package> [package...]",
	Short: "Install one or more packages through a specific backend",
	Long: `install is the ad-hoc counterpart to sync: it installs packages
immediately through --backend without requiring them to be declared in
declarch.kdl first. Use "declarch edit" to make the change permanent.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installBackend, "backend", "", "backend to install through (required)")
	_ = installCmd.MarkFlagRequired("backend")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) {
	merged, _ := loadMergedConfig(config.Selectors{})

	reg := backend.NewRegistry(merged.Backends)
	bd, ok := reg.Lookup(installBackend)
	if !ok {
		fail(exitUserFailure, "error: unknown backend %q", installBackend)
	}
	bin, err := reg.Resolve(installBackend)
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	if flags.dryRun {
		print.Info("would install via %s: %v", installBackend, args)
		return
	}

	rt := backend.NewRuntime(bd, bin)
	if err := rt.Install(context.Background(), args); err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	print.Success("installed %v via %s", args, installBackend)
}
