package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/print"
	"github.com/declarch-sh/declarch/internal/settings"
)

var switchCmd = &cobra.Command{
	Use:   "switch [profile]",
	Short: "View or persist the active profile/host selector",
	Long: `switch with no arguments prints the currently persisted profile
and host selector. "switch <profile>" persists a new active profile, used
by sync when --profile is not given explicitly. --host sets the
host selector instead of (or alongside) a profile.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runSwitch,
}

var switchHost string

func init() {
	switchCmd.Flags().StringVar(&switchHost, "host", "", "persist this host selector")
	rootCmd.AddCommand(switchCmd)
}

func runSwitch(cmd *cobra.Command, args []string) {
	s, err := settings.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	if len(args) == 0 && switchHost == "" {
		if s.ActiveProfile == "" && s.ActiveHost == "" {
			fmt.Println("no active profile or host set")
			return
		}
		if s.ActiveProfile != "" {
			fmt.Printf("profile: %s\n", s.ActiveProfile)
		}
		if s.ActiveHost != "" {
			fmt.Printf("host: %s\n", s.ActiveHost)
		}
		return
	}

	if len(args) == 1 {
		s.ActiveProfile = args[0]
	}
	if switchHost != "" {
		s.ActiveHost = switchHost
	}

	if err := s.Save(); err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	print.Success("active selector updated")
}
