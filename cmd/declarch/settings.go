package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/print"
	"github.com/declarch-sh/declarch/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View or change app-level settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current app-level settings",
	Args:  cobra.NoArgs,
	Run:   runSettingsShow,
}

var settingsElevatorCmd = &cobra.Command{
	Use:   "elevator [command]",
	Short: "View or set the privilege elevator used by sudo-marked hooks",
	Args:  cobra.MaximumNArgs(1),
	Run:   runSettingsElevator,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsElevatorCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) {
	s, err := settings.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	fmt.Printf("active_profile: %s\n", orNone(s.ActiveProfile))
	fmt.Printf("active_host: %s\n", orNone(s.ActiveHost))
	fmt.Printf("elevator: %s\n", s.ElevatorOrDefault())
}

func runSettingsElevator(cmd *cobra.Command, args []string) {
	s, err := settings.Load()
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	if len(args) == 0 {
		fmt.Println(s.ElevatorOrDefault())
		return
	}
	s.Elevator = args[0]
	if err := s.Save(); err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	print.Success("elevator set to %s", args[0])
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
