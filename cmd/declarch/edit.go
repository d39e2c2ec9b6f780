package main

import (
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/config"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open declarch.kdl in $EDITOR",
	Args:  cobra.NoArgs,
	Run:   runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

const defaultEditor = "vi"

func runEdit(cmd *cobra.Command, args []string) {
	_, path, err := config.LoadFromDiscovery(config.Selectors{})
	if err != nil {
		fail(exitConfigError, "error: %v", err)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	c := exec.Command(editor, path)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
}
