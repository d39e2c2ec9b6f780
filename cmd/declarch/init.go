package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/print"
	"github.com/declarch-sh/declarch/internal/remote"
	"github.com/declarch-sh/declarch/internal/validation"
)

var initFrom string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a new declarch.kdl in the current directory",
	Long: `init writes a starter declarch.kdl to the current directory.
With --from, it fetches a template from a remote URL instead of writing
the built-in skeleton; the fetch is subject to the same scheme and
private-network restrictions as any other remote document.`,
	Args: cobra.NoArgs,
	Run:  runInit,
}

func init() {
	initCmd.Flags().StringVar(&initFrom, "from", "", "fetch the starting document from this URL instead of using the built-in skeleton")
	rootCmd.AddCommand(initCmd)
}

const skeletonConfig = `meta {
    title "my machine"
}

// Declare packages per backend. Built-in backends: aur, apt, dnf,
// pacman, brew, npm, pip, cargo, flatpak, soar.
aur {
}

experimental {
    // hooks
}
`

func runInit(cmd *cobra.Command, args []string) {
	if _, err := os.Stat(config.ConfigFileName); err == nil {
		fail(exitUserFailure, "error: %s already exists in this directory", config.ConfigFileName)
	}

	content := []byte(skeletonConfig)
	if initFrom != "" {
		if err := validation.ValidateGitURL(initFrom); err != nil {
			fail(exitUserFailure, "error: --from: %v", err)
		}
		fetcher := remote.NewFetcher()
		body, err := fetcher.Fetch(context.Background(), initFrom)
		if err != nil {
			fail(exitUserFailure, "error: %v", err)
		}
		content = body
	}

	if err := os.WriteFile(config.ConfigFileName, content, 0o644); err != nil {
		fail(exitUserFailure, "error: %v", err)
	}
	print.Success("wrote %s", config.ConfigFileName)
}
