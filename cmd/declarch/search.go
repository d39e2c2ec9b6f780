package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/backend"
	"github.com/declarch-sh/declarch/internal/config"
)

var searchBackend string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search a backend's package index",
	Args:  cobra.ExactArgs(1),
	Run:   runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchBackend, "backend", "", "backend to search (required)")
	_ = searchCmd.MarkFlagRequired("backend")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	merged, _ := loadMergedConfig(config.Selectors{})

	reg := backend.NewRegistry(merged.Backends)
	bd, ok := reg.Lookup(searchBackend)
	if !ok {
		fail(exitUserFailure, "error: unknown backend %q", searchBackend)
	}
	bin, err := reg.Resolve(searchBackend)
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	rt := backend.NewRuntime(bd, bin)
	results, err := rt.Search(context.Background(), args[0])
	if err != nil {
		fail(exitUserFailure, "error: %v", err)
	}

	for _, r := range results {
		if r.Version != "" {
			fmt.Printf("%s  %s\n", r.Name, r.Version)
		} else {
			fmt.Println(r.Name)
		}
	}
}
