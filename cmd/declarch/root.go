// Command declarch reconciles a machine's installed packages, across
// several package-manager backends, with a declarative KDL configuration.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/declarch-sh/declarch/internal/config"
	"github.com/declarch-sh/declarch/internal/envelope"
)

// Version information (set during build via -ldflags).
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// globalFlags holds the flags every mutating command honors.
type globalFlags struct {
	dryRun        bool
	verbose       bool
	quiet         bool
	yes           bool
	format        string
	outputVersion string
}

var flags globalFlags

var rootCmd = &cobra.Command{
	Use:   "declarch",
	Short: "declarch - a declarative, multi-backend package manager",
	Long: `declarch reconciles a machine's installed packages with a
declarative configuration written in KDL, across several package-manager
backends at once (system packagers, language registries, universal app
bundlers).

It provides:
  - A single declarch.kdl describing desired packages per backend
  - Profile and host overlays for machine-specific variation
  - A planner that computes install/adopt/keep/remove sets per backend
  - An executor with retries, dry-run, and lifecycle hooks
  - Versioned machine-readable output for scripting

declarch works with any directory containing a declarch.kdl file.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("declarch %s\n", Version)
		fmt.Printf("Built:      %s\n", BuildTime)
		fmt.Printf("Go version: %s\n", GoVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flags.dryRun, "dry-run", false, "describe actions without taking them")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolVarP(&flags.yes, "yes", "y", false, "assume yes to confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&flags.outputVersion, "output-version", "", "emit a versioned machine-readable envelope (e.g. v1)")

	rootCmd.AddCommand(versionCmd)
}

// These constants map the documented failure classes to their process exit codes.
const (
	exitOK                = 0
	exitUserFailure       = 1
	exitConfigError       = 2
	exitStateLockFailure  = 3
	exitInterrupted       = 130
)

func fail(code int, format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(code)
}

// loadMergedConfig discovers and loads declarch.kdl, exiting with the
// configuration-error exit code on any loader/validation failure.
func loadMergedConfig(sel config.Selectors) (*config.MergedConfig, string) {
	merged, path, err := config.LoadFromDiscovery(sel)
	if err != nil {
		fail(exitConfigError, "error: %v", err)
	}
	merged.Validate()
	if merged.HasErrors() {
		fail(exitConfigError, "%s", config.FormatDiagnostics(merged.Errors()))
	}
	return merged, path
}

// wantsEnvelope reports whether the caller asked for machine-readable
// output via --output-version instead of the default human-facing text.
func wantsEnvelope() bool {
	return flags.outputVersion != ""
}

// emitEnvelope builds and prints a versioned envelope for commands invoked
// with --output-version, recording any warnings/errors collected along the
// way. It exits the process with the appropriate code when errs is
// non-empty, matching fail's behavior for text-mode output.
func emitEnvelope(command string, data any, warnings, errs []string) {
	b := envelope.NewBuilder(command).SetData(data)
	for _, w := range warnings {
		b = b.Warn("", w)
	}
	for _, e := range errs {
		b = b.Fail("", e)
	}
	env := b.Build()
	out, err := env.Marshal()
	if err != nil {
		fail(exitUserFailure, "error: failed to marshal output envelope: %v", err)
	}
	fmt.Println(string(out))
	if !env.OK {
		os.Exit(exitUserFailure)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserFailure)
	}
}
