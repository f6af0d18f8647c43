// Package app contains the Cobra command tree for reposcout.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/reposcout/internal/config"
	"github.com/blackwell-systems/reposcout/internal/output"
)

var appVersion = "dev"

// BuildInfo identifies the binary. Both fields are normally injected with
// ldflags.
type BuildInfo struct {
	Version string
	Commit  string
}

func (b BuildInfo) String() string {
	v := b.Version
	if v == "" {
		v = "dev"
	}
	if b.Commit != "" {
		v += " (" + b.Commit + ")"
	}
	return v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "reposcout",
	Short: "Find and rank GitHub repositories by documentation quality",
	Long: `reposcout searches GitHub by topic, fetches each repository's README,
file tree, markdown files and a sample of its source, and scores the
documentation from 0-100 with concrete issues and suggestions.

Results are written to a JSON or HTML report and can be stored locally
to compare runs over time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("reposcout", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  scan      Search GitHub and rank repositories by documentation score")
		fmt.Println("  score     Score local checkouts")
		fmt.Println("  track     Compare stored runs")
		fmt.Println("  doctor    Check configuration and connectivity")
		return nil
	},
}

// Run executes the command tree with args and returns the process exit code.
func Run(info BuildInfo, args []string) int {
	if info.Version != "" {
		appVersion = info.Version
	}
	rootCmd.Version = info.String()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/reposcout/reposcout.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}

// newLogger returns a text logger on w. Warnings and errors are always
// shown; --verbose adds info and debug records.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// applyColor disables styling when requested by flag or config.
func applyColor(cfg *config.Config) {
	if flagNoColor || (cfg != nil && !cfg.Output.Color) {
		output.SetNoColor(true)
	}
}
