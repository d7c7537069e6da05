package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"typhon/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "typhon",
	Short: "Typhon semantic analyzer",
	Long:  `Typhon checks serialized syntax tree documents: symbols, types and control flow`,
}

var (
	flagColor          string
	flagMaxDiagnostics int
	flagJSON           bool
	flagTimings        bool
)

func main() {
	rootCmd.Version = version.Version
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().IntVar(&flagMaxDiagnostics, "max-diagnostics", 0, "maximum diagnostics per file (0 = default)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "emit machine-readable JSON")
	rootCmd.PersistentFlags().BoolVar(&flagTimings, "timings", false, "print per-phase timings to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// colorEnabled resolves the --color flag against the output terminal.
func colorEnabled() bool {
	switch flagColor {
	case "on":
		color.NoColor = false
		return true
	case "off":
		return false
	}
	return isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
