package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"whittle/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "whittle",
	Short: "Grammar-driven fuzzer and test-case minimizer",
	Long:  `whittle generates random syntax trees from a declarative grammar, runs them through an external tool and shrinks every interesting failure`,
}

// main initializes the CLI by setting the command version, registering
// subcommands and persistent flags, and then executes the root command.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(fuzzCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether the file is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func useColor(cmd *cobra.Command, f *os.File) bool {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	return colorFlag == "on" || (colorFlag == "auto" && isTerminal(f))
}
