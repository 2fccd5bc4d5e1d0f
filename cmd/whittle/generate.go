package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"whittle/internal/decision"
	"whittle/internal/grammar"
	"whittle/internal/printer"
	"whittle/internal/tree"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [dir]",
	Short: "Generate one random tree from the harness grammar",
	Long:  `Generate performs a single recording run and prints the resulting source text and structural dump, which is handy while authoring a grammar`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().String("config", "", "path to whittle.toml (default: walk up from dir)")
	generateCmd.Flags().Int64("seed", 0, "decision seed (0 picks one from the clock)")
	generateCmd.Flags().Bool("dump-only", false, "print only the structural dump")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	startDir := "."
	if len(args) == 1 {
		startDir = args[0]
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	manifest, err := loadManifest(configPath, startDir)
	if err != nil {
		return err
	}

	table, err := grammar.Load(manifest.resolve(manifest.Config.Grammar.Path))
	if err != nil {
		return err
	}
	registry, err := grammar.Compile(table)
	if err != nil {
		return err
	}

	seed, _ := cmd.Flags().GetInt64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
		fmt.Fprintf(os.Stderr, "seed %d\n", seed)
	}
	rec := decision.NewRecorder(seed)
	node, err := registry.Generate(manifest.Config.Grammar.Root, rec)
	if err != nil {
		return err
	}

	dumpOnly, _ := cmd.Flags().GetBool("dump-only")
	if !dumpOnly {
		prt, err := printer.New(table)
		if err != nil {
			return err
		}
		source, err := prt.Print(node)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, source)
	}
	fmt.Fprint(os.Stdout, tree.Dump(node))
	return nil
}
