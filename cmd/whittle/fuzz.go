package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"whittle/internal/driver"
	"whittle/internal/grammar"
	"whittle/internal/oracle"
	"whittle/internal/printer"
	"whittle/internal/ui"
)

var fuzzCmd = &cobra.Command{
	Use:   "fuzz [flags] [dir]",
	Short: "Fuzz the configured tool until interrupted",
	Long:  `Fuzz generates random trees from the harness grammar, runs the tool under test over each one and minimizes every interesting failure before reporting it`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFuzz,
}

func init() {
	fuzzCmd.Flags().String("config", "", "path to whittle.toml (default: walk up from dir)")
	fuzzCmd.Flags().Int64("seed", 0, "override fuzz.seed from the manifest")
	fuzzCmd.Flags().Int("iterations", -1, "override fuzz.max_iterations from the manifest")
	fuzzCmd.Flags().Bool("no-ui", false, "disable the live progress view")
}

func runFuzz(cmd *cobra.Command, args []string) error {
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

	cfg, cleanup, err := buildDriverConfig(cmd, manifest)
	if err != nil {
		return err
	}
	defer cleanup()

	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		cfg.Seed = seed
	}
	if iters, _ := cmd.Flags().GetInt("iterations"); iters >= 0 {
		cfg.MaxIterations = iters
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	noUI, _ := cmd.Flags().GetBool("no-ui")
	if !noUI && !quiet && isTerminal(os.Stdout) {
		return runFuzzWithUI(ctx, cfg)
	}

	if !quiet {
		cfg.Counter = os.Stderr
	}
	fuzzer, err := driver.New(*cfg)
	if err != nil {
		return err
	}
	stats, err := fuzzer.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "stopped after %d iterations, %d findings\n", stats.Iterations, stats.Findings)
	return nil
}

// buildDriverConfig assembles the grammar, printer, oracle and persistence
// pieces declared by the manifest.
func buildDriverConfig(cmd *cobra.Command, manifest *harnessManifest) (*driver.Config, func(), error) {
	hc := manifest.Config

	table, err := grammar.Load(manifest.resolve(hc.Grammar.Path))
	if err != nil {
		return nil, nil, err
	}
	registry, err := grammar.Compile(table)
	if err != nil {
		return nil, nil, err
	}
	prt, err := printer.New(table)
	if err != nil {
		return nil, nil, err
	}
	tool, err := oracle.NewTool(hc.Tool.Command, hc.Tool.Timeout())
	if err != nil {
		return nil, nil, err
	}
	classifier, err := oracle.NewClassifier(hc.Oracle.Allow, hc.Oracle.PanicMarkers)
	if err != nil {
		return nil, nil, err
	}

	cfg := &driver.Config{
		Registry: registry,
		Root:     hc.Grammar.Root,
		Runner: &oracle.Runner{
			Printer:    prt,
			Invoker:    tool,
			Classifier: classifier,
		},
		Seed:          hc.Fuzz.Seed,
		MaxIterations: hc.Fuzz.MaxIterations,
		ProgressEvery: hc.Fuzz.ProgressEvery,
		Out:           os.Stdout,
		Color:         useColor(cmd, os.Stdout),
	}

	cleanup := func() {}
	if hc.Fuzz.FindingsDir != "" {
		dir := manifest.resolve(hc.Fuzz.FindingsDir)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, nil, fmt.Errorf("findings dir: %w", err)
		}
		store, err := driver.OpenStore(dir + "/findings.db")
		if err != nil {
			return nil, nil, err
		}
		cfg.Store = store
		cfg.ArtifactsDir = dir
		cleanup = func() { _ = store.Close() }
	}
	return cfg, cleanup, nil
}

type fuzzOutcome struct {
	stats driver.Stats
	err   error
}

// runFuzzWithUI runs the fuzzing loop in the background while Bubble Tea
// renders its progress events. Finding reports are buffered and flushed once
// the view shuts down so they do not fight the renderer for the terminal.
func runFuzzWithUI(ctx context.Context, cfg *driver.Config) error {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan fuzzOutcome, 1)
	var reports bytes.Buffer

	cfgCopy := *cfg
	cfgCopy.Progress = driver.ChannelSink{Ch: events}
	cfgCopy.Out = &reports
	cfgCopy.Counter = nil

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		fuzzer, err := driver.New(cfgCopy)
		if err != nil {
			outcomeCh <- fuzzOutcome{err: err}
			close(events)
			return
		}
		stats, err := fuzzer.Run(runCtx)
		outcomeCh <- fuzzOutcome{stats: stats, err: err}
		close(events)
	}()

	model := ui.NewFuzzModel("whittle fuzz", events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	go func() {
		<-runCtx.Done()
		program.Quit()
	}()
	_, uiErr := program.Run()
	cancel()
	// Drain remaining events so a full channel cannot wedge the loop between
	// its last emit and shutdown.
	for range events {
	}
	outcome := <-outcomeCh

	if reports.Len() > 0 {
		_, _ = os.Stdout.Write(reports.Bytes())
	}
	fmt.Fprintf(os.Stderr, "stopped after %d iterations, %d findings\n", outcome.stats.Iterations, outcome.stats.Findings)
	if uiErr != nil {
		return uiErr
	}
	return outcome.err
}
