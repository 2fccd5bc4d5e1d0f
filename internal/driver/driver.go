package driver

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"whittle/internal/decision"
	"whittle/internal/grammar"
	"whittle/internal/minimize"
	"whittle/internal/oracle"
	"whittle/internal/tree"
)

// Config wires one fuzzing run.
type Config struct {
	Registry *grammar.Registry
	Root     string
	Runner   *oracle.Runner

	// Seed seeds the candidate stream; 0 derives one from the clock.
	Seed int64
	// MaxIterations bounds the loop; 0 runs until cancelled.
	MaxIterations int
	// ProgressEvery controls how often a counter line goes to Counter.
	ProgressEvery int

	// Out receives finding reports.
	Out io.Writer
	// Counter receives plain progress lines; nil silences them.
	Counter io.Writer
	// Color toggles ANSI styling of reports.
	Color bool

	// Progress receives per-iteration events; optional.
	Progress ProgressSink
	// Store indexes findings; optional.
	Store *Store
	// ArtifactsDir receives msgpack snapshots of findings; optional.
	ArtifactsDir string
}

// Fuzzer runs the generate → oracle → minimize → report loop. All state is
// confined to one Run call; iterations share nothing but the counter.
type Fuzzer struct {
	cfg Config
}

// New validates the configuration and builds a Fuzzer.
func New(cfg Config) (*Fuzzer, error) {
	if cfg.Registry == nil || cfg.Root == "" {
		return nil, fmt.Errorf("driver: registry and root type are required")
	}
	if cfg.Runner == nil {
		return nil, fmt.Errorf("driver: oracle runner is required")
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	return &Fuzzer{cfg: cfg}, nil
}

// Run fuzzes until the iteration bound or the context stops it. Cancellation
// is a clean stop, not an error.
func (f *Fuzzer) Run(ctx context.Context) (Stats, error) {
	cfg := f.cfg
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	var stats Stats
	for i := 1; cfg.MaxIterations == 0 || i <= cfg.MaxIterations; i++ {
		if ctx.Err() != nil {
			return stats, nil
		}
		stats.Iterations = i

		rec := decision.NewRecorder(rng.Int63())
		f.emit(Event{Iteration: i, Phase: PhaseGenerate, Findings: stats.Findings})
		node, err := cfg.Registry.Generate(cfg.Root, rec)
		if err != nil {
			return stats, err
		}

		f.emit(Event{Iteration: i, Phase: PhaseOracle, Findings: stats.Findings})
		out, _, err := cfg.Runner.Run(ctx, node)
		if err != nil {
			return stats, err
		}
		if ctx.Err() != nil {
			return stats, nil
		}
		f.emit(Event{Iteration: i, Phase: PhaseOracle, Class: out.Class, Findings: stats.Findings})

		if out.Interesting() {
			finding, err := f.shrink(ctx, rec.Log(), out, i)
			if err != nil {
				return stats, err
			}
			if finding == nil {
				return stats, nil // cancelled mid-shrink
			}
			stats.Findings++
			f.emit(Event{Iteration: i, Phase: PhaseReport, Class: finding.Class, Findings: stats.Findings, Finding: finding})
			if err := f.report(ctx, finding); err != nil {
				return stats, err
			}
		}

		if cfg.Counter != nil && i%cfg.ProgressEvery == 0 {
			fmt.Fprintf(cfg.Counter, "%d iterations, %d findings\n", i, stats.Findings)
		}
	}
	return stats, nil
}

// shrink minimizes one interesting failure and wraps it into a Finding. A nil
// finding without error means the context was cancelled.
func (f *Fuzzer) shrink(ctx context.Context, log *decision.Log, out oracle.Outcome, iteration int) (*Finding, error) {
	cfg := f.cfg
	f.emit(Event{Iteration: iteration, Phase: PhaseMinimize, Class: out.Class})

	rerun := func(ctx context.Context, n *tree.Node) (oracle.Outcome, error) {
		o, _, err := cfg.Runner.Run(ctx, n)
		return o, err
	}
	res, err := minimize.Run(ctx, cfg.Registry, cfg.Root, log, out.Signature(), rerun)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}
	minSource, err := cfg.Runner.Printer.Print(res.Node)
	if err != nil {
		return nil, err
	}
	return &Finding{
		ID:        uuid.New(),
		Class:     out.Class,
		Message:   out.Message,
		Source:    minSource,
		Node:      res.Node,
		Iteration: iteration,
		Passes:    res.Passes,
		Masked:    res.Masked,
	}, nil
}

func (f *Fuzzer) report(ctx context.Context, finding *Finding) error {
	cfg := f.cfg
	writeReport(cfg.Out, cfg.Color, finding)
	if cfg.Store != nil {
		if err := cfg.Store.Add(ctx, finding); err != nil {
			return fmt.Errorf("driver: store finding: %w", err)
		}
	}
	if cfg.ArtifactsDir != "" {
		if err := writeArtifact(cfg.ArtifactsDir, finding); err != nil {
			return fmt.Errorf("driver: write artifact: %w", err)
		}
	}
	return nil
}

func (f *Fuzzer) emit(evt Event) {
	if f.cfg.Progress != nil {
		f.cfg.Progress.OnEvent(evt)
	}
}
