package driver

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"whittle/internal/grammar"
	"whittle/internal/oracle"
	"whittle/internal/tree"
)

const listGrammar = `
types:
  Program:
    fields:
      body: {array: {of: Item, nonempty: true}}
  Item:
    fields:
      name: string
`

func compileList(t *testing.T) *grammar.Registry {
	t.Helper()
	table, err := grammar.Parse([]byte(listGrammar))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg, err := grammar.Compile(table)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return reg
}

// listPrinter renders a Program as its element names joined with spaces.
type listPrinter struct{}

func (listPrinter) Print(n *tree.Node) (string, error) {
	body, _ := n.Field("body")
	elems, _ := body.([]tree.Value)
	names := make([]string, 0, len(elems))
	for _, el := range elems {
		name, _ := el.(*tree.Node).Field("name")
		names = append(names, name.(string))
	}
	return strings.Join(names, " "), nil
}

type fixedTool struct {
	res   oracle.Result
	calls int
}

func (ft *fixedTool) Invoke(context.Context, string) oracle.Result {
	ft.calls++
	return ft.res
}

type collectSink struct {
	phases map[Phase]int
}

func (s *collectSink) OnEvent(evt Event) {
	if s.phases == nil {
		s.phases = make(map[Phase]int)
	}
	s.phases[evt.Phase]++
}

func testRunner(t *testing.T, tool oracle.Invoker) *oracle.Runner {
	t.Helper()
	classifier, err := oracle.NewClassifier(nil, nil)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return &oracle.Runner{Printer: listPrinter{}, Invoker: tool, Classifier: classifier}
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected an error for an empty config")
	}
	if _, err := New(Config{Registry: compileList(t), Root: "Program"}); err == nil {
		t.Fatal("expected an error for a missing runner")
	}
}

func TestRunReportsAndShrinksFindings(t *testing.T) {
	tool := &fixedTool{res: oracle.Result{ErrText: "boom"}}
	var out bytes.Buffer
	sink := &collectSink{}
	f, err := New(Config{
		Registry:      compileList(t),
		Root:          "Program",
		Runner:        testRunner(t, tool),
		Seed:          42,
		MaxIterations: 2,
		Out:           &out,
		Progress:      sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Iterations != 2 || stats.Findings != 2 {
		t.Fatalf("stats = %+v, want 2 iterations and 2 findings", stats)
	}
	report := out.String()
	if !strings.Contains(report, "finding ") || !strings.Contains(report, "message: boom") {
		t.Fatalf("report missing expected lines:\n%s", report)
	}
	for _, phase := range []Phase{PhaseGenerate, PhaseOracle, PhaseMinimize, PhaseReport} {
		if sink.phases[phase] == 0 {
			t.Fatalf("no %s events emitted", phase)
		}
	}
}

func TestRunShrinksAlwaysFailingInputToOneElement(t *testing.T) {
	tool := &fixedTool{res: oracle.Result{ErrText: "boom"}}
	var findings []*Finding
	sink := sinkFunc(func(evt Event) {
		if evt.Finding != nil {
			findings = append(findings, evt.Finding)
		}
	})
	f, err := New(Config{
		Registry:      compileList(t),
		Root:          "Program",
		Runner:        testRunner(t, tool),
		Seed:          7,
		MaxIterations: 1,
		Progress:      sink,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := f.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	// The failure survives any mask, so the shrink ends at the single
	// unconditional element.
	got := findings[0]
	if got.Source == "" || strings.Contains(got.Source, " ") {
		t.Fatalf("minimized source = %q, want one element", got.Source)
	}
	if got.Passes < 1 {
		t.Fatalf("passes = %d, want at least one shrink pass", got.Passes)
	}
}

func TestRunCleanToolYieldsNoFindings(t *testing.T) {
	tool := &fixedTool{res: oracle.Result{OK: true}}
	var counter bytes.Buffer
	f, err := New(Config{
		Registry:      compileList(t),
		Root:          "Program",
		Runner:        testRunner(t, tool),
		Seed:          1,
		MaxIterations: 5,
		ProgressEvery: 2,
		Counter:       &counter,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	stats, err := f.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Findings != 0 {
		t.Fatalf("findings = %d, want 0", stats.Findings)
	}
	if tool.calls != 5 {
		t.Fatalf("tool invocations = %d, want 5", tool.calls)
	}
	if !strings.Contains(counter.String(), "2 iterations, 0 findings") {
		t.Fatalf("counter output = %q", counter.String())
	}
}

func TestRunStopsCleanlyOnCancellation(t *testing.T) {
	tool := &fixedTool{res: oracle.Result{OK: true}}
	f, err := New(Config{
		Registry: compileList(t),
		Root:     "Program",
		Runner:   testRunner(t, tool),
		Seed:     1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Run(ctx); err != nil {
		t.Fatalf("Run after cancel: %v", err)
	}
	if tool.calls != 0 {
		t.Fatalf("tool invoked %d times after cancellation", tool.calls)
	}
}

type sinkFunc func(Event)

func (fn sinkFunc) OnEvent(evt Event) { fn(evt) }

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 1)
	ChannelSink{Ch: ch}.OnEvent(Event{Iteration: 3, Phase: PhaseOracle})
	evt := <-ch
	if evt.Iteration != 3 || evt.Phase != PhaseOracle {
		t.Fatalf("forwarded event = %+v", evt)
	}
	ChannelSink{}.OnEvent(Event{}) // nil channel must not panic
}
