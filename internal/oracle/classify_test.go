package oracle

import (
	"context"
	"testing"

	"whittle/internal/tree"
)

func mustClassifier(t *testing.T, allow, markers []string) *Classifier {
	t.Helper()
	c, err := NewClassifier(allow, markers)
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifySuccess(t *testing.T) {
	c := mustClassifier(t, nil, nil)
	out := c.Classify(Result{OK: true, Output: "ok"})
	if out.Class != ClassSuccess {
		t.Fatalf("class = %s, want success", out.Class)
	}
	if out.Interesting() {
		t.Fatal("success reported interesting")
	}
}

func TestClassifyAllowListSplitsFailures(t *testing.T) {
	c := mustClassifier(t, []string{`already declared`, `unknown name`}, nil)

	out := c.Classify(Result{ErrText: "error: variable x already declared"})
	if out.Class != ClassUninteresting {
		t.Fatalf("allow-listed failure class = %s, want uninteresting", out.Class)
	}

	out = c.Classify(Result{ErrText: "error: cannot drop twice"})
	if out.Class != ClassInteresting {
		t.Fatalf("unlisted failure class = %s, want interesting", out.Class)
	}
	if !out.Interesting() {
		t.Fatal("interesting failure not forwarded to the minimizer")
	}
}

func TestClassifyPanicMarkerBeatsAllowList(t *testing.T) {
	c := mustClassifier(t, []string{`already declared`}, nil)
	out := c.Classify(Result{ErrText: "panic: x already declared"})
	if out.Class != ClassPanic {
		t.Fatalf("class = %s, want panic", out.Class)
	}
}

func TestClassifyMarkerMatchesStdout(t *testing.T) {
	c := mustClassifier(t, nil, nil)
	out := c.Classify(Result{OK: true, Output: "Segmentation fault (core dumped)"})
	if out.Class != ClassPanic {
		t.Fatalf("class = %s, want panic even when exit status is zero", out.Class)
	}
}

func TestClassifyTimeoutHasFixedSignature(t *testing.T) {
	c := mustClassifier(t, nil, nil)
	a := c.Classify(Result{TimedOut: true, Output: "partial output one"})
	b := c.Classify(Result{TimedOut: true, ErrText: "partial output two"})
	if a.Class != ClassPanic || b.Class != ClassPanic {
		t.Fatalf("timeout classes = %s/%s, want panic", a.Class, b.Class)
	}
	if a.Signature() != b.Signature() {
		t.Fatalf("timeout signatures differ: %v vs %v", a.Signature(), b.Signature())
	}
	if a.Message != timeoutMessage {
		t.Fatalf("timeout message = %q", a.Message)
	}
}

func TestClassifyMessagePrefersStderr(t *testing.T) {
	c := mustClassifier(t, nil, nil)
	out := c.Classify(Result{Output: "stdout text", ErrText: "  stderr text\n"})
	if out.Message != "stderr text" {
		t.Fatalf("message = %q, want trimmed stderr", out.Message)
	}
	out = c.Classify(Result{Output: "stdout only"})
	if out.Message != "stdout only" {
		t.Fatalf("message = %q, want stdout fallback", out.Message)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := mustClassifier(t, []string{`declared`}, nil)
	res := Result{ErrText: "error: y declared"}
	first := c.Classify(res)
	for i := 0; i < 5; i++ {
		if got := c.Classify(res); got.Signature() != first.Signature() {
			t.Fatalf("signature drifted: %v vs %v", got.Signature(), first.Signature())
		}
	}
}

func TestNewClassifierRejectsBadPattern(t *testing.T) {
	if _, err := NewClassifier([]string{`foo`}, []string{`(`}); err == nil {
		t.Fatal("expected an error for an invalid marker pattern")
	}
	if _, err := NewClassifier([]string{`(`}, nil); err == nil {
		t.Fatal("expected an error for an invalid allow pattern")
	}
}

type stubPrinter struct{ out string }

func (s stubPrinter) Print(*tree.Node) (string, error) { return s.out, nil }

type stubInvoker struct {
	res  Result
	seen string
}

func (s *stubInvoker) Invoke(_ context.Context, source string) Result {
	s.seen = source
	return s.res
}

func TestRunnerPipesSourceThrough(t *testing.T) {
	inv := &stubInvoker{res: Result{ErrText: "boom"}}
	r := &Runner{
		Printer:    stubPrinter{out: "let x = 1;"},
		Invoker:    inv,
		Classifier: mustClassifier(t, nil, nil),
	}
	out, source, err := r.Run(context.Background(), &tree.Node{Type: "Program"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if source != "let x = 1;" || inv.seen != source {
		t.Fatalf("source = %q, invoker saw %q", source, inv.seen)
	}
	if out.Class != ClassInteresting {
		t.Fatalf("class = %s, want interesting", out.Class)
	}
}
