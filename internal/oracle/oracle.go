// Package oracle runs a generated tree against the external transformation
// tool under test and classifies the result. The classification — not a Go
// error — is the fuzzing signal: tool failures flow through Outcome values,
// while Go errors are reserved for harness defects such as an unprintable
// tree.
package oracle

import (
	"context"
	"fmt"

	"whittle/internal/tree"
)

// Class ranks an invocation outcome.
type Class uint8

const (
	// ClassSuccess means the tool reported no error.
	ClassSuccess Class = iota
	// ClassUninteresting is an error matching the configured allow-list.
	ClassUninteresting
	// ClassInteresting is an error matching no allow-list entry.
	ClassInteresting
	// ClassPanic is a crash marker or a timeout; always interesting and
	// ranked above every other classification.
	ClassPanic
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassUninteresting:
		return "uninteresting"
	case ClassInteresting:
		return "interesting"
	case ClassPanic:
		return "panic"
	}
	return "unknown"
}

// Signature identifies one manifestation of a bug. Two invocations count as
// "the same bug" only when both the class and the exact message text match.
type Signature struct {
	Class   Class
	Message string
}

// Outcome is the classified result of one tool invocation.
type Outcome struct {
	Class   Class
	Message string
	Output  string
}

// Signature projects the outcome to its failure signature.
func (o Outcome) Signature() Signature {
	return Signature{Class: o.Class, Message: o.Message}
}

// Interesting reports whether the outcome should be forwarded to the
// minimizer.
func (o Outcome) Interesting() bool {
	return o.Class == ClassPanic || o.Class == ClassInteresting
}

// Printer serializes a tree to source text. Implementations must be
// deterministic.
type Printer interface {
	Print(n *tree.Node) (string, error)
}

// Invoker runs the tool under test over one source text.
type Invoker interface {
	Invoke(ctx context.Context, source string) Result
}

// Result is the raw, unclassified outcome of a tool invocation.
type Result struct {
	OK       bool
	Output   string
	ErrText  string
	TimedOut bool
}

// Runner wires printer, invoker and classifier into the single run step used
// by the driver and the minimizer. It keeps no state between calls.
type Runner struct {
	Printer    Printer
	Invoker    Invoker
	Classifier *Classifier
}

// Run serializes the tree, invokes the tool and classifies the outcome. The
// returned source text is what the tool actually saw.
func (r *Runner) Run(ctx context.Context, n *tree.Node) (Outcome, string, error) {
	source, err := r.Printer.Print(n)
	if err != nil {
		return Outcome{}, "", fmt.Errorf("oracle: %w", err)
	}
	res := r.Invoker.Invoke(ctx, source)
	return r.Classifier.Classify(res), source, nil
}
