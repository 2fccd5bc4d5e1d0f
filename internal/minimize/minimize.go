// Package minimize shrinks a failing input by masking decision groups. The
// reduction is greedy and single-pass per group: every pass probes exactly
// one still-undecided group, keeps the mask when the failure signature
// survives, and otherwise restores the group permanently. The number of
// undecided groups strictly decreases each pass, so the loop always
// terminates; the result is a local minimum, not a global one.
package minimize

import (
	"context"
	"fmt"

	"whittle/internal/decision"
	"whittle/internal/grammar"
	"whittle/internal/oracle"
	"whittle/internal/tree"
)

// Oracle reruns the tool over a regenerated tree.
type Oracle func(ctx context.Context, n *tree.Node) (oracle.Outcome, error)

// Result is the shrunk tree together with pass statistics.
type Result struct {
	Node   *tree.Node
	Passes int
	Masked int
	Kept   int
}

// Run shrinks the log in place until no undecided group remains, then
// regenerates the minimized tree with a passive replay. Shrink attempts never
// escalate: a rejected probe restores its group and the loop moves on.
func Run(ctx context.Context, reg *grammar.Registry, root string, log *decision.Log, want oracle.Signature, run Oracle) (Result, error) {
	res := Result{}
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		probe := decision.NewProbe(log)
		node, genErr := regenerate(reg, root, probe)
		if !probe.DidChange() {
			if genErr != nil {
				return res, fmt.Errorf("minimize: final replay: %w", genErr)
			}
			res.Node = node
			return res, nil
		}
		res.Passes++
		if genErr != nil {
			// Masking this group desynchronized the replay; it stays.
			probe.Reject()
			res.Kept++
			continue
		}
		out, err := run(ctx, node)
		if err != nil {
			probe.Reject()
			res.Kept++
			continue
		}
		if out.Signature() == want {
			probe.Accept()
			res.Masked++
		} else {
			probe.Reject()
			res.Kept++
		}
	}
}

// regenerate replays the log through the grammar, converting replay contract
// panics into errors so a bad probe cannot take down the whole run.
func regenerate(reg *grammar.Registry, root string, src decision.Source) (node *tree.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(decision.ContractError)
			if !ok {
				panic(r)
			}
			node, err = nil, ce
		}
	}()
	return reg.Generate(root, src)
}
