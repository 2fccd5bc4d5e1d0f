package decision

// Replayer walks a previously recorded Log and serves its decisions back to
// the grammar in order. Masked groups (skip resolved yes) are invisible to
// the caller: Push hops over them and descends into the next kept group, so
// pruning one group never disturbs the structure of its siblings.
//
// A probing Replayer additionally selects at most one still-undecided group
// per pass as the shrink candidate and masks it tentatively. The minimizer
// then either Accepts the candidate (the mask becomes permanent) or Rejects
// it (the group is permanently kept).
type Replayer struct {
	stack     []frame
	probe     bool
	candidate *Event
}

type frame struct {
	log *Log
	pos int
}

// NewReplayer creates a passive Replayer: undecided groups are replayed as
// kept and no candidate is ever selected. Replaying an unmasked log this way
// regenerates the original tree exactly.
func NewReplayer(log *Log) *Replayer {
	return &Replayer{stack: []frame{{log: log}}}
}

// NewProbe creates a probing Replayer for one minimization pass.
func NewProbe(log *Log) *Replayer {
	return &Replayer{stack: []frame{{log: log}}, probe: true}
}

// Choice consumes the next recorded choice event and returns its value. A
// different next event means the grammar walk diverged from the recording;
// that is a harness defect and panics with ContractError.
func (r *Replayer) Choice(n int) int {
	f := &r.stack[len(r.stack)-1]
	if f.pos >= len(f.log.Events) {
		panic(ContractError{Want: "choice", Got: "end of segment"})
	}
	ev := &f.log.Events[f.pos]
	if ev.Kind != EventChoice {
		panic(ContractError{Want: "choice", Got: "group"})
	}
	f.pos++
	return ev.Value
}

// Push resolves the next group at the cursor. Masked groups are hopped over
// without descending; the first kept group is entered and Push returns true.
// When no group remains at the cursor Push returns false and consumes
// nothing.
func (r *Replayer) Push() bool {
	for {
		f := &r.stack[len(r.stack)-1]
		if f.pos >= len(f.log.Events) {
			return false
		}
		ev := &f.log.Events[f.pos]
		if ev.Kind != EventGroup {
			return false
		}
		switch {
		case ev.Skip == SkipYes:
			f.pos++
		case ev.Skip == SkipUndecided && r.probe && r.candidate == nil:
			// This pass tests life without this group.
			r.candidate = ev
			f.pos++
		default:
			r.stack = append(r.stack, frame{log: ev.Group})
			return true
		}
	}
}

// Pop leaves the current group and moves the parent cursor past it.
func (r *Replayer) Pop() {
	if len(r.stack) == 1 {
		return
	}
	r.stack = r.stack[:len(r.stack)-1]
	r.stack[len(r.stack)-1].pos++
}

// DidChange reports whether this pass selected a shrink candidate. False
// means every group in the log is already resolved.
func (r *Replayer) DidChange() bool {
	return r.candidate != nil
}

// Accept makes the candidate's tentative mask permanent.
func (r *Replayer) Accept() {
	if r.candidate != nil {
		r.candidate.Skip = SkipYes
		r.candidate = nil
	}
}

// Reject permanently keeps the candidate's content.
func (r *Replayer) Reject() {
	if r.candidate != nil {
		r.candidate.Skip = SkipNo
		r.candidate = nil
	}
}
