package decision

import "fmt"

// Skip is the tri-state resolution of a group during minimization.
type Skip uint8

const (
	// SkipUndecided means the group has not yet been probed.
	SkipUndecided Skip = iota
	// SkipYes means the group is permanently masked: replay omits its content.
	SkipYes
	// SkipNo means the group is permanently kept.
	SkipNo
)

func (s Skip) String() string {
	switch s {
	case SkipUndecided:
		return "undecided"
	case SkipYes:
		return "yes"
	case SkipNo:
		return "no"
	}
	return "unknown"
}

// EventKind discriminates log events.
type EventKind uint8

const (
	// EventChoice is a single sampled integer decision.
	EventChoice EventKind = iota
	// EventGroup is a nested decision segment that can be masked on replay.
	EventGroup
)

// Event is one entry of a Log: either a recorded choice value or a group
// wrapping a child segment.
type Event struct {
	Kind  EventKind
	Value int  // EventChoice only
	Group *Log // EventGroup only
	Skip  Skip // EventGroup only
}

// Log is an ordered record of the decisions taken during one generation run.
type Log struct {
	Events []Event
}

// Groups counts the group events in the log, including nested ones.
func (l *Log) Groups() int {
	total := 0
	for i := range l.Events {
		ev := &l.Events[i]
		if ev.Kind == EventGroup {
			total += 1 + ev.Group.Groups()
		}
	}
	return total
}

// Unresolved counts group events whose skip flag is still undecided. Masked
// groups do not contribute their children: replay never descends into them.
func (l *Log) Unresolved() int {
	total := 0
	for i := range l.Events {
		ev := &l.Events[i]
		if ev.Kind != EventGroup {
			continue
		}
		if ev.Skip == SkipUndecided {
			total++
		}
		if ev.Skip != SkipYes {
			total += ev.Group.Unresolved()
		}
	}
	return total
}

// ContractError reports a divergence between the recorded log and the grammar
// walk replaying it. Given an identical decision sequence the walk order must
// be deterministic, so a divergence is a harness defect, not fuzz data; it is
// raised as a panic and recovered only by the minimizer.
type ContractError struct {
	Want string
	Got  string
}

func (e ContractError) Error() string {
	return fmt.Sprintf("decision: replay out of sync: want %s, got %s", e.Want, e.Got)
}
