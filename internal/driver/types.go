// Package driver owns the outer fuzzing loop: generate a fresh tree, run the
// oracle, minimize interesting failures, report and persist them, repeat.
package driver

import (
	"github.com/google/uuid"

	"whittle/internal/oracle"
	"whittle/internal/tree"
)

// Phase labels the step an iteration is currently in.
type Phase string

const (
	// PhaseGenerate is tree generation from a fresh recording.
	PhaseGenerate Phase = "generate"
	// PhaseOracle is the tool invocation and classification.
	PhaseOracle Phase = "oracle"
	// PhaseMinimize is the shrink loop over an interesting failure.
	PhaseMinimize Phase = "minimize"
	// PhaseReport is finding output and persistence.
	PhaseReport Phase = "report"
)

// Event reports fuzzing progress for one iteration.
type Event struct {
	Iteration int
	Phase     Phase
	Class     oracle.Class
	Findings  int
	Finding   *Finding
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// Finding is one minimized interesting failure.
type Finding struct {
	ID        uuid.UUID
	Class     oracle.Class
	Message   string
	Source    string
	Node      *tree.Node
	Iteration int
	Passes    int
	Masked    int
}

// Stats summarizes a fuzzing run.
type Stats struct {
	Iterations int
	Findings   int
}
