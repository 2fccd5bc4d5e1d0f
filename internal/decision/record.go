package decision

import "math/rand"

// Recorder samples fresh uniform decisions and appends every one of them to a
// Log. Push always succeeds and opens a new child segment; the resulting Log
// can later be fed to a Replayer to regenerate the identical tree.
type Recorder struct {
	rng   *rand.Rand
	root  *Log
	stack []*Log
}

// NewRecorder creates a Recorder seeded with the given value.
func NewRecorder(seed int64) *Recorder {
	root := &Log{}
	return &Recorder{
		rng:   rand.New(rand.NewSource(seed)),
		root:  root,
		stack: []*Log{root},
	}
}

// Log returns the decision log recorded so far.
func (r *Recorder) Log() *Log {
	return r.root
}

// Choice samples uniformly in [0, n), records the value and returns it.
func (r *Recorder) Choice(n int) int {
	v := r.rng.Intn(n)
	seg := r.stack[len(r.stack)-1]
	seg.Events = append(seg.Events, Event{Kind: EventChoice, Value: v})
	return v
}

// Push opens a new child segment and descends into it. Recording never denies
// a group.
func (r *Recorder) Push() bool {
	child := &Log{}
	seg := r.stack[len(r.stack)-1]
	seg.Events = append(seg.Events, Event{Kind: EventGroup, Group: child})
	r.stack = append(r.stack, child)
	return true
}

// Pop returns to the parent segment.
func (r *Recorder) Pop() {
	if len(r.stack) > 1 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}
