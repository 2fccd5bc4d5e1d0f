// Package decision provides the random-decision source that drives tree
// generation, in two interchangeable flavors: a Recorder that samples fresh
// decisions while writing them to a Log, and a Replayer that feeds a
// previously recorded Log back into the same grammar walk.
//
// A Log is an ordered sequence of events. Choice events carry a sampled
// integer; Group events carry a nested child Log together with a tri-state
// skip flag. Masking a group during replay prunes the generated content that
// the group produced, without disturbing sibling structure — this is the
// mechanism the minimizer uses to shrink failing inputs.
package decision
