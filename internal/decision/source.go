package decision

// Source supplies the random decisions consumed by compiled grammar
// factories. The Recorder and the Replayer implement the same call surface so
// generation code never knows whether it is sampling or replaying.
type Source interface {
	// Choice returns a value in [0, n).
	Choice(n int) int
	// Push opens a decision group. When it returns false the caller must
	// omit the content that group would have produced.
	Push() bool
	// Pop closes the group opened by the matching Push that returned true.
	Pop()
}
