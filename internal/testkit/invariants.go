package testkit

import (
	"fmt"

	"whittle/internal/decision"
)

// CheckLogInvariants runs a minimal set of structural invariants on a
// decision log:
// 1) every event is a well-formed choice or group
// 2) every group carries a child segment and a defined skip state
// 3) choice values are non-negative
func CheckLogInvariants(log *decision.Log) error {
	if log == nil {
		return fmt.Errorf("nil log")
	}
	return checkSegment(log, "root")
}

func checkSegment(log *decision.Log, path string) error {
	for i := range log.Events {
		ev := &log.Events[i]
		where := fmt.Sprintf("%s[%d]", path, i)
		switch ev.Kind {
		case decision.EventChoice:
			if ev.Value < 0 {
				return fmt.Errorf("%s: negative choice value %d", where, ev.Value)
			}
			if ev.Group != nil {
				return fmt.Errorf("%s: choice event carries a group", where)
			}
		case decision.EventGroup:
			if ev.Group == nil {
				return fmt.Errorf("%s: group event without child segment", where)
			}
			if ev.Skip > decision.SkipNo {
				return fmt.Errorf("%s: undefined skip state %d", where, ev.Skip)
			}
			if err := checkSegment(ev.Group, where); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%s: unknown event kind %d", where, ev.Kind)
		}
	}
	return nil
}

// CountUnmaskedChoices walks the log the way a passive replay would, counting
// the choice events a regeneration will consume. Masked groups contribute
// nothing.
func CountUnmaskedChoices(log *decision.Log) int {
	total := 0
	for i := range log.Events {
		ev := &log.Events[i]
		switch ev.Kind {
		case decision.EventChoice:
			total++
		case decision.EventGroup:
			if ev.Skip != decision.SkipYes {
				total += CountUnmaskedChoices(ev.Group)
			}
		}
	}
	return total
}
