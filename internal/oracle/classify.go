package oracle

import (
	"fmt"
	"regexp"
	"strings"
)

// timeoutMessage is the fixed signature message for tool timeouts, so that a
// hang shrinks against a stable signature.
const timeoutMessage = "tool timed out"

// defaultPanicMarkers match crash output across the runtimes tools are
// commonly written in.
var defaultPanicMarkers = []string{
	`panic:`,
	`fatal error:`,
	`Segmentation fault`,
	`RangeError: Maximum call stack size exceeded`,
	`stack overflow`,
}

// Classifier sorts raw invocation results into outcome classes. Allow-list
// patterns mark expected, benign tool errors; panic markers flag crashes and
// always win over the allow-list.
type Classifier struct {
	allow   []*regexp.Regexp
	markers []*regexp.Regexp
}

// NewClassifier compiles the allow-list and panic-marker patterns. An empty
// marker list falls back to the default set.
func NewClassifier(allow, markers []string) (*Classifier, error) {
	if len(markers) == 0 {
		markers = defaultPanicMarkers
	}
	c := &Classifier{}
	for _, pat := range allow {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("oracle: allow pattern %q: %w", pat, err)
		}
		c.allow = append(c.allow, re)
	}
	for _, pat := range markers {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("oracle: panic marker %q: %w", pat, err)
		}
		c.markers = append(c.markers, re)
	}
	return c, nil
}

// Classify ranks a raw result. Priority: timeout and crash markers beat
// everything, then success, then the allow-list split between uninteresting
// and interesting failures.
func (c *Classifier) Classify(res Result) Outcome {
	combined := res.Output
	if res.ErrText != "" {
		combined += "\n" + res.ErrText
	}
	if res.TimedOut {
		return Outcome{Class: ClassPanic, Message: timeoutMessage, Output: combined}
	}
	for _, marker := range c.markers {
		if marker.MatchString(combined) {
			return Outcome{Class: ClassPanic, Message: message(res), Output: combined}
		}
	}
	if res.OK {
		return Outcome{Class: ClassSuccess, Output: combined}
	}
	msg := message(res)
	for _, re := range c.allow {
		if re.MatchString(msg) {
			return Outcome{Class: ClassUninteresting, Message: msg, Output: combined}
		}
	}
	return Outcome{Class: ClassInteresting, Message: msg, Output: combined}
}

func message(res Result) string {
	msg := strings.TrimSpace(res.ErrText)
	if msg == "" {
		msg = strings.TrimSpace(res.Output)
	}
	return msg
}
