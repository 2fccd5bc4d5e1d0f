package driver

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"whittle/internal/oracle"
	"whittle/internal/tree"
)

var (
	panicHeader  = color.New(color.FgRed, color.Bold)
	errorHeader  = color.New(color.FgYellow, color.Bold)
	sectionStyle = color.New(color.FgCyan)
	messageStyle = color.New(color.Bold)
)

// writeReport prints one finding: the failure signature, the minimized
// source text and its structural dump.
func writeReport(w io.Writer, colored bool, f *Finding) {
	header := errorHeader
	if f.Class == oracle.ClassPanic {
		header = panicHeader
	}
	sprint := func(c *color.Color, format string, args ...any) string {
		if colored {
			return c.Sprintf(format, args...)
		}
		return fmt.Sprintf(format, args...)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, sprint(header, "finding %s (%s, iteration %d)", f.ID, f.Class, f.Iteration))
	fmt.Fprintf(w, "  shrunk in %d passes, %d groups masked\n", f.Passes, f.Masked)
	fmt.Fprintln(w, sprint(messageStyle, "  message: %s", f.Message))
	fmt.Fprintln(w, sprint(sectionStyle, "  source:"))
	writeIndented(w, f.Source)
	fmt.Fprintln(w, sprint(sectionStyle, "  tree:"))
	writeIndented(w, tree.Dump(f.Node))
}

func writeIndented(w io.Writer, text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}
