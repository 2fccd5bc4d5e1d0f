package tree

import (
	"fmt"
	"strings"
)

// Dump renders a structural view of a value, one field per line with
// two-space indentation. The output is deterministic and intended for
// failure reports and grammar debugging, not for reparsing.
func Dump(v Value) string {
	var b strings.Builder
	dumpValue(&b, v, 0)
	return b.String()
}

func dumpValue(b *strings.Builder, v Value, indent int) {
	switch val := v.(type) {
	case *Node:
		b.WriteString(val.Type)
		b.WriteByte('\n')
		for _, f := range val.Fields {
			writeIndent(b, indent+1)
			b.WriteString(f.Name)
			b.WriteString(": ")
			dumpValue(b, f.Value, indent+1)
		}
	case []Value:
		if len(val) == 0 {
			b.WriteString("[]\n")
			return
		}
		b.WriteByte('\n')
		for _, el := range val {
			writeIndent(b, indent+1)
			b.WriteString("- ")
			dumpValue(b, el, indent+1)
		}
	case Regexp:
		fmt.Fprintf(b, "/%s/\n", val.Pattern)
	case string:
		fmt.Fprintf(b, "%q\n", val)
	case nil:
		b.WriteString("<nil>\n")
	default:
		fmt.Fprintf(b, "%v\n", val)
	}
}

func writeIndent(b *strings.Builder, level int) {
	for i := 0; i < level; i++ {
		b.WriteString("  ")
	}
}
