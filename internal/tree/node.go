package tree

// Value is one dynamically shaped element of a generated tree. The concrete
// type is one of *Node, bool, int, string, Regexp or []Value; the schema
// varies per grammar, so no fixed structure is imposed here.
type Value = any

// Regexp wraps a generated placeholder pattern so printers can render it
// distinctly from a plain string.
type Regexp struct {
	Pattern string
}

// Field is a single named slot of a Node. Field order is significant and
// matches the declaration order in the grammar.
type Field struct {
	Name  string
	Value Value
}

// Node is a tagged tree node: a type name plus an ordered field list.
type Node struct {
	Type   string
	Fields []Field
}

// Field returns the value stored under name, if present.
func (n *Node) Field(name string) (Value, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Set appends or replaces the field with the given name.
func (n *Node) Set(name string, v Value) {
	for i := range n.Fields {
		if n.Fields[i].Name == name {
			n.Fields[i].Value = v
			return
		}
	}
	n.Fields = append(n.Fields, Field{Name: name, Value: v})
}
