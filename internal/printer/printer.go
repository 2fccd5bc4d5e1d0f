// Package printer renders generated trees to source text. Rendering is
// template-driven: every node type carries a print template in the grammar
// file, so one printer implementation serves any grammar. Output is fully
// deterministic — no decision source is involved.
package printer

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"whittle/internal/grammar"
	"whittle/internal/tree"
)

// Printer holds the compiled print templates of one grammar.
type Printer struct {
	templates map[string]*template.Template
}

var funcs = template.FuncMap{
	"join": func(vals []string, sep string) string {
		return strings.Join(vals, sep)
	},
	"quote": strconv.Quote,
}

// New compiles the print templates declared in the grammar table. A type
// without a template is legal as long as no generated tree ever contains it;
// rendering such a node fails.
func New(table *grammar.Table) (*Printer, error) {
	p := &Printer{templates: make(map[string]*template.Template)}
	if err := p.compileAll(table.Types); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Printer) compileAll(defs []grammar.TypeDef) error {
	for _, def := range defs {
		if def.Print != "" {
			tmpl, err := template.New(def.Name).Funcs(funcs).Parse(def.Print)
			if err != nil {
				return fmt.Errorf("printer: template for %s: %w", def.Name, err)
			}
			p.templates[def.Name] = tmpl
		}
		if def.Nested != nil {
			if err := p.compileAll(def.Nested); err != nil {
				return err
			}
		}
	}
	return nil
}

// Print renders a node to source text.
func (p *Printer) Print(n *tree.Node) (string, error) {
	return p.renderNode(n)
}

func (p *Printer) renderNode(n *tree.Node) (string, error) {
	tmpl, ok := p.templates[n.Type]
	if !ok {
		return "", fmt.Errorf("printer: no print template for type %s", n.Type)
	}
	data := make(map[string]any, len(n.Fields))
	for _, f := range n.Fields {
		rendered, err := p.renderValue(f.Value)
		if err != nil {
			return "", err
		}
		data[f.Name] = rendered
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("printer: render %s: %w", n.Type, err)
	}
	return b.String(), nil
}

// renderValue produces a string per scalar value and a []string per array, so
// templates can interpolate fields directly and join arrays explicitly.
func (p *Printer) renderValue(v tree.Value) (any, error) {
	switch val := v.(type) {
	case *tree.Node:
		return p.renderNode(val)
	case []tree.Value:
		out := make([]string, 0, len(val))
		for _, el := range val {
			rendered, err := p.renderValue(el)
			if err != nil {
				return nil, err
			}
			s, ok := rendered.(string)
			if !ok {
				return nil, fmt.Errorf("printer: nested array values are not printable")
			}
			out = append(out, s)
		}
		return out, nil
	case tree.Regexp:
		return "/" + val.Pattern + "/", nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case string:
		return val, nil
	case nil:
		return "", nil
	default:
		return fmt.Sprintf("%v", val), nil
	}
}
