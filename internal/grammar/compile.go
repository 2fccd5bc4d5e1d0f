package grammar

import (
	"fmt"

	"whittle/internal/decision"
	"whittle/internal/tree"
)

// Factory generates one value by consuming decisions from the run's source.
type Factory func(*Run) tree.Value

// Registry is the compiled grammar: an ordered mapping from type name to
// generator factory. Builtin primitives (boolean, number, string, regexp) are
// pre-registered and addressable from rules like any declared type.
type Registry struct {
	names     []string
	factories map[string]Factory
}

// Names returns the registered type names in declaration order, builtins
// first.
func (reg *Registry) Names() []string {
	return reg.names
}

// Lookup returns the factory registered under name.
func (reg *Registry) Lookup(name string) (Factory, bool) {
	f, ok := reg.factories[name]
	return f, ok
}

// Generate drives the root type's factory against the given decision source
// and returns the produced node. The root must name a node-producing type.
func (reg *Registry) Generate(root string, src decision.Source) (*tree.Node, error) {
	f, ok := reg.factories[root]
	if !ok {
		return nil, fmt.Errorf("grammar: unknown root type %q", root)
	}
	v := f(&Run{src: src})
	node, ok := v.(*tree.Node)
	if !ok {
		return nil, fmt.Errorf("grammar: root type %q does not produce a node", root)
	}
	return node, nil
}

var builtinNames = []string{"boolean", "number", "string", "regexp"}

// Compile translates a rule table into a Registry. Unresolvable type
// references, duplicate or builtin-shadowing names, and empty alias groups
// are configuration defects and fail compilation; nothing here depends on
// fuzz data.
func Compile(table *Table) (*Registry, error) {
	pool := table.Strings
	if len(pool) == 0 {
		pool = defaultStrings
	}
	reg := &Registry{factories: make(map[string]Factory, len(table.Types)+4)}
	reg.register("boolean", booleanFactory)
	reg.register("number", numberFactory)
	reg.register("string", stringFactory(pool))
	reg.register("regexp", regexpFactory(pool))

	declared := make(map[string]bool)
	if err := declareAll(table.Types, declared); err != nil {
		return nil, err
	}
	c := &compiler{reg: reg, declared: declared}
	if err := c.compileAll(table.Types); err != nil {
		return nil, err
	}
	return reg, nil
}

func (reg *Registry) register(name string, f Factory) {
	reg.names = append(reg.names, name)
	reg.factories[name] = f
}

func declareAll(defs []TypeDef, declared map[string]bool) error {
	for _, def := range defs {
		for _, builtin := range builtinNames {
			if def.Name == builtin {
				return fmt.Errorf("grammar: type %s shadows a builtin primitive", def.Name)
			}
		}
		if declared[def.Name] {
			return fmt.Errorf("grammar: type %s declared twice", def.Name)
		}
		declared[def.Name] = true
		if def.Nested != nil {
			if err := declareAll(def.Nested, declared); err != nil {
				return err
			}
		}
	}
	return nil
}

type compiler struct {
	reg      *Registry
	declared map[string]bool
}

func (c *compiler) compileAll(defs []TypeDef) error {
	for _, def := range defs {
		f, err := c.compileType(def)
		if err != nil {
			return err
		}
		c.reg.register(def.Name, f)
		if def.Nested != nil {
			if err := c.compileAll(def.Nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *compiler) compileType(def TypeDef) (Factory, error) {
	switch {
	case def.Fields != nil:
		return c.compileNode(def.Name, def.Fields)
	case def.Variants != nil:
		if len(def.Variants) == 0 {
			return nil, fmt.Errorf("grammar: alias %s has no variants", def.Name)
		}
		variants := make([]Factory, 0, len(def.Variants))
		for _, block := range def.Variants {
			f, err := c.compileNode(def.Name, block)
			if err != nil {
				return nil, err
			}
			variants = append(variants, f)
		}
		return choiceFactory(variants), nil
	case def.Nested != nil:
		if len(def.Nested) == 0 {
			return nil, fmt.Errorf("grammar: alias %s has no nested types", def.Name)
		}
		// One choice over the nested keys in declared order, then delegate.
		names := make([]string, 0, len(def.Nested))
		for _, nested := range def.Nested {
			names = append(names, nested.Name)
		}
		reg := c.reg
		return func(r *Run) tree.Value {
			return reg.factories[names[r.src.Choice(len(names))]](r)
		}, nil
	default:
		return nil, fmt.Errorf("grammar: type %s has no body", def.Name)
	}
}

// compileNode builds a factory producing {Type: name, Fields: ...}, invoking
// each field's rule in declared order.
func (c *compiler) compileNode(name string, fields []FieldDef) (Factory, error) {
	type slot struct {
		name string
		gen  Factory
	}
	slots := make([]slot, 0, len(fields))
	for _, field := range fields {
		gen, err := c.compileRule(field.Rule)
		if err != nil {
			return nil, fmt.Errorf("grammar: %s.%s: %w", name, field.Name, err)
		}
		slots = append(slots, slot{name: field.Name, gen: gen})
	}
	return func(r *Run) tree.Value {
		node := &tree.Node{Type: name, Fields: make([]tree.Field, 0, len(slots))}
		for _, s := range slots {
			node.Fields = append(node.Fields, tree.Field{Name: s.name, Value: s.gen(r)})
		}
		return node
	}, nil
}

func (c *compiler) compileRule(rule *Rule) (Factory, error) {
	switch rule.Kind {
	case RuleLiteral:
		return literalFactory(rule.Literal), nil
	case RuleChoice:
		opts := make([]Factory, 0, len(rule.Options))
		for _, opt := range rule.Options {
			f, err := c.compileRule(opt)
			if err != nil {
				return nil, err
			}
			opts = append(opts, f)
		}
		return choiceFactory(opts), nil
	case RuleArray:
		elem, err := c.compileRule(rule.Elem)
		if err != nil {
			return nil, err
		}
		var trailing Factory
		if rule.Trailing != nil {
			trailing, err = c.compileRule(rule.Trailing)
			if err != nil {
				return nil, err
			}
		}
		return arrayFactory(elem, rule.NonEmpty, trailing), nil
	case RuleRef:
		return c.compileRef(rule.Ref)
	default:
		return nil, fmt.Errorf("unknown rule kind %d", rule.Kind)
	}
}

// compileRef resolves by name. The lookup into the registry is deferred so
// self- and mutually-recursive types work, but presence is verified here:
// dangling references abort compilation.
func (c *compiler) compileRef(name string) (Factory, error) {
	if f, ok := c.reg.factories[name]; ok && !c.declared[name] {
		// Builtins are registered up front and never redefined.
		return f, nil
	}
	if !c.declared[name] {
		return nil, fmt.Errorf("unresolved type reference %q", name)
	}
	reg := c.reg
	return func(r *Run) tree.Value {
		return reg.factories[name](r)
	}, nil
}
