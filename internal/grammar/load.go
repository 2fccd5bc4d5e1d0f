package grammar

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a grammar table from a YAML file. Decoding goes through
// yaml.Node rather than plain maps so that mapping order — which fixes the
// numbering of every choice decision — survives the round trip.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("grammar: %w", err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("grammar: %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes a grammar table from YAML source.
func Parse(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("expected a single YAML document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping")
	}

	table := &Table{}
	for i := 0; i < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "strings":
			if err := val.Decode(&table.Strings); err != nil {
				return nil, fmt.Errorf("strings: %w", err)
			}
		case "types":
			defs, err := parseTypes(val)
			if err != nil {
				return nil, err
			}
			table.Types = defs
		default:
			return nil, fmt.Errorf("line %d: unknown top-level key %q", key.Line, key.Value)
		}
	}
	if len(table.Types) == 0 {
		return nil, fmt.Errorf("grammar declares no types")
	}
	return table, nil
}

func parseTypes(node *yaml.Node) ([]TypeDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: types must be a mapping", node.Line)
	}
	defs := make([]TypeDef, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		def, err := parseTypeDef(key.Value, val)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func parseTypeDef(name string, node *yaml.Node) (TypeDef, error) {
	def := TypeDef{
		Name:  TrimAliasMarker(name),
		Alias: strings.HasSuffix(name, AliasMarker),
	}
	if node.Kind != yaml.MappingNode {
		return def, fmt.Errorf("line %d: type %s must be a mapping", node.Line, name)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "fields":
			fields, err := parseFields(val)
			if err != nil {
				return def, fmt.Errorf("type %s: %w", name, err)
			}
			def.Fields = fields
		case "variants":
			if val.Kind != yaml.SequenceNode {
				return def, fmt.Errorf("line %d: type %s: variants must be a sequence", val.Line, name)
			}
			for _, item := range val.Content {
				block, err := parseVariant(item)
				if err != nil {
					return def, fmt.Errorf("type %s: %w", name, err)
				}
				def.Variants = append(def.Variants, block)
			}
		case "types":
			nested, err := parseTypes(val)
			if err != nil {
				return def, fmt.Errorf("type %s: %w", name, err)
			}
			def.Nested = nested
		case "print":
			def.Print = val.Value
		default:
			return def, fmt.Errorf("line %d: type %s: unknown key %q", key.Line, name, key.Value)
		}
	}
	if err := checkTypeShape(name, def); err != nil {
		return def, err
	}
	return def, nil
}

// checkTypeShape enforces that alias markers and body forms agree: aliases
// carry variants or nested types, concrete types carry fields.
func checkTypeShape(declared string, def TypeDef) error {
	forms := 0
	if def.Fields != nil {
		forms++
	}
	if def.Variants != nil {
		forms++
	}
	if def.Nested != nil {
		forms++
	}
	if forms != 1 {
		return fmt.Errorf("type %s: exactly one of fields, variants or types is required", declared)
	}
	if def.Alias && def.Fields != nil {
		return fmt.Errorf("type %s: alias groups take variants or nested types, not fields", declared)
	}
	if !def.Alias && def.Fields == nil {
		return fmt.Errorf("type %s: variants and nested types require the %s alias marker", declared, AliasMarker)
	}
	return nil
}

func parseVariant(node *yaml.Node) ([]FieldDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: variant must be a mapping", node.Line)
	}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value != "fields" {
			return nil, fmt.Errorf("line %d: variant: unknown key %q", key.Line, key.Value)
		}
		return parseFields(val)
	}
	return nil, fmt.Errorf("line %d: variant has no fields", node.Line)
}

func parseFields(node *yaml.Node) ([]FieldDef, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	fields := make([]FieldDef, 0, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		rule, err := parseRule(val)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key.Value, err)
		}
		fields = append(fields, FieldDef{Name: key.Value, Rule: rule})
	}
	return fields, nil
}

func parseRule(node *yaml.Node) (*Rule, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value == "" {
			return nil, fmt.Errorf("line %d: empty rule reference", node.Line)
		}
		return &Rule{Kind: RuleRef, Ref: node.Value}, nil
	case yaml.MappingNode:
		return parseRuleMapping(node)
	default:
		return nil, fmt.Errorf("line %d: a rule is a name or a mapping", node.Line)
	}
}

func parseRuleMapping(node *yaml.Node) (*Rule, error) {
	if len(node.Content) != 2 {
		return nil, fmt.Errorf("line %d: a rule mapping has exactly one key", node.Line)
	}
	key, val := node.Content[0], node.Content[1]
	switch key.Value {
	case "literal":
		var lit any
		if err := val.Decode(&lit); err != nil {
			return nil, fmt.Errorf("line %d: literal: %w", val.Line, err)
		}
		return &Rule{Kind: RuleLiteral, Literal: lit}, nil
	case "choice":
		if val.Kind != yaml.SequenceNode || len(val.Content) == 0 {
			return nil, fmt.Errorf("line %d: choice takes a non-empty sequence", val.Line)
		}
		opts := make([]*Rule, 0, len(val.Content))
		for _, item := range val.Content {
			opt, err := parseRule(item)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		}
		return &Rule{Kind: RuleChoice, Options: opts}, nil
	case "array":
		return parseArrayRule(val)
	case "ref":
		return &Rule{Kind: RuleRef, Ref: val.Value}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown rule kind %q", key.Line, key.Value)
	}
}

func parseArrayRule(node *yaml.Node) (*Rule, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: array takes a mapping", node.Line)
	}
	rule := &Rule{Kind: RuleArray}
	for i := 0; i < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "of":
			elem, err := parseRule(val)
			if err != nil {
				return nil, err
			}
			rule.Elem = elem
		case "nonempty":
			if err := val.Decode(&rule.NonEmpty); err != nil {
				return nil, fmt.Errorf("line %d: nonempty: %w", val.Line, err)
			}
		case "trailing":
			trailing, err := parseRule(val)
			if err != nil {
				return nil, err
			}
			rule.Trailing = trailing
		default:
			return nil, fmt.Errorf("line %d: array: unknown key %q", key.Line, key.Value)
		}
	}
	if rule.Elem == nil {
		return nil, fmt.Errorf("line %d: array requires of", node.Line)
	}
	return rule, nil
}
