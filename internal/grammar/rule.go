package grammar

import (
	"strings"

	"whittle/internal/tree"
)

// RuleKind discriminates the rule variants.
type RuleKind uint8

const (
	// RuleLiteral yields a fixed value and consumes no decision.
	RuleLiteral RuleKind = iota
	// RuleChoice picks one of an ordered option list.
	RuleChoice
	// RuleArray grows a slice of element values.
	RuleArray
	// RuleRef refers to a builtin primitive or a declared type by name.
	RuleRef
)

// Rule is one tagged node of the declarative rule tree.
type Rule struct {
	Kind RuleKind

	Literal tree.Value // RuleLiteral

	Options []*Rule // RuleChoice, in declared order

	Elem     *Rule // RuleArray
	NonEmpty bool  // RuleArray
	Trailing *Rule // RuleArray, optional

	Ref string // RuleRef
}

// FieldDef is one named field of a concrete node rule.
type FieldDef struct {
	Name string
	Rule *Rule
}

// TypeDef is one entry of the grammar table. Exactly one of Fields, Variants
// or Nested is populated: Fields for a concrete node rule, Variants for an
// alias group over field-block variants of one type name, Nested for an alias
// group over nested type definitions.
type TypeDef struct {
	Name     string
	Alias    bool
	Fields   []FieldDef
	Variants [][]FieldDef
	Nested   []TypeDef
	Print    string // printer template, optional
}

// Table is an ordered grammar: type definitions plus the placeholder pool the
// string primitive draws from.
type Table struct {
	Types   []TypeDef
	Strings []string
}

// AliasMarker suffixes grammar names that declare alias groups rather than
// concrete node types.
const AliasMarker = "$"

// TrimAliasMarker strips the alias marker from a declared name.
func TrimAliasMarker(name string) string {
	return strings.TrimSuffix(name, AliasMarker)
}
