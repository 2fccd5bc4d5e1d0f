package grammar

import (
	"reflect"
	"testing"

	"whittle/internal/decision"
	"whittle/internal/testkit"
)

// scriptSource replays a fixed list of choice values; pushes are always
// granted. It keeps generation tests independent of PRNG internals.
type scriptSource struct {
	values []int
	pos    int
}

func (s *scriptSource) Choice(n int) int {
	if s.pos >= len(s.values) {
		return 0
	}
	v := s.values[s.pos] % n
	s.pos++
	return v
}

func (s *scriptSource) Push() bool { return true }
func (s *scriptSource) Pop()       {}

func compileTable(t *testing.T, defs []TypeDef) *Registry {
	t.Helper()
	reg, err := Compile(&Table{Types: defs})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	return reg
}

func TestGenerateRootChoice(t *testing.T) {
	reg := compileTable(t, []TypeDef{{
		Name: "Root",
		Fields: []FieldDef{{
			Name: "value",
			Rule: &Rule{Kind: RuleChoice, Options: []*Rule{
				{Kind: RuleLiteral, Literal: "a"},
				{Kind: RuleLiteral, Literal: "b"},
			}},
		}},
	}})

	log := &decision.Log{Events: []decision.Event{{Kind: decision.EventChoice, Value: 0}}}
	node, err := reg.Generate("Root", decision.NewReplayer(log))
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if node.Type != "Root" {
		t.Fatalf("node type %q, want Root", node.Type)
	}
	v, ok := node.Field("value")
	if !ok || v != "a" {
		t.Fatalf("value = %v, want \"a\"", v)
	}

	// Replaying the identical log reproduces the identical node.
	again, err := reg.Generate("Root", decision.NewReplayer(log))
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !reflect.DeepEqual(node, again) {
		t.Fatalf("replay diverged: %#v vs %#v", node, again)
	}
}

func TestRecordThenReplayIsIdentical(t *testing.T) {
	reg := compileTable(t, []TypeDef{{
		Name: "Pair",
		Fields: []FieldDef{
			{Name: "flag", Rule: &Rule{Kind: RuleRef, Ref: "boolean"}},
			{Name: "name", Rule: &Rule{Kind: RuleRef, Ref: "string"}},
			{Name: "nums", Rule: &Rule{Kind: RuleArray, Elem: &Rule{Kind: RuleRef, Ref: "number"}}},
		},
	}})

	for seed := int64(1); seed <= 20; seed++ {
		rec := decision.NewRecorder(seed)
		node, err := reg.Generate("Pair", rec)
		if err != nil {
			t.Fatalf("seed %d: generate failed: %v", seed, err)
		}
		replayed, err := reg.Generate("Pair", decision.NewReplayer(rec.Log()))
		if err != nil {
			t.Fatalf("seed %d: replay failed: %v", seed, err)
		}
		if !reflect.DeepEqual(node, replayed) {
			t.Fatalf("seed %d: replay diverged:\nrecorded %#v\nreplayed %#v", seed, node, replayed)
		}
		if err := testkit.CheckLogInvariants(rec.Log()); err != nil {
			t.Fatalf("seed %d: log invariants: %v", seed, err)
		}
	}
}

func TestAliasVariantsShareTypeName(t *testing.T) {
	reg := compileTable(t, []TypeDef{{
		Name:  "Expr",
		Alias: true,
		Variants: [][]FieldDef{
			{{Name: "num", Rule: &Rule{Kind: RuleRef, Ref: "number"}}},
			{{Name: "flag", Rule: &Rule{Kind: RuleRef, Ref: "boolean"}}},
		},
	}})

	node, err := reg.Generate("Expr", &scriptSource{values: []int{1, 1}})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if node.Type != "Expr" {
		t.Fatalf("variant node type %q, want Expr", node.Type)
	}
	if _, ok := node.Field("flag"); !ok {
		t.Fatalf("second variant not chosen: %#v", node)
	}
}

func TestAliasNestedDelegates(t *testing.T) {
	reg := compileTable(t, []TypeDef{{
		Name:  "Stmt",
		Alias: true,
		Nested: []TypeDef{
			{Name: "Let", Fields: []FieldDef{{Name: "name", Rule: &Rule{Kind: RuleRef, Ref: "string"}}}},
			{Name: "Ret", Fields: []FieldDef{{Name: "value", Rule: &Rule{Kind: RuleRef, Ref: "number"}}}},
		},
	}})

	node, err := reg.Generate("Stmt", &scriptSource{values: []int{1, 4}})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if node.Type != "Ret" {
		t.Fatalf("delegated node type %q, want Ret", node.Type)
	}
	if v, _ := node.Field("value"); v != 4 {
		t.Fatalf("value = %v, want 4", v)
	}

	// Nested types are addressable directly as well.
	if _, ok := reg.Lookup("Let"); !ok {
		t.Fatal("nested type Let not registered")
	}
}

func TestCompileRejectsUnresolvedRef(t *testing.T) {
	_, err := Compile(&Table{Types: []TypeDef{{
		Name:   "Root",
		Fields: []FieldDef{{Name: "x", Rule: &Rule{Kind: RuleRef, Ref: "Ghost"}}},
	}}})
	if err == nil {
		t.Fatal("expected error for unresolved reference")
	}
}

func TestCompileRejectsDuplicateAndShadowedNames(t *testing.T) {
	dup := &Table{Types: []TypeDef{
		{Name: "Root", Fields: []FieldDef{}},
		{Name: "Root", Fields: []FieldDef{}},
	}}
	if _, err := Compile(dup); err == nil {
		t.Fatal("expected error for duplicate type")
	}

	shadow := &Table{Types: []TypeDef{
		{Name: "number", Fields: []FieldDef{}},
	}}
	if _, err := Compile(shadow); err == nil {
		t.Fatal("expected error for builtin shadowing")
	}
}

func TestGenerateUnknownRoot(t *testing.T) {
	reg := compileTable(t, []TypeDef{{Name: "Root", Fields: []FieldDef{}}})
	if _, err := reg.Generate("Ghost", &scriptSource{}); err == nil {
		t.Fatal("expected error for unknown root")
	}
	if _, err := reg.Generate("number", &scriptSource{values: []int{3}}); err == nil {
		t.Fatal("expected error for non-node root")
	}
}

func TestRegistryOrderIsDeclarationOrder(t *testing.T) {
	reg := compileTable(t, []TypeDef{
		{Name: "B", Fields: []FieldDef{}},
		{Name: "A", Fields: []FieldDef{}},
	})
	names := reg.Names()
	want := []string{"boolean", "number", "string", "regexp", "B", "A"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestLiteralConsumesNoDecision(t *testing.T) {
	reg := compileTable(t, []TypeDef{{
		Name:   "Lit",
		Fields: []FieldDef{{Name: "v", Rule: &Rule{Kind: RuleLiteral, Literal: "fixed"}}},
	}})
	src := &scriptSource{values: []int{9, 9, 9}}
	node, err := reg.Generate("Lit", src)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if v, _ := node.Field("v"); v != "fixed" {
		t.Fatalf("literal = %v, want fixed", v)
	}
	if src.pos != 0 {
		t.Fatalf("literal consumed %d decisions, want 0", src.pos)
	}
}
