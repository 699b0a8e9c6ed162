package evaluator

import (
	"math/big"
	"strings"
	"testing"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

type testScope map[string][]*Procedure

func (s testScope) Procedures(key string) []*Procedure { return s[key] }

func (s testScope) add(t *testing.T, key string, anns []string, fn Native) *Procedure {
	t.Helper()
	p := &Procedure{Key: key, Signature: sig(t, anns...), Native: fn, Scope: s}
	s[key] = append(s[key], p)
	return p
}

// sig parses annotations such as "1 정수", "lazy" or "new".
func sig(t *testing.T, anns ...string) typesystem.Signature {
	t.Helper()
	var s typesystem.Signature
	for _, a := range anns {
		ann, err := typesystem.ParseAnnotation(strings.Fields(a))
		if err != nil {
			t.Fatalf("ParseAnnotation(%q): %v", a, err)
		}
		s.Params = append(s.Params, ann)
	}
	return s
}

func num(lit string) *ast.Tree { return ast.Leaf(token.NewNumber(lit, 1, 1)) }
func ident(n string) *ast.Tree { return ast.Leaf(token.NewIdent(n, 1, 1)) }
func noun(lemma string) *ast.Tree { return ast.Leaf(token.NewWord(lemma, token.Noun, 1, 1)) }

func node(key string, children ...*ast.Tree) *ast.Tree {
	return ast.Node(ast.Generic{Pos: token.Noun}, key, children)
}

func constant(v Values) Native {
	return func(*Call) (Values, error) { return v, nil }
}

func pronoun(c *Call) (Values, error) { return c.RequireAntecedent() }

func multiply(c *Call) (Values, error) {
	a := c.Values(0)[0].(*Integer).Value
	b := c.Values(1)[0].(*Integer).Value
	return Single(&Integer{Value: new(big.Int).Mul(a, b)}), nil
}

func newEval(s testScope) *Evaluator {
	return New(s, config.Default(), nil)
}

func evalString(t *testing.T, ev *Evaluator, tree *ast.Tree) string {
	t.Helper()
	v, err := ev.Eval(tree)
	if err != nil {
		t.Fatalf("Eval(%s): %v", tree, err)
	}
	return v.Inspect()
}

func expectEvalCode(t *testing.T, ev *Evaluator, tree *ast.Tree, code diagnostics.ErrorCode) {
	t.Helper()
	_, err := ev.Eval(tree)
	if !diagnostics.HasCode(err, code) {
		t.Fatalf("Eval(%s) = %v, want %s", tree, err, code)
	}
}

func TestBoxReadAfterWrite(t *testing.T) {
	b := NewBox("x")
	if _, err := b.Get(); !diagnostics.HasCode(err, diagnostics.ErrR003) {
		t.Fatalf("reading a new box: %v, want R003", err)
	}
	b.Set(Single(NewInteger(3)))
	b.Set(Single(NewInteger(4)))
	v, err := b.Get()
	if err != nil || v.Inspect() != "4" {
		t.Errorf("Get = %v, %v; want the last value", v, err)
	}
}

func TestAssignmentThroughNewParameter(t *testing.T) {
	s := testScope{}
	s.add(t, "put", []string{"new", "1 수"}, func(c *Call) (Values, error) {
		c.Box(0).Set(c.Values(1))
		return Values{}, nil
	})
	s.add(t, "show", []string{"1 수"}, func(c *Call) (Values, error) { return c.Values(0), nil })
	ev := newEval(s)

	expectEvalCode(t, ev, node("show", ident("x")), diagnostics.ErrR003)
	if _, err := ev.Eval(node("put", ident("x"), num("5"))); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := evalString(t, ev, node("show", ident("x"))); got != "5" {
		t.Errorf("x = %s, want 5", got)
	}
	if got := evalString(t, ev, ident("x")); got != "5" {
		t.Errorf("x = %s, want 5", got)
	}
}

func TestThunkBindsAntecedentOnce(t *testing.T) {
	s := testScope{}
	s.add(t, "그것[명사]", nil, pronoun)
	ev := newEval(s)

	th := ev.NewThunk(noun("그것"))
	if !th.Bind(Single(NewInteger(1))) {
		t.Fatal("first Bind should take effect")
	}
	if th.Bind(Single(NewInteger(2))) {
		t.Error("second Bind should be ignored")
	}
	for i := 0; i < 2; i++ {
		v, err := th.Force()
		if err != nil || v.Inspect() != "1" {
			t.Fatalf("Force #%d = %v, %v", i, v, err)
		}
	}
	if th.Bind(Single(NewInteger(3))) {
		t.Error("Bind after Force should be ignored")
	}

	unbound := ev.NewThunk(noun("그것"))
	if _, err := unbound.Force(); !diagnostics.HasCode(err, diagnostics.ErrR004) {
		t.Errorf("pronoun without antecedent: %v, want R004", err)
	}
}

func TestDispatchPicksMostSpecificOverload(t *testing.T) {
	s := testScope{}
	s.add(t, "add", []string{"1 정수", "1 정수"}, constant(Single(NewText("integer"))))
	s.add(t, "add", []string{"1 수", "1 수"}, constant(Single(NewText("number"))))
	ev := newEval(s)

	tests := []struct {
		a, b string
		want string
	}{
		{"3", "4", "integer"},
		{"3", "2.5", "number"},
		{"0.5", "0.25", "number"},
	}
	for _, tt := range tests {
		if got := evalString(t, ev, node("add", num(tt.a), num(tt.b))); got != tt.want {
			t.Errorf("add %s %s = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDispatchErrors(t *testing.T) {
	s := testScope{}
	s.add(t, "add", []string{"1 정수", "1 정수"}, constant(Values{}))
	s.add(t, "pair", []string{"1 T", "1 수"}, constant(Values{}))
	s.add(t, "pair", []string{"1 수", "1 T"}, constant(Values{}))
	ev := newEval(s)

	expectEvalCode(t, ev, node("add", num("1"), noun("사과")), diagnostics.ErrR001)
	expectEvalCode(t, ev, node("pair", num("1"), num("2")), diagnostics.ErrR002)
	expectEvalCode(t, ev, node("missing", num("1")), diagnostics.ErrR001)
	expectEvalCode(t, ev, node("add", num("1"), ident("y")), diagnostics.ErrR003)
}

func TestLazyBranchIsNotForced(t *testing.T) {
	s := testScope{}
	s.add(t, "참[명사]", nil, constant(Single(NewBoolean(true))))
	s.add(t, "거짓[명사]", nil, constant(Single(NewBoolean(false))))
	s.add(t, "if", []string{"1 불", "lazy"}, func(c *Call) (Values, error) {
		if c.Values(0)[0].(*Boolean).Value {
			return c.Thunk(1).Force()
		}
		return Values{}, nil
	})
	fired := 0
	s.add(t, "boom", nil, func(*Call) (Values, error) {
		fired++
		return Single(NewText("fired")), nil
	})
	ev := newEval(s)

	if _, err := ev.Eval(node("if", noun("거짓"), node("boom"))); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Fatalf("lazy branch ran %d times", fired)
	}
	if got := evalString(t, ev, node("if", noun("참"), node("boom"))); got != "fired" || fired != 1 {
		t.Errorf("taken branch = %q, fired %d", got, fired)
	}
}

func TestProtocolFillsFromAntecedent(t *testing.T) {
	s := testScope{}
	s.add(t, "mul", []string{"1 정수", "1 정수"}, multiply)
	alias := s.add(t, "double", []string{"1 정수"}, nil)
	alias.Protocol = &Protocol{Target: "mul", Slots: []Slot{{Arg: 0}, {FromAntecedent: true}}}
	swapped := s.add(t, "swap", []string{"1 정수", "1 정수"}, nil)
	swapped.Protocol = &Protocol{Target: "mul", Slots: []Slot{{Arg: 1}, {Arg: 0}}}
	ev := newEval(s)

	expectEvalCode(t, ev, node("double", num("3")), diagnostics.ErrR004)

	th := ev.NewThunk(node("double", num("3")))
	th.Bind(Single(NewInteger(5)))
	v, err := th.Force()
	if err != nil || v.Inspect() != "15" {
		t.Errorf("double with antecedent = %v, %v", v, err)
	}

	if got := evalString(t, ev, node("swap", num("6"), num("7"))); got != "42" {
		t.Errorf("swap = %s", got)
	}
}

func TestExpressionBody(t *testing.T) {
	s := testScope{}
	s.add(t, "mul", []string{"1 정수", "1 정수"}, multiply)
	s.add(t, "그것[명사]", nil, pronoun)
	s["square"] = []*Procedure{{
		Key:       "square",
		Signature: sig(t, "1 정수"),
		Names:     []string{"a"},
		Body:      []*ast.Tree{node("mul", ident("a"), ident("a"))},
		Scope:     s,
	}}
	s["echo"] = []*Procedure{{
		Key:   "echo",
		Body:  []*ast.Tree{noun("그것")},
		Scope: s,
	}}
	ev := newEval(s)

	if got := evalString(t, ev, node("square", num("4"))); got != "16" {
		t.Errorf("square 4 = %s", got)
	}
	if _, ok := ev.Globals.Get("a"); ok {
		t.Error("parameter leaked into the global scope")
	}

	th := ev.NewThunk(node("echo"))
	th.Bind(Single(NewText("메아리")))
	if v, err := th.Force(); err != nil || v.Inspect() != "메아리" {
		t.Errorf("body antecedent = %v, %v", v, err)
	}
}

func TestRunSentencesThreadsAntecedent(t *testing.T) {
	s := testScope{}
	s.add(t, "그것[명사]", nil, pronoun)
	s.add(t, "link", []string{"any"}, func(c *Call) (Values, error) {
		c.Ev.SetPending(c.Values(0))
		return Values{}, nil
	})
	s.add(t, "silent", nil, constant(Values{}))

	tests := []struct {
		name      string
		sentences []*ast.Tree
		want      string
	}{
		{"pending", []*ast.Tree{node("link", num("7")), noun("그것")}, "7"},
		{"previous result", []*ast.Tree{num("8"), noun("그것")}, "8"},
		{"last non-empty", []*ast.Tree{num("9"), node("silent"), noun("그것")}, "9"},
		{"newer pending wins", []*ast.Tree{node("link", num("1")), node("link", num("2")), noun("그것")}, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := newEval(s).RunSentences(tt.sentences)
			if err != nil {
				t.Fatal(err)
			}
			if v.Inspect() != tt.want {
				t.Errorf("got %s, want %s", v.Inspect(), tt.want)
			}
		})
	}
}

func TestConjunctionConcatenates(t *testing.T) {
	ev := newEval(testScope{})
	tree := ast.Conjunction([]*ast.Tree{num("1"), num("2"), num("3")})
	v, err := ev.Eval(tree)
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != 3 || v.Inspect() != "1, 2, 3" || !typesystem.Equal(v.Type(), typesystem.Integer) {
		t.Errorf("got %s (%v)", v.Inspect(), v.Type())
	}
}
