package prelude

import (
	"fmt"
	"unicode/utf8"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Builtin is a pattern of the prelude implemented in Go.
type Builtin struct {
	Pattern string
	Fn      evaluator.Native
}

// Alias is a prelude pattern that rewrites to another one.
type Alias struct {
	Pattern string
	Target  string
}

// SentenceBuiltins returns the endings, the comma combinator and the
// reserved nouns.
func SentenceBuiltins() []Builtin {
	return []Builtin{
		{"{any}[서술] 다[어미] -> {}[문장]", builtinEnd},
		{"{any}[서술] 고[어미] -> {}[절]", builtinLink},
		{"{any}[절] ,[기호] {lazy}[문장] -> {}[문장]", builtinComma},
		{config.PronounLemma + "[명사] -> {}[명사]", builtinPronoun},
		{config.TrueLemma + "[명사] -> {}[명사]", constant(true)},
		{config.FalseLemma + "[명사] -> {}[명사]", constant(false)},
	}
}

// 다: the value of the predicate
func builtinEnd(c *evaluator.Call) (evaluator.Values, error) {
	return c.Values(0), nil
}

// 고: hands the value on to the next clause
func builtinLink(c *evaluator.Call) (evaluator.Values, error) {
	v := c.Values(0)
	c.Ev.SetPending(v)
	return v, nil
}

// clause , sentence: runs the sentence with the clause's value as antecedent
func builtinComma(c *evaluator.Call) (evaluator.Values, error) {
	next := c.Thunk(1)
	if p, ok := c.Ev.TakePending(); ok {
		next.Bind(p)
	} else {
		next.Bind(c.Values(0))
	}
	return next.Force()
}

// 그것: the antecedent
func builtinPronoun(c *evaluator.Call) (evaluator.Values, error) {
	return c.RequireAntecedent()
}

func constant(b bool) evaluator.Native {
	return func(*evaluator.Call) (evaluator.Values, error) {
		return evaluator.Single(evaluator.NewBoolean(b)), nil
	}
}

var numericLevels = []struct {
	name string
	lv   level
}{
	{config.TypeInteger, levelInteger},
	{config.TypeFraction, levelFraction},
	{config.TypeNumber, levelNumber},
}

var arithmeticForms = []struct {
	format string
	o      op
}{
	{"{1 %[1]s}[명사] 와[조사] {1 %[1]s}[명사] 를[조사] 더하[동사] -> {}[서술]", opAdd},
	{"{1 %[1]s}[명사] 에서[조사] {1 %[1]s}[명사] 를[조사] 빼[동사] -> {}[서술]", opSub},
	{"{1 %[1]s}[명사] 와[조사] {1 %[1]s}[명사] 를[조사] 곱하[동사] -> {}[서술]", opMul},
	{"{1 %[1]s}[명사] 에[조사] {1 %[1]s}[명사] 를[조사] 곱하[동사] -> {}[서술]", opMul},
	{"{1 %[1]s}[명사] 를[조사] {1 %[1]s}[명사] 로[조사] 나누[동사] -> {}[서술]", opDiv},
	{"{1 %[1]s}[명사] 더하기[명사] {1 %[1]s}[명사] -> {}[명사]", opAdd},
	{"{1 %[1]s}[명사] 빼기[명사] {1 %[1]s}[명사] -> {}[명사]", opSub},
	{"{1 %[1]s}[명사] 곱하기[명사] {1 %[1]s}[명사] -> {}[명사]", opMul},
	{"{1 %[1]s}[명사] 나누기[명사] {1 %[1]s}[명사] -> {}[명사]", opDiv},
}

// ArithmeticBuiltins returns every arithmetic form with one overload per
// numeric type, plus the list forms.
func ArithmeticBuiltins() []Builtin {
	var out []Builtin
	for _, f := range arithmeticForms {
		for _, n := range numericLevels {
			out = append(out, Builtin{fmt.Sprintf(f.format, n.name), binary(n.lv, f.o)})
		}
	}
	return append(out,
		Builtin{"{2+ 수}[명사] 를[조사] 더하[동사] -> {}[서술]", fold(opAdd)},
		Builtin{"{2+ 수}[명사] 를[조사] 곱하[동사] -> {}[서술]", fold(opMul)},
	)
}

// Aliases returns the forms that take one operand from the antecedent, and
// division with its operands the other way round.
func Aliases() []Alias {
	return []Alias{
		{"{1 수 @b}[명사] 를[조사] 더하[동사] -> {}[서술]", "{@a}[명사] 와[조사] {@b}[명사] 를[조사] 더하[동사]"},
		{"{1 수 @b}[명사] 를[조사] 빼[동사] -> {}[서술]", "{@a}[명사] 에서[조사] {@b}[명사] 를[조사] 빼[동사]"},
		{"{1 수 @b}[명사] 를[조사] 곱하[동사] -> {}[서술]", "{@a}[명사] 와[조사] {@b}[명사] 를[조사] 곱하[동사]"},
		{"{1 수 @b}[명사] 로[조사] 나누[동사] -> {}[서술]", "{@a}[명사] 를[조사] {@b}[명사] 로[조사] 나누[동사]"},
		{"{1 수 @b}[명사] 로[조사] {1 수 @a}[명사] 를[조사] 나누[동사] -> {}[서술]", "{@a}[명사] 를[조사] {@b}[명사] 로[조사] 나누[동사]"},
	}
}

// ComparisonBuiltins returns comparisons, negation and the conditionals.
func ComparisonBuiltins() []Builtin {
	return []Builtin{
		{"{1 수}[명사] 가[조사] {1 수}[명사] 보다[조사] 크[형용사] -> {}[서술]", ordered(func(n int) bool { return n > 0 })},
		{"{1 수}[명사] 가[조사] {1 수}[명사] 보다[조사] 작[형용사] -> {}[서술]", ordered(func(n int) bool { return n < 0 })},
		{"{1 T}[명사] 와[조사] {1 T}[명사] 가[조사] 같[형용사] -> {}[서술]", builtinSame},
		{"{1 불}[서술] 지[어미] 않[동사] -> {}[서술]", builtinNot},
		{"{1 불}[서술] 면[어미] {lazy}[서술] -> {}[서술]", builtinIf},
		{"{1 불}[명사] 면[어미] {lazy}[서술] -> {}[서술]", builtinIf},
	}
}

func ordered(accept func(int) bool) evaluator.Native {
	return func(c *evaluator.Call) (evaluator.Values, error) {
		n, err := compare(c, c.Values(0)[0], c.Values(1)[0])
		if err != nil {
			return nil, err
		}
		return evaluator.Single(evaluator.NewBoolean(accept(n))), nil
	}
}

// a 와 b 가 같다
func builtinSame(c *evaluator.Call) (evaluator.Values, error) {
	return evaluator.Single(evaluator.NewBoolean(evaluator.Equal(c.Values(0)[0], c.Values(1)[0]))), nil
}

// p 지 않다
func builtinNot(c *evaluator.Call) (evaluator.Values, error) {
	b := c.Values(0)[0].(*evaluator.Boolean)
	return evaluator.Single(evaluator.NewBoolean(!b.Value)), nil
}

// p 면 q: q is evaluated only when p holds
func builtinIf(c *evaluator.Call) (evaluator.Values, error) {
	if !c.Values(0)[0].(*evaluator.Boolean).Value {
		return evaluator.Values{}, nil
	}
	return c.Thunk(1).Force()
}

// VariableBuiltins returns assignment and increments.
func VariableBuiltins() []Builtin {
	return []Builtin{
		{"{new}[명사] 에[조사] {any}[명사] 를[조사] 넣[동사] -> {}[서술]", builtinPut},
		{"{var 1 수}[명사] 를[조사] 늘리[동사] -> {}[서술]", builtinIncrement},
		{"{var 1 수}[명사] 를[조사] {1 수}[명사] 만큼[조사] 늘리[동사] -> {}[서술]", builtinIncrement},
	}
}

// x 에 v 를 넣다
func builtinPut(c *evaluator.Call) (evaluator.Values, error) {
	v := c.Values(1)
	c.Box(0).Set(v)
	return v, nil
}

// x 를 (n 만큼) 늘리다
func builtinIncrement(c *evaluator.Call) (evaluator.Values, error) {
	box := c.Box(0)
	cur, err := box.Get()
	if err != nil {
		return nil, err
	}
	var step evaluator.Value = evaluator.NewInteger(1)
	if len(c.Args) > 1 {
		step = c.Values(1)[0]
	}
	t, ok := typesystem.Join(cur[0].Type(), step.Type())
	if !ok {
		return nil, c.Errorf("cannot add %s to %s", step.Type(), cur[0].Type())
	}
	v, err := apply(c, levelOf(t), opAdd, cur[0], step)
	if err != nil {
		return nil, err
	}
	box.Set(evaluator.Single(v))
	return evaluator.Single(v), nil
}

// ListBuiltins returns the list builder and the aggregate nouns.
func ListBuiltins() []Builtin {
	return []Builtin{
		{"{any}[명사] 를[조사] 묶[동사] -> {}[서술]", builtinBundle},
		{"{1+ 수}[명사] 의[조사] 합[명사] -> {}[명사]", fold(opAdd)},
		{"{1 list 수}[명사] 의[조사] 합[명사] -> {}[명사]", builtinListSum},
		{"{any}[명사] 의[조사] 개수[명사] -> {}[명사]", builtinCount},
		{"{1 list T}[명사] 의[조사] 길이[명사] -> {}[명사]", builtinListLength},
		{"{1 글}[명사] 의[조사] 길이[명사] -> {}[명사]", builtinTextLength},
	}
}

// vs 를 묶다: one list holding vs
func builtinBundle(c *evaluator.Call) (evaluator.Values, error) {
	elems := append(evaluator.Values{}, c.Values(0)...)
	return evaluator.Single(&evaluator.List{Elements: elems}), nil
}

func builtinListSum(c *evaluator.Call) (evaluator.Values, error) {
	v, err := foldValues(c, opAdd, c.Values(0)[0].(*evaluator.List).Elements)
	if err != nil {
		return nil, err
	}
	return evaluator.Single(v), nil
}

func builtinCount(c *evaluator.Call) (evaluator.Values, error) {
	return evaluator.Single(evaluator.NewInteger(int64(len(c.Values(0))))), nil
}

func builtinListLength(c *evaluator.Call) (evaluator.Values, error) {
	l := c.Values(0)[0].(*evaluator.List)
	return evaluator.Single(evaluator.NewInteger(int64(len(l.Elements)))), nil
}

func builtinTextLength(c *evaluator.Call) (evaluator.Values, error) {
	t := c.Values(0)[0].(*evaluator.Text)
	return evaluator.Single(evaluator.NewInteger(int64(utf8.RuneCountInString(t.Value)))), nil
}

// OutputBuiltins returns printing with its optional repeat count.
func OutputBuiltins() []Builtin {
	return []Builtin{
		{"{? 1 정수}[부사] {any}[명사] 를[조사] 출력하[동사] -> {}[서술]", builtinPrint},
		{"{1 정수}[명사] 번[명사] -> {?}[부사]", builtinTimes},
	}
}

// (n 번) v 를 출력하다
func builtinPrint(c *evaluator.Call) (evaluator.Values, error) {
	times := int64(1)
	if !c.Omitted(0) {
		n := c.Values(0)[0].(*evaluator.Integer).Value
		if !n.IsInt64() || n.Sign() < 0 {
			return nil, c.Errorf("cannot print %s times", n)
		}
		times = n.Int64()
	}
	v := c.Values(1)
	line := v.Inspect()
	for i := int64(0); i < times; i++ {
		if _, err := fmt.Fprintln(c.Ev.Out, line); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// n 번
func builtinTimes(c *evaluator.Call) (evaluator.Values, error) {
	return c.Values(0), nil
}
