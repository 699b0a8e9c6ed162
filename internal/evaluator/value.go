package evaluator

import (
	"math/big"
	"strings"

	"github.com/cockroachdb/apd"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Value is a single runtime value: Boolean, Integer, Fraction, Number,
// Text or List.
type Value interface {
	Type() typesystem.Type
	Inspect() string
	valueNode()
}

type Boolean struct {
	Value bool
}

type Integer struct {
	Value *big.Int
}

// Fraction is an exact quotient; integer division produces one.
type Fraction struct {
	Value *big.Rat
}

// Number is an arbitrary precision decimal.
type Number struct {
	Value *apd.Decimal
}

type Text struct {
	Value string
}

// List is a nested list value, as built by 묶다.
type List struct {
	Elements Values
}

func (*Boolean) valueNode()  {}
func (*Integer) valueNode()  {}
func (*Fraction) valueNode() {}
func (*Number) valueNode()   {}
func (*Text) valueNode()     {}
func (*List) valueNode()     {}

func (b *Boolean) Type() typesystem.Type  { return typesystem.Boolean }
func (i *Integer) Type() typesystem.Type  { return typesystem.Integer }
func (f *Fraction) Type() typesystem.Type { return typesystem.Fraction }
func (n *Number) Type() typesystem.Type   { return typesystem.Number }
func (t *Text) Type() typesystem.Type     { return typesystem.Text }

func (l *List) Type() typesystem.Type {
	elem := l.Elements.Type()
	if elem == nil {
		return typesystem.ListOf{}
	}
	return typesystem.ListOf{Elem: elem}
}

func (b *Boolean) Inspect() string {
	if b.Value {
		return config.TrueLemma
	}
	return config.FalseLemma
}

func (i *Integer) Inspect() string { return i.Value.String() }

func (f *Fraction) Inspect() string {
	if f.Value.IsInt() {
		return f.Value.Num().String()
	}
	return f.Value.RatString()
}

func (n *Number) Inspect() string {
	var d apd.Decimal
	d.Reduce(n.Value)
	return d.Text('f')
}

func (t *Text) Inspect() string { return t.Value }

func (l *List) Inspect() string { return "[" + l.Elements.Inspect() + "]" }

// Values is what every evaluation yields: zero or more values.
type Values []Value

// Type joins the element types; nil when they have no common type.
// An empty list has type 없음.
func (vs Values) Type() typesystem.Type {
	ts := make([]typesystem.Type, len(vs))
	for i, v := range vs {
		ts[i] = v.Type()
	}
	t, ok := typesystem.JoinAll(ts)
	if !ok {
		return nil
	}
	return t
}

func (vs Values) Inspect() string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Inspect()
	}
	return strings.Join(parts, ", ")
}

// Actual describes the values for signature matching.
func (vs Values) Actual() typesystem.ActualPack {
	return typesystem.ActualPack{Count: len(vs), Type: vs.Type()}
}

func NewInteger(n int64) *Integer { return &Integer{Value: big.NewInt(n)} }

func NewBoolean(b bool) *Boolean { return &Boolean{Value: b} }

func NewText(s string) *Text { return &Text{Value: s} }

// Single wraps one value.
func Single(v Value) Values { return Values{v} }

// ParseNumber reads a numeric literal: digits only give an Integer, a
// decimal point gives a Number.
func ParseNumber(lit string) (Value, bool) {
	if !strings.Contains(lit, ".") {
		n, ok := new(big.Int).SetString(lit, 10)
		if !ok {
			return nil, false
		}
		return &Integer{Value: n}, true
	}
	d, _, err := apd.NewFromString(lit)
	if err != nil {
		return nil, false
	}
	return &Number{Value: d}, true
}

// Equal compares two values; numbers compare by magnitude across kinds.
func Equal(a, b Value) bool {
	if ra, ok := exact(a); ok {
		if rb, ok := exact(b); ok {
			return ra.Cmp(rb) == 0
		}
	}
	if _, ok := b.(*Number); ok {
		if _, ok := a.(*Number); !ok {
			a, b = b, a
		}
	}
	switch va := a.(type) {
	case *Boolean:
		vb, ok := b.(*Boolean)
		return ok && va.Value == vb.Value
	case *Text:
		vb, ok := b.(*Text)
		return ok && va.Value == vb.Value
	case *Number:
		vb, ok := b.(*Number)
		if ok {
			return va.Value.Cmp(vb.Value) == 0
		}
		if rb, ok := exact(b); ok {
			return ratOfDecimal(va.Value).Cmp(rb) == 0
		}
	case *List:
		vb, ok := b.(*List)
		if !ok || len(va.Elements) != len(vb.Elements) {
			return false
		}
		for i := range va.Elements {
			if !Equal(va.Elements[i], vb.Elements[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// exact returns integers and fractions as rationals.
func exact(v Value) (*big.Rat, bool) {
	switch n := v.(type) {
	case *Integer:
		return new(big.Rat).SetInt(n.Value), true
	case *Fraction:
		return n.Value, true
	}
	return nil, false
}

func ratOfDecimal(d *apd.Decimal) *big.Rat {
	r := new(big.Rat).SetInt(&d.Coeff)
	if d.Negative {
		r.Neg(r)
	}
	if d.Exponent == 0 {
		return r
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(d.Exponent))), nil)
	if d.Exponent > 0 {
		return r.Mul(r, new(big.Rat).SetInt(scale))
	}
	return r.Quo(r, new(big.Rat).SetInt(scale))
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}
