package prelude

import (
	"math/big"

	"github.com/cockroachdb/apd"

	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// level is the numeric kind an overload computes in. Operands are widened
// to it before the operation.
type level int

const (
	levelInteger level = iota
	levelFraction
	levelNumber
)

type op int

const (
	opAdd op = iota
	opSub
	opMul
	opDiv
)

func (o op) String() string {
	switch o {
	case opAdd:
		return "addition"
	case opSub:
		return "subtraction"
	case opMul:
		return "multiplication"
	}
	return "division"
}

// levelOf returns the level a numeric type computes in.
func levelOf(t typesystem.Type) level {
	switch {
	case typesystem.Subtype(t, typesystem.Integer):
		return levelInteger
	case typesystem.Subtype(t, typesystem.Fraction):
		return levelFraction
	}
	return levelNumber
}

// binary makes the native for a two operand overload at lv.
func binary(lv level, o op) evaluator.Native {
	return func(c *evaluator.Call) (evaluator.Values, error) {
		v, err := apply(c, lv, o, c.Values(0)[0], c.Values(1)[0])
		if err != nil {
			return nil, err
		}
		return evaluator.Single(v), nil
	}
}

// fold makes the native for a list overload: o applied left to right over
// every value of the first argument.
func fold(o op) evaluator.Native {
	return func(c *evaluator.Call) (evaluator.Values, error) {
		v, err := foldValues(c, o, c.Values(0))
		if err != nil {
			return nil, err
		}
		return evaluator.Single(v), nil
	}
}

func foldValues(c *evaluator.Call, o op, vs evaluator.Values) (evaluator.Value, error) {
	if len(vs) == 0 {
		return evaluator.NewInteger(0), nil
	}
	lv := levelOf(vs.Type())
	acc := vs[0]
	for _, v := range vs[1:] {
		next, err := apply(c, lv, o, acc, v)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func apply(c *evaluator.Call, lv level, o op, x, y evaluator.Value) (evaluator.Value, error) {
	switch lv {
	case levelInteger:
		a, b := x.(*evaluator.Integer).Value, y.(*evaluator.Integer).Value
		r := new(big.Int)
		switch o {
		case opAdd:
			r.Add(a, b)
		case opSub:
			r.Sub(a, b)
		case opMul:
			r.Mul(a, b)
		case opDiv:
			if b.Sign() == 0 {
				return nil, c.Errorf("division by zero")
			}
			return &evaluator.Fraction{Value: new(big.Rat).SetFrac(a, b)}, nil
		}
		return &evaluator.Integer{Value: r}, nil

	case levelFraction:
		a, b := toRat(x), toRat(y)
		r := new(big.Rat)
		switch o {
		case opAdd:
			r.Add(a, b)
		case opSub:
			r.Sub(a, b)
		case opMul:
			r.Mul(a, b)
		case opDiv:
			if b.Sign() == 0 {
				return nil, c.Errorf("division by zero")
			}
			r.Quo(a, b)
		}
		return &evaluator.Fraction{Value: r}, nil
	}

	ctx := c.Ev.Decimal
	a, err := toDecimal(ctx, x)
	if err != nil {
		return nil, c.Errorf("%v", err)
	}
	b, err := toDecimal(ctx, y)
	if err != nil {
		return nil, c.Errorf("%v", err)
	}
	d := new(apd.Decimal)
	switch o {
	case opAdd:
		_, err = ctx.Add(d, a, b)
	case opSub:
		_, err = ctx.Sub(d, a, b)
	case opMul:
		_, err = ctx.Mul(d, a, b)
	case opDiv:
		if b.Sign() == 0 {
			return nil, c.Errorf("division by zero")
		}
		_, err = ctx.Quo(d, a, b)
	}
	if err != nil {
		return nil, c.Errorf("%s: %v", o, err)
	}
	return &evaluator.Number{Value: d}, nil
}

func toRat(v evaluator.Value) *big.Rat {
	switch n := v.(type) {
	case *evaluator.Integer:
		return new(big.Rat).SetInt(n.Value)
	case *evaluator.Fraction:
		return n.Value
	}
	return new(big.Rat)
}

func toDecimal(ctx *apd.Context, v evaluator.Value) (*apd.Decimal, error) {
	switch n := v.(type) {
	case *evaluator.Integer:
		return apd.NewWithBigInt(new(big.Int).Set(n.Value), 0), nil
	case *evaluator.Fraction:
		d := new(apd.Decimal)
		num := apd.NewWithBigInt(new(big.Int).Set(n.Value.Num()), 0)
		den := apd.NewWithBigInt(new(big.Int).Set(n.Value.Denom()), 0)
		if _, err := ctx.Quo(d, num, den); err != nil {
			return nil, err
		}
		return d, nil
	case *evaluator.Number:
		return n.Value, nil
	}
	return apd.New(0, 0), nil
}

// compare orders two numbers of any kind. Exact kinds compare exactly.
func compare(c *evaluator.Call, x, y evaluator.Value) (int, error) {
	_, xn := x.(*evaluator.Number)
	_, yn := y.(*evaluator.Number)
	if !xn && !yn {
		return toRat(x).Cmp(toRat(y)), nil
	}
	a, err := toDecimal(c.Ev.Decimal, x)
	if err != nil {
		return 0, c.Errorf("%v", err)
	}
	b, err := toDecimal(c.Ev.Decimal, y)
	if err != nil {
		return 0, c.Errorf("%v", err)
	}
	return a.Cmp(b), nil
}
