package evaluator

import (
	"math/big"
	"testing"

	"github.com/funvibe/malgeul/internal/typesystem"
)

func mustNumber(t *testing.T, lit string) Value {
	t.Helper()
	v, ok := ParseNumber(lit)
	if !ok {
		t.Fatalf("ParseNumber(%q) failed", lit)
	}
	return v
}

func TestInspect(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NewInteger(-12), "-12"},
		{&Fraction{Value: big.NewRat(6, 3)}, "2"},
		{&Fraction{Value: big.NewRat(1, 2)}, "1/2"},
		{mustNumber(t, "2.50"), "2.5"},
		{mustNumber(t, "100.0"), "100"},
		{NewBoolean(true), "참"},
		{NewBoolean(false), "거짓"},
		{NewText("사과"), "사과"},
		{&List{Elements: Values{NewInteger(1), NewInteger(2)}}, "[1, 2]"},
	}
	for _, tt := range tests {
		if got := tt.v.Inspect(); got != tt.want {
			t.Errorf("Inspect = %q, want %q", got, tt.want)
		}
	}
}

func TestValuesType(t *testing.T) {
	tests := []struct {
		name string
		vs   Values
		want typesystem.Type
	}{
		{"empty", Values{}, typesystem.Nothing},
		{"integers", Values{NewInteger(1), NewInteger(2)}, typesystem.Integer},
		{"integer and fraction", Values{NewInteger(1), &Fraction{Value: big.NewRat(1, 2)}}, typesystem.Fraction},
		{"integer and number", Values{NewInteger(1), mustNumber(t, "2.5")}, typesystem.Number},
		{"mixed", Values{NewInteger(1), NewText("a")}, nil},
		{"list", Values{&List{Elements: Values{NewInteger(1)}}}, typesystem.ListOf{Elem: typesystem.Integer}},
	}
	for _, tt := range tests {
		if got := tt.vs.Type(); !typesystem.Equal(got, tt.want) {
			t.Errorf("%s: Type = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseNumber(t *testing.T) {
	if v := mustNumber(t, "42"); v.Type() != typesystem.Type(typesystem.Integer) {
		t.Errorf("42 should be an integer, got %v", v.Type())
	}
	if v := mustNumber(t, "4.2"); v.Type() != typesystem.Type(typesystem.Number) {
		t.Errorf("4.2 should be a number, got %v", v.Type())
	}
	if _, ok := ParseNumber("4x"); ok {
		t.Error("4x should not parse")
	}
}

func TestEqualAcrossNumericKinds(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{NewInteger(2), &Fraction{Value: big.NewRat(4, 2)}, true},
		{mustNumber(t, "2.0"), NewInteger(2), true},
		{mustNumber(t, "0.5"), &Fraction{Value: big.NewRat(1, 2)}, true},
		{&Fraction{Value: big.NewRat(1, 4)}, mustNumber(t, "0.25"), true},
		{NewInteger(2), NewInteger(3), false},
		{NewText("2"), NewInteger(2), false},
		{NewBoolean(true), NewBoolean(true), true},
	}
	for _, tt := range tests {
		if got := Equal(tt.a, tt.b); got != tt.want {
			t.Errorf("Equal(%s, %s) = %v", tt.a.Inspect(), tt.b.Inspect(), got)
		}
	}
}

func TestEnvironmentScopes(t *testing.T) {
	outer := NewEnvironment()
	x := outer.Box("x")
	x.Set(Single(NewInteger(1)))

	inner := NewEnclosedEnvironment(outer)
	if got := inner.Box("x"); got != x {
		t.Error("inner scope should reach the outer box")
	}
	shadow := inner.Bind("x", NewBox("x"))
	if got, _ := inner.Get("x"); got != shadow {
		t.Error("Bind should shadow the outer box")
	}
	if got, _ := outer.Get("x"); got != x {
		t.Error("shadowing must not touch the outer scope")
	}
	if _, err := shadow.Get(); err == nil {
		t.Error("reading a new box should fail")
	}
	inner.Box("y")
	if _, ok := outer.Get("y"); ok {
		t.Error("a box created in the inner scope leaked outward")
	}
}
