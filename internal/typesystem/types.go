package typesystem

import (
	"github.com/funvibe/malgeul/internal/config"
)

// Type is the interface for all value types: Prim, Param and ListOf.
type Type interface {
	String() string
	typeNode()
}

// Prim is a primitive type from the fixed lattice.
type Prim struct {
	Name string
}

// Param is a named type parameter, unified per signature.
type Param struct {
	Name string
}

// ListOf is the type of a single list value with the given element type.
type ListOf struct {
	Elem Type
}

func (Prim) typeNode()   {}
func (Param) typeNode()  {}
func (ListOf) typeNode() {}

func (t Prim) String() string  { return t.Name }
func (t Param) String() string { return t.Name }
func (t ListOf) String() string {
	if t.Elem == nil {
		return "list"
	}
	return "list " + t.Elem.String()
}

var (
	Number   = Prim{Name: config.TypeNumber}
	Fraction = Prim{Name: config.TypeFraction}
	Integer  = Prim{Name: config.TypeInteger}
	Boolean  = Prim{Name: config.TypeBoolean}
	Text     = Prim{Name: config.TypeText}
	Nothing  = Prim{Name: config.TypeNothing}
)

// parents encodes the subtype chain 정수 <: 분수 <: 수.
var parents = map[string]string{
	config.TypeInteger:  config.TypeFraction,
	config.TypeFraction: config.TypeNumber,
}

var prims = map[string]Prim{
	Number.Name:   Number,
	Fraction.Name: Fraction,
	Integer.Name:  Integer,
	Boolean.Name:  Boolean,
	Text.Name:     Text,
	Nothing.Name:  Nothing,
}

// LookupPrim returns the primitive with the given name.
func LookupPrim(name string) (Prim, bool) {
	p, ok := prims[name]
	return p, ok
}

func Equal(a, b Type) bool {
	switch ta := a.(type) {
	case nil:
		return b == nil
	case Prim:
		tb, ok := b.(Prim)
		return ok && ta.Name == tb.Name
	case Param:
		tb, ok := b.(Param)
		return ok && ta.Name == tb.Name
	case ListOf:
		tb, ok := b.(ListOf)
		return ok && Equal(ta.Elem, tb.Elem)
	}
	return false
}

// Subtype reports whether a is b or a recognized subtype of b.
// Parameters are only subtypes of themselves.
func Subtype(a, b Type) bool {
	if Equal(a, b) {
		return true
	}
	switch ta := a.(type) {
	case Prim:
		if ta.Name == config.TypeNothing {
			_, isParam := b.(Param)
			return b != nil && !isParam
		}
		tb, ok := b.(Prim)
		if !ok {
			return false
		}
		for name := parents[ta.Name]; name != ""; name = parents[name] {
			if name == tb.Name {
				return true
			}
		}
	case ListOf:
		tb, ok := b.(ListOf)
		if !ok {
			return false
		}
		if tb.Elem == nil {
			return true
		}
		if ta.Elem == nil {
			return false
		}
		return Subtype(ta.Elem, tb.Elem)
	}
	return false
}

// Join returns the least common supertype of a and b.
func Join(a, b Type) (Type, bool) {
	if Subtype(a, b) {
		return b, true
	}
	if Subtype(b, a) {
		return a, true
	}
	switch ta := a.(type) {
	case Prim:
		tb, ok := b.(Prim)
		if !ok {
			return nil, false
		}
		for name := parents[ta.Name]; name != ""; name = parents[name] {
			if Subtype(tb, prims[name]) {
				return prims[name], true
			}
		}
	case ListOf:
		tb, ok := b.(ListOf)
		if !ok || ta.Elem == nil || tb.Elem == nil {
			return nil, false
		}
		elem, ok := Join(ta.Elem, tb.Elem)
		if !ok {
			return nil, false
		}
		return ListOf{Elem: elem}, true
	}
	return nil, false
}

// JoinAll folds Join over a list; an empty list joins to Nothing.
// Parameters join only with themselves.
func JoinAll(ts []Type) (Type, bool) {
	if len(ts) == 0 {
		return Nothing, true
	}
	acc := ts[0]
	if acc == nil {
		return nil, false
	}
	for _, t := range ts[1:] {
		if t == nil {
			return nil, false
		}
		j, ok := Join(acc, t)
		if !ok {
			return nil, false
		}
		acc = j
	}
	return acc, true
}

// params collects the parameter names used in a type.
func params(t Type, into map[string]bool) {
	switch tt := t.(type) {
	case Param:
		into[tt.Name] = true
	case ListOf:
		params(tt.Elem, into)
	}
}
