package typesystem

import (
	"fmt"
	"strings"
)

// Actual describes a call-site argument for matching.
type Actual interface {
	String() string
	actual()
}

// ActualPack is an evaluated value list. Type is nil when the elements have
// no common type.
type ActualPack struct {
	Count int
	Type  Type
}

// ActualBox is a variable passed by reference.
type ActualBox struct {
	Name        string
	Initialized bool
	Content     ActualPack
}

// ActualThunk is an argument in a lazy position, not evaluated yet.
type ActualThunk struct{}

func (ActualPack) actual()  {}
func (ActualBox) actual()   {}
func (ActualThunk) actual() {}

func (a ActualPack) String() string {
	if a.Type == nil {
		return fmt.Sprintf("%d ?", a.Count)
	}
	return fmt.Sprintf("%d %s", a.Count, a.Type)
}

func (a ActualBox) String() string {
	if !a.Initialized {
		return "new " + a.Name
	}
	return "var " + a.Content.String()
}

func (ActualThunk) String() string { return "lazy" }

// DescribeActuals formats an argument list for diagnostics.
func DescribeActuals(actuals []Actual) string {
	parts := make([]string, len(actuals))
	for i, a := range actuals {
		parts[i] = "{" + a.String() + "}"
	}
	return strings.Join(parts, ", ")
}

// binding accumulates the arity and type parameters of one signature while
// it is matched; a conflicting use fails the match.
type binding struct {
	arities map[string]int
	types   map[string]Type
}

func newBinding() *binding {
	return &binding{arities: map[string]int{}, types: map[string]Type{}}
}

// MatchesSignature reports whether the actual arguments satisfy sig.
// A declared antecedent is only checked when one is present; absence is
// reported later, when the procedure needs it.
func MatchesSignature(sig Signature, actuals []Actual, antecedent *ActualPack) bool {
	if len(sig.Params) != len(actuals) {
		return false
	}
	b := newBinding()
	for i, p := range sig.Params {
		if !b.match(p, actuals[i]) {
			return false
		}
	}
	if sig.Antecedent != nil && antecedent != nil {
		if !b.match(sig.Antecedent, *antecedent) {
			return false
		}
	}
	return true
}

func (b *binding) match(ann Annotation, act Actual) bool {
	switch a := ann.(type) {
	case Any, Lazy:
		return true
	case New:
		_, isBox := act.(ActualBox)
		return isBox
	case VariableOf:
		box, ok := act.(ActualBox)
		if !ok || !box.Initialized {
			return false
		}
		if inner, ok := a.Inner.(Pack); ok {
			return b.matchPack(inner, box.Content)
		}
		return true
	case Pack:
		switch v := act.(type) {
		case ActualPack:
			return b.matchPack(a, v)
		case ActualBox:
			return v.Initialized && b.matchPack(a, v.Content)
		}
		return false
	}
	return false
}

func (b *binding) matchPack(p Pack, act ActualPack) bool {
	if act.Count == 0 && p.Optional {
		return true
	}
	if !b.matchArity(p.Arity, act.Count) {
		return false
	}
	if p.Type == nil {
		return true
	}
	if act.Type == nil {
		return false
	}
	return b.matchType(p.Type, act.Type)
}

func (b *binding) matchArity(a Arity, count int) bool {
	switch ar := a.(type) {
	case nil:
		return true
	case Exact:
		return count == ar.N
	case AtLeast:
		return count >= ar.N
	case Bound:
		if n, ok := b.arities[ar.Name]; ok {
			return n == count
		}
		b.arities[ar.Name] = count
		return true
	}
	return false
}

func (b *binding) matchType(declared, actual Type) bool {
	switch d := declared.(type) {
	case Prim:
		return Subtype(actual, d)
	case ListOf:
		if Equal(actual, Nothing) {
			return true
		}
		al, ok := actual.(ListOf)
		if !ok {
			return false
		}
		if d.Elem == nil {
			return true
		}
		if al.Elem == nil {
			return false
		}
		return b.matchType(d.Elem, al.Elem)
	case Param:
		bound, ok := b.types[d.Name]
		if !ok {
			b.types[d.Name] = actual
			return true
		}
		j, ok := Join(bound, actual)
		if !ok {
			return false
		}
		b.types[d.Name] = j
		return true
	}
	return false
}
