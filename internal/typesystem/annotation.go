package typesystem

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Arity constrains how many values an argument pack holds.
type Arity interface {
	String() string
	// Range returns the admitted counts; hi < 0 means unbounded.
	Range() (lo, hi int)
	arity()
}

type Exact struct{ N int }
type AtLeast struct{ N int }

// Bound is an unconstrained arity shared by every use of Name in one signature.
type Bound struct{ Name string }

func (Exact) arity()   {}
func (AtLeast) arity() {}
func (Bound) arity()   {}

func (a Exact) String() string   { return strconv.Itoa(a.N) }
func (a AtLeast) String() string { return strconv.Itoa(a.N) + "+" }
func (a Bound) String() string   { return a.Name }

func (a Exact) Range() (int, int)   { return a.N, a.N }
func (a AtLeast) Range() (int, int) { return a.N, -1 }
func (a Bound) Range() (int, int)   { return 0, -1 }

// Annotation is the declared kind of one parameter.
type Annotation interface {
	String() string
	annotation()
}

// Pack is a list of values with an arity and an element type; a nil Type
// admits any element type. Optional packs also admit an omitted argument.
type Pack struct {
	Arity    Arity
	Type     Type
	Optional bool
}

// VariableOf requires an initialized variable; Inner is Pack or Any.
type VariableOf struct {
	Inner Annotation
}

// New requires a variable, initialized or not.
type New struct{}

type Any struct{}

// Lazy receives the argument unevaluated.
type Lazy struct{}

func (Pack) annotation()       {}
func (VariableOf) annotation() {}
func (New) annotation()        {}
func (Any) annotation()        {}
func (Lazy) annotation()       {}

func (p Pack) String() string {
	var parts []string
	if p.Arity != nil {
		parts = append(parts, p.Arity.String())
	}
	if p.Type != nil {
		parts = append(parts, p.Type.String())
	}
	if p.Optional {
		parts = append(parts, "?")
	}
	return strings.Join(parts, " ")
}
func (v VariableOf) String() string {
	if v.Inner == nil {
		return "var"
	}
	return "var " + v.Inner.String()
}
func (New) String() string  { return "new" }
func (Any) String() string  { return "any" }
func (Lazy) String() string { return "lazy" }

// Signature is the declared parameter list of one overload.
type Signature struct {
	Params     []Annotation
	Antecedent Annotation
}

func (s Signature) String() string {
	parts := make([]string, len(s.Params))
	for i, p := range s.Params {
		parts[i] = "{" + p.String() + "}"
	}
	out := "(" + strings.Join(parts, ", ") + ")"
	if s.Antecedent != nil {
		out = "<" + s.Antecedent.String() + "> " + out
	}
	return out
}

// LazyAt reports whether parameter i is declared Lazy.
func (s Signature) LazyAt(i int) bool {
	if i < 0 || i >= len(s.Params) {
		return false
	}
	_, ok := s.Params[i].(Lazy)
	return ok
}

// ParseAnnotation reads the space separated annotation words of a generic
// term: new | any | lazy | var <pack-or-any> | [arity] [type].
// An empty word list yields Any.
func ParseAnnotation(words []string) (Annotation, error) {
	if len(words) == 0 {
		return Any{}, nil
	}
	switch words[0] {
	case "new", "any", "lazy":
		if len(words) > 1 {
			return nil, fmt.Errorf("%s takes no arity or type", words[0])
		}
		switch words[0] {
		case "new":
			return New{}, nil
		case "any":
			return Any{}, nil
		}
		return Lazy{}, nil
	case "var":
		if len(words) == 1 {
			return VariableOf{Inner: Any{}}, nil
		}
		inner, err := ParseAnnotation(words[1:])
		if err != nil {
			return nil, err
		}
		switch inner.(type) {
		case Pack, Any:
			return VariableOf{Inner: inner}, nil
		}
		return nil, fmt.Errorf("var must wrap a pack or any, got %s", inner)
	}
	return parsePack(words)
}

func parsePack(words []string) (Annotation, error) {
	p := Pack{Arity: Exact{N: 1}}
	rest := words
	if a, ok, err := parseArity(rest[0]); err != nil {
		return nil, err
	} else if ok {
		p.Arity = a
		rest = rest[1:]
	}
	if len(rest) > 0 {
		t, n, err := parseType(rest)
		if err != nil {
			return nil, err
		}
		if n != len(rest) {
			return nil, fmt.Errorf("unexpected %q", strings.Join(rest[n:], " "))
		}
		p.Type = t
	}
	return p, nil
}

func parseArity(w string) (Arity, bool, error) {
	if w == "" || w == "list" {
		return nil, false, nil
	}
	if unicode.IsDigit(rune(w[0])) {
		digits := strings.TrimSuffix(w, "+")
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return nil, false, fmt.Errorf("bad arity %q", w)
		}
		if strings.HasSuffix(w, "+") {
			return AtLeast{N: n}, true, nil
		}
		return Exact{N: n}, true, nil
	}
	if isLowerASCII(w) {
		return Bound{Name: w}, true, nil
	}
	return nil, false, nil
}

// parseType consumes a type from the front of words and reports how many
// words it used.
func parseType(words []string) (Type, int, error) {
	if len(words) == 0 {
		return nil, 0, fmt.Errorf("missing type")
	}
	w := words[0]
	if w == "list" {
		elem, n, err := parseType(words[1:])
		if err != nil {
			return nil, 0, err
		}
		return ListOf{Elem: elem}, n + 1, nil
	}
	if p, ok := LookupPrim(w); ok {
		return p, 1, nil
	}
	if isUpperASCII(w) {
		return Param{Name: w}, 1, nil
	}
	return nil, 0, fmt.Errorf("unknown type %q", w)
}

func isLowerASCII(w string) bool {
	for _, r := range w {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return w != ""
}

func isUpperASCII(w string) bool {
	if w == "" || w[0] < 'A' || w[0] > 'Z' {
		return false
	}
	for _, r := range w {
		if !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
