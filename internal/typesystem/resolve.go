package typesystem

import (
	"fmt"
	"strings"
)

// Resolve picks the index of the single most specific signature that
// accepts the arguments. It never silently falls through: zero matches is a
// NoMatchError and several minimal matches an AmbiguityError.
func Resolve(sigs []Signature, actuals []Actual, antecedent *ActualPack) (int, error) {
	var matching []int
	for i, s := range sigs {
		if MatchesSignature(s, actuals, antecedent) {
			matching = append(matching, i)
		}
	}
	if len(matching) == 0 {
		return -1, &NoMatchError{Actuals: actuals}
	}

	var minimal []int
	for _, i := range matching {
		dominated := false
		for _, j := range matching {
			if i != j && IsMoreSpecific(sigs[j], sigs[i]) {
				dominated = true
				break
			}
		}
		if !dominated {
			minimal = append(minimal, i)
		}
	}
	if len(minimal) != 1 {
		if len(minimal) == 0 {
			minimal = matching
		}
		cands := make([]Signature, len(minimal))
		for k, i := range minimal {
			cands[k] = sigs[i]
		}
		return -1, &AmbiguityError{Actuals: actuals, Candidates: cands}
	}
	return minimal[0], nil
}

// CheckSignature validates one signature on its own.
func CheckSignature(sig Signature) error {
	arityNames := map[string]bool{}
	typeNames := map[string]bool{}
	var collect func(a Annotation)
	collect = func(a Annotation) {
		switch v := a.(type) {
		case Pack:
			if b, ok := v.Arity.(Bound); ok {
				arityNames[b.Name] = true
			}
			params(v.Type, typeNames)
		case VariableOf:
			switch v.Inner.(type) {
			case Pack, Any:
				collect(v.Inner)
			default:
				typeNames["?"] = true
			}
		}
	}
	for _, p := range sig.Params {
		collect(p)
	}
	if sig.Antecedent != nil {
		switch sig.Antecedent.(type) {
		case New, Lazy, VariableOf:
			return &SignatureError{Reason: fmt.Sprintf("antecedent cannot be %s", sig.Antecedent)}
		}
		collect(sig.Antecedent)
	}
	if typeNames["?"] {
		return &SignatureError{Reason: "var must wrap a pack or any"}
	}
	for a := range arityNames {
		for t := range typeNames {
			if strings.EqualFold(a, t) {
				return &SignatureError{Reason: fmt.Sprintf("%q is used both as an arity and as a type parameter", a)}
			}
		}
	}
	return nil
}

// CheckCompatible validates a new overload against those already registered
// for the same pattern key: parameter count and lazy positions must agree.
func CheckCompatible(existing []Signature, sig Signature) error {
	for _, e := range existing {
		if len(e.Params) != len(sig.Params) {
			return &SignatureError{Reason: fmt.Sprintf("overload takes %d parameters, existing overload %s takes %d",
				len(sig.Params), e, len(e.Params))}
		}
		for i := range sig.Params {
			if e.LazyAt(i) != sig.LazyAt(i) {
				return &SignatureError{Reason: fmt.Sprintf("parameter %d is lazy in one overload only (%s vs %s)", i+1, e, sig)}
			}
		}
	}
	return nil
}
