package typesystem

// Witness records what each named parameter of the less specific side must
// cover. A type parameter collects the types it has to subsume, with the
// other side's parameters kept as opaque types. An arity variable collects
// the arities it meets; since its uses share one count, they must all be
// the same fixed count or the same variable. The comparison holds only if
// every parameter can be satisfied.
type Witness struct {
	subsumes map[string][]Type
	arities  map[string][]Arity
}

func NewWitness() *Witness {
	return &Witness{subsumes: map[string][]Type{}, arities: map[string][]Arity{}}
}

func (w *Witness) add(param string, t Type) {
	w.subsumes[param] = append(w.subsumes[param], t)
}

func (w *Witness) addArity(name string, a Arity) {
	w.arities[name] = append(w.arities[name], a)
}

// Satisfiable reports whether every accumulated parameter has a witness.
func (w *Witness) Satisfiable() bool {
	for _, ts := range w.subsumes {
		if _, ok := JoinAll(ts); !ok {
			return false
		}
	}
	for _, as := range w.arities {
		if !sameCount(as) {
			return false
		}
	}
	return true
}

// sameCount reports whether the arities always produce equal counts.
func sameCount(as []Arity) bool {
	if len(as) < 2 {
		return true
	}
	switch first := as[0].(type) {
	case Exact:
		for _, a := range as[1:] {
			if e, ok := a.(Exact); !ok || e.N != first.N {
				return false
			}
		}
		return true
	case Bound:
		for _, a := range as[1:] {
			if b, ok := a.(Bound); !ok || b.Name != first.Name {
				return false
			}
		}
		return true
	}
	return false
}

// IsMoreSpecific reports whether a is strictly more specific than b.
func IsMoreSpecific(a, b Signature) bool {
	return AtLeastAsSpecific(a, b) && !AtLeastAsSpecific(b, a)
}

// AtLeastAsSpecific is the preorder underlying IsMoreSpecific: every
// argument list accepted by a is also accepted by b.
func AtLeastAsSpecific(a, b Signature) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	w := NewWitness()
	for i := range a.Params {
		if !leq(a.Params[i], b.Params[i], w) {
			return false
		}
	}
	if !leq(orAny(a.Antecedent), orAny(b.Antecedent), w) {
		return false
	}
	return w.Satisfiable()
}

func orAny(a Annotation) Annotation {
	if a == nil {
		return Any{}
	}
	return a
}

func leq(a, b Annotation, w *Witness) bool {
	if _, ok := a.(New); ok {
		return true
	}
	if _, ok := b.(New); ok {
		return false
	}
	switch b.(type) {
	case Any, Lazy:
		return true
	}
	switch av := a.(type) {
	case Any, Lazy:
		return false
	case VariableOf:
		switch bv := b.(type) {
		case VariableOf:
			return leqInner(av.Inner, bv.Inner, w)
		case Pack:
			ap, ok := av.Inner.(Pack)
			return ok && leqPack(ap, bv, w)
		}
	case Pack:
		bp, ok := b.(Pack)
		return ok && leqPack(av, bp, w)
	}
	return false
}

func leqInner(a, b Annotation, w *Witness) bool {
	if _, ok := b.(Any); ok {
		return true
	}
	ap, ok := a.(Pack)
	if !ok {
		return false
	}
	bp, ok := b.(Pack)
	return ok && leqPack(ap, bp, w)
}

func leqPack(a, b Pack, w *Witness) bool {
	if a.Optional && !b.Optional {
		return false
	}
	if !rangeWithin(a.Arity, b.Arity) {
		return false
	}
	if bb, ok := b.Arity.(Bound); ok {
		w.addArity(bb.Name, a.Arity)
	}
	return leqType(a.Type, b.Type, w)
}

func rangeWithin(a, b Arity) bool {
	alo, ahi := arityRange(a)
	blo, bhi := arityRange(b)
	if alo < blo {
		return false
	}
	if bhi < 0 {
		return true
	}
	return ahi >= 0 && ahi <= bhi
}

func arityRange(a Arity) (int, int) {
	if a == nil {
		return 0, -1
	}
	return a.Range()
}

func leqType(a, b Type, w *Witness) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}
	if bp, ok := b.(Param); ok {
		w.add(bp.Name, a)
		return true
	}
	switch at := a.(type) {
	case Param:
		return false
	case Prim:
		return Subtype(at, b)
	case ListOf:
		bl, ok := b.(ListOf)
		if !ok {
			return false
		}
		return leqType(at.Elem, bl.Elem, w)
	}
	return false
}
