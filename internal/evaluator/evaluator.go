package evaluator

import (
	"errors"
	"io"
	"log"
	"os"

	"github.com/cockroachdb/apd"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

const maxCallDepth = 10000

// Evaluator walks trees, dispatching pattern keys to procedures.
//
// Antecedents live on a stack of frames: forcing a thunk or running a
// procedure body pushes the antecedent it was given. A linking clause does
// not push anything; it leaves its value pending until the next clause is
// bound to it. A newer pending value replaces an older one.
type Evaluator struct {
	Globals *Environment
	Out     io.Writer
	// Decimal is the arithmetic context for 수 values.
	Decimal *apd.Context

	trace   *log.Logger
	env     *Environment
	scope   Scope
	frames  []*Values
	pending *Values
	depth   int
}

func New(scope Scope, settings config.Settings, trace *log.Logger) *Evaluator {
	if trace == nil {
		trace = log.New(io.Discard, "", 0)
	}
	precision := settings.Precision
	if precision == 0 {
		precision = config.DefaultPrecision
	}
	globals := NewEnvironment()
	return &Evaluator{
		Globals: globals,
		Out:     os.Stdout,
		Decimal: apd.BaseContext.WithPrecision(precision),
		trace:   trace,
		env:     globals,
		scope:   scope,
	}
}

// SetScope replaces the scope used for top-level evaluation.
func (ev *Evaluator) SetScope(s Scope) { ev.scope = s }

func (ev *Evaluator) Scope() Scope { return ev.scope }

func (ev *Evaluator) push(v *Values) { ev.frames = append(ev.frames, v) }

func (ev *Evaluator) pop() { ev.frames = ev.frames[:len(ev.frames)-1] }

func (ev *Evaluator) current() *Values {
	if len(ev.frames) == 0 {
		return nil
	}
	return ev.frames[len(ev.frames)-1]
}

// Antecedent returns the value of the current frame.
func (ev *Evaluator) Antecedent() (Values, bool) {
	if a := ev.current(); a != nil {
		return *a, true
	}
	return nil, false
}

// SetPending records v as the antecedent of the next clause.
func (ev *Evaluator) SetPending(v Values) {
	ev.pending = &v
}

// TakePending removes and returns the pending antecedent.
func (ev *Evaluator) TakePending() (Values, bool) {
	p := ev.pending
	ev.pending = nil
	if p == nil {
		return nil, false
	}
	return *p, true
}

// RunSentences evaluates sentences in order and returns the value of the
// last one. Each sentence is bound to the pending antecedent, or else to
// the last non-empty value before it.
func (ev *Evaluator) RunSentences(forest []*ast.Tree) (Values, error) {
	last := Values{}
	var prev Values
	for _, tree := range forest {
		th := ev.NewThunk(tree)
		if p, ok := ev.TakePending(); ok {
			th.Bind(p)
		} else if len(prev) > 0 {
			th.Bind(prev)
		}
		v, err := th.Force()
		if err != nil {
			return nil, err
		}
		last = v
		if len(v) > 0 {
			prev = v
		}
	}
	return last, nil
}

func (ev *Evaluator) Eval(t *ast.Tree) (Values, error) {
	if t == nil {
		return Values{}, nil
	}
	if t.IsLeaf() {
		return ev.evalLeaf(t)
	}
	if t.IsConjunction() {
		var out Values
		for _, c := range t.Children {
			v, err := ev.Eval(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		}
		return out, nil
	}
	return ev.interpretGeneric(t)
}

func (ev *Evaluator) evalLeaf(t *ast.Tree) (Values, error) {
	tok := *t.Token
	switch tok.Kind {
	case token.NUMBER:
		v, ok := ParseNumber(tok.Lemma)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrI001, tok, "bad number literal "+tok.Lemma)
		}
		return Single(v), nil
	case token.IDENT:
		box, ok := ev.env.Get(tok.Lemma)
		if !ok {
			return nil, diagnostics.NewError(diagnostics.ErrR003, tok, tok.Lemma)
		}
		v, err := box.Get()
		return v, located(err, tok)
	case token.WORD:
		if procs := ev.procedures(t.Key); len(procs) > 0 {
			return ev.dispatch(t.Key, tok, procs, nil)
		}
		return Single(NewText(tok.Lemma)), nil
	}
	return nil, diagnostics.NewError(diagnostics.ErrI001, tok, "symbol outside of a pattern: "+tok.Lemma)
}

func (ev *Evaluator) procedures(key string) []*Procedure {
	if ev.scope == nil {
		return nil
	}
	return ev.scope.Procedures(key)
}

// interpretGeneric evaluates the children of a pattern node and calls the
// most specific visible procedure. Children in a position any overload
// declares lazy are passed unevaluated; variables are passed as boxes.
func (ev *Evaluator) interpretGeneric(t *ast.Tree) (Values, error) {
	tok := t.First()
	procs := ev.procedures(t.Key)
	if len(procs) == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrR001, tok, t.Key, "", "; nothing is registered for it")
	}
	lazy := lazyPositions(procs, len(t.Children))
	args := make([]Arg, len(t.Children))
	for i, c := range t.Children {
		switch {
		case lazy[i]:
			args[i] = ev.NewThunk(c)
		case c == nil:
			args[i] = Values{}
		case c.IsLeaf() && c.Token.Kind == token.IDENT:
			args[i] = ev.env.Box(c.Token.Lemma)
		default:
			v, err := ev.Eval(c)
			if err != nil {
				return nil, err
			}
			args[i] = v
		}
	}
	return ev.dispatch(t.Key, tok, procs, args)
}

func lazyPositions(procs []*Procedure, n int) []bool {
	lazy := make([]bool, n)
	for _, p := range procs {
		for i := range lazy {
			if p.Signature.LazyAt(i) {
				lazy[i] = true
			}
		}
	}
	return lazy
}

// dispatch resolves args against the overloads of key and invokes the
// winner. Thunks in positions no overload takes lazily are forced first.
func (ev *Evaluator) dispatch(key string, tok token.Token, procs []*Procedure, args []Arg) (Values, error) {
	lazy := lazyPositions(procs, len(args))
	actuals := make([]typesystem.Actual, len(args))
	var unset *Box
	for i, a := range args {
		switch v := a.(type) {
		case *Thunk:
			if lazy[i] {
				actuals[i] = typesystem.ActualThunk{}
				continue
			}
			forced, err := v.Force()
			if err != nil {
				return nil, err
			}
			args[i] = forced
			actuals[i] = forced.Actual()
		case *Box:
			act, err := v.Actual()
			if err != nil {
				return nil, located(err, tok)
			}
			if !act.Initialized && unset == nil {
				unset = v
			}
			actuals[i] = act
		case Values:
			if lazy[i] {
				args[i] = Evaluated(v)
				actuals[i] = typesystem.ActualThunk{}
				continue
			}
			actuals[i] = v.Actual()
		default:
			return nil, diagnostics.NewError(diagnostics.ErrI001, tok, "unexpected argument kind")
		}
	}

	var ante *typesystem.ActualPack
	if a := ev.current(); a != nil {
		act := a.Actual()
		ante = &act
	}
	sigs := make([]typesystem.Signature, len(procs))
	for i, p := range procs {
		sigs[i] = p.Signature
	}
	idx, err := typesystem.Resolve(sigs, actuals, ante)
	if err != nil {
		return nil, resolveError(err, key, tok, actuals, unset)
	}
	proc := procs[idx]
	ev.trace.Printf("dispatch %s (%s) => %s", key, typesystem.DescribeActuals(actuals), proc.Signature)

	for i, ann := range proc.Signature.Params {
		c, err := cast(ann, args[i])
		if err != nil {
			return nil, located(err, tok)
		}
		args[i] = c
	}
	return ev.invoke(proc, tok, args)
}

func resolveError(err error, key string, tok token.Token, actuals []typesystem.Actual, unset *Box) error {
	var nm *typesystem.NoMatchError
	var amb *typesystem.AmbiguityError
	switch {
	case errors.As(err, &nm):
		if unset != nil {
			return diagnostics.NewError(diagnostics.ErrR003, tok, unset.Name)
		}
		return diagnostics.NewError(diagnostics.ErrR001, tok, key, typesystem.DescribeActuals(actuals), "")
	case errors.As(err, &amb):
		return diagnostics.NewError(diagnostics.ErrR002, tok, key, typesystem.DescribeActuals(actuals),
			typesystem.DescribeSignatures(amb.Candidates))
	}
	return diagnostics.Wrap(err, diagnostics.ErrI001)
}

// cast converts an argument to the kind its parameter declares: a thunk for
// lazy, the box itself for new and var, values otherwise.
func cast(ann typesystem.Annotation, arg Arg) (Arg, error) {
	switch ann.(type) {
	case typesystem.Lazy:
		switch v := arg.(type) {
		case *Thunk:
			return v, nil
		case Values:
			return Evaluated(v), nil
		case *Box:
			vals, err := v.Get()
			if err != nil {
				return nil, err
			}
			return Evaluated(vals), nil
		}
	case typesystem.New, typesystem.VariableOf:
		if b, ok := arg.(*Box); ok {
			return b, nil
		}
		return nil, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "variable parameter without a box")
	default:
		switch v := arg.(type) {
		case Values:
			return v, nil
		case *Box:
			return v.Get()
		case *Thunk:
			return v.Force()
		}
	}
	return nil, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "unexpected argument kind")
}

func (ev *Evaluator) invoke(proc *Procedure, tok token.Token, args []Arg) (Values, error) {
	ev.depth++
	defer func() { ev.depth-- }()
	if ev.depth > maxCallDepth {
		return nil, diagnostics.NewError(diagnostics.ErrR005, tok, "call depth limit exceeded in "+proc.Key)
	}

	call := &Call{Ev: ev, Key: proc.Key, Token: tok, Args: args, Antecedent: ev.current()}
	switch {
	case proc.Protocol != nil:
		return ev.unwrap(proc, call)
	case proc.Native != nil:
		v, err := proc.Native(call)
		if err != nil {
			return nil, locatedOr(err, tok, diagnostics.ErrR005)
		}
		if v == nil {
			v = Values{}
		}
		return v, nil
	}
	return ev.runBody(proc, call)
}

// unwrap maps the arguments of an alias onto its target and dispatches
// again on the target key.
func (ev *Evaluator) unwrap(proc *Procedure, call *Call) (Values, error) {
	p := proc.Protocol
	target := make([]Arg, len(p.Slots))
	for i, s := range p.Slots {
		if s.FromAntecedent {
			v, err := call.RequireAntecedent()
			if err != nil {
				return nil, err
			}
			target[i] = v
			continue
		}
		target[i] = call.Args[s.Arg]
	}
	scope := proc.Scope
	if scope == nil {
		scope = ev.scope
	}
	procs := scope.Procedures(p.Target)
	if len(procs) == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrR001, call.Token, p.Target, "", "; nothing is registered for it")
	}
	return ev.dispatch(p.Target, call.Token, procs, target)
}

// runBody evaluates an expression body in a fresh scope with the
// parameters bound by name and the call's antecedent as current frame.
func (ev *Evaluator) runBody(proc *Procedure, call *Call) (Values, error) {
	env := NewEnclosedEnvironment(ev.Globals)
	for i, name := range proc.Names {
		if name == "" || i >= len(call.Args) {
			continue
		}
		switch v := call.Args[i].(type) {
		case *Box:
			env.Bind(name, v)
		case *Thunk:
			b := NewBox(name)
			b.lazy = v
			env.Bind(name, b)
		case Values:
			b := NewBox(name)
			b.Set(v)
			env.Bind(name, b)
		}
	}

	savedEnv, savedScope, savedPending := ev.env, ev.scope, ev.pending
	ev.env, ev.pending = env, nil
	if proc.Scope != nil {
		ev.scope = proc.Scope
	}
	ev.push(call.Antecedent)

	v, err := ev.RunSentences(proc.Body)

	ev.pop()
	ev.env, ev.scope, ev.pending = savedEnv, savedScope, savedPending
	return v, err
}

// located attaches tok to diagnostics that carry no position yet.
func located(err error, tok token.Token) error {
	if err == nil {
		return nil
	}
	if de, ok := diagnostics.As(err); ok {
		return de.At(tok)
	}
	return err
}

func locatedOr(err error, tok token.Token, code diagnostics.ErrorCode) error {
	if _, ok := diagnostics.As(err); !ok {
		return diagnostics.NewError(code, tok, err.Error())
	}
	return located(err, tok)
}
