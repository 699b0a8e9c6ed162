package evaluator

import (
	"github.com/funvibe/malgeul/internal/ast"
)

// Thunk is a suspended evaluation of a tree. It remembers the environment,
// scope and antecedent in effect where it was created. An antecedent may be
// bound once before the first Force; the result is memoised.
type Thunk struct {
	ev         *Evaluator
	tree       *ast.Tree
	env        *Environment
	scope      Scope
	antecedent *Values
	bound      bool

	done   bool
	result Values
	err    error
}

// NewThunk suspends tree in the current evaluation state. A nil tree forces
// to no values.
func (ev *Evaluator) NewThunk(tree *ast.Tree) *Thunk {
	return &Thunk{ev: ev, tree: tree, env: ev.env, scope: ev.scope, antecedent: ev.current()}
}

// Evaluated wraps values that are already known.
func Evaluated(v Values) *Thunk {
	return &Thunk{done: true, result: v}
}

// Bind sets the antecedent the thunk sees when forced. Only the first Bind
// before forcing has an effect; it reports whether this one did.
func (t *Thunk) Bind(v Values) bool {
	if t.bound || t.done {
		return false
	}
	t.antecedent = &v
	t.bound = true
	return true
}

// Forced reports whether the thunk has been evaluated.
func (t *Thunk) Forced() bool { return t.done }

func (t *Thunk) Force() (Values, error) {
	if t.done {
		return t.result, t.err
	}
	if t.tree == nil {
		t.done = true
		t.result = Values{}
		return t.result, nil
	}
	ev := t.ev
	env, scope := ev.env, ev.scope
	ev.env, ev.scope = t.env, t.scope
	ev.push(t.antecedent)

	t.result, t.err = ev.Eval(t.tree)

	ev.pop()
	ev.env, ev.scope = env, scope
	t.done = true
	return t.result, t.err
}
