package evaluator

import (
	"fmt"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Scope supplies the procedures visible for a pattern key. Modules
// implement it; the result includes overloads from imported modules.
type Scope interface {
	Procedures(key string) []*Procedure
}

// Native is a procedure implemented in Go.
type Native func(c *Call) (Values, error)

// Procedure is one overload registered for a pattern key. Exactly one of
// Native, Body and Protocol is set.
type Procedure struct {
	Key       string
	Signature typesystem.Signature
	// Names are the @names of the parameters, used to bind them in Body.
	Names    []string
	Native   Native
	Body     []*ast.Tree
	Protocol *Protocol
	// Scope is where the procedure was defined; bodies evaluate in it.
	Scope Scope
}

func (p *Procedure) String() string {
	return p.Key + " " + p.Signature.String()
}

// Protocol makes a procedure an alias of another pattern key. Each slot
// fills one parameter of the target.
type Protocol struct {
	Target string
	Slots  []Slot
}

// Slot takes the target argument from the alias argument Arg, or from the
// antecedent.
type Slot struct {
	Arg            int
	FromAntecedent bool
}

func (s Slot) String() string {
	if s.FromAntecedent {
		return "antecedent"
	}
	return fmt.Sprintf("#%d", s.Arg+1)
}

// Arg is one argument as passed to a procedure: Values, *Box or *Thunk.
type Arg interface{}

// Call is the calling convention of native procedures.
type Call struct {
	Ev    *Evaluator
	Key   string
	Token token.Token
	Args  []Arg
	// Antecedent is the value carried in from the previous clause, nil
	// when there is none.
	Antecedent *Values
}

func (c *Call) Values(i int) Values {
	v, _ := c.Args[i].(Values)
	return v
}

func (c *Call) Thunk(i int) *Thunk {
	th, _ := c.Args[i].(*Thunk)
	return th
}

func (c *Call) Box(i int) *Box {
	b, _ := c.Args[i].(*Box)
	return b
}

// Omitted reports whether an optional argument was left out.
func (c *Call) Omitted(i int) bool {
	v, ok := c.Args[i].(Values)
	return ok && len(v) == 0
}

// RequireAntecedent returns the antecedent or fails with R004.
func (c *Call) RequireAntecedent() (Values, error) {
	if c.Antecedent == nil {
		return nil, diagnostics.NewError(diagnostics.ErrR004, c.Token, c.Key)
	}
	return *c.Antecedent, nil
}

// Errorf reports an arithmetic or domain failure at the call site.
func (c *Call) Errorf(format string, args ...interface{}) error {
	return diagnostics.NewError(diagnostics.ErrR005, c.Token, fmt.Sprintf(format, args...))
}
