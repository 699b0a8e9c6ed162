package evaluator

import (
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Box is a variable cell. A new box holds nothing until the first Set;
// reading it before that fails with R003. A box bound to a lazy argument
// forces the argument on first read.
type Box struct {
	Name  string
	set   bool
	value Values
	lazy  *Thunk
}

func NewBox(name string) *Box {
	return &Box{Name: name}
}

// Initialized reports whether the box holds a value (or a lazy argument).
func (b *Box) Initialized() bool {
	return b.set || b.lazy != nil
}

func (b *Box) Get() (Values, error) {
	if b.lazy != nil {
		v, err := b.lazy.Force()
		if err != nil {
			return nil, err
		}
		b.lazy = nil
		b.Set(v)
	}
	if !b.set {
		return nil, diagnostics.NewError(diagnostics.ErrR003, token.Token{}, b.Name)
	}
	return b.value, nil
}

func (b *Box) Set(v Values) {
	b.value = append(Values(nil), v...)
	b.set = true
	b.lazy = nil
}

// Actual describes the box for signature matching. A lazily bound box is
// forced here so that its content type is known.
func (b *Box) Actual() (typesystem.ActualBox, error) {
	a := typesystem.ActualBox{Name: b.Name, Initialized: b.Initialized()}
	if !a.Initialized {
		return a, nil
	}
	v, err := b.Get()
	if err != nil {
		return a, err
	}
	a.Content = v.Actual()
	return a, nil
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]*Box)}
}

func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Environment maps variable names to boxes. Lookups walk outward.
// An evaluator and its environments belong to one goroutine.
type Environment struct {
	store map[string]*Box
	outer *Environment
}

func (e *Environment) Get(name string) (*Box, bool) {
	box, ok := e.store[name]
	if !ok && e.outer != nil {
		box, ok = e.outer.Get(name)
	}
	return box, ok
}

// Bind puts box into this scope under name, shadowing outer ones.
func (e *Environment) Bind(name string, box *Box) *Box {
	e.store[name] = box
	return box
}

// Box returns the visible box for name, creating a new one in this scope
// when there is none.
func (e *Environment) Box(name string) *Box {
	if box, ok := e.Get(name); ok {
		return box
	}
	return e.Bind(name, NewBox(name))
}
