// Package malgeul embeds the interpreter in Go programs: bind Go functions
// to sentence patterns, then evaluate text that uses them.
package malgeul

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/funvibe/malgeul/internal/backend"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/lexer"
	"github.com/funvibe/malgeul/internal/modules"
	"github.com/funvibe/malgeul/internal/parser"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/prelude"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// VM holds a prelude, the patterns bound from Go and the variables set by
// evaluated text. Variables persist from one Eval to the next; patterns
// declared by evaluated text do not.
type VM struct {
	settings   config.Settings
	base       *modules.Module
	loader     *modules.Loader
	session    *backend.TreeWalkBackend
	marshaller *Marshaller
	out        io.Writer
}

// New creates a VM with the default settings.
func New() (*VM, error) {
	return newVM(config.Default())
}

// NewFromConfig creates a VM with settings read from a YAML file, then
// from MALGEUL_* variables. An empty path reads the environment only.
func NewFromConfig(path string) (*VM, error) {
	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return newVM(settings)
}

func newVM(settings config.Settings) (*VM, error) {
	base, err := prelude.New(settings)
	if err != nil {
		return nil, err
	}
	return &VM{
		settings:   settings,
		base:       base,
		loader:     modules.NewLoader(settings, base),
		session:    backend.NewSession(settings),
		marshaller: NewMarshaller(),
		out:        os.Stdout,
	}, nil
}

// Close releases every module the VM created.
func (v *VM) Close() error {
	return errors.Join(v.loader.Close(), v.base.Close())
}

// SetOutput redirects what the text prints.
func (v *VM) SetOutput(w io.Writer) {
	v.out = w
}

// Bind registers a Go function as the procedure of a pattern. Each pattern
// parameter is converted to the matching function parameter; a trailing
// error result fails the call. Text evaluated after Bind sees the pattern.
func (v *VM) Bind(pattern string, fn interface{}) error {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return fmt.Errorf("bind %q: %T is not a function", pattern, fn)
	}
	_, err := v.base.LoadPattern(pattern, v.native(rv))
	return err
}

// Alias registers pattern as another way to say target.
func (v *VM) Alias(pattern, target string) error {
	_, err := v.base.LoadAlias(pattern, target)
	return err
}

// Word adds a lemma with its part of speech, e.g. Word("사과", "명사").
func (v *VM) Word(lemma, pos string) error {
	return v.base.LoadVocab(lemma, pos)
}

func (v *VM) native(fn reflect.Value) evaluator.Native {
	fnType := fn.Type()
	return func(c *evaluator.Call) (evaluator.Values, error) {
		if len(c.Args) != fnType.NumIn() {
			return nil, c.Errorf("expected %d arguments, got %d", fnType.NumIn(), len(c.Args))
		}
		goArgs := make([]reflect.Value, len(c.Args))
		for i := range c.Args {
			targetType := fnType.In(i)
			val, err := v.marshaller.FromValues(c.Values(i), targetType)
			if err != nil {
				return nil, c.Errorf("argument %d conversion failed: %v", i+1, err)
			}
			if val == nil {
				goArgs[i] = reflect.Zero(targetType)
				continue
			}
			goArgs[i] = reflect.ValueOf(val)
			if !goArgs[i].Type().AssignableTo(targetType) && goArgs[i].Type().ConvertibleTo(targetType) {
				goArgs[i] = goArgs[i].Convert(targetType)
			}
		}

		results := fn.Call(goArgs)
		if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
			if err, _ := results[n-1].Interface().(error); err != nil {
				return nil, c.Errorf("%v", err)
			}
			results = results[:n-1]
		}
		switch len(results) {
		case 0:
			return evaluator.Values{}, nil
		case 1:
			vs, err := v.marshaller.ToValues(results[0].Interface())
			if err != nil {
				return nil, c.Errorf("%v", err)
			}
			return vs, nil
		}
		out := make(evaluator.Values, len(results))
		for i, res := range results {
			val, err := v.marshaller.ToValue(res.Interface())
			if err != nil {
				return nil, c.Errorf("%v", err)
			}
			out[i] = val
		}
		return out, nil
	}
}

// Set assigns a variable visible to evaluated text.
func (v *VM) Set(name string, val interface{}) error {
	vs, err := v.marshaller.ToValues(val)
	if err != nil {
		return err
	}
	v.session.Evaluator().Globals.Box(name).Set(vs)
	return nil
}

// Get reads a variable assigned by evaluated text or by Set.
func (v *VM) Get(name string) (interface{}, error) {
	box, ok := v.session.Evaluator().Globals.Get(name)
	if !ok {
		return nil, fmt.Errorf("variable '%s' not found", name)
	}
	vs, err := box.Get()
	if err != nil {
		return nil, err
	}
	return v.marshaller.FromValues(vs, nil)
}

// Eval runs text and returns the value of its last sentence.
func (v *VM) Eval(code string) (interface{}, error) {
	return v.run(code, "")
}

// LoadFile runs a file. Its imports resolve relative to its directory.
func (v *VM) LoadFile(path string) (interface{}, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return v.run(string(content), path)
}

func (v *VM) run(code, path string) (interface{}, error) {
	ctx := pipeline.NewPipelineContext(code)
	ctx.FilePath = path
	ctx.Settings = v.settings
	ctx.Loader = v.loader
	ctx.Output = v.out

	exec := backend.NewExecutionProcessor(v.session)
	ctx = pipeline.New(
		&modules.LoadProcessor{},
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		exec,
	).Run(ctx)

	if len(ctx.Errors) > 0 {
		return nil, joinErrors(ctx)
	}
	return v.marshaller.FromValues(exec.Last, nil)
}

func joinErrors(ctx *pipeline.PipelineContext) error {
	if len(ctx.Errors) == 1 {
		return ctx.Errors[0]
	}
	msgs := make([]string, len(ctx.Errors))
	for i, e := range ctx.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d errors:\n%s", len(ctx.Errors), strings.Join(msgs, "\n"))
}

// Run evaluates source on a fresh VM and returns the printed output
// followed by the value of the last sentence.
func Run(source, path string) (string, error) {
	v, err := New()
	if err != nil {
		return "", err
	}
	defer v.Close()

	var out strings.Builder
	v.SetOutput(&out)
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Settings = v.settings
	ctx.Loader = v.loader
	ctx.Output = &out
	ctx = pipeline.New(
		&modules.LoadProcessor{},
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(backend.NewTreeWalk()),
	).Run(ctx)
	if err := ctx.Err(); err != nil {
		return out.String(), err
	}
	return out.String() + ctx.Result, nil
}
