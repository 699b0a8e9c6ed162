package backend

import (
	"fmt"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/pipeline"
)

// TreeWalkBackend evaluates sentence trees directly.
//
// A persistent backend keeps its evaluator between runs, so variables
// survive from one REPL input to the next.
type TreeWalkBackend struct {
	persistent bool
	eval       *evaluator.Evaluator
}

// NewTreeWalk creates a backend that starts fresh on every run
func NewTreeWalk() *TreeWalkBackend {
	return &TreeWalkBackend{}
}

// NewSession creates a backend whose state outlives a single run. The
// evaluator exists from the start so callers can seed its globals.
func NewSession(settings config.Settings) *TreeWalkBackend {
	return &TreeWalkBackend{
		persistent: true,
		eval:       evaluator.New(nil, settings, pipeline.TraceLogger(settings, "eval")),
	}
}

// Run executes ctx.Forest against the module in ctx.Module
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (evaluator.Values, error) {
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}
	scope, ok := ctx.Module.(evaluator.Scope)
	if !ok {
		return nil, fmt.Errorf("invalid module in context")
	}

	eval := b.eval
	if b.persistent {
		eval.SetScope(scope)
	} else {
		eval = evaluator.New(scope, ctx.Settings, ctx.Logger("eval"))
	}
	if ctx.Output != nil {
		eval.Out = ctx.Output
	}
	return eval.RunSentences(ctx.Forest)
}

// Evaluator returns the evaluator kept by a session, or nil.
func (b *TreeWalkBackend) Evaluator() *evaluator.Evaluator {
	return b.eval
}

// Name returns the backend name
func (b *TreeWalkBackend) Name() string {
	return "tree-walk"
}
