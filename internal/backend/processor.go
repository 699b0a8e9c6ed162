package backend

import (
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/pipeline"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
	// Last holds the values of the most recent successful run.
	Last evaluator.Values
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.Forest == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if err != nil {
		// Runtime failures the evaluator did not classify are reported as
		// internal errors so they stay visible in the exit status.
		ctx.AddError(err, diagnostics.ErrI001)
		return ctx
	}
	p.Last = result
	ctx.Result = result.Inspect()
	return ctx
}
