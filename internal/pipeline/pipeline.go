package pipeline

import "fmt"

// Pipeline runs a program through its stages: load, lex, parse, execute.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run hands the context to every stage in order. Stages skip their work when
// ctx.Errors is non-empty, so a failed run still returns the context with the
// diagnostics of the first failing stage.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	trace := ctx.Logger("pipeline")
	for _, processor := range p.processors {
		before := len(ctx.Errors)
		ctx = processor.Process(ctx)
		if n := len(ctx.Errors) - before; n > 0 {
			trace.Printf("%s: %d error(s)", stageName(processor), n)
		} else {
			trace.Printf("%s: ok", stageName(processor))
		}
	}
	return ctx
}

func stageName(p Processor) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
