package modules

import (
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/token"
)

// LoadProcessor builds the module for ctx.SourceCode with the loader in
// ctx.Loader and leaves its program text for the lexer.
type LoadProcessor struct{}

func (lp *LoadProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 {
		return ctx
	}
	loader, ok := ctx.Loader.(*Loader)
	if !ok {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "load: no loader configured"))
		return ctx
	}
	mod, err := loader.LoadSource(ctx.FilePath, ctx.SourceCode)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrR006)
		return ctx
	}
	ctx.Module = mod
	ctx.Fragments = mod.Program
	return ctx
}
