package parser

import (
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/pattern"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/token"
)

// Grammar is implemented by modules: the patterns visible to their text.
type Grammar interface {
	Index() *pattern.Index
}

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 {
		return ctx
	}
	g, ok := ctx.Module.(Grammar)
	if !ok {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "parser: no module loaded"))
		return ctx
	}

	p := New(g.Index(), ctx.Settings, ctx.Logger("parser"))
	forest, err := p.ParseProgram(ctx.TokenStream)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrI001)
		return ctx
	}
	ctx.Forest = forest
	return ctx
}
