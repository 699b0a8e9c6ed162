package lexer

import (
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/token"
)

// Tokenizer is implemented by modules, which know their visible vocabulary.
type Tokenizer interface {
	Tokenize(frags []Fragment) ([]token.Token, error)
}

// LexerProcessor tokenizes the program text gathered by the load step.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if len(ctx.Errors) > 0 {
		return ctx
	}
	tz, ok := ctx.Module.(Tokenizer)
	if !ok {
		ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrI001, token.Token{}, "lexer: no module loaded"))
		return ctx
	}
	frags, _ := ctx.Fragments.([]Fragment)
	toks, err := tz.Tokenize(frags)
	if err != nil {
		ctx.AddError(err, diagnostics.ErrI001)
		return ctx
	}
	ctx.TokenStream = toks
	return ctx
}
