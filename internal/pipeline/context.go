package pipeline

import (
	"io"
	"log"
	"os"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries the state of one run between stages.
type PipelineContext struct {
	SourceCode string
	FilePath   string
	Settings   config.Settings

	// Module is the loaded *modules.Module; Loader the *modules.Loader that
	// resolved its imports. Both are untyped to keep this package at the
	// bottom of the import graph.
	Module interface{}
	Loader interface{}

	// Fragments is the program text left after declarations ([]lexer.Fragment).
	Fragments   interface{}
	TokenStream []token.Token
	Forest      []*ast.Tree

	// Output receives text printed by the program.
	Output io.Writer
	// Result is the formatted value of the last sentence.
	Result string

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{
		SourceCode: source,
		Settings:   config.Default(),
		Output:     os.Stdout,
	}
}

// Err returns the first collected error, or nil.
func (ctx *PipelineContext) Err() error {
	if len(ctx.Errors) == 0 {
		return nil
	}
	return ctx.Errors[0]
}

// Logger returns the trace logger for a stage; it discards output unless
// tracing is enabled.
func (ctx *PipelineContext) Logger(stage string) *log.Logger {
	return TraceLogger(ctx.Settings, stage)
}

func TraceLogger(s config.Settings, stage string) *log.Logger {
	if !s.Trace {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, stage+": ", log.Lmicroseconds)
}

// AddError records err, converting plain errors into diagnostics.
func (ctx *PipelineContext) AddError(err error, code diagnostics.ErrorCode) {
	de := diagnostics.Wrap(err, code)
	if de.File == "" {
		de.File = ctx.FilePath
	}
	ctx.Errors = append(ctx.Errors, de)
}
