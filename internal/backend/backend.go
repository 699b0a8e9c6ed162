// Package backend runs parsed programs. The pipeline talks to a Backend so
// the REPL can keep one evaluator alive across inputs.
package backend

import (
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/pipeline"
)

// Backend is the interface for execution backends
type Backend interface {
	// Run evaluates ctx.Forest and returns the value of the last sentence
	Run(ctx *pipeline.PipelineContext) (evaluator.Values, error)

	// Name returns the backend name for display
	Name() string
}
