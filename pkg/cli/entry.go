package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/malgeul/internal/backend"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/lexer"
	"github.com/funvibe/malgeul/internal/modules"
	"github.com/funvibe/malgeul/internal/parser"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/prelude"
	"github.com/funvibe/malgeul/internal/prettyprinter"
)

const usage = `Usage:
  malgeul                  start the REPL, or run stdin when it is not a terminal
  malgeul <file>           run a program
  malgeul run <file>       run a program
  malgeul check <file>     parse a program without running it
  malgeul tree <file>      print the sentence trees of a program
  malgeul -e <text>        run the text given on the command line
  malgeul repl             start the REPL
  malgeul -version         print the version
`

// isSourceFile checks if a file has a recognized source extension
func isSourceFile(path string) bool {
	for _, ext := range config.SourceFileExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Run is the entry of the malgeul command.
func Run() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if code := Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// Main runs the command line and returns the exit status.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		if isTerminal(stdin) {
			return runREPL(stdout, stderr)
		}
		source, err := io.ReadAll(stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error reading input: %v\n", err)
			return 1
		}
		return runSource(string(source), "", stdout, stderr)
	}

	switch args[0] {
	case "-v", "-version", "--version":
		fmt.Fprintln(stdout, "malgeul "+config.Version)
		return 0
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	case "repl":
		return runREPL(stdout, stderr)
	case "-e":
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		return runSource(strings.Join(args[1:], " "), "", stdout, stderr)
	case "run", "check", "tree":
		if len(args) < 2 {
			fmt.Fprint(stderr, usage)
			return 2
		}
		if args[0] == "run" {
			return runFile(args[1], stdout, stderr)
		}
		return checkFile(args[1], args[0] == "tree", stdout, stderr)
	}

	if isSourceFile(args[0]) {
		return runFile(args[0], stdout, stderr)
	}
	if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
		// A directory runs its entry file, named after the directory.
		for _, ext := range config.SourceFileExtensions {
			candidate := filepath.Join(args[0], filepath.Base(args[0])+ext)
			if _, err := os.Stat(candidate); err == nil {
				return runFile(candidate, stdout, stderr)
			}
		}
		fmt.Fprintf(stderr, "Entry file not found for package directory: %s\n", args[0])
		return 1
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
	return 2
}

func runFile(path string, stdout, stderr io.Writer) int {
	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	source, err := os.ReadFile(absPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}
	return runSource(string(source), absPath, stdout, stderr)
}

// runSource runs a whole program through the pipeline and prints the value
// of its last sentence after whatever it printed itself.
func runSource(source, path string, stdout, stderr io.Writer) int {
	ctx, code := newContext(source, path, stderr)
	if ctx == nil {
		return code
	}
	defer closeContext(ctx)
	ctx.Output = stdout

	ctx = pipeline.New(
		&modules.LoadProcessor{},
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(backend.NewTreeWalk()),
	).Run(ctx)

	if len(ctx.Errors) > 0 {
		reportErrors(stderr, ctx.Errors)
		return 1
	}
	if ctx.Result != "" {
		fmt.Fprintln(stdout, ctx.Result)
	}
	return 0
}

// checkFile loads and parses a program, then reports the number of
// sentences or prints their trees.
func checkFile(path string, showTrees bool, stdout, stderr io.Writer) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading input: %v\n", err)
		return 1
	}
	absPath, _ := filepath.Abs(path)
	ctx, code := newContext(string(source), absPath, stderr)
	if ctx == nil {
		return code
	}
	defer closeContext(ctx)

	ctx = pipeline.New(
		&modules.LoadProcessor{},
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
	).Run(ctx)
	if len(ctx.Errors) > 0 {
		reportErrors(stderr, ctx.Errors)
		return 1
	}
	if showTrees {
		fmt.Fprint(stdout, prettyprinter.NewTreePrinter().PrintForest(ctx.Forest))
		return 0
	}
	fmt.Fprintf(stdout, "%s: %d sentences\n", path, len(ctx.Forest))
	return 0
}

// newContext prepares a pipeline context with settings found next to path
// and a loader over a fresh prelude.
func newContext(source, path string, stderr io.Writer) (*pipeline.PipelineContext, int) {
	settings, err := config.LoadFor(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 1
	}
	base, err := prelude.New(settings)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 1
	}
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = path
	ctx.Settings = settings
	ctx.Loader = modules.NewLoader(settings, base)
	return ctx, 0
}

func closeContext(ctx *pipeline.PipelineContext) {
	if loader, ok := ctx.Loader.(*modules.Loader); ok {
		loader.Close()
		loader.Base.Close()
	}
}

const (
	colorRed   = "\033[31m"
	colorReset = "\033[0m"
)

func reportErrors(w io.Writer, errs []*diagnostics.DiagnosticError) {
	color := useColor(w)
	for _, err := range errs {
		if color {
			fmt.Fprintf(w, "%s%s%s\n", colorRed, err.Error(), colorReset)
			continue
		}
		fmt.Fprintln(w, err.Error())
	}
}

func reportError(w io.Writer, err error) {
	reportErrors(w, []*diagnostics.DiagnosticError{diagnostics.Wrap(err, diagnostics.ErrI001)})
}

// useColor follows the NO_COLOR convention and only colors terminals.
func useColor(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTerminal(w)
}

func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
