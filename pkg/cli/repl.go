package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/malgeul/internal/backend"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/lexer"
	"github.com/funvibe/malgeul/internal/modules"
	"github.com/funvibe/malgeul/internal/parser"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/prelude"
)

const (
	historyFile = ".malgeul_history"
	promptMain  = "말> "
	promptCont  = "..  "
)

const helpText = `Sentences end with 다 and a period, e.g. 1과 2를 더하다.
Directives (#단어, #같은말, #약속, #바꿈, #가져오기) extend the session.
A #약속 body continues on indented lines and ends at an empty line.

  :help            show this text
  :patterns [word] list visible patterns, optionally those mentioning word
  :load <file>     run a file inside the session
  :reset           start over with a fresh prelude
  :quit            leave
`

// session is the state the REPL keeps between inputs: one module that every
// input extends, and one evaluator whose variables persist.
type session struct {
	settings config.Settings
	base     *modules.Module
	loader   *modules.Loader
	mod      *modules.Module
	exec     *backend.TreeWalkBackend
	out      io.Writer
}

func newSession(settings config.Settings, out io.Writer) (*session, error) {
	base, err := prelude.New(settings)
	if err != nil {
		return nil, err
	}
	loader := modules.NewLoader(settings, base)
	mod, err := loader.LoadSource("", "")
	if err != nil {
		loader.Close()
		base.Close()
		return nil, err
	}
	return &session{
		settings: settings,
		base:     base,
		loader:   loader,
		mod:      mod,
		exec:     backend.NewSession(settings),
		out:      out,
	}, nil
}

func (s *session) Close() error {
	return errors.Join(s.loader.Close(), s.base.Close())
}

// eval applies the declarations in src to the session module and runs the
// rest. It returns the value of the last sentence.
func (s *session) eval(src string) (string, error) {
	frags, err := s.loader.Extend(s.mod, src)
	if err != nil {
		return "", err
	}
	ctx := pipeline.NewPipelineContext(src)
	ctx.Settings = s.settings
	ctx.Module = s.mod
	ctx.Loader = s.loader
	ctx.Fragments = frags
	ctx.Output = s.out

	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(s.exec),
	).Run(ctx)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return ctx.Result, nil
}

// patterns lists the visible pattern keys, filtered by a word they mention.
func (s *session) patterns(word string) []string {
	var out []string
	for _, k := range s.mod.Keys() {
		if word == "" || strings.Contains(k, word) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func runREPL(stdout, stderr io.Writer) int {
	settings, err := config.Load("")
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	s, err := newSession(settings, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { s.Close() }()

	fmt.Fprintf(stdout, "malgeul %s. Type :help for help.\n", config.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	// Load history (best-effort)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		src, ok := readInput(ln)
		if !ok { // Ctrl+D or EOF
			fmt.Fprintln(stdout)
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.HasPrefix(strings.TrimSpace(src), ":") {
			next, done := handleCommand(s, src, stdout, stderr)
			if done {
				break
			}
			s = next
			continue
		}

		result, err := s.eval(src)
		if err != nil {
			reportError(stderr, err)
			continue
		}
		if result != "" {
			fmt.Fprintln(stdout, result)
		}
	}

	// Persist history (best-effort)
	if f, err := os.Create(histPath); err == nil {
		_, _ = ln.WriteHistory(f)
		_ = f.Close()
	}
	return 0
}

// readInput reads one line, or a #약속 header with its indented body.
func readInput(ln *liner.State) (string, bool) {
	line, err := ln.Prompt(promptMain)
	if errors.Is(err, io.EOF) {
		return "", false
	}
	if err != nil {
		// Ctrl+C aborts the current input; let user start again.
		return "", true
	}
	if !strings.HasPrefix(strings.TrimSpace(line), config.DirectivePattern) {
		return line, true
	}

	var b strings.Builder
	b.WriteString(line)
	for {
		more, err := ln.Prompt(promptCont)
		if errors.Is(err, io.EOF) || strings.TrimSpace(more) == "" {
			return b.String(), true
		}
		if err != nil {
			return "", true
		}
		if !strings.HasPrefix(more, " ") && !strings.HasPrefix(more, "\t") {
			more = "    " + more
		}
		b.WriteByte('\n')
		b.WriteString(more)
	}
}

// handleCommand runs a :command and returns the session to continue with.
func handleCommand(s *session, line string, stdout, stderr io.Writer) (*session, bool) {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case ":help":
		fmt.Fprint(stdout, helpText)

	case ":quit", ":exit", ":q":
		return s, true

	case ":reset":
		fresh, err := newSession(s.settings, s.out)
		if err != nil {
			reportError(stderr, err)
			return s, false
		}
		s.Close()
		fmt.Fprintln(stdout, "session reset.")
		return fresh, false

	case ":patterns":
		word := ""
		if len(fields) > 1 {
			word = fields[1]
		}
		for _, k := range s.patterns(word) {
			fmt.Fprintln(stdout, k)
		}

	case ":load":
		if len(fields) < 2 {
			fmt.Fprintln(stderr, "usage: :load <file>")
			return s, false
		}
		src, err := os.ReadFile(fields[1])
		if err != nil {
			fmt.Fprintf(stderr, "cannot read %s: %v\n", fields[1], err)
			return s, false
		}
		result, err := s.eval(string(src))
		if err != nil {
			reportError(stderr, err)
			return s, false
		}
		if result != "" {
			fmt.Fprintln(stdout, result)
		}

	default:
		fmt.Fprintln(stderr, "unknown command. Type :help for help.")
	}
	return s, false
}
