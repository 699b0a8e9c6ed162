package lexer

import (
	"strings"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
)

type DirectiveKind int

const (
	Vocab DirectiveKind = iota
	Synonym
	Define
	Alias
	Import
)

func (k DirectiveKind) String() string {
	switch k {
	case Vocab:
		return config.DirectiveVocab
	case Synonym:
		return config.DirectiveSynonym
	case Define:
		return config.DirectivePattern
	case Alias:
		return config.DirectiveAlias
	case Import:
		return config.DirectiveImport
	}
	return "?"
}

var directiveKinds = map[string]DirectiveKind{
	config.DirectiveVocab:   Vocab,
	config.DirectiveSynonym: Synonym,
	config.DirectivePattern: Define,
	config.DirectiveAlias:   Alias,
	config.DirectiveImport:  Import,
}

// Directive is one declaration line. Args holds the parsed operands:
//
//	#단어 lemma pos             Args = [lemma, pos]
//	#같은말 form = target       Args = [form, target]
//	#약속 pattern               Args = [pattern], Body = indented lines
//	#바꿈 alias => target       Args = [alias, target]
//	#가져오기 path              Args = [path]
type Directive struct {
	Kind DirectiveKind
	Line int
	Args []string
	Body []Fragment
}

// Source is a split program: declarations in order and the remaining
// program text.
type Source struct {
	Directives []Directive
	Program    []Fragment
}

// SplitStatements separates declarations from program text. It works line
// by line; a #약속 line owns the indented lines that follow it.
func SplitStatements(src string) (*Source, error) {
	out := &Source{}
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")
	var body *Directive

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, config.CommentPrefix) {
			continue
		}
		indented := raw[0] == ' ' || raw[0] == '\t'
		if indented && body != nil {
			body.Body = append(body.Body, Fragment{Text: trimmed, Line: lineNo})
			continue
		}
		if body != nil {
			out.Directives = append(out.Directives, *body)
			body = nil
		}
		if !strings.HasPrefix(trimmed, "#") {
			out.Program = append(out.Program, Fragment{Text: trimmed, Line: lineNo})
			continue
		}

		word, rest, _ := strings.Cut(trimmed, " ")
		rest = strings.TrimSpace(rest)
		kind, ok := directiveKinds[word]
		if !ok {
			return nil, directiveError(lineNo, trimmed, "unknown directive")
		}
		d := Directive{Kind: kind, Line: lineNo}
		switch kind {
		case Vocab:
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return nil, directiveError(lineNo, trimmed, "expected a lemma and a part of speech")
			}
			d.Args = fields
		case Synonym:
			form, target, found := strings.Cut(rest, "=")
			form, target = strings.TrimSpace(form), strings.TrimSpace(target)
			if !found || form == "" || target == "" || strings.ContainsAny(form+target, " \t") {
				return nil, directiveError(lineNo, trimmed, "expected form = target")
			}
			d.Args = []string{form, target}
		case Define:
			if rest == "" {
				return nil, directiveError(lineNo, trimmed, "missing pattern")
			}
			d.Args = []string{rest}
			body = &d
			continue
		case Alias:
			alias, target, found := strings.Cut(rest, "=>")
			alias, target = strings.TrimSpace(alias), strings.TrimSpace(target)
			if !found || alias == "" || target == "" {
				return nil, directiveError(lineNo, trimmed, "expected alias => target")
			}
			d.Args = []string{alias, target}
		case Import:
			if rest == "" {
				return nil, directiveError(lineNo, trimmed, "missing path")
			}
			d.Args = []string{rest}
		}
		out.Directives = append(out.Directives, d)
	}
	if body != nil {
		out.Directives = append(out.Directives, *body)
	}
	for _, d := range out.Directives {
		if d.Kind == Define && len(d.Body) == 0 {
			return nil, directiveError(d.Line, d.Args[0], "pattern has no body")
		}
	}
	return out, nil
}

func directiveError(line int, text, reason string) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.ErrS007, token.Token{Line: line, Column: 1}, text, reason)
}
