package pattern

import (
	"fmt"
	"strings"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Definition is a parsed pattern definition: the full term list, the output
// term and the signature of the generic slots, in order.
type Definition struct {
	Text      string
	Terms     []ast.Term
	Output    ast.Generic
	Signature typesystem.Signature
	// Names holds the @name of each generic slot, "" when unnamed.
	Names []string
}

// Key is the canonical identity shared by all overloads of this shape.
func (d *Definition) Key() string {
	return ast.JoinKeys(d.Terms)
}

// Slots returns the number of generic terms.
func (d *Definition) Slots() int {
	return len(d.Signature.Params)
}

// SlotNamed finds the generic slot with the given @name.
func (d *Definition) SlotNamed(name string) (int, bool) {
	for i, n := range d.Names {
		if n != "" && n == name {
			return i, true
		}
	}
	return -1, false
}

// Pattern is one matchable shape of a definition. Definitions with
// omissible terms produce several variants that share Key.
type Pattern struct {
	Terms  []ast.Term
	Output ast.Generic
	Key    string
	Shape  string
	// Slots maps each generic term of this variant, in order, to the
	// definition's generic slot it fills.
	Slots []int
	Arity int
}

func (p *Pattern) String() string {
	return p.Shape + " -> " + p.Output.Key()
}

// Variants expands the omissible terms of d. The full shape comes first,
// then shapes with more terms dropped. Shapes that would consist of a single
// generic term are not produced.
func (d *Definition) Variants() []*Pattern {
	var optional []int
	for i, t := range d.Terms {
		if g, ok := t.(ast.Generic); ok && g.Omissible {
			optional = append(optional, i)
		}
	}
	key := d.Key()
	var out []*Pattern
	for dropped := 0; dropped <= len(optional); dropped++ {
		for _, mask := range masks(len(optional), dropped) {
			skip := map[int]bool{}
			for bit, idx := range optional {
				if mask&(1<<bit) != 0 {
					skip[idx] = true
				}
			}
			p := &Pattern{Output: d.Output, Key: key, Arity: d.Slots()}
			slot := 0
			for i, t := range d.Terms {
				_, generic := t.(ast.Generic)
				if !skip[i] {
					p.Terms = append(p.Terms, t)
					if generic {
						p.Slots = append(p.Slots, slot)
					}
				}
				if generic {
					slot++
				}
			}
			if len(p.Terms) == 0 || (len(p.Terms) == 1 && len(p.Slots) == 1) {
				continue
			}
			p.Shape = ast.JoinKeys(p.Terms)
			out = append(out, p)
		}
	}
	return out
}

// masks lists the n-bit masks with exactly k bits set, in increasing order.
func masks(n, k int) []int {
	var out []int
	for m := 0; m < 1<<n; m++ {
		bits := 0
		for x := m; x != 0; x &= x - 1 {
			bits++
		}
		if bits == k {
			out = append(out, m)
		}
	}
	return out
}

// ParseDefinition reads the pattern notation:
//
//	[<antecedent>] term+ -> {}[pos]
//
// where a term is either lemma[pos] or {words}[pos]. The words are an
// annotation (new, any, lazy, var ..., arity, type) plus optional "?" for an
// omissible slot and "@name" for a named parameter.
func ParseDefinition(text string) (*Definition, error) {
	return parse(text, true)
}

// ParseReference reads a term list without an output, as written on the
// target side of an alias. Names mark which alias parameter fills a slot.
func ParseReference(text string) (*Definition, error) {
	return parse(text, false)
}

func parse(text string, withOutput bool) (*Definition, error) {
	fail := func(format string, args ...interface{}) error {
		return diagnostics.NewError(diagnostics.ErrS003, token.Token{}, text, fmt.Sprintf(format, args...))
	}

	s := &scanner{src: []rune(strings.TrimSpace(text))}
	def := &Definition{Text: text}
	seen := map[string]bool{}

	s.skipSpace()
	if s.peek() == '<' {
		body, ok := s.until('<', '>')
		if !ok {
			return nil, fail("unterminated antecedent annotation")
		}
		ann, err := typesystem.ParseAnnotation(strings.Fields(body))
		if err != nil {
			return nil, fail("antecedent: %v", err)
		}
		def.Signature.Antecedent = ann
	}

	arrow := false
	for {
		s.skipSpace()
		if s.done() {
			break
		}
		if s.hasPrefix("->") {
			s.pos += 2
			arrow = true
			break
		}
		term, ann, name, err := s.term()
		if err != nil {
			return nil, fail("%v", err)
		}
		def.Terms = append(def.Terms, term)
		if _, ok := term.(ast.Generic); ok {
			if name != "" {
				if seen[name] {
					return nil, diagnostics.NewError(diagnostics.ErrT002, token.Token{}, text,
						fmt.Sprintf("parameter @%s is declared twice", name))
				}
				seen[name] = true
			}
			def.Signature.Params = append(def.Signature.Params, ann)
			def.Names = append(def.Names, name)
		}
	}
	if arrow != withOutput {
		if arrow {
			return nil, fail("unexpected -> in a reference")
		}
		return nil, fail("missing -> output")
	}
	if len(def.Terms) == 0 {
		return nil, fail("no input terms")
	}
	if !withOutput {
		return def, nil
	}
	if len(def.Terms) == 1 {
		if _, ok := def.Terms[0].(ast.Generic); ok {
			return nil, fail("a single generic term cannot form a pattern")
		}
	}

	s.skipSpace()
	out, ann, name, err := s.term()
	if err != nil {
		return nil, fail("output: %v", err)
	}
	g, ok := out.(ast.Generic)
	if !ok {
		return nil, fail("output must be a generic term")
	}
	if _, isAny := ann.(typesystem.Any); !isAny && !isOptionalAny(ann) || name != "" {
		return nil, fail("output term takes no annotation")
	}
	def.Output = g
	s.skipSpace()
	if !s.done() {
		return nil, fail("unexpected %q after output", string(s.src[s.pos:]))
	}
	return def, nil
}

func isOptionalAny(a typesystem.Annotation) bool {
	p, ok := a.(typesystem.Pack)
	return ok && p.Optional && p.Arity == nil && p.Type == nil
}

type scanner struct {
	src []rune
	pos int
}

func (s *scanner) done() bool { return s.pos >= len(s.src) }

func (s *scanner) peek() rune {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) hasPrefix(p string) bool {
	return strings.HasPrefix(string(s.src[s.pos:]), p)
}

func (s *scanner) skipSpace() {
	for !s.done() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

// until consumes an open..close group and returns its body.
func (s *scanner) until(open, close rune) (string, bool) {
	if s.peek() != open {
		return "", false
	}
	start := s.pos + 1
	for i := start; i < len(s.src); i++ {
		if s.src[i] == close {
			s.pos = i + 1
			return string(s.src[start:i]), true
		}
	}
	return "", false
}

func (s *scanner) term() (ast.Term, typesystem.Annotation, string, error) {
	if s.done() {
		return nil, nil, "", fmt.Errorf("expected a term")
	}
	if s.peek() == '{' {
		body, ok := s.until('{', '}')
		if !ok {
			return nil, nil, "", fmt.Errorf("unterminated {")
		}
		pos, err := s.posTag()
		if err != nil {
			return nil, nil, "", err
		}
		ann, omissible, name, err := parseSpec(body)
		if err != nil {
			return nil, nil, "", err
		}
		return ast.Generic{Pos: pos, Omissible: omissible}, ann, name, nil
	}

	start := s.pos
	for !s.done() && s.src[s.pos] != '[' && s.src[s.pos] != ' ' {
		s.pos++
	}
	lemma := string(s.src[start:s.pos])
	if lemma == "" {
		return nil, nil, "", fmt.Errorf("empty lemma")
	}
	pos, err := s.posTag()
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %v", lemma, err)
	}
	return ast.Concrete{Lemma: lemma, Pos: pos}, nil, "", nil
}

func (s *scanner) posTag() (token.POS, error) {
	body, ok := s.until('[', ']')
	if !ok {
		return "", fmt.Errorf("missing [part of speech]")
	}
	pos, ok := token.ParsePOS(strings.TrimSpace(body))
	if !ok {
		return "", fmt.Errorf("unknown part of speech %q", body)
	}
	return pos, nil
}

func parseSpec(body string) (typesystem.Annotation, bool, string, error) {
	var words []string
	omissible := false
	name := ""
	for _, w := range strings.Fields(body) {
		switch {
		case w == "?":
			omissible = true
		case strings.HasPrefix(w, "@"):
			if name != "" || len(w) == 1 {
				return nil, false, "", fmt.Errorf("bad parameter name %q", w)
			}
			name = w[1:]
		default:
			words = append(words, w)
		}
	}
	ann, err := typesystem.ParseAnnotation(words)
	if err != nil {
		return nil, false, "", err
	}
	if omissible {
		switch a := ann.(type) {
		case typesystem.Pack:
			a.Optional = true
			ann = a
		case typesystem.Any:
			ann = typesystem.Pack{Optional: true}
		default:
			return nil, false, "", fmt.Errorf("%s cannot be omissible", ann)
		}
	}
	return ann, omissible, name, nil
}
