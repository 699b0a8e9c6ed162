package modules

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/evaluator"
	"github.com/funvibe/malgeul/internal/lexer"
	"github.com/funvibe/malgeul/internal/parser"
	"github.com/funvibe/malgeul/internal/pattern"
	"github.com/funvibe/malgeul/internal/pipeline"
	"github.com/funvibe/malgeul/internal/token"
	"github.com/funvibe/malgeul/internal/typesystem"
)

// Module is a unit of registrations: vocabulary, patterns and the
// procedures behind them. It sees its own registrations plus whatever its
// imports exposed at the moment they were linked.
type Module struct {
	ID       uuid.UUID
	Name     string
	Path     string
	Settings config.Settings

	// Program is the text of the module outside of declarations.
	Program []lexer.Fragment

	lexicon  *lexer.Lexicon
	patterns []registration
	procs    map[string][]registration
	imports  []*link
	pending  []pendingBody
	trace    *log.Logger

	// gen counts registrations and imports. A link remembers the generation
	// of the imported module, so later registrations stay invisible to it.
	gen      int
	index    *pattern.Index
	indexGen int
}

// registration is a pattern variant set or a procedure tagged with the
// generation it was added at.
type registration struct {
	seq      int
	proc     *evaluator.Procedure
	variants []*pattern.Pattern
}

// link is an import as seen from the importing module. Its patterns and
// procedures are those the imported module exposed at generation gen; they
// are resolved on first lookup and kept.
type link struct {
	module *Module
	at     int // importing module's generation when linked
	gen    int
	index  *pattern.Index
	procs  map[string][]*evaluator.Procedure
}

func (l *link) procedures(key string) []*evaluator.Procedure {
	if ps, ok := l.procs[key]; ok {
		return ps
	}
	ps := l.module.proceduresAt(key, l.gen)
	l.procs[key] = ps
	return ps
}

func (l *link) patterns() *pattern.Index {
	if l.index == nil {
		l.index = l.module.indexAt(l.gen)
	}
	return l.index
}

type pendingBody struct {
	proc *evaluator.Procedure
	body []lexer.Fragment
}

func New(name string, settings config.Settings) (*Module, error) {
	lex, err := lexer.NewLexicon()
	if err != nil {
		return nil, err
	}
	return &Module{
		ID:       uuid.New(),
		Name:     name,
		Settings: settings,
		lexicon:  lex,
		procs:    make(map[string][]registration),
		indexGen: -1,
		trace:    pipeline.TraceLogger(settings, "module "+name),
	}, nil
}

func (m *Module) Close() error {
	return m.lexicon.Close()
}

func (m *Module) String() string {
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

// Vocabulary is the module's lexicon followed by those of everything it
// imports, each once.
func (m *Module) Vocabulary() lexer.Vocabulary {
	v := lexer.Vocabulary{MaxDepth: m.Settings.MaxSynonymDepth}
	seen := map[uuid.UUID]bool{}
	var walk func(mod *Module)
	walk = func(mod *Module) {
		if seen[mod.ID] {
			return
		}
		seen[mod.ID] = true
		v.Lexicons = append(v.Lexicons, mod.lexicon)
		for _, l := range mod.imports {
			walk(l.module)
		}
	}
	walk(m)
	return v
}

func (m *Module) Tokenize(frags []lexer.Fragment) ([]token.Token, error) {
	return m.Vocabulary().Tokenize(frags)
}

// Index merges the imported indexes in import order, then the module's own;
// later registrations win on conflicts.
func (m *Module) Index() *pattern.Index {
	if m.indexGen != m.gen {
		m.index = m.indexAt(m.gen)
		m.indexGen = m.gen
	}
	return m.index
}

func (m *Module) indexAt(gen int) *pattern.Index {
	ix := pattern.NewIndex()
	for _, l := range m.imports {
		if l.at >= gen {
			break
		}
		ix = ix.Concat(l.patterns())
	}
	own := pattern.NewIndex()
	for _, r := range m.patterns {
		if r.seq >= gen {
			break
		}
		for _, v := range r.variants {
			own.Insert(v)
		}
	}
	return ix.Concat(own)
}

// Procedures returns the overloads visible for key: imported ones first,
// then the module's own, without duplicates reached through several
// imports.
func (m *Module) Procedures(key string) []*evaluator.Procedure {
	return m.proceduresAt(key, m.gen)
}

func (m *Module) proceduresAt(key string, gen int) []*evaluator.Procedure {
	var out []*evaluator.Procedure
	seen := map[*evaluator.Procedure]bool{}
	add := func(p *evaluator.Procedure) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, l := range m.imports {
		if l.at >= gen {
			break
		}
		for _, p := range l.procedures(key) {
			add(p)
		}
	}
	for _, r := range m.procs[key] {
		if r.seq >= gen {
			break
		}
		add(r.proc)
	}
	return out
}

// Keys lists every pattern key with a visible procedure.
func (m *Module) Keys() []string {
	seen := map[string]bool{}
	m.keysAt(m.gen, seen)
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Module) keysAt(gen int, into map[string]bool) {
	for _, l := range m.imports {
		if l.at >= gen {
			break
		}
		l.module.keysAt(l.gen, into)
	}
	for k, rs := range m.procs {
		if len(rs) > 0 && rs[0].seq < gen {
			into[k] = true
		}
	}
}

// Import links other into m. Importing a module twice, or importing m
// itself, does nothing. The link sees other as it is now.
func (m *Module) Import(other *Module) {
	if other.ID == m.ID {
		return
	}
	for _, l := range m.imports {
		if l.module.ID == other.ID {
			return
		}
	}
	m.imports = append(m.imports, &link{
		module: other,
		at:     m.gen,
		gen:    other.gen,
		procs:  make(map[string][]*evaluator.Procedure),
	})
	m.gen++
	m.trace.Printf("import %s", other)
}

// Imports returns the directly imported modules in link order.
func (m *Module) Imports() []*Module {
	out := make([]*Module, len(m.imports))
	for i, l := range m.imports {
		out[i] = l.module
	}
	return out
}

func (m *Module) LoadVocab(lemma, pos string) error {
	p, ok := token.ParsePOS(pos)
	if !ok {
		return fmt.Errorf("unknown part of speech %q", pos)
	}
	return m.lexicon.AddWord(lemma, p)
}

func (m *Module) LoadSynonym(form, target string) error {
	return m.Vocabulary().AddSynonym(form, target)
}

// LoadPattern registers a pattern implemented in Go.
func (m *Module) LoadPattern(text string, native evaluator.Native) (*evaluator.Procedure, error) {
	def, err := pattern.ParseDefinition(text)
	if err != nil {
		return nil, err
	}
	proc := &evaluator.Procedure{
		Key:       def.Key(),
		Signature: def.Signature,
		Names:     def.Names,
		Native:    native,
		Scope:     m,
	}
	if err := m.register(def, proc); err != nil {
		return nil, err
	}
	return proc, nil
}

// LoadBody registers a pattern whose procedure is written in the language
// itself. The body is parsed by Finalize, so it may use patterns declared
// after it, including its own.
func (m *Module) LoadBody(text string, body []lexer.Fragment) (*evaluator.Procedure, error) {
	def, err := pattern.ParseDefinition(text)
	if err != nil {
		return nil, err
	}
	proc := &evaluator.Procedure{
		Key:       def.Key(),
		Signature: def.Signature,
		Names:     def.Names,
		Scope:     m,
	}
	if err := m.register(def, proc); err != nil {
		return nil, err
	}
	m.pending = append(m.pending, pendingBody{proc: proc, body: body})
	return proc, nil
}

// LoadAlias registers aliasText as another way to say target. Target slots
// named after an alias parameter take that argument; the others are filled
// from the antecedent.
func (m *Module) LoadAlias(aliasText, targetText string) (*evaluator.Procedure, error) {
	def, err := pattern.ParseDefinition(aliasText)
	if err != nil {
		return nil, err
	}
	ref, err := pattern.ParseReference(targetText)
	if err != nil {
		return nil, err
	}
	target := ref.Key()
	if target == def.Key() {
		return nil, diagnostics.NewError(diagnostics.ErrT002, token.Token{}, def.Key(), "an alias cannot target itself")
	}
	if len(m.Procedures(target)) == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrT002, token.Token{}, def.Key(),
			fmt.Sprintf("alias target %s is not defined", target))
	}

	slots := make([]evaluator.Slot, len(ref.Names))
	used := map[int]bool{}
	for j, name := range ref.Names {
		if i, ok := def.SlotNamed(name); ok {
			slots[j] = evaluator.Slot{Arg: i}
			used[i] = true
			continue
		}
		slots[j] = evaluator.Slot{FromAntecedent: true}
	}
	for i, name := range def.Names {
		if !used[i] {
			return nil, diagnostics.NewError(diagnostics.ErrT002, token.Token{}, def.Key(),
				fmt.Sprintf("parameter %d (@%s) is not used by %s", i+1, name, target))
		}
	}

	proc := &evaluator.Procedure{
		Key:       def.Key(),
		Signature: def.Signature,
		Names:     def.Names,
		Protocol:  &evaluator.Protocol{Target: target, Slots: slots},
		Scope:     m,
	}
	if err := m.register(def, proc); err != nil {
		return nil, err
	}
	return proc, nil
}

// register validates the signature against itself and the overloads already
// visible for the key, then records the pattern and the procedure.
func (m *Module) register(def *pattern.Definition, proc *evaluator.Procedure) error {
	key := def.Key()
	if err := typesystem.CheckSignature(def.Signature); err != nil {
		return diagnostics.NewError(diagnostics.ErrT002, token.Token{}, key, err.Error())
	}
	existing := m.Procedures(key)
	sigs := make([]typesystem.Signature, len(existing))
	for i, p := range existing {
		sigs[i] = p.Signature
	}
	if err := typesystem.CheckCompatible(sigs, def.Signature); err != nil {
		return diagnostics.NewError(diagnostics.ErrT002, token.Token{}, key, err.Error())
	}

	for _, t := range def.Terms {
		c, ok := t.(ast.Concrete)
		if !ok || c.Pos == token.Symbol || !c.Pos.IsLexical() {
			continue
		}
		if err := m.lexicon.AddWord(c.Lemma, c.Pos); err != nil {
			return fmt.Errorf("registering %s: %w", c.Key(), err)
		}
	}
	m.patterns = append(m.patterns, registration{seq: m.gen, variants: def.Variants()})
	m.procs[key] = append(m.procs[key], registration{seq: m.gen, proc: proc})
	m.gen++
	m.trace.Printf("register %s %s", key, def.Signature)
	return nil
}

// Finalize parses the bodies registered since the last call.
func (m *Module) Finalize() error {
	pending := m.pending
	m.pending = nil
	if len(pending) == 0 {
		return nil
	}
	p := parser.New(m.Index(), m.Settings, m.trace)
	for _, pb := range pending {
		toks, err := m.Tokenize(pb.body)
		if err != nil {
			return err
		}
		forest, err := p.ParseProgram(toks)
		if err != nil {
			return err
		}
		pb.proc.Body = forest
	}
	return nil
}
