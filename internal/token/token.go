package token

import (
	"fmt"

	"github.com/funvibe/malgeul/internal/config"
)

// POS is a part-of-speech tag from a fixed closed set.
type POS string

const (
	Noun      POS = config.PosNoun
	Verb      POS = config.PosVerb
	Adjective POS = config.PosAdjective
	Adverb    POS = config.PosAdverb
	Particle  POS = config.PosParticle
	Ending    POS = config.PosEnding
	Symbol    POS = config.PosSymbol
	Predicate POS = config.PosPredicate
	Clause    POS = config.PosClause
	Sentence  POS = config.PosSentence
)

var knownPOS = map[POS]bool{
	Noun: true, Verb: true, Adjective: true, Adverb: true, Particle: true,
	Ending: true, Symbol: true, Predicate: true, Clause: true, Sentence: true,
}

// ParsePOS validates a tag name.
func ParsePOS(s string) (POS, bool) {
	p := POS(s)
	return p, knownPOS[p]
}

// IsLexical reports whether the lexer may emit words with this tag.
// Phrase categories are produced only by pattern outputs.
func (p POS) IsLexical() bool {
	switch p {
	case Predicate, Clause, Sentence:
		return false
	}
	return knownPOS[p]
}

type Kind int

const (
	WORD Kind = iota
	NUMBER
	IDENT
	SYMBOL
)

func (k Kind) String() string {
	switch k {
	case WORD:
		return "word"
	case NUMBER:
		return "number"
	case IDENT:
		return "identifier"
	case SYMBOL:
		return "symbol"
	}
	return "?"
}

// Symbol lemmas
const (
	Comma  = ","
	Period = "."
)

// Token is a leaf terminal produced by the lexer. Numbers keep their literal
// text in Lemma; identifiers are always nouns.
type Token struct {
	Kind   Kind
	Lemma  string
	POS    POS
	Line   int
	Column int
}

func NewWord(lemma string, pos POS, line, col int) Token {
	return Token{Kind: WORD, Lemma: lemma, POS: pos, Line: line, Column: col}
}

func NewNumber(literal string, line, col int) Token {
	return Token{Kind: NUMBER, Lemma: literal, POS: Noun, Line: line, Column: col}
}

func NewIdent(name string, line, col int) Token {
	return Token{Kind: IDENT, Lemma: name, POS: Noun, Line: line, Column: col}
}

func NewSymbol(sym string, line, col int) Token {
	return Token{Kind: SYMBOL, Lemma: sym, POS: Symbol, Line: line, Column: col}
}

func (t Token) IsComma() bool  { return t.Kind == SYMBOL && t.Lemma == Comma }
func (t Token) IsPeriod() bool { return t.Kind == SYMBOL && t.Lemma == Period }

func (t Token) String() string {
	switch t.Kind {
	case NUMBER:
		return t.Lemma
	case IDENT:
		return t.Lemma
	case SYMBOL:
		return t.Lemma
	}
	return fmt.Sprintf("%s[%s]", t.Lemma, t.POS)
}

// Pos formats the source position, empty when unknown.
func (t Token) Pos() string {
	if t.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}
