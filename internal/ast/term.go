package ast

import (
	"github.com/funvibe/malgeul/internal/token"
)

// Term is one element of a pattern: Concrete or Generic.
type Term interface {
	// Key is the canonical text used for indexing and pattern keys.
	Key() string
	POS() token.POS
	termNode()
}

// Concrete matches exactly one token by lemma and part of speech.
type Concrete struct {
	Lemma string
	Pos   token.POS
}

// Generic matches any token or subtree with the given part of speech.
// Omissible slots may be left out of a phrase entirely.
type Generic struct {
	Pos       token.POS
	Omissible bool
}

func (Concrete) termNode() {}
func (Generic) termNode()  {}

func (c Concrete) POS() token.POS { return c.Pos }
func (g Generic) POS() token.POS  { return g.Pos }

func (c Concrete) Key() string { return ConcreteKey(c.Lemma, c.Pos) }
func (g Generic) Key() string  { return GenericKey(g.Pos, g.Omissible) }

func ConcreteKey(lemma string, pos token.POS) string {
	return lemma + "[" + string(pos) + "]"
}

func GenericKey(pos token.POS, omissible bool) string {
	if omissible {
		return "{?}[" + string(pos) + "]"
	}
	return "{}[" + string(pos) + "]"
}

// TermOf returns the concrete term for a token.
func TermOf(tok token.Token) Concrete {
	return Concrete{Lemma: tok.Lemma, Pos: tok.POS}
}

// JoinKeys builds a pattern key from term keys.
func JoinKeys(terms []Term) string {
	n := 0
	for _, t := range terms {
		n += len(t.Key()) + 1
	}
	b := make([]byte, 0, n)
	for i, t := range terms {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, t.Key()...)
	}
	return string(b)
}
