package ast

import (
	"strings"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/token"
)

// ConjunctionKey marks trees built by the conjunction rule.
const ConjunctionKey = config.ConjunctionKey

// Tree is a parsed phrase. Leaves wrap one token; inner nodes carry the key
// of the pattern that produced them and one child per generic term of that
// pattern, nil where an omissible term was left out.
type Tree struct {
	Head     Term
	Children []*Tree
	Key      string
	Token    *token.Token
}

func Leaf(tok token.Token) *Tree {
	t := tok
	head := TermOf(tok)
	return &Tree{Head: head, Key: head.Key(), Token: &t}
}

// Node builds an inner tree produced by a pattern.
func Node(head Generic, key string, children []*Tree) *Tree {
	return &Tree{Head: head, Key: key, Children: children}
}

// Conjunction joins list members into one noun phrase.
func Conjunction(members []*Tree) *Tree {
	return &Tree{Head: Generic{Pos: token.Noun}, Key: ConjunctionKey, Children: members}
}

func (t *Tree) IsLeaf() bool { return t.Token != nil }

func (t *Tree) IsConjunction() bool { return t.Key == ConjunctionKey }

func (t *Tree) POS() token.POS { return t.Head.POS() }

// First returns the leftmost token of the tree, used to locate diagnostics.
func (t *Tree) First() token.Token {
	if t == nil {
		return token.Token{}
	}
	if t.Token != nil {
		return *t.Token
	}
	for _, c := range t.Children {
		if c != nil {
			if tok := c.First(); tok.Line != 0 {
				return tok
			}
		}
	}
	return token.Token{}
}

func (t *Tree) String() string {
	if t == nil {
		return "_"
	}
	if t.Token != nil {
		return t.Token.String()
	}
	var sb strings.Builder
	sb.WriteString("(")
	if t.IsConjunction() {
		sb.WriteString(ConjunctionKey)
	} else {
		sb.WriteString(t.Head.Key())
	}
	for _, c := range t.Children {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// ForestString renders a sequence of trees for diagnostics.
func ForestString(trees []*Tree) string {
	parts := make([]string, len(trees))
	for i, t := range trees {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
