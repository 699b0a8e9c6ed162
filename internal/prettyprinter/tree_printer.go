// Package prettyprinter renders parsed sentence trees for inspection.
package prettyprinter

import (
	"bytes"
	"unicode/utf8"

	"github.com/funvibe/malgeul/internal/ast"
)

// TreePrinter writes trees one node per line, children indented under the
// pattern that produced them. Subtrees that fit in the line width stay on
// one line in the compact form of ast.Tree.String.
type TreePrinter struct {
	buf       bytes.Buffer
	indent    int
	lineWidth int // max line width (0 = always expand)
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{lineWidth: 80}
}

func NewTreePrinterWithWidth(width int) *TreePrinter {
	return &TreePrinter{lineWidth: width}
}

func (p *TreePrinter) SetLineWidth(width int) {
	p.lineWidth = width
}

func (p *TreePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

func (p *TreePrinter) line(s string) {
	p.writeIndent()
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

// PrintForest renders every sentence of a program in order.
func (p *TreePrinter) PrintForest(forest []*ast.Tree) string {
	p.buf.Reset()
	for _, t := range forest {
		p.print(t)
	}
	return p.buf.String()
}

// Print renders one tree.
func (p *TreePrinter) Print(t *ast.Tree) string {
	p.buf.Reset()
	p.print(t)
	return p.buf.String()
}

func (p *TreePrinter) print(t *ast.Tree) {
	if t == nil || t.IsLeaf() {
		p.line(t.String())
		return
	}
	if compact := t.String(); p.lineWidth > 0 && p.indent*4+utf8.RuneCountInString(compact) <= p.lineWidth {
		p.line(compact)
		return
	}

	if t.IsConjunction() {
		p.line(ast.ConjunctionKey)
	} else {
		p.line(t.Key + " -> " + t.Head.Key())
	}
	p.indent++
	for _, c := range t.Children {
		p.print(c)
	}
	p.indent--
}
