package prettyprinter

import (
	"testing"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/token"
)

func sample() *ast.Tree {
	one := ast.Leaf(token.NewNumber("1", 1, 1))
	two := ast.Leaf(token.NewNumber("2", 1, 4))
	add := ast.Node(ast.Generic{Pos: token.Predicate}, "{}[명사] 와[조사] {}[명사] 를[조사] 더하[동사]", []*ast.Tree{one, two})
	return ast.Node(ast.Generic{Pos: token.Sentence}, "{}[서술] 다[어미]", []*ast.Tree{add})
}

func TestPrintExpanded(t *testing.T) {
	got := NewTreePrinterWithWidth(0).Print(sample())
	want := "{}[서술] 다[어미] -> {}[문장]\n" +
		"    {}[명사] 와[조사] {}[명사] 를[조사] 더하[동사] -> {}[서술]\n" +
		"        1\n" +
		"        2\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestPrintCompact(t *testing.T) {
	tree := sample()
	got := NewTreePrinter().Print(tree)
	if want := tree.String() + "\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPrintConjunctionAndOmitted(t *testing.T) {
	list := ast.Conjunction([]*ast.Tree{
		ast.Leaf(token.NewNumber("1", 1, 1)),
		ast.Leaf(token.NewNumber("2", 1, 4)),
	})
	out := ast.Node(ast.Generic{Pos: token.Predicate}, "{?}[부사] {}[명사] 를[조사] 출력하[동사]", []*ast.Tree{nil, list})
	got := NewTreePrinterWithWidth(0).PrintForest([]*ast.Tree{out})
	want := "{?}[부사] {}[명사] 를[조사] 출력하[동사] -> {}[서술]\n" +
		"    _\n" +
		"    " + ast.ConjunctionKey + "\n" +
		"        1\n" +
		"        2\n"
	if got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}
