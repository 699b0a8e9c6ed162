package parser

import (
	"io"
	"log"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/pattern"
	"github.com/funvibe/malgeul/internal/token"
)

// Parser folds token sequences into trees using a pattern index.
type Parser struct {
	index         *pattern.Index
	maxReductions int
	trace         *log.Logger
}

func New(index *pattern.Index, settings config.Settings, trace *log.Logger) *Parser {
	if trace == nil {
		trace = log.New(io.Discard, "", 0)
	}
	limit := settings.MaxReductions
	if limit <= 0 {
		limit = config.DefaultMaxReductions
	}
	return &Parser{index: index, maxReductions: limit, trace: trace}
}

// ParseProgram splits tokens into period-terminated sentences and reduces
// each one to a single tree.
func (p *Parser) ParseProgram(toks []token.Token) ([]*ast.Tree, error) {
	var forest []*ast.Tree
	start := 0
	for i, tok := range toks {
		if !tok.IsPeriod() {
			continue
		}
		if i == start {
			return nil, diagnostics.NewError(diagnostics.ErrS004, tok, "empty sentence")
		}
		tree, err := p.ParseSentence(toks[start:i])
		if err != nil {
			return nil, err
		}
		forest = append(forest, tree)
		start = i + 1
	}
	if start < len(toks) {
		return nil, diagnostics.NewError(diagnostics.ErrS004, toks[start], "sentence is not terminated with a period")
	}
	return forest, nil
}

// ParseSentence reduces the tokens of one sentence, without its period.
// Comma separated phrases are reduced on their own first, then together
// with the comma tokens between them.
func (p *Parser) ParseSentence(toks []token.Token) (*ast.Tree, error) {
	if len(toks) == 0 {
		return nil, diagnostics.NewError(diagnostics.ErrS004, token.Token{}, "empty sentence")
	}
	if toks[0].IsComma() {
		return nil, diagnostics.NewError(diagnostics.ErrS004, toks[0], "a sentence cannot start with a comma")
	}
	if last := toks[len(toks)-1]; last.IsComma() {
		return nil, diagnostics.NewError(diagnostics.ErrS004, last, "a sentence cannot end with a comma")
	}

	var merged []*ast.Tree
	phraseStart := 0
	commas := 0
	for i := 0; i <= len(toks); i++ {
		if i < len(toks) && !toks[i].IsComma() {
			continue
		}
		if i == phraseStart {
			return nil, diagnostics.NewError(diagnostics.ErrS004, toks[i], "two commas in a row")
		}
		phrase, err := p.Reduce(leaves(toks[phraseStart:i]))
		if err != nil {
			return nil, err
		}
		merged = append(merged, phrase...)
		if i < len(toks) {
			merged = append(merged, ast.Leaf(toks[i]))
			commas++
		}
		phraseStart = i + 1
	}

	forest := merged
	if commas > 0 {
		var err error
		forest, err = p.Reduce(merged)
		if err != nil {
			return nil, err
		}
	}
	if len(forest) != 1 {
		return nil, diagnostics.NewError(diagnostics.ErrS002, forest[0].First(),
			ast.ForestString(forest)+p.hints(forest))
	}
	return forest[0], nil
}

func leaves(toks []token.Token) []*ast.Tree {
	out := make([]*ast.Tree, len(toks))
	for i, t := range toks {
		out[i] = ast.Leaf(t)
	}
	return out
}

// Reduce applies reductions until none is possible. The cursor moves left to
// right; after a reduction it returns to the start of the new tree and may
// look backwards once, which lets a reduced phrase complete a pattern that
// began to its left.
func (p *Parser) Reduce(trees []*ast.Tree) ([]*ast.Tree, error) {
	trees = append([]*ast.Tree(nil), trees...)
	reductions := 0
	i := 0
	back := false
	for i < len(trees) {
		maxBefore := 0
		if back {
			maxBefore = i
		}
		maxAfter := len(trees) - 1 - i

		c, err := p.best(trees, i, maxBefore, maxAfter)
		if err != nil {
			return nil, err
		}
		if c == nil {
			i++
			back = false
			continue
		}

		reductions++
		if reductions > p.maxReductions {
			return nil, diagnostics.NewError(diagnostics.ErrI001, trees[i].First(),
				"reduction limit exceeded")
		}
		p.trace.Printf("reduce %s => %s", ast.ForestString(trees[c.start:c.end+1]), c.tree.Key)

		next := make([]*ast.Tree, 0, len(trees)-(c.end-c.start))
		next = append(next, trees[:c.start]...)
		next = append(next, c.tree)
		next = append(next, trees[c.end+1:]...)
		trees = next
		i = c.start
		back = true
	}
	return trees, nil
}
