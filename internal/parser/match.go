package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/funvibe/malgeul/internal/ast"
	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/pattern"
	"github.com/funvibe/malgeul/internal/token"
)

// candidate is a reduction of trees[start..end] into tree.
type candidate struct {
	start, end int
	tree       *ast.Tree
}

func (c *candidate) span() int { return c.end - c.start + 1 }

// best returns the reduction to apply at focus i, or nil.
func (p *Parser) best(trees []*ast.Tree, i, maxBefore, maxAfter int) (*candidate, error) {
	pc, err := p.matchPatterns(trees, i, maxBefore, maxAfter)
	if err != nil {
		return nil, err
	}
	cc := conjunction(trees, i)
	switch {
	case cc == nil:
		return pc, nil
	case pc == nil:
		return cc, nil
	case cc.start < pc.start:
		return cc, nil
	case cc.start == pc.start && cc.span() > pc.span():
		return cc, nil
	}
	return pc, nil
}

// focusKeys lists the index keys under which patterns containing the focus
// tree are found. A token also fills generic slots of its part of speech.
func focusKeys(t *ast.Tree) []string {
	switch h := t.Head.(type) {
	case ast.Concrete:
		return []string{h.Key(), ast.GenericKey(h.Pos, false), ast.GenericKey(h.Pos, true)}
	case ast.Generic:
		return []string{h.Key()}
	}
	return nil
}

func (p *Parser) matchPatterns(trees []*ast.Tree, i, maxBefore, maxAfter int) (*candidate, error) {
	var entries []pattern.Entry
	for _, key := range focusKeys(trees[i]) {
		tbl := p.index.Lookup(key)
		if tbl == nil {
			continue
		}
		entries = append(entries, tbl.SliceBefore(maxBefore).SliceAfter(maxAfter).Entries()...)
	}
	pattern.SortEntries(entries)

	for g := 0; g < len(entries); {
		h := g
		for h < len(entries) && entries[h].Coord == entries[g].Coord {
			h++
		}
		group := entries[g:h]
		g = h

		start := i - group[0].Before
		end := i + group[0].After
		window := trees[start : end+1]
		var matched []pattern.Entry
		for _, e := range group {
			if matchTerms(e.Patterns[0].Terms, window) {
				matched = append(matched, e)
			}
		}
		if len(matched) == 0 {
			continue
		}
		chosen, err := resolveWindow(matched, window)
		if err != nil {
			return nil, err
		}
		return &candidate{start: start, end: end, tree: build(chosen, window)}, nil
	}
	return nil, nil
}

// resolveWindow checks that every shape matching one window belongs to the
// same pattern key and that all its patterns agree on the output.
func resolveWindow(matched []pattern.Entry, window []*ast.Tree) (*pattern.Pattern, error) {
	keys := map[string]bool{}
	var keyList []string
	for _, e := range matched {
		for _, pt := range e.Patterns {
			if !keys[pt.Key] {
				keys[pt.Key] = true
				keyList = append(keyList, pt.Key)
			}
		}
	}
	if len(keyList) > 1 {
		sort.Strings(keyList)
		return nil, diagnostics.NewError(diagnostics.ErrS001, window[0].First(),
			ast.ForestString(window), strings.Join(keyList, " | "))
	}

	chosen := matched[0].Patterns[0]
	outputs := map[string]bool{chosen.Output.Key(): true}
	for _, e := range matched {
		for _, pt := range e.Patterns {
			outputs[pt.Output.Key()] = true
		}
	}
	if len(outputs) > 1 {
		var outs []string
		for o := range outputs {
			outs = append(outs, o)
		}
		sort.Strings(outs)
		return nil, diagnostics.NewError(diagnostics.ErrT001, window[0].First(),
			chosen.Key, strings.Join(outs, ", "))
	}
	return chosen, nil
}

func matchTerms(terms []ast.Term, window []*ast.Tree) bool {
	if len(terms) != len(window) {
		return false
	}
	for k, term := range terms {
		if !matchTerm(term, window[k]) {
			return false
		}
	}
	return true
}

// matchTerm compares lemma and part of speech for concrete terms. A generic
// term takes any tree of its part of speech; when the tree was itself built
// by a pattern, the omission flags must agree as well.
func matchTerm(term ast.Term, t *ast.Tree) bool {
	switch tm := term.(type) {
	case ast.Concrete:
		h, ok := t.Head.(ast.Concrete)
		return ok && t.IsLeaf() && h == tm
	case ast.Generic:
		if t.POS() != tm.Pos {
			return false
		}
		if h, ok := t.Head.(ast.Generic); ok {
			return h.Omissible == tm.Omissible
		}
		return true
	}
	return false
}

// build makes the tree for pattern pt over window, placing each generic
// child in its definition slot.
func build(pt *pattern.Pattern, window []*ast.Tree) *ast.Tree {
	children := make([]*ast.Tree, pt.Arity)
	j := 0
	for k, term := range pt.Terms {
		if _, ok := term.(ast.Generic); ok {
			children[pt.Slots[j]] = window[k]
			j++
		}
	}
	return ast.Node(pt.Output, pt.Key, children)
}

// conjunction collapses "A 와 B 와 C" starting at i into one noun phrase.
func conjunction(trees []*ast.Tree, i int) *candidate {
	if !isMember(trees[i]) {
		return nil
	}
	members := []*ast.Tree{trees[i]}
	end := i
	for end+2 < len(trees) && isConnective(trees[end+1]) && isMember(trees[end+2]) {
		members = append(members, trees[end+2])
		end += 2
	}
	if len(members) < 2 {
		return nil
	}
	return &candidate{start: i, end: end, tree: ast.Conjunction(members)}
}

func isMember(t *ast.Tree) bool {
	return t.POS() == token.Noun
}

func isConnective(t *ast.Tree) bool {
	h, ok := t.Head.(ast.Concrete)
	return ok && t.IsLeaf() && h.Lemma == config.ConnectiveLemma && h.Pos == token.Particle
}

// hints suggests patterns mentioning the words left in an unreduced forest.
func (p *Parser) hints(forest []*ast.Tree) string {
	keys := p.index.Keys()
	if len(keys) == 0 {
		return ""
	}
	seen := map[string]bool{}
	var found []string
	for _, t := range forest {
		h, ok := t.Head.(ast.Concrete)
		if !ok || !t.IsLeaf() || t.Token.Kind != token.WORD || h.Pos == token.Particle || h.Pos == token.Ending {
			continue
		}
		for _, k := range fuzzy.FindFold(h.Key(), keys) {
			if !seen[k] {
				seen[k] = true
				found = append(found, k)
			}
		}
	}
	if len(found) == 0 {
		return ""
	}
	sort.Strings(found)
	if len(found) > 3 {
		found = found[:3]
	}
	return fmt.Sprintf("; patterns mentioning these words: %s", strings.Join(found, " | "))
}
