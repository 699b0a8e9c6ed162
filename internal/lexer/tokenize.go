package lexer

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/unicode/norm"

	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
)

// normalize composes Hangul jamo so that lexicon lookups see one form.
func normalize(s string) string {
	return norm.NFC.String(s)
}

// Fragment is a piece of program text with the line it starts on.
type Fragment struct {
	Text string
	Line int
}

// Tokenize splits fragments into tokens: numbers, ASCII identifiers, the
// symbols "," and ".", and dictionary words found by segmenting each Hangul
// run against the vocabulary.
func (v Vocabulary) Tokenize(frags []Fragment) ([]token.Token, error) {
	var out []token.Token
	for _, f := range frags {
		for i, line := range strings.Split(f.Text, "\n") {
			toks, err := v.tokenizeLine(normalize(line), f.Line+i)
			if err != nil {
				return nil, err
			}
			out = append(out, toks...)
		}
	}
	return out, nil
}

func (v Vocabulary) tokenizeLine(line string, lineNo int) ([]token.Token, error) {
	rs := []rune(line)
	var out []token.Token
	i := 0
	for i < len(rs) {
		r := rs[i]
		col := i + 1
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ',' || r == '.':
			out = append(out, token.NewSymbol(string(r), lineNo, col))
			i++
		case isDigit(r):
			j := i
			for j < len(rs) && isDigit(rs[j]) {
				j++
			}
			if j+1 < len(rs) && rs[j] == '.' && isDigit(rs[j+1]) {
				j++
				for j < len(rs) && isDigit(rs[j]) {
					j++
				}
			}
			out = append(out, token.NewNumber(string(rs[i:j]), lineNo, col))
			i = j
		case isIdentStart(r):
			j := i
			for j < len(rs) && (isIdentStart(rs[j]) || isDigit(rs[j])) {
				j++
			}
			out = append(out, token.NewIdent(string(rs[i:j]), lineNo, col))
			i = j
		default:
			j := i
			for j < len(rs) && isWordRune(rs[j]) {
				j++
			}
			if j == i {
				return nil, diagnostics.NewError(diagnostics.ErrS005,
					token.Token{Line: lineNo, Column: col}, string(r), "")
			}
			words, err := v.segment(string(rs[i:j]), lineNo, col)
			if err != nil {
				return nil, err
			}
			out = append(out, words...)
			i = j
		}
	}
	return out, nil
}

// segment splits a run of word characters into dictionary words, trying the
// longest prefix first and backtracking when the remainder cannot be split.
func (v Vocabulary) segment(run string, lineNo, col int) ([]token.Token, error) {
	rs := []rune(run)
	failed := map[int]bool{}

	var walk func(at int) ([]token.Token, bool, error)
	walk = func(at int) ([]token.Token, bool, error) {
		if at == len(rs) {
			return nil, true, nil
		}
		if failed[at] {
			return nil, false, nil
		}
		prefixes, err := v.Prefixes(string(rs[at:]))
		if err != nil {
			return nil, false, err
		}
		for _, p := range prefixes {
			lemma, err := v.Canonical(p)
			if err != nil {
				return nil, false, err
			}
			tags, err := v.Tags(lemma)
			if err != nil {
				return nil, false, err
			}
			if len(tags) == 0 {
				continue
			}
			rest, ok, err := walk(at + len([]rune(p)))
			if err != nil {
				return nil, false, err
			}
			if ok {
				tok := token.NewWord(lemma, tags[0], lineNo, col+at)
				return append([]token.Token{tok}, rest...), true, nil
			}
		}
		failed[at] = true
		return nil, false, nil
	}

	toks, ok, err := walk(0)
	if err != nil {
		if de, isDiag := diagnostics.As(err); isDiag {
			return nil, de.At(token.Token{Line: lineNo, Column: col})
		}
		return nil, err
	}
	if !ok {
		return nil, diagnostics.NewError(diagnostics.ErrS005,
			token.Token{Line: lineNo, Column: col}, run, v.suggest(run))
	}
	return toks, nil
}

// suggest returns a " (did you mean …?)" hint, or "".
func (v Vocabulary) suggest(word string) string {
	forms, err := v.Forms()
	if err != nil || len(forms) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(word, forms)
	if len(ranks) == 0 {
		// try the other direction: a known word hidden inside the input
		var inside []string
		for _, f := range forms {
			if strings.Contains(word, f) && len([]rune(f)) > 1 {
				inside = append(inside, f)
			}
		}
		if len(inside) == 0 {
			return ""
		}
		sort.Slice(inside, func(i, j int) bool { return len(inside[i]) > len(inside[j]) })
		return fmt.Sprintf(" (contains %q)", inside[0])
	}
	sort.Sort(ranks)
	return fmt.Sprintf(" (did you mean %q?)", ranks[0].Target)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isWordRune(r rune) bool {
	if r == ',' || r == '.' || isDigit(r) || isIdentStart(r) || unicode.IsSpace(r) {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsSymbol(r) || unicode.IsPunct(r)
}
