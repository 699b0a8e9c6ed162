package lexer

import (
	"strings"
	"testing"

	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"
)

func newVocab(t *testing.T, words map[string]token.POS, synonyms ...[2]string) Vocabulary {
	t.Helper()
	lx, err := NewLexicon()
	if err != nil {
		t.Fatalf("NewLexicon: %v", err)
	}
	t.Cleanup(func() { lx.Close() })
	for w, p := range words {
		if err := lx.AddWord(w, p); err != nil {
			t.Fatalf("AddWord(%s): %v", w, err)
		}
	}
	v := Vocabulary{Lexicons: []*Lexicon{lx}}
	for _, s := range synonyms {
		if err := v.AddSynonym(s[0], s[1]); err != nil {
			t.Fatalf("AddSynonym(%s, %s): %v", s[0], s[1], err)
		}
	}
	return v
}

var basicWords = map[string]token.POS{
	"와":  token.Particle,
	"를":  token.Particle,
	"에":  token.Particle,
	"에서": token.Particle,
	"더하": token.Verb,
	"곱하": token.Verb,
	"다":  token.Ending,
	"고":  token.Ending,
	"그것": token.Noun,
	"사과": token.Noun,
}

func lemmas(toks []token.Token) string {
	parts := make([]string, len(toks))
	for i, tk := range toks {
		parts[i] = tk.String()
	}
	return strings.Join(parts, " ")
}

func TestTokenize(t *testing.T) {
	v := newVocab(t, basicWords, [2]string{"과", "와"}, [2]string{"을", "를"})

	tests := []struct {
		input string
		want  string
	}{
		{"3과 4를 더하다.", "3 와[조사] 4 를[조사] 더하[동사] 다[어미] ."},
		{"2.5에 x를 곱하고, 그것을 더하다.", "2.5 에[조사] x 를[조사] 곱하[동사] 고[어미] , 그것[명사] 를[조사] 더하[동사] 다[어미] ."},
		{"사과에서", "사과[명사] 에서[조사]"},
		{"3.", "3 ."},
	}
	for _, tt := range tests {
		toks, err := v.Tokenize([]Fragment{{Text: tt.input, Line: 1}})
		if err != nil {
			t.Errorf("Tokenize(%q): %v", tt.input, err)
			continue
		}
		if got := lemmas(toks); got != tt.want {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTokenizeKinds(t *testing.T) {
	v := newVocab(t, basicWords)
	toks, err := v.Tokenize([]Fragment{{Text: "x에 12를", Line: 3}})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	want := []struct {
		kind token.Kind
		col  int
	}{
		{token.IDENT, 1}, {token.WORD, 2}, {token.NUMBER, 4}, {token.WORD, 6},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens: %s", len(toks), lemmas(toks))
	}
	for i, w := range want {
		if toks[i].Kind != w.kind || toks[i].Column != w.col || toks[i].Line != 3 {
			t.Errorf("token %d = %+v, want kind %s at 3:%d", i, toks[i], w.kind, w.col)
		}
	}
	if toks[0].POS != token.Noun || toks[2].POS != token.Noun {
		t.Errorf("identifiers and numbers are nouns")
	}
}

func TestTokenizeBacktracks(t *testing.T) {
	// The longest prefix wins when the rest still splits; otherwise the
	// next shorter prefix is tried.
	v := newVocab(t, map[string]token.POS{
		"사과":  token.Noun,
		"사과에": token.Noun,
		"서다":  token.Verb,
		"에서":  token.Particle,
		"다":   token.Ending,
		"x":   token.Noun,
	})
	toks, err := v.Tokenize([]Fragment{{Text: "사과에서다", Line: 1}})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := lemmas(toks); got != "사과에[명사] 서다[동사]" {
		t.Errorf("longest prefix first: got %q", got)
	}

	v2 := newVocab(t, map[string]token.POS{
		"사과":  token.Noun,
		"사과에": token.Noun,
		"에서":  token.Particle,
		"다":   token.Ending,
	})
	toks, err = v2.Tokenize([]Fragment{{Text: "사과에서다", Line: 1}})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := lemmas(toks); got != "사과[명사] 에서[조사] 다[어미]" {
		t.Errorf("backtracking: got %q", got)
	}
}

func TestTokenizeNormalizesJamo(t *testing.T) {
	v := newVocab(t, basicWords)
	// 더하다 written with conjoining jamo
	decomposed := "\u1103\u1165\u1112\u1161\u1103\u1161"
	toks, err := v.Tokenize([]Fragment{{Text: decomposed, Line: 1}})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := lemmas(toks); got != "더하[동사] 다[어미]" {
		t.Errorf("got %q", got)
	}
}

func TestTokenizeUnknownWord(t *testing.T) {
	v := newVocab(t, basicWords)
	_, err := v.Tokenize([]Fragment{{Text: "3를 더하기다", Line: 2}})
	if !diagnostics.HasCode(err, diagnostics.ErrS005) {
		t.Fatalf("expected S005, got %v", err)
	}
	de, _ := diagnostics.As(err)
	if de.Token.Line != 2 || de.Token.Column != 4 {
		t.Errorf("error position = %s", de.Token.Pos())
	}
}

func TestUnknownWordSuggestion(t *testing.T) {
	v := newVocab(t, basicWords)
	_, err := v.Tokenize([]Fragment{{Text: "곱", Line: 1}})
	if err == nil || !strings.Contains(err.Error(), `did you mean "곱하"`) {
		t.Errorf("expected a suggestion, got %v", err)
	}
}

func TestSynonymChains(t *testing.T) {
	v := newVocab(t, basicWords, [2]string{"과", "와"}, [2]string{"하고", "과"})
	got, err := v.Canonical("하고")
	if err != nil || got != "와" {
		t.Errorf("Canonical(하고) = %q, %v", got, err)
	}

	if err := v.AddSynonym("와", "하고"); !diagnostics.HasCode(err, diagnostics.ErrS006) {
		t.Errorf("cycle should be rejected with S006, got %v", err)
	}
	if err := v.AddSynonym("를", "를"); !diagnostics.HasCode(err, diagnostics.ErrS006) {
		t.Errorf("self synonym should be rejected with S006, got %v", err)
	}
}

func TestSynonymDepthBound(t *testing.T) {
	v := newVocab(t, basicWords)
	v.MaxDepth = 3
	chain := []string{"가", "나", "다라", "마", "바"}
	for i := 0; i+1 < len(chain); i++ {
		if err := v.Lexicons[0].setSynonym(chain[i], chain[i+1]); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := v.Canonical("가"); !diagnostics.HasCode(err, diagnostics.ErrS006) {
		t.Errorf("expected S006 for an overlong chain, got %v", err)
	}
	if got, err := v.Canonical("마"); err != nil || got != "바" {
		t.Errorf("short chain: %q, %v", got, err)
	}
}

func TestVocabularyLayers(t *testing.T) {
	base := newVocab(t, basicWords, [2]string{"과", "와"})
	own, err := NewLexicon()
	if err != nil {
		t.Fatal(err)
	}
	defer own.Close()
	if err := own.AddWord("빼", token.Verb); err != nil {
		t.Fatal(err)
	}
	v := Vocabulary{Lexicons: []*Lexicon{own, base.Lexicons[0]}}

	toks, err := v.Tokenize([]Fragment{{Text: "3과 4를 빼다", Line: 1}})
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if got := lemmas(toks); got != "3 와[조사] 4 를[조사] 빼[동사] 다[어미]" {
		t.Errorf("got %q", got)
	}
	if err := v.AddSynonym("과", "를"); err != nil {
		t.Fatalf("a nearer lexicon may shadow a synonym: %v", err)
	}
	if got, _ := v.Canonical("과"); got != "를" {
		t.Errorf("nearest synonym wins, got %q", got)
	}
}

func TestAddWordRejectsPhraseCategories(t *testing.T) {
	lx, err := NewLexicon()
	if err != nil {
		t.Fatal(err)
	}
	defer lx.Close()
	if err := lx.AddWord("문장", token.Sentence); err == nil {
		t.Errorf("phrase categories are not lexical")
	}
}
