package lexer

import (
	"testing"

	"github.com/funvibe/malgeul/internal/diagnostics"
)

func TestSplitStatements(t *testing.T) {
	src := `// 예제
#단어 빼 동사
#같은말 과 = 와
#가져오기 수학.mal

#약속 {1 수 @a}[명사] 를[조사] 두배하[동사] -> {}[서술]
    a와 a를 더하다.
3을 두배하다.
#바꿈 {1 수 @b}[명사] 를[조사] 곱하[동사] -> {}[서술] => {1 수 @a}[명사] 에[조사] {1 수 @b}[명사] 를[조사] 곱하[동사] -> {}[서술]
  4를
  출력하다.
`
	s, err := SplitStatements(src)
	if err != nil {
		t.Fatalf("SplitStatements: %v", err)
	}

	kinds := []DirectiveKind{Vocab, Synonym, Import, Define, Alias}
	if len(s.Directives) != len(kinds) {
		t.Fatalf("got %d directives: %+v", len(s.Directives), s.Directives)
	}
	for i, k := range kinds {
		if s.Directives[i].Kind != k {
			t.Errorf("directive %d is %s, want %s", i, s.Directives[i].Kind, k)
		}
	}

	if a := s.Directives[0].Args; a[0] != "빼" || a[1] != "동사" {
		t.Errorf("vocab args = %v", a)
	}
	if a := s.Directives[1].Args; a[0] != "과" || a[1] != "와" {
		t.Errorf("synonym args = %v", a)
	}
	def := s.Directives[3]
	if def.Line != 6 || len(def.Body) != 1 || def.Body[0].Text != "a와 a를 더하다." || def.Body[0].Line != 7 {
		t.Errorf("define = %+v", def)
	}
	alias := s.Directives[4]
	if alias.Args[0] != "{1 수 @b}[명사] 를[조사] 곱하[동사] -> {}[서술]" {
		t.Errorf("alias = %q", alias.Args[0])
	}

	// indented lines without a preceding #약속 are program text
	if len(s.Program) != 3 {
		t.Fatalf("program = %+v", s.Program)
	}
	if s.Program[0].Text != "3을 두배하다." || s.Program[0].Line != 8 {
		t.Errorf("program[0] = %+v", s.Program[0])
	}
	if s.Program[2].Text != "출력하다." || s.Program[2].Line != 11 {
		t.Errorf("program[2] = %+v", s.Program[2])
	}
}

func TestSplitStatementsErrors(t *testing.T) {
	tests := []string{
		"#모르는것 x",
		"#단어 빼",
		"#같은말 과 와",
		"#바꿈 {1 수}[명사] 를[조사] -> {}[서술]",
		"#가져오기",
		"#약속 {1 수}[명사] 를[조사] 두배하[동사] -> {}[서술]\n3을 두배하다.",
	}
	for _, src := range tests {
		_, err := SplitStatements(src)
		if !diagnostics.HasCode(err, diagnostics.ErrS007) {
			t.Errorf("SplitStatements(%q) = %v, want S007", src, err)
		}
	}
}
