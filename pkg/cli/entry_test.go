package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/malgeul/internal/config"
)

func runMain(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	code := Main(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestCommandLine(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "prog.mal")
	if err := os.WriteFile(prog, []byte("3을 출력하다.\n4와 5를 더하다.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.mal")
	if err := os.WriteFile(bad, []byte("3을 먹다.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		stdin   string
		args    []string
		code    int
		stdout  string
		stderrs string
	}{
		{"version", "", []string{"-version"}, 0, "malgeul " + config.Version + "\n", ""},
		{"run", "", []string{"run", prog}, 0, "3\n9\n", ""},
		{"file", "", []string{prog}, 0, "3\n9\n", ""},
		{"check", "", []string{"check", prog}, 0, prog + ": 2 sentences\n", ""},
		{"tree", "", []string{"tree", prog}, 0, "", ""},
		{"eval", "", []string{"-e", "2와", "3을", "곱하다."}, 0, "6\n", ""},
		{"stdin", "1을 2로 나누다.", nil, 0, "1/2\n", ""},
		{"unknown word", "", []string{"run", bad}, 1, "", "S005"},
		{"missing file", "", []string{"run", filepath.Join(dir, "none.mal")}, 1, "", "Error reading input"},
		{"unknown command", "", []string{"frobnicate"}, 2, "", "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runMain(t, tt.stdin, tt.args...)
			if code != tt.code {
				t.Errorf("exit = %d, want %d (stderr %q)", code, tt.code, stderr)
			}
			if tt.stdout != "" && stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			if tt.stderrs != "" && !strings.Contains(stderr, tt.stderrs) {
				t.Errorf("stderr = %q, want it to mention %q", stderr, tt.stderrs)
			}
		})
	}
}

func TestRunDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "app")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	lib := "#약속 {1 수 @x}[명사] 를[조사] 두배하[동사] -> {}[서술]\n    x와 x를 더하다.\n"
	if err := os.WriteFile(filepath.Join(dir, "lib.mal"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.mal"), []byte("#가져오기 lib\n5를 두배하다.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runMain(t, "", dir)
	if code != 0 || stdout != "10\n" {
		t.Errorf("exit %d, stdout %q, stderr %q", code, stdout, stderr)
	}
}

func TestSettingsNextToProgram(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFileName), []byte("precision: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	prog := filepath.Join(dir, "p.mal")
	if err := os.WriteFile(prog, []byte("1.0을 3으로 나누다.\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, stdout, stderr := runMain(t, "", prog)
	if code != 0 || stdout != "0.33333\n" {
		t.Errorf("exit %d, stdout %q, stderr %q", code, stdout, stderr)
	}
}

func TestSession(t *testing.T) {
	var out bytes.Buffer
	s, err := newSession(config.Default(), &out)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	steps := []struct {
		src  string
		want string
	}{
		{"x에 2를 넣다.", "2"},
		{"#약속 {1 수 @n}[명사] 를[조사] 제곱하[동사] -> {}[서술]\n    n과 n을 곱하다.", ""},
		{"x를 제곱하다.", "4"},
		{"x를 늘리다. x를 제곱하다.", "9"},
	}
	for _, st := range steps {
		got, err := s.eval(st.src)
		if err != nil {
			t.Fatalf("%q: %v", st.src, err)
		}
		if got != st.want {
			t.Errorf("%q = %q, want %q", st.src, got, st.want)
		}
	}

	if _, err := s.eval("3을 먹다."); err == nil {
		t.Error("unknown word should fail")
	}
	if got, err := s.eval("x."); err != nil || got != "3" {
		t.Errorf("session lost its state after an error: %q, %v", got, err)
	}

	found := false
	for _, k := range s.patterns("제곱하") {
		if strings.Contains(k, "제곱하[동사]") {
			found = true
		}
	}
	if !found {
		t.Errorf("patterns = %v", s.patterns("제곱하"))
	}
}

func TestHandleCommand(t *testing.T) {
	var out, errs bytes.Buffer
	s, err := newSession(config.Default(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.eval("x에 1을 넣다."); err != nil {
		t.Fatal(err)
	}

	next, done := handleCommand(s, ":reset", &out, &errs)
	if done || next == s {
		t.Fatal(":reset should return a fresh session")
	}
	defer next.Close()
	if _, err := next.eval("x를 출력하다."); err == nil {
		t.Error("variables should not survive :reset")
	}

	if _, done := handleCommand(next, ":quit", &out, &errs); !done {
		t.Error(":quit should end the loop")
	}
	handleCommand(next, ":bogus", &out, &errs)
	if !strings.Contains(errs.String(), "unknown command") {
		t.Errorf("stderr = %q", errs.String())
	}
}
