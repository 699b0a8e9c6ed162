package malgeul_test

import (
	"bytes"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	malgeul "github.com/funvibe/malgeul/pkg/embed"
)

func newVM(t *testing.T) *malgeul.VM {
	t.Helper()
	vm, err := malgeul.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { vm.Close() })
	return vm
}

func TestEmbedAPI(t *testing.T) {
	vm := newVM(t)

	// 1. Bind Go functions to patterns
	if err := vm.Bind("{1 정수}[명사] 를[조사] 세배하[동사] -> {}[서술]", func(x int) int {
		return x * 3
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	var seen []string
	if err := vm.Bind("{1 글}[명사] 를[조사] 기록하[동사] -> {}[서술]", func(s string) {
		seen = append(seen, s)
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := vm.Word("사과", "명사"); err != nil {
		t.Fatalf("Word: %v", err)
	}

	// 2. Eval text that uses them together with the prelude
	res, err := vm.Eval("4를 세배하고, 그것과 2를 더하다.")
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if res != 14 {
		t.Errorf("result = %v (%T), want 14", res, res)
	}

	if _, err := vm.Eval("사과를 기록하다."); err != nil {
		t.Fatalf("Eval failed: %v", err)
	}
	if len(seen) != 1 || seen[0] != "사과" {
		t.Errorf("Go side saw %v", seen)
	}
}

func TestBindErrors(t *testing.T) {
	vm := newVM(t)
	if err := vm.Bind("{1 정수}[명사] 를[조사] 세배하[동사] -> {}[서술]", 3); err == nil {
		t.Error("binding a non-function should fail")
	}
	if err := vm.Bind("{1 정수}[명사] 를[조사] 검사하[동사] -> {}[서술]", func(n int) (bool, error) {
		if n < 0 {
			return false, errors.New("negative")
		}
		return true, nil
	}); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	res, err := vm.Eval("3을 검사하다.")
	if err != nil || res != true {
		t.Errorf("Eval = %v, %v", res, err)
	}
	if _, err := vm.Eval("0에서 3을 빼고, 그것을 검사하다."); err == nil || !strings.Contains(err.Error(), "negative") {
		t.Errorf("Eval error = %v, want the Go error", err)
	}
}

func TestMarshalling(t *testing.T) {
	vm := newVM(t)
	tests := []struct {
		src  string
		want interface{}
	}{
		{"1과 2를 더하다.", 3},
		{"참.", true},
		{"1.5와 1을 더하다.", 2.5},
	}
	for _, tt := range tests {
		res, err := vm.Eval(tt.src)
		if err != nil {
			t.Fatalf("%q: %v", tt.src, err)
		}
		if res != tt.want {
			t.Errorf("%q = %v (%T), want %v", tt.src, res, res, tt.want)
		}
	}

	res, err := vm.Eval("1을 3으로 나누다.")
	if err != nil {
		t.Fatal(err)
	}
	if r, ok := res.(*big.Rat); !ok || r.Cmp(big.NewRat(1, 3)) != 0 {
		t.Errorf("fraction = %v (%T)", res, res)
	}

	res, err = vm.Eval("1과 2와 3을 묶다.")
	if err != nil {
		t.Fatal(err)
	}
	list, ok := res.([]interface{})
	if !ok || len(list) != 3 || list[2] != 3 {
		t.Errorf("list = %v (%T)", res, res)
	}
}

func TestVariablesPersist(t *testing.T) {
	vm := newVM(t)
	if err := vm.Set("n", 5); err != nil {
		t.Fatal(err)
	}
	if _, err := vm.Eval("n을 늘리다."); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if _, err := vm.Eval("m에 n을 넣다."); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	got, err := vm.Get("m")
	if err != nil || got != 6 {
		t.Errorf("Get(m) = %v, %v", got, err)
	}
	if _, err := vm.Get("missing"); err == nil {
		t.Error("Get of an unknown variable should fail")
	}
}

func TestOutput(t *testing.T) {
	vm := newVM(t)
	var out bytes.Buffer
	vm.SetOutput(&out)
	if _, err := vm.Eval("2번 7을 출력하다."); err != nil {
		t.Fatal(err)
	}
	if out.String() != "7\n7\n" {
		t.Errorf("printed %q", out.String())
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	lib := "#약속 {1 수 @x}[명사] 를[조사] 두배하[동사] -> {}[서술]\n    x와 x를 더하다.\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "lib.mal"), []byte(lib), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(tmpDir, "main.mal")
	if err := os.WriteFile(mainPath, []byte("#가져오기 lib\n21을 두배하다.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	vm := newVM(t)
	res, err := vm.LoadFile(mainPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if res != 42 {
		t.Errorf("result = %v, want 42", res)
	}
}

func TestRun(t *testing.T) {
	out, err := malgeul.Run("3을 출력하다. 4와 5를 곱하다.", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "3\n20" {
		t.Errorf("Run = %q", out)
	}
	if _, err := malgeul.Run("3을 먹다.", ""); err == nil {
		t.Error("unknown word should fail")
	}
}
