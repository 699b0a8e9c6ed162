package diagnostics

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/funvibe/malgeul/internal/token"
)

func TestCategories(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want Category
	}{
		{ErrS001, SyntaxError},
		{ErrT002, TypeError},
		{ErrR003, RuntimeError},
		{ErrI001, InternalError},
	}
	for _, tt := range tests {
		if got := NewError(tt.code, token.Token{}).Category(); got != tt.want {
			t.Errorf("%s: category = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestErrorFormatting(t *testing.T) {
	err := NewError(ErrR003, token.NewIdent("x", 3, 7), "x")
	err.File = "main.mal"
	got := err.Error()
	want := "main.mal:3:7: runtime error [R003]: variable x is read before assignment"
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	noLoc := NewError(ErrI001, token.Token{}, "index mismatch")
	if !strings.HasPrefix(noLoc.Error(), "internal error [I001]") {
		t.Errorf("unexpected: %q", noLoc.Error())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := NewError(ErrR004, token.Token{}, "곱하")
	wrapped := fmt.Errorf("calling: %w", inner)

	de, ok := As(wrapped)
	if !ok || de != inner {
		t.Fatalf("As did not unwrap the diagnostic")
	}
	if !HasCode(wrapped, ErrR004) {
		t.Errorf("HasCode should see R004")
	}
	if HasCode(errors.New("plain"), ErrR004) {
		t.Errorf("plain errors carry no code")
	}
	if Wrap(errors.New("boom"), ErrR006).Code != ErrR006 {
		t.Errorf("Wrap should assign the fallback code")
	}
}

func TestAtKeepsExistingLocation(t *testing.T) {
	err := NewError(ErrS005, token.NewWord("사과", "명사", 1, 1), "사과", "")
	err.At(token.NewWord("배", "명사", 9, 9))
	if err.Token.Line != 1 {
		t.Errorf("At overwrote an existing location")
	}
}
