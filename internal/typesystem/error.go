package typesystem

import (
	"fmt"
	"strings"
)

// NoMatchError indicates no signature accepts the arguments.
type NoMatchError struct {
	Actuals []Actual
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no signature accepts (%s)", DescribeActuals(e.Actuals))
}

// AmbiguityError indicates several signatures are minimal for the arguments.
type AmbiguityError struct {
	Actuals    []Actual
	Candidates []Signature
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous signatures for (%s): %s", DescribeActuals(e.Actuals), DescribeSignatures(e.Candidates))
}

// SignatureError indicates a signature whose declarations contradict each other.
type SignatureError struct {
	Reason string
}

func (e *SignatureError) Error() string {
	return e.Reason
}

func DescribeSignatures(sigs []Signature) string {
	parts := make([]string, len(sigs))
	for i, s := range sigs {
		parts[i] = s.String()
	}
	return strings.Join(parts, " | ")
}
