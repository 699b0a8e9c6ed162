// Package prelude builds the base module every program imports: particles
// and their allomorphs, arithmetic, comparison, variables, lists, output and
// the sentence endings that thread antecedents.
package prelude

import (
	"fmt"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/modules"
)

// synonyms maps particle allomorphs to the form the patterns use.
var synonyms = [][2]string{
	{"을", "를"},
	{"과", "와"},
	{"이", "가"},
	{"으로", "로"},
	{"이면", "면"},
	{"으면", "면"},
}

// New builds a fresh prelude module. The caller owns it and must Close it.
func New(settings config.Settings) (*modules.Module, error) {
	m, err := modules.New(config.PreludeName, settings)
	if err != nil {
		return nil, err
	}
	if err := load(m); err != nil {
		m.Close()
		return nil, fmt.Errorf("prelude: %w", err)
	}
	return m, nil
}

func load(m *modules.Module) error {
	for _, s := range synonyms {
		if err := m.LoadSynonym(s[0], s[1]); err != nil {
			return err
		}
	}
	groups := [][]Builtin{
		SentenceBuiltins(),
		ArithmeticBuiltins(),
		ComparisonBuiltins(),
		VariableBuiltins(),
		ListBuiltins(),
		OutputBuiltins(),
	}
	for _, group := range groups {
		for _, b := range group {
			if _, err := m.LoadPattern(b.Pattern, b.Fn); err != nil {
				return err
			}
		}
	}
	for _, a := range Aliases() {
		if _, err := m.LoadAlias(a.Pattern, a.Target); err != nil {
			return err
		}
	}
	return nil
}
