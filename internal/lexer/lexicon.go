package lexer

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/token"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE words (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	lemma TEXT NOT NULL,
	pos   TEXT NOT NULL,
	UNIQUE (lemma, pos)
);
CREATE TABLE synonyms (
	form   TEXT PRIMARY KEY,
	target TEXT NOT NULL
);
`

// Lexicon is the vocabulary of one module: words with their parts of speech
// and synonym substitutions. It is kept in a private in-memory database.
type Lexicon struct {
	db *sql.DB
}

func NewLexicon() (*Lexicon, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating lexicon: %w", err)
	}
	return &Lexicon{db: db}, nil
}

func (l *Lexicon) Close() error {
	return l.db.Close()
}

// AddWord registers lemma with a part of speech. Registering the same pair
// twice is a no-op.
func (l *Lexicon) AddWord(lemma string, pos token.POS) error {
	if lemma == "" {
		return fmt.Errorf("empty lemma")
	}
	if !pos.IsLexical() {
		return fmt.Errorf("%q is not a lexical part of speech", pos)
	}
	_, err := l.db.Exec(`INSERT OR IGNORE INTO words (lemma, pos) VALUES (?, ?)`, normalize(lemma), string(pos))
	return err
}

// Tags returns the parts of speech registered for lemma, in registration order.
func (l *Lexicon) Tags(lemma string) ([]token.POS, error) {
	rows, err := l.db.Query(`SELECT pos FROM words WHERE lemma = ? ORDER BY id`, lemma)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []token.POS
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, token.POS(p))
	}
	return out, rows.Err()
}

// setSynonym stores form -> target without validation.
func (l *Lexicon) setSynonym(form, target string) error {
	_, err := l.db.Exec(`INSERT OR REPLACE INTO synonyms (form, target) VALUES (?, ?)`, form, target)
	return err
}

// Synonym returns the direct substitution for form.
func (l *Lexicon) Synonym(form string) (string, bool, error) {
	var target string
	err := l.db.QueryRow(`SELECT target FROM synonyms WHERE form = ?`, form).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return target, true, nil
}

// Prefixes returns every registered form (word or synonym) that is a prefix
// of s, longest first.
func (l *Lexicon) Prefixes(s string) ([]string, error) {
	rows, err := l.db.Query(`
		SELECT form FROM (
			SELECT lemma AS form FROM words
			UNION
			SELECT form FROM synonyms
		)
		WHERE substr(?1, 1, length(form)) = form
		ORDER BY length(form) DESC, form`, s)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Forms lists every word and synonym form, for suggestions.
func (l *Lexicon) Forms() ([]string, error) {
	rows, err := l.db.Query(`SELECT lemma FROM words UNION SELECT form FROM synonyms ORDER BY 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Vocabulary is the ordered set of lexicons visible from one module, the
// module's own lexicon first.
type Vocabulary struct {
	Lexicons []*Lexicon
	// MaxDepth bounds synonym chains; zero means the default.
	MaxDepth int
}

func (v Vocabulary) maxDepth() int {
	if v.MaxDepth > 0 {
		return v.MaxDepth
	}
	return config.DefaultMaxSynonymDepth
}

// Canonical follows synonym substitutions from form. Chains longer than the
// depth bound or revisiting a form are reported as S006.
func (v Vocabulary) Canonical(form string) (string, error) {
	seen := []string{form}
	cur := form
	for depth := 0; ; depth++ {
		next, ok, err := v.synonym(cur)
		if err != nil {
			return "", err
		}
		if !ok {
			return cur, nil
		}
		seen = append(seen, next)
		for _, s := range seen[:len(seen)-1] {
			if s == next {
				return "", diagnostics.NewError(diagnostics.ErrS006, token.Token{}, strings.Join(seen, " → "))
			}
		}
		if depth+1 >= v.maxDepth() {
			return "", diagnostics.NewError(diagnostics.ErrS006, token.Token{},
				strings.Join(seen, " → ")+fmt.Sprintf(" (deeper than %d)", v.maxDepth()))
		}
		cur = next
	}
}

func (v Vocabulary) synonym(form string) (string, bool, error) {
	for _, l := range v.Lexicons {
		t, ok, err := l.Synonym(form)
		if err != nil || ok {
			return t, ok, err
		}
	}
	return "", false, nil
}

// AddSynonym validates form -> target against everything visible and stores
// it in the first lexicon.
func (v Vocabulary) AddSynonym(form, target string) error {
	form, target = normalize(form), normalize(target)
	if form == "" || target == "" {
		return fmt.Errorf("empty synonym")
	}
	if len(v.Lexicons) == 0 {
		return fmt.Errorf("no lexicon")
	}
	if form == target {
		return diagnostics.NewError(diagnostics.ErrS006, token.Token{}, form+" → "+target)
	}
	end, err := v.Canonical(target)
	if err != nil {
		return err
	}
	if end == form {
		return diagnostics.NewError(diagnostics.ErrS006, token.Token{}, form+" → "+target+" → … → "+form)
	}
	return v.Lexicons[0].setSynonym(form, target)
}

// Tags returns the parts of speech of a canonical lemma, nearest lexicon first.
func (v Vocabulary) Tags(lemma string) ([]token.POS, error) {
	for _, l := range v.Lexicons {
		tags, err := l.Tags(lemma)
		if err != nil {
			return nil, err
		}
		if len(tags) > 0 {
			return tags, nil
		}
	}
	return nil, nil
}

// Prefixes merges the prefixes of s from every lexicon, longest first.
func (v Vocabulary) Prefixes(s string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, l := range v.Lexicons {
		ps, err := l.Prefixes(s)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len([]rune(out[i])) > len([]rune(out[j]))
	})
	return out, nil
}

// Forms lists all forms visible, deduplicated and sorted.
func (v Vocabulary) Forms() ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, l := range v.Lexicons {
		fs, err := l.Forms()
		if err != nil {
			return nil, err
		}
		for _, f := range fs {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
