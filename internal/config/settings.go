package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/env/v2"
	"gopkg.in/yaml.v3"
)

// Settings holds the tunables of one interpreter run.
type Settings struct {
	// Precision is the number of significant decimal digits used for 수 arithmetic.
	Precision uint32 `yaml:"precision"`

	// MaxSynonymDepth bounds synonym chain expansion in the lexer.
	MaxSynonymDepth int `yaml:"max_synonym_depth"`

	// MaxReductions bounds the number of reductions per parsed phrase.
	MaxReductions int `yaml:"max_reductions"`

	// SearchPaths are extra directories consulted by #가져오기.
	SearchPaths []string `yaml:"search_paths,omitempty"`

	// Trace enables reduction and dispatch tracing on stderr.
	Trace bool `yaml:"trace"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Precision:       DefaultPrecision,
		MaxSynonymDepth: DefaultMaxSynonymDepth,
		MaxReductions:   DefaultMaxReductions,
	}
}

// Load reads settings from a YAML file and applies environment overrides.
// A missing file is not an error: defaults are used instead.
func Load(path string) (Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("cannot read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return s, fmt.Errorf("invalid %s: %w", path, err)
			}
		}
	}
	s.applyEnv()
	s.normalize()
	return s, nil
}

// LoadFor finds malgeul.yaml next to a program file.
func LoadFor(programPath string) (Settings, error) {
	if programPath == "" {
		return Load("")
	}
	return Load(filepath.Join(filepath.Dir(programPath), SettingsFileName))
}

func (s *Settings) applyEnv() {
	if env.Has("MALGEUL_PRECISION") {
		// Values that are not positive fall back to the default.
		if n := env.Int("MALGEUL_PRECISION", 0); n > 0 && int64(n) <= math.MaxUint32 {
			s.Precision = uint32(n)
		} else {
			s.Precision = DefaultPrecision
		}
	}
	if env.Has("MALGEUL_MAX_REDUCTIONS") {
		s.MaxReductions = env.Int("MALGEUL_MAX_REDUCTIONS", s.MaxReductions)
	}
	if env.Has("MALGEUL_TRACE") {
		s.Trace = env.Bool("MALGEUL_TRACE")
	}
	if paths := env.Str("MALGEUL_PATH"); paths != "" {
		s.SearchPaths = append(s.SearchPaths, strings.Split(paths, string(os.PathListSeparator))...)
	}
}

func (s *Settings) normalize() {
	if s.Precision == 0 {
		s.Precision = DefaultPrecision
	}
	if s.MaxSynonymDepth <= 0 {
		s.MaxSynonymDepth = DefaultMaxSynonymDepth
	}
	if s.MaxReductions <= 0 {
		s.MaxReductions = DefaultMaxReductions
	}
}
