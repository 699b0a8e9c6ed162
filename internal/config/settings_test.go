package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Precision != DefaultPrecision {
		t.Errorf("Precision = %d, want %d", s.Precision, DefaultPrecision)
	}
	if s.MaxSynonymDepth != DefaultMaxSynonymDepth {
		t.Errorf("MaxSynonymDepth = %d, want %d", s.MaxSynonymDepth, DefaultMaxSynonymDepth)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, SettingsFileName)
	content := "precision: 12\nmax_reductions: 50\nsearch_paths:\n  - lib\ntrace: true\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadFor(filepath.Join(dir, "main.mal"))
	if err != nil {
		t.Fatalf("LoadFor failed: %v", err)
	}
	if s.Precision != 12 || s.MaxReductions != 50 || !s.Trace {
		t.Errorf("unexpected settings: %+v", s)
	}
	if len(s.SearchPaths) != 1 || s.SearchPaths[0] != "lib" {
		t.Errorf("SearchPaths = %v", s.SearchPaths)
	}
	// Untouched field keeps its default
	if s.MaxSynonymDepth != DefaultMaxSynonymDepth {
		t.Errorf("MaxSynonymDepth = %d", s.MaxSynonymDepth)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), SettingsFileName)
	if err := os.WriteFile(path, []byte("precision: [oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MALGEUL_PRECISION", "20")
	t.Setenv("MALGEUL_TRACE", "true")

	s, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if s.Precision != 20 {
		t.Errorf("Precision = %d, want 20", s.Precision)
	}
	if !s.Trace {
		t.Errorf("Trace should be enabled from the environment")
	}
}

func TestEnvPrecisionMustBePositive(t *testing.T) {
	for _, v := range []string{"-5", "0", "many"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("MALGEUL_PRECISION", v)
			s, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			if s.Precision != DefaultPrecision {
				t.Errorf("Precision = %d, want %d", s.Precision, DefaultPrecision)
			}
		})
	}
}
