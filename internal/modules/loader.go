package modules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/malgeul/internal/config"
	"github.com/funvibe/malgeul/internal/diagnostics"
	"github.com/funvibe/malgeul/internal/lexer"
	"github.com/funvibe/malgeul/internal/token"
)

// Loader reads module files and resolves their imports. Every module it
// creates imports the base module first.
type Loader struct {
	Settings config.Settings
	Base     *Module

	LoadedModules map[string]*Module    // Cache of loaded modules by absolute path
	ModulesByID   map[uuid.UUID]*Module // Every module created by this loader
	Processing    map[string]bool       // Cycle detection during loading
}

func NewLoader(settings config.Settings, base *Module) *Loader {
	return &Loader{
		Settings:      settings,
		Base:          base,
		LoadedModules: make(map[string]*Module),
		ModulesByID:   make(map[uuid.UUID]*Module),
		Processing:    make(map[string]bool),
	}
}

// Close releases the lexicons of every module created by the loader.
func (l *Loader) Close() error {
	var errs []error
	for _, m := range l.ModulesByID {
		if err := m.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.ModulesByID = make(map[uuid.UUID]*Module)
	l.LoadedModules = make(map[string]*Module)
	return errors.Join(errs...)
}

// Load reads the module at path, loading its imports first. Loading the
// same file twice returns the cached module.
func (l *Loader) Load(path string) (*Module, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, loadError(token.Token{}, err.Error())
	}
	if mod, ok := l.LoadedModules[absPath]; ok {
		return mod, nil
	}
	if l.Processing[absPath] {
		return nil, loadError(token.Token{}, "circular import of "+absPath)
	}
	l.Processing[absPath] = true
	defer func() { delete(l.Processing, absPath) }()

	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, loadError(token.Token{}, fmt.Sprintf("cannot read %s: %v", path, err))
	}
	mod, err := l.LoadSource(absPath, string(content))
	if err != nil {
		return nil, err
	}
	l.LoadedModules[absPath] = mod
	return mod, nil
}

// LoadSource builds a module from source text. path names the module and
// anchors relative imports; it may be empty.
func (l *Loader) LoadSource(path, source string) (*Module, error) {
	name := "main"
	if path != "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	mod, err := New(name, l.Settings)
	if err != nil {
		return nil, err
	}
	mod.Path = path
	l.ModulesByID[mod.ID] = mod
	if l.Base != nil {
		mod.Import(l.Base)
	}

	src, err := lexer.SplitStatements(source)
	if err != nil {
		return nil, withFile(err, path)
	}
	if err := l.apply(mod, src); err != nil {
		return nil, withFile(err, path)
	}
	mod.Program = src.Program
	return mod, nil
}

// Extend applies the declarations in source to an existing module and
// returns its program text. The REPL feeds each input through it.
func (l *Loader) Extend(mod *Module, source string) ([]lexer.Fragment, error) {
	src, err := lexer.SplitStatements(source)
	if err != nil {
		return nil, err
	}
	if err := l.apply(mod, src); err != nil {
		return nil, err
	}
	return src.Program, nil
}

func (l *Loader) apply(mod *Module, src *lexer.Source) error {
	for _, d := range src.Directives {
		at := token.Token{Line: d.Line, Column: 1}
		var err error
		switch d.Kind {
		case lexer.Vocab:
			if err = mod.LoadVocab(d.Args[0], d.Args[1]); err != nil {
				err = diagnostics.NewError(diagnostics.ErrS007, at, strings.Join(d.Args, " "), err.Error())
			}
		case lexer.Synonym:
			err = mod.LoadSynonym(d.Args[0], d.Args[1])
		case lexer.Define:
			_, err = mod.LoadBody(d.Args[0], d.Body)
		case lexer.Alias:
			_, err = mod.LoadAlias(d.Args[0], d.Args[1])
		case lexer.Import:
			var dep *Module
			dep, err = l.resolveImport(mod, d.Args[0], at)
			if err == nil {
				mod.Import(dep)
			}
		}
		if err != nil {
			return locate(err, at)
		}
	}
	return mod.Finalize()
}

// resolveImport finds an imported file relative to the importing module,
// then along the search paths. The extension may be left out.
func (l *Loader) resolveImport(from *Module, name string, at token.Token) (*Module, error) {
	var dirs []string
	if from.Path != "" {
		dirs = append(dirs, filepath.Dir(from.Path))
	} else {
		dirs = append(dirs, ".")
	}
	dirs = append(dirs, l.Settings.SearchPaths...)

	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = nil
		for _, ext := range config.SourceFileExtensions {
			candidates = append(candidates, name+ext)
		}
	}
	for _, dir := range dirs {
		for _, c := range candidates {
			p := c
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, c)
			}
			if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
				continue
			}
			mod, err := l.Load(p)
			if err != nil {
				return nil, locate(err, at)
			}
			return mod, nil
		}
	}
	return nil, loadError(at, fmt.Sprintf("module %q not found", name))
}

func loadError(at token.Token, msg string) *diagnostics.DiagnosticError {
	return diagnostics.NewError(diagnostics.ErrR006, at, msg)
}

func locate(err error, at token.Token) error {
	if de, ok := diagnostics.As(err); ok {
		return de.At(at)
	}
	return diagnostics.NewError(diagnostics.ErrR006, at, err.Error())
}

func withFile(err error, path string) error {
	if de, ok := diagnostics.As(err); ok && de.File == "" {
		de.File = path
	}
	return err
}
