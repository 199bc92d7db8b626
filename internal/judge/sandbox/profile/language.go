// Package profile defines language profiles used by the sandbox.
package profile

import (
	"strings"

	appErr "shunyata/pkg/errors"
)

// Placeholders substituted into command templates.
const (
	SourcePlaceholder = "{source}"
	BinaryPlaceholder = "{binary}"
)

// LanguageSpec defines how to compile and run a language.
type LanguageSpec struct {
	ID             string
	Name           string
	SourceFile     string
	BinaryFile     string
	CompileEnabled bool
	CompileCmd     []string
	RunCmd         []string
}

// ExpandCompileCmd substitutes source and binary paths into the compile command.
func (l LanguageSpec) ExpandCompileCmd(sourcePath, binaryPath string) []string {
	return expand(l.CompileCmd, sourcePath, binaryPath)
}

// ExpandRunCmd substitutes source and binary paths into the run command.
func (l LanguageSpec) ExpandRunCmd(sourcePath, binaryPath string) []string {
	return expand(l.RunCmd, sourcePath, binaryPath)
}

func expand(tpl []string, sourcePath, binaryPath string) []string {
	out := make([]string, 0, len(tpl))
	for _, arg := range tpl {
		arg = strings.ReplaceAll(arg, SourcePlaceholder, sourcePath)
		arg = strings.ReplaceAll(arg, BinaryPlaceholder, binaryPath)
		out = append(out, arg)
	}
	return out
}

// Registry resolves language identifiers to language specs.
type Registry struct {
	specs map[string]LanguageSpec
}

// NewRegistry creates a registry with the given specs.
func NewRegistry(specs ...LanguageSpec) *Registry {
	m := make(map[string]LanguageSpec, len(specs))
	for _, s := range specs {
		m[s.ID] = s
	}
	return &Registry{specs: m}
}

// DefaultRegistry returns the registry for the two supported toolchains.
func DefaultRegistry() *Registry {
	return NewRegistry(
		LanguageSpec{
			ID:             "cpp",
			Name:           "C++17 (g++)",
			SourceFile:     "main.cpp",
			BinaryFile:     "main",
			CompileEnabled: true,
			CompileCmd:     []string{"g++", "-std=c++17", "-O2", SourcePlaceholder, "-o", BinaryPlaceholder},
			RunCmd:         []string{BinaryPlaceholder},
		},
		LanguageSpec{
			ID:         "python",
			Name:       "Python 3",
			SourceFile: "main.py",
			RunCmd:     []string{"python3", SourcePlaceholder},
		},
	)
}

// Lookup returns the spec for a language id. Matching is case insensitive.
func (r *Registry) Lookup(id string) (LanguageSpec, error) {
	s, ok := r.specs[strings.ToLower(id)]
	if !ok {
		return LanguageSpec{}, appErr.Newf(appErr.LanguageNotSupported, "unsupported language: %s", id)
	}
	return s, nil
}
