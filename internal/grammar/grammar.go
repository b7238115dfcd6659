// Package grammar describes the textual import syntax of a source language.
//
// The engine in package internal only knows about lines, identifiers and
// attribute chains. Everything that depends on how a language spells an
// import statement (the keyword, the rename syntax, how a direct import is
// written back, which comment markers exist) lives behind the Grammar
// interface so the rest of the pipeline can be reused for other syntaxes.
package grammar

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownGrammar = errors.New("unknown grammar")

// Binding is a single module bound to a local name by an import declaration.
type Binding struct {
	// Module is the dotted module path as written in the declaration.
	Module string
	// Alias is the local name the module is reachable through.
	Alias string
	// Clause is the original clause text, trimmed.
	Clause string
}

// Renamed reports whether the binding uses an explicit rename.
func (b Binding) Renamed() bool {
	return b.Alias != b.Module
}

// Grammar parses and synthesizes import declarations for one language.
type Grammar interface {
	// Name is the identifier used in configuration files.
	Name() string
	// Extensions lists the file suffixes handled by the grammar, with the dot.
	Extensions() []string
	// LineComment is the marker that starts a line comment.
	LineComment() string
	// BlockDelimiters lists the paired delimiters of block comments and
	// doc strings.
	BlockDelimiters() []string
	// IsDeclaration reports whether the line is a whole-module import.
	IsDeclaration(line string) bool
	// IsDirectImport reports whether the line already imports specific
	// symbols. Such lines take part in placement but are never rewritten.
	IsDirectImport(line string) bool
	// ParseDeclaration returns the bindings declared on the line.
	ParseDeclaration(line string) []Binding
	// Declare regenerates a whole-module import for the given clauses.
	Declare(clauses []string) string
	// Synthesize renders a direct import of symbols from module.
	Synthesize(module string, symbols []string) string
}

var registry = map[string]Grammar{
	"python": Python{},
}

// Lookup returns the grammar registered under name.
func Lookup(name string) (Grammar, error) {
	g, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrammar, name)
	}
	return g, nil
}

// Names returns the registered grammar names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
