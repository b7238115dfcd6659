package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gnolang/slimport/internal/grammar"
	"github.com/gnolang/slimport/internal/types"
)

// Engine rewrites whole-module imports of a source file into direct imports
// of the symbols the file actually uses.
type Engine struct {
	grammar grammar.Grammar
	identRe *regexp.Regexp
	skipRe  *regexp.Regexp
	dryRun  bool
	strict  bool
	cache   *Cache
}

// NewEngine creates a new engine for the given grammar.
func NewEngine(g grammar.Grammar) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil grammar", grammar.ErrUnknownGrammar)
	}
	return &Engine{
		grammar: g,
		identRe: regexp.MustCompile(identClass + `+`),
		skipRe:  skipPattern(g.LineComment()),
	}, nil
}

func (e *Engine) Grammar() grammar.Grammar { return e.grammar }

// SetDryRun disables writing rewritten files back to disk.
func (e *Engine) SetDryRun(dryRun bool) { e.dryRun = dryRun }

// SetStrict makes the engine overwrite a declaring line with its direct
// imports even when the alias is still referenced bare.
func (e *Engine) SetStrict(strict bool) { e.strict = strict }

// UseCache skips files that did not change since they were last processed.
func (e *Engine) UseCache(c *Cache) { e.cache = c }

// Run optimizes the imports of the given file and writes it back when at
// least one direct import was produced.
func (e *Engine) Run(filename string) (*types.Result, error) {
	if e.cache != nil && e.cache.Fresh(filename) {
		return &types.Result{Filename: filename, Skipped: true}, nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	result := e.optimize(string(content))
	result.Filename = filename

	if result.Changed && !e.dryRun {
		if err := writeFile(filename, result.Content()); err != nil {
			return nil, err
		}
		result.Written = true
	}

	// a dry run leaves the file as it was, so it must be looked at again
	if e.cache != nil && (!result.Changed || result.Written) {
		if err := e.cache.Set(filename); err != nil {
			return result, fmt.Errorf("failed to update cache: %w", err)
		}
	}
	return result, nil
}

// RunSource optimizes the imports of the given source. Nothing is written.
func (e *Engine) RunSource(source []byte) (*types.Result, error) {
	return e.optimize(string(source)), nil
}

func (e *Engine) optimize(content string) *types.Result {
	newline := lineEnding(content)
	original := splitLines(content, newline)
	lines := make([]string, len(original))
	copy(lines, original)

	result := &types.Result{Original: original, Lines: original, Newline: newline}

	skips := e.parseSkipDirectives(lines)
	if skips.file {
		return result
	}

	live := e.classifyLines(lines)
	imports := e.extractImports(lines, live)
	usages := e.indexUsages(lines, live, imports)
	res := e.resolveAliases(lines, imports, usages, skips.lines)

	out, placed := e.rewrite(lines, imports, res)
	if len(placed) == 0 {
		return result
	}

	result.Lines = out
	result.Imports = placed
	result.Changed = true
	return result
}

// lineEnding reports the line terminator of content, decided by its first
// line: "\r\n" or "\n".
func lineEnding(content string) string {
	if i := strings.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// splitLines splits content into lines without their terminators. A final
// newline does not start an extra empty line.
func splitLines(content, newline string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	if newline == "\r\n" {
		for i, line := range lines {
			lines[i] = strings.TrimSuffix(line, "\r")
		}
	}
	return lines
}

// writeFile replaces filename with content through a temporary file in the
// same directory, keeping the original permission bits.
func writeFile(filename string, content []byte) error {
	info, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), ".slimport-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
