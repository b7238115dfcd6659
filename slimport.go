// Package slimport rewrites qualified references such as np.linalg.norm(x)
// into direct references backed by "from numpy.linalg import norm".
//
// The command line tool lives in cmd/slimport; this package exposes the
// engine for in-process use on source buffers.
package slimport

import (
	"github.com/gnolang/slimport/internal"
	"github.com/gnolang/slimport/internal/grammar"
	"github.com/gnolang/slimport/internal/types"
)

// DirectImport is an import statement produced for one module.
type DirectImport = types.DirectImport

// Options select the grammar and rewrite mode. The zero value optimizes
// Python sources and keeps declarations whose alias is still in use.
type Options struct {
	Grammar string
	Strict  bool
}

// Optimize rewrites the given source buffer. It returns the new content and
// the direct imports it introduced; the content is returned unchanged when
// nothing could be resolved.
func Optimize(source []byte, opts Options) ([]byte, []DirectImport, error) {
	name := opts.Grammar
	if name == "" {
		name = grammar.Python{}.Name()
	}
	g, err := grammar.Lookup(name)
	if err != nil {
		return nil, nil, err
	}

	engine, err := internal.NewEngine(g)
	if err != nil {
		return nil, nil, err
	}
	engine.SetStrict(opts.Strict)

	result, err := engine.RunSource(source)
	if err != nil {
		return nil, nil, err
	}
	if !result.Changed {
		return source, nil, nil
	}
	return result.Content(), result.Imports, nil
}

// Grammars lists the names accepted in Options.Grammar.
func Grammars() []string {
	return grammar.Names()
}
