// Package internal provides the rewriting engine behind slimport.
//
// The engine turns whole-module imports into direct imports of the symbols a
// source file actually reaches through attribute chains:
//
//	import numpy as np          from numpy.linalg import norm
//	v = np.linalg.norm(x)   =>  v = norm(x)
//
// It works on lines, not on a syntax tree. The language specific parts
// (comment markers, block delimiters, import syntax) come from a
// grammar.Grammar.
//
// Key components:
//
// Engine: runs one file or buffer through the pipeline below and writes the
// result back atomically.
//
// Line classification: marks the lines that carry code. Comments and every
// line of a paired block delimiter region (docstrings) are left alone.
//
// Import extraction: collects the declarations and the aliases they bind.
//
// Usage index: maps identifiers to the code lines they occur on.
//
// Alias resolution: rewrites each chain alias.sub.symbol to symbol in one
// left to right pass per line and records module alias.sub -> symbol.
// Dotted aliases and later declarations claim chains first.
//
// Rewrite: synthesizes the direct imports, merges them into the declaring
// lines and inserts the rest after the last import.
//
// Cache and Watcher: skip files that did not change since the last run and
// re-run the engine whenever a watched file is written.
//
// Usage:
//
//	engine, err := internal.NewEngine(grammar.Python{})
//	if err != nil {
//	    // handle error
//	}
//
//	result, err := engine.Run("path/to/file.py")
//	if err != nil {
//	    // handle error
//	}
package internal
