package internal

import (
	"github.com/gnolang/slimport/internal/types"
)

// rewrite synthesizes the direct imports and assembles the output buffer.
// The returned lines alias nothing in the input.
func (e *Engine) rewrite(lines []string, imports *importTable, res *resolution) ([]string, []types.DirectImport) {
	if len(res.direct) == 0 {
		return nil, nil
	}

	last := imports.lastPosition()
	statements := make(map[int][]string)
	var (
		inserted []string
		placed   []types.DirectImport
	)
	for _, module := range res.direct.modules() {
		symbols := res.direct.symbols(module)
		stmt := e.grammar.Synthesize(module, symbols)
		if pos, ok := imports.declared[module]; ok {
			statements[pos] = append(statements[pos], stmt)
			placed = append(placed, types.DirectImport{Module: module, Symbols: symbols, Statement: stmt, Line: pos})
			continue
		}
		inserted = append(inserted, stmt)
		placed = append(placed, types.DirectImport{Module: module, Symbols: symbols, Statement: stmt, Line: last, Inserted: true})
	}

	var replacements map[int][]string
	if e.strict {
		replacements = statements
	} else {
		replacements = e.mergeDeclarations(imports, res, statements)
	}

	out := make([]string, 0, len(lines)+len(inserted))
	for i, line := range lines {
		if repl, ok := replacements[i]; ok {
			out = append(out, repl...)
		} else {
			out = append(out, line)
		}
		if i == last {
			out = append(out, inserted...)
		}
	}
	return out, placed
}

// mergeDeclarations regenerates every declaring line that lost a clause or
// received a statement. Clauses whose binding was resolved are dropped unless
// the alias is still referenced bare; a line left empty is removed.
func (e *Engine) mergeDeclarations(imports *importTable, res *resolution, statements map[int][]string) map[int][]string {
	replacements := make(map[int][]string)
	for _, pos := range imports.decls {
		bindings := imports.bindings[pos]

		var kept []string
		for _, b := range bindings {
			if res.resolved[keyOf(b)] && !res.referenced[b.Alias] {
				continue
			}
			kept = append(kept, b.Clause)
		}

		if len(kept) == len(bindings) && len(statements[pos]) == 0 {
			continue
		}

		repl := make([]string, 0, 1+len(statements[pos]))
		if len(kept) > 0 {
			repl = append(repl, e.grammar.Declare(kept))
		}
		replacements[pos] = append(repl, statements[pos]...)
	}

	return replacements
}
