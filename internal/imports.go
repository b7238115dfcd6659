package internal

import (
	"github.com/gnolang/slimport/internal/grammar"
)

// importTable records the import declarations of one buffer.
type importTable struct {
	// bindings holds the whole-module bindings per declaring position.
	bindings map[int][]grammar.Binding
	// decls lists the positions of whole-module declarations in ascending order.
	decls []int
	// positions holds every import position, direct imports included.
	positions map[int]bool
	// declared maps an alias or a bare module path to the position that
	// declared it. The later declaration wins.
	declared map[string]int
	last     int
}

func (t *importTable) isImport(pos int) bool {
	return t.positions[pos]
}

// lastPosition returns the position of the last import line, or -1.
func (t *importTable) lastPosition() int {
	return t.last
}

// without drops import positions from a list of line positions.
func (t *importTable) without(lines []int) []int {
	out := make([]int, 0, len(lines))
	for _, pos := range lines {
		if !t.isImport(pos) {
			out = append(out, pos)
		}
	}
	return out
}

// extractImports scans the live lines for import declarations.
func (e *Engine) extractImports(lines []string, live []bool) *importTable {
	table := &importTable{
		bindings:  make(map[int][]grammar.Binding),
		positions: make(map[int]bool),
		declared:  make(map[string]int),
		last:      -1,
	}

	for i, line := range lines {
		if !live[i] {
			continue
		}

		switch {
		case e.grammar.IsDeclaration(line):
			bindings := e.grammar.ParseDeclaration(line)
			if len(bindings) == 0 {
				continue
			}
			table.bindings[i] = bindings
			table.decls = append(table.decls, i)
			for _, b := range bindings {
				table.declared[b.Module] = i
				table.declared[b.Alias] = i
			}
		case e.grammar.IsDirectImport(line):
		default:
			continue
		}

		table.positions[i] = true
		table.last = i
	}
	return table
}
