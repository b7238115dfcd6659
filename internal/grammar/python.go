package grammar

import (
	"strings"
)

const (
	pythonImport = "import "
	pythonRename = "as"
	pythonFrom   = "from "
)

// Python implements Grammar for `import a.b as c` style declarations.
type Python struct{}

func (Python) Name() string { return "python" }

func (Python) Extensions() []string { return []string{".py"} }

func (Python) LineComment() string { return "#" }

func (Python) BlockDelimiters() []string { return []string{`"""`, `'''`} }

// IsDeclaration only accepts module-level declarations, so the keyword must
// start the line.
func (Python) IsDeclaration(line string) bool {
	return strings.HasPrefix(line, pythonImport)
}

func (Python) IsDirectImport(line string) bool {
	return strings.HasPrefix(line, pythonFrom)
}

func (p Python) ParseDeclaration(line string) []Binding {
	if !p.IsDeclaration(line) {
		return nil
	}
	rest := line[len(pythonImport):]
	if i := strings.Index(rest, p.LineComment()); i >= 0 {
		rest = rest[:i]
	}

	var bindings []Binding
	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		tokens := strings.Fields(clause)
		if len(tokens) == 0 {
			continue
		}
		module, alias := tokens[0], tokens[len(tokens)-1]
		if alias == pythonRename {
			// `import a as` is not valid, keep the module name
			alias = module
		}
		bindings = append(bindings, Binding{
			Module: module,
			Alias:  alias,
			Clause: strings.Join(tokens, " "),
		})
	}
	return bindings
}

func (Python) Declare(clauses []string) string {
	return pythonImport + strings.Join(clauses, ", ")
}

func (Python) Synthesize(module string, symbols []string) string {
	return pythonFrom + module + " " + pythonImport + strings.Join(symbols, ", ")
}
