package internal

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gnolang/slimport/internal/grammar"
)

// identClass matches one identifier character. Identifiers may contain any
// Unicode letter or digit.
const identClass = `[\p{L}\p{N}_]`

// directImports maps a resolved module path to the symbols imported from it.
type directImports map[string]map[string]struct{}

func (d directImports) add(module, symbol string) {
	symbols, ok := d[module]
	if !ok {
		symbols = make(map[string]struct{})
		d[module] = symbols
	}
	symbols[symbol] = struct{}{}
}

func (d directImports) modules() []string {
	modules := make([]string, 0, len(d))
	for module := range d {
		modules = append(modules, module)
	}
	sort.Strings(modules)
	return modules
}

func (d directImports) symbols(module string) []string {
	symbols := make([]string, 0, len(d[module]))
	for symbol := range d[module] {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// edit replaces line[start:end] with text.
type edit struct {
	start int
	end   int
	text  string
}

// applyEdits applies non-overlapping edits sorted by start offset.
func applyEdits(line string, edits []edit) string {
	if len(edits) == 0 {
		return line
	}

	var sb strings.Builder
	sb.Grow(len(line))
	pos := 0
	for _, ed := range edits {
		sb.WriteString(line[pos:ed.start])
		sb.WriteString(ed.text)
		pos = ed.end
	}
	sb.WriteString(line[pos:])
	return sb.String()
}

// aliasPatterns builds and memoizes the attribute-chain matchers of one run.
type aliasPatterns map[string]*chainMatcher

func (p aliasPatterns) get(alias string) *chainMatcher {
	m, ok := p[alias]
	if !ok {
		m = newChainMatcher(alias)
		p[alias] = m
	}
	return m
}

// chainMatcher finds `alias(.segment)*.symbol` accesses and bare references
// to an alias. The alias must start at an identifier boundary that is not
// itself an attribute access.
type chainMatcher struct {
	chain *regexp.Regexp
	bare  *regexp.Regexp
}

func newChainMatcher(alias string) *chainMatcher {
	quoted := regexp.QuoteMeta(alias)
	return &chainMatcher{
		chain: regexp.MustCompile(`(?:^|[^\p{L}\p{N}_.])(` + quoted + `)((?:\.` + identClass + `+)*)\.(` + identClass + `+)`),
		bare:  regexp.MustCompile(`(?:^|[^\p{L}\p{N}_.])` + quoted + `(?:[^\p{L}\p{N}_]|$)`),
	}
}

// resolve collects one edit per attribute chain on the line and records the
// resolved (module, symbol) pairs. It reports whether anything matched.
func (m *chainMatcher) resolve(line, module string, direct directImports) (string, bool) {
	var edits []edit
	for _, loc := range m.chain.FindAllStringSubmatchIndex(line, -1) {
		start, end := loc[2], loc[7]
		if end <= start {
			continue
		}
		symbol := line[loc[6]:loc[7]]
		direct.add(module+line[loc[4]:loc[5]], symbol)
		edits = append(edits, edit{start: start, end: end, text: symbol})
	}
	return applyEdits(line, edits), len(edits) > 0
}

func (m *chainMatcher) referenced(line string) bool {
	return m.bare.MatchString(line)
}

// rootToken is the identifier a usage of alias starts with.
func rootToken(alias string) string {
	if i := strings.IndexByte(alias, '.'); i >= 0 {
		return alias[:i]
	}
	return alias
}

// bindingKey identifies a binding independently of where it is declared, so
// that duplicate declarations share their outcome.
type bindingKey struct {
	module string
	alias  string
}

func keyOf(b grammar.Binding) bindingKey {
	return bindingKey{module: b.Module, alias: b.Alias}
}

// resolution is the outcome of alias resolution over one buffer.
type resolution struct {
	direct directImports
	// resolved holds the bindings that produced at least one direct import.
	resolved map[bindingKey]bool
	// referenced holds the aliases of resolved bindings still used bare.
	referenced map[string]bool
}

// declaredBinding is a binding together with its declaring position.
type declaredBinding struct {
	pos int
	grammar.Binding
}

// resolutionOrder lists the bindings in the order they claim attribute
// chains: dotted aliases before their prefixes, then later declarations
// before earlier ones since a rebinding shadows what it replaces.
func resolutionOrder(imports *importTable, skip map[int]bool) []declaredBinding {
	var order []declaredBinding
	for _, pos := range imports.decls {
		if skip[pos] {
			continue
		}
		for _, b := range imports.bindings[pos] {
			order = append(order, declaredBinding{pos: pos, Binding: b})
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		di := strings.Count(order[i].Alias, ".")
		dj := strings.Count(order[j].Alias, ".")
		if di != dj {
			return di > dj
		}
		return order[i].pos > order[j].pos
	})
	return order
}

// resolveAliases rewrites every attribute chain rooted at a declared alias
// to its bare symbol, in place. Skipped positions are neither rewritten nor
// resolved from, but still count as references.
func (e *Engine) resolveAliases(lines []string, imports *importTable, usages usageIndex, skip map[int]bool) *resolution {
	res := &resolution{
		direct:     make(directImports),
		resolved:   make(map[bindingKey]bool),
		referenced: make(map[string]bool),
	}
	patterns := make(aliasPatterns)

	for _, b := range resolutionOrder(imports, skip) {
		matcher := patterns.get(b.Alias)
		for _, lineno := range imports.without(usages[rootToken(b.Alias)]) {
			if skip[lineno] {
				continue
			}
			line, matched := matcher.resolve(lines[lineno], b.Module, res.direct)
			if matched {
				lines[lineno] = line
				res.resolved[keyOf(b.Binding)] = true
			}
		}
	}

	for key := range res.resolved {
		if res.referenced[key.alias] {
			continue
		}
		matcher := patterns.get(key.alias)
		for _, lineno := range usages[rootToken(key.alias)] {
			if matcher.referenced(lines[lineno]) {
				res.referenced[key.alias] = true
				break
			}
		}
	}
	return res
}
