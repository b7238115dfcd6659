package internal

import (
	"regexp"
)

const (
	skipLine = "skip"
	skipFile = "skip-file"
)

// skipDirectives records the "slimport: skip" comments of a buffer.
type skipDirectives struct {
	// file is set when the whole buffer opted out.
	file  bool
	lines map[int]bool
}

// skipPattern matches "<marker> slimport: skip" and "<marker> slimport: skip-file".
// Grammars without a line comment marker have no directives.
func skipPattern(marker string) *regexp.Regexp {
	if marker == "" {
		return nil
	}
	return regexp.MustCompile(regexp.QuoteMeta(marker) + `\s*slimport:\s*(` + skipFile + `|` + skipLine + `)\b`)
}

// parseSkipDirectives finds the directives outside of block delimiter
// regions. A line directive applies to the line carrying it; a file
// directive anywhere applies to the whole buffer.
func (e *Engine) parseSkipDirectives(lines []string) skipDirectives {
	sd := skipDirectives{lines: make(map[int]bool)}
	if e.skipRe == nil {
		return sd
	}

	inBlock := make([]bool, len(lines))
	for _, delim := range e.grammar.BlockDelimiters() {
		for _, r := range blockRanges(lines, delim) {
			for i := r.start; i <= r.end; i++ {
				inBlock[i] = true
			}
		}
	}

	for i, line := range lines {
		if inBlock[i] {
			continue
		}
		m := e.skipRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if m[1] == skipFile {
			sd.file = true
			return sd
		}
		sd.lines[i] = true
	}
	return sd
}
