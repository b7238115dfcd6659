package internal

import "strings"

// lineRange is an inclusive range of buffer positions.
type lineRange struct {
	start int
	end   int
}

// classifyLines marks the code-bearing lines of the buffer. Blank lines,
// line comments and every line of a paired block delimiter region are
// suppressed.
func (e *Engine) classifyLines(lines []string) []bool {
	live := make([]bool, len(lines))
	marker := e.grammar.LineComment()
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		live[i] = trimmed != "" && (marker == "" || !strings.HasPrefix(trimmed, marker))
	}

	for _, delim := range e.grammar.BlockDelimiters() {
		for _, r := range blockRanges(lines, delim) {
			for i := r.start; i <= r.end; i++ {
				live[i] = false
			}
		}
	}
	return live
}

// blockRanges pairs the delimiter lines of one block style in order of
// appearance. An odd number of delimiters means the pairing is ambiguous
// and nothing is stripped for that style.
func blockRanges(lines []string, delim string) []lineRange {
	if delim == "" {
		return nil
	}

	var marks []int
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == delim {
			marks = append(marks, i)
			continue
		}
		opens := strings.HasPrefix(trimmed, delim)
		closes := strings.HasSuffix(trimmed, delim)
		switch {
		case opens && closes:
			// single-line block
			marks = append(marks, i, i)
		case opens || closes:
			marks = append(marks, i)
		}
	}

	if len(marks)%2 != 0 {
		return nil
	}

	ranges := make([]lineRange, 0, len(marks)/2)
	for i := 0; i < len(marks); i += 2 {
		ranges = append(ranges, lineRange{start: marks[i], end: marks[i+1]})
	}
	return ranges
}
