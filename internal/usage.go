package internal

// usageIndex maps an identifier to the ascending positions of the live,
// non-import lines it occurs on.
type usageIndex map[string][]int

func (e *Engine) indexUsages(lines []string, live []bool, imports *importTable) usageIndex {
	index := make(usageIndex)
	for i, line := range lines {
		if !live[i] || imports.isImport(i) {
			continue
		}

		seen := make(map[string]bool)
		for _, word := range e.identRe.FindAllString(line, -1) {
			if seen[word] {
				continue
			}
			seen[word] = true
			index[word] = append(index[word], i)
		}
	}
	return index
}
