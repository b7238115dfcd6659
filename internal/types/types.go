package types

// DirectImport is an import statement that names specific symbols of a module.
type DirectImport struct {
	Module    string   `json:"module"`
	Symbols   []string `json:"symbols"`
	Statement string   `json:"statement"`
	// Line is the zero-based position of the declaration the statement
	// replaced, or the position it was inserted at.
	Line int `json:"line"`
	// Inserted is set when the module was only reached through an attribute
	// chain and had no declaration of its own.
	Inserted bool `json:"inserted,omitempty"`
}

// Result describes the outcome of optimizing one source file.
type Result struct {
	Filename string
	Original []string
	Lines    []string
	// Newline is the line terminator of the source, "\n" when empty.
	Newline string
	Imports []DirectImport
	// Changed is set when at least one direct import was produced.
	Changed bool
	// Written is set when the new content was persisted.
	Written bool
	// Skipped is set when the file was unchanged since it was last processed.
	Skipped bool
}

// Content returns the output buffer as it is written to disk.
func (r *Result) Content() []byte {
	return JoinLines(r.Lines, r.Newline)
}

// JoinLines terminates every line with newline, "\n" when empty.
func JoinLines(lines []string, newline string) []byte {
	if newline == "" {
		newline = "\n"
	}
	size := len(lines) * len(newline)
	for _, line := range lines {
		size += len(line)
	}
	buf := make([]byte, 0, size)
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, newline...)
	}
	return buf
}
