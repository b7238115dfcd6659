package formatter

// RewriteFormatter lists the direct imports produced for a changed file.
type RewriteFormatter struct{}

func (f *RewriteFormatter) ResultTemplate() string {
	return `{{header .Action .Filename (len .Imports) .MaxLineNumWidth -}}
{{imports .Imports .MaxLineNumWidth .Padding}}
`
}

// StatusFormatter prints a single status line for files left as they were.
type StatusFormatter struct{}

func (f *StatusFormatter) ResultTemplate() string {
	return `{{status .Action .Filename}}`
}
