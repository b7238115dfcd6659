package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/fatih/color"

	"github.com/gnolang/slimport/internal/types"
)

// actions
const (
	Rewritten    = "rewritten"
	WouldRewrite = "would rewrite"
	Unchanged    = "unchanged"
	Cached       = "cached"
)

var (
	actionStyle  = color.New(color.FgGreen, color.Bold)
	pendingStyle = color.New(color.FgHiYellow, color.Bold)
	fileStyle    = color.New(color.FgCyan, color.Bold)
	lineStyle    = color.New(color.FgHiBlue, color.Bold)
	moduleStyle  = color.New(color.FgYellow)
	quietStyle   = color.New(color.FgHiBlack)
	noStyle      = color.New(color.FgWhite)
)

// resultFormatter is the interface that wraps the ResultTemplate method.
type resultFormatter interface {
	ResultTemplate() string
}

// getResultFormatter returns the formatter matching the outcome of a result.
func getResultFormatter(r *types.Result) resultFormatter {
	if r.Changed {
		return &RewriteFormatter{}
	}
	return &StatusFormatter{}
}

// Action names what happened to the file behind a result.
func Action(r *types.Result) string {
	switch {
	case r.Skipped:
		return Cached
	case r.Changed && r.Written:
		return Rewritten
	case r.Changed:
		return WouldRewrite
	default:
		return Unchanged
	}
}

// GenerateFormattedResult formats results into a human-readable report.
// Unchanged and cached files are only listed when verbose is set.
func GenerateFormattedResult(results []*types.Result, verbose bool) string {
	var builder strings.Builder
	for _, r := range results {
		if !r.Changed && !verbose {
			continue
		}
		builder.WriteString(buildResult(r, getResultFormatter(r)))
	}
	return builder.String()
}

/***** Result Formatter Builder *****/

type ImportData struct {
	LineNum   int
	Statement string
	Inserted  bool
}

type ResultData struct {
	Action          string
	Filename        string
	Padding         string
	MaxLineNumWidth int
	Imports         []ImportData
}

func buildResult(r *types.Result, formatter resultFormatter) string {
	imports := make([]ImportData, 0, len(r.Imports))
	maxLine := 0
	for _, imp := range r.Imports {
		imports = append(imports, ImportData{
			LineNum:   imp.Line + 1,
			Statement: imp.Statement,
			Inserted:  imp.Inserted,
		})
		if imp.Line+1 > maxLine {
			maxLine = imp.Line + 1
		}
	}
	maxLineNumWidth := calculateMaxLineNumWidth(maxLine)

	data := ResultData{
		Action:          Action(r),
		Filename:        displayName(r.Filename),
		Padding:         strings.Repeat(" ", maxLineNumWidth+1),
		MaxLineNumWidth: maxLineNumWidth,
		Imports:         imports,
	}

	funcMap := template.FuncMap{
		"header":  header,
		"status":  status,
		"imports": importLines,
	}

	tmpl := template.Must(template.New("result").Funcs(funcMap).Parse(formatter.ResultTemplate()))

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting result: %v", err)
	}
	return buf.String()
}

// utils functions used in the text templates

func header(action string, filename string, count int, maxLineNumWidth int) string {
	var endString string
	if action == Rewritten {
		endString = actionStyle.Sprintf("%s: ", action)
	} else {
		endString = pendingStyle.Sprintf("%s: ", action)
	}
	endString += fileStyle.Sprintf("%s\n", filename)

	noun := "direct imports"
	if count == 1 {
		noun = "direct import"
	}
	padding := strings.Repeat(" ", maxLineNumWidth)
	endString += lineStyle.Sprintf("%s--> ", padding)
	endString += noStyle.Sprintf("%d %s\n", count, noun)
	return endString
}

func status(action string, filename string) string {
	return quietStyle.Sprintf("%s: ", action) + fileStyle.Sprintf("%s\n", filename)
}

func importLines(imports []ImportData, maxLineNumWidth int, padding string) string {
	var endString string
	endString = lineStyle.Sprintf("%s|\n", padding)

	for _, imp := range imports {
		lineNum := fmt.Sprintf("%*d", maxLineNumWidth, imp.LineNum)
		endString += lineStyle.Sprintf("%s | ", lineNum)
		endString += moduleStyle.Sprint(imp.Statement)
		if imp.Inserted {
			endString += quietStyle.Sprint(" (inserted)")
		}
		endString += "\n"
	}

	endString += lineStyle.Sprintf("%s|\n", padding)
	return endString
}

func calculateMaxLineNumWidth(endLine int) int {
	return len(fmt.Sprintf("%d", endLine))
}

func displayName(filename string) string {
	if filename == "" {
		return "<source>"
	}
	return filename
}

// Summary returns a one-line tally of results and failures.
func Summary(results []*types.Result, failed int) string {
	counts := make(map[string]int)
	for _, r := range results {
		counts[Action(r)]++
	}

	parts := make([]string, 0, 5)
	for _, action := range []string{Rewritten, WouldRewrite, Unchanged, Cached} {
		if counts[action] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[action], action))
		}
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}

	total := len(results) + failed
	noun := "files"
	if total == 1 {
		noun = "file"
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d %s processed\n", total, noun)
	}
	return fmt.Sprintf("%d %s processed: %s\n", total, noun, strings.Join(parts, ", "))
}
