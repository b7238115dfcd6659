package formatter

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"

	"github.com/gnolang/slimport/internal/types"
)

const diffContext = 3

var (
	diffHeaderStyle = color.New(color.Bold)
	hunkStyle       = color.New(color.FgCyan)
	addStyle        = color.New(color.FgGreen)
	deleteStyle     = color.New(color.FgRed)
)

// FileDiff computes the unified diff between the original and rewritten
// content of a result. It returns nil for results without changes.
func FileDiff(r *types.Result) (*diff.FileDiff, error) {
	if !r.Changed {
		return nil, nil
	}

	name := filepath.ToSlash(displayName(r.Filename))
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        terminated(r.Original),
		B:        terminated(r.Lines),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  diffContext,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff for %s: %w", name, err)
	}
	if text == "" {
		return nil, nil
	}

	fd, err := diff.ParseFileDiff([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("parsing diff for %s: %w", name, err)
	}
	return fd, nil
}

// GenerateDiff renders the changes of a result as a colored unified diff.
func GenerateDiff(r *types.Result) (string, error) {
	fd, err := FileDiff(r)
	if err != nil || fd == nil {
		return "", err
	}

	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("printing diff for %s: %w", displayName(r.Filename), err)
	}

	var builder strings.Builder
	for _, line := range bytes.SplitAfter(out, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		builder.WriteString(colorizeDiffLine(string(line)))
	}
	return builder.String(), nil
}

// DiffStat counts the lines a result adds, changes and deletes.
func DiffStat(r *types.Result) (diff.Stat, error) {
	fd, err := FileDiff(r)
	if err != nil || fd == nil {
		return diff.Stat{}, err
	}
	return fd.Stat(), nil
}

func colorizeDiffLine(line string) string {
	body := strings.TrimSuffix(line, "\n")
	eol := line[len(body):]

	switch {
	case strings.HasPrefix(body, "---"), strings.HasPrefix(body, "+++"):
		return diffHeaderStyle.Sprint(body) + eol
	case strings.HasPrefix(body, "@@"):
		return hunkStyle.Sprint(body) + eol
	case strings.HasPrefix(body, "+"):
		return addStyle.Sprint(body) + eol
	case strings.HasPrefix(body, "-"):
		return deleteStyle.Sprint(body) + eol
	default:
		return body + eol
	}
}

func terminated(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = line + "\n"
	}
	return out
}
