package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPythonParseDeclaration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		line     string
		expected []Binding
	}{
		{
			name:     "single module",
			line:     "import os",
			expected: []Binding{{Module: "os", Alias: "os", Clause: "os"}},
		},
		{
			name: "rename",
			line: "import numpy as np",
			expected: []Binding{
				{Module: "numpy", Alias: "np", Clause: "numpy as np"},
			},
		},
		{
			name: "dotted path without rename",
			line: "import os.path",
			expected: []Binding{
				{Module: "os.path", Alias: "os.path", Clause: "os.path"},
			},
		},
		{
			name: "multiple clauses",
			line: "import os, sys as system,  json",
			expected: []Binding{
				{Module: "os", Alias: "os", Clause: "os"},
				{Module: "sys", Alias: "system", Clause: "sys as system"},
				{Module: "json", Alias: "json", Clause: "json"},
			},
		},
		{
			name: "trailing comment",
			line: "import alpha.beta as x  # heavy",
			expected: []Binding{
				{Module: "alpha.beta", Alias: "x", Clause: "alpha.beta as x"},
			},
		},
		{
			name: "empty clause",
			line: "import os,",
			expected: []Binding{
				{Module: "os", Alias: "os", Clause: "os"},
			},
		},
		{
			name:     "from import is not a whole-module declaration",
			line:     "from os import path",
			expected: nil,
		},
		{
			name:     "indented import",
			line:     "    import os",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Python{}.ParseDeclaration(tt.line))
		})
	}
}

func TestPythonSynthesize(t *testing.T) {
	t.Parallel()
	p := Python{}
	assert.Equal(t, "from alpha.beta import bar, foo", p.Synthesize("alpha.beta", []string{"bar", "foo"}))
	assert.Equal(t, "import os, sys as system", p.Declare([]string{"os", "sys as system"}))
}

func TestBindingRenamed(t *testing.T) {
	t.Parallel()
	assert.True(t, Binding{Module: "numpy", Alias: "np"}.Renamed())
	assert.False(t, Binding{Module: "os", Alias: "os"}.Renamed())
}

func TestLookup(t *testing.T) {
	t.Parallel()
	g, err := Lookup("python")
	require.NoError(t, err)
	assert.Equal(t, "python", g.Name())
	assert.Equal(t, []string{".py"}, g.Extensions())

	_, err = Lookup("cobol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownGrammar))

	assert.Equal(t, []string{"python"}, Names())
}

func TestPythonIsDirectImport(t *testing.T) {
	t.Parallel()
	p := Python{}
	assert.True(t, p.IsDirectImport("from os import path"))
	assert.False(t, p.IsDirectImport("import os"))
	assert.False(t, p.IsDirectImport("fromage = 1"))
}
