package optimize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnolang/slimport/internal/types"
)

type mockOptimizeEngine struct {
	mock.Mock
}

func (m *mockOptimizeEngine) Run(filePath string) (*types.Result, error) {
	args := m.Called(filePath)
	result, _ := args.Get(0).(*types.Result)
	return result, args.Error(1)
}

func (m *mockOptimizeEngine) RunSource(source []byte) (*types.Result, error) {
	args := m.Called(source)
	result, _ := args.Get(0).(*types.Result)
	return result, args.Error(1)
}

func createTestFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestProcessFile(t *testing.T) {
	t.Parallel()
	expected := &types.Result{Filename: "test.py", Changed: true}
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("Run", "test.py").Return(expected, nil)

	result, err := ProcessFile(mockEngine, "test.py")

	assert.NoError(t, err)
	assert.Equal(t, expected, result)
	mockEngine.AssertExpectations(t)
}

func TestProcessSources(t *testing.T) {
	t.Parallel()
	source := []byte("import os\nos.sep\n")
	expected := &types.Result{Changed: true}
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("RunSource", source).Return(expected, nil)

	results, err := ProcessSources(context.Background(), zap.NewNop(), mockEngine, [][]byte{source}, ProcessSource)

	require.NoError(t, err)
	assert.Equal(t, []*types.Result{expected}, results)
	mockEngine.AssertExpectations(t)
}

func TestProcessPathDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{
		"a.py":                  "import os",
		"pkg/b.py":              "import sys",
		"notes.md":              "import os",
		"__pycache__/cached.py": "import os",
	})

	a := filepath.Join(root, "a.py")
	b := filepath.Join(root, "pkg", "b.py")
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("Run", a).Return(&types.Result{Filename: a}, nil)
	mockEngine.On("Run", b).Return(&types.Result{Filename: b, Changed: true}, nil)

	results, err := ProcessPath(context.Background(), zap.NewNop(), mockEngine, DefaultConfig(), root, ProcessFile)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, a, results[0].Filename)
	assert.Equal(t, b, results[1].Filename)
	mockEngine.AssertExpectations(t)
	mockEngine.AssertNumberOfCalls(t, "Run", 2)
}

func TestProcessPathConcurrentKeepsOrder(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	files := make(map[string]string)
	for _, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py", "f.py"} {
		files[name] = ""
	}
	createTestFiles(t, root, files)

	mockEngine := new(mockOptimizeEngine)
	for name := range files {
		path := filepath.Join(root, name)
		mockEngine.On("Run", path).Return(&types.Result{Filename: path}, nil)
	}

	config := DefaultConfig()
	config.Jobs = 3
	results, err := ProcessPath(context.Background(), zap.NewNop(), mockEngine, config, root, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, name := range []string{"a.py", "b.py", "c.py", "d.py", "e.py", "f.py"} {
		assert.Equal(t, filepath.Join(root, name), results[i].Filename)
	}
	mockEngine.AssertNumberOfCalls(t, "Run", 6)
}

func TestProcessPathContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{"a.py": "", "b.py": ""})

	a := filepath.Join(root, "a.py")
	b := filepath.Join(root, "b.py")
	failure := errors.New("permission denied")
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("Run", a).Return(nil, failure)
	mockEngine.On("Run", b).Return(&types.Result{Filename: b}, nil)

	results, err := ProcessPath(context.Background(), zap.NewNop(), mockEngine, DefaultConfig(), root, ProcessFile)

	require.Error(t, err)
	assert.ErrorIs(t, err, failure)
	require.Len(t, results, 1)
	assert.Equal(t, b, results[0].Filename)
	mockEngine.AssertExpectations(t)
}

func TestProcessPathSingleFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{"a.py": "", "a.txt": ""})

	a := filepath.Join(root, "a.py")
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("Run", a).Return(&types.Result{Filename: a}, nil)

	results, err := ProcessPath(context.Background(), nil, mockEngine, DefaultConfig(), a, ProcessFile)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = ProcessPath(context.Background(), nil, mockEngine, DefaultConfig(), filepath.Join(root, "a.txt"), ProcessFile)
	require.NoError(t, err)
	assert.Empty(t, results)
	mockEngine.AssertNumberOfCalls(t, "Run", 1)
}

func TestProcessPathCanceled(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{"a.py": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mockEngine := new(mockOptimizeEngine)
	_, err := ProcessPath(ctx, zap.NewNop(), mockEngine, DefaultConfig(), root, ProcessFile)
	assert.ErrorIs(t, err, context.Canceled)
	mockEngine.AssertNotCalled(t, "Run", mock.Anything)
}

func TestProcessFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{"a.py": ""})

	a := filepath.Join(root, "a.py")
	mockEngine := new(mockOptimizeEngine)
	mockEngine.On("Run", a).Return(&types.Result{Filename: a}, nil)

	results, err := ProcessFiles(context.Background(), zap.NewNop(), mockEngine, DefaultConfig(),
		[]string{a, filepath.Join(root, "missing.py")}, ProcessFile)

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Len(t, results, 1)
}

func TestProcessFilesWithEngine(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	createTestFiles(t, root, map[string]string{
		"app/main.py":  "import os\nprint(os.getcwd())\n",
		"app/plain.py": "print(1)\n",
	})

	engine, _, err := New(root, "", Options{})
	require.NoError(t, err)

	results, err := ProcessFiles(context.Background(), zap.NewNop(), engine, DefaultConfig(), []string{root}, ProcessFile)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Written)
	assert.False(t, results[1].Changed)

	content, err := os.ReadFile(filepath.Join(root, "app", "main.py"))
	require.NoError(t, err)
	assert.Equal(t, "from os import getcwd\nprint(getcwd())\n", string(content))
}
