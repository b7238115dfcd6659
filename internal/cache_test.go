package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "cache-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cacheDir := filepath.Join(tmpDir, "cache")
	cache, err := NewCache(cacheDir)
	require.NoError(t, err)

	t.Run("SaveAndLoad", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "saved.py")
		err := os.WriteFile(filename, []byte("from os import sep\n"), 0o644)
		require.NoError(t, err)

		require.NoError(t, cache.Set(filename))
		assert.True(t, cache.Fresh(filename))

		reloaded, err := NewCache(cacheDir)
		require.NoError(t, err)
		assert.True(t, reloaded.Fresh(filename))
	})

	t.Run("NotFound", func(t *testing.T) {
		assert.False(t, cache.Fresh("nonexistent.py"))
	})

	t.Run("FileModified", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "modified.py")
		err := os.WriteFile(filename, []byte("x = 1\n"), 0o644)
		require.NoError(t, err)

		require.NoError(t, cache.Set(filename))

		err = os.WriteFile(filename, []byte("x = 2\n"), 0o644)
		require.NoError(t, err)

		assert.False(t, cache.Fresh(filename))
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "all.py")
		require.NoError(t, os.WriteFile(filename, []byte("x = 1\n"), 0o644))
		require.NoError(t, cache.Set(filename))

		require.NoError(t, cache.InvalidateAll())
		assert.False(t, cache.Fresh(filename))

		reloaded, err := NewCache(cacheDir)
		require.NoError(t, err)
		assert.False(t, reloaded.Fresh(filename))
	})
}

func TestCacheMaxAge(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	filename := filepath.Join(tmpDir, "old.py")
	require.NoError(t, os.WriteFile(filename, []byte("x = 1\n"), 0o644))
	require.NoError(t, cache.Set(filename))

	cache.SetMaxAge(time.Nanosecond)
	time.Sleep(time.Millisecond)
	assert.False(t, cache.Fresh(filename))
}

func TestCacheDependencies(t *testing.T) {
	tmpDir := t.TempDir()
	cacheDir := filepath.Join(tmpDir, "cache")
	config := filepath.Join(tmpDir, ".slimport.yaml")
	require.NoError(t, os.WriteFile(config, []byte("strict: false\n"), 0o644))

	cache, err := NewCache(cacheDir)
	require.NoError(t, err)
	require.NoError(t, cache.SetDependencies(config))

	filename := filepath.Join(tmpDir, "mod.py")
	require.NoError(t, os.WriteFile(filename, []byte("x = 1\n"), 0o644))
	require.NoError(t, cache.Set(filename))
	assert.True(t, cache.Fresh(filename))

	// same configuration on the next run
	reloaded, err := NewCache(cacheDir)
	require.NoError(t, err)
	require.NoError(t, reloaded.SetDependencies(config))
	assert.True(t, reloaded.Fresh(filename))

	require.NoError(t, os.WriteFile(config, []byte("strict: true\n"), 0o644))
	assert.False(t, reloaded.Fresh(filename), "config change invalidates entries")

	reloaded, err = NewCache(cacheDir)
	require.NoError(t, err)
	require.NoError(t, reloaded.SetDependencies(config))
	assert.False(t, reloaded.Fresh(filename))
}

func TestCacheCorrupt(t *testing.T) {
	cacheDir := t.TempDir()
	err := os.WriteFile(filepath.Join(cacheDir, cacheFileName), []byte{0xc1, 0xff}, 0o644)
	require.NoError(t, err)

	_, err = NewCache(cacheDir)
	assert.Error(t, err)
}

func TestEngineWithCache(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	path := writeSource(t, tmpDir, "mod.py", source("import os", "os.getcwd()"))
	engine := newTestEngine(t)
	engine.UseCache(cache)

	first, err := engine.Run(path)
	require.NoError(t, err)
	assert.True(t, first.Written)

	second, err := engine.Run(path)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.False(t, second.Changed)

	require.NoError(t, os.WriteFile(path, source("import sys", "sys.exit(0)"), 0o644))
	third, err := engine.Run(path)
	require.NoError(t, err)
	assert.False(t, third.Skipped)
	assert.True(t, third.Written)
}

func TestEngineDryRunDoesNotCache(t *testing.T) {
	tmpDir := t.TempDir()
	cache, err := NewCache(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)

	path := writeSource(t, tmpDir, "mod.py", source("import os", "os.getcwd()"))
	engine := newTestEngine(t)
	engine.UseCache(cache)
	engine.SetDryRun(true)

	_, err = engine.Run(path)
	require.NoError(t, err)
	assert.False(t, cache.Fresh(path))
}
