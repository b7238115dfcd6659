package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExclude lists directory names that never hold project sources.
var DefaultExclude = []string{".git", "__pycache__", ".venv", "venv", "node_modules"}

type FileInfo struct {
	Path string
	Size int64
}

type Scanner struct {
	rootDir    string
	extensions []string
	exclude    []string
}

func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// Exclude skips files and directories whose base name matches one of the
// glob patterns. The root itself is never excluded.
func (s *Scanner) Exclude(patterns ...string) *Scanner {
	s.exclude = append(s.exclude, patterns...)
	return s
}

// Scan returns the target files under the root, sorted by path.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo

	err := s.walk(func(path string, d fs.DirEntry) error {
		if d.IsDir() || !s.isTargetFile(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size()})
		return nil
	})

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, err
}

// Dirs returns the root and every directory below it that is not excluded.
func (s *Scanner) Dirs() ([]string, error) {
	var dirs []string
	err := s.walk(func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs, err
}

func (s *Scanner) walk(visit func(path string, d fs.DirEntry) error) error {
	info, err := os.Stat(s.rootDir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return visit(s.rootDir, fs.FileInfoToDirEntry(info))
	}

	return filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != s.rootDir && s.IsExcluded(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		return visit(path, d)
	})
}

// IsExcluded reports whether any element of path below the root matches an
// exclusion pattern.
func (s *Scanner) IsExcluded(path string) bool {
	rel, err := filepath.Rel(s.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." {
			continue
		}
		for _, pattern := range s.exclude {
			if ok, _ := filepath.Match(pattern, part); ok {
				return true
			}
		}
	}
	return false
}

// IsTargetFile reports whether path has one of the scanned extensions.
func (s *Scanner) IsTargetFile(path string) bool {
	return s.isTargetFile(path)
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, targetExt := range s.extensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}
