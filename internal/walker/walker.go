// Package walker discovers source files under a project root.
package walker

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered source file.
type FileInfo struct {
	Path    string
	RelPath string
	Size    int64
}

// IgnoreFile is read from the project root; its patterns extend the defaults.
const IgnoreFile = ".codescopeignore"

// maxFileSize is the largest file we'll consider (1 MB).
const maxFileSize = 1 << 20

var defaultIgnores = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"vendor",
	"__pycache__",
	".venv",
	"venv",
	".idea",
	".vscode",
	".codescope",
	"dist",
	"build",
}

// Walk traverses the tree rooted at root in lexical order and streams
// files whose lower-cased extension is in allowedExts. Ignored
// directories, symlinks, empty files and files over 1 MB are skipped.
// Both channels are closed when the walk ends; errs carries at most one
// error.
func Walk(ctx context.Context, root string, allowedExts map[string]bool) (<-chan FileInfo, <-chan error) {
	files := make(chan FileInfo, 64)
	errs := make(chan error, 1)

	go func() {
		defer close(files)
		defer close(errs)

		absRoot, err := filepath.Abs(root)
		if err != nil {
			errs <- err
			return
		}

		ignores := loadIgnorePatterns(absRoot)

		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if err != nil {
				if path == absRoot {
					return err
				}
				slog.Debug("skipping unreadable path", "path", path, "error", err)
				return nil
			}

			rel, _ := filepath.Rel(absRoot, path)
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path == absRoot {
					return nil
				}
				if matchesIgnore(d.Name(), rel, ignores) {
					return filepath.SkipDir
				}
				return nil
			}

			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if !allowedExts[ext] || matchesIgnore(d.Name(), rel, ignores) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				return nil
			}
			if info.Size() > maxFileSize || info.Size() == 0 {
				return nil
			}

			select {
			case files <- FileInfo{Path: path, RelPath: rel, Size: info.Size()}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil {
			errs <- err
		}
	}()

	return files, errs
}

// Collect runs Walk to completion and returns the files in walk order.
func Collect(ctx context.Context, root string, allowedExts map[string]bool) ([]FileInfo, error) {
	files, errs := Walk(ctx, root, allowedExts)
	var out []FileInfo
	for f := range files {
		out = append(out, f)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return out, nil
}

// loadIgnorePatterns returns the defaults plus any patterns listed in the
// root's ignore file.
func loadIgnorePatterns(root string) []string {
	patterns := append([]string(nil), defaultIgnores...)

	f, err := os.Open(filepath.Join(root, IgnoreFile))
	if err != nil {
		return patterns
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, strings.TrimSuffix(line, "/"))
	}
	return patterns
}

// matchesIgnore checks a name or slash-separated relative path against
// the ignore patterns.
func matchesIgnore(name, relPath string, patterns []string) bool {
	for _, p := range patterns {
		// Exact name match (e.g. "node_modules", ".git").
		if name == p {
			return true
		}
		// Path prefix match (e.g. "third_party/vendor").
		if relPath == p || strings.HasPrefix(relPath, p+"/") {
			return true
		}
		if matched, _ := filepath.Match(p, relPath); matched {
			return true
		}
		if matched, _ := filepath.Match(p, name); matched {
			return true
		}
	}
	return false
}
