package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func relPaths(files []FileInfo) []string {
	var out []string
	for _, f := range files {
		out = append(out, f.RelPath)
	}
	return out
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go", "package main")
	writeFile(t, root, "pkg/util.py", "x = 1")
	writeFile(t, root, "web/App.TSX", "export {}")
	writeFile(t, root, "README.md", "# readme")
	writeFile(t, root, "empty.go", "")
	writeFile(t, root, "node_modules/lib/index.js", "module.exports = 1")
	writeFile(t, root, ".git/hooks/pre-commit.py", "print(1)")
	writeFile(t, root, "builder/make.go", "package builder")
	writeFile(t, root, "build/out.go", "package out")

	exts := map[string]bool{"go": true, "py": true, "tsx": true, "js": true}
	files, err := Collect(context.Background(), root, exts)
	require.NoError(t, err)

	assert.Equal(t, []string{"builder/make.go", "main.go", "pkg/util.py", "web/App.TSX"}, relPaths(files))
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f.Path))
		assert.Positive(t, f.Size)
	}
}

func TestCollect_IgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, IgnoreFile, "# generated code\ngen/\n*_test.go\n")
	writeFile(t, root, "gen/api.go", "package gen")
	writeFile(t, root, "svc/svc.go", "package svc")
	writeFile(t, root, "svc/svc_test.go", "package svc")
	writeFile(t, root, "vendor/dep/dep.go", "package dep")

	files, err := Collect(context.Background(), root, map[string]bool{"go": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"svc/svc.go"}, relPaths(files))
}

func TestCollect_SkipsLargeFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "big.go", strings.Repeat("x", maxFileSize+1))
	writeFile(t, root, "small.go", "package small")

	files, err := Collect(context.Background(), root, map[string]bool{"go": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"small.go"}, relPaths(files))
}

func TestCollect_MissingRoot(t *testing.T) {
	_, err := Collect(context.Background(), filepath.Join(t.TempDir(), "nope"), map[string]bool{"go": true})
	assert.Error(t, err)
}

func TestWalk_Canceled(t *testing.T) {
	root := t.TempDir()
	for i := range 20 {
		writeFile(t, root, filepath.Join("pkg", strings.Repeat("a", i%5+1), "f"+string(rune('a'+i%26))+".go"), "package p")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	files, errs := Walk(ctx, root, map[string]bool{"go": true})
	for range files {
	}
	assert.ErrorIs(t, <-errs, context.Canceled)
}

func TestMatchesIgnore(t *testing.T) {
	patterns := []string{"node_modules", "third_party/vendor", "*.min.js"}

	assert.True(t, matchesIgnore("node_modules", "web/node_modules", patterns))
	assert.True(t, matchesIgnore("vendor", "third_party/vendor", patterns))
	assert.True(t, matchesIgnore("x.go", "third_party/vendor/x.go", patterns))
	assert.True(t, matchesIgnore("app.min.js", "static/app.min.js", patterns))
	assert.False(t, matchesIgnore("third_party", "third_party", patterns))
	assert.False(t, matchesIgnore("app.js", "static/app.js", patterns))
}
