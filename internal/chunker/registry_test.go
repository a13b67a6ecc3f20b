package chunker_test

import (
	"testing"

	"codescope/internal/chunker"
	"codescope/internal/chunker/languages"

	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LanguageFor(t *testing.T) {
	reg := languages.Default()

	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"pkg/models.py", "python"},
		{"stubs/models.pyi", "python"},
		{"src/app.ts", "typescript"},
		{"src/App.tsx", "typescript"},
		{"web/index.js", "javascript"},
		{"web/App.JSX", "javascript"},
		{"MAIN.PY", "python"},
		{"README.md", ""},
		{"Dockerfile", ""},
		{"archive.tar.gz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.LanguageFor(tt.path))
		})
	}
}

func TestRegistry_Extensions(t *testing.T) {
	exts := languages.Default().Extensions()

	for _, ext := range []string{"go", "py", "ts", "tsx", "js"} {
		assert.True(t, exts[ext], ext)
	}
	assert.False(t, exts["md"])
}

func TestRegistry_Specs(t *testing.T) {
	var names []string
	for _, s := range languages.Default().Specs() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"go", "javascript", "python", "tsx", "typescript"}, names)
}

func TestRegistry_RegisterRejectsInvalidSpecs(t *testing.T) {
	r := chunker.NewRegistry()

	err := r.Register(&chunker.LanguageSpec{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grammar is required")
	assert.Contains(t, err.Error(), "classification table is empty")

	spec := &chunker.LanguageSpec{
		Name:       "go",
		Grammar:    golang.GetLanguage(),
		Extensions: []string{".GO"},
		Targets:    map[string]string{"function_declaration": "function"},
	}
	require.NoError(t, r.Register(spec))
	assert.Equal(t, "go", r.LanguageFor("x.go"))

	dup := *spec
	dup.Name = "go2"
	assert.Error(t, r.Register(&dup))
	assert.Error(t, r.Register(spec))
}
