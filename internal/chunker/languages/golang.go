package languages

import (
	"codescope/internal/chunker"

	"github.com/smacker/go-tree-sitter/golang"
)

// RegisterGo registers the Go grammar. Type declarations take their name
// from the first type_spec (or type_alias) they contain.
func RegisterGo(r *chunker.Registry) {
	r.MustRegister(&chunker.LanguageSpec{
		Name:       "go",
		Grammar:    golang.GetLanguage(),
		Extensions: []string{"go"},
		Targets: map[string]string{
			"function_declaration": "function",
			"method_declaration":   "method",
			"type_declaration":     "type",
		},
		NameKinds: commonNameKinds,
		Delegates: map[string][]string{
			"type_declaration": {"type_spec", "type_alias"},
		},
	})
}
