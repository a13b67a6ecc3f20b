package languages

import (
	"codescope/internal/chunker"

	"github.com/smacker/go-tree-sitter/javascript"
)

func RegisterJavaScript(r *chunker.Registry) {
	r.MustRegister(&chunker.LanguageSpec{
		Name:       "javascript",
		Grammar:    javascript.GetLanguage(),
		Extensions: []string{"js", "jsx", "mjs", "cjs"},
		Targets: map[string]string{
			"function_declaration":           "function",
			"generator_function_declaration": "function",
			"method_definition":              "method",
			"class_declaration":              "class",
			"arrow_function":                 "arrow_function",
			"lexical_declaration":            "variable",
		},
		NameKinds: scriptNameKinds,
		Delegates: scriptDelegates(),
	})
}
