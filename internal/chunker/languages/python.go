package languages

import (
	"codescope/internal/chunker"

	"github.com/smacker/go-tree-sitter/python"
)

func RegisterPython(r *chunker.Registry) {
	r.MustRegister(&chunker.LanguageSpec{
		Name:       "python",
		Grammar:    python.GetLanguage(),
		Extensions: []string{"py", "pyi"},
		Targets: map[string]string{
			"function_definition":  "function",
			"class_definition":     "class",
			"decorated_definition": "decorated", // @decorator def/class ...
		},
		NameKinds: commonNameKinds,
		Delegates: map[string][]string{
			"decorated_definition": {"function_definition", "class_definition"},
		},
	})
}
