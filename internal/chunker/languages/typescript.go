package languages

import (
	"codescope/internal/chunker"

	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

func typeScriptTargets() map[string]string {
	return map[string]string{
		"function_declaration":   "function",
		"method_definition":      "method",
		"class_declaration":      "class",
		"arrow_function":         "arrow_function",
		"lexical_declaration":    "variable", // const foo = () => ...
		"interface_declaration":  "interface",
		"type_alias_declaration": "type",
	}
}

// RegisterTypeScript registers .ts and .tsx. TSX needs its own grammar but
// its chunks are reported as typescript.
func RegisterTypeScript(r *chunker.Registry) {
	r.MustRegister(&chunker.LanguageSpec{
		Name:       "typescript",
		Grammar:    typescript.GetLanguage(),
		Extensions: []string{"ts", "mts", "cts"},
		Targets:    typeScriptTargets(),
		NameKinds:  scriptNameKinds,
		Delegates:  scriptDelegates(),
	})
	r.MustRegister(&chunker.LanguageSpec{
		Name:       "tsx",
		Language:   "typescript",
		Grammar:    tsx.GetLanguage(),
		Extensions: []string{"tsx"},
		Targets:    typeScriptTargets(),
		NameKinds:  scriptNameKinds,
		Delegates:  scriptDelegates(),
	})
}
