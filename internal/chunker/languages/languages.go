// Package languages holds the built-in classification tables, one per
// tree-sitter grammar.
package languages

import "codescope/internal/chunker"

var commonNameKinds = []string{"identifier", "field_identifier", "type_identifier"}

// Method names in JavaScript and TypeScript are property identifiers.
var scriptNameKinds = []string{"identifier", "field_identifier", "type_identifier", "property_identifier"}

func scriptDelegates() map[string][]string {
	return map[string][]string{
		"lexical_declaration": {"variable_declarator"},
	}
}

// Default returns a registry with every built-in language registered.
func Default() *chunker.Registry {
	r := chunker.NewRegistry()
	RegisterGo(r)
	RegisterPython(r)
	RegisterTypeScript(r)
	RegisterJavaScript(r)
	return r
}
