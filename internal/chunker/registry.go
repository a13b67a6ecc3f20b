package chunker

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// LanguageSpec defines a tree-sitter grammar and the node kinds that become
// chunks when parsed with it.
type LanguageSpec struct {
	// Name identifies the grammar and keys the parser cache. Usually the
	// same as Language; "tsx" is parsed by its own grammar but reported as
	// typescript.
	Name string
	// Language is the identifier stamped on every chunk.
	Language   string
	Grammar    *sitter.Language
	Extensions []string // without the dot

	// Targets maps a syntax node kind to its chunk type label. Kinds not
	// listed are never emitted, though their children are still visited.
	Targets map[string]string
	// NameKinds are the child node kinds that carry a chunk's name.
	NameKinds []string
	// Delegates lists, per node kind, the child kinds that name resolution
	// falls through to when the node has no name of its own
	// (e.g. decorated_definition -> function_definition).
	Delegates map[string][]string
}

// Validate reports whether the spec is usable by the extractor.
func (s *LanguageSpec) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if s.Grammar == nil {
		errs = append(errs, errors.New("grammar is required"))
	}
	if len(s.Extensions) == 0 {
		errs = append(errs, errors.New("at least one extension is required"))
	}
	if len(s.Targets) == 0 {
		errs = append(errs, errors.New("classification table is empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("language spec %q: %w", s.Name, err)
	}
	return nil
}

func (s *LanguageSpec) language() string {
	if s.Language != "" {
		return s.Language
	}
	return s.Name
}

// ResolveName returns the name of a chunk node: the text of its first
// immediate child whose kind is one of NameKinds, or failing that the name
// of its first delegate child. It does not consult scope.
func (s *LanguageSpec) ResolveName(n *sitter.Node, src []byte) (string, bool) {
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if slices.Contains(s.NameKinds, c.Type()) {
			return c.Content(src), true
		}
	}
	kinds, ok := s.Delegates[n.Type()]
	if !ok {
		return "", false
	}
	for i := 0; i < count; i++ {
		c := n.Child(i)
		if slices.Contains(kinds, c.Type()) {
			return s.ResolveName(c, src)
		}
	}
	return "", false
}

// Registry maps file extensions to language specs.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]*LanguageSpec // extension (without dot) → spec
	langs map[string]*LanguageSpec // grammar name → spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		specs: make(map[string]*LanguageSpec),
		langs: make(map[string]*LanguageSpec),
	}
}

// Register adds a language spec. Extensions are matched case-insensitively.
func (r *Registry) Register(spec *LanguageSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.langs[spec.Name]; dup {
		return fmt.Errorf("language %q already registered", spec.Name)
	}
	for _, ext := range spec.Extensions {
		ext = normalizeExt(ext)
		if other, dup := r.specs[ext]; dup {
			return fmt.Errorf("extension %q already claimed by %q", ext, other.Name)
		}
	}
	r.langs[spec.Name] = spec
	for _, ext := range spec.Extensions {
		r.specs[normalizeExt(ext)] = spec
	}
	return nil
}

// MustRegister is like Register but panics on error. It is meant for the
// built-in language tables.
func (r *Registry) MustRegister(spec *LanguageSpec) {
	if err := r.Register(spec); err != nil {
		panic(err)
	}
}

// Lookup returns the spec for a file path based on its extension.
func (r *Registry) Lookup(path string) (*LanguageSpec, bool) {
	ext := normalizeExt(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[ext]
	return s, ok
}

// LanguageFor returns the language identifier for a file path, or "" when
// the extension is not supported.
func (r *Registry) LanguageFor(path string) string {
	s, ok := r.Lookup(path)
	if !ok {
		return ""
	}
	return s.language()
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.specs))
	for ext := range r.specs {
		exts[ext] = true
	}
	return exts
}

// Specs returns the registered specs ordered by grammar name.
func (r *Registry) Specs() []*LanguageSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*LanguageSpec, 0, len(r.langs))
	for _, s := range r.langs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
