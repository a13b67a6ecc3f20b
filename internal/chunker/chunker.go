package chunker

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// MinChunkChars is the smallest trimmed content, in characters, worth
// indexing. Shorter nodes are skipped but their children are still visited.
const MinChunkChars = 20

// AnonymousName is used when no name can be recovered for a chunk.
const AnonymousName = "anonymous"

// Chunk is a unit of source code extracted from a file. Lines are 1-based
// and inclusive; Content is the exact source span of the syntax node.
type Chunk struct {
	Content      string `json:"content"`
	FilePath     string `json:"file_path"`
	FunctionName string `json:"function_name"`
	StartLine    int    `json:"start_line"`
	EndLine      int    `json:"end_line"`
	Language     string `json:"language"`
	ChunkType    string `json:"chunk_type"`
}

// Extractor parses source files with tree-sitter and extracts chunks.
// Parsers are created lazily, once per grammar, and owned by the Extractor,
// so an Extractor must not be shared between goroutines. Give each worker
// its own; the Registry can be shared.
type Extractor struct {
	registry *Registry
	parsers  map[string]*sitter.Parser
}

// NewExtractor creates an extractor backed by the given registry.
func NewExtractor(r *Registry) *Extractor {
	return &Extractor{
		registry: r,
		parsers:  make(map[string]*sitter.Parser),
	}
}

// Registry returns the registry the extractor dispatches on.
func (e *Extractor) Registry() *Registry { return e.registry }

func (e *Extractor) parserFor(spec *LanguageSpec) *sitter.Parser {
	if p, ok := e.parsers[spec.Name]; ok {
		return p
	}
	p := sitter.NewParser()
	p.SetLanguage(spec.Grammar)
	e.parsers[spec.Name] = p
	return p
}

// ExtractFile reads path and extracts its chunks. Unsupported or unreadable
// files yield no chunks; the failure is logged, never returned, so one bad
// file cannot abort a batch.
func (e *Extractor) ExtractFile(path string) []Chunk {
	if _, ok := e.registry.Lookup(path); !ok {
		slog.Debug("unsupported file type", "path", path)
		return nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable file", "path", path, "error", err)
		return nil
	}
	return e.Extract(path, src)
}

// Extract parses src, dispatching on the extension of path, and returns its
// chunks in document order.
func (e *Extractor) Extract(path string, src []byte) []Chunk {
	spec, ok := e.registry.Lookup(path)
	if !ok {
		slog.Debug("unsupported file type", "path", path)
		return nil
	}
	if !utf8.Valid(src) {
		slog.Warn("skipping file that is not valid UTF-8", "path", path)
		return nil
	}

	tree, err := e.parserFor(spec).ParseCtx(context.Background(), nil, src)
	if err != nil {
		slog.Warn("skipping file that failed to parse", "path", path, "language", spec.language(), "error", err)
		return nil
	}
	defer tree.Close()

	return ExtractTree(tree.RootNode(), path, src, spec)
}

// ExtractTree walks a parsed tree in pre-order and emits a chunk for every
// node whose kind is in the spec's classification table. It always
// descends into children, so a class and the methods inside it are both
// emitted with overlapping spans.
func ExtractTree(root *sitter.Node, path string, src []byte, spec *LanguageSpec) []Chunk {
	if root == nil {
		return nil
	}
	return walk(root, path, src, spec, nil)
}

func walk(n *sitter.Node, path string, src []byte, spec *LanguageSpec, out []Chunk) []Chunk {
	if label, ok := spec.Targets[n.Type()]; ok {
		content := string(src[n.StartByte():n.EndByte()])
		if utf8.RuneCountInString(strings.TrimSpace(content)) >= MinChunkChars {
			name, ok := spec.ResolveName(n, src)
			if !ok {
				name = AnonymousName
			}
			out = append(out, Chunk{
				Content:      content,
				FilePath:     path,
				FunctionName: name,
				StartLine:    int(n.StartPoint().Row) + 1,
				EndLine:      int(n.EndPoint().Row) + 1,
				Language:     spec.language(),
				ChunkType:    label,
			})
		}
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		out = walk(n.Child(i), path, src, spec, out)
	}
	return out
}

// Close releases the cached parsers.
func (e *Extractor) Close() {
	for name, p := range e.parsers {
		p.Close()
		delete(e.parsers, name)
	}
}
