package chunker_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codescope/internal/chunker"
	"codescope/internal/chunker/languages"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(t *testing.T) *chunker.Extractor {
	t.Helper()
	e := chunker.NewExtractor(languages.Default())
	t.Cleanup(e.Close)
	return e
}

func TestExtract_SingleFunctionPerLanguage(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		src      string
		content  string
		fn       string
		language string
		start    int
		end      int
	}{
		{
			name:     "go",
			path:     "calc/add.go",
			src:      "package calc\n\nfunc Add(a, b int) int {\n\treturn a + b\n}",
			content:  "func Add(a, b int) int {\n\treturn a + b\n}",
			fn:       "Add",
			language: "go",
			start:    3,
			end:      5,
		},
		{
			name:     "python",
			path:     "greet.py",
			src:      "def greet(name):\n    return \"hello \" + name",
			content:  "def greet(name):\n    return \"hello \" + name",
			fn:       "greet",
			language: "python",
			start:    1,
			end:      2,
		},
		{
			name:     "typescript",
			path:     "src/greet.ts",
			src:      "function greet(name: string): string {\n  return \"hi \" + name;\n}",
			content:  "function greet(name: string): string {\n  return \"hi \" + name;\n}",
			fn:       "greet",
			language: "typescript",
			start:    1,
			end:      3,
		},
		{
			name:     "tsx",
			path:     "src/App.tsx",
			src:      "function App(props: Props) {\n  return <div>{props.title}</div>;\n}",
			content:  "function App(props: Props) {\n  return <div>{props.title}</div>;\n}",
			fn:       "App",
			language: "typescript",
			start:    1,
			end:      3,
		},
		{
			name:     "javascript",
			path:     "lib/greet.js",
			src:      "// greeting helper\nfunction greet(name) {\n  return 'hi ' + name;\n}",
			content:  "function greet(name) {\n  return 'hi ' + name;\n}",
			fn:       "greet",
			language: "javascript",
			start:    2,
			end:      4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newExtractor(t)
			chunks := e.Extract(tt.path, []byte(tt.src))

			require.Len(t, chunks, 1)
			c := chunks[0]
			assert.Equal(t, "function", c.ChunkType)
			assert.Equal(t, tt.content, c.Content)
			assert.Equal(t, tt.fn, c.FunctionName)
			assert.Equal(t, tt.language, c.Language)
			assert.Equal(t, tt.path, c.FilePath)
			assert.Equal(t, tt.start, c.StartLine)
			assert.Equal(t, tt.end, c.EndLine)
		})
	}
}

func TestExtract_ClassAndMethodBothEmitted(t *testing.T) {
	src := "class Greeter:\n    def greet(self, name):\n        return \"Hello, \" + name"

	chunks := newExtractor(t).Extract("greeter.py", []byte(src))

	require.Len(t, chunks, 2)
	class, method := chunks[0], chunks[1]

	assert.Equal(t, "class", class.ChunkType)
	assert.Equal(t, "Greeter", class.FunctionName)
	assert.Equal(t, 1, class.StartLine)
	assert.Equal(t, 3, class.EndLine)

	assert.Equal(t, "function", method.ChunkType)
	assert.Equal(t, "greet", method.FunctionName)
	assert.Equal(t, 2, method.StartLine)
	assert.Equal(t, 3, method.EndLine)

	assert.LessOrEqual(t, class.StartLine, method.StartLine)
	assert.GreaterOrEqual(t, class.EndLine, method.EndLine)
	assert.Contains(t, class.Content, method.Content)
}

func TestExtract_SkipsTrivialChunks(t *testing.T) {
	src := "class Outer:\n" +
		"    def method_with_long_body(self):\n" +
		"        return self.compute()\n" +
		"\n" +
		"    def f(self): pass"

	chunks := newExtractor(t).Extract("outer.py", []byte(src))

	require.Len(t, chunks, 2)
	assert.Equal(t, "Outer", chunks[0].FunctionName)
	assert.Equal(t, "method_with_long_body", chunks[1].FunctionName)
	for _, c := range chunks {
		assert.NotEqual(t, "f", c.FunctionName)
	}
}

func TestExtract_TooShortFunction(t *testing.T) {
	chunks := newExtractor(t).Extract("tiny.go", []byte("package p\n\nfunc f() {}"))
	assert.Empty(t, chunks)
}

func TestExtract_DecoratedDefinition(t *testing.T) {
	src := "@app.route(\"/users\")\ndef list_users():\n    return fetch_all_users()"

	chunks := newExtractor(t).Extract("routes.py", []byte(src))

	require.Len(t, chunks, 2)
	assert.Equal(t, "decorated", chunks[0].ChunkType)
	assert.Equal(t, "list_users", chunks[0].FunctionName)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 3, chunks[0].EndLine)

	assert.Equal(t, "function", chunks[1].ChunkType)
	assert.Equal(t, "list_users", chunks[1].FunctionName)
	assert.Equal(t, 2, chunks[1].StartLine)
}

func TestExtract_GoTypesAndMethods(t *testing.T) {
	src := "package server\n" +
		"\n" +
		"type Server struct {\n" +
		"\tAddr string\n" +
		"}\n" +
		"\n" +
		"func (s *Server) Start() error {\n" +
		"\treturn nil\n" +
		"}"

	chunks := newExtractor(t).Extract("server.go", []byte(src))

	require.Len(t, chunks, 2)
	assert.Equal(t, chunker.Chunk{
		Content:      "type Server struct {\n\tAddr string\n}",
		FilePath:     "server.go",
		FunctionName: "Server",
		StartLine:    3,
		EndLine:      5,
		Language:     "go",
		ChunkType:    "type",
	}, chunks[0])
	assert.Equal(t, "method", chunks[1].ChunkType)
	assert.Equal(t, "Start", chunks[1].FunctionName)
	assert.Equal(t, 7, chunks[1].StartLine)
	assert.Equal(t, 9, chunks[1].EndLine)
}

func TestExtract_TypeScriptDocumentOrder(t *testing.T) {
	src := "interface User {\n" +
		"  id: number;\n" +
		"  name: string;\n" +
		"}\n" +
		"\n" +
		"export class UserService {\n" +
		"  findUser(id: number): User {\n" +
		"    return this.users.get(id);\n" +
		"  }\n" +
		"}\n" +
		"\n" +
		"const double = (value: number) => value * 2;"

	chunks := newExtractor(t).Extract("users.ts", []byte(src))

	type got struct {
		kind, name string
		start, end int
	}
	var summary []got
	for _, c := range chunks {
		summary = append(summary, got{c.ChunkType, c.FunctionName, c.StartLine, c.EndLine})
	}
	assert.Equal(t, []got{
		{"interface", "User", 1, 4},
		{"class", "UserService", 6, 10},
		{"method", "findUser", 7, 9},
		{"variable", "double", 12, 12},
		{"arrow_function", chunker.AnonymousName, 12, 12},
	}, summary)
}

func TestExtract_AnonymousArrowFunction(t *testing.T) {
	src := "items.map((item) => {\n  return item.value * 2;\n});"

	chunks := newExtractor(t).Extract("map.js", []byte(src))

	require.Len(t, chunks, 1)
	assert.Equal(t, "arrow_function", chunks[0].ChunkType)
	assert.Equal(t, chunker.AnonymousName, chunks[0].FunctionName)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	e := newExtractor(t)
	assert.Empty(t, e.Extract("README.md", []byte("# Title\n\nSome long enough markdown text.")))
	assert.Empty(t, e.Extract("Makefile", []byte("all:\n\tgo build ./...")))
}

func TestExtract_InvalidUTF8(t *testing.T) {
	src := []byte("package p\n\nfunc Broken() string {\n\treturn \"\xff\xfe\"\n}")
	assert.Empty(t, newExtractor(t).Extract("broken.go", src))
}

func TestExtract_Deterministic(t *testing.T) {
	src := []byte("class A:\n    def first_method(self):\n        return 1\n\n    def second_method(self):\n        return 2")
	e := newExtractor(t)

	first := e.Extract("a.py", src)
	second := e.Extract("a.py", src)

	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "util.py")
	require.NoError(t, os.WriteFile(path, []byte("def normalize(value):\n    return value.strip().lower()"), 0o644))

	e := newExtractor(t)
	chunks := e.ExtractFile(path)

	require.Len(t, chunks, 1)
	assert.Equal(t, path, chunks[0].FilePath)
	assert.Equal(t, "normalize", chunks[0].FunctionName)

	assert.Empty(t, e.ExtractFile(filepath.Join(dir, "missing.py")))
	assert.Empty(t, e.ExtractFile(filepath.Join(dir, "notes.txt")))
}

func TestExtractor_ParserCachedPerGrammar(t *testing.T) {
	e := newExtractor(t)
	assert.Equal(t, 0, e.CachedParsers())

	e.Extract("a.go", []byte("package a\n\nfunc One() int {\n\treturn 1\n}"))
	e.Extract("b.go", []byte("package b\n\nfunc Two() int {\n\treturn 2\n}"))
	assert.Equal(t, 1, e.CachedParsers())

	e.Extract("c.ts", []byte("function three(): number {\n  return 3;\n}"))
	e.Extract("d.tsx", []byte("function Four() {\n  return <span>4</span>;\n}"))
	assert.Equal(t, 3, e.CachedParsers())

	e.Extract("notes.md", []byte("# nothing to parse here"))
	assert.Equal(t, 3, e.CachedParsers())
}

func TestResolveName(t *testing.T) {
	reg := languages.Default()
	spec, ok := reg.Lookup("models.py")
	require.True(t, ok)

	parse := func(src string) *sitter.Node {
		p := sitter.NewParser()
		t.Cleanup(p.Close)
		p.SetLanguage(spec.Grammar)
		tree, err := p.ParseCtx(context.Background(), nil, []byte(src))
		require.NoError(t, err)
		t.Cleanup(tree.Close)
		return tree.RootNode()
	}

	src := "class Foo: pass"
	class := parse(src).Child(0)
	require.Equal(t, "class_definition", class.Type())
	name, ok := spec.ResolveName(class, []byte(src))
	assert.True(t, ok)
	assert.Equal(t, "Foo", name)

	src = "@cached\ndef load(): pass"
	decorated := parse(src).Child(0)
	require.Equal(t, "decorated_definition", decorated.Type())
	name, ok = spec.ResolveName(decorated, []byte(src))
	assert.True(t, ok)
	assert.Equal(t, "load", name)

	src = "x = 1"
	_, ok = spec.ResolveName(parse(src).Child(0), []byte(src))
	assert.False(t, ok)
}
