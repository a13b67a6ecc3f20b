package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	assert.Equal(t, `No results found for query: "db"`, Markdown("db", nil))

	out := Markdown("db", []Hit{{
		Content:      "func Open() {}",
		FilePath:     "store/db.go",
		FunctionName: "Open",
		StartLine:    3,
		EndLine:      3,
		Language:     "go",
		ChunkType:    "function",
		Score:        0.125,
	}})

	assert.Contains(t, out, "## Search results for \"db\" (1 chunks)")
	assert.Contains(t, out, "### Result 1: `store/db.go`")
	assert.Contains(t, out, "**Lines:** 3-3")
	assert.Contains(t, out, "**Distance:** 0.1250")
	assert.Contains(t, out, "```go\nfunc Open() {}\n```")
}
