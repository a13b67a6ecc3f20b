package index

import (
	"fmt"
	"strings"
)

// Markdown renders hits as a markdown document with one fenced block per
// hit, in rank order.
func Markdown(query string, hits []Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No results found for query: %q", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search results for %q (%d chunks)\n\n", query, len(hits))

	for i, h := range hits {
		fmt.Fprintf(&sb, "### Result %d: `%s`\n\n", i+1, h.FilePath)
		fmt.Fprintf(&sb, "**Kind:** %s  \n**Name:** %s  \n**Lines:** %d-%d  \n**Language:** %s  \n**Distance:** %.4f\n\n",
			h.ChunkType, h.FunctionName, h.StartLine, h.EndLine, h.Language, h.Score)
		fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", strings.ToLower(h.Language), h.Content)
	}

	return sb.String()
}

