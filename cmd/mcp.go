package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"codescope/internal/chunker"
	"codescope/internal/chunker/languages"
	"codescope/internal/index"
	"codescope/internal/store"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start an MCP server exposing codebase search tools",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	root, err := workingDir()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	st, err := openExistingStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	idx := index.New(st, index.WithRetry(indexerConfig(cfg).Retry))
	s := newMCPServer(index.NewSearcher(idx), st, languages.Default(), cfg.Search.Results)

	return mcpserver.ServeStdio(s)
}

func newMCPServer(searcher *index.Searcher, st indexStatus, reg *chunker.Registry, defaultK int) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("codescope", "1.0.0", mcpserver.WithToolCapabilities(false))

	s.AddTool(searchCodebaseTool(defaultK), makeSearchHandler(searcher, defaultK))
	s.AddTool(listLanguagesTool(), makeListLanguagesHandler(reg))
	s.AddTool(indexStatusTool(), makeIndexStatusHandler(st))

	return s
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

// indexStatus is the part of the store the status tool reads.
type indexStatus interface {
	Count(ctx context.Context) (int, error)
	EmbeddingModel(ctx context.Context) (string, error)
}

var _ indexStatus = (*store.SQLiteStore)(nil)

// --- Tool schema builders ---

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

func searchCodebaseTool(defaultK int) mcp.Tool {
	return mcp.NewTool("search_codebase",
		mcp.WithDescription("Semantically search the indexed codebase. Returns the closest functions, methods, classes and types with file paths and line numbers, best match first."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural language description of the code you are looking for"),
		),
		mcp.WithNumber("k",
			mcp.Description(fmt.Sprintf("Maximum number of chunks to return (default %d)", defaultK)),
		),
	)
}

func listLanguagesTool() mcp.Tool {
	return mcp.NewTool("list_languages",
		mcp.WithDescription("List the languages the index understands, their file extensions, and which syntax nodes become chunks."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

func indexStatusTool() mcp.Tool {
	return mcp.NewTool("index_status",
		mcp.WithDescription("Report how many chunks are indexed and which embedding model built the index."),
		mcp.WithToolAnnotation(readOnlyAnnotation),
	)
}

// --- Handler factories ---

func makeSearchHandler(searcher *index.Searcher, defaultK int) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		if query == "" {
			return mcp.NewToolResultError("query is required"), nil
		}
		k := req.GetInt("k", defaultK)
		if k <= 0 {
			k = defaultK
		}

		hits, err := searcher.Search(ctx, query, k, "")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
		}

		return mcp.NewToolResultText(index.Markdown(query, hits)), nil
	}
}

func makeListLanguagesHandler(reg *chunker.Registry) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var sb strings.Builder
		specs := reg.Specs()
		fmt.Fprintf(&sb, "## Supported languages (%d)\n\n", len(specs))
		for _, spec := range specs {
			fmt.Fprintf(&sb, "- **%s** (.%s): %s\n",
				spec.Name,
				strings.Join(spec.Extensions, ", ."),
				strings.Join(slices.Sorted(maps.Keys(spec.Targets)), ", "))
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func makeIndexStatusHandler(st indexStatus) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		n, err := st.Count(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("count failed: %v", err)), nil
		}
		model, err := st.EmbeddingModel(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("read model failed: %v", err)), nil
		}
		if model == "" {
			model = "(unknown)"
		}
		return mcp.NewToolResultText(fmt.Sprintf("Chunks indexed: %d\nEmbedding model: %s", n, model)), nil
	}
}
