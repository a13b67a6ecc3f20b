package cmd

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"codescope/internal/chunker/languages"
	"codescope/internal/index"

	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a codebase for search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ix := index.NewIndexer(st, languages.Default(), indexerConfig(cfg))

		fmt.Fprintf(cmd.OutOrStdout(), "Indexing %s...\n", root)
		start := time.Now()

		stats, _, err := ix.Run(ctx, root)
		elapsed := time.Since(start)

		if stats != nil {
			printStats(cmd, stats, elapsed)
			if cfg.Index.ChunksOutput != "" && err == nil && stats.ChunksTotal > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "  Saved:   %s\n", cfg.Index.ChunksOutput)
			}
		}

		return err
	},
}

func printStats(cmd *cobra.Command, stats *index.Stats, elapsed time.Duration) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nDone in %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  Files:   %d total, %d indexed, %d skipped\n",
		stats.FilesTotal, stats.FilesIndexed, stats.FilesSkipped)
	fmt.Fprintf(out, "  Chunks:  %d\n", stats.ChunksTotal)
	for _, lang := range slices.Sorted(maps.Keys(stats.ByLanguage)) {
		fmt.Fprintf(out, "    %-12s %d\n", lang, stats.ByLanguage[lang])
	}
}

func init() {
	indexCmd.Flags().Int("workers", 0, "parallel workers (default NumCPU)")
	indexCmd.Flags().String("chunks-output", "", "write indexed chunks to this JSON file")
	_ = v.BindPFlag("index.workers", indexCmd.Flags().Lookup("workers"))
	_ = v.BindPFlag("index.chunks_output", indexCmd.Flags().Lookup("chunks-output"))
	rootCmd.AddCommand(indexCmd)
}
