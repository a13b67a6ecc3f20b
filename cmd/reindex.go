package cmd

import (
	"fmt"
	"time"

	"codescope/internal/chunker/languages"
	"codescope/internal/index"
	"codescope/internal/report"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex <chunks.json>",
	Short: "Rebuild the index from a saved chunks file without re-parsing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}

		chunks, err := report.LoadChunks(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		ixCfg := indexerConfig(cfg)
		ixCfg.ChunksOutput = ""
		ix := index.NewIndexer(st, languages.Default(), ixCfg)

		fmt.Fprintf(cmd.OutOrStdout(), "Re-indexing %d chunks from %s...\n", len(chunks), args[0])
		start := time.Now()
		stats, err := ix.IndexChunks(ctx, chunks)
		if stats != nil {
			printStats(cmd, stats, time.Since(start))
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}
