package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"codescope/internal/index"

	"github.com/spf13/cobra"
)

var (
	flagResults int
	flagOutput  string
	flagJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the index with a natural-language query",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := workingDir()
		if err != nil {
			return err
		}
		cfg, err := loadConfig(root)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		st, err := openExistingStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		n := flagResults
		if n <= 0 {
			n = cfg.Search.Results
		}
		query := strings.Join(args, " ")

		idx := index.New(st, index.WithRetry(indexerConfig(cfg).Retry))
		hits, err := index.NewSearcher(idx).Search(ctx, query, n, flagOutput)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if flagJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(hits)
		}
		fmt.Fprint(out, index.Markdown(query, hits))
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&flagResults, "results", "n", 0, "number of results (default from config, 3)")
	searchCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "also write hits to this JSON file")
	searchCmd.Flags().BoolVar(&flagJSON, "json", false, "print hits as JSON")
	rootCmd.AddCommand(searchCmd)
}
