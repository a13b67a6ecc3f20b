package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"codescope/internal/chunker/languages"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages and the node kinds indexed for each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		header := lipgloss.NewStyle().Bold(true)
		dim := lipgloss.NewStyle().Faint(true)

		out := cmd.OutOrStdout()
		for _, spec := range languages.Default().Specs() {
			fmt.Fprintf(out, "%s %s\n", header.Render(spec.Name),
				dim.Render("(."+strings.Join(spec.Extensions, ", .")+")"))
			for _, kind := range slices.Sorted(maps.Keys(spec.Targets)) {
				fmt.Fprintf(out, "  %-32s %s\n", kind, spec.Targets[kind])
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
}
