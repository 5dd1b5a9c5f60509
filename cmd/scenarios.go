package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/verolang/vero"
	"github.com/verolang/vero/internal/selection"
	"github.com/verolang/vero/internal/ui"
)

var scenariosFlags struct {
	patterns []string
	tags     string
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [files...]",
	Short: "List scenarios, optionally filtered",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunScenarios(cmd.OutOrStdout(), args, scenariosFlags.patterns, scenariosFlags.tags)
	},
}

func init() {
	scenariosCmd.Flags().StringArrayVar(&scenariosFlags.patterns, "pattern", nil, "Filter by regular expression")
	scenariosCmd.Flags().StringVar(&scenariosFlags.tags, "tags", "", "Filter by tag expression")
	rootCmd.AddCommand(scenariosCmd)
}

func RunScenarios(w io.Writer, args, patterns []string, tags string) error {
	sources, err := readSources(args)
	if err != nil {
		return err
	}

	prog, diags := vero.Check(sources)
	if len(diags) > 0 {
		for _, d := range diags {
			ui.ErrorLine(w, d.Stage, d.File, d.Line, d.Column, d.Message)
		}
		return fmt.Errorf("%d problems", len(diags))
	}

	selected, _, err := vero.SelectScenarios(prog, selection.Options{
		NamePatterns:  patterns,
		TagExpression: tags,
	})
	if err != nil {
		return err
	}

	for _, feat := range selected.Features {
		for _, sc := range feat.Scenarios {
			ui.ScenarioLine(w, feat.Name, sc.Name, sc.Tags)
		}
	}
	return nil
}
