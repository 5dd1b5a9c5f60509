package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/verolang/vero"
	"github.com/verolang/vero/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Lex, parse and validate Vero sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCheck(cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func RunCheck(w io.Writer, args []string) error {
	sources, err := readSources(args)
	if err != nil {
		return err
	}

	_, diags := vero.Check(sources)
	if len(diags) == 0 {
		for _, src := range sources {
			ui.OkLine(w, src.Path)
		}
		return nil
	}

	for _, d := range diags {
		ui.ErrorLine(w, d.Stage, d.File, d.Line, d.Column, d.Message)
	}
	return fmt.Errorf("%d problems", len(diags))
}
