package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/verolang/vero/internal/history"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded compile runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunRuns(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func RunRuns(w io.Writer) error {
	if _, err := os.Stat(runsDBPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	db, err := history.Open(runsDBPath)
	if err != nil {
		return fmt.Errorf("opening runs database: %w", err)
	}
	defer db.Close()

	runs, err := history.List(db)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}

	for _, run := range runs {
		mode := ""
		if run.Debug {
			mode = "  debug"
		}
		fmt.Fprintf(w, "%s  %s  %d features  %d scenarios  %s%s\n",
			run.StartedAt.Format("2006-01-02 15:04:05"), run.ID[:8],
			run.Features, run.Scenarios, run.Status, mode)
		fmt.Fprintf(w, "  %s\n", strings.Join(run.Sources, " "))
	}
	return nil
}
