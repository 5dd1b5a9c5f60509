package cmd

import (
	"io"

	"github.com/spf13/cobra"
	"github.com/verolang/vero/internal/config"
	"github.com/verolang/vero/internal/debug"
)

var debugFlags struct {
	listen string
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Start the step-debugging bridge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunDebug(cmd.OutOrStdout(), debugFlags.listen)
	},
}

func init() {
	debugCmd.Flags().StringVar(&debugFlags.listen, "listen", "", "Listen address (default from vero.yaml)")
	rootCmd.AddCommand(debugCmd)
}

// RunDebug serves the bridge until the listener fails.
func RunDebug(w io.Writer, listen string) error {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Debug.Listen
	}

	session := debug.NewSession(cfg.Debug.CommandFile)
	bridge := debug.NewBridge(session)
	return bridge.ListenAndServe(listen, w)
}
