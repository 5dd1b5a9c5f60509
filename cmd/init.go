package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/verolang/vero/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a Vero project in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunInit(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func RunInit(w io.Writer) error {
	// vero.yaml
	if _, err := os.Stat(config.FileName); err == nil {
		fmt.Fprintln(w, "vero.yaml already exists")
	} else {
		if err := config.Write(config.FileName, config.Default()); err != nil {
			return err
		}
		fmt.Fprintln(w, "vero.yaml created")
	}

	// tests/ directory
	if _, err := os.Stat("tests"); err == nil {
		fmt.Fprintln(w, "tests/ already exists")
	} else {
		if err := os.MkdirAll("tests", 0o755); err != nil {
			return fmt.Errorf("creating tests directory: %w", err)
		}
		fmt.Fprintln(w, "tests/ created")
	}

	// gitignore the runs db and debug command file
	msgs, err := ensureGitignore()
	if err != nil {
		return fmt.Errorf("updating .gitignore: %w", err)
	}
	for _, msg := range msgs {
		fmt.Fprintln(w, msg)
	}

	return nil
}

func ensureGitignore() ([]string, error) {
	const entry = ".vero/"

	data, err := os.ReadFile(".gitignore")
	if os.IsNotExist(err) {
		if err := os.WriteFile(".gitignore", []byte(entry+"\n"), 0o644); err != nil {
			return nil, err
		}
		return []string{".gitignore created", ".vero/ added to .gitignore"}, nil
	}
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == entry {
			return []string{".vero/ already in .gitignore"}, nil
		}
	}

	content := string(data)
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"

	if err := os.WriteFile(".gitignore", []byte(content), 0o644); err != nil {
		return nil, err
	}
	return []string{".vero/ added to .gitignore"}, nil
}
