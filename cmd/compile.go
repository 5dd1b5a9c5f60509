package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/verolang/vero"
	"github.com/verolang/vero/internal/config"
	"github.com/verolang/vero/internal/history"
	"github.com/verolang/vero/internal/selection"
	"github.com/verolang/vero/internal/ui"
)

// runsDBPath is where compile runs are recorded.
const runsDBPath = ".vero/runs.db"

// CompileFlags are the compile command's options. Zero values defer
// to vero.yaml.
type CompileFlags struct {
	Out       string
	Debug     bool
	Scenarios []string
	Patterns  []string
	Tags      string
}

var compileFlags CompileFlags

var compileCmd = &cobra.Command{
	Use:   "compile [files...]",
	Short: "Compile Vero sources to Playwright TypeScript",
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunCompile(cmd.OutOrStdout(), args, compileFlags)
	},
}

func init() {
	compileCmd.Flags().StringVar(&compileFlags.Out, "out", "", "Output directory (default from vero.yaml)")
	compileCmd.Flags().BoolVar(&compileFlags.Debug, "debug", false, "Instrument statements for step debugging")
	compileCmd.Flags().StringArrayVar(&compileFlags.Scenarios, "scenario", nil, "Select scenarios by name")
	compileCmd.Flags().StringArrayVar(&compileFlags.Patterns, "pattern", nil, "Select scenarios by regular expression")
	compileCmd.Flags().StringVar(&compileFlags.Tags, "tags", "", "Select scenarios by tag expression")
	rootCmd.AddCommand(compileCmd)
}

func RunCompile(w io.Writer, args []string, flags CompileFlags) error {
	cfg, err := config.Load(config.FileName)
	if err != nil {
		return err
	}
	out := flags.Out
	if out == "" {
		out = cfg.Output
	}

	sources, err := readSources(args)
	if err != nil {
		return err
	}

	result, diags, err := vero.Compile(sources, vero.CompileOptions{
		Selection: selection.Options{
			ScenarioNames: flags.Scenarios,
			NamePatterns:  flags.Patterns,
			TagExpression: flags.Tags,
		},
		Debug: flags.Debug,
		Env:   cfg.Env,
	})
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		for _, d := range diags {
			ui.ErrorLine(w, d.Stage, d.File, d.Line, d.Column, d.Message)
		}
		return fmt.Errorf("%d problems", len(diags))
	}

	units, err := writeUnits(w, out, result)
	if err != nil {
		return err
	}

	if err := recordRun(sources, result, flags.Debug, units); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	ui.SummaryLine(w, result.Selection.SelectedFeatures, result.Selection.SelectedScenarios)
	return nil
}

// writeUnits writes every generated file under dir, pages and action
// blocks first so test imports always resolve.
func writeUnits(w io.Writer, dir string, result *vero.CompileResult) ([]history.Unit, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	var units []history.Unit
	write := func(kind, name, file, src string) error {
		if err := os.WriteFile(filepath.Join(dir, file), []byte(src), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
		ui.UnitLine(w, kind, file)
		units = append(units, history.Unit{Kind: kind, Name: name})
		return nil
	}

	for _, name := range sortedKeys(result.Units.Support) {
		if err := write("support", name, name+".ts", result.Units.Support[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(result.Units.Pages) {
		if err := write("page", name, name+".ts", result.Units.Pages[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(result.Units.PageActions) {
		if err := write("pageactions", name, name+".ts", result.Units.PageActions[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(result.Units.Tests) {
		if err := write("test", name, name+".spec.ts", result.Units.Tests[name]); err != nil {
			return nil, err
		}
	}
	return units, nil
}

func recordRun(sources []vero.Source, result *vero.CompileResult, debug bool, units []history.Unit) error {
	db, err := history.Open(runsDBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = src.Path
	}
	_, err = history.Record(db, history.Run{
		Sources:   paths,
		Features:  result.Selection.SelectedFeatures,
		Scenarios: result.Selection.SelectedScenarios,
		Debug:     debug,
		Status:    "ok",
	}, units)
	return err
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
