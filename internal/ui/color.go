package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	stageStyle = lipgloss.NewStyle().Faint(true)
	tagStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// ErrorLine prints one diagnostic with its pipeline stage and source
// position. Column 0 means the diagnostic has no column.
func ErrorLine(w io.Writer, stage, file string, line, col int, msg string) {
	pos := fmt.Sprintf("%s:%d", file, line)
	if col > 0 {
		pos = fmt.Sprintf("%s:%d:%d", file, line, col)
	}
	fmt.Fprintln(w, errStyle.Render(stage)+"  "+pos+"  "+msg)
}

// OkLine prints a green success marker.
func OkLine(w io.Writer, msg string) {
	fmt.Fprintln(w, okStyle.Render("ok")+"   "+msg)
}

// UnitLine prints one generated unit.
func UnitLine(w io.Writer, kind, name string) {
	fmt.Fprintln(w, stageStyle.Render(kind)+"  "+name)
}

// ScenarioLine prints one scenario with its feature and tags.
func ScenarioLine(w io.Writer, feature, scenario string, tags []string) {
	line := stageStyle.Render(feature) + "  " + scenario
	for _, tag := range tags {
		line += "  " + tagStyle.Render(tag)
	}
	fmt.Fprintln(w, line)
}

// SummaryLine prints the compile totals.
func SummaryLine(w io.Writer, features, scenarios int) {
	fmt.Fprintf(w, "compiled %d features, %d scenarios\n", features, scenarios)
}
