package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/nsavage/relocore/internal/executor"
)

var (
	okStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// printResultSummary writes a colorized one-line-per-file summary of an
// executor.Result to cmd's error stream, ahead of the JSON result body
// printJSON still writes for piping into other tools.
func printResultSummary(cmd *cobra.Command, result executor.Result) {
	w := cmd.ErrOrStderr()

	if result.DryRun {
		fmt.Fprintln(w, dimStyle.Render("dry run: no files were touched"))
		return
	}

	for _, f := range result.FileResults {
		if f.Applied {
			fmt.Fprintln(w, okStyle.Render("applied"), f.Path)
		} else {
			fmt.Fprintln(w, failStyle.Render("failed"), f.Path+":", f.Error)
		}
	}

	if result.Success {
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("ok (%d files changed)", len(result.AppliedFiles))))
	} else {
		fmt.Fprintln(w, failStyle.Render("plan application failed"))
	}
}
