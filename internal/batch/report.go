package batch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ytbatch/internal/model"
	"ytbatch/internal/runstore"
)

// ErrRunFailed is returned when a run finished with at least one failed job.
var ErrRunFailed = errors.New("one or more downloads failed")

var (
	reportOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	reportErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	reportMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Report prints the run summary to w and returns ErrRunFailed (wrapped with
// the failure count) when any locator failed.
func Report(w io.Writer, res model.RunResult) error {
	if res.OK() {
		fmt.Fprintln(w, reportOKStyle.Render(fmt.Sprintf("All %d download(s) completed successfully.", res.Total)))
		return nil
	}

	var b strings.Builder
	b.WriteString(reportErrorStyle.Render(fmt.Sprintf("%d of %d download(s) failed:", len(res.Failed), res.Total)))
	b.WriteString("\n")
	for _, loc := range res.Failed {
		b.WriteString("  - ")
		b.WriteString(loc)
		b.WriteString("\n")
	}
	if res.Succeeded > 0 {
		b.WriteString(reportMutedStyle.Render(fmt.Sprintf("%d succeeded", res.Succeeded)))
		b.WriteString("\n")
	}
	fmt.Fprint(w, b.String())
	return fmt.Errorf("%w: %d of %d", ErrRunFailed, len(res.Failed), res.Total)
}

// WriteReport stores the run result as JSON at path.
func WriteReport(path string, res model.RunResult) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := runstore.WriteJSON(path, res); err != nil {
		return fmt.Errorf("write run report: %w", err)
	}
	return nil
}
