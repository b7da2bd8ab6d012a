package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"ytbatch/internal/model"
)

// Progress shows a job-count bar on a terminal. A nil or disabled Progress
// ignores every call.
type Progress struct {
	bar    *progressbar.ProgressBar
	failed int
}

// NewProgress returns a bar over total jobs written to w. It is disabled
// unless enabled is set and w is a terminal.
func NewProgress(total int, enabled bool, w io.Writer) *Progress {
	if !enabled || total <= 0 || !isTerminal(w) {
		return &Progress{}
	}
	return newProgressBar(total, w)
}

func newProgressBar(total int, w io.Writer) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("jobs"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(w, "\n")
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &Progress{bar: bar}
}

// Done advances the bar by one finished job.
func (p *Progress) Done(out model.JobOutcome) {
	if p == nil || p.bar == nil {
		return
	}
	if !out.Success {
		p.failed++
		p.bar.Describe(fmt.Sprintf("jobs (%d failed)", p.failed))
	}
	_ = p.bar.Add(1)
}

func (p *Progress) Finish() {
	if p == nil || p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
