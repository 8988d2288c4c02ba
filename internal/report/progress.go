package report

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/mattn/go-isatty"
)

// ProgressBar draws batch progress on a terminal. On anything other than a
// terminal it stays silent so redirected output is not cluttered with
// carriage returns.
type ProgressBar struct {
	w       io.Writer
	bar     progress.Model
	enabled bool
	label   string
}

// ProgressOption customizes a ProgressBar.
type ProgressOption func(*ProgressBar)

// WithForceProgress draws even when w is not a terminal.
func WithForceProgress() ProgressOption {
	return func(p *ProgressBar) {
		p.enabled = true
	}
}

// WithLabel sets the text shown before the bar.
func WithLabel(label string) ProgressOption {
	return func(p *ProgressBar) {
		p.label = label
	}
}

// NewProgressBar creates a progress bar that writes to w.
func NewProgressBar(w io.Writer, opts ...ProgressOption) *ProgressBar {
	p := &ProgressBar{
		w:       w,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		enabled: isTerminal(w),
		label:   "Extracting",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Update redraws the bar at done/total.
func (p *ProgressBar) Update(done, total int) {
	if !p.enabled || total <= 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(float64(done)/float64(total)), done, total)
}

// Finish ends the progress line.
func (p *ProgressBar) Finish() {
	if !p.enabled {
		return
	}
	fmt.Fprintln(p.w)
}
