package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"

	"github.com/upgradehq/upgr-cli/internal/usecase"
)

// SpinnerSink renders progress as a terminal spinner with per-stage counts.
type SpinnerSink struct {
	spinner *spinner.Spinner
}

// NewSpinnerSink creates a spinner-based progress sink.
func NewSpinnerSink() *SpinnerSink {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.HideCursor = false
	return &SpinnerSink{spinner: s}
}

// OnProgress updates the spinner line from a progress event.
func (r *SpinnerSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	if !event.Spinner {
		if r.spinner.Active() {
			r.spinner.Stop()
		}
		return
	}
	if !r.spinner.Active() {
		r.spinner.Start()
	}
	label := event.Message
	if event.Total > 0 {
		label = fmt.Sprintf("%s (%d/%d)", event.Message, event.Current, event.Total)
	}
	r.spinner.Suffix = fmt.Sprintf(" %s %s", color.New(color.FgYellow).Sprint(event.Stage), label)
}

// Info prints an info message without garbling the spinner line.
func (r *SpinnerSink) Info(message string) {
	r.print(func() { color.New(color.FgCyan).Println(message) })
}

// Error prints an error message without garbling the spinner line.
func (r *SpinnerSink) Error(message string) {
	r.print(func() { color.New(color.FgRed).Println(message) })
}

func (r *SpinnerSink) print(emit func()) {
	wasActive := r.spinner.Active()
	if wasActive {
		r.spinner.Stop()
	}
	emit()
	if wasActive {
		r.spinner.Start()
	}
}

var _ usecase.ProgressSink = (*SpinnerSink)(nil)
