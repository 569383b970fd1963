package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

var (
	succeedMark = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("✔")
	failMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("✖")
)

// Spinner renders each step as an animated progressbar spinner followed by a
// success or failure line.
type Spinner struct {
	writer io.Writer
}

// NewSpinner creates a spinner writing to w, or stderr when w is nil
func NewSpinner(w io.Writer) *Spinner {
	if w == nil {
		w = os.Stderr
	}
	return &Spinner{writer: w}
}

func (s *Spinner) Start(message string) Handle {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(s.writer),
		progressbar.OptionSetDescription(message),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
	return &spinnerHandle{writer: s.writer, bar: bar, message: message}
}

type spinnerHandle struct {
	once    sync.Once
	writer  io.Writer
	bar     *progressbar.ProgressBar
	message string
}

func (h *spinnerHandle) Succeed() {
	h.finish(succeedMark, h.message)
}

func (h *spinnerHandle) Fail(message string) {
	h.finish(failMark, message)
}

func (h *spinnerHandle) finish(mark, message string) {
	h.once.Do(func() {
		_ = h.bar.Finish()
		fmt.Fprintf(h.writer, "%s %s\n", mark, message)
	})
}
