package output

import (
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"github.com/sdejongh/dirmerge/pkg/models"
)

const progressTemplate = `{{string . "phase"}} {{counters . }} {{bar . }} {{percent . }} {{string . "path"}}`

// getRefreshRate returns the progress update interval based on OS
// Windows terminals have higher latency with ANSI sequences, so we use a longer interval
func getRefreshRate() time.Duration {
	if runtime.GOOS == "windows" {
		return 300 * time.Millisecond
	}
	return 100 * time.Millisecond
}

// BarProgress shows one progress bar per phase
type BarProgress struct {
	writer    io.Writer
	termWidth int

	mu    sync.Mutex
	bar   *pb.ProgressBar
	phase models.Phase
}

// NewProgressSink returns a progress bar on w when enabled and w is a
// terminal, and a sink that discards updates otherwise
func NewProgressSink(w io.Writer, enabled bool) models.ProgressSink {
	if !enabled {
		return models.NullProgress{}
	}
	file, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return models.NullProgress{}
	}
	return NewBarProgress(file)
}

// NewBarProgress creates a progress bar writer. The width follows the
// terminal when w is one.
func NewBarProgress(w io.Writer) *BarProgress {
	p := &BarProgress{writer: w}
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			p.termWidth = width
		}
	}
	// Default to 120 if we couldn't detect (pipe, redirect, etc.)
	if p.termWidth == 0 {
		p.termWidth = 120
	}
	return p
}

// Progress implements models.ProgressSink
func (p *BarProgress) Progress(update models.ProgressUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || update.Phase != p.phase {
		p.finish()
		p.start(update.Phase)
	}

	if update.Total > 0 {
		p.bar.SetTotal(int64(update.Total))
	}
	p.bar.SetCurrent(int64(update.Current))
	p.bar.Set("path", truncatePath(update.Path, p.termWidth/3))

	if update.Done {
		p.finish()
	}
}

// Close finishes the current bar
func (p *BarProgress) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finish()
}

func (p *BarProgress) start(phase models.Phase) {
	p.phase = phase
	p.bar = pb.ProgressBarTemplate(progressTemplate).New(0)
	p.bar.SetWriter(p.writer)
	p.bar.SetWidth(p.termWidth)
	p.bar.SetRefreshRate(getRefreshRate())
	p.bar.Set("phase", string(phase))
	p.bar.Start()
}

func (p *BarProgress) finish() {
	if p.bar == nil {
		return
	}
	p.bar.Set("path", "")
	p.bar.Finish()
	p.bar = nil
}

// truncatePath keeps the end of path within max characters
func truncatePath(path string, max int) string {
	if max <= 3 || len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}
