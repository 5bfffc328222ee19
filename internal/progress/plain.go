package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/toolstore/tool/internal/core"
)

var doneStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

// PlainMaker reports progress as one line per finished item. It is used when
// stdout is not a terminal; styling is stripped so logs stay clean.
type PlainMaker struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewPlainMaker creates a PlainMaker. With color false, output is plain
// text.
func NewPlainMaker(out io.Writer, color bool) *PlainMaker {
	return &PlainMaker{out: out, color: color}
}

// NewProgress returns a Progress that prints a completion line on Finish.
func (p *PlainMaker) NewProgress(label string) core.Progress {
	return &plainProgress{maker: p, label: label}
}

func (p *PlainMaker) println(line string) {
	if !p.color {
		line = ansi.Strip(line)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, line)
}

type plainProgress struct {
	maker *PlainMaker
	label string
	total int64
	done  int64
}

func (p *plainProgress) SetTotal(n int64) { p.total = n }
func (p *plainProgress) Advance(n int64)  { p.done += n }

func (p *plainProgress) Finish() {
	line := doneStyle.Render("done") + "  " + p.label
	if p.total > 0 {
		line = fmt.Sprintf("%s (%s)", line, formatBytes(p.done))
	}
	p.maker.println(line)
}

// formatBytes renders a byte count for humans.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
