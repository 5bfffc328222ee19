// Package progress renders install, download, and upload progress in the
// terminal. It implements the core progress interfaces; nothing in core
// imports a rendering library.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/toolstore/tool/internal/core"
)

var labelStyle = lipgloss.NewStyle().Bold(true)

// addItemMsg registers a new tracked item.
type addItemMsg struct{ label string }

// totalMsg sets an item's total units.
type totalMsg struct {
	label string
	n     int64
}

// advanceMsg adds completed units to an item.
type advanceMsg struct {
	label string
	n     int64
}

// finishMsg marks an item complete.
type finishMsg struct{ label string }

// allDoneMsg quits the program once the batch is drained.
type allDoneMsg struct{}

// item is the per-label render state.
type item struct {
	label string
	bar   progress.Model
	total int64
	done  int64
	fin   bool
}

// model renders one bar per tracked item. A batch of one shows a single
// detailed bar; larger batches multiplex, one row per item.
type model struct {
	items []*item
	index map[string]int
}

func newModel() model {
	return model{index: map[string]int{}}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case addItemMsg:
		if _, ok := m.index[msg.label]; !ok {
			m.index[msg.label] = len(m.items)
			m.items = append(m.items, &item{
				label: msg.label,
				bar:   progress.New(progress.WithDefaultGradient()),
			})
		}
	case totalMsg:
		if it := m.item(msg.label); it != nil {
			it.total = msg.n
		}
	case advanceMsg:
		if it := m.item(msg.label); it != nil {
			it.done += msg.n
		}
	case finishMsg:
		if it := m.item(msg.label); it != nil {
			it.fin = true
		}
	case allDoneMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) item(label string) *item {
	idx, ok := m.index[label]
	if !ok {
		return nil
	}
	return m.items[idx]
}

func (m model) View() string {
	var b []byte
	for _, it := range m.items {
		ratio := 0.0
		switch {
		case it.fin:
			ratio = 1.0
		case it.total > 0:
			ratio = float64(it.done) / float64(it.total)
		}
		b = fmt.Appendf(b, "%s %s\n", labelStyle.Render(it.label), it.bar.ViewAs(ratio))
	}
	return string(b)
}

// Multi is a bubbletea-backed core.ProgressMaker. Construct it with Run,
// which owns the program lifecycle.
type Multi struct {
	program *tea.Program
}

// NewProgress registers and returns a Progress for one item.
func (m *Multi) NewProgress(label string) core.Progress {
	m.program.Send(addItemMsg{label: label})
	return &itemProgress{program: m.program, label: label}
}

// itemProgress forwards updates for one item into the program.
type itemProgress struct {
	program *tea.Program
	label   string
}

func (p *itemProgress) SetTotal(n int64) { p.program.Send(totalMsg{label: p.label, n: n}) }
func (p *itemProgress) Advance(n int64)  { p.program.Send(advanceMsg{label: p.label, n: n}) }
func (p *itemProgress) Finish()          { p.program.Send(finishMsg{label: p.label}) }

// Run starts the progress display, calls work with a maker for it, and
// blocks until the display drains. Errors from the renderer are returned;
// the work function reports its own results out of band.
func Run(out io.Writer, work func(maker core.ProgressMaker)) error {
	program := tea.NewProgram(newModel(), tea.WithOutput(out))
	maker := &Multi{program: program}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// Give the event loop a beat to render the initial frame.
		time.Sleep(50 * time.Millisecond)
		work(maker)
		program.Send(allDoneMsg{})
	}()

	_, err := program.Run()
	wg.Wait()
	return err
}
