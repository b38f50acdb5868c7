package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/Guo-astro/hvcc-gsph-sub001/internal/solver"
)

const historyCapacity = 600

// Live streams solver step diagnostics into a terminal view. It implements
// solver.Observer for float64 runs; OnStep never blocks the simulation loop,
// dropping frames instead when the terminal falls behind.
type Live struct {
	ch chan solver.StepRecord[float64]
}

func NewLive() *Live {
	return &Live{ch: make(chan solver.StepRecord[float64], 64)}
}

func (l *Live) OnStep(rec solver.StepRecord[float64]) {
	select {
	case l.ch <- rec:
	default:
	}
}

// Finish signals the view that the run completed.
func (l *Live) Finish() {
	close(l.ch)
}

// Run blocks rendering the live view until the run finishes or the user quits.
func (l *Live) Run() error {
	_, err := tea.NewProgram(newModel(l.ch)).Run()
	return err
}

type recMsg struct {
	rec solver.StepRecord[float64]
	ok  bool
}

type model struct {
	ch      chan solver.StepRecord[float64]
	last    solver.StepRecord[float64]
	dts     []float64
	stalls  int
	done    bool
	started bool
}

func newModel(ch chan solver.StepRecord[float64]) model {
	return model{ch: ch, dts: make([]float64, 0, historyCapacity)}
}

func waitForRec(ch chan solver.StepRecord[float64]) tea.Cmd {
	return func() tea.Msg {
		rec, ok := <-ch
		return recMsg{rec: rec, ok: ok}
	}
}

func (m model) Init() tea.Cmd {
	return waitForRec(m.ch)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case recMsg:
		if !msg.ok {
			m.done = true
			return m, nil
		}
		m.started = true
		m.last = msg.rec
		if msg.rec.Dt.Stalled {
			m.stalls++
		}
		m.dts = append(m.dts, msg.rec.Dt.Dt)
		if len(m.dts) > historyCapacity {
			m.dts = m.dts[len(m.dts)-historyCapacity:]
		}
		return m, waitForRec(m.ch)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(HeaderStyle.Render("sph time-advance diagnostics"))
	b.WriteString("\n")

	if !m.started {
		b.WriteString(ValueStyle.Render("waiting for first step..."))
		b.WriteString("\n")
		b.WriteString(HelpStyle.Render("q: quit"))
		return b.String()
	}

	stats := []string{
		Row("step", fmt.Sprintf("%d", m.last.Step)),
		Row("time", fmt.Sprintf("%.6g", m.last.Time)),
		Row("dt", fmt.Sprintf("%.4g (%s)", m.last.Dt.Dt, m.last.Dt.Limiter)),
		Row("dt energy", fmt.Sprintf("%.4g (diagnostic)", m.last.Dt.DtEnergy)),
		Row("energy", fmt.Sprintf("%.6g", m.last.Energy)),
		Row("shock", fmt.Sprintf("%.1f%%", m.last.ShockFraction*100)),
	}
	if m.stalls > 0 {
		stats = append(stats, WarnStyle.Render(fmt.Sprintf("stall-breaker fired %d times", m.stalls)))
	}
	b.WriteString(StatsStyle.Render(strings.Join(stats, "\n")))
	b.WriteString("\n")

	if len(m.dts) > 1 {
		graph := asciigraph.Plot(m.dts,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption("timestep history"),
		)
		b.WriteString(GraphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.done {
		b.WriteString(WarnStyle.Render("run complete"))
		b.WriteString("\n")
	}
	b.WriteString(HelpStyle.Render("q: quit"))
	return b.String()
}
