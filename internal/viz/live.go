package viz

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/spectrasim/internal/dynamo"
	"github.com/san-kum/spectrasim/internal/experiment"
	"github.com/san-kum/spectrasim/internal/sim"
)

const (
	graphWidth  = 64
	graphHeight = 12
	barWidth    = 40
	tickRate    = time.Second / 30
)

// RunFunc performs a full run, reporting progress through observe.
type RunFunc func(ctx context.Context, observe experiment.Observer) (*sim.Result, *dynamo.Spectrum, error)

type TickMsg time.Time

// DoneMsg carries the outcome of the worker.
type DoneMsg struct {
	Dynamics *sim.Result
	Spectrum *dynamo.Spectrum
	Err      error
}

type view int

const (
	viewPopulations view = iota
	viewSpectrum
)

// Model is the bubbletea model of a live run.
type Model struct {
	title   string
	run     RunFunc
	tracker *Tracker
	ctx     context.Context
	cancel  context.CancelFunc
	started time.Time
	elapsed time.Duration
	frame   int
	view    view

	done     bool
	dynamics *sim.Result
	spectrum *dynamo.Spectrum
	err      error
}

// NewModel prepares a live run; the worker starts when the program calls Init.
func NewModel(ctx context.Context, title string, run RunFunc) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		title:   title,
		run:     run,
		tracker: NewTracker(),
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.work(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) work() tea.Cmd {
	run, ctx, observe := m.run, m.ctx, m.tracker.Observe
	return func() tea.Msg {
		res, spec, err := run(ctx, observe)
		return DoneMsg{Dynamics: res, Spectrum: spec, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.cancel()
			return m, tea.Quit
		case "tab":
			if m.view == viewPopulations {
				m.view = viewSpectrum
			} else {
				m.view = viewPopulations
			}
		}
	case TickMsg:
		if m.done {
			return m, nil
		}
		m.frame++
		m.elapsed = time.Since(m.started)
		return m, tick()
	case DoneMsg:
		m.done = true
		m.elapsed = time.Since(m.started)
		m.dynamics, m.spectrum, m.err = msg.Dynamics, msg.Spectrum, msg.Err
		m.cancel()
	}
	return m, nil
}

// Done reports whether the worker has finished.
func (m Model) Done() bool { return m.done }

// Err returns the worker's error, if any.
func (m Model) Err() error { return m.err }

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(Separator(graphWidth) + "\n\n")

	if !m.done {
		stage, pct := m.tracker.Load()
		s.WriteString(fmt.Sprintf("%s %s\n\n", StatusRunning.Render(Spinner(m.frame)), stage))
		s.WriteString(fmt.Sprintf("%s %5.1f%%\n\n", ProgressBar(pct/100, barWidth), pct))
		s.WriteString(MetricLabel.Render("Elapsed") + MetricValue.Render(m.elapsed.Round(time.Millisecond).String()) + "\n")
		s.WriteString("\n" + KeyHint.Render("q: cancel"))
		return Panel.Render(s.String())
	}

	if m.err != nil {
		status := "FAILED"
		if errors.Is(m.err, context.Canceled) {
			status = "CANCELLED"
		}
		s.WriteString(StatusFailed.Render(status) + "\n\n" + m.err.Error() + "\n")
	}

	switch m.view {
	case viewPopulations:
		s.WriteString(m.populationView())
	case viewSpectrum:
		s.WriteString(m.spectrumView())
	}

	s.WriteString(m.metricsView())
	s.WriteString("\n" + KeyHint.Render("tab: populations/spectrum  q: quit"))
	return Panel.Render(s.String())
}

func (m Model) populationView() string {
	if m.dynamics == nil || m.dynamics.Trajectory == nil || m.dynamics.Trajectory.Len() < 2 {
		return Subtle.Render("no dynamics") + "\n"
	}
	traj := m.dynamics.Trajectory
	series := make([][]float64, traj.Modes)
	for i := range series {
		series[i] = traj.Population(i)
	}
	chart := asciigraph.PlotMany(series,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(fmt.Sprintf("populations (%d modes, %.3g ps)", traj.Modes, dynamo.ToPicoseconds(traj.Grid.End()))),
	)
	return GraphStyle.Render(chart) + "\n"
}

func (m Model) spectrumView() string {
	if m.spectrum == nil || len(m.spectrum.Values) < 2 {
		return Subtle.Render("no spectrum") + "\n"
	}
	e := m.spectrum.Grid.Energies
	chart := asciigraph.Plot(m.spectrum.Intensity(),
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
		asciigraph.Caption(fmt.Sprintf("emission %.4g .. %.4g eV", e[0], e[len(e)-1])),
	)
	return GraphStyle.Render(chart) + "\n"
}

func (m Model) metricsView() string {
	var rows []string
	row := func(label, value string) {
		rows = append(rows, MetricLabel.Render(label)+MetricValue.Render(value))
	}
	row("Elapsed", m.elapsed.Round(time.Millisecond).String())

	if m.dynamics != nil {
		st := m.dynamics.Stats
		row("Method", fmt.Sprint(st.LastMethod))
		row("RHS evaluations", fmt.Sprintf("%d", st.Evaluations))
		row("Steps (rejected)", fmt.Sprintf("%d (%d)", st.Steps, st.Rejected))
		names := make([]string, 0, len(m.dynamics.Metrics))
		for k := range m.dynamics.Metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			row(k, fmt.Sprintf("%.6g", m.dynamics.Metrics[k]))
		}
		if traj := m.dynamics.Trajectory; traj != nil && traj.Len() > 0 {
			row("Exciton trend", Sparkline(traj.Population(0), 24))
		}
	}
	if m.spectrum != nil && len(m.spectrum.Values) > 0 {
		e, v := m.spectrum.Peak()
		row("Peak", fmt.Sprintf("%.5g eV (%.4g)", e, v))
	}
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, rows...) + "\n"
}
