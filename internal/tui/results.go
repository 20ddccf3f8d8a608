// SPDX-License-Identifier: MIT

// Package tui is a terminal viewer for analysis results: a list of analyzed
// signals and, per signal, the model summary, a coarse spectrum plot and the
// peak table.
package tui

import (
	"fmt"
	"strings"

	"arpsd/internal/analysis"
	"arpsd/internal/psd"
	"arpsd/internal/report"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E8A317"))
)

// ScreenType defines which screen is currently active
type ScreenType int

const (
	ListScreen ScreenType = iota
	DetailScreen
)

var (
	keyQuit = key.NewBinding(key.WithKeys("q", "ctrl+c"))
	keyUp   = key.NewBinding(key.WithKeys("up", "k"))
	keyDown = key.NewBinding(key.WithKeys("down", "j"))
	keyOpen = key.NewBinding(key.WithKeys("enter"))
	keyBack = key.NewBinding(key.WithKeys("esc"))
)

// plotWidth is the number of columns in the spectrum sketch.
const plotWidth = 64

// ResultsModel is the Bubble Tea model of the viewer.
type ResultsModel struct {
	results       []*analysis.Result
	selectedIndex int
	viewport      viewport.Model
	ready         bool
	activeScreen  ScreenType
}

// NewResultsModel creates a viewer over results.
func NewResultsModel(results []*analysis.Result) ResultsModel {
	return ResultsModel{
		results:      results,
		activeScreen: ListScreen,
	}
}

// Init initializes the Bubble Tea model
func (m ResultsModel) Init() tea.Cmd {
	return nil
}

// Selected returns the highlighted result, or nil when there are none.
func (m ResultsModel) Selected() *analysis.Result {
	if len(m.results) == 0 {
		return nil
	}
	return m.results[m.selectedIndex]
}

// Screen returns the active screen.
func (m ResultsModel) Screen() ScreenType {
	return m.activeScreen
}

func (m ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-4)
			m.viewport.Style = lipgloss.NewStyle()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 4
		}
		m.refresh()

	case tea.KeyMsg:
		if key.Matches(msg, keyQuit) {
			return m, tea.Quit
		}

		switch m.activeScreen {
		case ListScreen:
			switch {
			case key.Matches(msg, keyUp):
				if m.selectedIndex > 0 {
					m.selectedIndex--
					m.refresh()
				}
			case key.Matches(msg, keyDown):
				if m.selectedIndex < len(m.results)-1 {
					m.selectedIndex++
					m.refresh()
				}
			case key.Matches(msg, keyOpen):
				if len(m.results) > 0 {
					m.activeScreen = DetailScreen
					m.refresh()
					m.viewport.GotoTop()
				}
			}
			// List navigation owns the arrow keys.
			return m, nil

		case DetailScreen:
			if key.Matches(msg, keyBack) {
				m.activeScreen = ListScreen
				m.refresh()
				return m, nil
			}
		}
	}

	// Detail screen scrolling.
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *ResultsModel) refresh() {
	if !m.ready {
		return
	}
	if m.activeScreen == DetailScreen {
		m.viewport.SetContent(m.renderDetail())
	} else {
		m.viewport.SetContent(m.renderList())
	}
}

// View renders the UI
func (m ResultsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var title, help string
	if m.activeScreen == ListScreen {
		title = titleStyle.Render("Analysis Results")
		help = infoStyle.Render("↑/↓: Navigate • Enter: Details • q: Quit")
	} else {
		title = titleStyle.Render("Result: " + m.Selected().Name)
		help = infoStyle.Render("↑/↓: Scroll • Esc: Back • q: Quit")
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.viewport.View(), help)
}

func (m ResultsModel) renderList() string {
	if len(m.results) == 0 {
		return "No results."
	}

	var sb strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("%s %-24s order %2d/%-2d  %3d peak(s)  %.0f Hz, %d samples",
			cursor(i == m.selectedIndex), r.Name, r.Model.Order, r.Model.Requested,
			len(r.Peaks), r.SampleRate, r.Samples)
		if i == m.selectedIndex {
			line = highlightStyle.Render(line)
		} else if !r.Model.Usable() {
			line = warnStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m ResultsModel) renderDetail() string {
	r := m.Selected()
	s := r.Summary()

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sample rate:  %.0f Hz, %d samples, window %s\n", r.SampleRate, r.Samples, r.Window)
	fmt.Fprintf(&sb, "Model order:  %d (requested %d)\n", r.Model.Order, r.Model.Requested)
	fmt.Fprintf(&sb, "Variance:     %.6g\n", r.Model.Variance)
	fmt.Fprintf(&sb, "Spectrum:     %s, %d bins, %.4f Hz/bin\n", r.Method, len(r.PSD), psd.BinWidth(len(r.PSD), r.SampleRate))
	if !r.Model.Usable() {
		sb.WriteString(warnStyle.Render("Model is not usable: variance is not positive."))
		sb.WriteString("\n")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Central:      %.2f Hz\n", s.CentralFrequency)
	if rt := r.Residual; rt != nil {
		fmt.Fprintf(&sb, "Residual:     p = %.4f, Gaussian: %t\n", rt.PValue, rt.Gaussian)
	}

	sb.WriteString("\n")
	sb.WriteString(Sparkline(r.PSD, plotWidth))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "0 Hz%*s%.0f Hz\n\n", plotWidth-4-len(fmt.Sprintf("%.0f Hz", r.SampleRate/2)), "", r.SampleRate/2)

	if len(r.Peaks) == 0 {
		sb.WriteString("No significant peaks were detected.\n")
		return sb.String()
	}
	sb.WriteString(highlightStyle.Render(fmt.Sprintf("%-4s %14s %12s %14s", "#", "Frequency Hz", "Power dB", "Width Hz")))
	sb.WriteString("\n")
	for i, p := range report.ByPower(r.Peaks) {
		flag := ""
		if p.Flat {
			flag = " (flat)"
		}
		fmt.Fprintf(&sb, "%-4d %14.4f %12.2f %14.4f%s\n", i+1, p.Frequency, p.PowerDB, p.WidthHz, flag)
	}
	return sb.String()
}

func cursor(selected bool) string {
	if selected {
		return "▶"
	}
	return " "
}

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws the dB spectrum in width columns, each column showing the
// maximum of the bins it covers. The bottom of the scale is 60 dB below the
// peak.
func Sparkline(spectrum []float64, width int) string {
	if len(spectrum) == 0 || width <= 0 {
		return ""
	}
	width = min(width, len(spectrum))

	cols := make([]float64, width)
	for c := range cols {
		lo := c * len(spectrum) / width
		hi := max((c+1)*len(spectrum)/width, lo+1)
		best := psd.FloorDB
		for _, v := range spectrum[lo:hi] {
			best = max(best, psd.ToDB(v))
		}
		cols[c] = best
	}

	top := psd.FloorDB
	for _, v := range cols {
		top = max(top, v)
	}
	const rangeDB = 60.0
	var sb strings.Builder
	for _, v := range cols {
		level := (v - (top - rangeDB)) / rangeDB
		idx := int(level * float64(len(sparkRunes)-1))
		idx = max(0, min(idx, len(sparkRunes)-1))
		sb.WriteRune(sparkRunes[idx])
	}
	return sb.String()
}

// Run launches the viewer and blocks until the user quits.
func Run(results []*analysis.Result) error {
	p := tea.NewProgram(
		NewResultsModel(results),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
