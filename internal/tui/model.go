// Package tui provides the Bubble Tea writing pad with a typing-rate footer.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/wpmbar/internal/model"
	statsPkg "github.com/verte-zerg/wpmbar/internal/stats"
)

const (
	historySize   = 24
	historySmooth = 3
)

var (
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	rateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// CharRecorder receives every character typed into the pad.
type CharRecorder interface {
	RecordChar(r rune)
}

type readingMsg model.Reading

// StatusReporter is the counter's display. It keeps only the latest
// reading so the sampler never waits on the UI.
type StatusReporter struct {
	ch  chan model.Reading
	now func() time.Time
}

// NewStatusReporter returns a reporter with an empty mailbox.
func NewStatusReporter() *StatusReporter {
	return &StatusReporter{ch: make(chan model.Reading, 1), now: time.Now}
}

// ReportIdle implements counter.Reporter.
func (s *StatusReporter) ReportIdle() {
	s.push(model.Reading{Kind: model.ReadingIdle, At: s.now()})
}

// ReportRate implements counter.Reporter.
func (s *StatusReporter) ReportRate(wpm, cpm int) {
	s.push(model.Reading{Kind: model.ReadingRate, At: s.now(), WPM: wpm, CPM: cpm})
}

// push replaces an unread reading. Only the sampler goroutine pushes.
func (s *StatusReporter) push(r model.Reading) {
	for {
		select {
		case s.ch <- r:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *StatusReporter) wait() tea.Cmd {
	return func() tea.Msg {
		return readingMsg(<-s.ch)
	}
}

// Model implements the Bubble Tea writing pad.
type Model struct {
	counter  CharRecorder
	reporter *StatusReporter
	editor   textarea.Model

	width  int
	height int

	hasRate bool
	wpm     int
	cpm     int
	history []float64
}

// NewModel constructs a writing pad that forwards keystrokes to counter
// and renders readings delivered through reporter.
func NewModel(counter CharRecorder, reporter *StatusReporter) *Model {
	editor := textarea.New()
	editor.Placeholder = "Start typing..."
	editor.ShowLineNumbers = false
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.Focus()
	return &Model{
		counter:  counter,
		reporter: reporter,
		editor:   editor,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.reporter.wait())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.editor.SetWidth(msg.Width)
		if msg.Height > 1 {
			m.editor.SetHeight(msg.Height - 1)
		}
		return m, nil
	case readingMsg:
		m.applyReading(model.Reading(msg))
		return m, m.reporter.wait()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		}
		m.recordKey(msg)
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	return m.editor.View() + "\n" + m.renderFooter()
}

func (m *Model) recordKey(msg tea.KeyMsg) {
	if msg.Paste {
		return
	}
	switch msg.Type {
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.counter.RecordChar(r)
		}
	case tea.KeySpace:
		m.counter.RecordChar(' ')
	case tea.KeyEnter:
		m.counter.RecordChar('\n')
	case tea.KeyTab:
		m.counter.RecordChar('\t')
	}
}

func (m *Model) applyReading(r model.Reading) {
	switch r.Kind {
	case model.ReadingIdle:
		m.hasRate = false
		m.history = nil
	case model.ReadingRate:
		m.hasRate = true
		m.wpm = r.WPM
		m.cpm = r.CPM
		m.history = append(m.history, float64(r.WPM))
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
	}
}

func (m *Model) renderFooter() string {
	if !m.hasRate {
		return footerStyle.Render(m.fit("idle"))
	}
	segments := []string{fmt.Sprintf("WPM %d · CPM %d", m.wpm, m.cpm)}
	if len(m.history) > 1 {
		smoothed := statsPkg.MovingAverage(m.history, historySmooth)
		segments = append(segments, statsPkg.Sparkline(smoothed))
	}
	return rateStyle.Render(m.fit(strings.Join(segments, "  ")))
}

func (m *Model) fit(s string) string {
	if m.width <= 0 {
		return s
	}
	return runewidth.Truncate(s, m.width, "…")
}
