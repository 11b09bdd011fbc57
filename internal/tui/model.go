// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keyrush/internal/engine"
	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/sink"
)

const (
	tickInterval  = time.Second
	recordTimeout = 15 * time.Second
	upcomingCount = 8
	missedKeysTop = 5
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	upcomingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5A5A5A"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true)
	accentStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// tickMsg drives the session timer. gen ties it to the tick loop that scheduled it.
type tickMsg struct {
	gen int
}

// recordedMsg reports the outcome of delivering a result to the sinks.
type recordedMsg struct {
	gen        int
	err        error
	outcome    sink.Outcome
	hasOutcome bool
}

// Model hosts one engine and renders it.
type Model struct {
	eng     *engine.Engine
	sink    sink.ResultSink
	history *sink.History

	width  int
	height int

	// gen changes on every restart so stale tick loops and recordings are ignored.
	gen     int
	ticking bool

	result     *model.Result
	recording  bool
	recordErr  error
	outcome    sink.Outcome
	hasOutcome bool
	keyTable   table.Model
}

// NewModel builds a host around eng. history may be nil; it is only read for the high score notice.
func NewModel(eng *engine.Engine, results sink.ResultSink, history *sink.History) *Model {
	return &Model{
		eng:     eng,
		sink:    results,
		history: history,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.ticking = false
		cmd := m.applyEffects(m.eng.Tick())
		return m, tea.Batch(cmd, m.scheduleTick())
	case recordedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.recording = false
		m.recordErr = msg.err
		m.outcome = msg.outcome
		m.hasOutcome = msg.hasOutcome
		if msg.err != nil {
			logErrf("failed to record result: %v\n", msg.err)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyTab:
		m.restart()
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		return m, m.feed(engine.KeyBackspace)
	case tea.KeySpace:
		return m, m.feed(" ")
	case tea.KeyRunes:
		cmds := make([]tea.Cmd, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			cmds = append(cmds, m.feed(string(r)))
		}
		return m, tea.Batch(cmds...)
	default:
		return m, nil
	}
}

// feed hands one key to the engine and starts the timer on the first keystroke.
func (m *Model) feed(key string) tea.Cmd {
	cmd := m.applyEffects(m.eng.HandleKey(key))
	return tea.Batch(cmd, m.scheduleTick())
}

func (m *Model) scheduleTick() tea.Cmd {
	if m.ticking || m.eng.Phase() != engine.Typing {
		return nil
	}
	m.ticking = true
	gen := m.gen
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m *Model) restart() {
	if err := m.eng.Restart(nil); err != nil {
		logErrf("failed to restart session: %v\n", err)
		return
	}
	m.gen++
	m.ticking = false
	m.result = nil
	m.recording = false
	m.recordErr = nil
	m.outcome = sink.Outcome{}
	m.hasOutcome = false
}

// applyEffects turns engine effects into commands. Sinks run off the update loop.
func (m *Model) applyEffects(effects []engine.Effect) tea.Cmd {
	var cmds []tea.Cmd
	for _, eff := range effects {
		switch e := eff.(type) {
		case engine.EmitResult:
			res := e.Result
			m.result = &res
			m.keyTable = buildKeyTable(res.KeyErrors, missedKeysTop)
			cmds = append(cmds, m.recordCmd(res))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) recordCmd(res model.Result) tea.Cmd {
	if m.sink == nil {
		return nil
	}
	m.recording = true
	gen := m.gen
	results := m.sink
	history := m.history
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		msg := recordedMsg{gen: gen, err: results.Record(ctx, res)}
		if history != nil {
			msg.outcome = history.Last()
			msg.hasOutcome = msg.outcome.Record.ID != "" && msg.outcome.Record.CreatedAt.Equal(res.EndedAt)
		}
		return msg
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
