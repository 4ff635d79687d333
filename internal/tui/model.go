// Package tui is an interactive terminal front end that shows every model's
// answer side by side.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/josinaldojr/multi-llm-rag/internal/rag"
)

// Asker is the TUI-facing subset of the API client.
type Asker interface {
	Ask(ctx context.Context, question string) (*rag.AskResponse, error)
}

type answerMsg struct {
	resp *rag.AskResponse
	err  error
	took time.Duration
}

type Model struct {
	asker    Asker
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	resp     *rag.AskResponse
	status   string
	waiting  bool
	ready    bool
	width    int
}

// New creates the TUI model. timeout bounds a single question round trip.
func New(asker Asker, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		asker:    asker,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready.",
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + 1 + qh + 1 // header, status, input line, frame, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(m.renderAnswers())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.waiting {
				return m, nil
			}
			m.waiting = true
			m.status = fmt.Sprintf("Asking %q", q)
			return m, tea.Batch(m.spinner.Tick, m.ask(q))
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.resp = msg.resp
		m.status = fmt.Sprintf("%d context chunks, answered in %s", msg.resp.ContextsFound, msg.took.Round(time.Millisecond))
		m.input.SetValue("")
		m.viewport.SetContent(m.renderAnswers())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Multi-LLM RAG")
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + m.viewport.View() + "\n" + queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) ask(q string) tea.Cmd {
	asker, timeout := m.asker, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		resp, err := asker.Ask(ctx, q)
		return answerMsg{resp: resp, err: err, took: time.Since(start)}
	}
}

// renderAnswers lays the model answers out in equal-width columns.
func (m Model) renderAnswers() string {
	if m.resp == nil || len(m.resp.Responses) == 0 {
		return "No answers yet."
	}

	n := len(m.resp.Responses)
	frame, _ := answerBoxStyle.GetFrameSize()
	colWidth := max(16, m.width/n-frame)

	cols := make([]string, 0, n)
	for _, r := range m.resp.Responses {
		title := okTitleStyle.Render(r.Model)
		if r.Status == rag.StatusError {
			title = errTitleStyle.Render(r.Model + " (error)")
		}
		body := lipgloss.NewStyle().Width(colWidth).Render(r.Answer)
		cols = append(cols, answerBoxStyle.Render(title+"\n\n"+body))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	okTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)
