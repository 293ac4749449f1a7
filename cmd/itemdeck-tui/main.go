package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Config
const (
	daemonURL      = "http://localhost:8091"
	pollRate       = 2 * time.Second
	viewportHeight = 18
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	statusErr   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Width(100)

	paneStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1).
			Width(100)

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	groupStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// API types (mirrored from pkg/api to keep the TUI free of engine deps)

type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Group    string `json:"group,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
}

type CardDetail struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	Front map[string]string `json:"front"`
	Back  map[string]string `json:"back"`
}

type tickMsg time.Time

type cardsMsg struct {
	cards []Card
	err   error
}

type detailMsg struct {
	detail CardDetail
	err    error
}

type model struct {
	spinner  spinner.Model
	viewport viewport.Model
	cards    []Card
	selected int
	detail   *CardDetail
	flipped  bool
	err      error
	ready    bool
}

func initialModel() model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	vp := viewport.New(100, viewportHeight)
	return model{spinner: s, viewport: vp}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		fetchCards(),
		tick(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
				m.detail = nil
				m.updateViewportContent()
			}
		case "down", "j":
			if m.selected < len(m.cards)-1 {
				m.selected++
				m.detail = nil
				m.updateViewportContent()
			}
		case "enter":
			if len(m.cards) > 0 {
				m.flipped = false
				cmds = append(cmds, fetchDetail(m.cards[m.selected].ID))
			}
		case "f":
			if m.detail != nil {
				m.flipped = !m.flipped
			}
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		cmds = append(cmds, fetchCards(), tick())

	case cardsMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.cards = msg.cards
			if m.selected >= len(m.cards) {
				m.selected = 0
			}
			m.updateViewportContent()
		}
		m.ready = true

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			d := msg.detail
			m.detail = &d
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = viewportHeight
		m.ready = true
	}

	return m, tea.Batch(cmds...)
}

func (m *model) updateViewportContent() {
	var sb strings.Builder
	for i, c := range m.cards {
		line := c.Title
		if c.Group != "" {
			line += " " + groupStyle.Render(fmt.Sprintf("[%s]", c.Group))
		}
		if c.Degraded {
			line += " " + degradedStyle.Render("!")
		}
		if i == m.selected {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		sb.WriteString(line + "\n")
	}
	m.viewport.SetContent(sb.String())
}

func (m model) View() string {
	if !m.ready {
		return fmt.Sprintf("\n%s Loading collection...", m.spinner.View())
	}

	header := headerStyle.Render(fmt.Sprintf("%s itemdeck — %d cards", m.spinner.View(), len(m.cards)))
	list := m.viewport.View()

	// Detail pane: the selected card's rendered face
	var detail strings.Builder
	if m.detail == nil {
		detail.WriteString(subtleStyle.Render("Press enter to view a card, f to flip it."))
	} else {
		face := m.detail.Front
		faceName := "front"
		if m.flipped {
			face = m.detail.Back
			faceName = "back"
		}
		detail.WriteString(lipgloss.NewStyle().Bold(true).Render(m.detail.ID) +
			subtleStyle.Render(fmt.Sprintf(" (%s, %s)", m.detail.Type, faceName)) + "\n\n")
		if len(face) == 0 {
			detail.WriteString(subtleStyle.Render("This face is empty."))
		} else {
			slots := make([]string, 0, len(face))
			for slot := range face {
				slots = append(slots, slot)
			}
			sort.Strings(slots)
			for _, slot := range slots {
				detail.WriteString(fmt.Sprintf("%s: %s\n", subtleStyle.Render(slot), face[slot]))
			}
		}
	}
	detailPane := paneStyle.Render(detail.String())

	var status string
	if m.err != nil {
		status = statusErr.Render(fmt.Sprintf("Offline: %v", m.err))
	} else {
		status = statusOK.Render(fmt.Sprintf("Online • %s", daemonURL))
	}
	footer := subtleStyle.Render(fmt.Sprintf("\n%s\n↑/↓ select • enter view • f flip • q quit", status))

	return lipgloss.JoinVertical(lipgloss.Left, header, list, detailPane, footer)
}

// --- Commands ---

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchCards() tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(daemonURL + "/v1/cards")
		if err != nil {
			return cardsMsg{err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return cardsMsg{err: fmt.Errorf("daemon returned %d", resp.StatusCode)}
		}
		var cards []Card
		if err := json.NewDecoder(resp.Body).Decode(&cards); err != nil {
			return cardsMsg{err: err}
		}
		return cardsMsg{cards: cards}
	}
}

func fetchDetail(id string) tea.Cmd {
	return func() tea.Msg {
		resp, err := http.Get(daemonURL + "/v1/cards/" + id)
		if err != nil {
			return detailMsg{err: err}
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return detailMsg{err: fmt.Errorf("daemon returned %d", resp.StatusCode)}
		}
		var detail CardDetail
		if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
			return detailMsg{err: err}
		}
		return detailMsg{detail: detail}
	}
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error running tui: %v\n", err)
		os.Exit(1)
	}
}
