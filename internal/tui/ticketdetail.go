package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ticgit/internal/models"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("205")).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(lipgloss.Color("240"))

// detailModel shows one rendered ticket in a scrollable viewport.
type detailModel struct {
	ticket   *models.Ticket
	viewport viewport.Model
}

func newDetail() detailModel {
	return detailModel{viewport: viewport.New(80, 20)}
}

func (m *detailModel) setSize(w, h int) {
	m.viewport.Width = w
	m.viewport.Height = h
}

func (m *detailModel) set(t *models.Ticket, lines []string) {
	m.ticket = t
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoTop()
}

func (m detailModel) update(msg tea.Msg) (detailModel, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m detailModel) view() string {
	if m.ticket == nil {
		return "Loading ticket..."
	}
	return headerStyle.Render(m.ticket.Title) + "\n" + m.viewport.View()
}
