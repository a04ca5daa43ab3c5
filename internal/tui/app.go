// Package tui provides the interactive ticket browser.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ticgit/internal/models"
	"github.com/fentz26/ticgit/internal/store"
)

var (
	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(lipgloss.Color("#F9FAFB")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)
)

// Source is the ticket access the browser needs. *service.Service
// satisfies it.
type Source interface {
	List(f store.Filter) ([]models.Ticket, error)
	Ticket(ref string) (*models.Ticket, error)
	Current() (string, error)
	Checkout(ref string) (*models.Ticket, error)
}

// Shower renders the detail view of a ticket. *render.Renderer satisfies it.
type Shower interface {
	Show(t *models.Ticket) ([]string, error)
}

type mode int

const (
	modeList mode = iota
	modeDetail
)

// App is the browser model.
type App struct {
	source    Source
	shower    Shower
	list      list.Model
	detail    detailModel
	mode      mode
	filterIdx int
	current   string
	message   string
	width     int
	height    int
}

// New creates a browser over source.
func New(source Source, shower Shower) *App {
	return &App{
		source: source,
		shower: shower,
		list:   newTicketList(),
		detail: newDetail(),
	}
}

// Run starts the browser on the alternate screen until the user quits or
// ctx is done.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	p := tea.NewProgram(a,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	_, err := p.Run()
	return err
}

type ticketsLoadedMsg struct {
	tickets []models.Ticket
	current string
}

type ticketLoadedMsg struct {
	ticket *models.Ticket
	lines  []string
}

type checkedOutMsg struct {
	ticket *models.Ticket
}

type errMsg struct {
	err error
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.fetchTickets()
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.mode == modeDetail {
			return a.updateDetail(msg)
		}
		if a.list.FilterState() != list.Filtering {
			if cmd, handled := a.listKey(msg); handled {
				return a, cmd
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.list.SetSize(msg.Width, msg.Height-1)
		a.detail.setSize(msg.Width, msg.Height-3)
		return a, nil

	case ticketsLoadedMsg:
		a.current = msg.current
		return a, a.list.SetItems(ticketItems(msg.tickets, msg.current))

	case ticketLoadedMsg:
		a.mode = modeDetail
		a.detail.set(msg.ticket, msg.lines)
		return a, nil

	case checkedOutMsg:
		a.message = fmt.Sprintf("checked out %s", msg.ticket.ShortID())
		return a, a.fetchTickets()

	case errMsg:
		a.message = "Error: " + msg.err.Error()
		return a, nil
	}

	if a.mode == modeDetail {
		var cmd tea.Cmd
		a.detail, cmd = a.detail.update(msg)
		return a, cmd
	}
	var cmd tea.Cmd
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

// listKey handles browser keys in list mode. Unhandled keys go to the list.
func (a *App) listKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "q":
		return tea.Quit, true
	case "r":
		a.message = ""
		return a.fetchTickets(), true
	case "tab":
		a.filterIdx = (a.filterIdx + 1) % len(filters)
		a.list.Title = fmt.Sprintf("Tickets [%s]", filters[a.filterIdx].label)
		return a.fetchTickets(), true
	case "enter":
		if item, ok := a.selected(); ok {
			return a.fetchTicket(item.Ticket.ID), true
		}
		return nil, true
	case "c":
		if item, ok := a.selected(); ok {
			return a.checkout(item.Ticket.ID), true
		}
		return nil, true
	}
	return nil, false
}

func (a *App) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "backspace":
		a.mode = modeList
		return a, a.fetchTickets()
	case "c":
		if a.detail.ticket != nil {
			return a, a.checkout(a.detail.ticket.ID)
		}
	}
	var cmd tea.Cmd
	a.detail, cmd = a.detail.update(msg)
	return a, cmd
}

func (a *App) selected() (TicketItem, bool) {
	item, ok := a.list.SelectedItem().(TicketItem)
	return item, ok
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder
	if a.mode == modeDetail {
		b.WriteString(a.detail.view())
	} else {
		b.WriteString(a.list.View())
	}
	b.WriteString("\n")
	b.WriteString(a.statusBar())
	return b.String()
}

func (a *App) statusBar() string {
	if a.message != "" {
		return statusBarStyle.Render(a.message)
	}
	if a.mode == modeDetail {
		return helpStyle.Render("esc back • c checkout • ↑/↓ scroll")
	}
	return helpStyle.Render("enter show • c checkout • tab filter • r refresh • q quit")
}

func (a *App) fetchTickets() tea.Cmd {
	f := filters[a.filterIdx].filter
	return func() tea.Msg {
		tickets, err := a.source.List(f)
		if err != nil {
			return errMsg{err}
		}
		current, err := a.source.Current()
		if err != nil {
			return errMsg{err}
		}
		return ticketsLoadedMsg{tickets: tickets, current: current}
	}
}

func (a *App) fetchTicket(id string) tea.Cmd {
	return func() tea.Msg {
		t, err := a.source.Ticket(id)
		if err != nil {
			return errMsg{err}
		}
		lines, err := a.shower.Show(t)
		if err != nil {
			return errMsg{err}
		}
		return ticketLoadedMsg{ticket: t, lines: lines}
	}
}

func (a *App) checkout(id string) tea.Cmd {
	return func() tea.Msg {
		t, err := a.source.Checkout(id)
		if err != nil {
			return errMsg{err}
		}
		return checkedOutMsg{t}
	}
}
