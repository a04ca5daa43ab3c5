package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ticgit/internal/models"
	"github.com/fentz26/ticgit/internal/store"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	stateOpen     = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	stateResolved = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // Blue
	stateInvalid  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	stateHold     = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
)

// TicketItem implements list.Item for the ticket list.
type TicketItem struct {
	Ticket   models.Ticket
	Position int
	Current  bool
}

func (i TicketItem) FilterValue() string {
	return i.Ticket.Title + " " + strings.Join(i.Ticket.Tags, " ")
}

func (i TicketItem) Title() string {
	mark := " "
	if i.Current {
		mark = "*"
	}
	return fmt.Sprintf("%s %d. %s", mark, i.Position, i.Ticket.Title)
}

func (i TicketItem) Description() string {
	parts := []string{formatState(i.Ticket.State), i.Ticket.ShortID()}
	if i.Ticket.Assigned != "" {
		parts = append(parts, i.Ticket.Assigned)
	}
	if len(i.Ticket.Tags) > 0 {
		parts = append(parts, strings.Join(i.Ticket.Tags, ","))
	}
	return strings.Join(parts, " • ")
}

func formatState(s models.State) string {
	switch s {
	case models.StateOpen:
		return stateOpen.Render("● open")
	case models.StateHold:
		return stateHold.Render("● hold")
	case models.StateResolved:
		return stateResolved.Render("● resolved")
	case models.StateInvalid:
		return stateInvalid.Render("● invalid")
	default:
		return string(s)
	}
}

// stateFilter is one entry of the tab-cycled filter ring.
type stateFilter struct {
	label  string
	filter store.Filter
}

var filters = []stateFilter{
	{"active", store.Filter{}},
	{"open", store.Filter{State: models.StateOpen}},
	{"hold", store.Filter{State: models.StateHold}},
	{"resolved", store.Filter{State: models.StateResolved}},
	{"invalid", store.Filter{State: models.StateInvalid}},
	{"all", store.Filter{IncludeClosed: true}},
}

func newTicketList() list.Model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 80, 20)
	l.Title = "Tickets [active]"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = listTitleStyle
	return l
}

func ticketItems(tickets []models.Ticket, current string) []list.Item {
	items := make([]list.Item, len(tickets))
	for i, t := range tickets {
		items[i] = TicketItem{Ticket: t, Position: i + 1, Current: t.ID == current}
	}
	return items
}
