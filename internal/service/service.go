// Package service provides the ticket operations behind each action.
package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fentz26/ticgit/internal/audit"
	"github.com/fentz26/ticgit/internal/layout"
	"github.com/fentz26/ticgit/internal/models"
	"github.com/fentz26/ticgit/internal/store"
	"github.com/rs/zerolog"
)

// Setting keys kept in the store.
const (
	keyCurrent  = "current"
	keyLastList = "last_list"
)

// Service provides the ticket business logic.
type Service struct {
	store   *store.Store
	journal *audit.Journal
	user    string
	logger  zerolog.Logger
}

// New creates a Service acting as user.
func New(s *store.Store, j *audit.Journal, user string) *Service {
	return &Service{
		store:   s,
		journal: j,
		user:    user,
		logger:  zerolog.Nop(),
	}
}

// SetLogger sets the logger used for journal failures.
func (s *Service) SetLogger(l zerolog.Logger) { s.logger = l }

// User returns the user the service acts as.
func (s *Service) User() string { return s.user }

func (s *Service) record(action string, inputs interface{}, ticketID, details string) {
	if _, err := s.journal.Record(action, inputs, ticketID, details); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("journal write failed")
	}
}

// --- References ---

// Current returns the ID of the checked-out ticket, or "" when none is.
func (s *Service) Current() (string, error) {
	return s.store.GetValue(keyCurrent)
}

// Resolve turns a user reference into a ticket ID. An empty ref means the
// checked-out ticket, a number is a 1-based position in the last listing,
// anything else is a full ID or a unique ID prefix.
func (s *Service) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		id, err := s.Current()
		if err != nil {
			return "", err
		}
		if id == "" {
			return "", ErrNoCurrentTicket
		}
		return id, nil
	}

	if n, err := strconv.Atoi(ref); err == nil && isDigits(ref) {
		ids, err := s.LastList()
		if err != nil {
			return "", err
		}
		if n >= 1 && n <= len(ids) {
			return ids[n-1], nil
		}
	}

	ids, err := s.store.FindTickets(ref)
	if err != nil {
		return "", err
	}
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
	}
	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrTicketNotFound, ref)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d tickets", ErrAmbiguousRef, ref, len(ids))
	}
}

// Ticket resolves ref and loads the ticket.
func (s *Service) Ticket(ref string) (*models.Ticket, error) {
	id, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return s.load(id)
}

func (s *Service) load(id string) (*models.Ticket, error) {
	t, err := s.store.GetTicket(id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return t, nil
}

// --- Listing ---

// List returns matching tickets and remembers their order so later
// commands can refer to them by position.
func (s *Service) List(f store.Filter) ([]models.Ticket, error) {
	tickets, err := s.store.ListTickets(f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(tickets))
	for i, t := range tickets {
		ids[i] = t.ID
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	if err := s.store.SetValue(keyLastList, string(data)); err != nil {
		return nil, err
	}
	return tickets, nil
}

// LastList returns the ticket IDs of the most recent listing.
func (s *Service) LastList() ([]string, error) {
	raw, err := s.store.GetValue(keyLastList)
	if err != nil || raw == "" {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return ids, nil
}

// Recent returns up to limit journal entries, newest first.
func (s *Service) Recent(limit int) ([]models.JournalEntry, error) {
	return s.store.RecentJournal(limit)
}

// --- Mutations ---

// Create opens a new ticket. A non-empty comment becomes its first comment.
// Control characters in the title become spaces.
func (s *Service) Create(title string, tags []string, comment string) (*models.Ticket, error) {
	title = strings.TrimSpace(layout.SingleLine(title))
	if title == "" {
		return nil, ErrEmptyTitle
	}
	t, err := s.store.CreateTicket(store.NewTicket{
		Title:   title,
		Author:  s.user,
		Tags:    tags,
		Comment: strings.TrimSpace(comment),
	})
	if err != nil {
		return nil, err
	}

	s.record("new", map[string]interface{}{"title": title, "tags": tags}, t.ID, title)
	return t, nil
}

// Checkout makes ref the current ticket.
func (s *Service) Checkout(ref string) (*models.Ticket, error) {
	t, err := s.Ticket(ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetValue(keyCurrent, t.ID); err != nil {
		return nil, err
	}
	return t, nil
}

// Comment adds a comment by the service user.
func (s *Service) Comment(ref, body string) (*models.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyComment
	}
	id, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	c, err := s.store.AddComment(id, s.user, body)
	if err != nil {
		return nil, s.missing(id, err)
	}

	s.record("comment", map[string]string{"ticket_id": id, "body": body}, id, fmt.Sprintf("%d bytes", len(body)))
	return c, nil
}

// SetState changes the state of ref.
func (s *Service) SetState(ref, state string) (*models.Ticket, error) {
	st, err := models.ParseState(state)
	if err != nil {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrInvalidState, state, stateNames())
	}
	t, err := s.Ticket(ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetState(t.ID, st); err != nil {
		return nil, s.missing(t.ID, err)
	}

	s.record("state", map[string]string{"ticket_id": t.ID, "state": string(st)}, t.ID, fmt.Sprintf("%s -> %s", t.State, st))
	t.State = st
	return t, nil
}

// Assign sets the assignee of ref; an empty user means the service user.
// With checkout the ticket also becomes current.
func (s *Service) Assign(ref, user string, checkout bool) (*models.Ticket, error) {
	if user == "" {
		user = s.user
	}
	t, err := s.Ticket(ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetAssigned(t.ID, user); err != nil {
		return nil, s.missing(t.ID, err)
	}
	if checkout {
		if err := s.store.SetValue(keyCurrent, t.ID); err != nil {
			return nil, err
		}
	}

	s.record("assign", map[string]string{"ticket_id": t.ID, "user": user}, t.ID, user)
	t.Assigned = user
	return t, nil
}

// Tag adds tags to ref, or removes them when remove is set.
func (s *Service) Tag(ref string, tags []string, remove bool) (*models.Ticket, error) {
	id, err := s.Resolve(ref)
	if err != nil {
		return nil, err
	}
	action := "tag"
	if remove {
		action = "untag"
		err = s.store.RemoveTags(id, tags)
	} else {
		err = s.store.AddTags(id, tags)
	}
	if err != nil {
		return nil, s.missing(id, err)
	}

	s.record(action, map[string]interface{}{"ticket_id": id, "tags": tags}, id, strings.Join(tags, ","))
	return s.load(id)
}

// Points sets the estimate of ref; nil clears it.
func (s *Service) Points(ref string, points *int) (*models.Ticket, error) {
	t, err := s.Ticket(ref)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPoints(t.ID, points); err != nil {
		return nil, s.missing(t.ID, err)
	}

	details := "cleared"
	if points != nil {
		details = strconv.Itoa(*points)
	}
	s.record("points", map[string]interface{}{"ticket_id": t.ID, "points": points}, t.ID, details)
	t.Points = points
	return t, nil
}

// missing maps the store's missing-ticket error onto ErrTicketNotFound.
func (s *Service) missing(id string, err error) error {
	if errors.Is(err, store.ErrNoTicket) {
		return fmt.Errorf("%w: %s", ErrTicketNotFound, id)
	}
	return err
}

func stateNames() string {
	names := make([]string, len(models.States))
	for i, st := range models.States {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
