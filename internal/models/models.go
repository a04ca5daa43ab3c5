// Package models defines the core domain types for ticgit.
package models

import (
	"fmt"
	"strings"
	"time"
)

// State is the lifecycle state of a ticket.
type State string

const (
	StateOpen     State = "open"
	StateResolved State = "resolved"
	StateInvalid  State = "invalid"
	StateHold     State = "hold"
)

// States lists every valid state in display order.
var States = []State{StateOpen, StateResolved, StateInvalid, StateHold}

// ParseState converts a user-supplied state name. Matching ignores case.
func ParseState(s string) (State, error) {
	want := State(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range States {
		if st == want {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown state %q", s)
}

// Closed reports whether the state hides the ticket from default listings.
func (s State) Closed() bool {
	return s == StateResolved || s == StateInvalid
}

// Ticket is a tracked issue.
type Ticket struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	State    State     `json:"state"`
	Assigned string    `json:"assigned,omitempty"`
	Points   *int      `json:"points,omitempty"`
	Tags     []string  `json:"tags,omitempty"` // sorted
	Comments []Comment `json:"comments,omitempty"`
	Opened   time.Time `json:"opened"`
	Updated  time.Time `json:"updated"`
}

// ShortID returns the first 8 characters of the ticket ID.
func (t *Ticket) ShortID() string {
	if len(t.ID) > 8 {
		return t.ID[:8]
	}
	return t.ID
}

// HasTag reports whether the ticket carries tag.
func (t *Ticket) HasTag(tag string) bool {
	for _, x := range t.Tags {
		if x == tag {
			return true
		}
	}
	return false
}

// Comment is a note attached to a ticket. Comments are stored oldest first.
type Comment struct {
	ID       string    `json:"id"`
	TicketID string    `json:"ticket_id"`
	Author   string    `json:"author"`
	Body     string    `json:"body"`
	Added    time.Time `json:"added"`
}

// JournalEntry records one mutating action for the `recent` listing.
type JournalEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	TicketID   string    `json:"ticket_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
