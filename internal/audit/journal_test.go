package audit

import (
	"errors"
	"testing"

	"github.com/fentz26/ticgit/internal/models"
)

type recordingSink struct {
	entries []models.JournalEntry
	err     error
}

func (r *recordingSink) WriteJournal(action, inputsHash, ticketID, details string) (*models.JournalEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	e := models.JournalEntry{Action: action, InputsHash: inputsHash, TicketID: ticketID, Details: details}
	r.entries = append(r.entries, e)
	return &e, nil
}

func TestHashInputs(t *testing.T) {
	a := HashInputs(map[string]string{"title": "x", "tags": "y"})
	b := HashInputs(map[string]string{"tags": "y", "title": "x"})
	if a != b {
		t.Errorf("Expected map key order not to matter: %s != %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(a))
	}
	if HashInputs(map[string]string{"title": "z"}) == a {
		t.Error("Expected different inputs to hash differently")
	}
	if got := HashInputs(make(chan int)); got != "hash_error" {
		t.Errorf("Expected hash_error for unencodable inputs, got %s", got)
	}
}

func TestRecord(t *testing.T) {
	sink := &recordingSink{}
	j := NewJournal(sink)

	e, err := j.Record("state", map[string]string{"state": "hold"}, "t1", "open -> hold")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if e.Action != "state" || e.TicketID != "t1" || e.Details != "open -> hold" {
		t.Errorf("Unexpected entry %+v", e)
	}
	if e.InputsHash != HashInputs(map[string]string{"state": "hold"}) {
		t.Error("Expected inputs to be hashed")
	}

	sink.err = errors.New("disk full")
	if _, err := j.Record("state", nil, "t1", ""); err == nil {
		t.Error("Expected sink error to propagate")
	}
}
