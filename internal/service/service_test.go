package service

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/fentz26/ticgit/internal/audit"
	"github.com/fentz26/ticgit/internal/models"
	"github.com/fentz26/ticgit/internal/store"
)

func TestCreateAndShow(t *testing.T) {
	svc, st := newTestService(t)

	ticket, err := svc.Create("  Broken build  ", []string{"ci"}, "fails on main")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ticket.Title != "Broken build" {
		t.Errorf("Expected trimmed title, got %q", ticket.Title)
	}

	got, err := svc.Ticket(ticket.ID)
	if err != nil {
		t.Fatalf("Ticket failed: %v", err)
	}
	if len(got.Comments) != 1 || got.Comments[0].Author != "tester" {
		t.Errorf("Expected one comment by tester, got %+v", got.Comments)
	}

	entries, err := st.RecentJournal(10)
	if err != nil {
		t.Fatalf("RecentJournal failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "new" || entries[0].TicketID != ticket.ID {
		t.Errorf("Expected a 'new' journal entry, got %+v", entries)
	}
}

func TestCreate_TitleIsSingleLine(t *testing.T) {
	svc, _ := newTestService(t)

	ticket, err := svc.Create("two\nlines\t", nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if ticket.Title != "two lines" {
		t.Errorf("Expected control characters replaced, got %q", ticket.Title)
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.Create("   ", nil, ""); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("Expected ErrEmptyTitle, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	svc, _ := newTestService(t)

	a, _ := svc.Create("first", nil, "")
	b, _ := svc.Create("second", nil, "")

	// No checkout yet
	if _, err := svc.Resolve(""); !errors.Is(err, ErrNoCurrentTicket) {
		t.Errorf("Expected ErrNoCurrentTicket, got %v", err)
	}

	// Full ID and prefix
	if id, err := svc.Resolve(a.ID); err != nil || id != a.ID {
		t.Errorf("Resolve(full) = %q, %v", id, err)
	}
	if id, err := svc.Resolve(b.ID[:12]); err != nil || id != b.ID {
		t.Errorf("Resolve(prefix) = %q, %v", id, err)
	}
	if _, err := svc.Resolve("zzzz"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}

	// List positions
	if _, err := svc.List(store.Filter{}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if id, err := svc.Resolve("2"); err != nil || id != b.ID {
		t.Errorf("Resolve(2) = %q, %v; want %s", id, err, b.ID)
	}

	// Checkout
	if _, err := svc.Checkout("1"); err != nil {
		t.Fatalf("Checkout failed: %v", err)
	}
	if id, err := svc.Resolve(""); err != nil || id != a.ID {
		t.Errorf("Resolve(\"\") = %q, %v; want %s", id, err, a.ID)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	svc, _ := newTestService(t)

	// 17 IDs over 16 hex digits: at least two share a first character.
	seen := map[byte]bool{}
	var shared string
	for i := 0; i < 17; i++ {
		ticket, err := svc.Create("ticket", nil, "")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[ticket.ID[0]] && shared == "" {
			shared = ticket.ID[:1]
		}
		seen[ticket.ID[0]] = true
	}

	if _, err := svc.Resolve(shared); !errors.Is(err, ErrAmbiguousRef) {
		t.Errorf("Expected ErrAmbiguousRef for %q, got %v", shared, err)
	}
}

func TestMutations(t *testing.T) {
	svc, st := newTestService(t)
	ticket, _ := svc.Create("work", nil, "")

	if _, err := svc.SetState(ticket.ID, "HOLD"); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if _, err := svc.SetState(ticket.ID, "done"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
	if _, err := svc.Assign(ticket.ID, "", true); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := svc.Tag(ticket.ID, []string{"a", "b"}, false); err != nil {
		t.Fatalf("Tag failed: %v", err)
	}
	tagged, err := svc.Tag(ticket.ID, []string{"a"}, true)
	if err != nil {
		t.Fatalf("Untag failed: %v", err)
	}
	if len(tagged.Tags) != 1 || tagged.Tags[0] != "b" {
		t.Errorf("Expected tags [b], got %v", tagged.Tags)
	}
	three := 3
	if _, err := svc.Points(ticket.ID, &three); err != nil {
		t.Fatalf("Points failed: %v", err)
	}
	if _, err := svc.Comment("", "via checkout"); err != nil {
		t.Fatalf("Comment on current ticket failed: %v", err)
	}
	if _, err := svc.Comment(ticket.ID, " \n "); !errors.Is(err, ErrEmptyComment) {
		t.Errorf("Expected ErrEmptyComment, got %v", err)
	}

	got, _ := svc.Ticket(ticket.ID)
	if got.State != models.StateHold {
		t.Errorf("Expected hold, got %s", got.State)
	}
	if got.Assigned != "tester" {
		t.Errorf("Expected assignee tester, got %q", got.Assigned)
	}
	if got.Points == nil || *got.Points != 3 {
		t.Errorf("Expected 3 points, got %v", got.Points)
	}
	if len(got.Comments) != 1 || got.Comments[0].Body != "via checkout" {
		t.Errorf("Unexpected comments %+v", got.Comments)
	}

	entries, _ := st.RecentJournal(20)
	want := []string{"comment", "points", "untag", "tag", "assign", "state", "new"}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d journal entries, got %d", len(want), len(entries))
	}
	for i, e := range entries {
		if e.Action != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Action)
		}
	}
}

func TestLastList_Empty(t *testing.T) {
	svc, _ := newTestService(t)
	ids, err := svc.LastList()
	if err != nil || ids != nil {
		t.Errorf("LastList = %v, %v", ids, err)
	}
	if _, err := svc.Resolve("1"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}
}

// newTestService creates a service over a store in a temporary directory.
func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, audit.NewJournal(st), "tester"), st
}
