// Package store provides SQLite-backed persistence for ticgit.
//
// A ticket database lives inside the git repository it tracks, under
// .git/ticgit/tickets.db. Open walks up from a path to find that repository.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/ticgit/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBName is the file name of the ticket database.
const DBName = "tickets.db"

// ErrNotFound indicates that no git repository encloses the requested path.
var ErrNotFound = errors.New("no repo found")

// ErrNoTicket indicates that a mutation targeted a ticket that does not exist.
var ErrNoTicket = errors.New("ticket does not exist")

// NotFoundError reports the path that Open searched from.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no repo found at or above %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Options tunes Open.
type Options struct {
	// Dir overrides the directory holding the database. Relative paths are
	// resolved against the repository root.
	Dir string
}

// Store provides access to the ticket database.
type Store struct {
	db   *sql.DB
	root string
	path string
}

// Locate returns the nearest directory at or above path containing a .git
// entry, and whether that entry is a directory.
func Locate(path string) (root string, gitDir bool, err error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false, fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", false, &NotFoundError{Path: abs}
	}
	for dir := abs; ; {
		fi, err := os.Stat(filepath.Join(dir, ".git"))
		if err == nil {
			return dir, fi.IsDir(), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, &NotFoundError{Path: abs}
		}
		dir = parent
	}
}

// Open finds the repository enclosing path and opens its ticket database,
// creating it on first use.
func Open(path string, opts Options) (*Store, error) {
	root, gitDir, err := Locate(path)
	if err != nil {
		return nil, err
	}

	var dir string
	switch {
	case opts.Dir != "" && filepath.IsAbs(opts.Dir):
		dir = opts.Dir
	case opts.Dir != "":
		dir = filepath.Join(root, opts.Dir)
	case gitDir:
		dir = filepath.Join(root, ".git", "ticgit")
	default:
		// .git is a file in worktrees and submodules
		dir = filepath.Join(root, ".ticgit")
	}

	s, err := New(filepath.Join(dir, DBName))
	if err != nil {
		return nil, err
	}
	s.root = root
	return s, nil
}

// New creates a Store at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	s := &Store{db: db, root: filepath.Dir(dbPath), path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Root returns the repository root the store belongs to.
func (s *Store) Root() string { return s.root }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tickets (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'open',
		assigned TEXT,
		points INTEGER,
		opened DATETIME NOT NULL,
		updated DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT PRIMARY KEY,
		ticket_id TEXT NOT NULL,
		author TEXT NOT NULL,
		body TEXT NOT NULL,
		added DATETIME NOT NULL,
		FOREIGN KEY (ticket_id) REFERENCES tickets(id)
	);

	CREATE TABLE IF NOT EXISTS tags (
		ticket_id TEXT NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (ticket_id, tag),
		FOREIGN KEY (ticket_id) REFERENCES tickets(id)
	);

	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		ticket_id TEXT,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tickets_state ON tickets(state);
	CREATE INDEX IF NOT EXISTS idx_comments_ticket_id ON comments(ticket_id);
	CREATE INDEX IF NOT EXISTS idx_tags_tag ON tags(tag);
	CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Ticket Operations ---

// NewTicket describes a ticket to create.
type NewTicket struct {
	Title    string
	Author   string
	Assigned string
	Tags     []string
	Comment  string
}

// CreateTicket inserts a ticket with its tags and optional first comment.
func (s *Store) CreateTicket(in NewTicket) (*models.Ticket, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	t := &models.Ticket{
		ID:       uuid.New().String(),
		Title:    in.Title,
		State:    models.StateOpen,
		Assigned: in.Assigned,
		Opened:   now,
		Updated:  now,
	}

	_, err = tx.Exec(
		`INSERT INTO tickets (id, title, state, assigned, opened, updated) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.State, nullString(t.Assigned), t.Opened, t.Updated,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", err)
	}

	t.Tags = normalizeTags(in.Tags)
	for _, tag := range t.Tags {
		if _, err := tx.Exec(`INSERT INTO tags (ticket_id, tag) VALUES (?, ?)`, t.ID, tag); err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
	}

	if strings.TrimSpace(in.Comment) != "" {
		c := models.Comment{
			ID:       uuid.New().String(),
			TicketID: t.ID,
			Author:   in.Author,
			Body:     in.Comment,
			Added:    now,
		}
		_, err = tx.Exec(
			`INSERT INTO comments (id, ticket_id, author, body, added) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.TicketID, c.Author, c.Body, c.Added,
		)
		if err != nil {
			return nil, fmt.Errorf("insert comment: %w", err)
		}
		t.Comments = append(t.Comments, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return t, nil
}

const ticketColumns = `id, title, state, assigned, points, opened, updated`

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*models.Ticket, error) {
	var t models.Ticket
	var assigned sql.NullString
	var points sql.NullInt64
	if err := row.Scan(&t.ID, &t.Title, &t.State, &assigned, &points, &t.Opened, &t.Updated); err != nil {
		return nil, err
	}
	if assigned.Valid {
		t.Assigned = assigned.String
	}
	if points.Valid {
		p := int(points.Int64)
		t.Points = &p
	}
	return &t, nil
}

// GetTicket retrieves a ticket with its tags and comments. It returns nil
// when no ticket has the given ID.
func (s *Store) GetTicket(id string) (*models.Ticket, error) {
	t, err := scanTicket(s.db.QueryRow(`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}
	if t.Tags, err = s.tagsFor(id); err != nil {
		return nil, err
	}
	if t.Comments, err = s.commentsFor(id); err != nil {
		return nil, err
	}
	return t, nil
}

// FindTickets returns the IDs of tickets whose ID starts with prefix.
func (s *Store) FindTickets(prefix string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT id FROM tickets WHERE substr(id, 1, length(?)) = ? ORDER BY id`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("query ticket ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ticket id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Filter narrows ListTickets.
type Filter struct {
	State         models.State
	Tag           string
	Assigned      string
	IncludeClosed bool
	Order         string
}

// Orders maps the accepted Filter.Order values to their SQL ordering.
var Orders = map[string]string{
	"":         `opened ASC, rowid ASC`,
	"date":     `opened ASC, rowid ASC`,
	"title":    `title COLLATE NOCASE ASC, rowid ASC`,
	"state":    `state ASC, opened ASC, rowid ASC`,
	"assigned": `assigned ASC, opened ASC, rowid ASC`,
}

// ListTickets returns tickets with their tags, but without comments.
func (s *Store) ListTickets(f Filter) ([]models.Ticket, error) {
	order, ok := Orders[f.Order]
	if !ok {
		return nil, fmt.Errorf("unknown order %q", f.Order)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`
	var where []string
	var args []interface{}

	switch {
	case f.State != "":
		where = append(where, `state = ?`)
		args = append(args, f.State)
	case !f.IncludeClosed:
		where = append(where, `state NOT IN (?, ?)`)
		args = append(args, models.StateResolved, models.StateInvalid)
	}
	if f.Assigned != "" {
		where = append(where, `assigned = ?`)
		args = append(args, f.Assigned)
	}
	if f.Tag != "" {
		where = append(where, `id IN (SELECT ticket_id FROM tags WHERE tag = ?)`)
		args = append(args, f.Tag)
	}
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY ` + order

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	var tickets []models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}

	for i := range tickets {
		if tickets[i].Tags, err = s.tagsFor(tickets[i].ID); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

func (s *Store) tagsFor(id string) ([]string, error) {
	rows, err := s.db.Query(`SELECT tag FROM tags WHERE ticket_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *Store) commentsFor(id string) ([]models.Comment, error) {
	rows, err := s.db.Query(
		`SELECT id, ticket_id, author, body, added FROM comments WHERE ticket_id = ? ORDER BY added ASC, rowid ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Author, &c.Body, &c.Added); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// update runs a single-ticket UPDATE and reports ErrNoTicket when nothing
// matched.
func (s *Store) update(what, query string, args ...interface{}) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNoTicket
	}
	return nil
}

// SetState changes the state of a ticket.
func (s *Store) SetState(id string, state models.State) error {
	return s.update("state", `UPDATE tickets SET state = ?, updated = ? WHERE id = ?`,
		state, time.Now().UTC(), id)
}

// SetAssigned changes the assignee of a ticket. An empty user clears it.
func (s *Store) SetAssigned(id, user string) error {
	return s.update("assignee", `UPDATE tickets SET assigned = ?, updated = ? WHERE id = ?`,
		nullString(user), time.Now().UTC(), id)
}

// SetPoints sets the point estimate of a ticket. Nil clears it.
func (s *Store) SetPoints(id string, points *int) error {
	var v sql.NullInt64
	if points != nil {
		v = sql.NullInt64{Int64: int64(*points), Valid: true}
	}
	return s.update("points", `UPDATE tickets SET points = ?, updated = ? WHERE id = ?`,
		v, time.Now().UTC(), id)
}

// AddComment appends a comment to a ticket.
func (s *Store) AddComment(ticketID, author, body string) (*models.Comment, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(`UPDATE tickets SET updated = ? WHERE id = ?`, now, ticketID)
	if err != nil {
		return nil, fmt.Errorf("touch ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNoTicket
	}

	c := &models.Comment{
		ID:       uuid.New().String(),
		TicketID: ticketID,
		Author:   author,
		Body:     body,
		Added:    now,
	}
	_, err = tx.Exec(
		`INSERT INTO comments (id, ticket_id, author, body, added) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TicketID, c.Author, c.Body, c.Added,
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return c, nil
}

// AddTags adds tags to a ticket. Tags it already has are ignored.
func (s *Store) AddTags(id string, tags []string) error {
	return s.changeTags(id, tags, `INSERT OR IGNORE INTO tags (ticket_id, tag) VALUES (?, ?)`)
}

// RemoveTags removes tags from a ticket. Tags it does not have are ignored.
func (s *Store) RemoveTags(id string, tags []string) error {
	return s.changeTags(id, tags, `DELETE FROM tags WHERE ticket_id = ? AND tag = ?`)
}

func (s *Store) changeTags(id string, tags []string, stmt string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE tickets SET updated = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch ticket: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNoTicket
	}
	for _, tag := range normalizeTags(tags) {
		if _, err := tx.Exec(stmt, id, tag); err != nil {
			return fmt.Errorf("update tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// --- Journal Operations ---

// WriteJournal records a mutating action.
func (s *Store) WriteJournal(action, inputsHash, ticketID, details string) (*models.JournalEntry, error) {
	e := &models.JournalEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		TicketID:   ticketID,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO journal (id, action, inputs_hash, ticket_id, details, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Action, e.InputsHash, nullString(e.TicketID), e.Details, e.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return e, nil
}

// RecentJournal returns up to limit entries, newest first.
func (s *Store) RecentJournal(limit int) ([]models.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, action, inputs_hash, ticket_id, details, timestamp FROM journal ORDER BY timestamp DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var ticketID, details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &ticketID, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.TicketID = ticketID.String
		e.Details = details.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- Settings ---

// GetValue returns the stored setting for key, or "" when unset.
func (s *Store) GetValue(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query setting: %w", err)
	}
	return v, nil
}

// SetValue stores a setting. An empty value deletes it.
func (s *Store) SetValue(key, value string) error {
	var err error
	if value == "" {
		_, err = s.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	} else {
		_, err = s.db.Exec(
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			key, value,
		)
	}
	if err != nil {
		return fmt.Errorf("store setting: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// normalizeTags trims, drops empties and duplicates, and sorts.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
