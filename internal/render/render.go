// Package render turns tickets into terminal lines.
package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/ticgit/internal/layout"
	"github.com/fentz26/ticgit/internal/models"
)

const (
	labelWidth = 10

	openedFormat  = "2006-01-02 15:04:05 -0700"
	commentFormat = "01/02 15:04"
	dateFormat    = "01/02"

	// Width of every list column except the title, separators included.
	listFixedWidth = 56
	minTitleWidth  = 10
)

// Sizer reports the terminal width. *termsize.Geometry satisfies it.
type Sizer interface {
	Columns() int
}

// Renderer formats tickets using a layout and the current terminal width.
type Renderer struct {
	Layout       layout.Layout
	Size         Sizer
	Styles       *Styles
	CommentLines int
	Now          func() time.Time
	Location     *time.Location
}

// New returns a Renderer with default comment settings and local time.
func New(l layout.Layout, size Sizer, styles *Styles) *Renderer {
	return &Renderer{
		Layout:       l,
		Size:         size,
		Styles:       styles,
		CommentLines: layout.DefaultCommentLines,
		Now:          time.Now,
		Location:     time.Local,
	}
}

func (r *Renderer) columns() int {
	if r.Size == nil {
		return 80
	}
	if c := r.Size.Columns(); c > 0 {
		return c
	}
	return 80
}

func (r *Renderer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Renderer) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func (r *Renderer) label(name, value string) (string, error) {
	l, err := r.Layout.Justify(name, labelWidth, layout.Left)
	if err != nil {
		return "", err
	}
	return l + ": " + value, nil
}

// Show renders the detail view of a ticket, comments newest first.
func (r *Renderer) Show(t *models.Ticket) ([]string, error) {
	days := int(math.Round(r.now().Sub(t.Opened).Hours() / 24))

	points := "no estimate"
	if t.Points != nil {
		points = strconv.Itoa(*t.Points)
	}

	fields := []struct {
		name, value string
	}{
		{"Title", t.Title},
		{"TicId", t.ID},
		{"", ""},
		{"Assigned", t.Assigned},
		{"Opened", fmt.Sprintf("%s (%d days)", t.Opened.In(r.loc()).Format(openedFormat), days)},
		{"State", r.Styles.State(t.State, strings.ToUpper(string(t.State)))},
		{"Points", points},
	}
	if len(t.Tags) > 0 {
		fields = append(fields, struct{ name, value string }{"Tags", strings.Join(t.Tags, ", ")})
	}

	lines := []string{""}
	for _, f := range fields {
		if f.name == "" {
			lines = append(lines, "")
			continue
		}
		line, err := r.label(f.name, f.value)
		if err != nil {
			return nil, fmt.Errorf("render field %s: %w", f.name, err)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "")

	if len(t.Comments) == 0 {
		return lines, nil
	}

	lines = append(lines, r.Styles.Header(fmt.Sprintf("Comments (%d):", len(t.Comments))))
	for i := len(t.Comments) - 1; i >= 0; i-- {
		c := t.Comments[i]
		lines = append(lines, fmt.Sprintf("  * Added %s by %s", c.Added.In(r.loc()).Format(commentFormat), c.Author))
		body, err := r.Layout.RenderComment(c.Body, layout.DefaultIndent, r.commentLines())
		if err != nil {
			return nil, fmt.Errorf("render comment: %w", err)
		}
		lines = append(lines, body...)
		lines = append(lines, "")
	}
	return lines, nil
}

func (r *Renderer) commentLines() int {
	if r.CommentLines <= 0 {
		return layout.DefaultCommentLines
	}
	return r.CommentLines
}

// TitleWidth is the width of the title column for the current terminal.
func (r *Renderer) TitleWidth() int {
	if w := r.columns() - listFixedWidth; w > minTitleWidth {
		return w
	}
	return minTitleWidth
}

// List renders a ticket table. The ticket whose ID is current is marked
// with '*'. Row numbers are the positions later commands accept as refs.
func (r *Renderer) List(tickets []models.Ticket, current string) ([]string, error) {
	tw := r.TitleWidth()
	j := r.Layout.MustJustify

	header := strings.Join([]string{
		" ",
		j("#", 4, layout.Right),
		j("TicId", 6, layout.Left),
		j("Title", tw, layout.Left),
		j("State", 5, layout.Left),
		j("Date", 5, layout.Left),
		j("Assgn", 8, layout.Left),
		j("Tags", 20, layout.Left),
	}, " ")

	lines := []string{
		"",
		r.Styles.Header(strings.TrimRight(header, " ")),
		strings.Repeat("-", r.columns()),
	}

	for i, t := range tickets {
		title, err := r.Layout.Justify(t.Title, tw, layout.Left)
		if err != nil {
			return nil, fmt.Errorf("render title: %w", err)
		}
		mark := " "
		if t.ID == current {
			mark = r.Styles.Current("*")
		}
		id := t.ID
		if len(id) > 6 {
			id = id[:6]
		}
		row := strings.Join([]string{
			mark,
			j(strconv.Itoa(i+1), 4, layout.Right),
			j(id, 6, layout.Left),
			title,
			r.Styles.State(t.State, j(string(t.State), 5, layout.Left)),
			t.Opened.In(r.loc()).Format(dateFormat),
			j(t.Assigned, 8, layout.Left),
			j(strings.Join(t.Tags, ","), 20, layout.Left),
		}, " ")
		lines = append(lines, strings.TrimRight(row, " "))
	}
	lines = append(lines, "")
	return lines, nil
}

// Recent renders journal entries, one per line.
func (r *Renderer) Recent(entries []models.JournalEntry) ([]string, error) {
	if len(entries) == 0 {
		return []string{"No recent activity"}, nil
	}

	// date(11) action(8) id(8) and three separators
	dw := r.columns() - 30
	if dw < minTitleWidth {
		dw = minTitleWidth
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		action, err := r.Layout.Justify(e.Action, 8, layout.Left)
		if err != nil {
			return nil, err
		}
		id := e.TicketID
		if len(id) > 8 {
			id = id[:8]
		}
		id, err = r.Layout.Justify(id, 8, layout.Left)
		if err != nil {
			return nil, err
		}
		details, err := r.Layout.Justify(firstLine(e.Details), dw, layout.Left)
		if err != nil {
			return nil, err
		}
		line := strings.Join([]string{e.Timestamp.In(r.loc()).Format(commentFormat), action, id, details}, " ")
		lines = append(lines, strings.TrimRight(line, " "))
	}
	return lines, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
