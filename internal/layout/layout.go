// Package layout formats ticket text for fixed-width terminal output.
//
// Widths are measured in display units. By default every grapheme cluster
// counts as one unit, so a multi-byte character is never split and never
// counts double. The Cells measure counts terminal cells instead, giving
// East Asian wide glyphs a width of two.
package layout

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

const (
	// Ellipsis marks a truncated value.
	Ellipsis = "…"

	// MoreMarker replaces the tail of a comment that exceeds its line cap.
	MoreMarker = "** more... **"

	DefaultWrapWidth    = 80
	DefaultCommentLines = 6
	DefaultIndent       = "\t"
)

// Side selects which edge a justified value is aligned to.
type Side int

const (
	Left Side = iota
	Right
)

// LayoutError reports an invalid width or line count passed to a layout
// function. It indicates a bug at the call site, not bad user input.
type LayoutError struct {
	Op    string
	Param string
	Value int
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout: %s: invalid %s %d", e.Op, e.Param, e.Value)
}

// Measure returns the display width of a single grapheme cluster.
type Measure func(cluster string) int

var narrow = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

var (
	// Graphemes counts one unit per grapheme cluster.
	Graphemes Measure = func(string) int { return 1 }

	// Cells counts terminal cells. Ambiguous-width runes (including the
	// ellipsis) are treated as narrow.
	Cells Measure = func(cluster string) int { return narrow.StringWidth(cluster) }
)

// Layout holds the measuring policy and the comment wrap width.
// The zero value measures graphemes and wraps comments at DefaultWrapWidth.
type Layout struct {
	Measure   Measure
	WrapWidth int
}

// Default is the grapheme-measuring layout used when nothing is configured.
var Default = New()

// New returns a Layout measuring grapheme clusters.
func New() Layout {
	return Layout{Measure: Graphemes, WrapWidth: DefaultWrapWidth}
}

func (l Layout) measure() Measure {
	if l.Measure == nil {
		return Graphemes
	}
	return l.Measure
}

func (l Layout) wrapWidth() int {
	if l.WrapWidth <= 0 {
		return DefaultWrapWidth
	}
	return l.WrapWidth
}

// Width returns the display width of s.
func (l Layout) Width(s string) int {
	m := l.measure()
	width, state := 0, -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		width += m(cluster)
	}
	return width
}

// truncate returns the longest prefix of s, on a grapheme boundary, whose
// width does not exceed width.
func (l Layout) truncate(s string, width int) string {
	m := l.measure()
	used, end, state := 0, 0, -1
	rest := s
	for len(rest) > 0 {
		cluster, next, _, nextState := uniseg.FirstGraphemeClusterInString(rest, state)
		w := m(cluster)
		if used+w > width {
			break
		}
		used += w
		end += len(cluster)
		rest, state = next, nextState
	}
	return s[:end]
}

// SingleLine replaces every control character, newlines and tabs
// included, with a space.
func SingleLine(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

// Justify renders value into exactly width display units. A value that is
// too wide keeps its first width-1 units followed by Ellipsis; a narrower
// value is padded with spaces on the side opposite to side. Control
// characters are shown as spaces so the result stays on one line.
func (l Layout) Justify(value string, width int, side Side) (string, error) {
	if width <= 0 {
		return "", &LayoutError{Op: "justify", Param: "width", Value: width}
	}
	value = SingleLine(value)
	if l.Width(value) > width {
		value = l.truncate(value, width-1) + Ellipsis
	}
	pad := width - l.Width(value)
	if pad <= 0 {
		return value, nil
	}
	if side == Right {
		return strings.Repeat(" ", pad) + value, nil
	}
	return value + strings.Repeat(" ", pad), nil
}

// MustJustify is like Justify but panics on an invalid width. It is meant
// for call sites that pass constant widths.
func (l Layout) MustJustify(value string, width int, side Side) string {
	s, err := l.Justify(value, width, side)
	if err != nil {
		panic(err)
	}
	return s
}

// WrapParagraph splits text on its newlines and breaks every line wider than
// max at the latest whitespace that keeps the line within max units. Wrapped
// lines lose their trailing whitespace; lines that already fit are returned
// untouched. A word wider than max is never split and overflows on its own
// line. Trailing empty lines are dropped.
func (l Layout) WrapParagraph(text string, max int) ([]string, error) {
	if max <= 0 {
		return nil, &LayoutError{Op: "wrap", Param: "width", Value: max}
	}
	paragraphs := strings.Split(text, "\n")
	for len(paragraphs) > 0 && strings.TrimSuffix(paragraphs[len(paragraphs)-1], "\r") == "" {
		paragraphs = paragraphs[:len(paragraphs)-1]
	}

	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		p = strings.TrimSuffix(p, "\r")
		if l.Width(p) <= max {
			lines = append(lines, p)
			continue
		}
		lines = append(lines, l.wrapLine(p, max)...)
	}
	return lines, nil
}

func (l Layout) wrapLine(line string, max int) []string {
	var out []string
	rest := line
	for rest != "" {
		if l.Width(rest) <= max {
			out = append(out, strings.TrimRightFunc(rest, unicode.IsSpace))
			break
		}
		cut := l.breakPoint(rest, max)
		out = append(out, strings.TrimRightFunc(rest[:cut], unicode.IsSpace))
		rest = strings.TrimLeftFunc(rest[cut:], unicode.IsSpace)
	}
	return out
}

// breakPoint returns the byte offset of the last whitespace boundary in s
// whose preceding text fits in max units. When the first word alone is too
// wide it returns the offset just past that word.
func (l Layout) breakPoint(s string, max int) int {
	m := l.measure()
	used, offset, state := 0, 0, -1
	best := -1
	seenWord := false
	rest := s
	for len(rest) > 0 {
		cluster, next, _, nextState := uniseg.FirstGraphemeClusterInString(rest, state)
		if isSpace(cluster) {
			if seenWord {
				if used > max {
					if best < 0 {
						return offset
					}
					return best
				}
				best = offset
			}
		} else {
			seenWord = true
		}
		used += m(cluster)
		offset += len(cluster)
		rest, state = next, nextState
	}
	if best >= 0 {
		return best
	}
	return len(s)
}

func isSpace(cluster string) bool {
	return strings.TrimFunc(cluster, unicode.IsSpace) == ""
}

// RenderComment wraps body at the layout's wrap width and prefixes every
// line with indent. When more than maxLines lines result, only the first
// maxLines are kept and an indented MoreMarker line is appended.
func (l Layout) RenderComment(body, indent string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, &LayoutError{Op: "comment", Param: "line count", Value: maxLines}
	}
	wrapped, err := l.WrapParagraph(body, l.wrapWidth())
	if err != nil {
		return nil, err
	}

	n := len(wrapped)
	if n > maxLines {
		n = maxLines + 1
	}
	lines := make([]string, 0, n)
	for i, line := range wrapped {
		if i == maxLines {
			lines = append(lines, indent+MoreMarker)
			break
		}
		lines = append(lines, indent+line)
	}
	return lines, nil
}
