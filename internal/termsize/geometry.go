// Package termsize tracks the size of the controlling terminal.
//
// A Geometry holds the current (lines, columns) pair. Refresh asks a chain
// of platform probes for the size and keeps the first answer; when every
// probe fails the pair falls back to 25×80. On unix, Watch re-runs Refresh
// whenever the terminal is resized.
package termsize

import (
	"context"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

const (
	FallbackLines   = 25
	FallbackColumns = 80
)

// ErrUnsupported is returned by probes that cannot run on this platform or
// against this file.
var ErrUnsupported = errors.New("termsize: probe not supported")

// Probe is one strategy for querying the terminal size.
type Probe struct {
	Name  string
	Query func() (lines, columns int, err error)
}

// Geometry is the shared terminal size. All reads go through Size, Lines
// or Columns; both fields are always written together.
type Geometry struct {
	refreshMu sync.Mutex

	mu      sync.RWMutex
	lines   int
	columns int

	probes []Probe
	logger zerolog.Logger
}

// New returns a Geometry that queries probes in order. It starts at the
// fallback size until Refresh is called.
func New(probes ...Probe) *Geometry {
	return &Geometry{
		lines:   FallbackLines,
		columns: FallbackColumns,
		probes:  probes,
		logger:  zerolog.Nop(),
	}
}

var (
	defaultOnce     sync.Once
	defaultGeometry *Geometry
)

// Default returns the process-wide Geometry, probing standard output.
func Default() *Geometry {
	defaultOnce.Do(func() {
		defaultGeometry = New(PlatformProbes(os.Stdout)...)
	})
	return defaultGeometry
}

// SetLogger sets the logger used to report probe failures and size changes.
func (g *Geometry) SetLogger(l zerolog.Logger) {
	g.refreshMu.Lock()
	g.logger = l
	g.refreshMu.Unlock()
}

// Refresh re-queries the terminal size. The first probe reporting two
// positive dimensions wins; if none does the size becomes 25×80.
// Concurrent calls are serialized.
func (g *Geometry) Refresh() {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	lines, columns, source := FallbackLines, FallbackColumns, "fallback"
	for _, p := range g.probes {
		l, c, err := p.Query()
		if err != nil {
			g.logger.Debug().Str("probe", p.Name).Err(err).Msg("terminal size probe failed")
			continue
		}
		if l <= 0 || c <= 0 {
			g.logger.Debug().Str("probe", p.Name).Int("lines", l).Int("columns", c).Msg("terminal size probe returned empty size")
			continue
		}
		lines, columns, source = l, c, p.Name
		break
	}

	g.mu.Lock()
	changed := g.lines != lines || g.columns != columns
	g.lines, g.columns = lines, columns
	g.mu.Unlock()

	if changed {
		g.logger.Debug().Str("source", source).Int("lines", lines).Int("columns", columns).Msg("terminal size changed")
	}
}

// Size returns the current lines and columns.
func (g *Geometry) Size() (lines, columns int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lines, g.columns
}

// Lines returns the current number of terminal rows.
func (g *Geometry) Lines() int {
	l, _ := g.Size()
	return l
}

// Columns returns the current number of terminal columns.
func (g *Geometry) Columns() int {
	_, c := g.Size()
	return c
}

// watch calls Refresh once per notification until ctx is done.
func (g *Geometry) watch(ctx context.Context, notify <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			g.Refresh()
		}
	}
}

// startWatch runs watch in a goroutine and returns a function that stops it
// and waits for it to exit. release is called once on stop.
func (g *Geometry) startWatch(ctx context.Context, notify <-chan os.Signal, release func()) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.watch(ctx, notify)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			release()
			cancel()
			<-done
		})
	}
}
