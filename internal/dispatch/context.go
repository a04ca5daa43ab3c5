package dispatch

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/fentz26/ticgit/internal/layout"
	"github.com/fentz26/ticgit/internal/render"
	"github.com/fentz26/ticgit/internal/service"
	"github.com/fentz26/ticgit/internal/termsize"
)

// MessageSource collects a multi-line message from the user.
// *editor.Editor satisfies it.
type MessageSource interface {
	Message(ctx context.Context, template string) (msg string, ok bool, err error)
}

// Context is the request being dispatched. It is created once per process
// invocation and owned by it.
type Context struct {
	// Args holds the arguments not yet consumed: everything after the
	// action token before parsing, the positional residue after.
	Args []string

	// Action is the action token, set once by Main.
	Action string

	Options *Options

	Out io.Writer
	Err io.Writer

	Tickets  *service.Service
	Geometry *termsize.Geometry
	Layout   layout.Layout
	Render   *render.Renderer
	Editor   MessageSource
	Logger   zerolog.Logger

	ctx     context.Context
	command *Descriptor

	// shifted is set once Main has taken the action token off Args, so an
	// empty token is told apart from a missing one.
	shifted bool
}

// NewContext returns a context over args writing to the standard streams.
func NewContext(ctx context.Context, args []string) *Context {
	return &Context{
		Args:     append([]string(nil), args...),
		Options:  NewOptions(),
		Out:      os.Stdout,
		Err:      os.Stderr,
		Geometry: termsize.Default(),
		Layout:   layout.Default,
		Logger:   zerolog.Nop(),
		ctx:      ctx,
	}
}

// Context returns the context.Context of the invocation.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Command returns the descriptor attached by Dispatch, or nil.
func (c *Context) Command() *Descriptor { return c.command }

// Puts writes each line followed by a newline and flushes the sink after
// every write when it supports flushing.
func (c *Context) Puts(lines ...string) {
	f, canFlush := c.Out.(interface{ Flush() error })
	for _, line := range lines {
		io.WriteString(c.Out, line+"\n")
		if canFlush {
			f.Flush()
		}
	}
}

// Printf formats a single line through Puts.
func (c *Context) Printf(format string, args ...any) {
	c.Puts(fmt.Sprintf(format, args...))
}
