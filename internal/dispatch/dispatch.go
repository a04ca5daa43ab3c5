// Package dispatch resolves an action token to a registered command,
// parses the action's flags and runs it.
//
// A Descriptor bundles an optional flag-set builder with an optional
// behavior. Dispatch attaches the resolved descriptor to the Context by
// reference; nothing about the Context's type changes at run time.
package dispatch

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Descriptor is a registered action.
type Descriptor struct {
	// Name is the action token as typed by the user.
	Name string

	// Summary is shown in the global action listing.
	Summary string

	// Usage is the argument synopsis after the action name, e.g. "[REF] STATE".
	Usage string

	// Parser builds the action's flag set, binding flags to opts. Nil
	// means the action takes no flags.
	Parser func(opts *Options) *pflag.FlagSet

	// Execute runs the action. Nil makes the action a parse-only no-op.
	Execute func(c *Context) error
}

// Registry maps action names to descriptors. It is filled at process start
// and read-only afterwards.
type Registry struct {
	program  string
	commands map[string]*Descriptor
}

// NewRegistry returns an empty registry for program.
func NewRegistry(program string) *Registry {
	return &Registry{program: program, commands: make(map[string]*Descriptor)}
}

// Register adds d. It panics on an empty or duplicate name.
func (r *Registry) Register(d *Descriptor) {
	if d == nil || d.Name == "" {
		panic("dispatch: register of unnamed command")
	}
	if _, dup := r.commands[d.Name]; dup {
		panic("dispatch: duplicate command " + d.Name)
	}
	r.commands[d.Name] = d
}

// Resolve looks action up by exact, case-sensitive name.
func (r *Registry) Resolve(action string) (*Descriptor, bool) {
	d, ok := r.commands[action]
	return d, ok
}

// Commands returns the registered descriptors sorted by name.
func (r *Registry) Commands() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BuildParser returns the flag set for d bound to opts. Parse errors are
// returned, never printed or fatal.
func BuildParser(d *Descriptor, opts *Options) *pflag.FlagSet {
	var fs *pflag.FlagSet
	if d.Parser != nil {
		fs = d.Parser(opts)
	}
	if fs == nil {
		fs = pflag.NewFlagSet(d.Name, pflag.ContinueOnError)
	}
	fs.Init(d.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// Main is the outermost entry point: it requires an action token, shifts
// it off c.Args and dispatches.
func (r *Registry) Main(c *Context) error {
	if len(c.Args) == 0 {
		fmt.Fprintln(c.Err, "Please specify at least one action to execute.")
		c.Puts("", r.Usage(c, nil))
		return &ExitError{Code: 1}
	}
	c.Action, c.Args = c.Args[0], c.Args[1:]
	c.shifted = true
	return r.Dispatch(c)
}

// Dispatch resolves c.Action, parses c.Args with the action's parser and
// runs the action.
func (r *Registry) Dispatch(c *Context) error {
	d, ok := r.Resolve(c.Action)
	if !ok {
		c.Puts(r.Usage(c, c.tokens()))
		if !c.shifted && c.Action == "" && len(c.Args) == 0 {
			return &UnknownActionError{Missing: true}
		}
		c.Printf("%q is not a command", c.Action)
		return &UnknownActionError{Action: c.Action}
	}

	c.command = d
	fs := BuildParser(d, c.Options)
	if err := fs.Parse(c.Args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			c.Puts(r.Usage(c, nil))
			return nil
		}
		return &UsageError{Program: r.program, Action: d.Name, Err: err}
	}
	c.Args = fs.Args()

	if d.Execute == nil {
		return nil
	}
	c.Logger.Debug().Str("action", d.Name).Strs("args", c.Args).Msg("dispatch")
	return d.Execute(c)
}

func (c *Context) tokens() []string {
	if c.Action == "" && !c.shifted {
		return c.Args
	}
	return append([]string{c.Action}, c.Args...)
}

// Usage returns help text. When a command is attached to c its own help is
// shown; otherwise the help of the command named by tokens[0], falling
// back to the global action listing.
func (r *Registry) Usage(c *Context, tokens []string) string {
	if c != nil && c.command != nil {
		return r.commandHelp(c.command)
	}
	if len(tokens) > 0 {
		if d, ok := r.Resolve(tokens[0]); ok {
			return r.commandHelp(d)
		}
	}
	return r.globalUsage()
}

func (r *Registry) globalUsage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s [global flags] <action> [action flags] [args]\n", r.program)
	if len(r.commands) > 0 {
		b.WriteString("\nActions:\n")
		tw := tabwriter.NewWriter(&b, 2, 0, 3, ' ', 0)
		for _, d := range r.Commands() {
			fmt.Fprintf(tw, "  %s\t%s\n", d.Name, d.Summary)
		}
		tw.Flush()
	}
	fmt.Fprintf(&b, "\nRun '%s <action> --help' for action flags.", r.program)
	return b.String()
}

func (r *Registry) commandHelp(d *Descriptor) string {
	var b strings.Builder
	if d.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", d.Summary)
	}
	usage := strings.TrimSpace(fmt.Sprintf("%s %s [flags] %s", r.program, d.Name, d.Usage))
	fmt.Fprintf(&b, "Usage:\n  %s", usage)

	if d.Parser != nil {
		// Fresh options: binding resets values to their defaults.
		fs := BuildParser(d, NewOptions())
		var flagHelp strings.Builder
		fs.SetOutput(&flagHelp)
		fs.PrintDefaults()
		if flagHelp.Len() > 0 {
			fmt.Fprintf(&b, "\n\nFlags:\n%s", strings.TrimRight(flagHelp.String(), "\n"))
		}
	}
	return b.String()
}
