package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/spf13/pflag"

	"github.com/fentz26/ticgit/internal/dispatch"
)

type recorder struct {
	calls int
	args  [][]string
	state string
	all   bool
}

func newRegistry(rec *recorder) *dispatch.Registry {
	r := dispatch.NewRegistry("ti")
	r.Register(&dispatch.Descriptor{
		Name:    "list",
		Summary: "List tickets",
		Execute: func(c *dispatch.Context) error {
			rec.calls++
			rec.args = append(rec.args, c.Args)
			return nil
		},
	})
	r.Register(&dispatch.Descriptor{
		Name:    "filter",
		Summary: "List tickets with filters",
		Usage:   "[PATTERN]",
		Parser: func(o *dispatch.Options) *pflag.FlagSet {
			fs := pflag.NewFlagSet("filter", pflag.ExitOnError)
			fs.StringVarP(o.StringVar("state"), "state", "s", "open", "only tickets in `STATE`")
			fs.BoolVar(o.BoolVar("all"), "all", false, "include closed tickets")
			return fs
		},
		Execute: func(c *dispatch.Context) error {
			rec.calls++
			rec.args = append(rec.args, c.Args)
			rec.state = c.Options.String("state")
			rec.all = c.Options.Bool("all")
			return nil
		},
	})
	r.Register(&dispatch.Descriptor{Name: "noop", Summary: "Parse only"})
	return r
}

func newContext(args ...string) (*dispatch.Context, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	c := dispatch.NewContext(context.Background(), args)
	c.Out = &out
	c.Err = &errOut
	return c, &out, &errOut
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestResolve_ExactMatch(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	d, ok := r.Resolve("list")
	c.Assert(ok, qt.IsTrue)
	c.Assert(d.Name, qt.Equals, "list")

	for _, token := range []string{"List", "lis", "list ", ""} {
		_, ok := r.Resolve(token)
		c.Assert(ok, qt.IsFalse, qt.Commentf("token %q", token))
	}
}

func TestRegister_Panics(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	c.Assert(func() { r.Register(&dispatch.Descriptor{Name: "list"}) }, qt.PanicMatches, `dispatch: duplicate command list`)
	c.Assert(func() { r.Register(&dispatch.Descriptor{}) }, qt.PanicMatches, `dispatch: register of unnamed command`)
}

func TestCommands_Sorted(t *testing.T) {
	c := qt.New(t)
	var names []string
	for _, d := range newRegistry(&recorder{}).Commands() {
		names = append(names, d.Name)
	}
	c.Assert(names, qt.DeepEquals, []string{"filter", "list", "noop"})
}

// ----------------------------------------------------------------------------
// Main / Dispatch
// ----------------------------------------------------------------------------

func TestMain_RunsActionOnceWithEmptyResidue(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, _, _ := newContext("list")
	err := r.Main(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(rec.calls, qt.Equals, 1)
	c.Assert(rec.args, qt.HasLen, 1)
	c.Assert(rec.args[0], qt.HasLen, 0)
	c.Assert(ctx.Action, qt.Equals, "list")
	c.Assert(ctx.Command().Name, qt.Equals, "list")
}

func TestMain_NoArguments(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, out, errOut := newContext()
	err := r.Main(ctx)

	var exit *dispatch.ExitError
	c.Assert(errors.As(err, &exit), qt.IsTrue)
	c.Assert(exit.ExitCode(), qt.Equals, 1)
	c.Assert(errOut.String(), qt.Equals, "Please specify at least one action to execute.\n")
	c.Assert(out.String(), qt.Matches, `(?s)\nUsage: ti .*`)
	c.Assert(rec.calls, qt.Equals, 0)

	var status bytes.Buffer
	c.Assert(dispatch.ExitStatus(err, &status), qt.Equals, 1)
	c.Assert(status.String(), qt.Equals, "")
}

func TestDispatch_UnknownActionWithArgs(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	ctx, out, _ := newContext("frobnicate", "--fast")
	err := r.Main(ctx)

	var unknown *dispatch.UnknownActionError
	c.Assert(errors.As(err, &unknown), qt.IsTrue)
	c.Assert(unknown.ExitCode(), qt.Equals, 1)
	c.Assert(out.String(), qt.Contains, "Usage: ti ")
	c.Assert(strings.HasSuffix(out.String(), "\"frobnicate\" is not a command\n"), qt.IsTrue, qt.Commentf("output: %q", out.String()))

	var status bytes.Buffer
	c.Assert(dispatch.ExitStatus(err, &status), qt.Equals, 1)
	c.Assert(status.String(), qt.Equals, "")
}

func TestDispatch_UnknownActionAlone(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	ctx, out, _ := newContext("frobnicate")
	err := r.Main(ctx)
	c.Assert(dispatch.ExitStatus(err, &bytes.Buffer{}), qt.Equals, 1)
	c.Assert(out.String(), qt.Contains, `"frobnicate" is not a command`)
}

func TestMain_EmptyActionToken(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, out, _ := newContext("")
	err := r.Main(ctx)

	var unknown *dispatch.UnknownActionError
	c.Assert(errors.As(err, &unknown), qt.IsTrue)
	c.Assert(unknown.Missing, qt.IsFalse)
	c.Assert(unknown.ExitCode(), qt.Equals, 1)
	c.Assert(out.String(), qt.Contains, "Usage: ti ")
	c.Assert(strings.HasSuffix(out.String(), "\"\" is not a command\n"), qt.IsTrue, qt.Commentf("output: %q", out.String()))
	c.Assert(dispatch.ExitStatus(err, &bytes.Buffer{}), qt.Equals, 1)
	c.Assert(rec.calls, qt.Equals, 0)
}

func TestDispatch_NoActionNoArgs(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	ctx, out, _ := newContext()
	err := r.Dispatch(ctx)

	var unknown *dispatch.UnknownActionError
	c.Assert(errors.As(err, &unknown), qt.IsTrue)
	c.Assert(unknown.ExitCode(), qt.Equals, 0)
	c.Assert(out.String(), qt.Contains, "Usage: ti ")
	c.Assert(out.String(), qt.Not(qt.Contains), "is not a command")
	c.Assert(dispatch.ExitStatus(err, &bytes.Buffer{}), qt.Equals, 0)
}

func TestDispatch_ParsesIntoOptions(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, _, _ := newContext("filter", "-s", "hold", "--all", "crash")
	c.Assert(r.Main(ctx), qt.IsNil)
	c.Assert(rec.state, qt.Equals, "hold")
	c.Assert(rec.all, qt.IsTrue)
	c.Assert(rec.args, qt.DeepEquals, [][]string{{"crash"}})
}

func TestDispatch_ParserDefaults(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, _, _ := newContext("filter")
	c.Assert(r.Main(ctx), qt.IsNil)
	c.Assert(rec.state, qt.Equals, "open")
	c.Assert(rec.all, qt.IsFalse)
}

func TestDispatch_UsageError(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	// ExitOnError in the builder must not terminate the test binary.
	ctx, _, _ := newContext("filter", "--bogus")
	err := r.Main(ctx)

	var usage *dispatch.UsageError
	c.Assert(errors.As(err, &usage), qt.IsTrue)
	c.Assert(usage.Action, qt.Equals, "filter")
	c.Assert(err, qt.ErrorMatches, `(?s)unknown flag: --bogus\n\nRun 'ti filter --help' for usage\.`)
	c.Assert(rec.calls, qt.Equals, 0)

	var status bytes.Buffer
	c.Assert(dispatch.ExitStatus(err, &status), qt.Equals, 1)
	c.Assert(status.String(), qt.Contains, "Run 'ti filter --help' for usage.")
}

func TestDispatch_NoParserRejectsFlags(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, _, _ := newContext("list", "--state", "open")
	err := r.Main(ctx)
	c.Assert(err, qt.ErrorMatches, `(?s)unknown flag: --state.*`)
	c.Assert(rec.calls, qt.Equals, 0)
}

func TestDispatch_Help(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	r := newRegistry(rec)

	ctx, out, _ := newContext("filter", "--help")
	c.Assert(r.Main(ctx), qt.IsNil)
	c.Assert(rec.calls, qt.Equals, 0)
	c.Assert(out.String(), qt.Contains, "Usage:\n  ti filter [flags] [PATTERN]")
	c.Assert(out.String(), qt.Contains, "--state STATE")
	c.Assert(out.String(), qt.Contains, "--all")
}

func TestDispatch_NoExecuteIsNoop(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	ctx, out, _ := newContext("noop", "x", "y")
	c.Assert(r.Main(ctx), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "")
	c.Assert(ctx.Args, qt.DeepEquals, []string{"x", "y"})
}

func TestDispatch_ExecuteError(t *testing.T) {
	c := qt.New(t)
	r := dispatch.NewRegistry("ti")
	r.Register(&dispatch.Descriptor{
		Name:    "fail",
		Execute: func(*dispatch.Context) error { return errors.New("boom") },
	})

	ctx, _, _ := newContext("fail")
	err := r.Main(ctx)

	var status bytes.Buffer
	c.Assert(dispatch.ExitStatus(err, &status), qt.Equals, 1)
	c.Assert(status.String(), qt.Equals, "error: boom\n")
}

// ----------------------------------------------------------------------------
// Usage
// ----------------------------------------------------------------------------

func TestUsage(t *testing.T) {
	c := qt.New(t)
	r := newRegistry(&recorder{})

	global := r.Usage(nil, nil)
	c.Assert(global, qt.Contains, "Usage: ti [global flags] <action> [action flags] [args]")
	c.Assert(global, qt.Matches, `(?s).*\n  filter +List tickets with filters\n  list +List tickets\n  noop +Parse only\n.*`)

	c.Assert(r.Usage(nil, []string{"unknown"}), qt.Equals, global)

	byToken := r.Usage(nil, []string{"filter", "x"})
	c.Assert(strings.HasPrefix(byToken, "List tickets with filters\n\nUsage:\n  ti filter [flags] [PATTERN]"), qt.IsTrue, qt.Commentf("usage: %q", byToken))

	// An attached command wins over tokens.
	ctx, _, _ := newContext("list")
	c.Assert(r.Main(ctx), qt.IsNil)
	c.Assert(r.Usage(ctx, []string{"filter"}), qt.Equals, "List tickets\n\nUsage:\n  ti list [flags]")
}

// ----------------------------------------------------------------------------
// Context / Options
// ----------------------------------------------------------------------------

type flushCounter struct {
	strings.Builder
	flushes int
}

func (f *flushCounter) Flush() error {
	f.flushes++
	return nil
}

func TestPuts_FlushesEveryLine(t *testing.T) {
	c := qt.New(t)

	ctx := dispatch.NewContext(context.Background(), nil)
	sink := &flushCounter{}
	ctx.Out = sink

	ctx.Puts("one", "two")
	ctx.Printf("%d", 3)
	c.Assert(sink.String(), qt.Equals, "one\ntwo\n3\n")
	c.Assert(sink.flushes, qt.Equals, 3)
}

func TestOptions(t *testing.T) {
	c := qt.New(t)

	o := dispatch.NewOptions()
	c.Assert(o.String("missing"), qt.Equals, "")
	c.Assert(o.Bool("missing"), qt.IsFalse)
	c.Assert(o.Int("missing"), qt.Equals, 0)
	c.Assert(o.Strings("missing"), qt.IsNil)
	c.Assert(o.Has("missing"), qt.IsFalse)

	*o.IntVar("limit") = 7
	*o.StringsVar("tags") = []string{"a", "b"}
	c.Assert(o.Int("limit"), qt.Equals, 7)
	c.Assert(o.Strings("tags"), qt.DeepEquals, []string{"a", "b"})
	c.Assert(o.IntVar("limit"), qt.Equals, o.IntVar("limit"))
	c.Assert(o.Has("limit"), qt.IsTrue)

	// A key read with the wrong type yields the zero value.
	c.Assert(o.String("limit"), qt.Equals, "")

	var nilOpts *dispatch.Options
	c.Assert(nilOpts.String("x"), qt.Equals, "")
}
