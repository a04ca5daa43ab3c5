package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fentz26/ticgit/internal/audit"
	"github.com/fentz26/ticgit/internal/config"
	"github.com/fentz26/ticgit/internal/dispatch"
	"github.com/fentz26/ticgit/internal/editor"
	"github.com/fentz26/ticgit/internal/layout"
	"github.com/fentz26/ticgit/internal/logging"
	"github.com/fentz26/ticgit/internal/render"
	"github.com/fentz26/ticgit/internal/service"
	"github.com/fentz26/ticgit/internal/store"
	"github.com/fentz26/ticgit/internal/termsize"
)

const program = "ti"

// app holds the process streams, the global flags and the action registry.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	repo       string
	configPath string
	logLevel   string
	color      string

	registry *dispatch.Registry
	geometry *termsize.Geometry
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	a := &app{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		registry: dispatch.NewRegistry(program),
		geometry: termsize.Default(),
	}
	registerActions(a.registry)
	return a
}

// command builds the root command. Flag parsing stops at the first
// positional so the action and everything after it reach the dispatcher.
func (a *app) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:           program + " [flags] <action> [action flags] [args]",
		Short:         "ti - a ticket tracker that lives in your git repository",
		Long:          `ti keeps tickets, comments and tags in a SQLite database inside the enclosing git repository.`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.run,
	}
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	cmd.SetVersionTemplate(fmt.Sprintf("ti version %s\n  OS/Arch: %s/%s\n  Go version: %s\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version()))

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVar(&a.repo, "repo", ".", "path inside the repository")
	flags.StringVar(&a.configPath, "config", "", "config file (default <repo>/.ticgit.yaml, then ~/.config/ticgit/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")
	flags.StringVar(&a.color, "color", "", "colorize output: auto, always or never")
	return cmd
}

func (a *app) run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	geo := a.geometry
	geo.Refresh()
	stopWatch := geo.Watch(ctx)
	defer stopWatch()

	root, _, err := store.Locate(a.repo)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(a.stdout, "No repo found")
		return nil
	}
	if err != nil {
		return err
	}

	cfg, err := config.Resolve(a.configPath, root)
	if err != nil {
		return err
	}
	logger := logging.New(logging.ProfileRuntime, a.stderr, cfg.Log.Level, a.logLevel)
	logger.Debug().Str("source", cfg.Source).Str("user", cfg.User).Msg("config loaded")
	geo.SetLogger(logger)

	mode, err := a.colorMode(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(root, store.Options{Dir: cfg.Store.Dir})
	if errors.Is(err, store.ErrNotFound) {
		fmt.Fprintln(a.stdout, "No repo found")
		return nil
	}
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Debug().Str("path", st.Path()).Msg("store opened")

	svc := service.New(st, audit.NewJournal(st), cfg.User)
	svc.SetLogger(logger)

	lay := layout.New()
	if cfg.Display.WideCells {
		lay.Measure = layout.Cells
	}
	if cfg.Display.CommentWidth > 0 {
		lay.WrapWidth = cfg.Display.CommentWidth
	}

	r := render.New(lay, geo, render.NewStyles(a.stdout, mode))
	if cfg.Display.CommentLines > 0 {
		r.CommentLines = cfg.Display.CommentLines
	}

	ed := editor.New(cfg.Editor)
	ed.Stdin, ed.Stdout, ed.Stderr = a.stdin, a.stdout, a.stderr
	ed.Interactive = isTerminal(a.stdin)
	ed.SetLogger(logger)

	c := dispatch.NewContext(ctx, args)
	c.Out = a.stdout
	c.Err = a.stderr
	c.Tickets = svc
	c.Geometry = geo
	c.Layout = lay
	c.Render = r
	c.Editor = ed
	c.Logger = logger
	return a.registry.Main(c)
}

// colorMode picks --color over the config. Auto falls back to never when
// stdout is not a terminal.
func (a *app) colorMode(cfg *config.Config) (render.ColorMode, error) {
	raw := a.color
	if raw == "" {
		raw = cfg.Display.Color
	}
	mode, err := render.ParseColorMode(raw)
	if err != nil {
		return "", err
	}
	if mode == render.ColorAuto && !isTerminal(a.stdout) {
		mode = render.ColorNever
	}
	return mode, nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
