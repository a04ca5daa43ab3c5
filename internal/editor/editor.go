// Package editor collects multi-line messages from the user's editor.
package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// DefaultEditor is used when neither EDITOR nor the config names one.
const DefaultEditor = "vim"

// Resolve picks the editor command line: env first, then configured, then
// DefaultEditor.
func Resolve(env, configured string) string {
	if s := strings.TrimSpace(env); s != "" {
		return s
	}
	if s := strings.TrimSpace(configured); s != "" {
		return s
	}
	return DefaultEditor
}

// Editor launches an external editor on a temporary file. When stdin is not
// a terminal the message is read from stdin instead.
type Editor struct {
	Command     string
	Interactive bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logger zerolog.Logger
}

// New returns an Editor wired to the process's standard streams.
func New(configured string) *Editor {
	return &Editor{
		Command:     Resolve(os.Getenv("EDITOR"), configured),
		Interactive: term.IsTerminal(int(os.Stdin.Fd())),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		logger:      zerolog.Nop(),
	}
}

// SetLogger sets the logger used to report editor launches.
func (e *Editor) SetLogger(l zerolog.Logger) { e.logger = l }

// Message asks the user for a message, seeding the editor with template.
// Lines starting with '#' are dropped. ok is false when nothing remains.
func (e *Editor) Message(ctx context.Context, template string) (msg string, ok bool, err error) {
	var raw []byte
	if e.Interactive {
		raw, err = e.edit(ctx, template)
	} else {
		raw, err = io.ReadAll(e.Stdin)
		if err != nil {
			err = fmt.Errorf("read stdin: %w", err)
		}
	}
	if err != nil {
		return "", false, err
	}
	msg = Filter(string(raw))
	return msg, msg != "", nil
}

func (e *Editor) edit(ctx context.Context, template string) ([]byte, error) {
	argv, err := shellquote.Split(e.Command)
	if err != nil {
		return nil, fmt.Errorf("parse editor command %q: %w", e.Command, err)
	}
	if len(argv) == 0 {
		argv = []string{DefaultEditor}
	}

	f, err := os.CreateTemp("", "ticgit-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create message file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(template); err != nil {
		f.Close()
		return nil, fmt.Errorf("write message file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write message file: %w", err)
	}

	e.logger.Debug().Strs("argv", argv).Str("file", path).Msg("launching editor")

	cmd := exec.CommandContext(ctx, argv[0], append(argv[1:], path)...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("editor %s exited with status %d", argv[0], exitErr.ExitCode())
		}
		return nil, fmt.Errorf("exec editor: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message file: %w", err)
	}
	return data, nil
}

// Filter removes comment lines and surrounding blank space.
func Filter(raw string) string {
	var b bytes.Buffer
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String())
}

// SplitTitle returns the first line of msg as a title and the rest as a body.
func SplitTitle(msg string) (title, body string) {
	title, body, _ = strings.Cut(msg, "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}
