package dispatch

import (
	"errors"
	"fmt"
	"io"
)

// ExitCoder is implemented by errors that carry a process exit status.
type ExitCoder interface {
	ExitCode() int
}

// UnknownActionError reports an action token with no registered command.
// Usage has already been printed when it is returned.
// Missing is set when no action token was given and no arguments follow;
// an empty token is not missing.
type UnknownActionError struct {
	Action  string
	Missing bool
}

func (e *UnknownActionError) Error() string {
	if e.Missing {
		return "no action given"
	}
	return fmt.Sprintf("%q is not a command", e.Action)
}

// ExitCode is 0 when the process was started with no arguments at all.
func (e *UnknownActionError) ExitCode() int {
	if e.Missing {
		return 0
	}
	return 1
}

func (e *UnknownActionError) reported() bool { return true }

// UsageError reports flags rejected by an action's parser.
type UsageError struct {
	Program string
	Action  string
	Err     error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s\n\nRun '%s %s --help' for usage.", e.Err, e.Program, e.Action)
}

func (e *UsageError) Unwrap() error { return e.Err }

func (e *UsageError) ExitCode() int { return 1 }

// ExitError ends the process with Code. A nil Err means the condition has
// already been reported to the user.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func (e *ExitError) ExitCode() int { return e.Code }

func (e *ExitError) reported() bool { return e.Err == nil }

// ExitStatus maps an error returned from Main to a process exit status,
// writing it to w unless it was already shown to the user.
func ExitStatus(err error, w io.Writer) int {
	if err == nil {
		return 0
	}

	var r interface{ reported() bool }
	if !(errors.As(err, &r) && r.reported()) {
		var usage *UsageError
		if errors.As(err, &usage) {
			fmt.Fprintln(w, usage.Error())
		} else {
			fmt.Fprintf(w, "error: %v\n", err)
		}
	}

	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}
