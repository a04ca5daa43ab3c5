package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/fentz26/ticgit/internal/dispatch"
)

func registerActions(r *dispatch.Registry) {
	for _, d := range []*dispatch.Descriptor{
		listAction,
		showAction,
		recentAction,
		browseAction,
		newAction,
		checkoutAction,
		commentAction,
		stateAction,
		assignAction,
		tagAction,
		pointsAction,
	} {
		r.Register(d)
	}
}

func flagSet(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func usageError(c *dispatch.Context, format string, args ...any) error {
	return &dispatch.UsageError{Program: program, Action: c.Action, Err: fmt.Errorf(format, args...)}
}

// argsBetween rejects a positional residue outside [min, max].
func argsBetween(c *dispatch.Context, min, max int) error {
	switch n := len(c.Args); {
	case n < min:
		return usageError(c, "%s: expected at least %d argument(s), got %d", c.Action, min, n)
	case n > max:
		return usageError(c, "%s: unexpected argument %q", c.Action, c.Args[max])
	}
	return nil
}

// refAndValue splits "[REF] VALUE": one argument is the value for the
// current ticket, two are a ref and a value.
func refAndValue(c *dispatch.Context) (ref, value string, err error) {
	if err := argsBetween(c, 1, 2); err != nil {
		return "", "", err
	}
	if len(c.Args) == 2 {
		return c.Args[0], c.Args[1], nil
	}
	return "", c.Args[0], nil
}

// optionalRef returns the single optional REF argument.
func optionalRef(c *dispatch.Context) (string, error) {
	if err := argsBetween(c, 0, 1); err != nil {
		return "", err
	}
	if len(c.Args) == 1 {
		return c.Args[0], nil
	}
	return "", nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
