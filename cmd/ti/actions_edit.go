package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/fentz26/ticgit/internal/dispatch"
	"github.com/fentz26/ticgit/internal/editor"
	"github.com/fentz26/ticgit/internal/service"
)

const newTemplate = `
# Enter the ticket title on the first line.
# Anything after it becomes the first comment.
# Lines starting with '#' are ignored. An empty message aborts.
`

const commentTemplate = `
# Enter your comment above.
# Lines starting with '#' are ignored. An empty message aborts.
`

var newAction = &dispatch.Descriptor{
	Name:    "new",
	Summary: "Create a ticket",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("new")
		fs.StringVarP(o.StringVar("title"), "title", "t", "", "ticket title; opens the editor when empty")
		fs.StringSliceVar(o.StringsVar("tags"), "tags", nil, "comma separated tags")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		if err := argsBetween(c, 0, 0); err != nil {
			return err
		}
		title, body := c.Options.String("title"), ""
		if strings.TrimSpace(title) == "" {
			msg, ok, err := c.Editor.Message(c.Context(), newTemplate)
			if err != nil {
				return err
			}
			if !ok {
				return service.ErrEmptyTitle
			}
			title, body = editor.SplitTitle(msg)
		}

		t, err := c.Tickets.Create(title, c.Options.Strings("tags"), body)
		if err != nil {
			return err
		}
		return show(c, t)
	},
}

var checkoutAction = &dispatch.Descriptor{
	Name:    "checkout",
	Summary: "Make a ticket the current ticket",
	Usage:   "REF",
	Execute: func(c *dispatch.Context) error {
		if err := argsBetween(c, 1, 1); err != nil {
			return err
		}
		t, err := c.Tickets.Checkout(c.Args[0])
		if err != nil {
			return err
		}
		c.Printf("Checked out %s %s", t.ShortID(), t.Title)
		return nil
	},
}

var commentAction = &dispatch.Descriptor{
	Name:    "comment",
	Summary: "Comment on a ticket",
	Usage:   "[REF]",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("comment")
		fs.StringVarP(o.StringVar("message"), "message", "m", "", "comment text")
		fs.StringVarP(o.StringVar("file"), "file", "f", "", "read the comment from `FILE`")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		ref, err := optionalRef(c)
		if err != nil {
			return err
		}
		body, err := commentBody(c)
		if err != nil {
			return err
		}
		cm, err := c.Tickets.Comment(ref, body)
		if err != nil {
			return err
		}
		t, err := c.Tickets.Ticket(cm.TicketID)
		if err != nil {
			return err
		}
		c.Printf("Comment added to %s", t.ShortID())
		return nil
	},
}

func commentBody(c *dispatch.Context) (string, error) {
	if m := c.Options.String("message"); m != "" {
		return m, nil
	}
	if path := c.Options.String("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read comment file: %w", err)
		}
		return string(data), nil
	}
	msg, ok, err := c.Editor.Message(c.Context(), commentTemplate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", service.ErrEmptyComment
	}
	return msg, nil
}

var stateAction = &dispatch.Descriptor{
	Name:    "state",
	Summary: "Change the state of a ticket",
	Usage:   "[REF] STATE",
	Execute: func(c *dispatch.Context) error {
		ref, state, err := refAndValue(c)
		if err != nil {
			return err
		}
		t, err := c.Tickets.SetState(ref, state)
		if err != nil {
			return err
		}
		c.Printf("%s is now %s", t.ShortID(), t.State)
		return nil
	},
}

var assignAction = &dispatch.Descriptor{
	Name:    "assign",
	Summary: "Assign a ticket",
	Usage:   "[REF]",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("assign")
		fs.StringVarP(o.StringVar("user"), "user", "u", "", "assignee (default: you)")
		fs.BoolVarP(o.BoolVar("checkout"), "checkout", "c", false, "also check the ticket out")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		ref, err := optionalRef(c)
		if err != nil {
			return err
		}
		t, err := c.Tickets.Assign(ref, c.Options.String("user"), c.Options.Bool("checkout"))
		if err != nil {
			return err
		}
		c.Printf("Assigned %s to %s", t.ShortID(), t.Assigned)
		return nil
	},
}

var tagAction = &dispatch.Descriptor{
	Name:    "tag",
	Summary: "Add or remove ticket tags",
	Usage:   "[REF] TAG[,TAG...]",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("tag")
		fs.BoolVarP(o.BoolVar("delete"), "delete", "d", false, "remove the tags instead")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		ref, raw, err := refAndValue(c)
		if err != nil {
			return err
		}
		tags := splitList(raw)
		if len(tags) == 0 {
			return usageError(c, "no tags given")
		}
		t, err := c.Tickets.Tag(ref, tags, c.Options.Bool("delete"))
		if err != nil {
			return err
		}
		if len(t.Tags) == 0 {
			c.Printf("%s has no tags", t.ShortID())
			return nil
		}
		c.Printf("%s tags: %s", t.ShortID(), strings.Join(t.Tags, ", "))
		return nil
	},
}

var pointsAction = &dispatch.Descriptor{
	Name:    "points",
	Summary: "Set the point estimate of a ticket",
	Usage:   "[REF] N",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("points")
		fs.BoolVar(o.BoolVar("clear"), "clear", false, "remove the estimate")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		var (
			ref    string
			points *int
		)
		if c.Options.Bool("clear") {
			r, err := optionalRef(c)
			if err != nil {
				return err
			}
			ref = r
		} else {
			r, raw, err := refAndValue(c)
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				return usageError(c, "invalid points %q", raw)
			}
			ref, points = r, &n
		}

		t, err := c.Tickets.Points(ref, points)
		if err != nil {
			return err
		}
		if t.Points == nil {
			c.Printf("%s has no estimate", t.ShortID())
			return nil
		}
		c.Printf("%s is worth %d points", t.ShortID(), *t.Points)
		return nil
	},
}
