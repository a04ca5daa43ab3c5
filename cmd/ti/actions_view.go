package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/fentz26/ticgit/internal/dispatch"
	"github.com/fentz26/ticgit/internal/models"
	"github.com/fentz26/ticgit/internal/service"
	"github.com/fentz26/ticgit/internal/store"
	"github.com/fentz26/ticgit/internal/tui"
)

var listAction = &dispatch.Descriptor{
	Name:    "list",
	Summary: "List tickets",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("list")
		fs.StringVarP(o.StringVar("state"), "state", "s", "", "only tickets in `STATE` (open, resolved, invalid, hold)")
		fs.StringVarP(o.StringVar("tag"), "tag", "t", "", "only tickets tagged `TAG`")
		fs.StringVarP(o.StringVar("assigned"), "assigned", "a", "", "only tickets assigned to `USER`")
		fs.StringVarP(o.StringVar("order"), "order", "o", "date", "sort by `FIELD` (date, title, state, assigned)")
		fs.BoolVar(o.BoolVar("all"), "all", false, "include resolved and invalid tickets")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		if err := argsBetween(c, 0, 0); err != nil {
			return err
		}
		f := store.Filter{
			Tag:           c.Options.String("tag"),
			Assigned:      c.Options.String("assigned"),
			IncludeClosed: c.Options.Bool("all"),
			Order:         c.Options.String("order"),
		}
		if _, ok := store.Orders[f.Order]; !ok {
			return usageError(c, "invalid order %q (want date, title, state or assigned)", f.Order)
		}
		if s := c.Options.String("state"); s != "" {
			st, err := models.ParseState(s)
			if err != nil {
				return fmt.Errorf("%w: %q", service.ErrInvalidState, s)
			}
			f.State = st
		}

		tickets, err := c.Tickets.List(f)
		if err != nil {
			return err
		}
		if len(tickets) == 0 {
			c.Puts("No tickets found.")
			return nil
		}
		current, err := c.Tickets.Current()
		if err != nil {
			return err
		}
		lines, err := c.Render.List(tickets, current)
		if err != nil {
			return err
		}
		c.Puts(lines...)
		return nil
	},
}

var showAction = &dispatch.Descriptor{
	Name:    "show",
	Summary: "Show a ticket",
	Usage:   "[REF]",
	Execute: func(c *dispatch.Context) error {
		ref, err := optionalRef(c)
		if err != nil {
			return err
		}
		t, err := c.Tickets.Ticket(ref)
		if err != nil {
			return err
		}
		return show(c, t)
	},
}

func show(c *dispatch.Context, t *models.Ticket) error {
	lines, err := c.Render.Show(t)
	if err != nil {
		return err
	}
	c.Puts(lines...)
	return nil
}

var recentAction = &dispatch.Descriptor{
	Name:    "recent",
	Summary: "Show recent activity",
	Parser: func(o *dispatch.Options) *pflag.FlagSet {
		fs := flagSet("recent")
		fs.IntVarP(o.IntVar("limit"), "limit", "n", 10, "show at most `N` entries")
		return fs
	},
	Execute: func(c *dispatch.Context) error {
		if err := argsBetween(c, 0, 0); err != nil {
			return err
		}
		limit := c.Options.Int("limit")
		if limit <= 0 {
			return usageError(c, "invalid limit %d", limit)
		}
		entries, err := c.Tickets.Recent(limit)
		if err != nil {
			return err
		}
		lines, err := c.Render.Recent(entries)
		if err != nil {
			return err
		}
		c.Puts(lines...)
		return nil
	},
}

var browseAction = &dispatch.Descriptor{
	Name:    "browse",
	Summary: "Browse tickets interactively",
	Execute: func(c *dispatch.Context) error {
		if err := argsBetween(c, 0, 0); err != nil {
			return err
		}
		if err := tui.New(c.Tickets, c.Render).Run(c.Context(), os.Stdin, c.Out); err != nil {
			return fmt.Errorf("browse: %w", err)
		}
		return nil
	},
}
