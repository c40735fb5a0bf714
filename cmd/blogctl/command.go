package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the blogctl command tree. Groups have
// Subcommands and no Run; leaves have Run.
type Command struct {
	Name    string
	Summary string
	Usage   string

	// Flags returns a fresh flag set. Commands bind flag values to
	// variables captured by Run.
	Flags func() *pflag.FlagSet

	Subcommands []*Command
	Run         func(args []string) error

	parent *Command
}

// Execute dispatches args to a subcommand or parses flags and runs c.
// Help goes to help.
func (c *Command) Execute(args []string, help io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(help)
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(args[1:], help)
			}
		}
		return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.", args[0], c.fullName())
	}

	if len(c.Subcommands) > 0 && c.Run == nil {
		c.PrintHelp(help)
		return fmt.Errorf("subcommand required")
	}

	if c.Flags != nil {
		fs := c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			return fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
		}
		args = fs.Args()
	}
	return c.Run(args)
}

// PrintHelp writes usage, subcommands and flags to w.
func (c *Command) PrintHelp(w io.Writer) {
	name := c.fullName()
	if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", name)
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", name)
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		tw := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		_ = tw.Flush()
	}

	if c.Flags != nil {
		var b strings.Builder
		fs := c.Flags()
		fs.SetOutput(&b)
		fs.PrintDefaults()
		if b.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", b.String())
		}
	}
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}

// requireArgs checks the positional argument count of a leaf command.
func requireArgs(args []string, n int, usage string) error {
	if len(args) != n {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}
