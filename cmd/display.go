package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/platform/backend"
)

var displayCommand = cli.Command{
	Name:      "display",
	Usage:     "show or select the active display outputs",
	ArgsUsage: `[lcd|crt|tvout, ...]`,
	Description: `Without an argument the display command prints the active outputs. With
an argument it selects a combination. Only lcd, lcd|crt, crt, lcd|tvout and
tvout are supported.`,
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 1, maxArgs); err != nil {
			return err
		}
		var (
			mode backend.DisplayState
			err  error
		)
		if c.NArg() == 1 {
			if mode, err = backend.ParseDisplayState(c.Args().First()); err != nil {
				return err
			}
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			if c.NArg() == 1 {
				return p.SetDisplay(ctx, mode)
			}
			st, err := p.Display(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%v\n", st)
			return nil
		})
	},
}
