package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/platform/backend"
)

var hotkeysCommand = cli.Command{
	Name:      "hotkeys",
	Usage:     "show or set which hotkeys generate scancodes",
	ArgsUsage: `[onetouch|multimedia|fn|stick|twice_lock|dock|fn_f5, ...]`,
	Description: `With an argument the hotkeys command enables exactly the listed
categories; "none" disables them all. Reading back is not possible on every
machine.`,
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 1, maxArgs); err != nil {
			return err
		}
		var (
			keys backend.HotkeyState
			err  error
		)
		if c.NArg() == 1 {
			if keys, err = backend.ParseHotkeyState(c.Args().First()); err != nil {
				return err
			}
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			if c.NArg() == 1 {
				return p.SetHotkeys(ctx, keys)
			}
			st, err := p.Hotkeys(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%v\n", st)
			return nil
		})
	},
}
