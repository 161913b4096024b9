package cmd

import (
	"context"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/utils"
)

var stateCommand = cli.Command{
	Name:  "state",
	Usage: "output the state of every feature of the machine",
	Description: `The state command outputs the hardware class, the features found and
the backend serving each of them, and the current value of every readable
feature, as JSON.`,
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 0, exactArgs); err != nil {
			return err
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			s, err := p.Snapshot(ctx)
			if err != nil {
				return err
			}
			return utils.WriteJSON(c.App.Writer, s)
		})
	},
}
