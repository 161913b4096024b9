package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
)

var dumpCommand = cli.Command{
	Name:      "dump",
	Usage:     "dump or write the EC registers",
	ArgsUsage: `[0xOFFSET VALUE]`,
	Description: `Without arguments the dump command prints the 256 EC registers. With an
offset and a value it writes one register; the offset is hexadecimal with a
0x prefix, the value either hexadecimal with the prefix or decimal.

Writing random EC registers can hang or damage the machine.`,
	Action: func(c *cli.Context) error {
		if c.NArg() != 0 {
			if err := checkArgs(c, 2, exactArgs); err != nil {
				return err
			}
		}
		return withPlatform(c, []string{"dump"}, func(ctx context.Context, p *platform.Platform) error {
			if c.NArg() == 2 {
				return p.DumpWrite(ctx, strings.Join(c.Args(), " "))
			}
			out, err := p.DumpRead(ctx)
			fmt.Fprint(c.App.Writer, out)
			return err
		})
	},
}
