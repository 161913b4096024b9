package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform/machine"
	"github.com/set-io/nbctl/platform/smi"
)

var traceCommand = cli.Command{
	Name:      "trace",
	Usage:     "disassemble the SMI trap sequence for a firmware function",
	ArgsUsage: `[function]`,
	Description: `The trace command prints the instructions that raise the software SMI for
a firmware function code (hexadecimal, default 0x8f) on the selected bridge.
It does not touch the hardware.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "bridge, b",
			Value: "intel",
			Usage: "bridge vendor: intel or ati",
		},
	},
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 1, maxArgs); err != nil {
			return err
		}
		var vendor uint16
		switch strings.ToLower(c.String("bridge")) {
		case "intel":
			vendor = machine.PCIVendorIntel
		case "ati":
			vendor = machine.PCIVendorATI
		default:
			return fmt.Errorf("unknown bridge vendor %q", c.String("bridge"))
		}
		fn := uint64(smi.FnPressed)
		if c.NArg() == 1 {
			var err error
			if fn, err = strconv.ParseUint(c.Args().First(), 0, 8); err != nil {
				return fmt.Errorf("function %q: %w", c.Args().First(), err)
			}
		}
		l, err := smi.Listing(vendor, smi.Word(uint8(fn)))
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, l)
		return nil
	},
}
