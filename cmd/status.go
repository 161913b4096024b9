package cmd

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/utils"
)

const formatOptions = `table or json`

var acCommand = cli.Command{
	Name:  "ac",
	Usage: "show whether the AC adapter is plugged in",
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 0, exactArgs); err != nil {
			return err
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			on, err := p.AC(ctx)
			if err != nil {
				return err
			}
			state := "off-line"
			if on {
				state = "on-line"
			}
			fmt.Fprintf(c.App.Writer, "AC %s\n", state)
			return nil
		})
	},
}

var lidCommand = cli.Command{
	Name:  "lid",
	Usage: "show whether the lid is open",
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 0, exactArgs); err != nil {
			return err
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			open, err := p.Lid(ctx)
			if err != nil {
				return err
			}
			state := "closed"
			if open {
				state = "open"
			}
			fmt.Fprintf(c.App.Writer, "The lid is %s\n", state)
			return nil
		})
	},
}

type batteryReport struct {
	Battery int                    `json:"battery"`
	Info    platform.BatteryInfo   `json:"info"`
	State   *platform.BatteryState `json:"state,omitempty"`
}

var batteryCommand = cli.Command{
	Name:      "battery",
	Usage:     "show battery information and state",
	ArgsUsage: `[battery-number]`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "format, f",
			Value: "table",
			Usage: `select one of: ` + formatOptions,
		},
	},
	Action: func(c *cli.Context) error {
		if err := checkArgs(c, 1, maxArgs); err != nil {
			return err
		}
		first, last := 0, platform.MaxBatteries-1
		if c.NArg() == 1 {
			n, err := strconv.Atoi(c.Args().First())
			if err != nil {
				return fmt.Errorf("battery number %q: %w", c.Args().First(), err)
			}
			first, last = n, n
		}
		return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
			var reports []batteryReport
			for n := first; n <= last; n++ {
				info, state, err := p.Battery(ctx, n)
				if err != nil {
					return err
				}
				r := batteryReport{Battery: n, Info: info}
				if info.Present {
					r.State = &state
				}
				reports = append(reports, r)
			}
			switch c.String("format") {
			case "table":
				w := tabwriter.NewWriter(c.App.Writer, 12, 1, 3, ' ', 0)
				fmt.Fprint(w, "BATTERY\tTYPE\tSTATUS\tGAUGE\tREMAINING\tLAST FULL\tDESIGN\tVOLTAGE\n")
				for _, r := range reports {
					if r.State == nil {
						fmt.Fprintf(w, "%d\tnot present\t\t\t\t\t\t\n", r.Battery)
						continue
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%d%%\t%d mAh\t%d mAh\t%d mAh\t%d mV\n",
						r.Battery,
						r.Info.Type,
						r.State.Status,
						r.State.Gauge,
						r.State.RemainingCapacity,
						r.State.LastFullCapacity,
						r.Info.DesignCapacity,
						r.State.PresentVoltage)
				}
				return w.Flush()
			case "json":
				return utils.WriteJSON(c.App.Writer, reports)
			default:
				return fmt.Errorf("invalid format option")
			}
		})
	},
}
