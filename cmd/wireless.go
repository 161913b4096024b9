package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/platform/backend"
)

var wifiCommand = cli.Command{
	Name:      "wifi",
	Usage:     "show or switch the wifi adapter",
	ArgsUsage: `[on|off]`,
	Description: `Without an argument the wifi command prints the radio state: adapter
present, adapter enabled and the kill switch. With "on" or "off" it switches
the adapter, which is refused when the machine has none.`,
	Action: func(c *cli.Context) error {
		return wireless(c, "wifi", backend.WifiEx, backend.WifiSta, (*platform.Platform).SetWifi)
	},
}

var bluetoothCommand = cli.Command{
	Name:        "bluetooth",
	Usage:       "show or switch the bluetooth adapter",
	ArgsUsage:   `[on|off]`,
	Description: `The bluetooth command works like the wifi command for the bluetooth adapter.`,
	Action: func(c *cli.Context) error {
		return wireless(c, "bluetooth", backend.BtEx, backend.BtSta, (*platform.Platform).SetBluetooth)
	},
}

func wireless(c *cli.Context, name string, ex, sta backend.WirelessState, set func(*platform.Platform, context.Context, bool) error) error {
	if err := checkArgs(c, 1, maxArgs); err != nil {
		return err
	}
	on, isSet, err := onOffArg(c)
	if err != nil {
		return err
	}
	return withPlatform(c, nil, func(ctx context.Context, p *platform.Platform) error {
		if isSet {
			return set(p, ctx, on)
		}
		st, err := p.Wireless(ctx)
		if err != nil {
			return err
		}
		w := c.App.Writer
		fmt.Fprintf(w, "%s adapter is %s", name, present(st&ex != 0))
		if st&ex != 0 {
			fmt.Fprintf(w, " and %s", enabled(st&sta != 0))
		}
		fmt.Fprintf(w, ".\n")
		if st&backend.KillSwitch != 0 {
			fmt.Fprintf(w, "Kill switch is on.\n")
		} else {
			fmt.Fprintf(w, "Kill switch is off.\n")
		}
		return nil
	})
}

func present(b bool) string {
	if b {
		return "present"
	}
	return "absent"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
