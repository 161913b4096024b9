package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli"
	"golang.org/x/sys/unix"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/utils"
)

const (
	exactArgs = iota
	minArgs
	maxArgs
)

// openHardware is replaced by tests with a simulated machine.
var openHardware = platform.SystemHardware

func checkArgs(c *cli.Context, expected, checkType int) error {
	var err error
	cmdName := c.Command.Name
	switch checkType {
	case exactArgs:
		if c.NArg() != expected {
			err = fmt.Errorf("%s: %q requires exactly %d argument(s)", c.App.Name, cmdName, expected)
		}
	case minArgs:
		if c.NArg() < expected {
			err = fmt.Errorf("%s: %q requires a minimum of %d argument(s)", c.App.Name, cmdName, expected)
		}
	case maxArgs:
		if c.NArg() > expected {
			err = fmt.Errorf("%s: %q requires a maximum of %d argument(s)", c.App.Name, cmdName, expected)
		}
	}
	if err != nil {
		fmt.Fprintf(c.App.Writer, "Incorrect Usage.\n\n")
		cli.ShowCommandHelp(c, cmdName)
		return err
	}
	return nil
}

func loadConfig(c *cli.Context) (*platform.Config, error) {
	cfg, err := platform.LoadConfig(c.GlobalString("config"), !c.GlobalIsSet("config"))
	if err != nil {
		return nil, err
	}
	if class := c.GlobalString("class"); class != "" {
		cfg.Class = class
	}
	if cfg.Debug {
		platform.DebugEnabled()
	}
	return cfg, cfg.Validate()
}

// withPlatform opens the platform for the duration of fn, with the named
// features forced on. Interrupting the process cancels waits on the
// hardware locks.
func withPlatform(c *cli.Context, enable []string, fn func(ctx context.Context, p *platform.Platform) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if len(enable) > 0 && cfg.Features == nil {
		cfg.Features = make(map[string]bool)
	}
	for _, name := range enable {
		cfg.Features[name] = true
	}
	hw, err := openHardware(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	p, err := platform.Open(ctx, cfg, hw)
	if err != nil {
		return err
	}
	defer p.Close()
	return fn(ctx, p)
}

// onOffArg returns the optional on/off argument; set is false without one.
func onOffArg(c *cli.Context) (on, set bool, err error) {
	if c.NArg() == 0 {
		return false, false, nil
	}
	on, err = utils.ParseOnOff(c.Args().First())
	return on, true, err
}
