package cmd

import (
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/urfave/cli"

	"github.com/set-io/nbctl/platform"
	"github.com/set-io/nbctl/utils"
)

const (
	// ec_sys and the debugfs EC register file appeared in 2.6.38.
	minKernelVersion = "2.6.38"
)

var checkKernel = utils.CheckKernelVersion

func newApp(name, usage, version, commit string) *cli.App {
	app := cli.NewApp()
	app.Name = name
	app.Usage = usage

	v := []string{version}
	if commit != "" {
		v = append(v, "commit: "+commit)
	}
	v = append(v, "go: "+runtime.Version())
	app.Version = strings.Join(v, "\n")

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
		cli.StringFlag{
			Name:  "log",
			Value: "",
			Usage: "set the log file to write " + name + " logs to (default is '/dev/stderr')",
		},
		cli.StringFlag{
			Name:  "config, c",
			Value: platform.DefaultConfigPath,
			Usage: "path to the JSON configuration file",
		},
		cli.StringFlag{
			Name:  "class",
			Usage: "hardware class, overrides the configuration and DMI detection",
		},
	}
	app.Commands = []cli.Command{
		wifiCommand,
		bluetoothCommand,
		displayCommand,
		hotkeysCommand,
		dumpCommand,
		acCommand,
		lidCommand,
		batteryCommand,
		stateCommand,
		traceCommand,
	}

	app.Before = func(ctx *cli.Context) error {
		if err := checkKernel(minKernelVersion); err != nil {
			return err
		}
		if ctx.IsSet("log") {
			logFile, err := utils.OpenLogFile(ctx.String("log"))
			if err != nil {
				return err
			}
			log.SetOutput(logFile)
		}
		if ctx.Bool("debug") {
			platform.DebugEnabled()
		}
		return nil
	}
	return app
}

func Execute(name, usage, version, commit string) {
	app := newApp(name, usage, version, commit)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
