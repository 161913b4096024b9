package main

import (
	"github.com/set-io/nbctl/cmd"
)

// version must be set from the contents of VERSION file by go build's
// -X main.version= option in the Makefile.
var version = "unknown"

// gitCommit will be the hash that the binary was built from
// and will be populated by the Makefile
var gitCommit = ""

const (
	usage = `laptop platform management
nbctl talks to the embedded controller, the keyboard controller and the SMI
firmware of old HP OmniBook, Fujitsu Amilo and Toshiba Satellite/Tecra
notebooks.

The machine model is detected from DMI, or named with "--class" or in the
configuration file. To see everything the machine offers:

    # nbctl state

Most commands print the current value without an argument and change it
with one:

    # nbctl wifi off
    # nbctl display lcd,crt`
)

func main() {
	cmd.Execute("nbctl", usage, version, gitCommit)
}
