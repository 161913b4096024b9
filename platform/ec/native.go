package ec

import (
	"os"
)

// SysfsIOFile is the register file exposed by the ec_sys kernel module.
const SysfsIOFile = "/sys/kernel/debug/ec/ec0/io"

// SysfsEC goes through the kernel's own EC driver, which arbitrates with
// ACPI. Every access opens the file; the module can come and go.
type SysfsEC struct {
	Path     string
	Disabled bool
}

func NewSysfsEC(path string) *SysfsEC {
	if path == "" {
		path = SysfsIOFile
	}
	return &SysfsEC{Path: path}
}

func (s *SysfsEC) Enabled() bool {
	if s.Disabled {
		return false
	}
	_, err := os.Stat(s.Path)
	return err == nil
}
