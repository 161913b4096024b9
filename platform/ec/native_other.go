//go:build !linux

package ec

import "errors"

var errNoSysfs = errors.New("kernel EC driver is only reachable on linux")

func (s *SysfsEC) Read(addr byte) (byte, error) { return 0, errNoSysfs }
func (s *SysfsEC) Write(addr, v byte) error     { return errNoSysfs }
