package machine

import (
	"errors"
)

var (
	ErrDataLenInvalid   = errors.New("invalid data size on port")
	ErrUnexpectedPort   = errors.New("unexpected io port")
	ErrRegionBusy       = errors.New("io region already requested")
	ErrRegionNotHeld    = errors.New("io region not requested")
	ErrNoPCIDevice      = errors.New("pci device not found")
	ErrBridgeNotPermit  = errors.New("IO is not permitted for PCI bridge")
	ErrUnsupportedWidth = errors.New("unsupported port access width")
	ErrNoHardware       = errors.New("hardware access is not available on this platform")
)
