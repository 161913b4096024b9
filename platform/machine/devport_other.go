//go:build !(linux && (amd64 || 386))

package machine

// DevPort is unavailable off x86 Linux.
type DevPort struct {
	ResourceMap
}

func NewDevPort() (*DevPort, error) {
	return nil, ErrNoHardware
}

func (d *DevPort) In(port uint64, data []byte) error           { return ErrNoHardware }
func (d *DevPort) Out(port uint64, data []byte) error          { return ErrNoHardware }
func (d *DevPort) Trap(port uint64, ax uint16) (uint16, error) { return ax, ErrNoHardware }
func (d *DevPort) MemRead(addr uint64) (byte, error)           { return 0, ErrNoHardware }
func (d *DevPort) MemWrite(addr uint64, v byte) error          { return ErrNoHardware }

type SysPCI struct{}

func NewSysPCI() (*SysPCI, error) {
	return nil, ErrNoHardware
}

func (s *SysPCI) Get(vendor, device uint16) (PCIDevice, error) {
	return nil, ErrNoPCIDevice
}
