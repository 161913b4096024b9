//go:build linux && (amd64 || 386)

package machine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/u-root/u-root/pkg/memio"
	"github.com/u-root/u-root/pkg/pci"
	"golang.org/x/sys/unix"
)

// DevPort reaches the real hardware through /dev/port and /dev/mem.
type DevPort struct {
	ResourceMap
}

func NewDevPort() (*DevPort, error) {
	if _, err := os.Stat("/dev/port"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHardware, err)
	}
	return &DevPort{}, nil
}

func (d *DevPort) In(port uint64, data []byte) error {
	switch len(data) {
	case 1:
		var v memio.Uint8
		if err := memio.In(uint16(port), &v); err != nil {
			return err
		}
		data[0] = byte(v)
	case 2:
		var v memio.Uint16
		if err := memio.In(uint16(port), &v); err != nil {
			return err
		}
		copy(data, NumToBytes(uint16(v)))
	case 4:
		var v memio.Uint32
		if err := memio.In(uint16(port), &v); err != nil {
			return err
		}
		copy(data, NumToBytes(uint32(v)))
	default:
		return fmt.Errorf("in %#x: %w", port, ErrUnsupportedWidth)
	}
	return nil
}

func (d *DevPort) Out(port uint64, data []byte) error {
	switch len(data) {
	case 1:
		v := memio.Uint8(data[0])
		return memio.Out(uint16(port), &v)
	case 2:
		v := memio.Uint16(BytesToNum(data))
		return memio.Out(uint16(port), &v)
	case 4:
		v := memio.Uint32(BytesToNum(data))
		return memio.Out(uint16(port), &v)
	}
	return fmt.Errorf("out %#x: %w", port, ErrUnsupportedWidth)
}

// Trap writes ax to the trap port. The accumulator the firmware leaves
// behind cannot be observed through /dev/port, so Trap always reports a
// cleared accumulator and callers never get to consult a status port.
func (d *DevPort) Trap(port uint64, ax uint16) (uint16, error) {
	if err := Outw(d, port, ax); err != nil {
		return ax, err
	}
	return 0, nil
}

func (d *DevPort) MemRead(addr uint64) (byte, error) {
	var v memio.Uint8
	if err := memio.Read(int64(addr), &v); err != nil {
		return 0, err
	}
	return byte(v), nil
}

func (d *DevPort) MemWrite(addr uint64, v byte) error {
	b := memio.Uint8(v)
	return memio.Write(int64(addr), &b)
}

// Request reserves the range and raises this thread's permission bitmap for
// it, so the ports also work for direct in/out instructions.
func (d *DevPort) Request(start, n uint64, name string) error {
	if err := d.ResourceMap.Request(start, n, name); err != nil {
		return err
	}
	if err := unix.Ioperm(int(start), int(n), 1); err != nil {
		d.ResourceMap.Release(start, n)
		return fmt.Errorf("ioperm %#x+%d: %w", start, n, err)
	}
	return nil
}

func (d *DevPort) Release(start, n uint64) error {
	if err := unix.Ioperm(int(start), int(n), 0); err != nil {
		return fmt.Errorf("ioperm %#x+%d: %w", start, n, err)
	}
	return d.ResourceMap.Release(start, n)
}

// SysPCI looks devices up in sysfs.
type SysPCI struct {
	reader pci.BusReader
}

func NewSysPCI() (*SysPCI, error) {
	r, err := pci.NewBusReader()
	if err != nil {
		return nil, err
	}
	return &SysPCI{reader: r}, nil
}

func (s *SysPCI) Get(vendor, device uint16) (PCIDevice, error) {
	devs, err := s.reader.Read()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if d.Vendor == vendor && d.Device == device {
			return &sysPCIDevice{dev: d}, nil
		}
	}
	return nil, fmt.Errorf("%04x:%04x: %w", vendor, device, ErrNoPCIDevice)
}

type sysPCIDevice struct {
	dev *pci.PCI
}

func (s *sysPCIDevice) VendorID() uint16 { return s.dev.Vendor }
func (s *sysPCIDevice) DeviceID() uint16 { return s.dev.Device }

func (s *sysPCIDevice) Enable() error {
	return os.WriteFile(filepath.Join(s.dev.FullPath, "enable"), []byte("1"), 0o200)
}

func (s *sysPCIDevice) ReadConfig32(offset uint64) (uint32, error) {
	v, err := s.dev.ReadConfigRegister(int64(offset), 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func (s *sysPCIDevice) Put() {}
