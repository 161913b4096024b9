package machine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
)

const (
	PCIVendorIntel = 0x8086
	PCIVendorATI   = 0x1002
)

// PCIDevice is a claimed PCI function. Put drops the reference taken by
// PCIBus.Get.
type PCIDevice interface {
	VendorID() uint16
	DeviceID() uint16
	Enable() error
	ReadConfig32(offset uint64) (uint32, error)
	Put()
}

type PCIBus interface {
	Get(vendor, device uint16) (PCIDevice, error)
}

type DeviceHeader struct {
	VendorID      uint16
	DeviceID      uint16
	Command       uint16
	_             uint16
	_             uint8
	_             [3]uint8
	_             uint8
	_             uint8
	HeaderType    uint8
	_             uint8
	BAR           [6]uint32
	_             uint32
	_             uint16
	SubsystemID   uint16
	_             uint32
	_             uint8
	_             [7]uint8
	InterruptLine uint8
	InterruptPin  uint8
	_             uint8
	_             uint8
}

func (h DeviceHeader) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return []byte{}, err
	}
	return buf.Bytes(), nil
}

// SimPCI is a bus of simulated functions, searched in slot order.
type SimPCI struct {
	Devices []*SimBridge
}

func NewSimPCI(devices ...*SimBridge) *SimPCI {
	return &SimPCI{Devices: devices}
}

func (p *SimPCI) Get(vendor, device uint16) (PCIDevice, error) {
	for _, d := range p.Devices {
		if d.Header.VendorID == vendor && d.Header.DeviceID == device {
			d.get()
			return d, nil
		}
	}
	return nil, fmt.Errorf("%04x:%04x: %w", vendor, device, ErrNoPCIDevice)
}

// configSpace is the 256 byte type 0 configuration space: the standard
// header followed by device specific registers.
type configSpace struct {
	mu      sync.Mutex
	Header  DeviceHeader
	Extra   [0xc0]byte
	enabled bool
	refs    int
}

func (c *configSpace) ReadConfig32(offset uint64) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if offset&0x3 != 0 || offset > 0xfc {
		return 0, fmt.Errorf("config offset %#x: %w", offset, ErrDataLenInvalid)
	}
	b, err := c.Header.Bytes()
	if err != nil {
		return 0, err
	}
	b = append(b, c.Extra[:]...)
	return uint32(BytesToNum(b[offset : offset+4])), nil
}

func (c *configSpace) WriteConfig32(offset uint64, v uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if offset < 0x40 {
		return
	}
	copy(c.Extra[offset-0x40:], NumToBytes(v))
}

func (c *configSpace) Enable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = true
	c.Header.Command |= 0x1
	return nil
}

func (c *configSpace) get() {
	c.mu.Lock()
	c.refs++
	c.mu.Unlock()
}

func (c *configSpace) Put() {
	c.mu.Lock()
	c.refs--
	c.mu.Unlock()
}

func (c *configSpace) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Refs is the number of outstanding Get calls not yet matched by Put.
func (c *configSpace) Refs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refs
}
