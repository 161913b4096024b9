package machine

import (
	"sync"
)

const (
	portRange = 0x10000
)

// Sim is a simulated machine: an I/O port space dispatched to devices, a
// sparse physical memory and a port reservation table.
type Sim struct {
	ResourceMap

	mu      sync.Mutex
	mem     map[uint64]byte
	devices []Device
	ports   [portRange]PortIO
}

func NewSim(devices ...Device) *Sim {
	s := &Sim{
		mem: make(map[uint64]byte),
	}
	s.RegisterPortIO(0, portRange, &portIOError{})
	s.RegisterPortIO(0x80, 0x81, &PortIONoop{})
	for _, dev := range devices {
		s.AddDevice(dev)
	}
	return s
}

func (s *Sim) RegisterPortIO(start, end uint64, io PortIO) {
	for i := start; i < end; i++ {
		s.ports[i] = io
	}
}

func (s *Sim) AddDevice(dev Device) {
	s.devices = append(s.devices, dev)
	s.RegisterPortIO(dev.IOPort(), dev.IOPort()+dev.Size(), dev)
}

// AddPair registers a controller that decodes exactly two ports. The EC and
// the keyboard controller interleave (0x60/0x64, 0x62/0x66) so they cannot be
// registered as ranges.
func (s *Sim) AddPair(dataPort, cmdPort uint64, io PortIO) {
	s.RegisterPortIO(dataPort, dataPort+1, io)
	s.RegisterPortIO(cmdPort, cmdPort+1, io)
}

func (s *Sim) In(port uint64, data []byte) error {
	if port >= portRange {
		return (&portIOError{}).In(port, data)
	}
	return s.ports[port].In(port, data)
}

func (s *Sim) Out(port uint64, data []byte) error {
	if port >= portRange {
		return (&portIOError{}).Out(port, data)
	}
	return s.ports[port].Out(port, data)
}

// Trap forwards to the device at port when it models firmware, otherwise it
// is a plain word write and the accumulator is left untouched.
func (s *Sim) Trap(port uint64, ax uint16) (uint16, error) {
	if port < portRange {
		if t, ok := s.ports[port].(Trapper); ok {
			return t.Trap(port, ax)
		}
	}
	if err := Outw(s, port, ax); err != nil {
		return ax, err
	}
	return ax, nil
}

func (s *Sim) MemRead(addr uint64) (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mem[addr], nil
}

func (s *Sim) MemWrite(addr uint64, v byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem[addr] = v
	return nil
}
