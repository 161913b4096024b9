package machine

import (
	"sync"
)

const (
	// RTC_PORT(2) and RTC_PORT(3): the second CMOS bank, used by the
	// firmware as a mailbox for SMI buffers.
	RTCIndexPort = uint64(0x72)
	RTCDataPort  = uint64(0x73)

	smiBufferLen = 0x20
	smiWordTag   = 0xe4
)

type fwPhase int

const (
	fwMarshal fwPhase = iota
	fwTrap
	fwReadback
)

// Firmware models the SMI handler of a south bridge: the CMOS bank that
// carries the 32 byte buffers, and the trap port that runs a function on
// them. Each function either reads a value (output byte 0) or, when listed
// in Setters, stores input byte 0 under its paired getter.
type Firmware struct {
	mu         sync.Mutex
	Index      uint8
	Data       [256]uint8
	Offset     uint8
	TrapPort   uint64
	StatusPort uint64

	Setters map[uint8]uint8
	Regs    map[uint8]uint8

	// Fail leaves the accumulator set after the trap; Status is what the
	// companion status port then reports.
	Fail   bool
	Status uint16

	// GPE, when set, is sampled at every trap.
	GPE *Register32

	traps      []uint16
	gpeAtTrap  []uint32
	violations int
	phase      fwPhase
	cursor     int
}

// NewFirmware returns firmware for a bridge that places its buffer at offset
// and traps on trapPort. statusPort is zero when the bridge has none.
func NewFirmware(offset uint8, trapPort, statusPort uint64) *Firmware {
	return &Firmware{
		Offset:     offset,
		TrapPort:   trapPort,
		StatusPort: statusPort,
		Setters:    make(map[uint8]uint8),
		Regs:       make(map[uint8]uint8),
	}
}

// Attach registers the buffer bank and the trap ports on s.
func (f *Firmware) Attach(s *Sim) {
	s.RegisterPortIO(RTCIndexPort, RTCDataPort+1, f)
	s.RegisterPortIO(f.TrapPort, f.TrapPort+1, f)
	if f.StatusPort != 0 {
		s.RegisterPortIO(f.StatusPort, f.StatusPort+1, f)
	}
}

func (f *Firmware) In(port uint64, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch port {
	case RTCIndexPort:
		if len(data) != 1 {
			return ErrDataLenInvalid
		}
		data[0] = f.Index
	case RTCDataPort:
		if len(data) != 1 {
			return ErrDataLenInvalid
		}
		data[0] = f.Data[f.Index]
		f.step(fwReadback)
	case f.StatusPort:
		var st uint16
		if f.Fail {
			st = f.Status
		}
		copy(data, NumToBytes(st))
	}
	return nil
}

func (f *Firmware) Out(port uint64, data []byte) error {
	switch port {
	case f.TrapPort:
		if len(data) != 2 {
			return ErrDataLenInvalid
		}
		_, err := f.Trap(port, uint16(BytesToNum(data)))
		return err
	}
	if len(data) != 1 {
		return ErrDataLenInvalid
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	switch port {
	case RTCIndexPort:
		if f.Index = data[0]; f.Index != f.Offset+uint8(f.cursor) {
			f.violations++
		}
	case RTCDataPort:
		f.Data[f.Index] = data[0]
		f.step(fwMarshal)
	}
	return nil
}

// step advances the buffer cursor, counting any access that does not belong
// to the current phase of a call.
func (f *Firmware) step(want fwPhase) {
	if f.phase != want {
		f.violations++
		return
	}
	f.cursor++
	if f.cursor < smiBufferLen {
		return
	}
	f.cursor = 0
	if f.phase == fwMarshal {
		f.phase = fwTrap
	} else {
		f.phase = fwMarshal
	}
}

func (f *Firmware) Trap(port uint64, ax uint16) (uint16, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.traps = append(f.traps, ax)
	if f.GPE != nil {
		f.gpeAtTrap = append(f.gpeAtTrap, f.GPE.Value())
	}
	if f.phase != fwTrap {
		f.violations++
	}
	f.phase = fwReadback
	f.cursor = 0

	buf := f.Data[f.Offset : int(f.Offset)+smiBufferLen]
	in := make([]byte, smiBufferLen)
	copy(in, buf)
	for i := range buf {
		buf[i] = 0
	}
	if f.Fail || uint8(ax) != smiWordTag {
		return ax, nil
	}
	fn := uint8(ax >> 8)
	if get, ok := f.Setters[fn]; ok {
		f.Regs[get] = in[0]
	} else {
		buf[0] = f.Regs[fn]
	}
	return 0, nil
}

func (f *Firmware) Reg(fn uint8) uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Regs[fn]
}

func (f *Firmware) SetReg(fn, v uint8) {
	f.mu.Lock()
	f.Regs[fn] = v
	f.mu.Unlock()
}

func (f *Firmware) SetFail(fail bool, status uint16) {
	f.mu.Lock()
	f.Fail = fail
	f.Status = status
	f.mu.Unlock()
}

// Traps returns every word written to the trap port, in order.
func (f *Firmware) Traps() []uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint16(nil), f.traps...)
}

func (f *Firmware) GPEAtTrap() []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.gpeAtTrap...)
}

// Violations counts buffer accesses that broke the marshal, trap, read back
// order of a single call, as happens when two calls interleave.
func (f *Firmware) Violations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.violations
}

// Mailbox is the SMSC index/data register pair at 0x300, accessed a word at
// a time.
type Mailbox struct {
	mu      sync.Mutex
	Port    uint64
	Index   uint16
	Regs    map[uint16]uint16
	Default uint16
}

func NewMailbox() *Mailbox {
	return &Mailbox{Port: 0x300, Regs: make(map[uint16]uint16)}
}

func (m *Mailbox) In(port uint64, data []byte) error {
	if len(data) != 2 {
		return ErrDataLenInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.Index
	if port == m.Port+1 {
		var ok bool
		if v, ok = m.Regs[m.Index]; !ok {
			v = m.Default
		}
	}
	copy(data, NumToBytes(v))
	return nil
}

func (m *Mailbox) Out(port uint64, data []byte) error {
	if len(data) != 2 {
		return ErrDataLenInvalid
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	v := uint16(BytesToNum(data))
	if port == m.Port {
		m.Index = v
	} else {
		m.Regs[m.Index] = v
	}
	return nil
}

func (m *Mailbox) IOPort() uint64 { return m.Port }
func (m *Mailbox) Size() uint64   { return 0x2 }
