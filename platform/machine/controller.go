package machine

import (
	"sync"
)

const (
	statOBF = 0x01
	statIBF = 0x02

	ecCmdRead  = 0x80
	ecCmdWrite = 0x81
)

type ecState int

const (
	ecIdle ecState = iota
	ecReadAddr
	ecWriteAddr
	ecWriteData
)

// ECDevice is an embedded controller behind a data and a status/command
// port. Reads and writes of its 256 byte register file follow the ACPI EC
// handshake.
type ECDevice struct {
	mu       sync.Mutex
	DataPort uint64
	CmdPort  uint64
	Regs     [256]byte

	// StuckIBF keeps the input buffer full forever; StuckOBF never
	// signals output. Busy holds IBF for that many status reads.
	StuckIBF bool
	StuckOBF bool
	Busy     int

	statusReads int
	state       ecState
	addr        byte
	out         byte
	obf         bool
}

func NewECDevice() *ECDevice {
	return &ECDevice{DataPort: 0x62, CmdPort: 0x66}
}

func (e *ECDevice) In(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	switch port {
	case e.CmdPort:
		e.statusReads++
		var st byte
		if e.StuckIBF || e.Busy > 0 {
			st |= statIBF
			if e.Busy > 0 {
				e.Busy--
			}
		}
		if e.obf && !e.StuckOBF {
			st |= statOBF
		}
		data[0] = st
	case e.DataPort:
		data[0] = e.out
		e.obf = false
	}
	return nil
}

func (e *ECDevice) Out(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	v := data[0]
	switch port {
	case e.CmdPort:
		switch v {
		case ecCmdRead:
			e.state = ecReadAddr
		case ecCmdWrite:
			e.state = ecWriteAddr
		default:
			e.state = ecIdle
		}
	case e.DataPort:
		switch e.state {
		case ecReadAddr:
			e.out = e.Regs[v]
			e.obf = true
			e.state = ecIdle
		case ecWriteAddr:
			e.addr = v
			e.state = ecWriteData
		case ecWriteData:
			e.Regs[e.addr] = v
			e.state = ecIdle
		}
	}
	return nil
}

// Ports returns the data and status/command ports, for Sim.AddPair.
func (e *ECDevice) Ports() (uint64, uint64) { return e.DataPort, e.CmdPort }

func (e *ECDevice) Reg(addr byte) byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Regs[addr]
}

func (e *ECDevice) SetReg(addr, v byte) {
	e.mu.Lock()
	e.Regs[addr] = v
	e.mu.Unlock()
}

func (e *ECDevice) StatusReads() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statusReads
}

// KBCWrite is one byte accepted by the keyboard controller.
type KBCWrite struct {
	Port  uint64
	Value byte
}

// KBCDevice is an i8042 that accepts command and data bytes and records
// them in order.
type KBCDevice struct {
	mu       sync.Mutex
	DataPort uint64
	CmdPort  uint64
	StuckIBF bool
	writes   []KBCWrite
}

func NewKBCDevice() *KBCDevice {
	return &KBCDevice{DataPort: 0x60, CmdPort: 0x64}
}

func (k *KBCDevice) In(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	data[0] = 0
	if port == k.CmdPort && k.StuckIBF {
		data[0] = statIBF
	}
	return nil
}

func (k *KBCDevice) Out(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	k.mu.Lock()
	k.writes = append(k.writes, KBCWrite{Port: port, Value: data[0]})
	k.mu.Unlock()
	return nil
}

func (k *KBCDevice) Ports() (uint64, uint64) { return k.DataPort, k.CmdPort }

func (k *KBCDevice) Writes() []KBCWrite {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]KBCWrite(nil), k.writes...)
}
