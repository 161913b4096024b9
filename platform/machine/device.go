package machine

import (
	"fmt"
)

// PortIO is a handler for a range of x86 I/O ports. The width of the access
// is the length of data: 1, 2 or 4 bytes, little endian.
type PortIO interface {
	In(port uint64, data []byte) error
	Out(port uint64, data []byte) error
}

type Device interface {
	PortIO
	IOPort() uint64
	Size() uint64
}

// Trapper issues a 16-bit write that traps into firmware and returns the
// accumulator as left by the firmware.
type Trapper interface {
	Trap(port uint64, ax uint16) (uint16, error)
}

// Memory is byte access to mapped physical memory.
type Memory interface {
	MemRead(addr uint64) (byte, error)
	MemWrite(addr uint64, v byte) error
}

// Bus is everything a backend needs to reach the hardware.
type Bus interface {
	PortIO
	Trapper
	Memory
	Regions
}

type portIOError struct {
}

func (p *portIOError) In(port uint64, bytes []byte) error {
	return fmt.Errorf("%w: 0x%x, read handler", ErrUnexpectedPort, port)
}

func (p *portIOError) Out(port uint64, bytes []byte) error {
	return fmt.Errorf("%w: 0x%x, write handler", ErrUnexpectedPort, port)
}

func Inb(io PortIO, port uint64) (byte, error) {
	b := make([]byte, 1)
	if err := io.In(port, b); err != nil {
		return 0, err
	}
	return b[0], nil
}

func Outb(io PortIO, port uint64, v byte) error {
	return io.Out(port, []byte{v})
}

func Inw(io PortIO, port uint64) (uint16, error) {
	b := make([]byte, 2)
	if err := io.In(port, b); err != nil {
		return 0, err
	}
	return uint16(BytesToNum(b)), nil
}

func Outw(io PortIO, port uint64, v uint16) error {
	return io.Out(port, NumToBytes(v))
}

func Inl(io PortIO, port uint64) (uint32, error) {
	b := make([]byte, 4)
	if err := io.In(port, b); err != nil {
		return 0, err
	}
	return uint32(BytesToNum(b)), nil
}

func Outl(io PortIO, port uint64, v uint32) error {
	return io.Out(port, NumToBytes(v))
}

func BytesToNum(bytes []byte) uint64 {
	res := uint64(0)
	for i, x := range bytes {
		res |= uint64(x) << (i * 8)
	}
	return res
}

func NumToBytes(x interface{}) []byte {
	res := []byte{}
	l := 0
	y := uint64(0)

	switch v := x.(type) {
	case uint8:
		l = 1
		y = uint64(v)
	case uint16:
		l = 2
		y = uint64(v)
	case uint32:
		l = 4
		y = uint64(v)
	case uint64:
		l = 8
		y = v
	default:
		return []byte{}
	}

	for i := 0; i < l; i++ {
		res = append(res, uint8(y))
		y >>= 8
	}
	return res
}
