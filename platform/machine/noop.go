package machine

import (
	"sync"
)

type PortIONoop struct {
}

func (r *PortIONoop) In(port uint64, data []byte) error  { return nil }
func (r *PortIONoop) Out(port uint64, data []byte) error { return nil }

// Latch is a single byte register that reads back what was last written.
type Latch struct {
	mu    sync.Mutex
	Port  uint64
	Value byte
}

func (l *Latch) In(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	l.mu.Lock()
	data[0] = l.Value
	l.mu.Unlock()
	return nil
}

func (l *Latch) Out(port uint64, data []byte) error {
	if len(data) != 1 {
		return ErrDataLenInvalid
	}
	l.mu.Lock()
	l.Value = data[0]
	l.mu.Unlock()
	return nil
}

func (l *Latch) IOPort() uint64 { return l.Port }
func (l *Latch) Size() uint64   { return 0x1 }

// Register32 is a dword register, such as GPE0_EN in the ACPI PM block.
type Register32 struct {
	mu    sync.Mutex
	Port  uint64
	value uint32
}

func (r *Register32) In(port uint64, data []byte) error {
	if len(data) != 4 {
		return ErrDataLenInvalid
	}
	r.mu.Lock()
	copy(data, NumToBytes(r.value))
	r.mu.Unlock()
	return nil
}

func (r *Register32) Out(port uint64, data []byte) error {
	if len(data) != 4 {
		return ErrDataLenInvalid
	}
	r.mu.Lock()
	r.value = uint32(BytesToNum(data))
	r.mu.Unlock()
	return nil
}

func (r *Register32) Value() uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

func (r *Register32) Set(v uint32) {
	r.mu.Lock()
	r.value = v
	r.mu.Unlock()
}

func (r *Register32) IOPort() uint64 { return r.Port }
func (r *Register32) Size() uint64   { return 0x4 }
