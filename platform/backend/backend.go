// Package backend defines the capability set every hardware access method
// implements and the descriptor a feature uses to address it.
package backend

import (
	"context"
	"fmt"
)

// Kind names a backend implementation in operation tables.
type Kind int

const (
	KindNone Kind = iota
	KindEC
	KindKBC
	KindPIO
	KindMMIO
	KindSMI
)

func (k Kind) String() string {
	switch k {
	case KindEC:
		return "ec"
	case KindKBC:
		return "kbc"
	case KindPIO:
		return "pio"
	case KindMMIO:
		return "mmio"
	case KindSMI:
		return "nbsmi"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Operation addresses one logical access on a backend. It is filled once
// when a feature is resolved and is read-only afterwards.
type Operation struct {
	ReadAddr  uint64
	WriteAddr uint64
	ReadMask  uint8
	Backend   Backend
}

// Backend is the capability set of one access method. Capabilities a
// backend does not have return ErrUnsupported.
type Backend interface {
	Name() string
	Init(ctx context.Context) error
	Exit()
	ByteRead(ctx context.Context, op *Operation) (byte, error)
	ByteWrite(ctx context.Context, op *Operation, v byte) error
	AerialGet(ctx context.Context, op *Operation) (WirelessState, error)
	AerialSet(ctx context.Context, op *Operation, s WirelessState) error
	HotkeysGet(ctx context.Context, op *Operation) (HotkeyState, error)
	HotkeysSet(ctx context.Context, op *Operation, s HotkeyState) error
	DisplayGet(ctx context.Context, op *Operation) (DisplayState, error)
	DisplaySet(ctx context.Context, op *Operation, s DisplayState) error
}

// Unsupported can be embedded by backends that only implement a subset of
// the capabilities.
type Unsupported struct{}

func (Unsupported) Init(ctx context.Context) error { return nil }
func (Unsupported) Exit()                          {}

func (Unsupported) ByteRead(ctx context.Context, op *Operation) (byte, error) {
	return 0, ErrUnsupported
}

func (Unsupported) ByteWrite(ctx context.Context, op *Operation, v byte) error {
	return ErrUnsupported
}

func (Unsupported) AerialGet(ctx context.Context, op *Operation) (WirelessState, error) {
	return 0, ErrUnsupported
}

func (Unsupported) AerialSet(ctx context.Context, op *Operation, s WirelessState) error {
	return ErrUnsupported
}

func (Unsupported) HotkeysGet(ctx context.Context, op *Operation) (HotkeyState, error) {
	return 0, ErrUnsupported
}

func (Unsupported) HotkeysSet(ctx context.Context, op *Operation, s HotkeyState) error {
	return ErrUnsupported
}

func (Unsupported) DisplayGet(ctx context.Context, op *Operation) (DisplayState, error) {
	return 0, ErrUnsupported
}

func (Unsupported) DisplaySet(ctx context.Context, op *Operation, s DisplayState) error {
	return ErrUnsupported
}

// Mask applies ReadMask to a raw value; a zero mask keeps every bit.
func (op *Operation) Mask(v byte) byte {
	if op.ReadMask != 0 {
		return v & op.ReadMask
	}
	return v
}

// Read is ByteRead on the operation's own backend.
func (op *Operation) Read(ctx context.Context) (byte, error) {
	return op.Backend.ByteRead(ctx, op)
}

func (op *Operation) Write(ctx context.Context, v byte) error {
	return op.Backend.ByteWrite(ctx, op, v)
}
