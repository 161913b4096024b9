package ec

import (
	"context"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/machine"
)

// Keyboard controller vendor commands.
const (
	kbcControlCmd      = 0x59
	kbcOneTouchEnable  = 0x90
	kbcOneTouchDisable = 0x91
)

// ECBackend reads and writes EC registers.
type ECBackend struct {
	backend.Unsupported
	e *Engine
}

func NewECBackend(e *Engine) *ECBackend { return &ECBackend{e: e} }

func (b *ECBackend) Name() string { return backend.KindEC.String() }

func (b *ECBackend) ByteRead(ctx context.Context, op *backend.Operation) (byte, error) {
	v, err := b.e.Read(byte(op.ReadAddr))
	if err != nil {
		return 0, err
	}
	return op.Mask(v), nil
}

func (b *ECBackend) ByteWrite(ctx context.Context, op *backend.Operation, v byte) error {
	return b.e.Write(byte(op.WriteAddr), v)
}

// KBCBackend sends keyboard controller commands: WriteAddr is the command
// and the written byte its argument.
type KBCBackend struct {
	backend.Unsupported
	e *Engine
}

func NewKBCBackend(e *Engine) *KBCBackend { return &KBCBackend{e: e} }

func (b *KBCBackend) Name() string { return backend.KindKBC.String() }

func (b *KBCBackend) ByteWrite(ctx context.Context, op *backend.Operation, v byte) error {
	return b.e.KBCCommand(byte(op.WriteAddr), v)
}

// HotkeysSet toggles OneTouch scancode generation, the only category the
// keyboard controller knows about.
func (b *KBCBackend) HotkeysSet(ctx context.Context, op *backend.Operation, s backend.HotkeyState) error {
	data := byte(kbcOneTouchDisable)
	if s&backend.HkeyOneTouch != 0 {
		data = kbcOneTouchEnable
	}
	return b.e.KBCCommand(kbcControlCmd, data)
}

// PIOBackend accesses plain I/O ports. There is no handshake and no lock.
type PIOBackend struct {
	backend.Unsupported
	bus machine.PortIO
}

func NewPIOBackend(bus machine.PortIO) *PIOBackend { return &PIOBackend{bus: bus} }

func (b *PIOBackend) Name() string { return backend.KindPIO.String() }

func (b *PIOBackend) ByteRead(ctx context.Context, op *backend.Operation) (byte, error) {
	v, err := machine.Inb(b.bus, op.ReadAddr)
	if err != nil {
		return 0, err
	}
	return op.Mask(v), nil
}

func (b *PIOBackend) ByteWrite(ctx context.Context, op *backend.Operation, v byte) error {
	return machine.Outb(b.bus, op.WriteAddr, v)
}

// MMIOBackend accesses mapped physical memory under the engine lock.
type MMIOBackend struct {
	backend.Unsupported
	e *Engine
}

func NewMMIOBackend(e *Engine) *MMIOBackend { return &MMIOBackend{e: e} }

func (b *MMIOBackend) Name() string { return backend.KindMMIO.String() }

func (b *MMIOBackend) ByteRead(ctx context.Context, op *backend.Operation) (byte, error) {
	v, err := b.e.MemRead(op.ReadAddr)
	if err != nil {
		return 0, err
	}
	return op.Mask(v), nil
}

func (b *MMIOBackend) ByteWrite(ctx context.Context, op *backend.Operation, v byte) error {
	return b.e.MemWrite(op.WriteAddr, v)
}
