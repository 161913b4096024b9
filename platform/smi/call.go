package smi

import (
	"context"
	"fmt"
	"log"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/machine"
)

func (b *Backend) critical() func() {
	flags := b.irq.Disable()
	b.spin.Lock()
	return func() {
		b.spin.Unlock()
		b.irq.Restore(flags)
	}
}

// mailboxRead reads the SMSC mailbox. Callers hold the backend lock.
func (b *Backend) mailboxRead(index uint16) (uint16, error) {
	defer b.critical()()

	if err := machine.Outw(b.bus, ecIndexPort, index); err != nil {
		return 0, err
	}
	return machine.Inw(b.bus, ecDataPort)
}

// command runs one SMI function: marshal the input buffer, trap, read the
// output buffer back. The output is read even when the trap failed.
func (b *Backend) command(function uint8, in, out *[bufferSize]byte) error {
	br := b.bridge
	for i := 0; i < bufferSize; i++ {
		if err := machine.Outb(b.bus, machine.RTCIndexPort, br.offset+uint8(i)); err != nil {
			return err
		}
		if err := machine.Outb(b.bus, machine.RTCDataPort, in[i]); err != nil {
			return err
		}
	}

	word := Word(function)

	var err error
	switch br.vendor {
	case machine.PCIVendorIntel:
		err = b.intelTrap(br, word)
	case machine.PCIVendorATI:
		err = b.atiTrap(br, word)
	default:
		panic(fmt.Sprintf("nbsmi: no SMI encoding for bridge vendor %#04x", br.vendor))
	}
	if err != nil {
		log.Printf("nbsmi: smi command %#02x failed: %v", function, err)
	}

	for i := 0; i < bufferSize; i++ {
		if rerr := machine.Outb(b.bus, machine.RTCIndexPort, br.offset+uint8(i)); rerr != nil {
			return rerr
		}
		v, rerr := machine.Inb(b.bus, machine.RTCDataPort)
		if rerr != nil {
			return rerr
		}
		out[i] = v
	}
	return err
}

// atiTrap: the firmware clears the accumulator on success; if it did not,
// the status port at trap+1 gets a second say.
func (b *Backend) atiTrap(br *Bridge, word uint16) error {
	defer b.critical()()

	ax, err := b.bus.Trap(br.smiPort, word)
	if err != nil {
		return err
	}
	if ax == 0 {
		return nil
	}
	st, err := machine.Inw(b.bus, br.smiPort+1)
	if err != nil {
		return err
	}
	if st == 0 {
		return nil
	}
	return fmt.Errorf("trap %#04x: status %#04x: %w", word, st, backend.ErrIO)
}

// intelTrap masks every GPE0 source around the trap so no SCI fires while
// the firmware runs. GPE0_EN lives at PMBASE+0x2c; PMBASE is bits 15:7 of
// config register 0x40. The saved enables are put back whatever the outcome.
func (b *Backend) intelTrap(br *Bridge, word uint16) (err error) {
	defer b.critical()()

	pm, err := br.dev.ReadConfig32(intelPMBase)
	if err != nil {
		return err
	}
	gpe := uint64(pm&0xff80) + intelGPE0En
	state, err := machine.Inl(b.bus, gpe)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := machine.Outl(b.bus, gpe, state); rerr != nil && err == nil {
			err = rerr
		}
	}()
	if err := machine.Outl(b.bus, gpe, 0); err != nil {
		return err
	}

	ax, err := b.bus.Trap(br.smiPort, word)
	if err != nil {
		return err
	}
	if ax != 0 {
		return fmt.Errorf("trap %#04x: %w", word, backend.ErrIO)
	}
	return nil
}

func (b *Backend) ByteRead(ctx context.Context, op *backend.Operation) (byte, error) {
	if err := b.acquire(ctx); err != nil {
		return 0, err
	}
	defer b.release()

	if b.bridge == nil {
		return 0, fmt.Errorf("nbsmi: %w", backend.ErrNoDevice)
	}
	var in, out [bufferSize]byte
	if err := b.command(uint8(op.ReadAddr), &in, &out); err != nil {
		return 0, err
	}
	return op.Mask(out[0]), nil
}

func (b *Backend) ByteWrite(ctx context.Context, op *backend.Operation, v byte) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()

	if b.bridge == nil {
		return fmt.Errorf("nbsmi: %w", backend.ErrNoDevice)
	}
	var in, out [bufferSize]byte
	in[0] = v
	return b.command(uint8(op.WriteAddr), &in, &out)
}
