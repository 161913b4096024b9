// Package ec drives the embedded controller and the keyboard controller
// through their status/command and data ports.
package ec

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/machine"
)

const (
	DataPort = 0x62
	CmdPort  = 0x66

	KBCDataPort = 0x60
	KBCCmdPort  = 0x64

	statOBF = 0x01 // output buffer full
	statIBF = 0x02 // input buffer full

	cmdRead  = 0x80
	cmdWrite = 0x81

	// Timeout is the number of status polls, one per Poll interval,
	// before a wait gives up.
	Timeout = 250
)

var errInvalidWait = errors.New("invalid wait condition")

var debug bool

func DebugEnabled() { debug = true }

type waitCond byte

const (
	waitOBF waitCond = statOBF
	waitIBF waitCond = statIBF
)

// Native is an operating system EC driver. When it is enabled the engine
// asks it first and only runs its own handshake if it fails.
type Native interface {
	Enabled() bool
	Read(addr byte) (byte, error)
	Write(addr, v byte) error
}

// Engine serializes every EC, KBC and mapped memory access of the process.
// The lock is held with the IRQ section open, and the saved state is put
// back on every return path.
type Engine struct {
	bus    machine.Bus
	irq    machine.IRQ
	native Native

	// Poll is the delay between two status reads.
	Poll time.Duration

	mu sync.Mutex
}

func New(bus machine.Bus, irq machine.IRQ, native Native) *Engine {
	return &Engine{
		bus:    bus,
		irq:    irq,
		native: native,
		Poll:   time.Millisecond,
	}
}

func (e *Engine) lock() machine.IRQFlags {
	flags := e.irq.Disable()
	e.mu.Lock()
	return flags
}

func (e *Engine) unlock(flags machine.IRQFlags) {
	e.mu.Unlock()
	e.irq.Restore(flags)
}

func (e *Engine) wait(port uint64, cond waitCond) error {
	var ready func(st byte) bool

	switch cond {
	case waitOBF:
		ready = func(st byte) bool { return st&statOBF != 0 }
	case waitIBF:
		ready = func(st byte) bool { return st&statIBF == 0 }
	default:
		return errInvalidWait
	}
	for i := 0; i < Timeout; i++ {
		st, err := machine.Inb(e.bus, port)
		if err != nil {
			return err
		}
		if ready(st) {
			return nil
		}
		time.Sleep(e.Poll)
	}
	return fmt.Errorf("status port %#x: %w", port, backend.ErrTimeout)
}

func (e *Engine) nativeActive() bool {
	return e.native != nil && e.native.Enabled()
}

// Read returns the EC register at addr.
func (e *Engine) Read(addr byte) (byte, error) {
	if e.nativeActive() {
		v, err := e.native.Read(addr)
		if err == nil {
			return v, nil
		}
		if debug {
			log.Printf("native ec read %#x: %v, using port handshake", addr, err)
		}
	}

	flags := e.lock()
	defer e.unlock(flags)

	if err := e.wait(CmdPort, waitIBF); err != nil {
		return 0, err
	}
	if err := machine.Outb(e.bus, CmdPort, cmdRead); err != nil {
		return 0, err
	}
	if err := e.wait(CmdPort, waitIBF); err != nil {
		return 0, err
	}
	if err := machine.Outb(e.bus, DataPort, addr); err != nil {
		return 0, err
	}
	if err := e.wait(CmdPort, waitOBF); err != nil {
		return 0, err
	}
	return machine.Inb(e.bus, DataPort)
}

// Write stores v in the EC register at addr. A timeout part way through
// leaves the controller in an unknown state; nothing is rolled back.
func (e *Engine) Write(addr, v byte) error {
	if e.nativeActive() {
		err := e.native.Write(addr, v)
		if err == nil {
			return nil
		}
		if debug {
			log.Printf("native ec write %#x: %v, using port handshake", addr, err)
		}
	}

	flags := e.lock()
	defer e.unlock(flags)

	if err := e.wait(CmdPort, waitIBF); err != nil {
		return err
	}
	if err := machine.Outb(e.bus, CmdPort, cmdWrite); err != nil {
		return err
	}
	if err := e.wait(CmdPort, waitIBF); err != nil {
		return err
	}
	if err := machine.Outb(e.bus, DataPort, addr); err != nil {
		return err
	}
	if err := e.wait(CmdPort, waitIBF); err != nil {
		return err
	}
	return machine.Outb(e.bus, DataPort, v)
}

func (e *Engine) kbcWrite(port uint64, v byte) error {
	flags := e.lock()
	defer e.unlock(flags)

	if err := e.wait(KBCCmdPort, waitIBF); err != nil {
		return err
	}
	if err := machine.Outb(e.bus, port, v); err != nil {
		return err
	}
	return e.wait(KBCCmdPort, waitIBF)
}

// KBCCommand sends cmd to the keyboard controller command register followed
// by data on its data register.
func (e *Engine) KBCCommand(cmd, data byte) error {
	if err := e.kbcWrite(KBCCmdPort, cmd); err != nil {
		return err
	}
	return e.kbcWrite(KBCDataPort, data)
}

func (e *Engine) MemRead(addr uint64) (byte, error) {
	flags := e.lock()
	defer e.unlock(flags)
	return e.bus.MemRead(addr)
}

func (e *Engine) MemWrite(addr uint64, v byte) error {
	flags := e.lock()
	defer e.unlock(flags)
	return e.bus.MemWrite(addr, v)
}
