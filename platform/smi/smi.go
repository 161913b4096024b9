// Package smi implements the Toshiba style SMI backend: a 32 byte buffer is
// passed to the firmware through the second CMOS bank and a software SMI is
// raised through the south bridge.
package smi

import (
	"context"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/machine"
)

const (
	bufferSize = 0x20

	intelOffset  = 0x60
	intelSMIPort = 0xb2 // APM_CNT
	intelPMBase  = 0x40
	intelGPE0En  = 0x2c

	// Vendor documentation says 0xef, which would run past 0xff with a
	// 32 byte buffer. Vendor code uses 0xe0.
	atiOffset  = 0xe0
	atiSMIPort = 0xb0

	ecIndexPort = 0x300
	ecDataPort  = 0x301

	regionLen  = 2
	regionName = "nbsmi"

	wordTag    = 0xe4
	probeEmpty = 0xffff
)

// Firmware function codes.
const (
	FnGetFnInterface   = 0x4e
	FnSetFnInterface   = 0x4f
	FnSetFnF5Interface = 0x51
	FnGetKillSwitch    = 0x59
	FnGetAerial        = 0x5a
	FnSetAerial        = 0x5b
	FnGetDisplayState  = 0x6e
	FnSetDisplayState  = 0x6f
	FnPressed          = 0x8f
)

// BridgeID is a PCI vendor/device pair of a supported LPC bridge.
type BridgeID struct {
	Vendor uint16 `json:"vendor"`
	Device uint16 `json:"device"`
}

// DefaultBridges are probed in order.
var DefaultBridges = []BridgeID{
	{Vendor: machine.PCIVendorIntel, Device: 0x24cc}, // ICH4-M
	{Vendor: machine.PCIVendorIntel, Device: 0x2641}, // ICH6-M
	{Vendor: machine.PCIVendorATI, Device: 0x4377},   // IXP SB400
}

// Supported reports whether vendor has a known SMI encoding.
func Supported(vendor uint16) bool {
	return vendor == machine.PCIVendorIntel || vendor == machine.PCIVendorATI
}

var debug bool

func DebugEnabled() { debug = true }

// Bridge is the claimed LPC bridge together with the I/O ranges reserved for
// it. It only exists between a successful Init and the last Exit.
type Bridge struct {
	dev     machine.PCIDevice
	vendor  uint16
	offset  uint8
	smiPort uint64
}

func newBridge(dev machine.PCIDevice) *Bridge {
	br := &Bridge{dev: dev, vendor: dev.VendorID()}
	switch br.vendor {
	case machine.PCIVendorIntel:
		br.offset = intelOffset
		br.smiPort = intelSMIPort
	case machine.PCIVendorATI:
		br.offset = atiOffset
		br.smiPort = atiSMIPort
	default:
		panic(fmt.Sprintf("nbsmi: no SMI encoding for bridge vendor %#04x", br.vendor))
	}
	return br
}

func (br *Bridge) Vendor() uint16 { return br.vendor }

// Backend is shared by every feature that resolves to the SMI backend. Calls
// are serialized by lock; the trap itself runs with the IRQ section open and
// spin held.
type Backend struct {
	bus        machine.Bus
	pci        machine.PCIBus
	irq        machine.IRQ
	candidates []BridgeID

	lock *semaphore.Weighted
	spin sync.Mutex

	refs   int
	failed bool
	bridge *Bridge
}

func New(bus machine.Bus, pci machine.PCIBus, irq machine.IRQ, candidates []BridgeID) *Backend {
	if len(candidates) == 0 {
		candidates = DefaultBridges
	}
	return &Backend{
		bus:        bus,
		pci:        pci,
		irq:        irq,
		candidates: candidates,
		lock:       semaphore.NewWeighted(1),
	}
}

func (b *Backend) Name() string { return backend.KindSMI.String() }

func (b *Backend) acquire(ctx context.Context) error {
	if err := b.lock.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("nbsmi: %w: %v", backend.ErrInterrupted, err)
	}
	return nil
}

func (b *Backend) release() {
	b.lock.Release(1)
}

// Init claims the bridge on first use and takes a reference on later calls.
// A failed probe is remembered and never retried.
func (b *Backend) Init(ctx context.Context) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()

	if b.failed {
		if debug {
			log.Printf("nbsmi backend init already failed, skipping")
		}
		return fmt.Errorf("nbsmi: earlier probe failed: %w", backend.ErrNoDevice)
	}
	if b.bridge != nil {
		if debug {
			log.Printf("nbsmi has already been initialized")
		}
		b.refs++
		return nil
	}
	if err := b.probe(); err != nil {
		b.failed = true
		return err
	}
	b.refs = 1
	if debug {
		log.Printf("nbsmi init ok")
	}
	return nil
}

func (b *Backend) probe() error {
	var dev machine.PCIDevice
	for _, c := range b.candidates {
		d, err := b.pci.Get(c.Vendor, c.Device)
		if err == nil {
			dev = d
			break
		}
	}
	if dev == nil {
		log.Printf("nbsmi: failed to find a supported LPC I/O bridge")
		return fmt.Errorf("nbsmi: lpc bridge: %w", backend.ErrNoDevice)
	}
	if err := dev.Enable(); err != nil {
		dev.Put()
		log.Printf("nbsmi: unable to enable PCI device: %v", err)
		return fmt.Errorf("nbsmi: enable bridge: %w", err)
	}

	br := newBridge(dev)
	if err := b.bus.Request(br.smiPort, regionLen, regionName); err != nil {
		dev.Put()
		log.Printf("nbsmi: request SMI I/O region: %v", err)
		return fmt.Errorf("nbsmi: %w: %v", backend.ErrNoDevice, err)
	}
	if err := b.bus.Request(ecIndexPort, regionLen, regionName); err != nil {
		b.bus.Release(br.smiPort, regionLen)
		dev.Put()
		log.Printf("nbsmi: request EC I/O region: %v", err)
		return fmt.Errorf("nbsmi: %w: %v", backend.ErrNoDevice, err)
	}
	b.bridge = br

	// Nothing answers at the mailbox on unsupported machines: the read
	// floats to all ones.
	v, err := b.mailboxRead(FnPressed)
	if debug {
		log.Printf("nbsmi test probe read: %#x", v)
	}
	if err != nil || v == probeEmpty {
		log.Printf("nbsmi: probing at mailbox registers failed, disabling")
		b.teardown()
		return fmt.Errorf("nbsmi: mailbox probe: %w", backend.ErrNoDevice)
	}
	if debug {
		if l, err := Listing(br.vendor, Word(FnPressed)); err == nil {
			log.Printf("nbsmi trap sequence:\n%s", l)
		}
	}
	return nil
}

func (b *Backend) teardown() {
	br := b.bridge
	if err := b.bus.Release(ecIndexPort, regionLen); err != nil {
		log.Printf("nbsmi: %v", err)
	}
	if err := b.bus.Release(br.smiPort, regionLen); err != nil {
		log.Printf("nbsmi: %v", err)
	}
	br.dev.Put()
	b.bridge = nil
}

// Exit drops a reference; the last one releases the bridge and its ranges
// and allows a later Init to probe again.
func (b *Backend) Exit() {
	// Teardown must not be abandoned half way, so the wait is not
	// cancellable.
	_ = b.lock.Acquire(context.Background(), 1)
	defer b.release()

	if b.refs == 0 {
		return
	}
	b.refs--
	if b.refs == 0 {
		if debug {
			log.Printf("nbsmi not used anymore: disposing")
		}
		b.teardown()
	}
}

// Refs is the number of outstanding Init calls.
func (b *Backend) Refs() int {
	_ = b.lock.Acquire(context.Background(), 1)
	defer b.release()
	return b.refs
}

// Bridge returns the claimed bridge, nil when the backend is not initialized.
func (b *Backend) Bridge() *Bridge {
	_ = b.lock.Acquire(context.Background(), 1)
	defer b.release()
	return b.bridge
}
