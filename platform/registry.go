package platform

import (
	"fmt"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/ec"
	"github.com/set-io/nbctl/platform/machine"
	"github.com/set-io/nbctl/platform/smi"
)

// Hardware is what the backends are built on.
type Hardware struct {
	Bus    machine.Bus
	PCI    machine.PCIBus
	IRQ    machine.IRQ
	Native ec.Native
}

// SystemHardware opens the real machine.
func SystemHardware(cfg *Config) (*Hardware, error) {
	bus, err := machine.NewDevPort()
	if err != nil {
		return nil, err
	}
	pci, err := machine.NewSysPCI()
	if err != nil {
		return nil, err
	}
	hw := &Hardware{
		Bus: bus,
		PCI: pci,
		IRQ: machine.NewLocalIRQ(),
	}
	if cfg.NativeEC {
		hw.Native = ec.NewSysfsEC(cfg.NativeECPath)
	}
	return hw, nil
}

// Registry owns exactly one instance of each backend. Features that resolve
// to the same kind share it, and with it the SMI bridge reference count.
type Registry struct {
	engine   *ec.Engine
	backends map[backend.Kind]backend.Backend
}

func NewRegistry(hw *Hardware, bridges []smi.BridgeID) *Registry {
	irq := hw.IRQ
	if irq == nil {
		irq = machine.NewLocalIRQ()
	}
	e := ec.New(hw.Bus, irq, hw.Native)
	return &Registry{
		engine: e,
		backends: map[backend.Kind]backend.Backend{
			backend.KindEC:   ec.NewECBackend(e),
			backend.KindKBC:  ec.NewKBCBackend(e),
			backend.KindPIO:  ec.NewPIOBackend(hw.Bus),
			backend.KindMMIO: ec.NewMMIOBackend(e),
			backend.KindSMI:  smi.New(hw.Bus, hw.PCI, irq, bridges),
		},
	}
}

func (r *Registry) Backend(k backend.Kind) (backend.Backend, error) {
	b, ok := r.backends[k]
	if !ok {
		return nil, fmt.Errorf("backend %v: %w", k, backend.ErrUnsupported)
	}
	return b, nil
}

// Engine is the shared EC/KBC engine.
func (r *Registry) Engine() *ec.Engine {
	return r.engine
}
