// Package platform resolves the features of one laptop model to hardware
// backends and exposes them with a single API.
package platform

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/ec"
	"github.com/set-io/nbctl/platform/smi"
)

var debug bool

// DebugEnabled turns on tracing here and in the backend packages.
func DebugEnabled() {
	debug = true
	ec.DebugEnabled()
	smi.DebugEnabled()
}

type Platform struct {
	class    HardwareClass
	registry *Registry
	active   []*Feature

	dumpMu   sync.Mutex
	dumpPrev [256]byte
}

// Open detects the machine class and brings up every enabled feature that
// resolves on it. A feature whose backend finds no hardware is left out.
func Open(ctx context.Context, cfg *Config, hw *Hardware) (*Platform, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	class, err := cfg.class()
	if err != nil {
		return nil, err
	}
	p := &Platform{
		class:    class,
		registry: NewRegistry(hw, cfg.bridges()),
	}
	if debug {
		log.Printf("hardware class %v", class)
	}
	for i := range features {
		f := &features[i]
		if !cfg.enabled(f) || f.classes&class == 0 {
			continue
		}
		if err := p.start(ctx, f); err != nil {
			if ctx.Err() != nil {
				p.Close()
				return nil, err
			}
			if errors.Is(err, backend.ErrNoDevice) {
				if debug {
					log.Printf("%s: %v", f.name, err)
				}
				continue
			}
			log.Printf("%s: feature disabled: %v", f.name, err)
		}
	}
	return p, nil
}

func (p *Platform) start(ctx context.Context, f *feature) error {
	row, ok := Resolve(p.class, f.table)
	if !ok {
		return nil
	}
	b, err := p.registry.Backend(row.Kind)
	if err != nil {
		return err
	}
	if err := b.Init(ctx); err != nil {
		return err
	}
	ft := &Feature{Name: f.name, Op: row.Op, Writable: true}
	ft.Op.Backend = b
	if f.init != nil {
		if err := f.init(ctx, ft); err != nil {
			b.Exit()
			return err
		}
	}
	if debug {
		log.Printf("%s: using %s backend", f.name, b.Name())
	}
	p.active = append(p.active, ft)
	return nil
}

// Close releases the backends in reverse order of acquisition.
func (p *Platform) Close() {
	for i := len(p.active) - 1; i >= 0; i-- {
		p.active[i].Op.Backend.Exit()
	}
	p.active = nil
}

func (p *Platform) Class() HardwareClass {
	return p.class
}

func (p *Platform) Features() []FeatureInfo {
	infos := make([]FeatureInfo, 0, len(p.active))
	for _, f := range p.active {
		infos = append(infos, FeatureInfo{
			Name:     f.Name,
			Backend:  f.Op.Backend.Name(),
			Writable: f.Writable,
		})
	}
	return infos
}

// Feature returns the resolved feature or ErrFeatureDisabled.
func (p *Platform) Feature(name string) (*Feature, error) {
	if _, ok := lookupFeature(name); !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownFeature)
	}
	for _, f := range p.active {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrFeatureDisabled)
}

func (p *Platform) writable(name string) (*Feature, error) {
	f, err := p.Feature(name)
	if err != nil {
		return nil, err
	}
	if !f.Writable {
		return nil, fmt.Errorf("%s: %w", name, ErrReadOnly)
	}
	return f, nil
}

// Wireless returns the radio state as seen through the wifi feature, or
// the bluetooth one when there is no wifi.
func (p *Platform) Wireless(ctx context.Context) (backend.WirelessState, error) {
	f, err := p.Feature("wifi")
	if err != nil {
		if f, err = p.Feature("bluetooth"); err != nil {
			return 0, err
		}
	}
	return f.Op.Backend.AerialGet(ctx, &f.Op)
}

func (p *Platform) SetWifi(ctx context.Context, on bool) error {
	return p.setAerial(ctx, "wifi", backend.WifiSta, on)
}

func (p *Platform) SetBluetooth(ctx context.Context, on bool) error {
	return p.setAerial(ctx, "bluetooth", backend.BtSta, on)
}

func (p *Platform) setAerial(ctx context.Context, name string, bit backend.WirelessState, on bool) error {
	f, err := p.writable(name)
	if err != nil {
		return err
	}
	st, err := f.Op.Backend.AerialGet(ctx, &f.Op)
	if err != nil {
		return err
	}
	if on {
		st |= bit
	} else {
		st &^= bit
	}
	return f.Op.Backend.AerialSet(ctx, &f.Op, st)
}

func (p *Platform) Display(ctx context.Context) (backend.DisplayState, error) {
	f, err := p.Feature("display")
	if err != nil {
		return 0, err
	}
	return f.Op.Backend.DisplayGet(ctx, &f.Op)
}

func (p *Platform) SetDisplay(ctx context.Context, s backend.DisplayState) error {
	f, err := p.writable("display")
	if err != nil {
		return err
	}
	return f.Op.Backend.DisplaySet(ctx, &f.Op, s)
}

func (p *Platform) Hotkeys(ctx context.Context) (backend.HotkeyState, error) {
	f, err := p.Feature("hotkeys")
	if err != nil {
		return 0, err
	}
	return f.Op.Backend.HotkeysGet(ctx, &f.Op)
}

func (p *Platform) SetHotkeys(ctx context.Context, s backend.HotkeyState) error {
	f, err := p.writable("hotkeys")
	if err != nil {
		return err
	}
	return f.Op.Backend.HotkeysSet(ctx, &f.Op, s)
}

// AC reports whether the AC adapter is plugged in.
func (p *Platform) AC(ctx context.Context) (bool, error) {
	return p.flag(ctx, "ac")
}

// Lid reports whether the lid is open.
func (p *Platform) Lid(ctx context.Context) (bool, error) {
	return p.flag(ctx, "lid")
}

func (p *Platform) flag(ctx context.Context, name string) (bool, error) {
	f, err := p.Feature(name)
	if err != nil {
		return false, err
	}
	v, err := f.Op.Read(ctx)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Snapshot is the state of every readable feature that is present.
type Snapshot struct {
	Class    string        `json:"class"`
	Features []FeatureInfo `json:"features"`
	Wireless string        `json:"wireless,omitempty"`
	Display  string        `json:"display,omitempty"`
	AC       *bool         `json:"ac,omitempty"`
	Lid      *bool         `json:"lid,omitempty"`
}

// Snapshot queries the features concurrently. The backends serialize the
// hardware accesses themselves.
func (p *Platform) Snapshot(ctx context.Context) (*Snapshot, error) {
	s := &Snapshot{
		Class:    p.class.String(),
		Features: p.Features(),
	}
	g, ctx := errgroup.WithContext(ctx)
	if p.has("wifi") || p.has("bluetooth") {
		g.Go(func() error {
			st, err := p.Wireless(ctx)
			if err != nil {
				return fmt.Errorf("wireless: %w", err)
			}
			s.Wireless = st.String()
			return nil
		})
	}
	if p.has("display") {
		g.Go(func() error {
			st, err := p.Display(ctx)
			if err != nil {
				return fmt.Errorf("display: %w", err)
			}
			s.Display = st.String()
			return nil
		})
	}
	for _, name := range []string{"ac", "lid"} {
		if !p.has(name) {
			continue
		}
		name := name
		g.Go(func() error {
			v, err := p.flag(ctx, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			if name == "ac" {
				s.AC = &v
			} else {
				s.Lid = &v
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *Platform) has(name string) bool {
	_, err := p.Feature(name)
	return err == nil
}
