package smi_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/machine"
	"github.com/set-io/nbctl/platform/smi"
)

const (
	ich4m   = 0x24cc
	sb400   = 0x4377
	fnGetF5 = 0x50
)

// newTestbed returns a machine whose firmware stores each set function under
// its own code, except where a real getter exists.
func newTestbed(vendor, device uint16) (*machine.Testbed, *smi.Backend) {
	tb := machine.NewTestbed(vendor, device)
	if fw := tb.Firmware; fw != nil {
		fw.Setters[smi.FnSetAerial] = smi.FnSetAerial
		fw.Setters[smi.FnSetDisplayState] = smi.FnGetDisplayState
		fw.Setters[smi.FnSetFnInterface] = smi.FnGetFnInterface
		fw.Setters[smi.FnSetFnF5Interface] = fnGetF5
	}
	return tb, smi.New(tb.Sim, tb.PCI, tb.IRQ, nil)
}

func TestInitExit(t *testing.T) {
	tests := []struct {
		name   string
		vendor uint16
		device uint16
	}{
		{"Intel ICH4-M", machine.PCIVendorIntel, ich4m},
		{"ATI SB400", machine.PCIVendorATI, sb400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, b := newTestbed(tt.vendor, tt.device)
			ctx := context.Background()

			for i := 0; i < 3; i++ {
				if err := b.Init(ctx); err != nil {
					t.Fatalf("Init() #%d error = %v", i, err)
				}
			}
			if got := b.Refs(); got != 3 {
				t.Errorf("Refs() = %d, want 3", got)
			}
			if got := tb.Held(); got != 2 {
				t.Errorf("Held() = %d, want 2", got)
			}
			if !tb.IsHeld(0x300) || !tb.IsHeld(0x301) {
				t.Errorf("mailbox ports not reserved")
			}
			if tb.Bridge.Refs() != 1 || !tb.Bridge.Enabled() {
				t.Errorf("bridge refs = %d, enabled = %v, want one enabled reference", tb.Bridge.Refs(), tb.Bridge.Enabled())
			}
			if br := b.Bridge(); br == nil || br.Vendor() != tt.vendor {
				t.Errorf("Bridge() = %v, want vendor %#x", br, tt.vendor)
			}

			for i := 0; i < 2; i++ {
				b.Exit()
				if tb.Held() != 2 {
					t.Errorf("ranges released with %d references left", b.Refs())
				}
			}
			b.Exit()
			if got := tb.Held(); got != 0 {
				t.Errorf("Held() after last Exit = %d, want 0", got)
			}
			if got := tb.Bridge.Refs(); got != 0 {
				t.Errorf("bridge refs after last Exit = %d, want 0", got)
			}
			if b.Bridge() != nil {
				t.Errorf("Bridge() after last Exit is not nil")
			}
			b.Exit()
			if got := b.Refs(); got != 0 {
				t.Errorf("Refs() after extra Exit = %d, want 0", got)
			}

			if err := b.Init(ctx); err != nil {
				t.Errorf("Init() after full release error = %v", err)
			}
			b.Exit()
		})
	}
}

func TestProbeEmptyMailbox(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	tb.Mailbox.Default = 0xffff
	ctx := context.Background()

	if err := b.Init(ctx); !errors.Is(err, backend.ErrNoDevice) {
		t.Fatalf("Init() error = %v, want %v", err, backend.ErrNoDevice)
	}
	if got := tb.Held(); got != 0 {
		t.Errorf("Held() after failed probe = %d, want 0", got)
	}
	if got := tb.Bridge.Refs(); got != 0 {
		t.Errorf("bridge refs after failed probe = %d, want 0", got)
	}

	tb.Mailbox.Default = 0
	if err := b.Init(ctx); !errors.Is(err, backend.ErrNoDevice) {
		t.Errorf("second Init() error = %v, want the earlier failure", err)
	}
	if tb.Bridge.Refs() != 0 || tb.Held() != 0 {
		t.Errorf("second Init() probed again")
	}
	if _, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: smi.FnGetAerial}); !errors.Is(err, backend.ErrNoDevice) {
		t.Errorf("ByteRead() error = %v, want %v", err, backend.ErrNoDevice)
	}
}

func TestProbeNoBridge(t *testing.T) {
	tb, b := newTestbed(0x10de, 0x0050)
	if err := b.Init(context.Background()); !errors.Is(err, backend.ErrNoDevice) {
		t.Errorf("Init() error = %v, want %v", err, backend.ErrNoDevice)
	}
	if tb.Held() != 0 {
		t.Errorf("Held() = %d, want 0", tb.Held())
	}
}

func TestProbeRegionBusy(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	tb.Request(0x300, 1, "smsc")
	if err := b.Init(context.Background()); !errors.Is(err, backend.ErrNoDevice) {
		t.Errorf("Init() error = %v, want %v", err, backend.ErrNoDevice)
	}
	if tb.Held() != 1 || tb.Bridge.Refs() != 0 {
		t.Errorf("probe left held = %d, bridge refs = %d", tb.Held(), tb.Bridge.Refs())
	}
}

func TestUnknownVendorPanics(t *testing.T) {
	tb := machine.NewTestbed(0x10de, 0x0050)
	b := smi.New(tb.Sim, tb.PCI, tb.IRQ, []smi.BridgeID{{Vendor: 0x10de, Device: 0x0050}})
	defer func() {
		if recover() == nil {
			t.Errorf("Init() with an unsupported bridge did not panic")
		}
	}()
	b.Init(context.Background())
}

func TestIntelGPE(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	ctx := context.Background()
	if err := b.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Exit()

	const enables = 0x0000c0de
	tb.GPE.Set(enables)
	tb.Firmware.SetReg(smi.FnGetAerial, 0x5)
	v, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: smi.FnGetAerial})
	if err != nil || v != 0x5 {
		t.Errorf("ByteRead() = %#x, %v, want 0x5", v, err)
	}

	tb.Firmware.SetFail(true, 0)
	if _, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: smi.FnGetAerial}); !errors.Is(err, backend.ErrIO) {
		t.Errorf("ByteRead() of a failing trap error = %v, want %v", err, backend.ErrIO)
	}

	for i, gpe := range tb.Firmware.GPEAtTrap() {
		if gpe != 0 {
			t.Errorf("GPE0_EN at trap %d = %#x, want 0", i, gpe)
		}
	}
	if got := tb.GPE.Value(); got != enables {
		t.Errorf("GPE0_EN after traps = %#x, want %#x", got, enables)
	}
	if got := tb.IRQ.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
}

func TestATIStatus(t *testing.T) {
	tests := []struct {
		name   string
		fail   bool
		status uint16
		err    error
	}{
		{"Accumulator cleared", false, 0, nil},
		{"Accumulator cleared, status ignored", false, 0x1, nil},
		{"Accumulator set, status clear", true, 0, nil},
		{"Accumulator and status set", true, 0x1, backend.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tb, b := newTestbed(machine.PCIVendorATI, sb400)
			ctx := context.Background()
			if err := b.Init(ctx); err != nil {
				t.Fatal(err)
			}
			defer b.Exit()

			tb.Firmware.SetFail(tt.fail, tt.status)
			err := b.ByteWrite(ctx, &backend.Operation{WriteAddr: smi.FnSetAerial}, 0x3)
			if !errors.Is(err, tt.err) {
				t.Errorf("ByteWrite() error = %v, want %v", err, tt.err)
			}
			if got := tb.Firmware.Violations(); got != 0 {
				t.Errorf("Violations() = %d, want 0", got)
			}
		})
	}
}

func TestFeatures(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	ctx := context.Background()
	if err := b.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Exit()
	fw := tb.Firmware

	fw.SetReg(smi.FnGetKillSwitch, 1)
	fw.SetReg(smi.FnGetAerial, 0)
	st, err := b.AerialGet(ctx, &backend.Operation{})
	if err != nil || st != backend.KillSwitch {
		t.Errorf("AerialGet() = %v, %v, want killswitch", st, err)
	}
	fw.SetReg(smi.FnGetKillSwitch, 0)
	fw.SetReg(smi.FnGetAerial, 0xf)
	st, err = b.AerialGet(ctx, &backend.Operation{})
	if want := backend.WifiEx | backend.WifiSta | backend.BtEx | backend.BtSta; err != nil || st != want {
		t.Errorf("AerialGet() = %v, %v, want %v", st, err, want)
	}

	if err := b.AerialSet(ctx, &backend.Operation{}, backend.WifiSta|backend.WifiEx); err != nil {
		t.Fatalf("AerialSet() error = %v", err)
	}
	if got := fw.Reg(smi.FnSetAerial); got != 0x2 {
		t.Errorf("aerial byte = %#x, want 0x2", got)
	}

	if err := b.HotkeysSet(ctx, &backend.Operation{}, backend.HkeyFn|backend.HkeyDock|backend.HkeyFnF5); err != nil {
		t.Fatalf("HotkeysSet() error = %v", err)
	}
	if fn, f5 := fw.Reg(smi.FnGetFnInterface), fw.Reg(fnGetF5); fn != 0x09 || f5 != 1 {
		t.Errorf("Fn interface = %#x, Fn+F5 = %d, want 0x9, 1", fn, f5)
	}
	if _, err := b.HotkeysGet(ctx, &backend.Operation{}); !errors.Is(err, backend.ErrUnsupported) {
		t.Errorf("HotkeysGet() error = %v, want %v", err, backend.ErrUnsupported)
	}

	display := &backend.Operation{ReadAddr: smi.FnGetDisplayState, WriteAddr: smi.FnSetDisplayState}
	for _, m := range backend.DisplayModes {
		if err := b.DisplaySet(ctx, display, m); err != nil {
			t.Fatalf("DisplaySet(%v) error = %v", m, err)
		}
		got, err := b.DisplayGet(ctx, display)
		if err != nil || got != m {
			t.Errorf("DisplayGet() = %v, %v, want %v", got, err, m)
		}
	}
	before := len(fw.Traps())
	if err := b.DisplaySet(ctx, display, backend.DisplayCRTOn|backend.DisplayTVOOn); !errors.Is(err, backend.ErrInvalidArgument) {
		t.Errorf("DisplaySet() of an unsupported mode error = %v, want %v", err, backend.ErrInvalidArgument)
	}
	if len(fw.Traps()) != before {
		t.Errorf("unsupported display mode reached the firmware")
	}
	fw.SetReg(smi.FnGetDisplayState, 7)
	if _, err := b.DisplayGet(ctx, display); !errors.Is(err, backend.ErrIO) {
		t.Errorf("DisplayGet() of an unknown index error = %v, want %v", err, backend.ErrIO)
	}
	if got := fw.Violations(); got != 0 {
		t.Errorf("Violations() = %d, want 0", got)
	}
}

func TestConcurrentCalls(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	ctx := context.Background()
	if err := b.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer b.Exit()
	tb.Firmware.SetReg(smi.FnGetAerial, 0xf)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < 32; i++ {
		i := i
		g.Go(func() error {
			if i%2 == 0 {
				return b.AerialSet(ctx, &backend.Operation{}, backend.WifiSta)
			}
			st, err := b.AerialGet(ctx, &backend.Operation{})
			if err != nil {
				return err
			}
			if st&backend.WifiEx == 0 {
				return errors.New("corrupted aerial state")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := tb.Firmware.Violations(); got != 0 {
		t.Errorf("Violations() = %d, want 0", got)
	}
	if got := len(tb.Firmware.Traps()); got != 16+16*2 {
		t.Errorf("traps = %d, want 48", got)
	}
	if got := tb.IRQ.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
}

// gate holds the trap until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gate) In(port uint64, data []byte) error  { return nil }
func (g *gate) Out(port uint64, data []byte) error { return nil }

func (g *gate) Trap(port uint64, ax uint16) (uint16, error) {
	close(g.entered)
	<-g.release
	return 0, nil
}

func TestInterrupted(t *testing.T) {
	tb, b := newTestbed(machine.PCIVendorIntel, ich4m)
	if err := b.Init(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer b.Exit()

	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	tb.RegisterPortIO(0xb2, 0xb3, g)
	done := make(chan error, 1)
	go func() {
		_, err := b.ByteRead(context.Background(), &backend.Operation{ReadAddr: smi.FnGetAerial})
		done <- err
	}()
	<-g.entered

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: smi.FnGetAerial}); !errors.Is(err, backend.ErrInterrupted) {
		t.Errorf("ByteRead() while locked error = %v, want %v", err, backend.ErrInterrupted)
	}
	close(g.release)
	if err := <-done; err != nil {
		t.Errorf("held ByteRead() error = %v", err)
	}
}

func TestListing(t *testing.T) {
	tests := []struct {
		name   string
		vendor uint16
		want   []string
	}{
		{"Intel", machine.PCIVendorIntel, []string{"mov", "0x8fe4", "out", "0xb2"}},
		{"ATI", machine.PCIVendorATI, []string{"out", "0xb0", "in", "0xb1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := smi.Listing(tt.vendor, smi.Word(smi.FnPressed))
			if err != nil {
				t.Fatalf("Listing() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(l, w) {
					t.Errorf("Listing() = %q, want it to contain %q", l, w)
				}
			}
		})
	}
	if _, err := smi.Listing(0x10de, smi.Word(smi.FnPressed)); err == nil {
		t.Errorf("Listing() for an unsupported vendor succeeded")
	}
	if got := smi.Word(smi.FnGetAerial); got != 0x5ae4 {
		t.Errorf("Word() = %#x, want 0x5ae4", got)
	}
}
