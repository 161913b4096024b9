package ec_test

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/ec"
	"github.com/set-io/nbctl/platform/machine"
)

type rig struct {
	sim *machine.Sim
	ec  *machine.ECDevice
	kbc *machine.KBCDevice
	irq *machine.LocalIRQ
}

func newRig(native ec.Native) (*rig, *ec.Engine) {
	r := &rig{
		sim: machine.NewSim(),
		ec:  machine.NewECDevice(),
		kbc: machine.NewKBCDevice(),
		irq: machine.NewLocalIRQ(),
	}
	r.sim.AddPair(r.ec.DataPort, r.ec.CmdPort, r.ec)
	r.sim.AddPair(r.kbc.DataPort, r.kbc.CmdPort, r.kbc)
	e := ec.New(r.sim, r.irq, native)
	e.Poll = 0
	return r, e
}

type fakeNative struct {
	enabled bool
	fail    bool
	regs    map[byte]byte
	calls   int
}

func (f *fakeNative) Enabled() bool { return f.enabled }

func (f *fakeNative) Read(addr byte) (byte, error) {
	f.calls++
	if f.fail {
		return 0, errors.New("ec_sys: no such file")
	}
	return f.regs[addr], nil
}

func (f *fakeNative) Write(addr, v byte) error {
	f.calls++
	if f.fail {
		return errors.New("ec_sys: no such file")
	}
	f.regs[addr] = v
	return nil
}

func TestEngineReadWrite(t *testing.T) {
	r, e := newRig(nil)

	if err := e.Write(0x10, 0xab); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := r.ec.Reg(0x10); got != 0xab {
		t.Errorf("register 0x10 = %#x, want 0xab", got)
	}
	r.ec.SetReg(0x20, 0x05)
	v, err := e.Read(0x20)
	if err != nil || v != 0x05 {
		t.Errorf("Read(0x20) = %#x, %v, want 0x5", v, err)
	}

	r.ec.Busy = 10
	if v, err := e.Read(0x10); err != nil || v != 0xab {
		t.Errorf("Read() of a busy EC = %#x, %v, want 0xab", v, err)
	}
	if got := r.irq.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
}

func TestEngineTimeout(t *testing.T) {
	tests := []struct {
		name     string
		stuckIBF bool
		stuckOBF bool
		write    bool
		reads    int
	}{
		{"Read with input buffer stuck", true, false, false, ec.Timeout},
		{"Write with input buffer stuck", true, false, true, ec.Timeout},
		// two IBF waits pass on the first read, the OBF wait runs out
		{"Read with output never ready", false, true, false, ec.Timeout + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, e := newRig(nil)
			r.ec.StuckIBF = tt.stuckIBF
			r.ec.StuckOBF = tt.stuckOBF

			var err error
			if tt.write {
				err = e.Write(0x01, 0x02)
			} else {
				_, err = e.Read(0x01)
			}
			if !errors.Is(err, backend.ErrTimeout) {
				t.Errorf("error = %v, want %v", err, backend.ErrTimeout)
			}
			if got := r.ec.StatusReads(); got != tt.reads {
				t.Errorf("StatusReads() = %d, want %d", got, tt.reads)
			}
			if got := r.irq.Depth(); got != 0 {
				t.Errorf("Depth() after timeout = %d, want 0", got)
			}
		})
	}
}

func TestEngineNative(t *testing.T) {
	t.Run("Preferred when enabled", func(t *testing.T) {
		n := &fakeNative{enabled: true, regs: map[byte]byte{0x30: 0x77}}
		r, e := newRig(n)
		v, err := e.Read(0x30)
		if err != nil || v != 0x77 {
			t.Errorf("Read() = %#x, %v, want 0x77", v, err)
		}
		if r.ec.StatusReads() != 0 {
			t.Errorf("port handshake used although the native driver answered")
		}
	})
	t.Run("Fallback on failure", func(t *testing.T) {
		n := &fakeNative{enabled: true, fail: true, regs: map[byte]byte{}}
		r, e := newRig(n)
		r.ec.SetReg(0x30, 0x11)
		v, err := e.Read(0x30)
		if err != nil || v != 0x11 {
			t.Errorf("Read() = %#x, %v, want 0x11", v, err)
		}
		if err := e.Write(0x31, 0x22); err != nil || r.ec.Reg(0x31) != 0x22 {
			t.Errorf("Write() = %v, register = %#x", err, r.ec.Reg(0x31))
		}
		if n.calls != 2 {
			t.Errorf("native calls = %d, want 2", n.calls)
		}
	})
	t.Run("Skipped when disabled", func(t *testing.T) {
		n := &fakeNative{regs: map[byte]byte{}}
		_, e := newRig(n)
		if _, err := e.Read(0x30); err != nil {
			t.Errorf("Read() error = %v", err)
		}
		if n.calls != 0 {
			t.Errorf("native calls = %d, want 0", n.calls)
		}
	})
}

func TestEngineConcurrent(t *testing.T) {
	r, e := newRig(nil)
	var g errgroup.Group
	for i := 0; i < 64; i++ {
		addr := byte(i)
		g.Go(func() error {
			if err := e.Write(addr, addr^0xff); err != nil {
				return err
			}
			v, err := e.Read(addr)
			if err != nil {
				return err
			}
			if v != addr^0xff {
				return errors.New("interleaved EC transaction")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := r.irq.Depth(); got != 0 {
		t.Errorf("Depth() = %d, want 0", got)
	}
}

func TestKBCCommand(t *testing.T) {
	r, e := newRig(nil)
	kbc := ec.NewKBCBackend(e)
	ctx := context.Background()

	if err := kbc.HotkeysSet(ctx, &backend.Operation{}, backend.HkeyOneTouch); err != nil {
		t.Fatalf("HotkeysSet() error = %v", err)
	}
	if err := kbc.HotkeysSet(ctx, &backend.Operation{}, 0); err != nil {
		t.Fatalf("HotkeysSet() error = %v", err)
	}
	want := []machine.KBCWrite{
		{Port: ec.KBCCmdPort, Value: 0x59},
		{Port: ec.KBCDataPort, Value: 0x90},
		{Port: ec.KBCCmdPort, Value: 0x59},
		{Port: ec.KBCDataPort, Value: 0x91},
	}
	got := r.kbc.Writes()
	if len(got) != len(want) {
		t.Fatalf("Writes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	r.kbc.StuckIBF = true
	if err := kbc.ByteWrite(ctx, &backend.Operation{WriteAddr: 0x59}, 0x90); !errors.Is(err, backend.ErrTimeout) {
		t.Errorf("ByteWrite() to a stuck controller error = %v, want %v", err, backend.ErrTimeout)
	}
	if _, err := kbc.ByteRead(ctx, &backend.Operation{}); !errors.Is(err, backend.ErrUnsupported) {
		t.Errorf("ByteRead() error = %v, want %v", err, backend.ErrUnsupported)
	}
}

func TestBackends(t *testing.T) {
	r, e := newRig(nil)
	ctx := context.Background()
	r.ec.SetReg(0x5a, 0x2f)
	latch := &machine.Latch{Port: 0xf433, Value: 0x0c}
	r.sim.AddDevice(latch)
	r.sim.MemWrite(0xfdf009e4, 0x03)

	tests := []struct {
		name string
		b    backend.Backend
		op   backend.Operation
		want byte
	}{
		{"EC masked", ec.NewECBackend(e), backend.Operation{ReadAddr: 0x5a, ReadMask: 0x20}, 0x20},
		{"EC unmasked", ec.NewECBackend(e), backend.Operation{ReadAddr: 0x5a}, 0x2f},
		{"PIO masked", ec.NewPIOBackend(r.sim), backend.Operation{ReadAddr: 0xf433, ReadMask: 0x08}, 0x08},
		{"MMIO masked", ec.NewMMIOBackend(e), backend.Operation{ReadAddr: 0xfdf009e4, ReadMask: 0x01}, 0x01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.op.Backend = tt.b
			got, err := tt.op.Read(ctx)
			if err != nil || got != tt.want {
				t.Errorf("Read() = %#x, %v, want %#x", got, err, tt.want)
			}
			if err := tt.b.Init(ctx); err != nil {
				t.Errorf("Init() error = %v", err)
			}
			if _, err := tt.b.AerialGet(ctx, &tt.op); !errors.Is(err, backend.ErrUnsupported) {
				t.Errorf("AerialGet() error = %v, want %v", err, backend.ErrUnsupported)
			}
		})
	}
}
