package machine_test

import (
	"errors"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/set-io/nbctl/platform/machine"
)

func TestResourceMap(t *testing.T) {
	tests := []struct {
		name  string
		start uint64
		n     uint64
		err   error
	}{
		{"Free range", 0x300, 2, nil},
		{"Same range", 0x300, 2, machine.ErrRegionBusy},
		{"Overlap from below", 0x2ff, 2, machine.ErrRegionBusy},
		{"Overlap from above", 0x301, 4, machine.ErrRegionBusy},
		{"Adjacent below", 0x2fe, 2, nil},
		{"Adjacent above", 0x302, 1, nil},
	}

	var r machine.ResourceMap
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Request(tt.start, tt.n, "test")
			if !errors.Is(err, tt.err) {
				t.Errorf("Request(%#x, %d) error = %v, want %v", tt.start, tt.n, err, tt.err)
			}
		})
	}
	if got := r.Held(); got != 3 {
		t.Errorf("Held() = %d, want 3", got)
	}
	if err := r.Release(0x300, 1); !errors.Is(err, machine.ErrRegionNotHeld) {
		t.Errorf("Release() of a partial range error = %v, want %v", err, machine.ErrRegionNotHeld)
	}
	if err := r.Release(0x300, 2); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if r.IsHeld(0x301) {
		t.Errorf("IsHeld(0x301) = true after release")
	}
}

func TestSimDispatch(t *testing.T) {
	latch := &machine.Latch{Port: 0x70}
	s := machine.NewSim(latch)

	if err := machine.Outb(s, 0x70, 0x5a); err != nil {
		t.Fatalf("Outb() error = %v", err)
	}
	if v, err := machine.Inb(s, 0x70); err != nil || v != 0x5a {
		t.Errorf("Inb() = %#x, %v, want 0x5a", v, err)
	}
	if err := machine.Outb(s, 0x80, 0x01); err != nil {
		t.Errorf("Outb() to the POST port error = %v", err)
	}
	if _, err := machine.Inb(s, 0x71); !errors.Is(err, machine.ErrUnexpectedPort) {
		t.Errorf("Inb() of an unclaimed port error = %v, want %v", err, machine.ErrUnexpectedPort)
	}
	if err := machine.Outw(s, 0x70, 0x1234); !errors.Is(err, machine.ErrDataLenInvalid) {
		t.Errorf("Outw() to a byte register error = %v, want %v", err, machine.ErrDataLenInvalid)
	}

	if err := s.MemWrite(0xfdf009e4, 0x01); err != nil {
		t.Fatalf("MemWrite() error = %v", err)
	}
	if v, _ := s.MemRead(0xfdf009e4); v != 0x01 {
		t.Errorf("MemRead() = %#x, want 0x1", v)
	}
}

func TestSimTrapWithoutFirmware(t *testing.T) {
	latch := &machine.Register32{Port: 0xb0}
	s := machine.NewSim(latch)
	if _, err := s.Trap(0xb0, 0x8fe4); !errors.Is(err, machine.ErrDataLenInvalid) {
		t.Errorf("Trap() on a dword register error = %v, want %v", err, machine.ErrDataLenInvalid)
	}
	ax, err := s.Trap(0x80, 0x8fe4)
	if err != nil || ax != 0x8fe4 {
		t.Errorf("Trap() = %#x, %v, want the accumulator unchanged", ax, err)
	}
}

// call runs one firmware function the way the SMI backend does.
func call(t *testing.T, s *machine.Sim, fw *machine.Firmware, fn uint8, in byte) byte {
	t.Helper()
	for i := 0; i < 0x20; i++ {
		machine.Outb(s, machine.RTCIndexPort, fw.Offset+uint8(i))
		v := byte(0)
		if i == 0 {
			v = in
		}
		machine.Outb(s, machine.RTCDataPort, v)
	}
	if ax, err := s.Trap(fw.TrapPort, uint16(fn)<<8|0xe4); err != nil || ax != 0 {
		t.Fatalf("Trap() = %#x, %v", ax, err)
	}
	var out byte
	for i := 0; i < 0x20; i++ {
		machine.Outb(s, machine.RTCIndexPort, fw.Offset+uint8(i))
		v, _ := machine.Inb(s, machine.RTCDataPort)
		if i == 0 {
			out = v
		}
	}
	return out
}

func TestFirmware(t *testing.T) {
	s := machine.NewSim()
	fw := machine.NewFirmware(0x60, 0xb2, 0)
	fw.Attach(s)
	fw.Setters[0x5b] = 0x5a

	call(t, s, fw, 0x5b, 0x03)
	if got := fw.Reg(0x5a); got != 0x03 {
		t.Errorf("Reg(0x5a) after set = %#x, want 0x3", got)
	}
	if got := call(t, s, fw, 0x5a, 0); got != 0x03 {
		t.Errorf("get = %#x, want 0x3", got)
	}
	if got := fw.Violations(); got != 0 {
		t.Errorf("Violations() = %d, want 0", got)
	}
	if got := fw.Traps(); len(got) != 2 || got[0] != 0x5be4 || got[1] != 0x5ae4 {
		t.Errorf("Traps() = %#x", got)
	}

	// A second caller marshalling before the first one traps.
	machine.Outb(s, machine.RTCIndexPort, fw.Offset)
	machine.Outb(s, machine.RTCDataPort, 1)
	machine.Outb(s, machine.RTCIndexPort, fw.Offset)
	machine.Outb(s, machine.RTCDataPort, 1)
	if got := fw.Violations(); got == 0 {
		t.Errorf("Violations() = 0 after interleaved marshalling")
	}
}

func TestFirmwareFailure(t *testing.T) {
	s := machine.NewSim()
	fw := machine.NewFirmware(0xe0, 0xb0, 0xb1)
	fw.Attach(s)
	fw.SetFail(true, 0x0001)

	ax, err := s.Trap(0xb0, 0x5ae4)
	if err != nil || ax == 0 {
		t.Errorf("Trap() = %#x, %v, want the accumulator left set", ax, err)
	}
	if st, _ := machine.Inw(s, 0xb1); st != 0x0001 {
		t.Errorf("status = %#x, want 0x1", st)
	}
	fw.SetFail(false, 0)
	if st, _ := machine.Inw(s, 0xb1); st != 0 {
		t.Errorf("status after recovery = %#x, want 0", st)
	}
}

func TestSimPCI(t *testing.T) {
	br := machine.NewICHBridge(0x24cc, 0x1000)
	p := machine.NewSimPCI(br, machine.NewBridge(machine.PCIVendorATI, 0x4377))

	dev, err := p.Get(machine.PCIVendorIntel, 0x24cc)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if br.Refs() != 1 {
		t.Errorf("Refs() = %d, want 1", br.Refs())
	}
	if err := dev.Enable(); err != nil || !br.Enabled() {
		t.Errorf("Enable() = %v, Enabled() = %v", err, br.Enabled())
	}
	pm, err := dev.ReadConfig32(machine.ICHPMBase)
	if err != nil {
		t.Fatalf("ReadConfig32() error = %v", err)
	}
	if pm&0xff80 != 0x1000 {
		t.Errorf("PMBASE = %#x, want 0x1000", pm&0xff80)
	}
	if id, _ := dev.ReadConfig32(0); id != 0x24cc8086 {
		t.Errorf("ReadConfig32(0) = %#x, want 0x24cc8086", id)
	}
	dev.Put()
	if br.Refs() != 0 {
		t.Errorf("Refs() after Put = %d, want 0", br.Refs())
	}

	if _, err := p.Get(machine.PCIVendorIntel, 0x2641); !errors.Is(err, machine.ErrNoPCIDevice) {
		t.Errorf("Get() of a missing device error = %v, want %v", err, machine.ErrNoPCIDevice)
	}
}

func TestLocalIRQ(t *testing.T) {
	irq := machine.NewLocalIRQ()
	outer := irq.Disable()
	inner := irq.Disable()
	if got := irq.Depth(); got != 2 {
		t.Errorf("Depth() nested = %d, want 2", got)
	}
	irq.Restore(inner)
	if got := irq.Depth(); got != 1 {
		t.Errorf("Depth() after inner restore = %d, want 1", got)
	}
	irq.Restore(outer)
	if got := irq.Depth(); got != 0 {
		t.Errorf("Depth() after outer restore = %d, want 0", got)
	}
}

func TestLocalIRQConcurrent(t *testing.T) {
	irq := machine.NewLocalIRQ()
	var g errgroup.Group
	for i := 0; i < 32; i++ {
		g.Go(func() error {
			for j := 0; j < 100; j++ {
				outer := irq.Disable()
				inner := irq.Disable()
				irq.Restore(inner)
				irq.Restore(outer)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := irq.Depth(); got != 0 {
		t.Errorf("Depth() after balanced sections = %d, want 0", got)
	}
}

func TestNumToBytes(t *testing.T) {
	tests := []struct {
		name string
		x    interface{}
		want uint64
		len  int
	}{
		{"Byte", uint8(0x12), 0x12, 1},
		{"Word", uint16(0x1234), 0x1234, 2},
		{"Dword", uint32(0x12345678), 0x12345678, 4},
		{"Unsupported", 5, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := machine.NumToBytes(tt.x)
			if len(b) != tt.len || machine.BytesToNum(b) != tt.want {
				t.Errorf("NumToBytes(%v) = %#x, want %#x", tt.x, b, tt.want)
			}
		})
	}
}
