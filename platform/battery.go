package platform

import (
	"context"
	"fmt"

	"github.com/set-io/nbctl/platform/backend"
)

// MaxBatteries is the number of battery slots the EC reports.
const MaxBatteries = 2

// Layout of one battery block. Words are little endian.
const (
	batFlags          = 0x0
	batType           = 0x1
	batSerial         = 0x2
	batDesignVoltage  = 0x4
	batDesignCapacity = 0x6
	batVoltage        = 0x8
	batRemaining      = 0xa
	batLastFull       = 0xc
	batGauge          = 0xe
	batStatus         = 0xf
	batBlockSize      = 0x10

	batPresent = 0x01

	batLiIon = 1
	batNiMH  = 2
)

// BatteryStatus is the raw status byte of a battery block.
type BatteryStatus uint8

const (
	BatteryUnknown BatteryStatus = iota
	BatteryCharged
	BatteryDischarging
	BatteryCharging
	BatteryCritical
)

func (s BatteryStatus) String() string {
	switch s {
	case BatteryCharged:
		return "charged"
	case BatteryDischarging:
		return "discharging"
	case BatteryCharging:
		return "charging"
	case BatteryCritical:
		return "critical"
	}
	return "unknown"
}

func (s BatteryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BatteryStatus) UnmarshalText(text []byte) error {
	for st := BatteryUnknown; st <= BatteryCritical; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("battery status %q: %w", text, backend.ErrInvalidArgument)
}

// BatteryInfo is the static part of a battery. Voltages are in mV and
// capacities in mAh.
type BatteryInfo struct {
	Present        bool   `json:"present"`
	Type           string `json:"type,omitempty"`
	SerialNumber   uint16 `json:"serial_number,omitempty"`
	DesignVoltage  uint16 `json:"design_voltage,omitempty"`
	DesignCapacity uint16 `json:"design_capacity,omitempty"`
}

type BatteryState struct {
	PresentVoltage    uint16        `json:"present_voltage"`
	RemainingCapacity uint16        `json:"remaining_capacity"`
	LastFullCapacity  uint16        `json:"last_full_capacity"`
	Gauge             uint8         `json:"gauge"`
	Status            BatteryStatus `json:"status"`
}

type batteryReader struct {
	ctx  context.Context
	op   backend.Operation
	base uint64
	err  error
}

func (r *batteryReader) readByte(off uint64) uint8 {
	if r.err != nil {
		return 0
	}
	op := r.op
	op.ReadAddr = r.base + off
	v, err := op.Read(r.ctx)
	if err != nil {
		r.err = fmt.Errorf("battery register %#x: %w", op.ReadAddr, err)
	}
	return v
}

func (r *batteryReader) readWord(off uint64) uint16 {
	lo := r.readByte(off)
	hi := r.readByte(off + 1)
	return uint16(hi)<<8 | uint16(lo)
}

// Battery reads battery n, counted from 0. An empty slot is not an error.
func (p *Platform) Battery(ctx context.Context, n int) (BatteryInfo, BatteryState, error) {
	var (
		info  BatteryInfo
		state BatteryState
	)
	f, err := p.Feature("battery")
	if err != nil {
		return info, state, err
	}
	if n < 0 || n >= MaxBatteries {
		return info, state, fmt.Errorf("battery %d: %w", n, backend.ErrInvalidArgument)
	}
	r := &batteryReader{ctx: ctx, op: f.Op, base: f.Op.ReadAddr + uint64(n)*batBlockSize}

	info.Present = r.readByte(batFlags)&batPresent != 0
	if r.err != nil || !info.Present {
		return BatteryInfo{}, state, r.err
	}
	switch r.readByte(batType) {
	case batLiIon:
		info.Type = "Li-Ion"
	case batNiMH:
		info.Type = "NiMH"
	}
	info.SerialNumber = r.readWord(batSerial)
	info.DesignVoltage = r.readWord(batDesignVoltage)
	info.DesignCapacity = r.readWord(batDesignCapacity)

	state.PresentVoltage = r.readWord(batVoltage)
	state.RemainingCapacity = r.readWord(batRemaining)
	state.LastFullCapacity = r.readWord(batLastFull)
	state.Gauge = r.readByte(batGauge)
	state.Status = BatteryStatus(r.readByte(batStatus))
	if state.Status > BatteryCritical {
		state.Status = BatteryUnknown
	}
	if r.err != nil {
		return BatteryInfo{}, BatteryState{}, r.err
	}
	return info, state, nil
}
