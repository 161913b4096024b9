package platform

import (
	"context"

	"github.com/set-io/nbctl/platform/backend"
	"github.com/set-io/nbctl/platform/smi"
)

// Register addresses of the EC families. EC rows address EC registers,
// PIO rows I/O ports, MMIO rows physical memory.
const (
	xe3gfADP      = 0x5a
	xe3gfADPMask  = 0x20
	xe3gfLIDS     = 0x5b
	xe3gfLIDMask  = 0x10
	xe3gfBattery  = 0xc0
	xe3gcSTA1     = 0x57
	xe3gcADPMask  = 0x40
	xe3gcLIDMask  = 0x10
	ob500STA1     = 0xf432
	ob500STA2     = 0xf433
	ob500ADPMask  = 0x08
	ob500LIDMask  = 0x04
	tsm30xLID     = 0xfdf009e4
	tsm30xLIDMask = 0x01
)

const (
	ob500Family = OB500 | OB510 | OB6000 | OB6100 | XE4500 | OB4150
	kbcFamily   = XE3GF | XE3GC | ob500Family | AMILOD | TSP10
)

// feature is a static feature definition. Classes gates the whole feature
// before the table is even looked at.
type feature struct {
	name    string
	off     bool // only enabled when the configuration asks for it
	classes HardwareClass
	table   []Row
	init    func(ctx context.Context, f *Feature) error
}

var features = []feature{
	{
		name:    "wifi",
		classes: TSM40,
		table:   []Row{{Classes: TSM40, Kind: backend.KindSMI}},
		init:    wirelessInit(backend.WifiEx),
	},
	{
		name:    "bluetooth",
		classes: TSM40,
		table:   []Row{{Classes: TSM40, Kind: backend.KindSMI}},
		init:    wirelessInit(backend.BtEx),
	},
	{
		name:    "display",
		classes: TSM40,
		table: []Row{{Classes: TSM40, Kind: backend.KindSMI, Op: backend.Operation{
			ReadAddr:  smi.FnGetDisplayState,
			WriteAddr: smi.FnSetDisplayState,
		}}},
	},
	{
		name:    "hotkeys",
		classes: kbcFamily | TSM40,
		table: []Row{
			{Classes: TSM40, Kind: backend.KindSMI},
			{Classes: kbcFamily, Kind: backend.KindKBC},
		},
	},
	{
		name:    "ac",
		classes: XE3GF | TSP10 | XE3GC | AMILOD | ob500Family,
		table: []Row{
			{Classes: XE3GF | TSP10, Kind: backend.KindEC, Op: backend.Operation{ReadAddr: xe3gfADP, ReadMask: xe3gfADPMask}},
			{Classes: XE3GC | AMILOD, Kind: backend.KindEC, Op: backend.Operation{ReadAddr: xe3gcSTA1, ReadMask: xe3gcADPMask}},
			{Classes: ob500Family, Kind: backend.KindPIO, Op: backend.Operation{ReadAddr: ob500STA2, ReadMask: ob500ADPMask}},
		},
	},
	{
		name:    "lid",
		classes: XE3GF | TSP10 | XE3GC | AMILOD | ob500Family | TSM30X,
		table: []Row{
			{Classes: XE3GF | TSP10, Kind: backend.KindEC, Op: backend.Operation{ReadAddr: xe3gfLIDS, ReadMask: xe3gfLIDMask}},
			{Classes: XE3GC | AMILOD, Kind: backend.KindEC, Op: backend.Operation{ReadAddr: xe3gcSTA1, ReadMask: xe3gcLIDMask}},
			{Classes: ob500Family, Kind: backend.KindPIO, Op: backend.Operation{ReadAddr: ob500STA1, ReadMask: ob500LIDMask}},
			{Classes: TSM30X, Kind: backend.KindMMIO, Op: backend.Operation{ReadAddr: tsm30xLID, ReadMask: tsm30xLIDMask}},
		},
	},
	{
		name:    "battery",
		classes: XE3GF | TSP10,
		table:   []Row{{Classes: XE3GF | TSP10, Kind: backend.KindEC, Op: backend.Operation{ReadAddr: xe3gfBattery}}},
	},
	{
		name:    "dump",
		off:     true,
		classes: ClassAny,
		table:   []Row{{Classes: ClassAny, Kind: backend.KindEC}},
	},
}

// FeatureNames lists every known feature in registration order.
func FeatureNames() []string {
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.name)
	}
	return names
}

func lookupFeature(name string) (*feature, bool) {
	for i := range features {
		if features[i].name == name {
			return &features[i], true
		}
	}
	return nil, false
}

// wirelessInit keeps the feature readable but refuses writes when the
// adapter is absent.
func wirelessInit(present backend.WirelessState) func(ctx context.Context, f *Feature) error {
	return func(ctx context.Context, f *Feature) error {
		st, err := f.Op.Backend.AerialGet(ctx, &f.Op)
		if err != nil {
			return err
		}
		f.Writable = st&present != 0
		return nil
	}
}

// Feature is a feature resolved for this machine.
type Feature struct {
	Name     string
	Op       backend.Operation
	Writable bool
}

// FeatureInfo describes an active feature.
type FeatureInfo struct {
	Name     string `json:"name"`
	Backend  string `json:"backend"`
	Writable bool   `json:"writable"`
}
