package machine

const (
	// PMBASE register of the Intel ICH LPC bridge, bits 15:7.
	ICHPMBase = 0x40
)

// SimBridge is a south bridge LPC/ISA function.
type SimBridge struct {
	configSpace
}

func (br *SimBridge) VendorID() uint16 { return br.Header.VendorID }
func (br *SimBridge) DeviceID() uint16 { return br.Header.DeviceID }

func (br *SimBridge) In(port uint64, bytes []byte) error {
	return ErrBridgeNotPermit
}

func (br *SimBridge) Out(port uint64, bytes []byte) error {
	return ErrBridgeNotPermit
}

func NewBridge(vendor, device uint16) *SimBridge {
	br := &SimBridge{}
	br.Header = DeviceHeader{
		DeviceID:   device,
		VendorID:   vendor,
		HeaderType: 0,
	}
	return br
}

// NewICHBridge returns an Intel LPC bridge whose ACPI PM I/O block lives at
// pmbase. The low bit mirrors the I/O space indicator real chipsets report.
func NewICHBridge(device uint16, pmbase uint32) *SimBridge {
	br := NewBridge(PCIVendorIntel, device)
	br.WriteConfig32(ICHPMBase, (pmbase&0xff80)|0x1)
	return br
}
