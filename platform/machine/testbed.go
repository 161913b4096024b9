package machine

// Testbed is a simulated laptop: EC, keyboard controller, the SMI firmware
// of one south bridge, the SMSC mailbox and, behind Intel bridges, the
// GPE0_EN register of the ACPI PM block.
type Testbed struct {
	*Sim
	PCI      *SimPCI
	IRQ      *LocalIRQ
	Bridge   *SimBridge
	EC       *ECDevice
	KBC      *KBCDevice
	Firmware *Firmware
	Mailbox  *Mailbox
	GPE      *Register32
}

// TestbedPMBase is where the ACPI PM block of a simulated ICH sits.
const TestbedPMBase = 0x1000

// NewTestbed builds a machine around the bridge vendor:device. A vendor
// without SMI firmware gets the bridge alone.
func NewTestbed(vendor, device uint16) *Testbed {
	tb := &Testbed{
		Sim:     NewSim(),
		IRQ:     NewLocalIRQ(),
		EC:      NewECDevice(),
		KBC:     NewKBCDevice(),
		Mailbox: NewMailbox(),
	}
	tb.AddPair(tb.EC.DataPort, tb.EC.CmdPort, tb.EC)
	tb.AddPair(tb.KBC.DataPort, tb.KBC.CmdPort, tb.KBC)
	tb.AddDevice(tb.Mailbox)

	switch vendor {
	case PCIVendorIntel:
		tb.Bridge = NewICHBridge(device, TestbedPMBase)
		tb.GPE = &Register32{Port: TestbedPMBase + 0x2c}
		tb.AddDevice(tb.GPE)
		tb.Firmware = NewFirmware(0x60, 0xb2, 0)
		tb.Firmware.GPE = tb.GPE
		tb.Firmware.Attach(tb.Sim)
	case PCIVendorATI:
		tb.Bridge = NewBridge(vendor, device)
		tb.Firmware = NewFirmware(0xe0, 0xb0, 0xb1)
		tb.Firmware.Attach(tb.Sim)
	default:
		tb.Bridge = NewBridge(vendor, device)
	}
	tb.PCI = NewSimPCI(tb.Bridge)
	return tb
}
