package backend

import (
	"fmt"
)

// Aerial status byte as returned by the firmware.
const (
	aerialBtEx    = 0x1
	aerialBtSta   = 0x2
	aerialWifiEx  = 0x4
	aerialWifiSta = 0x8
)

// DecodeAerial combines the kill switch byte and the aerial status byte.
func DecodeAerial(killswitch, aerial byte) WirelessState {
	var s WirelessState
	if killswitch != 0 {
		s |= KillSwitch
	}
	if aerial&aerialWifiEx != 0 {
		s |= WifiEx
	}
	if aerial&aerialWifiSta != 0 {
		s |= WifiSta
	}
	if aerial&aerialBtEx != 0 {
		s |= BtEx
	}
	if aerial&aerialBtSta != 0 {
		s |= BtSta
	}
	return s
}

// EncodeAerial is the byte accepted by the set-aerial function: bit 0
// enables Bluetooth, bit 1 enables Wifi.
func EncodeAerial(s WirelessState) byte {
	var b byte
	if s&BtSta != 0 {
		b |= 0x1
	}
	if s&WifiSta != 0 {
		b |= 0x2
	}
	return b
}

// DisplayModes is the fixed set of output combinations, indexed by the
// value the firmware reports.
var DisplayModes = [...]DisplayState{
	DisplayLCDOn,
	DisplayLCDOn | DisplayCRTOn,
	DisplayCRTOn,
	DisplayLCDOn | DisplayTVOOn,
	DisplayTVOOn,
}

// DisplayModeMask covers the bits DisplayModes can express.
const DisplayModeMask = DisplayLCDOn | DisplayCRTOn | DisplayTVOOn

func DecodeDisplayMode(index byte) (DisplayState, error) {
	if int(index) >= len(DisplayModes) {
		return 0, fmt.Errorf("display mode index %d: %w", index, ErrIO)
	}
	return DisplayModes[index], nil
}

// EncodeDisplayMode finds the exact combination; there is no nearest match.
func EncodeDisplayMode(s DisplayState) (byte, error) {
	for i, m := range DisplayModes {
		if m == s {
			return byte(i), nil
		}
	}
	return 0, fmt.Errorf("display mode %v: %w", s, ErrInvalidArgument)
}

// Fn interface byte of the hotkey functions.
const (
	fnKeys      = 0x01
	fnStickKeys = 0x02
	fnTwiceLock = 0x04
	fnDock      = 0x08
)

// HotkeysFnMask are the categories carried by the Fn interface byte;
// HkeyFnF5 is set through a function of its own.
const HotkeysFnMask = HkeyFn | HkeyStick | HkeyTwiceLock | HkeyDock

func EncodeHotkeys(s HotkeyState) (fn byte, fnF5 byte) {
	if s&HkeyFn != 0 {
		fn |= fnKeys
	}
	if s&HkeyStick != 0 {
		fn |= fnStickKeys
	}
	if s&HkeyTwiceLock != 0 {
		fn |= fnTwiceLock
	}
	if s&HkeyDock != 0 {
		fn |= fnDock
	}
	if s&HkeyFnF5 != 0 {
		fnF5 = 1
	}
	return fn, fnF5
}

func DecodeHotkeys(fn byte) HotkeyState {
	var s HotkeyState
	if fn&fnKeys != 0 {
		s |= HkeyFn
	}
	if fn&fnStickKeys != 0 {
		s |= HkeyStick
	}
	if fn&fnTwiceLock != 0 {
		s |= HkeyTwiceLock
	}
	if fn&fnDock != 0 {
		s |= HkeyDock
	}
	return s
}
