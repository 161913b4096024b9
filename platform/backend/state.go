package backend

import (
	"fmt"
	"strings"
)

// WirelessState is the backend neutral state of the Wifi and Bluetooth
// adapters.
type WirelessState uint32

const (
	WifiEx     WirelessState = 1 << 0 // adapter present
	WifiSta    WirelessState = 1 << 1 // adapter enabled
	KillSwitch WirelessState = 1 << 2 // radio master disable engaged
	BtEx       WirelessState = 1 << 3
	BtSta      WirelessState = 1 << 4
)

func (s WirelessState) String() string {
	return flagString(uint32(s), wirelessNames)
}

// HotkeyState selects which hotkey categories generate scancodes.
type HotkeyState uint32

const (
	HkeyOneTouch   HotkeyState = 1 << 0
	HkeyMultimedia HotkeyState = 1 << 1
	HkeyFn         HotkeyState = 1 << 2
	HkeyStick      HotkeyState = 1 << 3
	HkeyTwiceLock  HotkeyState = 1 << 4
	HkeyDock       HotkeyState = 1 << 5
	HkeyFnF5       HotkeyState = 1 << 6
)

func (s HotkeyState) String() string {
	return flagString(uint32(s), hotkeyNames)
}

// DisplayState has one _ON bit per output that is driven and one _DET bit
// per output with a sink detected.
type DisplayState uint32

const (
	DisplayLCDOn  DisplayState = 1 << 0
	DisplayCRTOn  DisplayState = 1 << 1
	DisplayTVOOn  DisplayState = 1 << 2
	DisplayDVIOn  DisplayState = 1 << 3
	DisplayLCDDet DisplayState = 1 << 4
	DisplayCRTDet DisplayState = 1 << 5
	DisplayTVODet DisplayState = 1 << 6
	DisplayDVIDet DisplayState = 1 << 7
)

func (s DisplayState) String() string {
	return flagString(uint32(s), displayNames)
}

var (
	wirelessNames = []string{"wifi_ex", "wifi_sta", "killswitch", "bt_ex", "bt_sta"}
	hotkeyNames   = []string{"onetouch", "multimedia", "fn", "stick", "twice_lock", "dock", "fn_f5"}
	displayNames  = []string{"lcd", "crt", "tvout", "dvi", "lcd_det", "crt_det", "tvout_det", "dvi_det"}
)

// ParseHotkeyState reads a "fn|stick" style list as printed by String.
func ParseHotkeyState(s string) (HotkeyState, error) {
	v, err := parseFlags(s, hotkeyNames)
	return HotkeyState(v), err
}

func ParseDisplayState(s string) (DisplayState, error) {
	v, err := parseFlags(s, displayNames)
	return DisplayState(v), err
}

func parseFlags(s string, names []string) (uint32, error) {
	var v uint32
	if s == "none" || s == "" {
		return 0, nil
	}
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		f = strings.ToLower(strings.TrimSpace(f))
		i := 0
		for ; i < len(names); i++ {
			if names[i] == f {
				break
			}
		}
		if i == len(names) {
			return 0, fmt.Errorf("%q: %w", f, ErrInvalidArgument)
		}
		v |= 1 << i
	}
	return v, nil
}

func flagString(v uint32, names []string) string {
	var set []string
	for i, n := range names {
		if v&(1<<i) != 0 {
			set = append(set, n)
		}
	}
	if rest := v &^ (1<<len(names) - 1); rest != 0 {
		set = append(set, fmt.Sprintf("%#x", rest))
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, "|")
}
