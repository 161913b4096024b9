package platform

import (
	"fmt"
	"os"
	"strings"
)

// HardwareClass identifies an EC family. It is set once at startup.
type HardwareClass uint32

const (
	ClassNone HardwareClass = 0
	XE3GF     HardwareClass = 1 << 0  // HP OmniBook XE3 GF, most old Toshiba Satellites
	XE3GC     HardwareClass = 1 << 1  // HP OmniBook XE3 GC, GD, GE and compatible
	OB500     HardwareClass = 1 << 2  // HP OmniBook 500 and compatible
	OB510     HardwareClass = 1 << 3  // HP OmniBook 510
	OB6000    HardwareClass = 1 << 4  // HP OmniBook 6000
	OB6100    HardwareClass = 1 << 5  // HP OmniBook 6100
	XE4500    HardwareClass = 1 << 6  // HP OmniBook xe4500 and compatible
	OB4150    HardwareClass = 1 << 7  // HP OmniBook 4150
	XE2       HardwareClass = 1 << 8  // HP OmniBook XE2
	AMILOD    HardwareClass = 1 << 9  // Fujitsu Amilo D
	TSP10     HardwareClass = 1 << 10 // Toshiba Satellite P10, P15, P20 and compatible
	TSM30X    HardwareClass = 1 << 11 // Toshiba Satellite M30X, M35X, M40X, M70 and compatible
	TSM40     HardwareClass = 1 << 12 // Toshiba Satellite M40
	TSA105    HardwareClass = 1 << 13 // Toshiba Satellite A105

	ClassAny HardwareClass = 1<<14 - 1
)

var classNames = []struct {
	class HardwareClass
	name  string
}{
	{XE3GF, "xe3gf"},
	{XE3GC, "xe3gc"},
	{OB500, "ob500"},
	{OB510, "ob510"},
	{OB6000, "ob6000"},
	{OB6100, "ob6100"},
	{XE4500, "xe4500"},
	{OB4150, "ob4150"},
	{XE2, "xe2"},
	{AMILOD, "amilod"},
	{TSP10, "tsp10"},
	{TSM30X, "tsm30x"},
	{TSM40, "tsm40"},
	{TSA105, "tsa105"},
}

func (c HardwareClass) String() string {
	var set []string
	for _, n := range classNames {
		if c&n.class != 0 {
			set = append(set, n.name)
		}
	}
	if len(set) == 0 {
		return "none"
	}
	return strings.Join(set, "|")
}

// ParseClass maps a single class name to its bit.
func ParseClass(name string) (HardwareClass, error) {
	for _, n := range classNames {
		if strings.EqualFold(n.name, name) {
			return n.class, nil
		}
	}
	return ClassNone, fmt.Errorf("%q: %w", name, ErrUnknownClass)
}

// dmiTable is matched in order against the DMI product name; more specific
// names come first.
var dmiTable = []struct {
	product string
	class   HardwareClass
}{
	{"OmniBook XE3 GF", XE3GF},
	{"OmniBook XE3", XE3GC},
	{"OmniBook 500", OB500},
	{"OmniBook 510", OB510},
	{"OmniBook 6000", OB6000},
	{"OmniBook 6100", OB6100},
	{"OmniBook xe4500", XE4500},
	{"OmniBook 4150", OB4150},
	{"OmniBook XE2", XE2},
	{"AMILO D", AMILOD},
	{"Satellite P10", TSP10},
	{"Satellite P15", TSP10},
	{"Satellite P20", TSP10},
	{"Satellite M30X", TSM30X},
	{"Satellite M35X", TSM30X},
	{"Satellite M40X", TSM30X},
	{"Satellite M70", TSM30X},
	{"Satellite M40", TSM40},
	{"Tecra S1", TSM40},
	{"Satellite A105", TSA105},
}

const dmiProductFile = "/sys/class/dmi/id/product_name"

// DetectClass matches a DMI product name.
func DetectClass(product string) (HardwareClass, bool) {
	for _, d := range dmiTable {
		if strings.Contains(product, d.product) {
			return d.class, true
		}
	}
	return ClassNone, false
}

func readDMIProduct() (string, error) {
	b, err := os.ReadFile(dmiProductFile)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
