package smi

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"github.com/set-io/nbctl/platform/machine"
)

// trapCode assembles the instruction sequence a kernel driver would execute
// for the trap: load the word, write it to the trap port and test what the
// firmware left in the accumulator.
func trapCode(vendor, word uint16) ([]byte, error) {
	code := []byte{0x66, 0xb8, byte(word), byte(word >> 8)} // mov ax, word
	switch vendor {
	case machine.PCIVendorIntel:
		code = append(code,
			0x66, 0xe7, intelSMIPort, // out port, ax
			0x66, 0x09, 0xc0, // or ax, ax
			0x74, 0x00, // jz done
		)
	case machine.PCIVendorATI:
		code = append(code,
			0x66, 0xe7, atiSMIPort,
			0x66, 0x09, 0xc0,
			0x74, 0x08,
			0x66, 0xe5, atiSMIPort+1, // in ax, port+1
			0x66, 0x09, 0xc0,
			0x74, 0x00,
		)
	default:
		return nil, fmt.Errorf("no SMI encoding for bridge vendor %#04x", vendor)
	}
	return code, nil
}

// Listing disassembles the trap sequence for vendor, one instruction per
// line.
func Listing(vendor, word uint16) (string, error) {
	code, err := trapCode(vendor, word)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for pc := 0; pc < len(code); {
		inst, err := x86asm.Decode(code[pc:], 32)
		if err != nil {
			return "", fmt.Errorf("decode at %#x: %w", pc, err)
		}
		fmt.Fprintf(&sb, "%04x: %s\n", pc, x86asm.GNUSyntax(inst, uint64(pc), nil))
		pc += inst.Len
	}
	return sb.String(), nil
}

// Word is the value written to the trap port for function.
func Word(function uint8) uint16 {
	return uint16(function)<<8 | wordTag
}
