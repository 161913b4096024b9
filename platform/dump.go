package platform

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/set-io/nbctl/platform/backend"
)

// DumpRead prints the 256 EC registers as a 16x16 grid. Values that changed
// since the previous dump are marked with '*'. On a read error the rows
// read so far are returned with the error.
func (p *Platform) DumpRead(ctx context.Context) (string, error) {
	f, err := p.Feature("dump")
	if err != nil {
		return "", err
	}
	p.dumpMu.Lock()
	defer p.dumpMu.Unlock()

	var b strings.Builder
	b.WriteString("EC      ")
	for j := 0; j < 16; j++ {
		fmt.Fprintf(&b, " +%02x", j)
	}
	b.WriteString("\n")
	for i := 0; i < 256; i += 16 {
		fmt.Fprintf(&b, "EC 0x%02x:", i)
		for j := 0; j < 16; j++ {
			op := f.Op
			op.ReadAddr = uint64(i + j)
			v, err := op.Read(ctx)
			if err != nil {
				b.WriteString("\n")
				return b.String(), err
			}
			mark := ' '
			if v != p.dumpPrev[i+j] {
				mark = '*'
			}
			fmt.Fprintf(&b, " %c%02x", mark, v)
			p.dumpPrev[i+j] = v
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// DumpWrite stores one register given as "0xOFF 0xVAL" or "0xOFF VAL".
func (p *Platform) DumpWrite(ctx context.Context, line string) error {
	f, err := p.Feature("dump")
	if err != nil {
		return err
	}
	off, v, err := ParseDumpWrite(line)
	if err != nil {
		return err
	}
	op := f.Op
	op.WriteAddr = uint64(off)
	return op.Write(ctx, v)
}

// ParseDumpWrite parses a register assignment. The offset is always hex
// with a 0x prefix; the value is hex with the prefix or decimal without.
func ParseDumpWrite(line string) (byte, byte, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%q: %w", line, backend.ErrInvalidArgument)
	}
	off, ok := parseHex(fields[0])
	if !ok {
		return 0, 0, fmt.Errorf("offset %q: %w", fields[0], backend.ErrInvalidArgument)
	}
	v, ok := parseHex(fields[1])
	if !ok {
		if strings.HasPrefix(fields[1], "0x") {
			return 0, 0, fmt.Errorf("value %q: %w", fields[1], backend.ErrInvalidArgument)
		}
		d, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("value %q: %w", fields[1], backend.ErrInvalidArgument)
		}
		v = d
	}
	if off > 0xff || v > 0xff {
		return 0, 0, fmt.Errorf("%q out of range: %w", line, backend.ErrInvalidArgument)
	}
	return byte(off), byte(v), nil
}

func parseHex(s string) (uint64, bool) {
	if !strings.HasPrefix(s, "0x") {
		return 0, false
	}
	v, err := strconv.ParseUint(s[2:], 16, 32)
	if err != nil {
		return 0, false
	}
	return v, true
}
