package smi

import (
	"context"
	"log"

	"github.com/set-io/nbctl/platform/backend"
)

func (b *Backend) AerialGet(ctx context.Context, op *backend.Operation) (backend.WirelessState, error) {
	kill, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: FnGetKillSwitch})
	if err != nil {
		return 0, err
	}
	if debug {
		log.Printf("get_wireless (kill switch) raw_state: %#x", kill)
	}
	aerial, err := b.ByteRead(ctx, &backend.Operation{ReadAddr: FnGetAerial})
	if err != nil {
		return 0, err
	}
	if debug {
		log.Printf("get_wireless (aerial) raw_state: %#x", aerial)
	}
	return backend.DecodeAerial(kill, aerial), nil
}

func (b *Backend) AerialSet(ctx context.Context, op *backend.Operation, s backend.WirelessState) error {
	data := backend.EncodeAerial(s)
	if debug {
		log.Printf("set_wireless raw_state: %#x", data)
	}
	return b.ByteWrite(ctx, &backend.Operation{WriteAddr: FnSetAerial}, data)
}

// HotkeysGet is not offered: the Fn interface reads back garbage on at
// least the Tecra S1. Setting is reliable.
func (b *Backend) HotkeysGet(ctx context.Context, op *backend.Operation) (backend.HotkeyState, error) {
	return 0, backend.ErrUnsupported
}

func (b *Backend) HotkeysSet(ctx context.Context, op *backend.Operation, s backend.HotkeyState) error {
	fn, fnF5 := backend.EncodeHotkeys(s)
	if debug {
		log.Printf("set_hotkeys (Fn interface) raw_state: %#x", fn)
	}
	if err := b.ByteWrite(ctx, &backend.Operation{WriteAddr: FnSetFnInterface}, fn); err != nil {
		return err
	}
	if debug {
		log.Printf("set_hotkeys (Fn F5) raw_state: %#x", fnF5)
	}
	return b.ByteWrite(ctx, &backend.Operation{WriteAddr: FnSetFnF5Interface}, fnF5)
}

func (b *Backend) DisplayGet(ctx context.Context, op *backend.Operation) (backend.DisplayState, error) {
	v, err := b.ByteRead(ctx, op)
	if err != nil {
		return 0, err
	}
	return backend.DecodeDisplayMode(v)
}

func (b *Backend) DisplaySet(ctx context.Context, op *backend.Operation, s backend.DisplayState) error {
	idx, err := backend.EncodeDisplayMode(s)
	if err != nil {
		log.Printf("nbsmi: display mode %v is unsupported", s)
		return err
	}
	return b.ByteWrite(ctx, op, idx)
}
