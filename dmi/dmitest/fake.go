// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dmitest provides a fake dmi.APAccess backed by an in-memory DMI
// register file, letting swd/dap/pio be skipped entirely when testing the
// dmi package — in the same spirit as periph.io/x/d2xx/d2xxtest's
// Fake device for the ftdi package.
package dmitest

import "fmt"

// Fake models a minimal RP2350 DMI AP: a data register, a control
// register, and a backing DMI register file a test can inspect/prime
// directly via Regs.
type Fake struct {
	Regs map[uint32]uint32

	dataReg    uint32
	pendingOp  uint8
	pendingAddr uint32

	// BusyFor, if set, makes the control register report busy this many
	// times before succeeding, to exercise the retry path.
	BusyFor int
	busySeen int

	// FailStatus, if non-zero, makes the next poll report this status
	// instead of success.
	FailStatus uint8
}

func New() *Fake {
	return &Fake{Regs: make(map[uint32]uint32)}
}

func (f *Fake) ReadAP(apsel, bank, addr uint8) (uint32, error) {
	switch addr {
	case 0x4:
		return f.dataReg, nil
	case 0x8:
		return f.pollControl(), nil
	default:
		return 0, fmt.Errorf("dmitest: unexpected AP addr %#x", addr)
	}
}

func (f *Fake) WriteAP(apsel, bank, addr uint8, value uint32) error {
	switch addr {
	case 0x4:
		f.dataReg = value
		return nil
	case 0x8:
		f.issue(value)
		return nil
	default:
		return fmt.Errorf("dmitest: unexpected AP addr %#x", addr)
	}
}

func (f *Fake) issue(control uint32) {
	f.pendingAddr = control >> 2
	f.pendingOp = uint8(control & 0x3)
	f.busySeen = 0
	switch f.pendingOp {
	case 1: // read
		f.dataReg = f.Regs[f.pendingAddr]
	case 2: // write
		f.Regs[f.pendingAddr] = f.dataReg
	}
}

func (f *Fake) pollControl() uint32 {
	if f.busySeen < f.BusyFor {
		f.busySeen++
		return 3 // busy
	}
	if f.FailStatus != 0 {
		s := f.FailStatus
		f.FailStatus = 0
		return uint32(s)
	}
	return 0 // success
}
