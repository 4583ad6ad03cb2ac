// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package trace implements the step-and-observe instruction tracing loop
// of spec.md §4.5, layered on top of a halted riscv.Module hart.
package trace

// Module is the subset of *riscv.Module the tracing loop needs.
type Module interface {
	ReadPC(hart int) (uint32, error)
	ReadInstruction(hart int, pc uint32) (uint32, error)
	ReadAllGPRs(hart int) ([32]uint32, error)
	Step(hart int) error
}

// Record is one traced instruction: the PC it was fetched from, the
// instruction word at that PC, and — when capture was requested — the
// hart's GPR file as observed before that instruction retires.
type Record struct {
	PC          uint32
	Instruction uint32
	Regs        *[32]uint32
}

// Callback is invoked once per traced instruction. Returning false stops
// the trace after this record.
type Callback func(Record) bool

// Options configures a Trace call.
type Options struct {
	// CaptureRegs requests a GPR snapshot on every record.
	CaptureRegs bool
	// RegsScratch, when non-nil and CaptureRegs is true, is reused as the
	// snapshot buffer instead of allocating one per record — the trace
	// loop overwrites it before each callback invocation. Callers that
	// retain a Record past the next callback call must copy it.
	RegsScratch *[32]uint32
}

// Trace runs the step-and-observe loop of spec.md §4.5 on hart h: for up
// to max iterations it reads the PC, reads the instruction word at that PC
// via System Bus Access (never the program buffer, so the read cannot
// itself disturb hart state), optionally snapshots the GPR file, invokes
// cb, and then single-steps. It stops early if cb returns false, and
// returns the number of records delivered. Each record is read strictly
// before the step that advances past the instruction it describes.
//
// Tracing is only well-defined when the target's interrupt sources are
// quiesced, since the read-PC/read-instruction/step sequence is not
// atomic with respect to the hart taking an interrupt between steps.
func Trace(m Module, h int, max int, cb Callback, opts Options) (int, error) {
	scratch := opts.RegsScratch
	if opts.CaptureRegs && scratch == nil {
		scratch = new([32]uint32)
	}
	count := 0
	for i := 0; i < max; i++ {
		pc, err := m.ReadPC(h)
		if err != nil {
			return count, err
		}
		insn, err := m.ReadInstruction(h, pc)
		if err != nil {
			return count, err
		}
		rec := Record{PC: pc, Instruction: insn}
		if opts.CaptureRegs {
			regs, err := m.ReadAllGPRs(h)
			if err != nil {
				return count, err
			}
			*scratch = regs
			rec.Regs = scratch
		}
		count++
		if !cb(rec) {
			return count, nil
		}
		if err := m.Step(h); err != nil {
			return count, err
		}
	}
	return count, nil
}
