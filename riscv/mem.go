// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package riscv

// ReadMem32 reads one 32-bit word at addr, routing through System Bus
// Access when available and falling back to the program-buffer driver on
// hart h otherwise, per spec.md §4.4.6. The SBA path operates on the
// system bus directly and is non-intrusive: it does not require, and does
// not disturb, h's run state. The program-buffer fallback executes
// instructions on h and therefore does require h halted.
func (m *Module) ReadMem32(h int, addr uint32) (uint32, error) {
	if m.sbaSize > 0 {
		if err := m.checkHart(h); err != nil {
			return 0, err
		}
		return m.readMem32SBA(addr)
	}
	if err := m.requireHalted(h); err != nil {
		return 0, err
	}
	return m.readMem32ProgBuf(h, addr)
}

// WriteMem32 writes value to addr, using the same routing policy as
// ReadMem32.
func (m *Module) WriteMem32(h int, addr, value uint32) error {
	if m.sbaSize > 0 {
		if err := m.checkHart(h); err != nil {
			return err
		}
		return m.writeMem32SBA(addr, value)
	}
	if err := m.requireHalted(h); err != nil {
		return err
	}
	return m.writeMem32ProgBuf(h, addr, value)
}

// ReadMemBlock reads len(out) consecutive 32-bit words starting at addr.
// When SBA is unavailable it falls back to a ReadMem32 loop on halted hart
// h, since the program-buffer driver has no autoincrement idiom of its
// own.
func (m *Module) ReadMemBlock(h int, addr uint32, out []uint32) error {
	if m.sbaSize > 0 {
		if err := m.checkHart(h); err != nil {
			return err
		}
		return m.readMemBlockSBA(addr, out)
	}
	if err := m.requireHalted(h); err != nil {
		return err
	}
	for i := range out {
		v, err := m.readMem32ProgBuf(h, addr+uint32(i)*4)
		if err != nil {
			return err
		}
		out[i] = v
	}
	return nil
}

// WriteMemBlock writes data as consecutive 32-bit words starting at addr,
// with the same SBA/program-buffer fallback as ReadMemBlock.
func (m *Module) WriteMemBlock(h int, addr uint32, data []uint32) error {
	if m.sbaSize > 0 {
		if err := m.checkHart(h); err != nil {
			return err
		}
		return m.writeMemBlockSBA(addr, data)
	}
	if err := m.requireHalted(h); err != nil {
		return err
	}
	for i, v := range data {
		if err := m.writeMem32ProgBuf(h, addr+uint32(i)*4, v); err != nil {
			return err
		}
	}
	return nil
}
