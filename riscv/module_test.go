// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package riscv

import (
	"errors"
	"testing"

	"github.com/MHohenberg/pico2-swd-riscv/riscv/riscvtest"
)

func newInited(t *testing.T) (*Module, *riscvtest.Fake) {
	t.Helper()
	fake := riscvtest.New()
	m := New(fake)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m, fake
}

func TestInitDiscoversCapabilities(t *testing.T) {
	m, _ := newInited(t)
	if m.ProgBufSize() != 2 {
		t.Fatalf("ProgBufSize = %d, want 2", m.ProgBufSize())
	}
	if m.DataCount() != 1 {
		t.Fatalf("DataCount = %d, want 1", m.DataCount())
	}
	if m.SBASize() != 32 {
		t.Fatalf("SBASize = %d, want 32", m.SBASize())
	}
}

func TestHaltResumeRoundTrip(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	hs, err := m.Hart(0)
	if err != nil || !hs.Halted {
		t.Fatalf("Hart(0) = %+v, err=%v, want Halted=true", hs, err)
	}
	if err := m.Halt(0); !errors.Is(err, ErrAlreadyHalted) {
		t.Fatalf("second Halt err = %v, want ErrAlreadyHalted", err)
	}
	if err := m.Resume(0); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	hs, _ = m.Hart(0)
	if hs.Halted {
		t.Fatalf("Hart(0) still Halted after Resume")
	}
}

func TestResumeRequiresHalted(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Resume(0); !errors.Is(err, ErrNotHalted) {
		t.Fatalf("err = %v, want ErrNotHalted", err)
	}
}

func TestStepReHalts(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := m.Step(0); err != nil {
		t.Fatalf("Step: %v", err)
	}
	hs, _ := m.Hart(0)
	if !hs.Halted {
		t.Fatalf("Hart(0) not halted after Step")
	}
}

func TestResetHaltAfter(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Reset(1, true); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	hs, err := m.Hart(1)
	if err != nil || !hs.Halted {
		t.Fatalf("Hart(1) = %+v, err=%v, want Halted=true", hs, err)
	}
}

func TestResetNoHalt(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Reset(0, false); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	hs, _ := m.Hart(0)
	if hs.Halted {
		t.Fatalf("Hart(0) Halted after Reset(haltAfter=false)")
	}
}

func TestRegisterReadWrite(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if got, err := m.ReadReg(0, 0); err != nil || got != 0 {
		t.Fatalf("ReadReg(x0) = %d, %v, want 0, nil", got, err)
	}
	if err := m.WriteReg(0, 0, 0xFFFFFFFF); err != nil {
		t.Fatalf("WriteReg(x0): %v", err)
	}
	if got, _ := m.ReadReg(0, 0); got != 0 {
		t.Fatalf("x0 = %#x after write, want 0", got)
	}
	if err := m.WriteReg(0, 5, 0xCAFEBABE); err != nil {
		t.Fatalf("WriteReg(x5): %v", err)
	}
	got, err := m.ReadReg(0, 5)
	if err != nil || got != 0xCAFEBABE {
		t.Fatalf("ReadReg(x5) = %#x, %v, want 0xCAFEBABE, nil", got, err)
	}
}

func TestDualHartRegisterIsolation(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt(0): %v", err)
	}
	if err := m.Halt(1); err != nil {
		t.Fatalf("Halt(1): %v", err)
	}
	if err := m.WriteReg(0, 10, 111); err != nil {
		t.Fatalf("WriteReg hart0: %v", err)
	}
	if err := m.WriteReg(1, 10, 222); err != nil {
		t.Fatalf("WriteReg hart1: %v", err)
	}
	v0, err := m.ReadReg(0, 10)
	if err != nil || v0 != 111 {
		t.Fatalf("hart0 x10 = %d, %v, want 111", v0, err)
	}
	v1, err := m.ReadReg(1, 10)
	if err != nil || v1 != 222 {
		t.Fatalf("hart1 x10 = %d, %v, want 222", v1, err)
	}
}

func TestReadAllGPRsCaches(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := m.WriteReg(0, 3, 42); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	all, err := m.ReadAllGPRs(0)
	if err != nil {
		t.Fatalf("ReadAllGPRs: %v", err)
	}
	if all[3] != 42 {
		t.Fatalf("all[3] = %d, want 42", all[3])
	}
	if !m.harts[0].cacheValid {
		t.Fatalf("cache not marked valid after ReadAllGPRs")
	}
}

func TestWritePCVerifies(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := m.WritePC(0, 0x20001000); err != nil {
		t.Fatalf("WritePC: %v", err)
	}
	pc, err := m.ReadPC(0)
	if err != nil || pc != 0x20001000 {
		t.Fatalf("ReadPC = %#x, %v, want 0x20001000", pc, err)
	}
}

func TestMem32SBARoundTrip(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := m.WriteMem32(0, 0x20000000, 0x11223344); err != nil {
		t.Fatalf("WriteMem32: %v", err)
	}
	got, err := m.ReadMem32(0, 0x20000000)
	if err != nil || got != 0x11223344 {
		t.Fatalf("ReadMem32 = %#x, %v, want 0x11223344", got, err)
	}
}

func TestMem32ProgBufRoundTrip(t *testing.T) {
	fake := riscvtest.New()
	fake.SBASize = 0
	m := New(fake)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	if err := m.WriteMem32(0, 0x20000010, 0xAABBCCDD); err != nil {
		t.Fatalf("WriteMem32: %v", err)
	}
	got, err := m.ReadMem32(0, 0x20000010)
	if err != nil || got != 0xAABBCCDD {
		t.Fatalf("ReadMem32 = %#x, %v, want 0xAABBCCDD", got, err)
	}
}

func TestReadMemBlockWalkingOnes(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	want := make([]uint32, 32)
	for i := range want {
		want[i] = 1 << uint(i)
	}
	if err := m.WriteMemBlock(0, 0x20010000, want); err != nil {
		t.Fatalf("WriteMemBlock: %v", err)
	}
	got := make([]uint32, len(want))
	if err := m.ReadMemBlock(0, 0x20010000, got); err != nil {
		t.Fatalf("ReadMemBlock: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d = %#x, want %#x", i, got[i], want[i])
		}
	}
}

// TestMemOpsNonIntrusiveOnRunningHart proves spec.md §8's "Non-intrusive
// SBA" property: a running hart must remain running, untouched, when an
// unrelated address is accessed via SBA. The program-buffer fallback, by
// contrast, does require the hart halted, since it executes on it.
func TestMemOpsNonIntrusiveOnRunningHart(t *testing.T) {
	m, _ := newInited(t)
	hs, err := m.Hart(0)
	if err != nil || hs.Halted {
		t.Fatalf("Hart(0) = %+v, err=%v, want a running hart to start", hs, err)
	}
	if err := m.WriteMem32(0, 0x20000000, 0x11223344); err != nil {
		t.Fatalf("WriteMem32 on running hart: %v", err)
	}
	got, err := m.ReadMem32(0, 0x20000000)
	if err != nil || got != 0x11223344 {
		t.Fatalf("ReadMem32 = %#x, %v, want 0x11223344, nil", got, err)
	}
	hs, err = m.Hart(0)
	if err != nil || hs.Halted {
		t.Fatalf("Hart(0) = %+v, err=%v, want still running after SBA access", hs, err)
	}
}

func TestMemOpsRequireHaltedWithoutSBA(t *testing.T) {
	fake := riscvtest.New()
	fake.SBASize = 0
	m := New(fake)
	if err := m.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := m.ReadMem32(0, 0x20000000); !errors.Is(err, ErrNotHalted) {
		t.Fatalf("err = %v, want ErrNotHalted", err)
	}
}

// TestExecuteOnHart mirrors spec.md §8's "run a tiny program on the
// target" scenario: a program written to target memory sets x6 and spins
// in place, and a resume/halt cycle runs it from memory rather than from
// the program buffer; x6 is then read back with an abstract command.
func TestExecuteOnHart(t *testing.T) {
	m, _ := newInited(t)
	const progAddr = 0x20003000
	prog := []uint32{0x09900313, 0x0000006F} // addi x6, x0, 0x099; spin: jal x0, 0
	if err := m.Halt(1); err != nil {
		t.Fatalf("Halt(1): %v", err)
	}
	if err := m.WriteMemBlock(1, progAddr, prog); err != nil {
		t.Fatalf("WriteMemBlock: %v", err)
	}
	if err := m.WriteReg(1, 6, 0); err != nil {
		t.Fatalf("WriteReg(x6=0): %v", err)
	}
	if err := m.WritePC(1, progAddr); err != nil {
		t.Fatalf("WritePC: %v", err)
	}
	if err := m.Resume(1); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if err := m.Halt(1); err != nil {
		t.Fatalf("Halt(1) after run: %v", err)
	}
	got, err := m.ReadReg(1, 6)
	if err != nil || got != 0x00000099 {
		t.Fatalf("x6 = %#x, %v, want 0x99", got, err)
	}
}

// TestMemBlockChecksumFill mirrors spec.md §8's 256KB-fill-and-verify
// scenario at its full 256KB size: a large block is written
// through WriteMemBlock and verified word-for-word through ReadMemBlock,
// exercising the autoincrementing SBA block path over many words.
func TestMemBlockChecksumFill(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(0); err != nil {
		t.Fatalf("Halt: %v", err)
	}
	const words = 65536 // 256KB of word-addressed memory
	data := make([]uint32, words)
	var sum uint32
	for i := range data {
		data[i] = uint32(i)*2654435761 + 1
		sum += data[i]
	}
	const base = 0x20040000
	if err := m.WriteMemBlock(0, base, data); err != nil {
		t.Fatalf("WriteMemBlock: %v", err)
	}
	got := make([]uint32, words)
	if err := m.ReadMemBlock(0, base, got); err != nil {
		t.Fatalf("ReadMemBlock: %v", err)
	}
	var gotSum uint32
	for i, v := range got {
		if v != data[i] {
			t.Fatalf("word %d = %#x, want %#x", i, v, data[i])
		}
		gotSum += v
	}
	if gotSum != sum {
		t.Fatalf("checksum = %#x, want %#x", gotSum, sum)
	}
}

func TestInvalidHart(t *testing.T) {
	m, _ := newInited(t)
	if err := m.Halt(2); err == nil {
		t.Fatalf("Halt(2) succeeded, want error for out-of-range hart")
	}
}
