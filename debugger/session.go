// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package debugger implements the L5 target object: session lifecycle,
// configuration validation, PIO slot tracking, and the host API surface
// of spec.md §4.6/§6, composed from swd/dap/dmi/riscv.
package debugger

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/MHohenberg/pico2-swd-riscv/dap"
	"github.com/MHohenberg/pico2-swd-riscv/dmi"
	"github.com/MHohenberg/pico2-swd-riscv/internal/pio"
	"github.com/MHohenberg/pico2-swd-riscv/riscv"
	"github.com/MHohenberg/pico2-swd-riscv/swd"
	"github.com/MHohenberg/pico2-swd-riscv/trace"
)

// powerUpTimeout bounds Connect's CTRL/STAT power-up ack poll.
const powerUpTimeout = 500 * time.Millisecond

// detailBufLen is the size of the textual diagnostic buffer spec.md §7
// mandates: "a 128-byte textual detail buffer overwritten on every non-OK
// result".
const detailBufLen = 128

// Session is the L5 target object: one SWD/RISC-V debug session over a
// claimed PIO slot. The zero value is not usable; construct with New.
//
// Session implements periph.io/x/conn/v3/conn.Resource (String, Halt),
// mirroring every Dev in periph-host.
type Session struct {
	tracker *pio.Tracker
	slot    pio.Slot
	eng     pio.Engine

	line *swd.Line
	dap  *dap.Session
	dmi  *dmi.Transport
	dm   *riscv.Module

	connected bool
	closed    bool

	detail [detailBufLen]byte
}

// New validates cfg, acquires a PIO slot (a specific one if cfg.Slot is
// set, otherwise any free slot), and builds the driver stack without
// connecting, per spec.md §4.6. The session must be released with Close.
func New(cfg Config) (*Session, error) {
	return newWithTracker(cfg, pio.Default())
}

func newWithTracker(cfg Config, tracker *pio.Tracker) (*Session, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	s := &Session{tracker: tracker}
	owner := fmt.Sprintf("%s/%s", cfg.Clk.Name(), cfg.Dio.Name())
	if cfg.Slot != nil {
		if err := tracker.Acquire(*cfg.Slot, owner); err != nil {
			return nil, fmt.Errorf("%w: %v", ResourceBusy, err)
		}
		s.slot = *cfg.Slot
	} else {
		slot, err := tracker.AcquireAny(owner)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ResourceBusy, err)
		}
		s.slot = slot
	}

	eng, err := pio.NewSoftEngine(cfg.Clk, cfg.Dio)
	if err != nil {
		tracker.Release(s.slot)
		return nil, fmt.Errorf("%w: %v", InvalidConfig, err)
	}
	if err := eng.SetFrequency(cfg.frequencyOrDefault()); err != nil {
		tracker.Release(s.slot)
		return nil, fmt.Errorf("%w: %v", InvalidConfig, err)
	}
	s.eng = eng
	s.line = swd.New(eng, swd.DefaultRetryBudget)
	s.dap = dap.New(s.line)
	s.dmi = dmi.New(s.dap, cfg.apsel())
	s.dm = riscv.New(s.dmi)
	return s, nil
}

// String implements conn.Resource.
func (s *Session) String() string {
	state := "disconnected"
	if s.closed {
		state = "closed"
	} else if s.connected {
		state = "connected"
	}
	return fmt.Sprintf("debugger(%s, %s)", s.slot, state)
}

// Halt implements conn.Resource by disconnecting the session; it does not
// release the slot (Close does both).
func (s *Session) Halt() error {
	if !s.connected {
		return nil
	}
	return s.Disconnect()
}

// Close disconnects if connected, releases the PIO slot, clears the
// diagnostic detail, and closes the underlying engine. It is idempotent:
// calling Close twice, or on an already-disconnected session, is safe.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	var err error
	if s.connected {
		err = s.Disconnect()
	}
	s.detail = [detailBufLen]byte{}
	s.tracker.Release(s.slot)
	if cerr := s.eng.Close(); err == nil {
		err = cerr
	}
	s.closed = true
	return err
}

func (s *Session) recordDetail(err error) error {
	wrapped := wrap(err)
	if wrapped == nil {
		return nil
	}
	msg := wrapped.Error()
	n := copy(s.detail[:], msg)
	for i := n; i < len(s.detail); i++ {
		s.detail[i] = 0
	}
	return wrapped
}

// LastDetail returns the human-diagnostic text recorded by the most recent
// non-OK result, per spec.md §7. Machine logic must not branch on this
// string; use the returned Err instead.
func (s *Session) LastDetail() string {
	n := 0
	for n < len(s.detail) && s.detail[n] != 0 {
		n++
	}
	return string(s.detail[:n])
}

// Connect performs the ADIv5 connect sequence and returns the target's
// IDCODE.
func (s *Session) Connect() (uint32, error) {
	idcode, err := s.dap.Connect(powerUpTimeout)
	if err != nil {
		return 0, s.recordDetail(err)
	}
	s.connected = true
	return idcode, nil
}

// Disconnect tears down the SWD connection. Safe to call when not
// connected.
func (s *Session) Disconnect() error {
	if !s.connected {
		return nil
	}
	err := s.dap.Disconnect()
	s.connected = false
	return s.recordDetail(err)
}

// SetFrequency reprograms the line engine's clock divider, per spec.md
// §4.6. Permitted while connected.
func (s *Session) SetFrequency(freq physic.Frequency) error {
	return s.recordDetail(s.eng.SetFrequency(freq))
}

// ReadIDCode re-reads DP IDCODE without a full connect sequence.
func (s *Session) ReadIDCode() (uint32, error) {
	if !s.connected {
		return 0, s.recordDetail(NotConnected)
	}
	v, err := s.dap.ReadIDCode()
	return v, s.recordDetail(err)
}

// DMInit brings up the RISC-V Debug Module, per spec.md §4.4.1.
func (s *Session) DMInit() error {
	if !s.connected {
		return s.recordDetail(NotConnected)
	}
	return s.recordDetail(s.dm.Init())
}

// HaltHart halts hart h. Named distinctly from Halt (which implements
// conn.Resource and disconnects the whole session) to avoid a collision
// with a per-hart operation of the same name in spec.md §6.
func (s *Session) HaltHart(h int) error {
	return s.recordDetail(s.dm.Halt(h))
}

// Resume resumes hart h.
func (s *Session) Resume(h int) error {
	return s.recordDetail(s.dm.Resume(h))
}

// Step single-steps hart h.
func (s *Session) Step(h int) error {
	return s.recordDetail(s.dm.Step(h))
}

// Reset resets hart h, optionally halting it at the reset vector.
func (s *Session) Reset(h int, haltAfter bool) error {
	return s.recordDetail(s.dm.Reset(h, haltAfter))
}

// ReadReg reads GPR gpr of halted hart h.
func (s *Session) ReadReg(h int, gpr uint32) (uint32, error) {
	v, err := s.dm.ReadReg(h, gpr)
	return v, s.recordDetail(err)
}

// WriteReg writes GPR gpr of halted hart h.
func (s *Session) WriteReg(h int, gpr, value uint32) error {
	return s.recordDetail(s.dm.WriteReg(h, gpr, value))
}

// ReadAllGPRs reads x0-x31 of halted hart h.
func (s *Session) ReadAllGPRs(h int) ([32]uint32, error) {
	v, err := s.dm.ReadAllGPRs(h)
	return v, s.recordDetail(err)
}

// ReadCSR reads CSR csr of halted hart h.
func (s *Session) ReadCSR(h int, csr uint32) (uint32, error) {
	v, err := s.dm.ReadCSR(h, csr)
	return v, s.recordDetail(err)
}

// WriteCSR writes CSR csr of halted hart h.
func (s *Session) WriteCSR(h int, csr, value uint32) error {
	return s.recordDetail(s.dm.WriteCSR(h, csr, value))
}

// ReadMem32 reads one word at addr. Routed through System Bus Access when
// the target supports it, this does not require h halted and does not
// disturb its run state. When SBA is unavailable it uses the
// program-buffer driver, which requires h already halted and returns
// NotHalted otherwise; it never halts h itself.
func (s *Session) ReadMem32(h int, addr uint32) (uint32, error) {
	v, err := s.dm.ReadMem32(h, addr)
	return v, s.recordDetail(err)
}

// WriteMem32 writes one word to addr, with the same SBA-preferred,
// non-intrusive routing as ReadMem32.
func (s *Session) WriteMem32(h int, addr, value uint32) error {
	return s.recordDetail(s.dm.WriteMem32(h, addr, value))
}

// ReadMemBlock reads len(out) consecutive words starting at addr, with the
// same routing as ReadMem32.
func (s *Session) ReadMemBlock(h int, addr uint32, out []uint32) error {
	return s.recordDetail(s.dm.ReadMemBlock(h, addr, out))
}

// WriteMemBlock writes data as consecutive words starting at addr, with
// the same routing as ReadMem32.
func (s *Session) WriteMemBlock(h int, addr uint32, data []uint32) error {
	return s.recordDetail(s.dm.WriteMemBlock(h, addr, data))
}

// Trace runs the step-and-observe tracing loop of spec.md §4.5 on halted
// hart h.
func (s *Session) Trace(h int, max int, cb trace.Callback, opts trace.Options) (int, error) {
	n, err := trace.Trace(s.dm, h, max, cb, opts)
	return n, s.recordDetail(err)
}
