// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

import (
	"errors"
	"time"

	"github.com/MHohenberg/pico2-swd-riscv/swd"
)

// lineEngine is the subset of *swd.Line a Session needs. It exists so
// tests can substitute a scripted fake without driving bits all the way
// through a pio.Engine.
type lineEngine interface {
	Transact(req swd.Request, dataOut uint32) (swd.Ack, uint32, error)
	LineReset() error
	DormantToSWDWake() error
}

// Session is the L1 DAP session: connect/disconnect, SELECT cache, and
// typed DP/AP reads over a lineEngine (normally an *swd.Line).
type Session struct {
	line lineEngine

	sel       selectCache
	poweredUp bool
}

// New wraps line as a DAP session. The session is not connected until
// Connect is called.
func New(line *swd.Line) *Session {
	return &Session{line: line}
}

// PoweredUp reports whether the last Connect observed both power-up acks.
func (s *Session) PoweredUp() bool {
	return s.poweredUp
}

// Connect performs the ADIv5 connect sequence of spec.md §4.2: dormant-to-
// SWD wake, line reset, IDCODE read, ABORT clear, and CTRL/STAT power-up
// request/poll. It returns the target's IDCODE.
func (s *Session) Connect(powerUpTimeout time.Duration) (uint32, error) {
	if err := s.line.DormantToSWDWake(); err != nil {
		return 0, err
	}
	if err := s.line.LineReset(); err != nil {
		return 0, err
	}
	s.sel.invalidate()
	s.poweredUp = false

	idcode, err := s.readDPRaw(DPIDCode)
	if err != nil {
		return 0, err
	}
	if idcode == 0x00000000 || idcode == 0xFFFFFFFF {
		return 0, ErrConnect
	}

	if err := s.writeDPRaw(DPAbort, abortClearAll); err != nil {
		return 0, err
	}

	if err := s.writeDPRaw(DPCtrlStat, powerUpRequestBits); err != nil {
		return 0, err
	}

	deadline := time.Now().Add(powerUpTimeout)
	for {
		ctrlStat, err := s.readDPRaw(DPCtrlStat)
		if err != nil {
			return 0, err
		}
		if ctrlStat&powerUpAckBits == powerUpAckBits {
			s.poweredUp = true
			return idcode, nil
		}
		if time.Now().After(deadline) {
			return 0, ErrTimeout
		}
	}
}

// Disconnect clears the power-up request bits and issues a line reset. It
// does not return SWDIO to input: the line reset ends with the host
// driving SWDIO low, and the pins stay that way until the engine is
// closed.
func (s *Session) Disconnect() error {
	if s.poweredUp {
		if err := s.writeDPRaw(DPCtrlStat, 0); err != nil {
			return err
		}
	}
	s.poweredUp = false
	s.sel.invalidate()
	return s.line.LineReset()
}

// ReadIDCode re-reads DP IDCODE without going through the full connect
// sequence.
func (s *Session) ReadIDCode() (uint32, error) {
	return s.readDPRaw(DPIDCode)
}

// ReadDP reads a Debug Port register. addr must be one of DPCtrlStat,
// DPSelect, DPRdBuff, or DPIDCode.
func (s *Session) ReadDP(addr uint8) (uint32, error) {
	return s.readDPRaw(addr)
}

// WriteDP writes a Debug Port register.
func (s *Session) WriteDP(addr uint8, value uint32) error {
	if err := s.writeDPRaw(addr, value); err != nil {
		return err
	}
	if addr == DPAbort || addr == DPSelect {
		s.sel.invalidate()
	}
	return nil
}

// ReadAP reads an Access Port register. The posted-read dance (the first
// read returns stale data; the real value comes from a follow-up RDBUFF
// read on the DP) is entirely hidden here.
func (s *Session) ReadAP(apsel, bank, addr uint8) (uint32, error) {
	if err := s.ensureSelect(apsel, bank, 0); err != nil {
		return 0, err
	}
	if _, err := s.apTransact(true, addr, 0); err != nil {
		return 0, err
	}
	return s.readDPRaw(DPRdBuff)
}

// WriteAP writes an Access Port register.
func (s *Session) WriteAP(apsel, bank, addr uint8, value uint32) error {
	if err := s.ensureSelect(apsel, bank, 0); err != nil {
		return err
	}
	_, err := s.apTransact(false, addr, value)
	return err
}

func (s *Session) ensureSelect(apsel, bank, ctrlsel uint8) error {
	want := selectValue(apsel, bank, ctrlsel)
	if !s.sel.wanted(want) {
		return nil
	}
	if err := s.writeDPRaw(DPSelect, want); err != nil {
		return err
	}
	s.sel.record(want)
	return nil
}

func (s *Session) readDPRaw(addr uint8) (uint32, error) {
	ack, data, err := s.dpTransact(true, addr, 0)
	if err != nil {
		return 0, s.classify(ack, err)
	}
	return data, nil
}

func (s *Session) writeDPRaw(addr uint8, value uint32) error {
	ack, _, err := s.dpTransact(false, addr, value)
	if err != nil {
		return s.classify(ack, err)
	}
	return nil
}

func (s *Session) dpTransact(rnw bool, addr uint8, dataOut uint32) (swd.Ack, uint32, error) {
	req := swd.Request{APnDP: false, RnW: rnw, A2: addr&0x4 != 0, A3: addr&0x8 != 0}
	return s.line.Transact(req, dataOut)
}

func (s *Session) apTransact(rnw bool, addr uint8, dataOut uint32) (swd.Ack, uint32, error) {
	req := swd.Request{APnDP: true, RnW: rnw, A2: addr&0x4 != 0, A3: addr&0x8 != 0}
	ack, data, err := s.line.Transact(req, dataOut)
	if err != nil {
		return ack, data, s.classify(ack, err)
	}
	return ack, data, nil
}

// classify turns a swd.ErrFault into a *FaultError carrying the CTRL/STAT
// sticky bits, clearing them via ABORT, per spec.md §4.2's fault handling.
// Any other error (protocol, wait-exhausted, parity) passes through
// unchanged — those are not recovered here.
func (s *Session) classify(ack swd.Ack, err error) error {
	if !errors.Is(err, swd.ErrFault) {
		return err
	}
	ctrlStat, readErr := s.readDPRaw(DPCtrlStat)
	fault := &FaultError{}
	clear := uint32(AbortDAPAbort)
	if readErr == nil {
		fault.StickyErr = ctrlStat&CtrlStatStickyErr != 0
		fault.StickyOrun = ctrlStat&CtrlStatStickyOrun != 0
		fault.WDataErr = ctrlStat&CtrlStatWDataErr != 0
		if fault.StickyErr {
			clear |= AbortStkErrClr
		}
		if fault.StickyOrun {
			clear |= AbortOrunErrClr
		}
		if fault.WDataErr {
			clear |= AbortWDErrClr
		}
	} else {
		clear = abortClearAll
	}
	_ = s.writeDPRaw(DPAbort, clear)
	s.sel.invalidate()
	return fault
}
