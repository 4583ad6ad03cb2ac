// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package riscv

import "time"

func (m *Module) buildControl(h int, flags uint32) uint32 {
	return (uint32(h)<<dmcHartSelLoShift)&dmcHartSelLoMask | dmcDMActive | flags
}

// Halt selects hart h and requests it halt, polling DMSTATUS until it
// reports halted, per spec.md §4.4.2. If DMSTATUS already reports h
// halted, Halt records that and returns ErrAlreadyHalted without issuing a
// halt request — callers may treat this as success.
func (m *Module) Halt(h int) error {
	if err := m.selectHart(h); err != nil {
		return err
	}
	status, err := m.dmi.Read(regDMStatus)
	if err != nil {
		return err
	}
	if status&dmsAllHalted != 0 {
		m.harts[h].Halted = true
		m.harts[h].HaltStateKnown = true
		return ErrAlreadyHalted
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, dmcHaltReq)); err != nil {
		return err
	}
	if err := m.pollDMStatus(dmsAllHalted, dmsAllHalted); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, 0)); err != nil {
		return err
	}
	m.harts[h].Halted = true
	m.harts[h].HaltStateKnown = true
	return nil
}

// Resume requires h to be halted, requests resume, and waits for
// allresumeack. It invalidates the hart's cache and falsifies
// HaltStateKnown, per spec.md §4.4.2/§3.
func (m *Module) Resume(h int) error {
	if err := m.requireHalted(h); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, dmcResumeReq)); err != nil {
		return err
	}
	if err := m.pollDMStatus(dmsAllResumeAck, dmsAllResumeAck); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, 0)); err != nil {
		return err
	}
	m.harts[h].Halted = false
	m.harts[h].HaltStateKnown = false
	m.invalidateCache(h)
	return nil
}

// Step requires h to be halted, sets DCSR.step, resumes for exactly one
// instruction, and waits for it to re-halt, per spec.md §4.4.2.
func (m *Module) Step(h int) error {
	if err := m.requireHalted(h); err != nil {
		return err
	}
	dcsr, err := m.readCSRAbstract(h, csrDCSR)
	if err != nil {
		return err
	}
	if err := m.writeCSRAbstract(h, csrDCSR, dcsr|dcsrStep); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, dmcResumeReq)); err != nil {
		return err
	}
	if err := m.pollDMStatus(dmsAllHalted, dmsAllHalted); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, 0)); err != nil {
		return err
	}
	if err := m.writeCSRAbstract(h, csrDCSR, dcsr&^dcsrStep); err != nil {
		return err
	}
	m.harts[h].Halted = true
	m.harts[h].HaltStateKnown = true
	m.invalidateCache(h)
	return nil
}

// Reset asserts ndmreset (or hartreset when the module advertises per-hart
// reset support), optionally arming haltreq first so the hart halts at its
// reset vector, per spec.md §4.4.2.
func (m *Module) Reset(h int, haltAfter bool) error {
	if err := m.selectHart(h); err != nil {
		return err
	}
	flags := uint32(0)
	if haltAfter {
		flags |= dmcSetResetHaltReq
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, flags|m.resetKind())); err != nil {
		return err
	}
	time.Sleep(time.Millisecond)
	if err := m.dmi.Write(regDMControl, m.buildControl(h, flags)); err != nil {
		return err
	}
	if err := m.pollDMStatus(dmsAllHaveReset, dmsAllHaveReset); err != nil {
		return err
	}
	if err := m.dmi.Write(regDMControl, m.buildControl(h, dmcAckHaveReset)); err != nil {
		return err
	}
	m.harts[h].HaltStateKnown = false
	m.invalidateCache(h)
	if haltAfter {
		if err := m.pollDMStatus(dmsAllHalted, dmsAllHalted); err != nil {
			return err
		}
		m.harts[h].Halted = true
		m.harts[h].HaltStateKnown = true
	} else {
		m.harts[h].Halted = false
	}
	return nil
}

// resetKind reports which DMCONTROL reset bit to assert: hartreset when
// Init discovered per-hart reset support, ndmreset otherwise, per
// spec.md §4.4.2's "ndmreset (or hartreset if supported)".
func (m *Module) resetKind() uint32 {
	if m.hasHartReset {
		return dmcHartReset
	}
	return dmcNdmReset
}

func (m *Module) requireHalted(h int) error {
	if err := m.selectHart(h); err != nil {
		return err
	}
	if !m.harts[h].Halted {
		return ErrNotHalted
	}
	return nil
}
