// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package riscv

import (
	"fmt"
	"time"
)

// NumHarts is the number of RISC-V harts the RP2350 exposes to the debug
// module, per spec.md §1/§3.
const NumHarts = 2

// DMI is the subset of *dmi.Transport a Module needs.
type DMI interface {
	Read(addr uint32) (uint32, error)
	Write(addr uint32, value uint32) error
}

// HartState is the per-hart cached state of spec.md §3. cacheValid implies
// halted && haltStateKnown at the moment it was set; any resume/step/reset/
// GPR-mutating op falsifies it.
type HartState struct {
	Halted         bool
	HaltStateKnown bool

	cachedPC    uint32
	cachedGPRs  [32]uint32
	cacheValid  bool
}

// Module is the L3 Debug Module driver.
type Module struct {
	dmi DMI

	abits       uint
	progBufSize uint
	dataCount   uint
	sbaSize     uint
	hasHartReset bool

	harts [NumHarts]HartState

	curHartSel  int // -1 until the first selectHart
	cacheEnabled bool

	pollTimeout time.Duration
}

// New wraps dmi as a Debug Module driver. Init must be called before any
// other method.
func New(dmi DMI) *Module {
	return &Module{dmi: dmi, abits: 7, curHartSel: -1, cacheEnabled: true, pollTimeout: 2 * time.Second}
}

// DisableCache turns off the per-hart PC/GPR cache, per spec.md §4.4/§9's
// "may be disabled by configuration." Correctness does not depend on it
// being enabled.
func (m *Module) DisableCache() {
	m.cacheEnabled = false
}

// SetPollTimeout overrides the bound used by every busy/status poll loop in
// this package.
func (m *Module) SetPollTimeout(d time.Duration) {
	m.pollTimeout = d
}

// Init brings up the Debug Module per spec.md §4.4.1: sets dmactive, waits
// for the module to become responsive, then discovers progbufsize,
// datacount, and sbasize. It does not discover abits; the DMI transport
// keeps whatever address width it was given.
func (m *Module) Init() error {
	if err := m.dmi.Write(regDMControl, dmcDMActive); err != nil {
		return err
	}
	deadline := time.Now().Add(m.pollTimeout)
	for {
		status, err := m.dmi.Read(regDMStatus)
		if err != nil {
			return err
		}
		if status&(dmsAllRunning|dmsAllHalted) != 0 {
			m.hasHartReset = status&dmsHasResetHaltReq != 0
			break
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}

	abscs, err := m.dmi.Read(regAbstractCS)
	if err != nil {
		return err
	}
	m.progBufSize = uint((abscs & absProgBufSizeMask) >> absProgBufSizeShift)
	m.dataCount = uint(abscs & absDataCountMask)

	sbcs, err := m.dmi.Read(regSBCS)
	if err == nil {
		m.sbaSize = uint((sbcs >> 5) & 0x7F)
	}

	for h := range m.harts {
		m.harts[h] = HartState{}
	}
	return nil
}

// ProgBufSize, DataCount, and SBASize report the capabilities Init
// discovered, for callers that want to branch on them explicitly.
func (m *Module) ProgBufSize() uint { return m.progBufSize }
func (m *Module) DataCount() uint   { return m.dataCount }
func (m *Module) SBASize() uint     { return m.sbaSize }

// Hart returns a copy of hart h's cached state for inspection.
func (m *Module) Hart(h int) (HartState, error) {
	if err := m.checkHart(h); err != nil {
		return HartState{}, err
	}
	return m.harts[h], nil
}

func (m *Module) checkHart(h int) error {
	if h < 0 || h >= NumHarts {
		return fmt.Errorf("riscv: invalid hart %d", h)
	}
	return nil
}

// selectHart routes subsequent DMI ops to hart h via DMCONTROL.hartsel,
// eliding the write if h is already selected — the same elision idiom as
// dap's SELECT cache.
func (m *Module) selectHart(h int) error {
	if err := m.checkHart(h); err != nil {
		return err
	}
	if m.curHartSel == h {
		return nil
	}
	control := uint32(h<<dmcHartSelLoShift) & dmcHartSelLoMask
	control |= dmcDMActive
	if err := m.dmi.Write(regDMControl, control); err != nil {
		return err
	}
	m.curHartSel = h
	return nil
}

func (m *Module) invalidateCache(h int) {
	m.harts[h].cacheValid = false
}

func (m *Module) pollDMStatus(want, mask uint32) error {
	deadline := time.Now().Add(m.pollTimeout)
	for {
		status, err := m.dmi.Read(regDMStatus)
		if err != nil {
			return err
		}
		if status&mask == want {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
	}
}
