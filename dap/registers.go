// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dap implements the ARM ADIv5 Debug Access Port session layer
// (L1): connect/disconnect, the SELECT register cache, and typed DP/AP
// reads with posted-read semantics hidden from callers.
//
// Modeled on the session/device object in ftdi/dev.go (mutable cached
// state behind a lifecycle object) and the mode/frequency caching idiom in
// ftdi/spi.go's spiMPSEEPort.Connect, re-purposed for the SELECT register
// instead of an SPI mode word.
package dap

// DP register addresses (used with APnDP=false in a swd.Request).
const (
	DPIDCode   = 0x0 // read-only
	DPAbort    = 0x0 // write-only
	DPCtrlStat = 0x4
	DPSelect   = 0x8
	DPRdBuff   = 0xC // read-only; always returns the result of the last AP read
)

// CTRL/STAT bit positions, per ADIv5.
const (
	CtrlStatCSYSPWRUPACK = 1 << 31
	CtrlStatCSYSPWRUPREQ = 1 << 30
	CtrlStatCDBGPWRUPACK = 1 << 29
	CtrlStatCDBGPWRUPREQ = 1 << 28
	CtrlStatCDBGRSTACK   = 1 << 27
	CtrlStatCDBGRSTREQ   = 1 << 26
	CtrlStatWDataErr     = 1 << 7
	CtrlStatReadOK       = 1 << 6
	CtrlStatStickyErr    = 1 << 5
	CtrlStatStickyCmp    = 1 << 4
	CtrlStatStickyOrun   = 1 << 1
	CtrlStatOrunDetect   = 1 << 0
)

// ABORT register bit positions, per ADIv5.
const (
	AbortDAPAbort  = 1 << 0
	AbortStkCmpClr = 1 << 1
	AbortStkErrClr = 1 << 2
	AbortWDErrClr  = 1 << 3
	AbortOrunErrClr = 1 << 4
)

// abortClearAll clears every sticky bit ABORT can clear, used on connect
// per spec.md §4.2 step 5.
const abortClearAll = AbortStkCmpClr | AbortStkErrClr | AbortWDErrClr | AbortOrunErrClr

// powerUpRequestBits is written to CTRL/STAT to request both power-up
// domains, per spec.md §4.2 step 6.
const powerUpRequestBits = CtrlStatCSYSPWRUPREQ | CtrlStatCDBGPWRUPREQ

// powerUpAckBits is polled for after the request, per spec.md §4.2 step 7.
const powerUpAckBits = CtrlStatCSYSPWRUPACK | CtrlStatCDBGPWRUPACK
