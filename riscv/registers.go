// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package riscv implements the L3 RISC-V External Debug Support (RVDBG
// 0.13) Debug Module driver: hart selection, halt/resume/step/reset, the
// abstract-command and program-buffer drivers, System Bus Access, and
// GPR/CSR/memory accessors, per spec.md §4.4.
package riscv

// Debug Module register addresses, RISC-V Debug Spec 0.13.2 §3.14.
const (
	regData0      = 0x04
	regDMControl  = 0x10
	regDMStatus   = 0x11
	regHartInfo   = 0x12
	regAbstractCS = 0x16
	regCommand    = 0x17
	regProgBuf0   = 0x20
	regSBCS       = 0x38
	regSBAddress0 = 0x39
	regSBData0    = 0x3c
)

// DMCONTROL bit positions.
const (
	dmcHaltReq         = 1 << 31
	dmcResumeReq       = 1 << 30
	dmcHartReset       = 1 << 29
	dmcAckHaveReset    = 1 << 28
	dmcHaSel           = 1 << 26
	dmcHartSelLoShift  = 16
	dmcHartSelLoMask   = 0x3FF << dmcHartSelLoShift
	dmcSetResetHaltReq = 1 << 3
	dmcClrResetHaltReq = 1 << 2
	dmcNdmReset        = 1 << 1
	dmcDMActive        = 1 << 0
)

// DMSTATUS bit positions.
const (
	dmsImpEBreak     = 1 << 22
	dmsAllHaveReset  = 1 << 19
	dmsAnyHaveReset  = 1 << 18
	dmsAllResumeAck  = 1 << 17
	dmsAnyResumeAck  = 1 << 16
	dmsAllNonexist   = 1 << 15
	dmsAnyNonexist   = 1 << 14
	dmsAllUnavail    = 1 << 13
	dmsAnyUnavail    = 1 << 12
	dmsAllRunning    = 1 << 11
	dmsAnyRunning    = 1 << 10
	dmsAllHalted     = 1 << 9
	dmsAnyHalted     = 1 << 8
	dmsHasResetHaltReq = 1 << 5
)

// ABSTRACTCS bit positions.
const (
	absBusyBit      = 1 << 12
	absCmdErrShift  = 8
	absCmdErrMask   = 0x7 << absCmdErrShift
	absCmdErrClear  = 0x7 << absCmdErrShift
	absProgBufSizeShift = 24
	absProgBufSizeMask  = 0x1F << absProgBufSizeShift
	absDataCountMask    = 0xF
)

// COMMAND (cmdtype=0, Access Register) bit positions.
const (
	cmdTypeAccessReg = 0 << 24
	cmdAarSize32     = 2 << 20 // aarsize encodes log2(bits/8): 32 bits -> 2
	cmdPostIncrement = 1 << 19
	cmdPostExec      = 1 << 18
	cmdTransfer      = 1 << 17
	cmdWrite         = 1 << 16
)

// GPR/CSR regno encoding for Access Register commands, RISC-V Debug Spec
// §3.7.1.1: GPRs are 0x1000+regnum, CSRs are the raw CSR address.
const (
	regnoGPRBase = 0x1000
	csrDPC       = 0x7b1
	csrDCSR      = 0x7b0
)

// DCSR bit positions, RISC-V Debug Spec §4.8.
const (
	dcsrStep = 1 << 2
)

// SBCS bit positions.
const (
	sbcsBusyError    = 1 << 22
	sbcsBusy         = 1 << 21
	sbcsReadOnAddr   = 1 << 20
	sbcsAccess32     = 2 << 17
	sbcsAutoIncrement = 1 << 16
	sbcsReadOnData   = 1 << 15
	sbcsErrorShift   = 12
	sbcsErrorMask    = 0x7 << sbcsErrorShift
	sbcsErrorClear   = 0x7 << sbcsErrorShift
)

// AbstractCS cmderr values, RISC-V Debug Spec §3.12.4.
const (
	CmdErrNone         = 0
	CmdErrBusy         = 1
	CmdErrNotSupported = 2
	CmdErrException    = 3
	CmdErrHaltResume   = 4
	CmdErrBusError     = 5
	CmdErrOther        = 7
)
