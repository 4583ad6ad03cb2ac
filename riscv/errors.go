// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package riscv

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized names the not-initialized condition for error
	// classification. No Module method returns it: hart operations issued
	// before Init are sent to the target without a check.
	ErrNotInitialized = errors.New("riscv: debug module not initialized")
	// ErrNotHalted is returned when an operation requires the hart to be
	// halted and it is not.
	ErrNotHalted = errors.New("riscv: hart not halted")
	// ErrAlreadyHalted is an informational marker: Halt on an
	// already-halted hart returns this rather than failing.
	ErrAlreadyHalted = errors.New("riscv: hart already halted")
	// ErrTimeout is returned when a poll loop (halt/resume/busy) exceeds
	// its bound.
	ErrTimeout = errors.New("riscv: timeout")
	// ErrBus is returned for a System Bus Access error (sberror != 0).
	ErrBus = errors.New("riscv: bus error")
	// ErrAlignment is returned for a misaligned SBA memory access.
	ErrAlignment = errors.New("riscv: misaligned access")
	// ErrVerify is returned when a write-then-read-back check fails
	// (write_pc's mandated verification).
	ErrVerify = errors.New("riscv: verify failed")
	// ErrNoProgBuf is returned when the program-buffer memory driver is
	// used on a Debug Module that doesn't implement a usable program
	// buffer (progbufsize < 2).
	ErrNoProgBuf = errors.New("riscv: no usable program buffer")
	// ErrNoSBA is returned when the SBA memory driver is used on a Debug
	// Module that doesn't implement System Bus Access.
	ErrNoSBA = errors.New("riscv: no system bus access")
)

// AbstractCmdError reports a nonzero ABSTRACTCS.cmderr, per spec.md §4.4.3.
type AbstractCmdError struct {
	CmdErr uint32
}

func (e *AbstractCmdError) Error() string {
	return fmt.Sprintf("riscv: abstract command error cmderr=%d", e.CmdErr)
}

func (e *AbstractCmdError) Is(target error) bool {
	return target == ErrAbstractCmd
}

// ErrAbstractCmd is the sentinel AbstractCmdError.Is matches against.
var ErrAbstractCmd = errors.New("riscv: abstract command error")

// BusError reports a nonzero SBCS.sberror, per spec.md §4.4.5.
type BusError struct {
	SBError uint32
}

func (e *BusError) Error() string {
	return fmt.Sprintf("riscv: bus error sberror=%d", e.SBError)
}

func (e *BusError) Is(target error) bool {
	return target == ErrBus
}
