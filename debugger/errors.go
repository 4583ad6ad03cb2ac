// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package debugger

import (
	"errors"

	"github.com/MHohenberg/pico2-swd-riscv/dap"
	"github.com/MHohenberg/pico2-swd-riscv/dmi"
	"github.com/MHohenberg/pico2-swd-riscv/riscv"
	"github.com/MHohenberg/pico2-swd-riscv/swd"
)

// Err is the stable session-level error taxonomy of spec.md §6/§7. Every
// Session method returns one of these (possibly wrapping a richer cause
// via errors.Is/errors.As).
type Err int

const (
	OK Err = iota
	Timeout
	Fault
	Protocol
	Parity
	Wait
	NotConnected
	NotHalted
	AlreadyHalted
	InvalidState
	NoMemory
	InvalidConfig
	ResourceBusy
	InvalidParam
	NotInitialized
	AbstractCmd
	Bus
	Alignment
	Verify
)

var errNames = [...]string{
	"ok", "timeout", "fault", "protocol", "parity", "wait", "not connected",
	"not halted", "already halted", "invalid state", "no memory",
	"invalid config", "resource busy", "invalid param", "not initialized",
	"abstract command error", "bus error", "misaligned access",
	"verify failed",
}

func (e Err) String() string {
	if int(e) < 0 || int(e) >= len(errNames) {
		return "unknown error"
	}
	return errNames[e]
}

// Error implements the error interface so Err can be returned directly
// from Session methods, per spec.md §6's "stable numbering" taxonomy.
func (e Err) Error() string {
	return "debugger: " + e.String()
}

// sessionError pairs a stable Err tag with the original layered cause, so
// callers can branch on the tag (errors.Is(err, debugger.NotHalted)) while
// errors.As/errors.Unwrap still reaches the original swd/dap/dmi/riscv
// error for diagnostics.
type sessionError struct {
	tag   Err
	cause error
}

func (e *sessionError) Error() string { return e.cause.Error() }
func (e *sessionError) Unwrap() error { return e.cause }
func (e *sessionError) Is(target error) bool {
	t, ok := target.(Err)
	return ok && t == e.tag
}

// wrap classifies err and pairs it with its tag, or returns nil.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	return &sessionError{tag: classify(err), cause: err}
}

// classify maps an error from swd/dap/dmi/riscv into the stable Err
// taxonomy. Structured causes (FaultError, AbstractCmdError, BusError) are
// classified by their sentinel, not unwrapped further — callers needing
// the numeric cause use errors.As on the original error, not on Err.
func classify(err error) Err {
	if err == nil {
		return OK
	}
	if e, ok := err.(Err); ok {
		return e
	}
	var se *sessionError
	if errors.As(err, &se) {
		return se.tag
	}
	switch {
	case errors.Is(err, swd.ErrWait):
		return Wait
	case errors.Is(err, swd.ErrParity):
		return Parity
	case errors.Is(err, swd.ErrFault), errors.Is(err, dap.ErrFault):
		return Fault
	case errors.Is(err, swd.ErrProtocol):
		return Protocol
	case errors.Is(err, dap.ErrConnect):
		return NotConnected
	case errors.Is(err, dap.ErrTimeout), errors.Is(err, dmi.ErrBusyExhausted), errors.Is(err, riscv.ErrTimeout):
		return Timeout
	case errors.Is(err, dmi.ErrProtocolError):
		return Protocol
	case errors.Is(err, riscv.ErrNotInitialized):
		return NotInitialized
	case errors.Is(err, riscv.ErrAlreadyHalted):
		return AlreadyHalted
	case errors.Is(err, riscv.ErrNotHalted):
		return NotHalted
	case errors.Is(err, riscv.ErrAbstractCmd):
		return AbstractCmd
	case errors.Is(err, riscv.ErrBus), errors.Is(err, riscv.ErrNoSBA), errors.Is(err, riscv.ErrNoProgBuf):
		return Bus
	case errors.Is(err, riscv.ErrAlignment):
		return Alignment
	case errors.Is(err, riscv.ErrVerify):
		return Verify
	default:
		return InvalidState
	}
}
