// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "errors"

// Sentinel errors returned by Line. Higher layers (dap, debugger) translate
// these into the stable error taxonomy of spec.md §6 via errors.Is.
var (
	// ErrProtocol is returned when the target drives an ACK bit pattern
	// other than OK/WAIT/FAULT.
	ErrProtocol = errors.New("swd: protocol error (invalid ack)")
	// ErrWait is returned when the WAIT retry budget is exhausted.
	ErrWait = errors.New("swd: wait retry budget exhausted")
	// ErrFault is returned when the target acks FAULT.
	ErrFault = errors.New("swd: ack fault")
	// ErrParity is returned when a read's data parity bit does not match
	// the 32 data bits received.
	ErrParity = errors.New("swd: data parity mismatch")
)
