// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

import (
	"errors"
	"fmt"
)

var (
	// ErrConnect is returned when the connect sequence reads an all-zero or
	// all-one IDCODE. A missing power-up acknowledgement is ErrTimeout.
	ErrConnect = errors.New("dap: connect failed")
	// ErrTimeout is returned when a poll loop (power-up ack) exceeds its
	// bound.
	ErrTimeout = errors.New("dap: timeout")
)

// FaultError reports a classified FAULT ack, carrying the CTRL/STAT sticky
// bits observed so callers can log a precise cause. Its Is method makes
// errors.Is(err, ErrFault) match it; it has no Unwrap.
type FaultError struct {
	StickyErr  bool
	StickyOrun bool
	WDataErr   bool
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("dap: fault (stickyerr=%t stickyorun=%t wdataerr=%t)", e.StickyErr, e.StickyOrun, e.WDataErr)
}

// Is lets errors.Is(err, ErrFault) match any *FaultError.
func (e *FaultError) Is(target error) bool {
	return target == ErrFault
}

// ErrFault is the sentinel FaultError.Is matches against.
var ErrFault = errors.New("dap: fault")
