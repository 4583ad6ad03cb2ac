// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pio abstracts the bit-level clocking primitives used by the swd
// package to generate the SWD waveform.
//
// A real target drives these bits from a small program running on a
// programmable I/O (PIO) coprocessor fed through a FIFO, so the host never
// busy-waits individual bits. A host lacking such a coprocessor can
// substitute a software bit-bang implementation over plain GPIOs; the swd
// package is agnostic to which Engine it is handed.
package pio

import (
	"errors"
	"strconv"

	"periph.io/x/conn/v3/physic"
)

// ErrNoEngine is the error for a slot with no backing Engine
// implementation compiled in. No function in this package returns it.
var ErrNoEngine = errors.New("pio: no engine available for this slot")

// Engine is the minimal set of SWCLK/SWDIO primitives a line-engine backend
// must provide. Implementations are not required to be safe for concurrent
// use; the swd package never calls an Engine from more than one goroutine.
type Engine interface {
	// SetFrequency reprograms the clock divider. f is clamped to the
	// implementation's safe range; callers should treat the clamp as
	// advisory and not depend on the exact resulting frequency.
	SetFrequency(f physic.Frequency) error

	// Frequency returns the last frequency accepted by SetFrequency.
	Frequency() physic.Frequency

	// WriteBit drives SWDIO to the given level and pulses SWCLK once. The
	// caller must have put the engine in output mode via SetDir(true)
	// first.
	WriteBit(b bool) error

	// ReadBit pulses SWCLK once and samples SWDIO. The caller must have
	// put the engine in input mode via SetDir(false) first.
	ReadBit() (bool, error)

	// SetDir switches SWDIO direction without clocking a bit. out==true
	// drives SWDIO as an output; out==false floats it (with pull-up) for
	// sampling. This is the turnaround primitive; the swd package is
	// responsible for clocking the mandated number of turnaround bits
	// around the direction change.
	SetDir(out bool) error

	// Close releases any resources (GPIO claims, PIO state machine) held
	// by the engine. Idempotent.
	Close() error
}

// Slot identifies a (pio_block, state_machine) pair. RP2350 exposes two PIO
// blocks with four state machines each.
type Slot struct {
	Block         int
	StateMachine  int
}

// String implements fmt.Stringer.
func (s Slot) String() string {
	return "pio" + strconv.Itoa(s.Block) + "/sm" + strconv.Itoa(s.StateMachine)
}

// AllSlots returns the fixed set of slots RP2350 exposes: 2 PIO blocks, 4
// state machines each.
func AllSlots() []Slot {
	out := make([]Slot, 0, 8)
	for block := 0; block < 2; block++ {
		for sm := 0; sm < 4; sm++ {
			out = append(out, Slot{Block: block, StateMachine: sm})
		}
	}
	return out
}
