// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pio

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// FIFO is the host-facing side of a PIO state machine's TX/RX FIFOs. A real
// implementation maps the RP2350's PIOx_TXF/RXF registers; tests and
// simulations can substitute anything satisfying this interface.
type FIFO interface {
	// PushTX enqueues one 32-bit word for the PIO program to consume.
	// Blocks (bounded by the caller's retry policy one layer up) if the
	// FIFO is full.
	PushTX(word uint32) error
	// PopRX dequeues one 32-bit word produced by the PIO program. Blocks
	// (bounded) if the FIFO is empty.
	PopRX() (uint32, error)
}

// FIFO command words pushed by FIFOEngine. Each Engine call pushes exactly
// one command word; no byte-count word is pushed ahead of a transaction.
const (
	fifoCmdSetDirIn  uint32 = 0
	fifoCmdSetDirOut uint32 = 1
	fifoCmdWriteBit0 uint32 = 2
	fifoCmdWriteBit1 uint32 = 3
	fifoCmdReadBit   uint32 = 4
)

// FIFOEngine drives the Engine contract through a PIO TX/RX FIFO pair,
// modeling the real RP2350 backend: a small PIO program clocks SWCLK/SWDIO
// and the host only ever pushes/pops FIFO words, never busy-waiting
// individual bit times.
type FIFOEngine struct {
	fifo FIFO
	freq physic.Frequency
	dir  bool
}

// NewFIFOEngine wraps fifo (the PIO state machine's FIFO pair) as an
// Engine.
func NewFIFOEngine(fifo FIFO) (*FIFOEngine, error) {
	if fifo == nil {
		return nil, fmt.Errorf("pio: fifo must be non-nil")
	}
	return &FIFOEngine{fifo: fifo, freq: 1 * physic.MegaHertz}, nil
}

func (e *FIFOEngine) SetFrequency(f physic.Frequency) error {
	if f < minFrequency {
		f = minFrequency
	}
	if f > maxFrequency {
		f = maxFrequency
	}
	e.freq = f
	return nil
}

func (e *FIFOEngine) Frequency() physic.Frequency {
	return e.freq
}

func (e *FIFOEngine) SetDir(out bool) error {
	cmd := fifoCmdSetDirIn
	if out {
		cmd = fifoCmdSetDirOut
	}
	if err := e.fifo.PushTX(cmd); err != nil {
		return fmt.Errorf("pio: set dir: %w", err)
	}
	e.dir = out
	return nil
}

func (e *FIFOEngine) WriteBit(b bool) error {
	if !e.dir {
		return fmt.Errorf("pio: WriteBit called while dio is an input")
	}
	cmd := fifoCmdWriteBit0
	if b {
		cmd = fifoCmdWriteBit1
	}
	if err := e.fifo.PushTX(cmd); err != nil {
		return fmt.Errorf("pio: write bit: %w", err)
	}
	return nil
}

func (e *FIFOEngine) ReadBit() (bool, error) {
	if e.dir {
		return false, fmt.Errorf("pio: ReadBit called while dio is an output")
	}
	if err := e.fifo.PushTX(fifoCmdReadBit); err != nil {
		return false, fmt.Errorf("pio: read bit request: %w", err)
	}
	w, err := e.fifo.PopRX()
	if err != nil {
		return false, fmt.Errorf("pio: read bit result: %w", err)
	}
	return w&1 != 0, nil
}

func (e *FIFOEngine) Close() error {
	return nil
}

var _ Engine = (*FIFOEngine)(nil)
