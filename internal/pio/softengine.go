// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pio

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// minFrequency and maxFrequency bound the advisory clamp applied by
// SetFrequency, matching the 100kHz-2MHz range spec.md §4.1 calls typical.
const (
	minFrequency = 100 * physic.KiloHertz
	maxFrequency = 2 * physic.MegaHertz
)

// SoftEngine bit-bangs SWCLK/SWDIO over two periph.io/x/conn/v3/gpio.PinIO
// pins. It plays the role the spec's design notes (§9) reserve for "a tight
// inline assembly or DMA-driven SPI-like driver" on hosts without a PIO
// coprocessor — the protocol state the swd package maintains is agnostic to
// which Engine backs it.
//
// Modeled on the bit-bang SPI/I²C connections in ftdi/spi.go and
// ftdi/i2c.go, which likewise drive a clocked protocol by toggling a GPIO
// register one bit at a time instead of through dedicated hardware.
type SoftEngine struct {
	clk gpio.PinOut
	dio gpio.PinIO

	freq physic.Frequency
	dir  bool // true == dio currently driven as output
}

// NewSoftEngine wires clk (SWCLK, always an output) and dio (SWDIO,
// bidirectional with pull-up) into a software line-engine backend. dio
// starts in input mode; callers must SetDir(true) before driving it.
func NewSoftEngine(clk gpio.PinOut, dio gpio.PinIO) (*SoftEngine, error) {
	if clk == nil || dio == nil {
		return nil, fmt.Errorf("pio: clk and dio pins must be non-nil")
	}
	if err := clk.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("pio: configure clk: %w", err)
	}
	if err := dio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("pio: configure dio: %w", err)
	}
	return &SoftEngine{clk: clk, dio: dio, freq: 1 * physic.MegaHertz}, nil
}

func (e *SoftEngine) SetFrequency(f physic.Frequency) error {
	if f < minFrequency {
		f = minFrequency
	}
	if f > maxFrequency {
		f = maxFrequency
	}
	e.freq = f
	return nil
}

func (e *SoftEngine) Frequency() physic.Frequency {
	return e.freq
}

func (e *SoftEngine) SetDir(out bool) error {
	if out == e.dir {
		return nil
	}
	if out {
		if err := e.dio.Out(gpio.High); err != nil {
			return fmt.Errorf("pio: dio to output: %w", err)
		}
	} else {
		if err := e.dio.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("pio: dio to input: %w", err)
		}
	}
	e.dir = out
	return nil
}

func (e *SoftEngine) WriteBit(b bool) error {
	if !e.dir {
		return fmt.Errorf("pio: WriteBit called while dio is an input")
	}
	lvl := gpio.Low
	if b {
		lvl = gpio.High
	}
	if err := e.dio.Out(lvl); err != nil {
		return fmt.Errorf("pio: drive dio: %w", err)
	}
	return e.pulse()
}

func (e *SoftEngine) ReadBit() (bool, error) {
	if e.dir {
		return false, fmt.Errorf("pio: ReadBit called while dio is an output")
	}
	if err := e.pulse(); err != nil {
		return false, err
	}
	return e.dio.Read() == gpio.High, nil
}

// pulse drives one SWCLK rising+falling edge. SWD samples on the edge
// mandated by ADIv5; the host side here only needs a symmetric pulse since
// sampling order relative to drive is encoded by caller sequencing
// (WriteBit sets data before the pulse, ReadBit samples after it).
func (e *SoftEngine) pulse() error {
	if err := e.clk.Out(gpio.High); err != nil {
		return fmt.Errorf("pio: clk high: %w", err)
	}
	if err := e.clk.Out(gpio.Low); err != nil {
		return fmt.Errorf("pio: clk low: %w", err)
	}
	return nil
}

func (e *SoftEngine) Close() error {
	_ = e.dio.In(gpio.Float, gpio.NoEdge)
	return e.clk.Out(gpio.Low)
}

var _ Engine = (*SoftEngine)(nil)
