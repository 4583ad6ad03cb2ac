// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package debugger

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/MHohenberg/pico2-swd-riscv/internal/pio"
)

// defaultAPSel is the APSEL the RP2350 RISC-V DAP lives behind, per
// spec.md §6 ("the implementation treats it as a build-time constant").
const defaultAPSel = 0x01

const (
	minFrequency = 100 * physic.KiloHertz
	maxFrequency = 2 * physic.MegaHertz
)

// Config describes one debug session's physical wiring and defaults,
// mirroring ftdi.SPIConfig's plain-struct, explicitly-validated style
// rather than a flags/env config library.
type Config struct {
	// Clk and Dio are the two GPIOs driving SWCLK and SWDIO. They must be
	// distinct.
	Clk, Dio gpio.PinIO

	// Frequency is the initial SWD clock; New rejects values outside
	// [100kHz, 2MHz] with InvalidConfig. Zero defaults to 1MHz.
	Frequency physic.Frequency

	// Slot requests a specific PIO (or software-engine) slot; the zero
	// value lets New() acquire any free slot from the tracker.
	Slot *pio.Slot

	// APSel overrides defaultAPSel; zero uses the default.
	APSel uint8
}

func (c *Config) validate() error {
	if c.Clk == nil || c.Dio == nil {
		return fmt.Errorf("%w: clk and dio pins are required", InvalidConfig)
	}
	if c.Clk.Name() == c.Dio.Name() {
		return fmt.Errorf("%w: clk and dio must be distinct pins", InvalidConfig)
	}
	if c.Frequency != 0 && (c.Frequency < minFrequency || c.Frequency > maxFrequency) {
		return fmt.Errorf("%w: frequency %s out of range [%s, %s]", InvalidConfig, c.Frequency, minFrequency, maxFrequency)
	}
	return nil
}

func (c *Config) frequencyOrDefault() physic.Frequency {
	if c.Frequency == 0 {
		return physic.MegaHertz
	}
	return c.Frequency
}

func (c *Config) apsel() uint8 {
	if c.APSel == 0 {
		return defaultAPSel
	}
	return c.APSel
}
