// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package piotest provides a scripted fake pio.Engine for unit tests, in
// the same spirit as periph.io/x/d2xx/d2xxtest's Fake device: a bit stream
// is queued in, a bit stream is played back out, and the test asserts on
// what was written.
package piotest

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Fake is a scripted pio.Engine. WriteBit appends to Written; ReadBit pops
// from ToRead in order; running out of scripted bits is a test bug and
// returns an error rather than silently returning zero.
type Fake struct {
	ToRead  []bool
	Written []bool
	Freq    physic.Frequency
	Dir     bool

	readPos int
}

func New(toRead ...bool) *Fake {
	return &Fake{ToRead: toRead, Freq: 1 * physic.MegaHertz}
}

func (f *Fake) SetFrequency(freq physic.Frequency) error {
	f.Freq = freq
	return nil
}

func (f *Fake) Frequency() physic.Frequency {
	return f.Freq
}

func (f *Fake) SetDir(out bool) error {
	f.Dir = out
	return nil
}

func (f *Fake) WriteBit(b bool) error {
	if !f.Dir {
		return fmt.Errorf("piotest: WriteBit while dir==in")
	}
	f.Written = append(f.Written, b)
	return nil
}

func (f *Fake) ReadBit() (bool, error) {
	if f.Dir {
		return false, fmt.Errorf("piotest: ReadBit while dir==out")
	}
	if f.readPos >= len(f.ToRead) {
		return false, fmt.Errorf("piotest: ToRead exhausted at bit %d", f.readPos)
	}
	b := f.ToRead[f.readPos]
	f.readPos++
	return b, nil
}

func (f *Fake) Close() error {
	return nil
}
