// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package swd implements the bit-serial SWD line engine (L0): waveform
// generation, turnaround, parity, ACK capture, WAIT retry, and line
// reset/dormant-wake, on top of a pio.Engine backend.
//
// Modeled on the bit-serial transaction loops in ftdi/spi.go and
// ftdi/i2c.go: build a small fixed bit sequence, clock it out/in one bit or
// byte at a time, and retry on a busy/wait indication from the far end.
package swd

import (
	"fmt"

	"github.com/MHohenberg/pico2-swd-riscv/internal/pio"
	"periph.io/x/conn/v3/physic"
)

// DefaultRetryBudget is the number of WAIT retries Line.Transact attempts
// before giving up, absent an explicit override.
const DefaultRetryBudget = 16

// idleClocksBetweenRetries is clocked with SWDIO low between WAIT retries,
// per spec.md §4.1.
const idleClocksBetweenRetries = 8

// Line is the L0 line engine: it owns a pio.Engine and implements the SWD
// wire protocol on top of it.
type Line struct {
	eng         pio.Engine
	retryBudget int
}

// New wraps eng as a Line with the given WAIT retry budget.
func New(eng pio.Engine, retryBudget int) *Line {
	if retryBudget <= 0 {
		retryBudget = DefaultRetryBudget
	}
	return &Line{eng: eng, retryBudget: retryBudget}
}

// SetFrequency reprograms the underlying engine's clock divider.
func (l *Line) SetFrequency(f physic.Frequency) error {
	return l.eng.SetFrequency(f)
}

// Frequency returns the engine's current clock frequency.
func (l *Line) Frequency() physic.Frequency {
	return l.eng.Frequency()
}

// Transact performs one SWD transaction: the header for req, and if the
// target acks OK, the 32-bit data phase (dataOut on a write, the returned
// value on a read). WAIT acks are retried internally up to the configured
// budget, idling 8 clocks between attempts, as required by spec.md §4.1.
// FAULT and protocol-error acks are returned to the caller without retry —
// recovery (clearing DP sticky bits) is the dap package's responsibility.
func (l *Line) Transact(req Request, dataOut uint32) (ack Ack, dataIn uint32, err error) {
	for attempt := 0; attempt <= l.retryBudget; attempt++ {
		ack, dataIn, err = l.transactOnce(req, dataOut)
		if err != nil {
			return ack, 0, err
		}
		if ack != AckWait {
			return ack, dataIn, nil
		}
		if attempt == l.retryBudget {
			return ack, 0, ErrWait
		}
		if err := l.IdleClocks(idleClocksBetweenRetries); err != nil {
			return ack, 0, err
		}
	}
	return ack, 0, ErrWait
}

func (l *Line) transactOnce(req Request, dataOut uint32) (Ack, uint32, error) {
	if err := l.eng.SetDir(true); err != nil {
		return 0, 0, err
	}
	hdr := req.header()
	for _, b := range hdr {
		if err := l.eng.WriteBit(b); err != nil {
			return 0, 0, err
		}
	}

	// Turnaround: host stops driving, target starts.
	if err := l.eng.SetDir(false); err != nil {
		return 0, 0, err
	}
	if _, err := l.eng.ReadBit(); err != nil { // 1 turnaround clock
		return 0, 0, err
	}

	var ackBits [3]bool
	for i := range ackBits {
		b, err := l.eng.ReadBit()
		if err != nil {
			return 0, 0, err
		}
		ackBits[i] = b
	}
	ack := Ack(b2i(ackBits[0]) | b2i(ackBits[1])<<1 | b2i(ackBits[2])<<2)
	if !ack.valid() {
		return ack, 0, ErrProtocol
	}
	if ack == AckFault {
		// Turnaround back to host and stop; no data phase on FAULT.
		if err := l.turnToHostIfReading(req); err != nil {
			return ack, 0, err
		}
		return ack, 0, ErrFault
	}
	if ack == AckWait {
		if err := l.turnToHostIfReading(req); err != nil {
			return ack, 0, err
		}
		return ack, 0, nil
	}

	if req.RnW {
		var db [32]bool
		for i := range db {
			b, err := l.eng.ReadBit()
			if err != nil {
				return ack, 0, err
			}
			db[i] = b
		}
		parityBit, err := l.eng.ReadBit()
		if err != nil {
			return ack, 0, err
		}
		// Turnaround back to host driving.
		if err := l.eng.SetDir(false); err != nil {
			return ack, 0, err
		}
		if _, err := l.eng.ReadBit(); err != nil {
			return ack, 0, err
		}
		value := wordFromBitsLSBFirst(db)
		if parityBit != dataParity(value) {
			return ack, value, ErrParity
		}
		return ack, value, nil
	}

	// Write: one more turnaround bit (still input), then drive data+parity.
	if _, err := l.eng.ReadBit(); err != nil {
		return ack, 0, err
	}
	if err := l.eng.SetDir(true); err != nil {
		return ack, 0, err
	}
	for _, b := range bitsLSBFirst(dataOut) {
		if err := l.eng.WriteBit(b); err != nil {
			return ack, 0, err
		}
	}
	if err := l.eng.WriteBit(dataParity(dataOut)); err != nil {
		return ack, 0, err
	}
	return ack, 0, nil
}

// turnToHostIfReading clocks the single turnaround bit needed to return
// SWDIO to host-driven after a FAULT/WAIT ack. The target was driving the
// line during the ACK phase regardless of req.RnW, so this is unconditional
// on the request direction.
func (l *Line) turnToHostIfReading(_ Request) error {
	if err := l.eng.SetDir(false); err != nil {
		return err
	}
	if _, err := l.eng.ReadBit(); err != nil {
		return err
	}
	return l.eng.SetDir(true)
}

func b2i(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// IdleClocks clocks n bits with SWDIO held low, used between WAIT retries
// and as part of LineReset.
func (l *Line) IdleClocks(n int) error {
	if err := l.eng.SetDir(true); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := l.eng.WriteBit(false); err != nil {
			return err
		}
	}
	return nil
}

// LineReset clocks >=50 bits with SWDIO high, followed by >=2 idle clocks,
// per spec.md §4.1/§6. Used by the connect sequence and by Disconnect; no
// caller issues it after a protocol error.
func (l *Line) LineReset() error {
	if err := l.eng.SetDir(true); err != nil {
		return err
	}
	for i := 0; i < 50; i++ {
		if err := l.eng.WriteBit(true); err != nil {
			return fmt.Errorf("swd: line reset: %w", err)
		}
	}
	return l.IdleClocks(2)
}

// Close releases the underlying engine.
func (l *Line) Close() error {
	return l.eng.Close()
}
