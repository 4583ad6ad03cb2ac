// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import (
	"errors"
	"testing"

	"github.com/MHohenberg/pico2-swd-riscv/internal/pio/piotest"
)

// scriptRead builds the bit stream a target would drive for a successful
// read: 1 turnaround bit, 3 ack bits (OK), 32 data bits LSB-first, 1 parity
// bit, 1 turnaround bit.
func scriptRead(value uint32) []bool {
	out := []bool{false} // turnaround
	// ack = OK = 0b001, LSB first: bit0=1, bit1=0, bit2=0
	out = append(out, true, false, false)
	for i := 0; i < 32; i++ {
		out = append(out, value&(1<<uint(i)) != 0)
	}
	out = append(out, dataParity(value))
	out = append(out, false) // trailing turnaround
	return out
}

func TestTransactReadOK(t *testing.T) {
	fake := piotest.New(scriptRead(0x12345678)...)
	line := New(fake, 4)
	ack, data, err := line.Transact(Request{APnDP: false, RnW: true}, 0)
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if ack != AckOK {
		t.Fatalf("ack = %v, want OK", ack)
	}
	if data != 0x12345678 {
		t.Fatalf("data = %#x, want 0x12345678", data)
	}
}

func TestTransactWriteOK(t *testing.T) {
	// turnaround, ack=OK, turnaround (then host drives data, no target
	// bits to script).
	script := []bool{false, true, false, false, false}
	fake := piotest.New(script...)
	line := New(fake, 4)
	ack, _, err := line.Transact(Request{APnDP: true, RnW: false}, 0xCAFEBABE)
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if ack != AckOK {
		t.Fatalf("ack = %v, want OK", ack)
	}
	// Verify the data phase written matches 0xCAFEBABE LSB-first plus its
	// parity bit, appended after the 8 header bits.
	written := fake.Written[8:]
	if len(written) != 33 {
		t.Fatalf("wrote %d data-phase bits, want 33", len(written))
	}
	got := wordFromBitsLSBFirst([32]bool(written[:32]))
	if got != 0xCAFEBABE {
		t.Fatalf("written data = %#x, want 0xCAFEBABE", got)
	}
	if written[32] != dataParity(0xCAFEBABE) {
		t.Fatalf("written parity bit = %v, want %v", written[32], dataParity(0xCAFEBABE))
	}
}

func TestTransactWaitRetryThenOK(t *testing.T) {
	// First attempt: turnaround, ack=WAIT(0b010 => bit0=0,bit1=1,bit2=0),
	// turnaround. Then 8 idle clocks (host-driven, nothing to script).
	// Second attempt: a full successful read.
	script := []bool{false, false, true, false, false}
	script = append(script, scriptRead(0xAAAAAAAA)...)
	fake := piotest.New(script...)
	line := New(fake, 4)
	ack, data, err := line.Transact(Request{RnW: true}, 0)
	if err != nil {
		t.Fatalf("Transact: %v", err)
	}
	if ack != AckOK || data != 0xAAAAAAAA {
		t.Fatalf("ack=%v data=%#x, want OK/0xAAAAAAAA", ack, data)
	}
}

func TestTransactWaitExhausted(t *testing.T) {
	waitOnce := []bool{false, false, true, false, false}
	var script []bool
	for i := 0; i < 3; i++ {
		script = append(script, waitOnce...)
	}
	fake := piotest.New(script...)
	line := New(fake, 2)
	_, _, err := line.Transact(Request{RnW: true}, 0)
	if !errors.Is(err, ErrWait) {
		t.Fatalf("err = %v, want ErrWait", err)
	}
}

func TestTransactFault(t *testing.T) {
	// turnaround, ack=FAULT = 0b100 => bit0=0,bit1=0,bit2=1, turnaround
	script := []bool{false, false, false, true, false}
	fake := piotest.New(script...)
	line := New(fake, 4)
	ack, _, err := line.Transact(Request{RnW: true}, 0)
	if !errors.Is(err, ErrFault) {
		t.Fatalf("err = %v, want ErrFault", err)
	}
	if ack != AckFault {
		t.Fatalf("ack = %v, want FAULT", ack)
	}
}

func TestTransactProtocolError(t *testing.T) {
	// ack = 0b011 (invalid pattern)
	script := []bool{false, true, true, false}
	fake := piotest.New(script...)
	line := New(fake, 4)
	_, _, err := line.Transact(Request{RnW: true}, 0)
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("err = %v, want ErrProtocol", err)
	}
}

func TestLineResetClocksFiftyTwoHighThenLow(t *testing.T) {
	fake := piotest.New()
	line := New(fake, 4)
	if err := line.LineReset(); err != nil {
		t.Fatalf("LineReset: %v", err)
	}
	if len(fake.Written) != 52 {
		t.Fatalf("wrote %d bits, want 52", len(fake.Written))
	}
	for i := 0; i < 50; i++ {
		if !fake.Written[i] {
			t.Fatalf("bit %d = low, want high", i)
		}
	}
	for i := 50; i < 52; i++ {
		if fake.Written[i] {
			t.Fatalf("idle bit %d = high, want low", i)
		}
	}
}

func TestHeaderParity(t *testing.T) {
	// APnDP=1, RnW=0, A2=1, A3=0 -> parity = 1^0^1^0 = 0
	r := Request{APnDP: true, RnW: false, A2: true, A3: false}
	h := r.header()
	if h[5] != false {
		t.Fatalf("parity bit = %v, want false", h[5])
	}
	if h[0] != true || h[6] != false || h[7] != true {
		t.Fatalf("start/stop/park = %v/%v/%v, want true/false/true", h[0], h[6], h[7])
	}
}
