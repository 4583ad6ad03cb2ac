// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

import "math/bits"

// Ack is the 3-bit acknowledge value a target drives after a request
// header, per spec.md §4.1.
type Ack byte

const (
	// AckOK indicates the access completed.
	AckOK Ack = 0b001
	// AckWait indicates the target was busy; the caller should retry.
	AckWait Ack = 0b010
	// AckFault indicates a sticky error condition on the target.
	AckFault Ack = 0b100
)

func (a Ack) String() string {
	switch a {
	case AckOK:
		return "OK"
	case AckWait:
		return "WAIT"
	case AckFault:
		return "FAULT"
	default:
		return "INVALID"
	}
}

// valid reports whether a is one of the three ack patterns the standard
// defines. Any other 3-bit pattern is a line/protocol error.
func (a Ack) valid() bool {
	switch a {
	case AckOK, AckWait, AckFault:
		return true
	default:
		return false
	}
}

// Request describes one SWD access: Debug Port or Access Port, read or
// write, and the 2-bit register address (A2,A3 — A0,A1 are implied zero by
// the protocol, addressing is word-aligned).
type Request struct {
	APnDP bool // true selects the Access Port, false the Debug Port
	RnW   bool // true is a read, false is a write
	A2    bool
	A3    bool
}

// header builds the 8-bit request header bit-exact per spec.md §4.1:
//
//	1, APnDP, RnW, A2, A3, parity(APnDP^RnW^A2^A3), 0, 1
//
// returned as an array of 8 bools in transmission order (start bit first,
// park bit last), since the line is clocked LSB/start-first.
func (r Request) header() [8]bool {
	parity := r.APnDP != r.RnW
	parity = parity != r.A2
	parity = parity != r.A3
	return [8]bool{
		true,   // start
		r.APnDP,
		r.RnW,
		r.A2,
		r.A3,
		parity,
		false, // stop
		true,  // park
	}
}

// dataParity returns even parity over the 32 data bits: the parity bit
// makes the total number of 1 bits (including itself) even, i.e. the
// parity bit equals the parity of the data word.
func dataParity(data uint32) bool {
	return bits.OnesCount32(data)%2 != 0
}

// bitsLSBFirst returns the 32 bits of v as a [32]bool, LSB first, matching
// the wire order mandated by spec.md §4.1 ("Data: 32 bits LSB-first").
func bitsLSBFirst(v uint32) [32]bool {
	var out [32]bool
	for i := 0; i < 32; i++ {
		out[i] = v&(1<<uint(i)) != 0
	}
	return out
}

// wordFromBitsLSBFirst is the inverse of bitsLSBFirst.
func wordFromBitsLSBFirst(bitsIn [32]bool) uint32 {
	var v uint32
	for i, b := range bitsIn {
		if b {
			v |= 1 << uint(i)
		}
	}
	return v
}
