// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package swd

// jtagToDormantAlert is the 128-bit JTAG-to-Dormant selection alert
// sequence defined by ADIv5.2, sent LSB-first per byte like all SWD
// traffic. It is identical regardless of which protocol the target is
// currently in, which is the point: it works whether the target is
// JTAG-active, SWD-active, or already dormant.
var jtagToDormantAlert = [16]byte{
	0x92, 0xF3, 0x09, 0x62, 0x95, 0x2D, 0x85, 0x86,
	0xE9, 0xAF, 0xDD, 0xE3, 0xA2, 0x0E, 0xBC, 0x19,
}

// dormantToSWDActivationCode selects the SWD-DP out of dormant state, per
// ADIv5.2.
const dormantToSWDActivationCode byte = 0x1A

// DormantToSWDWake emits the standardised JTAG-to-Dormant selection alert
// followed by the Dormant-to-SWD activation code and a line reset, per
// spec.md §4.1/§6. The target may already be in any protocol state; this
// sequence is defined to work unconditionally.
func (l *Line) DormantToSWDWake() error {
	if err := l.eng.SetDir(true); err != nil {
		return err
	}
	for _, by := range jtagToDormantAlert {
		for i := 0; i < 8; i++ {
			if err := l.eng.WriteBit(by&(1<<uint(i)) != 0); err != nil {
				return err
			}
		}
	}
	for i := 0; i < 8; i++ {
		if err := l.eng.WriteBit(dormantToSWDActivationCode&(1<<uint(i)) != 0); err != nil {
			return err
		}
	}
	return l.LineReset()
}
