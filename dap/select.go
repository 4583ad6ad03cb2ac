// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dap

// selectCache caches the last SELECT value written to the target so
// redundant writes are elided, per spec.md §4.2:
//
//	SELECT = (apsel<<24) | (bank<<4) | ctrlsel
//
// Invariant: after any DP/AP access that changes SELECT, the cached value
// matches hardware; invalidated by any explicit ABORT since a FAULT
// recovery may leave SELECT's effect on the target ambiguous to the host.
type selectCache struct {
	value uint32
	valid bool
}

func selectValue(apsel, bank, ctrlsel uint8) uint32 {
	return uint32(apsel)<<24 | uint32(bank)<<4 | uint32(ctrlsel)
}

// wanted reports whether value differs from the cached one (or the cache
// is not valid at all).
func (c *selectCache) wanted(value uint32) bool {
	return !c.valid || c.value != value
}

func (c *selectCache) record(value uint32) {
	c.value = value
	c.valid = true
}

func (c *selectCache) invalidate() {
	c.valid = false
}
