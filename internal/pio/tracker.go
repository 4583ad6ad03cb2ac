// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pio

import (
	"fmt"
	"sync"
)

// Tracker is a process-wide registry of which Slot is owned by which
// session. It represents hardware reality: there are exactly 2x4 slots on
// the host MCU, and at most one session may own a given slot at a time.
//
// Tracker mirrors the role periph.io/x/conn/v3/driver/driverreg plays for
// pluggable drivers, re-expressed for a fixed hardware resource table
// instead of a dynamic driver list.
type Tracker struct {
	mu     sync.Mutex
	owners map[Slot]string
}

// NewTracker returns an empty tracker. Production code uses Default(); tests
// construct their own so they never share state with each other or with a
// package-level singleton.
func NewTracker() *Tracker {
	return &Tracker{owners: make(map[Slot]string)}
}

var (
	defaultMu       sync.Mutex
	defaultInstance *Tracker
)

// Default returns the process-wide slot tracker, creating it on first use.
func Default() *Tracker {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInstance == nil {
		defaultInstance = NewTracker()
	}
	return defaultInstance
}

// Acquire claims slot for owner. owner is an opaque identifier (debugger
// passes the clk/dio pin names) used only for diagnostics.
func (t *Tracker) Acquire(slot Slot, owner string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.owners[slot]; ok {
		return fmt.Errorf("pio: slot %s already owned by %s", slot, cur)
	}
	t.owners[slot] = owner
	return nil
}

// AcquireAny claims the first unowned slot from AllSlots(), in order.
func (t *Tracker) AcquireAny(owner string) (Slot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range AllSlots() {
		if _, ok := t.owners[s]; !ok {
			t.owners[s] = owner
			return s, nil
		}
	}
	return Slot{}, fmt.Errorf("pio: no free slot (all %d in use)", len(AllSlots()))
}

// Release frees slot. It is a no-op if the slot is not owned, matching the
// "safe on an already-destroyed handle" requirement one layer up.
func (t *Tracker) Release(slot Slot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.owners, slot)
}

// Owner reports the current owner of slot, if any.
func (t *Tracker) Owner(slot Slot) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.owners[slot]
	return o, ok
}

// ActiveCount returns the number of currently owned slots.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.owners)
}
