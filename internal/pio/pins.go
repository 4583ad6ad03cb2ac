// Copyright 2024 The pico2-swd-riscv Authors.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pio

import "periph.io/x/conn/v3/pin"

// RoleSWCLK and RoleSWDIO name the two physical pin functions a slot's
// software backend binds to, mirroring allwinner's cpupins function-name
// table for a 2x4 hardware layout instead of a SoC header.
const (
	RoleSWCLK pin.Func = "SWCLK"
	RoleSWDIO pin.Func = "SWDIO"
)
