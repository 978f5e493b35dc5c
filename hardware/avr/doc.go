// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package avr implements a cycle-accurate interpreter for the subset of the
// ATmega32U4 instruction set and core architecture that Arduboy firmware
// exercises: the 32 general-purpose registers, SREG flags, the data and
// program address spaces, and the single-interrupt-per-cycle dispatch rule.
//
// The core never touches any peripheral register directly. Every access to
// I/O space is routed through a Bus, so the timers, SPI controller and
// other peripherals can be composed around the core without it knowing they
// exist.
package avr
