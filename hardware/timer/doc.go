// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package timer implements the ATmega32U4's 8-bit (Timer0) and 16-bit
// (Timer1, Timer3) counter/compare peripherals using a lazy catch-up
// scheme: rather than simulating the prescaler every single clock cycle,
// each timer only reconstructs its counter and flag state when something
// actually needs to observe it (a register read or the board's interrupt
// scan), by replaying the prescaler arithmetic across however many cycles
// elapsed since the last catch-up.
package timer
