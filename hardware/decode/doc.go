// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package decode turns a flash image into a table of decoded AVR
// instructions and a dense, address-sorted disassembly. Decoding is pure
// bit-pattern matching against the subset of the AVR instruction set used by
// Arduboy firmware; it has no dependency on the CPU that will later execute
// the result.
package decode
