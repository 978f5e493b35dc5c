// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package avr

// SREG bit positions.
const (
	FlagC uint8 = 1 << 0
	FlagZ uint8 = 1 << 1
	FlagN uint8 = 1 << 2
	FlagV uint8 = 1 << 3
	FlagS uint8 = 1 << 4
	FlagH uint8 = 1 << 5
	FlagT uint8 = 1 << 6
	FlagI uint8 = 1 << 7
)

func setFlag(sreg *uint8, mask uint8, set bool) {
	if set {
		*sreg |= mask
	} else {
		*sreg &^= mask
	}
}

func bit(v uint8, n uint) bool { return v&(1<<n) != 0 }

// addFlags computes SREG after Rd = Rd + Rs (+carry for ADC), following the
// AVR instruction manual's flag definitions for ADD/ADC.
func addFlags(sreg *uint8, rd, rs, result uint8) {
	h := (bit(rd, 3) && bit(rs, 3)) || (bit(rs, 3) && !bit(result, 3)) || (!bit(result, 3) && bit(rd, 3))
	v := (bit(rd, 7) && bit(rs, 7) && !bit(result, 7)) || (!bit(rd, 7) && !bit(rs, 7) && bit(result, 7))
	n := bit(result, 7)
	c := (bit(rd, 7) && bit(rs, 7)) || (bit(rs, 7) && !bit(result, 7)) || (!bit(result, 7) && bit(rd, 7))
	setFlag(sreg, FlagH, h)
	setFlag(sreg, FlagV, v)
	setFlag(sreg, FlagN, n)
	setFlag(sreg, FlagC, c)
	setFlag(sreg, FlagS, n != v)
	setFlag(sreg, FlagZ, result == 0)
}

// subFlags computes SREG after Rd = Rd - Rs (+borrow for SBC), following the
// manual's flag definitions for SUB/SBC/CP/CPC. zeroSticky is true for SBC
// and CPC, where Z is cleared-if-nonzero-result but otherwise held.
func subFlags(sreg *uint8, rd, rs, result uint8, zeroSticky bool) {
	h := (!bit(rd, 3) && bit(rs, 3)) || (bit(rs, 3) && bit(result, 3)) || (bit(result, 3) && !bit(rd, 3))
	v := (bit(rd, 7) && !bit(rs, 7) && !bit(result, 7)) || (!bit(rd, 7) && bit(rs, 7) && bit(result, 7))
	n := bit(result, 7)
	c := (!bit(rd, 7) && bit(rs, 7)) || (bit(rs, 7) && bit(result, 7)) || (bit(result, 7) && !bit(rd, 7))
	setFlag(sreg, FlagH, h)
	setFlag(sreg, FlagV, v)
	setFlag(sreg, FlagN, n)
	setFlag(sreg, FlagC, c)
	setFlag(sreg, FlagS, n != v)
	if zeroSticky {
		if result != 0 {
			setFlag(sreg, FlagZ, false)
		}
	} else {
		setFlag(sreg, FlagZ, result == 0)
	}
}

// logicFlags computes SREG after a logical op (AND/OR/EOR/COM and the
// immediate forms): V is always cleared, N/S/Z follow the result.
func logicFlags(sreg *uint8, result uint8) {
	setFlag(sreg, FlagV, false)
	setFlag(sreg, FlagN, bit(result, 7))
	setFlag(sreg, FlagS, bit(result, 7))
	setFlag(sreg, FlagZ, result == 0)
}
