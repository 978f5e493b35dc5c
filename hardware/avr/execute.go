// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package avr

import (
	"github.com/avrsim/core/hardware/decode"
	"github.com/avrsim/core/logger"
)

// executeOne dispatches the instruction at PC, advances PC and returns the
// number of clock cycles it takes, following the ATmega32U4 timing table.
// PC is advanced here rather than by the caller because branches, calls and
// skips all need to set it to something other than "next word".
func (c *Core) executeOne() (uint32, error) {
	i := c.fetch()
	next := c.PC + 1
	if decode.IsTwoWords(i) {
		next = c.PC + 2
	}

	cycles := uint32(1)

	switch i.Op {
	case decode.Nop:
		// one cycle, nothing else.

	case decode.Movw:
		c.R[i.Dst*2] = c.R[i.Src*2]
		c.R[i.Dst*2+1] = c.R[i.Src*2+1]

	case decode.Add, decode.Adc:
		rd, rs := c.R[i.Dst], c.R[i.Src]
		carry := uint8(0)
		if i.Op == decode.Adc && c.flag(FlagC) {
			carry = 1
		}
		result := rd + rs + carry
		addFlags(&c.SREG, rd, rs, result)
		c.R[i.Dst] = result

	case decode.Sub, decode.Cp:
		rd, rs := c.R[i.Dst], c.R[i.Src]
		result := rd - rs
		subFlags(&c.SREG, rd, rs, result, false)
		if i.Op == decode.Sub {
			c.R[i.Dst] = result
		}

	case decode.Sbc, decode.Cpc:
		rd, rs := c.R[i.Dst], c.R[i.Src]
		borrow := uint8(0)
		if c.flag(FlagC) {
			borrow = 1
		}
		result := rd - rs - borrow
		subFlags(&c.SREG, rd, rs, result, true)
		if i.Op == decode.Sbc {
			c.R[i.Dst] = result
		}

	case decode.Subi:
		rd := c.R[i.Dst]
		result := rd - i.Src
		subFlags(&c.SREG, rd, i.Src, result, false)
		c.R[i.Dst] = result

	case decode.Sbci:
		rd := c.R[i.Dst]
		borrow := uint8(0)
		if c.flag(FlagC) {
			borrow = 1
		}
		result := rd - i.Src - borrow
		subFlags(&c.SREG, rd, i.Src, result, true)
		c.R[i.Dst] = result

	case decode.Cpi:
		rd := c.R[i.Dst]
		result := rd - i.Src
		subFlags(&c.SREG, rd, i.Src, result, false)

	case decode.And, decode.Andi:
		rs := i.Src
		if i.Op == decode.And {
			rs = c.R[i.Src]
		}
		result := c.R[i.Dst] & rs
		logicFlags(&c.SREG, result)
		c.R[i.Dst] = result

	case decode.Or, decode.Ori:
		rs := i.Src
		if i.Op == decode.Or {
			rs = c.R[i.Src]
		}
		result := c.R[i.Dst] | rs
		logicFlags(&c.SREG, result)
		c.R[i.Dst] = result

	case decode.Eor:
		result := c.R[i.Dst] ^ c.R[i.Src]
		logicFlags(&c.SREG, result)
		c.R[i.Dst] = result

	case decode.Mov:
		c.R[i.Dst] = c.R[i.Src]

	case decode.Ldi:
		c.R[i.Dst] = i.Src

	case decode.Com:
		result := ^c.R[i.Dst]
		logicFlags(&c.SREG, result)
		setFlag(&c.SREG, FlagC, true)
		c.R[i.Dst] = result

	case decode.Neg:
		rd := c.R[i.Dst]
		result := uint8(0) - rd
		subFlags(&c.SREG, 0, rd, result, false)
		setFlag(&c.SREG, FlagC, result != 0)
		c.R[i.Dst] = result

	case decode.Swap:
		rd := c.R[i.Dst]
		c.R[i.Dst] = rd<<4 | rd>>4

	case decode.Inc:
		result := c.R[i.Dst] + 1
		setFlag(&c.SREG, FlagV, c.R[i.Dst] == 0x7f)
		setFlag(&c.SREG, FlagN, bit(result, 7))
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = result

	case decode.Dec:
		result := c.R[i.Dst] - 1
		setFlag(&c.SREG, FlagV, c.R[i.Dst] == 0x80)
		setFlag(&c.SREG, FlagN, bit(result, 7))
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = result

	case decode.Asr:
		rd := c.R[i.Dst]
		result := rd>>1 | rd&0x80
		setFlag(&c.SREG, FlagC, rd&1 != 0)
		setFlag(&c.SREG, FlagN, bit(result, 7))
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagV, c.flag(FlagN) != c.flag(FlagC))
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = result

	case decode.Lsr:
		rd := c.R[i.Dst]
		result := rd >> 1
		setFlag(&c.SREG, FlagC, rd&1 != 0)
		setFlag(&c.SREG, FlagN, false)
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagV, c.flag(FlagN) != c.flag(FlagC))
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = result

	case decode.Ror:
		rd := c.R[i.Dst]
		var carryIn uint8
		if c.flag(FlagC) {
			carryIn = 0x80
		}
		result := rd>>1 | carryIn
		setFlag(&c.SREG, FlagC, rd&1 != 0)
		setFlag(&c.SREG, FlagN, bit(result, 7))
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagV, c.flag(FlagN) != c.flag(FlagC))
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = result

	case decode.Adiw, decode.Sbiw:
		lo, hi := c.R[i.Dst], c.R[i.Dst+1]
		v := uint16(lo) | uint16(hi)<<8
		var result uint16
		if i.Op == decode.Adiw {
			result = v + uint16(i.Src)
			setFlag(&c.SREG, FlagC, v > 0xffff-uint16(i.Src) && result < v)
			setFlag(&c.SREG, FlagV, !bit(uint8(v>>8), 7) && bit(uint8(result>>8), 7))
		} else {
			result = v - uint16(i.Src)
			setFlag(&c.SREG, FlagC, v < uint16(i.Src))
			setFlag(&c.SREG, FlagV, bit(uint8(v>>8), 7) && !bit(uint8(result>>8), 7))
		}
		setFlag(&c.SREG, FlagN, bit(uint8(result>>8), 7))
		setFlag(&c.SREG, FlagZ, result == 0)
		setFlag(&c.SREG, FlagS, c.flag(FlagN) != c.flag(FlagV))
		c.R[i.Dst] = uint8(result)
		c.R[i.Dst+1] = uint8(result >> 8)
		cycles = 2

	case decode.Mul:
		result := uint16(c.R[i.Dst]) * uint16(c.R[i.Src])
		c.R[0] = uint8(result)
		c.R[1] = uint8(result >> 8)
		setFlag(&c.SREG, FlagC, result&0x8000 != 0)
		setFlag(&c.SREG, FlagZ, result == 0)
		cycles = 2

	case decode.Muls:
		result := int16(int8(c.R[i.Dst])) * int16(int8(c.R[i.Src]))
		c.R[0] = uint8(result)
		c.R[1] = uint8(result >> 8)
		setFlag(&c.SREG, FlagC, result&(-0x8000) != 0)
		setFlag(&c.SREG, FlagZ, result == 0)
		cycles = 2

	case decode.Mulsu, decode.Fmul, decode.Fmuls, decode.Fmulsu:
		// multiply family used rarely by Arduboy firmware: MULSU and FMULSU
		// are signed*unsigned, FMUL unsigned*unsigned, FMULS signed*signed;
		// the fractional variants shift the product left one bit.
		var result int16
		switch i.Op {
		case decode.Mulsu:
			result = int16(int8(c.R[i.Dst])) * int16(c.R[i.Src])
		case decode.Fmul:
			result = int16(uint16(c.R[i.Dst]) * uint16(c.R[i.Src]))
		case decode.Fmuls:
			result = int16(int8(c.R[i.Dst])) * int16(int8(c.R[i.Src]))
		case decode.Fmulsu:
			result = int16(int8(c.R[i.Dst])) * int16(c.R[i.Src])
		}
		if i.Op != decode.Mulsu {
			setFlag(&c.SREG, FlagC, result&(-0x8000) != 0)
			result <<= 1
		} else {
			setFlag(&c.SREG, FlagC, result&(-0x8000) != 0)
		}
		c.R[0] = uint8(result)
		c.R[1] = uint8(result >> 8)
		setFlag(&c.SREG, FlagZ, result == 0)
		cycles = 2

	case decode.Cpse:
		if c.R[i.Dst] == c.R[i.Src] {
			next, cycles = c.skipOver(next)
		}

	case decode.In:
		c.R[i.Dst] = c.readData(ioLow + uint16(i.Src))

	case decode.Out:
		c.writeData(ioLow+uint16(i.Dst), c.R[i.Src])

	case decode.Bld:
		if c.flag(FlagT) {
			c.R[i.Dst] |= 1 << i.Src
		} else {
			c.R[i.Dst] &^= 1 << i.Src
		}

	case decode.Bst:
		setFlag(&c.SREG, FlagT, bit(c.R[i.Dst], uint(i.Src)))

	case decode.Sbrc, decode.Sbrs:
		want := i.Op == decode.Sbrs
		if bit(c.R[i.Dst], uint(i.Src)) == want {
			next, cycles = c.skipOver(next)
		}

	case decode.Sbic, decode.Sbis:
		v := c.readData(ioLow + uint16(i.Dst))
		want := i.Op == decode.Sbis
		if bit(v, uint(i.Src)) == want {
			next, cycles = c.skipOver(next)
		}

	case decode.Cbi:
		addr := ioLow + uint16(i.Dst)
		c.writeData(addr, c.readData(addr)&^(1<<i.Src))
		cycles = 2

	case decode.Sbi:
		addr := ioLow + uint16(i.Dst)
		c.writeData(addr, c.readData(addr)|1<<i.Src)
		cycles = 2

	case decode.Bset:
		setFlag(&c.SREG, 1<<i.Src, true)

	case decode.Bclr:
		setFlag(&c.SREG, 1<<i.Src, false)

	case decode.Brbs, decode.Brbc:
		want := i.Op == decode.Brbs
		if (c.SREG&(1<<i.Src) != 0) == want {
			next = c.PC + 1 + i.Word
			cycles = 2
		}

	case decode.Rjmp:
		next = c.PC + 1 + i.Word
		cycles = 2

	case decode.Rcall:
		c.pushWord(c.PC + 1)
		next = c.PC + 1 + i.Word
		cycles = 4

	case decode.Jmp:
		next = i.Word
		cycles = 3

	case decode.Call:
		c.pushWord(next)
		next = i.Word
		cycles = 4

	case decode.Ijmp:
		next = uint16(c.R[31])<<8 | uint16(c.R[30])
		cycles = 2

	case decode.Icall:
		c.pushWord(next)
		next = uint16(c.R[31])<<8 | uint16(c.R[30])
		cycles = 3

	case decode.Ret:
		next = c.popWord()
		cycles = 4

	case decode.Reti:
		next = c.popWord()
		setFlag(&c.SREG, FlagI, true)
		cycles = 4

	case decode.Sleep:
		c.Sleeping = true
		c.WakeupCycles = 0

	case decode.PushPop:
		if i.Word != 0 {
			c.pushByte(c.R[i.Src])
		} else {
			c.R[i.Src] = c.popByte()
		}
		cycles = 2

	case decode.LdSt:
		c.execLdSt(i)
		cycles = 2

	case decode.LddStd:
		c.execLddStd(i)
		cycles = 2

	case decode.Lds:
		c.R[i.Dst] = c.readData(i.Word)
		cycles = 2

	case decode.Sts:
		c.writeData(i.Word, c.R[i.Src])
		cycles = 2

	case decode.Lpm:
		addr := uint16(c.R[31])<<8 | uint16(c.R[30])
		var v uint8
		if int(addr) < len(c.Flash) {
			v = c.Flash[addr]
		}
		if i.Word&2 != 0 {
			c.R[0] = v
		} else {
			c.R[i.Dst] = v
			if i.Word&1 != 0 {
				addr++
				c.R[30] = uint8(addr)
				c.R[31] = uint8(addr >> 8)
			}
		}
		cycles = 3

	case decode.Unknown:
		// The core halts in place: pc stays on the unknown word.
		logger.Logf(logger.Allow, "avr", "unknown opcode at word address 0x%04x", c.PC)
		next = c.PC

	default:
		logger.Logf(logger.Allow, "avr", "unimplemented opcode %s at word address 0x%04x", i.Op, c.PC)
	}

	// PC is only as wide as program memory actually is: real silicon's
	// program counter register wraps at the top of flash rather than
	// addressing memory that doesn't exist.
	if n := uint16(len(c.Program)); n > 0 {
		next %= n
	}
	c.PC = next
	return cycles, nil
}

// skipOver returns the PC and cycle count for a taken SBRC/SBRS/CPSE/SBIC/
// SBIS skip: the following instruction is skipped entirely, and costs an
// extra cycle if it is itself two words wide.
func (c *Core) skipOver(next uint16) (uint16, uint32) {
	if int(next) >= len(c.Program) {
		return next, 2
	}
	if decode.IsTwoWords(c.Program[next]) {
		return next + 2, 3
	}
	return next + 1, 2
}

// x/y/z register pair indices into R.
const (
	regX = 26
	regY = 28
	regZ = 30
)

func (c *Core) execLdSt(i decode.Instruction) {
	var pair int
	var preDec, postInc bool
	switch i.Dst {
	case 0x1:
		pair, postInc = regZ, true
	case 0x2:
		pair, preDec = regZ, true
	case 0x9:
		pair, postInc = regY, true
	case 0xa:
		pair, preDec = regY, true
	case 0xc:
		pair = regX
	case 0xd:
		pair, postInc = regX, true
	case 0xe:
		pair, preDec = regX, true
	}
	addr := uint16(c.R[pair+1])<<8 | uint16(c.R[pair])

	if preDec {
		addr--
	}

	store := i.Word != 0
	if store {
		c.writeData(addr, c.R[i.Src])
	} else {
		c.R[i.Src] = c.readData(addr)
	}

	if postInc {
		addr++
	}
	if preDec || postInc {
		c.R[pair] = uint8(addr)
		c.R[pair+1] = uint8(addr >> 8)
	}
}

func (c *Core) execLddStd(i decode.Instruction) {
	pair := regZ
	if i.Word&0x0008 != 0 {
		pair = regY
	}
	base := uint16(c.R[pair+1])<<8 | uint16(c.R[pair])
	addr := base + uint16(i.Dst)
	if i.Word&0x0200 != 0 {
		c.writeData(addr, c.R[i.Src])
	} else {
		c.R[i.Src] = c.readData(addr)
	}
}
