// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package decode

import "sort"

// Instruction is one decoded 16-bit (or 16+16-bit) AVR word.
type Instruction struct {
	Op  Opcode
	Src uint8
	Dst uint8
	// Word carries whatever extra bits a particular opcode needs: a branch
	// offset, an absolute address, an immediate, or a post-increment flag.
	// Its meaning is opcode-specific, matching the AVR manual's encoding.
	Word uint16
}

// Disassembled is one entry in the dense, address-sorted disassembly: one
// record per logical instruction (two-word instructions still occupy a
// single entry).
type Disassembled struct {
	Addr uint16
	Instruction
}

// decodeOne decodes a single 16-bit instruction word w0, given the
// following program word w1 (used only by two-word instructions).
//
// Bit patterns follow the AVR instruction set manual. Conflicting
// overlapping rules are resolved by dispatch order exactly as in the
// reference decoder: later checks can overwrite i.Op set by an earlier,
// looser check, which only matters for reserved/undefined encodings.
func decodeOne(w0, w1 uint16) Instruction {
	var i Instruction

	imm8 := uint8(((w0>>4)&0xf0)|(w0&0xf))
	rdUpper := uint8((w0>>4)&0xf) + 16

	if w0 == 0 {
		i.Op = Nop
	}

	// rjmp / rcall
	if w0&0xe000 == 0xc000 {
		off := w0 & 0xfff
		if off&0x800 != 0 {
			off |= 0xf000
		}
		i.Word = off
		if w0&0x1000 != 0 {
			i.Op = Rcall
		} else {
			i.Op = Rjmp
		}
	}

	// direct register-register addressing
	if w0&0xc000 == 0x0000 {
		src := uint8(((w0>>5)&0x10)|(w0&0xf))
		dst := uint8((w0 >> 4) & 0x1f)
		var op Opcode
		switch (w0 >> 10) & 0xf {
		case 0x0:
			if w0&0x0300 == 0x0100 {
				dst &= 0xf
				op = Movw
			}
		case 0x1:
			op = Cpc
		case 0x2:
			op = Sbc
		case 0x3:
			op = Add
		case 0x4:
			op = Cpse
		case 0x5:
			op = Cp
		case 0x6:
			op = Sub
		case 0x7:
			op = Adc
		case 0x8:
			op = And
		case 0x9:
			op = Eor
		case 0xa:
			op = Or
		case 0xb:
			op = Mov
		}
		if op != Unknown {
			i.Op = op
			i.Src = src
			i.Dst = dst
		}
	}

	// in / out
	if w0&0xf000 == 0xb000 {
		reg := uint8((w0 >> 4) & 0x1f)
		io := uint8(((w0>>5)&0x30)|(w0&0xf))
		if w0&0x0800 != 0 {
			i.Dst, i.Src, i.Op = io, reg, Out
		} else {
			i.Src, i.Dst, i.Op = io, reg, In
		}
	}

	// ldi
	if w0&0xf000 == 0xe000 {
		i.Dst = rdUpper
		i.Src = imm8
		i.Op = Ldi
	}

	// cpi
	if w0&0xf000 == 0x3000 {
		i.Dst = rdUpper
		i.Src = imm8
		i.Op = Cpi
	}

	// lpm (simple, implied r0)
	if w0 == 0x95c8 {
		i.Op = Lpm
		i.Dst = 0
		i.Word = 2 // signifies the simple/implied form
	}

	// lpm (Rd form, optional post-increment)
	if w0&0xfe0e == 0x9004 {
		i.Op = Lpm
		i.Dst = uint8((w0 >> 4) & 0x1f)
		i.Word = w0 & 1
	}

	branch := uint16((w0 >> 3) & 0x7f)
	if branch&0x40 != 0 {
		branch |= 0xff80
	}

	// brbs
	if w0&0xfc00 == 0xf000 {
		i.Src = uint8(w0 & 0x7)
		i.Word = branch
		i.Op = Brbs
	}

	// brbc
	if w0&0xfc00 == 0xf400 {
		i.Src = uint8(w0 & 0x7)
		i.Word = branch
		i.Op = Brbc
	}

	// lds
	if w0&0xfe0f == 0x9000 {
		i.Dst = uint8((w0 >> 4) & 0x1f)
		i.Word = w1
		i.Op = Lds
	}

	// sts
	if w0&0xfe0f == 0x9200 {
		i.Src = uint8((w0 >> 4) & 0x1f)
		i.Word = w1
		i.Op = Sts
	}

	// ldd / std
	if w0&0xd000 == 0x8000 {
		reg := uint8((w0 >> 4) & 0x1f)
		q := uint8((w0&0x7)|((w0>>7)&0x18)|((w0>>8)&0x20))
		i.Src = reg
		i.Dst = q
		i.Word = w0 & 0x0208
		i.Op = LddStd
	}

	// ld/st with post-increment/pre-decrement, and push/pop
	if w0&0xfc00 == 0x9000 {
		reg := uint8((w0 >> 4) & 0x1f)
		n := uint8(w0 & 0xf)
		if n != 0 && n != 11 && (n <= 2 || n >= 9) {
			i.Src = reg
			i.Dst = n
			i.Word = w0 & 0x0200
			if n == 0xf {
				i.Op = PushPop
			} else {
				i.Op = LdSt
			}
		}
	}

	// jmp / call
	if w0&0xfe0c == 0x940c {
		i.Word = w1 & 0x3fff
		if w0&0x2 != 0 {
			i.Op = Call
		} else {
			i.Op = Jmp
		}
	}

	// adiw / sbiw
	if w0&0xfe00 == 0x9600 {
		i.Dst = 24 + uint8((w0>>3)&0x6)
		i.Src = uint8((w0&0xf)|((w0>>2)&0x30))
		if w0&0x0100 != 0 {
			i.Op = Sbiw
		} else {
			i.Op = Adiw
		}
	}

	// subi/sbci/ori/andi
	if w0&0xc000 == 0x4000 {
		i.Src = uint8((w0&0xf)|((w0>>4)&0xf0))
		i.Dst = 16 + uint8((w0>>4)&0xf)
		switch (w0 >> 12) & 0x3 {
		case 0:
			i.Op = Sbci
		case 1:
			i.Op = Subi
		case 2:
			i.Op = Ori
		case 3:
			i.Op = Andi
		}
	}

	// bset/bclr
	if w0&0xff0f == 0x9408 {
		i.Src = uint8((w0 >> 4) & 0x7)
		if w0&0x80 != 0 {
			i.Op = Bclr
		} else {
			i.Op = Bset
		}
	}

	// cbi/sbic/sbi/sbis
	if w0&0xfc00 == 0x9800 {
		n := (w0 >> 8) & 0x3
		i.Dst = uint8((w0 >> 3) & 0x1f)
		i.Src = uint8(w0 & 0x7)
		switch n {
		case 0:
			i.Op = Cbi
		case 1:
			i.Op = Sbic
		case 2:
			i.Op = Sbi
		case 3:
			i.Op = Sbis
		}
	}

	// bld/bst/sbrc/sbrs
	if w0&0xf808 == 0xf800 {
		n := (w0 >> 9) & 0x3
		i.Dst = uint8((w0 >> 4) & 0x1f)
		i.Src = uint8(w0 & 0x7)
		switch n {
		case 0:
			i.Op = Bld
		case 1:
			i.Op = Bst
		case 2:
			i.Op = Sbrc
		case 3:
			i.Op = Sbrs
		}
	}

	switch w0 {
	case 0x9508:
		i.Op = Ret
	case 0x9509:
		i.Op = Icall
	case 0x9518:
		i.Op = Reti
	case 0x9409:
		i.Op = Ijmp
	}

	// single-operand ALU group (COM/NEG/SWAP/INC/ASR/LSR/ROR/DEC)
	if w0&0xfe00 == 0x9400 {
		var op Opcode
		switch w0 & 0xf {
		case 0x0:
			op = Com
		case 0x1:
			op = Neg
		case 0x2:
			op = Swap
		case 0x3:
			op = Inc
		case 0x5:
			op = Asr
		case 0x6:
			op = Lsr
		case 0x7:
			op = Ror
		case 0xa:
			op = Dec
		}
		if op != Unknown {
			i.Op = op
			i.Dst = uint8((w0 >> 4) & 0x1f)
		}
	}

	if w0 == 0x9588 {
		i.Op = Sleep
	}

	// mul
	if w0&0xfc00 == 0x9c00 {
		i.Dst = uint8((w0 >> 4) & 0x1f)
		i.Src = uint8((w0&0xf)|((w0>>5)&0x10))
		i.Op = Mul
	}

	// muls
	if w0&0xff00 == 0x0200 {
		i.Dst = 16 + uint8((w0>>4)&0xf)
		i.Src = 16 + uint8((w0>>0)&0xf)
		i.Op = Muls
	}

	// mulsu / fmul / fmuls / fmulsu
	if w0&0xff00 == 0x0300 {
		n := ((w0 >> 3) & 0x1) | ((w0 >> 6) & 0x2)
		i.Dst = 16 + uint8((w0>>4)&0x7)
		i.Src = 16 + uint8((w0>>0)&0x7)
		switch n {
		case 0:
			i.Op = Mulsu
		case 1:
			i.Op = Fmul
		case 2:
			i.Op = Fmuls
		case 3:
			i.Op = Fmulsu
		}
	}

	return i
}

// IsTwoWords reports whether the instruction occupies two program words
// (JMP, CALL, LDS, STS).
func IsTwoWords(i Instruction) bool {
	switch i.Op {
	case Jmp, Call, Lds, Sts:
		return true
	}
	return false
}

// Program decodes a flash image into one Instruction per 16-bit word.
// Decoding is total: any bit pattern not recognised above decodes to
// Unknown, and Program never fails.
func Program(flash []byte) []Instruction {
	n := len(flash) / 2
	decoded := make([]Instruction, n)
	for i := 0; i < n; i++ {
		w0 := uint16(flash[i*2]) | uint16(flash[i*2+1])<<8
		var w1 uint16
		if i+1 < n {
			w1 = uint16(flash[i*2+2]) | uint16(flash[i*2+3])<<8
		}
		decoded[i] = decodeOne(w0, w1)
	}
	return decoded
}

// Disassemble walks decoded word addresses in order and emits one dense
// entry per logical instruction, skipping the second word of any two-word
// instruction. lastAddr bounds how far the walk proceeds (typically the
// length in bytes of the flash image).
func Disassemble(decoded []Instruction, lastAddr uint16) []Disassembled {
	out := make([]Disassembled, 0, len(decoded))
	addr := uint16(0)
	for addr+1 < lastAddr {
		i := decoded[addr/2]
		out = append(out, Disassembled{Addr: addr, Instruction: i})
		if IsTwoWords(i) {
			addr += 4
		} else {
			addr += 2
		}
	}
	return out
}

// AddrToIndex returns the index into disasm of the entry at addr, using
// binary search over the address-sorted table. If addr does not name the
// start of an instruction, the insertion point is returned (matching the
// semantics of a lower_bound search), clamped to len(disasm).
func AddrToIndex(disasm []Disassembled, addr uint16) int {
	return sort.Search(len(disasm), func(i int) bool {
		return disasm[i].Addr >= addr
	})
}
