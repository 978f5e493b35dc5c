// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package decode

// Opcode identifies the operation of a decoded instruction. The set is
// closed: it covers exactly the AVR instructions that Arduboy firmware is
// observed to use, plus Unknown for everything else.
type Opcode int

// The full set of recognised opcodes.
const (
	Unknown Opcode = iota
	Nop
	Movw

	// register-register arithmetic and logic
	Add
	Adc
	Sub
	Sbc
	And
	Or
	Eor
	Cp
	Cpc
	Cpse
	Mov

	// immediate arithmetic
	Subi
	Sbci
	Andi
	Ori
	Ldi
	Cpi

	Adiw
	Sbiw

	// multiply family
	Mul
	Muls
	Mulsu
	Fmul
	Fmuls
	Fmulsu

	// shifts and unary
	Com
	Neg
	Swap
	Inc
	Dec
	Asr
	Lsr
	Ror

	In
	Out

	Bld
	Bst
	Sbrs
	Sbrc
	Sbic
	Sbis
	Cbi
	Sbi

	Bset
	Bclr

	Brbs
	Brbc

	Rjmp
	Rcall
	Jmp
	Call
	Ijmp
	Icall
	Ret
	Reti

	// load/store via X/Y/Z with post-increment/pre-decrement
	LdSt
	// load/store with displacement (LDD/STD)
	LddStd

	Lds
	Sts

	Lpm

	PushPop

	Sleep
)

var opcodeNames = map[Opcode]string{
	Unknown: "UNKNOWN",
	Nop:     "NOP",
	Movw:    "MOVW",
	Add:     "ADD", Adc: "ADC", Sub: "SUB", Sbc: "SBC",
	And: "AND", Or: "OR", Eor: "EOR",
	Cp: "CP", Cpc: "CPC", Cpse: "CPSE", Mov: "MOV",
	Subi: "SUBI", Sbci: "SBCI", Andi: "ANDI", Ori: "ORI", Ldi: "LDI", Cpi: "CPI",
	Adiw: "ADIW", Sbiw: "SBIW",
	Mul: "MUL", Muls: "MULS", Mulsu: "MULSU",
	Fmul: "FMUL", Fmuls: "FMULS", Fmulsu: "FMULSU",
	Com: "COM", Neg: "NEG", Swap: "SWAP", Inc: "INC", Dec: "DEC",
	Asr: "ASR", Lsr: "LSR", Ror: "ROR",
	In: "IN", Out: "OUT",
	Bld: "BLD", Bst: "BST", Sbrs: "SBRS", Sbrc: "SBRC", Sbic: "SBIC", Sbis: "SBIS",
	Cbi: "CBI", Sbi: "SBI",
	Bset: "BSET", Bclr: "BCLR",
	Brbs: "BRBS", Brbc: "BRBC",
	Rjmp: "RJMP", Rcall: "RCALL", Jmp: "JMP", Call: "CALL",
	Ijmp: "IJMP", Icall: "ICALL", Ret: "RET", Reti: "RETI",
	LdSt: "LD/ST", LddStd: "LDD/STD",
	Lds: "LDS", Sts: "STS",
	Lpm:      "LPM",
	PushPop:  "PUSH/POP",
	Sleep:    "SLEEP",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "UNKNOWN"
}
