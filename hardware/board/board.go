// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package board wires a Core together with the timers, SPI master, display
// and FX flash into the handheld it actually emulates, and owns the
// outer per-cycle stepping loop: CPU dispatch, then SPI/timer/display
// advancement in the fixed order the hardware's shared clock domain
// requires, then interrupt dispatch.
package board

import (
	"github.com/avrsim/core/hardware/avr"
	"github.com/avrsim/core/hardware/display"
	"github.com/avrsim/core/hardware/fx"
	"github.com/avrsim/core/hardware/profiler"
	"github.com/avrsim/core/hardware/savedata"
	"github.com/avrsim/core/hardware/spi"
	"github.com/avrsim/core/hardware/timer"
)

// clockHz is the ATmega32U4's nominal clock on Arduboy hardware.
const clockHz = 16_000_000

// maxFrameHistory bounds how many CPU-usage samples Board keeps; once it
// fills, the oldest half is dropped in one slice rather than shifted one
// entry at a time.
const (
	maxFrameHistory   = 65536
	frameHistoryEvict = 32768
)

// Board is a complete, runnable Arduboy FX: CPU, peripherals and glue.
type Board struct {
	CPU     *avr.Core
	SPI     *spi.Master
	Display *display.SSD1306
	FX      *fx.Chip
	Timer0  *timer.Timer8
	Timer1  *timer.Timer16
	Timer3  *timer.Timer16

	Profiler *profiler.Profiler

	EEPROM [1024]byte

	Breakpoints map[uint16]bool

	portB, ddrB, pinB uint8
	portD, ddrD, pinD uint8
	scratch           [0xe0]uint8

	spcr                           uint8
	tccr0a, tccr0b, timsk0         uint8
	tccr1a, tccr1b, tccr1c, timsk1 uint8
	tccr3a, tccr3b, tccr3c, timsk3 uint8

	tifr0Flags uint8

	eecr, eedr           uint8
	eear                 uint16
	eepromWriteBusyUntil uint64

	// pll and adc are out of the display/timing-critical path this core
	// targets (§4, peripheral lock-step list); they are modelled only as
	// inert registers so firmware that pokes them does not get UNKNOWN-ed.
	pllcsr, admux, adcsra uint8

	// psRem carries a sub-cycle picosecond remainder from one Advance call
	// to the next so that repeated short calls don't lose time to integer
	// truncation.
	psRem int64

	// ProfilerEnabled gates whether cycle-usage bookkeeping below runs;
	// the accounting itself is cheap, but a caller profiling nothing can
	// skip it entirely.
	ProfilerEnabled bool

	// FrameBytesTotal is the firmware's declared frame size in display
	// data bytes (1024 for a full 128x64 buffer); reaching it mid-refresh
	// emits a synthetic vsync for firmware that double-buffers out of step
	// with the physical panel refresh.
	FrameBytesTotal       int
	displayBytesThisFrame int

	frameCyclesTotal    uint64
	frameCyclesNonSleep uint64

	frameCPUUsage []float32

	dirtyEEPROM bool

	// EnableStackBreak gates stack-overflow detection: SP dropping below
	// StackFloor pauses the board rather than letting firmware corrupt the
	// register file it's about to spill into.
	EnableStackBreak bool
	StackFloor       uint16

	// Paused is set by a breakpoint or stack-overflow hit and must be
	// cleared by the caller before the next Advance/AdvanceInstr resumes.
	Paused bool

	// ReadBreakpoints and WriteBreakpoints are data-space addresses that
	// pause the board the next time the CPU itself reads or writes them;
	// StepTarget, if non-zero together with StepTargetSet, pauses once PC
	// reaches it.
	ReadBreakpoints  map[uint16]bool
	WriteBreakpoints map[uint16]bool
	StepTarget       uint16
	StepTargetSet    bool

	// fxBaseline is the FX cartridge image exactly as loaded, before any
	// firmware write. The game hash must be computed against this rather
	// than the live fx.Chip.Data, which firmware mutates as it runs —
	// hashing the live array would make a save recorded mid-session fail
	// to match the same cartridge on its next boot.
	fxBaseline []byte
}

// New assembles a Board around a decoded flash image and an FX cartridge
// image (which may be nil if the game uses no FX data).
func New(flash []byte, fxData []byte) *Board {
	b := &Board{
		CPU:              avr.NewCore(flash),
		SPI:              &spi.Master{},
		Display:          display.New(),
		FX:               fx.New(fxData),
		Timer0:           &timer.Timer8{},
		Timer1:           &timer.Timer16{},
		Timer3:           &timer.Timer16{},
		Breakpoints:      make(map[uint16]bool),
		ReadBreakpoints:  make(map[uint16]bool),
		WriteBreakpoints: make(map[uint16]bool),
		ProfilerEnabled:  true,
		FrameBytesTotal:  1024, // full 128x64 GDDRAM in bytes; callers may override
	}
	b.Profiler = profiler.New(len(b.CPU.Program))
	b.fxBaseline = append([]byte(nil), b.FX.Data...)
	b.SPI.Display = b.Display
	b.SPI.FX = b.FX
	b.CPU.ReadHook = b.checkReadBreakpoint
	b.CPU.WriteHook = b.checkWriteBreakpoint
	b.CPU.Reset()
	b.Timer0.Reset()
	b.Timer1.Reset()
	b.Timer3.Reset()
	return b
}

func (b *Board) checkReadBreakpoint(addr uint16) {
	if b.ReadBreakpoints[addr] {
		b.Paused = true
	}
}

func (b *Board) checkWriteBreakpoint(addr uint16) {
	if b.WriteBreakpoints[addr] {
		b.Paused = true
	}
}

// LoadSave restores EEPROM and FX sector contents from a previously saved
// Record, provided it matches the currently loaded cartridge.
func (b *Board) LoadSave(rec savedata.Record) bool {
	if !rec.Matches(b.CPU.Flash, b.fxBaseline) {
		return false
	}
	copy(b.EEPROM[:], rec.EEPROM)
	for sector, data := range rec.FXSectors {
		start := sector * fx.SectorSize
		if start+len(data) <= len(b.FX.Data) {
			copy(b.FX.Data[start:], data)
		}
	}
	return true
}

// Save builds a Record for the cartridge currently loaded, including only
// the FX sectors firmware has actually dirtied.
func (b *Board) Save() savedata.Record {
	rec := savedata.Record{
		GameHash:  savedata.GameHash(b.CPU.Flash, b.fxBaseline),
		EEPROM:    append([]byte(nil), b.EEPROM[:]...),
		FXSectors: make(map[int][]byte),
	}
	for _, sector := range b.FX.DirtySectors() {
		start := sector * fx.SectorSize
		rec.FXSectors[sector] = append([]byte(nil), b.FX.Data[start:start+fx.SectorSize]...)
	}
	return rec
}

// SavedataDirty reports whether EEPROM or any FX sector has been modified
// since the last FlushSave, i.e. whether a caller's next Save would be
// worth persisting.
func (b *Board) SavedataDirty() bool {
	return b.dirtyEEPROM || len(b.FX.DirtySectors()) > 0
}

// FlushSave clears the FX chip's dirty bitset after a caller has persisted
// the result of Save.
func (b *Board) FlushSave() {
	b.FX.ClearDirty()
	b.dirtyEEPROM = false
}

// syncTimers brings both 16-bit timers and Timer0 up to the current cycle
// count; called lazily, right before any read that could observe their
// state, rather than every single clock cycle.
func (b *Board) syncTimers() {
	c := b.CPU.CycleCount
	b.Timer0.CatchUp(c)
	b.Timer1.CatchUp(c)
	b.Timer3.CatchUp(c)
}

func (b *Board) applyWGM16(t *timer.Timer16, tccrA, tccrB uint8) {
	t.WGM = (tccrA & 0x3) | (tccrB&0x18)>>1
}

func (b *Board) tifr0() uint8 {
	b.syncTimers()
	v := b.tifr0Flags
	if b.Timer0.TOV {
		v |= 0x1
	}
	if b.Timer0.OCFA {
		v |= 0x2
	}
	if b.Timer0.OCFB {
		v |= 0x4
	}
	return v
}

func (b *Board) clearTIFR0(v uint8) {
	if v&0x1 != 0 {
		b.Timer0.TOV = false
	}
	if v&0x2 != 0 {
		b.Timer0.OCFA = false
	}
	if v&0x4 != 0 {
		b.Timer0.OCFB = false
	}
}

func (b *Board) tifr16(t *timer.Timer16) uint8 {
	b.syncTimers()
	v := uint8(0)
	if t.TOV {
		v |= 0x1
	}
	if t.OCFA {
		v |= 0x2
	}
	if t.OCFB {
		v |= 0x4
	}
	if t.OCFC {
		v |= 0x8
	}
	if t.ICF {
		v |= 0x20
	}
	return v
}

func (b *Board) clearTIFR16(t *timer.Timer16, v uint8) {
	if v&0x1 != 0 {
		t.TOV = false
	}
	if v&0x2 != 0 {
		t.OCFA = false
	}
	if v&0x4 != 0 {
		t.OCFB = false
	}
	if v&0x8 != 0 {
		t.OCFC = false
	}
	if v&0x20 != 0 {
		t.ICF = false
	}
}
