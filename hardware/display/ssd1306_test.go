// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package display

import "testing"

func sendCommandBytes(s *SSD1306, bytes ...uint8) {
	s.Select()
	s.SetDC(false)
	for _, b := range bytes {
		s.Transfer(b)
	}
}

func sendDataBytes(s *SSD1306, bytes ...uint8) {
	s.SetDC(true)
	for _, b := range bytes {
		s.Transfer(b)
	}
}

func TestNewDefaultsToPageAddressingAndDisplayOff(t *testing.T) {
	s := New()
	if s.addressingMode != addressingPage {
		t.Fatalf("expected page addressing by default")
	}
	if s.displayOn {
		t.Fatalf("expected display off at reset")
	}
}

func TestFillScreenHorizontalAddressing(t *testing.T) {
	s := New()
	sendCommandBytes(s, 0x20, 0x00) // horizontal addressing
	sendCommandBytes(s, 0xaf)       // display on

	sendDataBytes(s, make([]uint8, Width*pages)...)
	for p := 0; p < pages; p++ {
		for c := 0; c < Width; c++ {
			if s.GDDRAM[p][c] != 0 {
				t.Fatalf("expected zeroed GDDRAM at page %d col %d", p, c)
			}
		}
	}

	// Fill with 0xff and confirm cursor wrapped back to page 0 / col 0.
	sendDataBytes(s, repeat(0xff, Width*pages)...)
	for p := 0; p < pages; p++ {
		for c := 0; c < Width; c++ {
			if s.GDDRAM[p][c] != 0xff {
				t.Fatalf("expected filled GDDRAM at page %d col %d", p, c)
			}
		}
	}
}

func repeat(v uint8, n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestPageAddressingWrapsColumnOnly(t *testing.T) {
	s := New()
	sendCommandBytes(s, 0xb2) // page start address 2

	sendDataBytes(s, repeat(0xaa, Width)...)
	for c := 0; c < Width; c++ {
		if s.GDDRAM[2][c] != 0xaa {
			t.Fatalf("expected page 2 filled, col %d = 0x%02x", c, s.GDDRAM[2][c])
		}
	}
	// One more byte should wrap the column back to columnStart, same page.
	sendDataBytes(s, 0x11)
	if s.GDDRAM[2][0] != 0x11 {
		t.Fatalf("expected column wraparound to stay on page 2, got 0x%02x", s.GDDRAM[2][0])
	}
}

func TestCommandArgumentsAssembleAcrossBytes(t *testing.T) {
	s := New()
	sendCommandBytes(s, 0x21, 0x10, 0x20) // set column address 0x10..0x20
	if s.columnStart != 0x10 || s.columnEnd != 0x20 {
		t.Fatalf("expected column range 0x10..0x20, got %d..%d", s.columnStart, s.columnEnd)
	}
}

func TestMidStreamDeselectResetsCommandParser(t *testing.T) {
	a := New()
	b := New()

	// a: full 0x21 column-range command sent in one session.
	sendCommandBytes(a, 0x21, 0x10, 0x20)

	// b: the same command, but interrupted by a deselect/reselect between
	// the opcode and its first argument byte. The parser must restart
	// cleanly rather than misinterpreting the new opcode byte as an
	// argument of the old one.
	b.Select()
	b.SetDC(false)
	b.Transfer(0x21)
	b.Deselect()
	b.Select()
	b.Transfer(0x21)
	b.Transfer(0x10)
	b.Transfer(0x20)

	if a.columnStart != b.columnStart || a.columnEnd != b.columnEnd {
		t.Fatalf("expected equivalent final state: a=%d..%d b=%d..%d",
			a.columnStart, a.columnEnd, b.columnStart, b.columnEnd)
	}
}

func TestRecomputeTimingOnClockDivideCommand(t *testing.T) {
	s := New()
	before := s.psPerClk
	sendCommandBytes(s, 0xd5, 0xf0) // divide ratio 0 (D=1), fOscIndex 15 (fastest)
	if s.psPerClk == before {
		t.Fatalf("expected ps_per_clk to change after 0xD5")
	}
	if s.fOscIndex != 0xf || s.divideRatio != 0x0 {
		t.Fatalf("expected fOscIndex=15 divideRatio=0, got %d/%d", s.fOscIndex, s.divideRatio)
	}
}

func TestRecomputeTimingOnPhaseLengthCommand(t *testing.T) {
	s := New()
	before := s.cyclesPerRow
	sendCommandBytes(s, 0xd9, 0xf1)
	if s.cyclesPerRow == before {
		t.Fatalf("expected cycles_per_row to change after 0xD9")
	}
}

func TestVsyncPulseFiresOnFullRefresh(t *testing.T) {
	s := New()
	sendCommandBytes(s, 0xaf) // display on

	var sawVsync bool
	for i := 0; i < 2_000_000 && !sawVsync; i++ {
		s.Advance(10_000) // 2e10 ps in all: about two frames at reset timing
		if s.TookVsyncPulse() {
			sawVsync = true
		}
	}
	if !sawVsync {
		t.Fatalf("expected a vsync pulse within a generous cycle budget")
	}
}

func TestDisplayOffDoesNotAdvanceRefresh(t *testing.T) {
	s := New() // displayOn defaults false
	for i := 0; i < 1000; i++ {
		s.Advance(1_000_000)
	}
	if s.refreshRow != 0 {
		t.Fatalf("expected refresh counter to stay at 0 while display is off")
	}
}

func TestAllOnOverridesGDDRAM(t *testing.T) {
	s := New()
	sendCommandBytes(s, 0xaf)
	sendCommandBytes(s, 0xa5) // entire display on, ignoring GDDRAM
	for n := 0; n < 200_000; n++ {
		s.Advance(1000)
	}
	if s.Pixels[0][0] == 0 {
		t.Fatalf("expected all-on to light pixel (0,0) despite empty GDDRAM")
	}
}
