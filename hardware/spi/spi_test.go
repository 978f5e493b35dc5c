// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package spi

import "testing"

type fakeSlave struct {
	selected   bool
	lastOut    uint8
	replyByte  uint8
	selectCnt  int
	deselCnt   int
}

func (f *fakeSlave) Select()   { f.selected = true; f.selectCnt++ }
func (f *fakeSlave) Deselect() { f.selected = false; f.deselCnt++ }
func (f *fakeSlave) Transfer(out uint8) uint8 {
	f.lastOut = out
	return f.replyByte
}

func allPinsHigh() uint8 { return 0xff }

func TestWritePortDSelectsDisplayOnly(t *testing.T) {
	disp := &fakeSlave{}
	fx := &fakeSlave{}
	m := &Master{Display: disp, FX: fx}

	// All CS lines idle high (deselected).
	m.WritePortD(allPinsHigh())
	if disp.selected || fx.selected {
		t.Fatalf("expected both slaves deselected initially")
	}

	// Pull display CS (bit 6) low.
	m.WritePortD(allPinsHigh() &^ (1 << PortDDisplayCS))
	if !disp.selected {
		t.Fatalf("expected display selected")
	}
	if fx.selected {
		t.Fatalf("expected FX still deselected")
	}
}

func TestWritePortDTogglesFXSelect(t *testing.T) {
	fx := &fakeSlave{}
	m := &Master{FX: fx}

	m.WritePortD(allPinsHigh())
	m.WritePortD(allPinsHigh() &^ (1 << PortDFXCS))
	if !fx.selected {
		t.Fatalf("expected FX selected")
	}
	m.WritePortD(allPinsHigh())
	if fx.selected {
		t.Fatalf("expected FX deselected")
	}
	if fx.selectCnt != 1 || fx.deselCnt != 1 {
		t.Fatalf("expected exactly one select/deselect edge each, got %d/%d", fx.selectCnt, fx.deselCnt)
	}
}

func TestDataCommandPin(t *testing.T) {
	m := &Master{}
	m.WritePortD(1 << PortDDC)
	if !m.DataCommand() {
		t.Fatalf("expected D/C high to report data")
	}
	m.WritePortD(0)
	if m.DataCommand() {
		t.Fatalf("expected D/C low to report command")
	}
}

func TestTransferCompletesAfterCyclesPerByte(t *testing.T) {
	disp := &fakeSlave{replyByte: 0xaa}
	m := &Master{Display: disp}
	m.WritePortD(allPinsHigh() &^ (1 << PortDDisplayCS))

	m.WriteSPDR(0x42)
	if m.TransferComplete() {
		t.Fatalf("transfer should not be complete immediately after write")
	}
	for i := 0; i < cyclesPerByte-1; i++ {
		m.Step()
		if m.TransferComplete() {
			t.Fatalf("transfer completed early at step %d", i)
		}
	}
	m.Step()
	if !m.TransferComplete() {
		t.Fatalf("expected transfer complete after %d steps", cyclesPerByte)
	}
	if disp.lastOut != 0x42 {
		t.Fatalf("expected slave to see 0x42, got 0x%02x", disp.lastOut)
	}
	if m.ReadSPDR() != 0xaa {
		t.Fatalf("expected SPDR to hold reply byte 0xaa, got 0x%02x", m.ReadSPDR())
	}
}

func TestStepWithNoSelectionReturnsAllOnes(t *testing.T) {
	m := &Master{}
	m.WriteSPDR(0x00)
	for i := 0; i < cyclesPerByte; i++ {
		m.Step()
	}
	if m.ReadSPDR() != 0xff {
		t.Fatalf("expected 0xff with nothing selected, got 0x%02x", m.ReadSPDR())
	}
}
