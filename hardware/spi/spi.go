// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package spi implements the ATmega32U4's SPI master shifter and the
// chip-select routing that decides, each time PORTD changes, whether the
// display or the FX flash is the addressed SPI slave.
package spi

// Slave is any SPI peripheral the master can address: the display
// controller and the FX flash chip both implement it.
type Slave interface {
	// Transfer clocks one byte out to the slave and returns the byte it
	// shifts back. Select/Deselect bracket a transaction.
	Transfer(out uint8) (in uint8)
	Select()
	Deselect()
}

// Chip-select bit positions on PORTD, matching the Arduboy FX wiring.
const (
	PortDDisplayCS = 6
	PortDFXCS      = 1
	PortDDC        = 4 // data/command select for the display
)

// Master models SPDR/SPSR/SPCR: a single in-flight shift register clocked
// over a fixed number of cycles, with one byte of double buffering.
type Master struct {
	Display Slave
	FX      Slave

	displaySelected bool
	fxSelected      bool
	dataCommand     bool // current level of the D/C pin

	shifting     bool
	cyclesLeft   int
	shiftOut     uint8
	receiveBuf   uint8
	transferDone bool

	SPDR uint8
	SPIE bool
	SPE  bool
}

// cyclesPerByte approximates the ATmega32U4 SPI clock divided by the
// firmware's typical SPCR/SPSR prescaler selection; the board only needs
// transfers to complete in roughly the right number of cycles relative to
// CPU instructions, not to the exact SCK edge.
const cyclesPerByte = 16

// WritePortD is called whenever the CPU changes PORTD; it derives chip
// selects and the data/command line from the pins the Arduboy FX wiring
// dedicates to SPI routing.
func (m *Master) WritePortD(portD uint8) {
	displayCS := portD&(1<<PortDDisplayCS) == 0
	fxCS := portD&(1<<PortDFXCS) == 0
	m.dataCommand = portD&(1<<PortDDC) != 0

	if displayCS != m.displaySelected {
		m.displaySelected = displayCS
		if m.Display != nil {
			if displayCS {
				m.Display.Select()
			} else {
				m.Display.Deselect()
			}
		}
	}
	if fxCS != m.fxSelected {
		m.fxSelected = fxCS
		if m.FX != nil {
			if fxCS {
				m.FX.Select()
			} else {
				m.FX.Deselect()
			}
		}
	}
}

// DataCommand reports the current level of the display's D/C pin: true
// means the byte being transferred is pixel data, false means a command.
func (m *Master) DataCommand() bool { return m.dataCommand }

// DisplaySelected reports whether the display currently holds chip select,
// used by the board to attribute a just-completed transfer to the display
// rather than the FX flash.
func (m *Master) DisplaySelected() bool { return m.displaySelected }

// WriteSPDR begins shifting out a byte. Arduboy firmware always writes
// SPDR only when SPIF (transfer complete) is set, so a write here always
// starts a fresh transfer.
func (m *Master) WriteSPDR(v uint8) {
	m.shiftOut = v
	m.shifting = true
	m.cyclesLeft = cyclesPerByte
	m.transferDone = false
}

// ReadSPDR returns the byte most recently shifted in.
func (m *Master) ReadSPDR() uint8 { return m.receiveBuf }

// TransferComplete reports SPSR.SPIF.
func (m *Master) TransferComplete() bool { return m.transferDone }

// Step advances the in-flight shift by one clock cycle, completing the
// transfer (and notifying whichever slave is currently selected) once
// cyclesPerByte have elapsed.
func (m *Master) Step() {
	if !m.shifting {
		return
	}
	m.cyclesLeft--
	if m.cyclesLeft > 0 {
		return
	}
	m.shifting = false
	m.transferDone = true

	switch {
	case m.displaySelected && m.Display != nil:
		m.receiveBuf = m.Display.Transfer(m.shiftOut)
	case m.fxSelected && m.FX != nil:
		m.receiveBuf = m.FX.Transfer(m.shiftOut)
	default:
		m.receiveBuf = 0xff
	}
}
