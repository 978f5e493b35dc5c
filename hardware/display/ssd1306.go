// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package display implements the SSD1306 OLED controller: its command byte
// state machine, GDDRAM, the three addressing modes, and a simple
// row-refresh pixel integrator that approximates the panel's physical
// response to the controller's actual refresh timing rather than assuming
// an instantaneous full-frame update.
package display

import "github.com/avrsim/core/logger"

const (
	Width  = 128
	Height = 64
	pages  = Height / 8
)

// fosc is the 16-entry oscillator frequency lookup table (in kHz) selected
// by the top nibble of the SET DISPLAY CLOCK DIVIDE RATIO command.
var fosc = [16]float64{
	175.00, 199.38, 223.75, 248.12, 272.50, 296.88, 321.25, 345.62,
	370.00, 394.29, 418.57, 442.86, 467.14, 491.43, 515.71, 540.00,
}

type addressingMode int

const (
	addressingHorizontal addressingMode = iota
	addressingVertical
	addressingPage
)

// SSD1306 is a complete controller instance: GDDRAM, addressing state, the
// command decode state machine, and the accumulated pixel-intensity
// framebuffer exposed to a renderer.
type SSD1306 struct {
	GDDRAM [pages][Width]uint8

	// Pixels holds a low-pass-filtered intensity per pixel, updated one row
	// at a time as the controller's internal refresh counter reaches it,
	// rather than snapping to GDDRAM on every write.
	Pixels [Height][Width]float32

	addressingMode  addressingMode
	columnStart     uint8
	columnEnd       uint8
	pageStart       uint8
	pageEnd         uint8
	column          uint8
	page            uint8

	contrast     uint8
	displayOn    bool
	invert       bool
	allOn        bool
	startLine    uint8
	segRemap    bool
	comScanDown  bool
	muxRatio     uint8
	comPinsAlt   bool

	fOscIndex   uint8
	divideRatio uint8
	phase1      uint8
	phase2      uint8
	vcomhDeselect uint8

	processingCommand bool
	currentCommand    uint8
	commandByteIndex  int
	commandArg        uint8

	selected bool
	dc       bool

	// timing
	psAccum      int64
	clkAccum     int64
	psPerClk     int64
	refreshRow   int
	cyclesPerRow int64
	vsyncPulse   bool
}

// New returns a controller in its post-reset-pin default state.
func New() *SSD1306 {
	s := &SSD1306{}
	s.reset()
	return s
}

func (s *SSD1306) reset() {
	s.addressingMode = addressingPage
	s.columnStart, s.columnEnd = 0, Width-1
	s.pageStart, s.pageEnd = 0, pages-1
	s.contrast = 0x7f
	s.displayOn = false
	s.muxRatio = Height - 1
	s.fOscIndex = 8
	s.divideRatio = 0
	s.phase1, s.phase2 = 2, 2
	s.vcomhDeselect = 2
	s.recomputeTiming()
}

// SetDC sets the data/command pin level, normally driven by the board from
// the SPI master's derived PORTD.4 state.
func (s *SSD1306) SetDC(dataMode bool) { s.dc = dataMode }

func (s *SSD1306) Select() {
	s.selected = true
	s.processingCommand = false
	s.commandByteIndex = 0
}

func (s *SSD1306) Deselect() {
	s.selected = false
}

// Transfer accepts one SPI byte, routed as a command or pixel data byte
// according to the D/C pin, and returns an undefined value (the display
// never drives MISO on real hardware).
func (s *SSD1306) Transfer(out uint8) uint8 {
	if !s.selected {
		return 0xff
	}
	if s.dc {
		s.writeData(out)
	} else {
		s.writeCommand(out)
	}
	return 0xff
}

func (s *SSD1306) writeData(v uint8) {
	s.GDDRAM[s.page][s.column] = v
	switch s.addressingMode {
	case addressingHorizontal:
		s.column++
		if s.column > s.columnEnd {
			s.column = s.columnStart
			s.page++
			if s.page > s.pageEnd {
				s.page = s.pageStart
			}
		}
	case addressingVertical:
		s.page++
		if s.page > s.pageEnd {
			s.page = s.pageStart
			s.column++
			if s.column > s.columnEnd {
				s.column = s.columnStart
			}
		}
	case addressingPage:
		s.column++
		if s.column > s.columnEnd {
			s.column = s.columnStart
		}
	}
}

func (s *SSD1306) writeCommand(b uint8) {
	if !s.processingCommand {
		s.currentCommand = b
		s.commandByteIndex = 0
		s.processingCommand = s.commandArgCount(b) > 0
		s.dispatchCommand(b, 0, 0)
		if !s.processingCommand {
			return
		}
		s.commandByteIndex = 1
		return
	}

	s.dispatchCommand(s.currentCommand, s.commandByteIndex, b)
	s.commandByteIndex++
	if s.commandByteIndex > s.commandArgCount(s.currentCommand) {
		s.processingCommand = false
	}
}

// commandArgCount reports how many parameter bytes follow a command's
// opcode byte. Commands not listed take none.
func (s *SSD1306) commandArgCount(cmd uint8) int {
	switch {
	case cmd == 0x81: // set contrast
		return 1
	case cmd == 0xa8: // set multiplex ratio
		return 1
	case cmd == 0xd3: // set display offset
		return 1
	case cmd == 0xd5: // set display clock divide ratio / osc freq
		return 1
	case cmd == 0xd9: // set pre-charge period
		return 1
	case cmd == 0xda: // set COM pins hw config
		return 1
	case cmd == 0xdb: // set VCOMH deselect level
		return 1
	case cmd == 0x20: // set memory addressing mode
		return 1
	case cmd >= 0x21 && cmd <= 0x22: // set column/page address
		return 2
	}
	return 0
}

func (s *SSD1306) dispatchCommand(cmd uint8, argIndex int, arg uint8) {
	switch {
	case cmd >= 0x00 && cmd <= 0x0f: // set lower column start address (page mode)
		s.column = (s.column &^ 0xf) | cmd
	case cmd >= 0x10 && cmd <= 0x1f: // set higher column start address (page mode)
		s.column = (s.column & 0xf) | (cmd&0xf)<<4
	case cmd == 0x20:
		if argIndex == 1 {
			switch arg & 0x3 {
			case 0:
				s.addressingMode = addressingHorizontal
			case 1:
				s.addressingMode = addressingVertical
			default:
				s.addressingMode = addressingPage
			}
		}
	case cmd == 0x21:
		if argIndex == 1 {
			s.columnStart = arg
		} else if argIndex == 2 {
			s.columnEnd = arg
			s.column = s.columnStart
		}
	case cmd == 0x22:
		if argIndex == 1 {
			s.pageStart = arg
		} else if argIndex == 2 {
			s.pageEnd = arg
			s.page = s.pageStart
		}
	case cmd >= 0x40 && cmd <= 0x7f: // set display start line
		s.startLine = cmd & 0x3f
	case cmd == 0x81:
		if argIndex == 1 {
			s.contrast = arg
		}
	case cmd == 0xa0 || cmd == 0xa1:
		s.segRemap = cmd&1 != 0
	case cmd == 0xa4:
		s.allOn = false
	case cmd == 0xa5:
		s.allOn = true
	case cmd == 0xa6 || cmd == 0xa7:
		s.invert = cmd&1 != 0
	case cmd == 0xa8:
		if argIndex == 1 {
			s.muxRatio = arg & 0x3f
		}
	case cmd == 0xae:
		s.displayOn = false
	case cmd == 0xaf:
		s.displayOn = true
	case cmd >= 0xb0 && cmd <= 0xb7: // set page start address (page mode)
		s.page = cmd & 0x7
	case cmd == 0xc0 || cmd == 0xc8:
		s.comScanDown = cmd == 0xc8
	case cmd == 0xd3:
		if argIndex == 1 {
			s.startLine = arg & 0x3f
		}
	case cmd == 0xd5:
		if argIndex == 1 {
			s.divideRatio = arg & 0xf
			s.fOscIndex = arg >> 4
			s.recomputeTiming()
		}
	case cmd == 0xd9:
		if argIndex == 1 {
			s.phase1 = arg & 0xf
			s.phase2 = arg >> 4
			s.recomputeTiming()
		}
	case cmd == 0xda:
		if argIndex == 1 {
			s.comPinsAlt = arg&0x10 != 0
		}
	case cmd == 0xdb:
		if argIndex == 1 {
			s.vcomhDeselect = (arg >> 4) & 0x7
		}
	case cmd == 0xe3:
		// NOP
	default:
		logger.Logf(logger.Allow, "display", "unhandled command byte 0x%02x", cmd)
	}
}

// fOscKHz returns the oscillator frequency selected by fOscIndex.
func (s *SSD1306) fOscKHz() float64 { return fosc[s.fOscIndex] }

// recomputeTiming refreshes ps_per_clk and cycles_per_row after any command
// that touches FOSC, the divide ratio or the charge-pump phase lengths
// (0xD5, 0xD9). Divide ratio stretches the oscillator period the same way
// the datasheet's DCLK = FOSC/D relation does; phase lengths add directly
// to the per-row clock count.
func (s *SSD1306) recomputeTiming() {
	picosPerOscClk := int64(1e12/(s.fOscKHz()*1000) + 0.5)
	s.psPerClk = picosPerOscClk * int64(s.divideRatio+1)
	s.cyclesPerRow = int64(s.phase1) + int64(s.phase2) + 50
}

// RefreshRate returns the panel's approximate refresh rate in Hz.
func (s *SSD1306) RefreshRate() float64 {
	rows := float64(s.muxRatio) + 1
	totalPs := float64(s.psPerClk) * float64(s.cyclesPerRow) * rows
	if totalPs <= 0 {
		return 0
	}
	return 1e12 / totalPs
}

// Advance steps the display's internal row-refresh clock by ps picoseconds
// and folds any newly-refreshed rows into Pixels using a simple one-pole
// low-pass filter (decay factor 0.5 per refresh), which is what gives the
// simulated panel its characteristic ghosting on fast-changing content.
func (s *SSD1306) Advance(ps int64) {
	s.vsyncPulse = false
	if !s.displayOn || s.psPerClk <= 0 {
		return
	}
	s.psAccum += ps
	for s.psAccum >= s.psPerClk {
		s.psAccum -= s.psPerClk
		s.clkAccum++
		if s.clkAccum >= s.cyclesPerRow {
			s.clkAccum -= s.cyclesPerRow
			s.refreshOneRow()
		}
	}
}

// TookVsyncPulse reports whether the most recent Advance call crossed the
// row-refresh counter's wraparound from the last row back to row 0.
func (s *SSD1306) TookVsyncPulse() bool { return s.vsyncPulse }

// DisplayOn reports whether the panel is currently powered on (command
// 0xAF/0xAE), matching the SSD1306's DCDC/display enable state.
func (s *SSD1306) DisplayOn() bool { return s.displayOn }

const lowPassDecay = 0.5

func (s *SSD1306) refreshOneRow() {
	row := s.refreshRow
	rows := int(s.muxRatio) + 1
	if rows <= 0 || rows > Height {
		rows = Height
	}
	s.refreshRow++
	if s.refreshRow >= rows {
		s.refreshRow = 0
		s.vsyncPulse = true
	}
	page := row / 8
	bit := uint(row % 8)

	for col := 0; col < Width; col++ {
		on := s.GDDRAM[page][col]&(1<<bit) != 0
		if s.allOn {
			on = true
		}
		if s.invert {
			on = !on
		}
		target := float32(0)
		if on {
			target = 1
		}
		s.Pixels[row][col] = s.Pixels[row][col]*lowPassDecay + target*(1-lowPassDecay)
	}
}
