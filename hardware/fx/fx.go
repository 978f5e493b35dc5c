// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

// Package fx models the Arduboy FX cartridge's SPI NOR flash: a JEDEC
// subset (read, write-enable, page program, sector erase) over a 16 MiB
// address space, with dirty-sector tracking so a board can flush only the
// sectors firmware actually modified.
package fx

import "github.com/avrsim/core/logger"

const (
	// Size is the total addressable flash capacity.
	Size = 16 * 1024 * 1024
	// SectorSize is the smallest unit an erase command can target.
	SectorSize = 4096
	numSectors = Size / SectorSize
)

// JEDEC-subset command bytes the Arduboy FX bootloader and libraries use.
const (
	cmdWriteEnable  = 0x06
	cmdWriteDisable = 0x04
	cmdRead         = 0x03
	cmdFastRead     = 0x0b
	cmdPageProgram  = 0x02
	cmdSectorErase  = 0x20
	cmdChipErase    = 0xc7
	cmdReadStatus   = 0x05
	cmdJedecID      = 0x9f
)

type state int

const (
	stateIdle state = iota
	stateCommandByte
	stateAddress
	stateDummy
	stateData
)

// Chip is one SPI NOR flash device.
type Chip struct {
	Data  []byte
	Dirty []bool // one entry per 4096-byte sector

	selected    bool
	writeEnable bool

	st          state
	cmd         uint8
	addrByte    int
	addr        uint32
	dummyLeft   int
}

// New allocates a Chip backed by data. Data of exactly Size bytes is used
// as is; any other length is copied into a fresh Size-byte buffer of
// erased flash (0xff), so shorter data is padded and longer data truncated.
func New(data []byte) *Chip {
	if len(data) != Size {
		full := make([]byte, Size)
		for i := range full {
			full[i] = 0xff
		}
		copy(full, data)
		data = full
	}
	return &Chip{Data: data, Dirty: make([]bool, numSectors)}
}

func (c *Chip) Select() {
	c.selected = true
	c.st = stateCommandByte
}

func (c *Chip) Deselect() {
	c.selected = false
	c.st = stateIdle
}

// Transfer clocks one byte through the command/address/data state machine
// and returns whatever the chip shifts back on MISO.
func (c *Chip) Transfer(out uint8) uint8 {
	if !c.selected {
		return 0xff
	}

	switch c.st {
	case stateCommandByte:
		c.cmd = out
		c.addrByte = 0
		c.addr = 0
		switch c.cmd {
		case cmdWriteEnable:
			c.writeEnable = true
			c.st = stateIdle
		case cmdWriteDisable:
			c.writeEnable = false
			c.st = stateIdle
		case cmdRead, cmdFastRead, cmdPageProgram, cmdSectorErase:
			c.st = stateAddress
		case cmdChipErase:
			c.eraseAll()
			c.st = stateIdle
		case cmdReadStatus:
			c.st = stateData
		case cmdJedecID:
			c.st = stateData
		default:
			logger.Logf(logger.Allow, "fx", "unknown SPI command 0x%02x", c.cmd)
			c.st = stateIdle
		}
		return 0xff

	case stateAddress:
		c.addr = c.addr<<8 | uint32(out)
		c.addrByte++
		if c.addrByte == 3 {
			if c.cmd == cmdFastRead {
				c.dummyLeft = 1
				c.st = stateDummy
			} else if c.cmd == cmdSectorErase {
				c.eraseSector(c.addr)
				c.st = stateIdle
			} else {
				c.st = stateData
			}
		}
		return 0xff

	case stateDummy:
		c.dummyLeft--
		if c.dummyLeft <= 0 {
			c.st = stateData
		}
		return 0xff

	case stateData:
		switch c.cmd {
		case cmdRead, cmdFastRead:
			v := c.Data[c.addr%Size]
			c.addr++
			return v
		case cmdPageProgram:
			if c.writeEnable {
				c.writeByte(c.addr, out)
				c.addr++
			}
			return 0xff
		case cmdReadStatus:
			status := uint8(0)
			if c.writeEnable {
				status |= 0x02
			}
			return status
		case cmdJedecID:
			return 0xef // matches the Winbond-family part Arduboy FX carts use
		}
	}
	return 0xff
}

func (c *Chip) writeByte(addr uint32, v uint8) {
	addr %= Size
	// Programming can only clear bits, matching real NOR flash behaviour.
	c.Data[addr] &= v
	c.Dirty[addr/SectorSize] = true
}

func (c *Chip) eraseSector(addr uint32) {
	sector := (addr % Size) / SectorSize
	start := sector * SectorSize
	for i := uint32(0); i < SectorSize; i++ {
		c.Data[start+i] = 0xff
	}
	c.Dirty[sector] = true
}

func (c *Chip) eraseAll() {
	for i := range c.Data {
		c.Data[i] = 0xff
	}
	for i := range c.Dirty {
		c.Dirty[i] = true
	}
}

// ClearDirty resets dirty tracking after a board has flushed changed
// sectors to persistent storage.
func (c *Chip) ClearDirty() {
	for i := range c.Dirty {
		c.Dirty[i] = false
	}
}

// DirtySectors returns the indices of every sector modified since the last
// ClearDirty.
func (c *Chip) DirtySectors() []int {
	var out []int
	for i, d := range c.Dirty {
		if d {
			out = append(out, i)
		}
	}
	return out
}
