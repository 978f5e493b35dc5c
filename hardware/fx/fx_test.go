// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package fx

import "testing"

func sendCommand(c *Chip, bytes ...uint8) []uint8 {
	c.Select()
	var in []uint8
	for _, b := range bytes {
		in = append(in, c.Transfer(b))
	}
	c.Deselect()
	return in
}

func TestNewPadsToSizeAndErases(t *testing.T) {
	c := New(nil)
	if len(c.Data) != Size {
		t.Fatalf("expected %d bytes, got %d", Size, len(c.Data))
	}
	if c.Data[0] != 0xff || c.Data[Size-1] != 0xff {
		t.Fatalf("expected erased flash to read 0xff")
	}
}

func TestReadReturnsExistingData(t *testing.T) {
	data := make([]byte, Size)
	data[0x1000] = 0x42
	c := New(data)

	reply := sendCommand(c, cmdRead, 0x00, 0x10, 0x00, 0x00)
	got := reply[len(reply)-1]
	if got != 0x42 {
		t.Fatalf("expected 0x42 at offset 0x1000, got 0x%02x", got)
	}
}

func TestPageProgramRequiresWriteEnable(t *testing.T) {
	c := New(nil)
	// Program without write-enable: should have no effect.
	sendCommand(c, cmdPageProgram, 0x00, 0x00, 0x00, 0x00)
	if c.Data[0] != 0xff {
		t.Fatalf("expected no write without write-enable, got 0x%02x", c.Data[0])
	}

	sendCommand(c, cmdWriteEnable)
	sendCommand(c, cmdPageProgram, 0x00, 0x00, 0x00, 0x00)
	if c.Data[0] != 0x00 {
		t.Fatalf("expected write after write-enable, got 0x%02x", c.Data[0])
	}
}

func TestProgrammingIsANDOnly(t *testing.T) {
	c := New(nil)
	sendCommand(c, cmdWriteEnable)
	sendCommand(c, cmdPageProgram, 0x00, 0x00, 0x00, 0x0f) // AND with 0x0f
	if c.Data[0] != 0x0f {
		t.Fatalf("expected erased 0xff AND 0x0f = 0x0f, got 0x%02x", c.Data[0])
	}
	sendCommand(c, cmdWriteEnable)
	sendCommand(c, cmdPageProgram, 0x00, 0x00, 0x00, 0xf0) // AND with 0xf0 on top of 0x0f
	if c.Data[0] != 0x00 {
		t.Fatalf("expected 0x0f AND 0xf0 = 0x00, got 0x%02x", c.Data[0])
	}
}

func TestSectorEraseMarksDirtyAndResets(t *testing.T) {
	c := New(nil)
	sendCommand(c, cmdWriteEnable)
	sendCommand(c, cmdPageProgram, 0x00, 0x00, 0x00, 0x00)
	if !c.Dirty[0] {
		t.Fatalf("expected sector 0 dirty after programming")
	}

	sendCommand(c, cmdSectorErase, 0x00, 0x00, 0x00)
	if c.Data[0] != 0xff {
		t.Fatalf("expected sector erased back to 0xff, got 0x%02x", c.Data[0])
	}

	sectors := c.DirtySectors()
	if len(sectors) != 1 || sectors[0] != 0 {
		t.Fatalf("expected exactly sector 0 dirty, got %v", sectors)
	}

	c.ClearDirty()
	if len(c.DirtySectors()) != 0 {
		t.Fatalf("expected no dirty sectors after ClearDirty")
	}
}

func TestJedecIDAndStatus(t *testing.T) {
	c := New(nil)
	reply := sendCommand(c, cmdJedecID, 0x00)
	if reply[1] != 0xef {
		t.Fatalf("expected JEDEC manufacturer byte 0xef, got 0x%02x", reply[1])
	}

	sendCommand(c, cmdWriteEnable)
	reply = sendCommand(c, cmdReadStatus, 0x00)
	if reply[1]&0x02 == 0 {
		t.Fatalf("expected write-enable-latch bit set in status")
	}
}

func TestFastReadHasDummyByte(t *testing.T) {
	data := make([]byte, Size)
	data[8] = 0x99
	c := New(data)

	c.Select()
	c.Transfer(cmdFastRead)
	c.Transfer(0x00)
	c.Transfer(0x00)
	c.Transfer(0x08)
	c.Transfer(0x00) // dummy byte
	got := c.Transfer(0x00)
	c.Deselect()

	if got != 0x99 {
		t.Fatalf("expected 0x99 after dummy byte, got 0x%02x", got)
	}
}

func TestDeselectResetsStateMachine(t *testing.T) {
	c := New(nil)
	c.Select()
	c.Transfer(cmdPageProgram)
	c.Transfer(0x00)
	c.Deselect() // abort mid-address

	reply := sendCommand(c, cmdJedecID, 0x00)
	if reply[len(reply)-1] != 0xef {
		t.Fatalf("expected state machine reset after deselect, got 0x%02x", reply[len(reply)-1])
	}
}
