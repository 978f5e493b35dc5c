// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package timer

// prescalerDivider maps a CSn clock-select field to its divider; 0 means
// the timer is stopped and 6/7 name external clock sources this simulator
// does not drive, so they are treated as stopped too.
var prescalerDivider = [8]uint32{0, 1, 8, 64, 256, 1024, 0, 0}

// Timer8 models Timer0: an 8-bit counter with Normal, Phase-Correct PWM,
// CTC and Fast PWM waveform generation modes.
type Timer8 struct {
	WGM uint8 // 2 bits: 0=Normal 1=PWM-PC 2=CTC 3=Fast-PWM
	CS  uint8 // 3 bits: clock select

	TCNT uint8
	OCRA uint8
	OCRB uint8

	ocrAShadow uint8
	ocrBShadow uint8

	TOV  bool
	OCFA bool
	OCFB bool

	direction int8 // +1 counting up, -1 counting down (phase-correct only)

	prescalerCounter uint32
	prevUpdateCycle  uint64
}

// Reset restores power-on defaults: counting up from zero, Normal mode,
// clock stopped.
func (t *Timer8) Reset() {
	*t = Timer8{direction: 1}
}

func (t *Timer8) top() uint8 {
	switch t.WGM {
	case 2: // CTC
		return t.ocrAShadow
	case 1: // phase-correct PWM, fixed TOP=0xFF
		return 0xff
	case 3: // fast PWM, fixed TOP=0xFF
		return 0xff
	default: // normal
		return 0xff
	}
}

// CatchUp replays every prescaler tick between the last catch-up and
// cycleCount, updating TCNT and the compare/overflow flags as it goes.
func (t *Timer8) CatchUp(cycleCount uint64) {
	divider := prescalerDivider[t.CS]
	elapsed := cycleCount - t.prevUpdateCycle
	t.prevUpdateCycle = cycleCount
	if divider == 0 {
		return
	}

	t.prescalerCounter += uint32(elapsed)
	ticks := t.prescalerCounter / divider
	t.prescalerCounter %= divider

	for n := uint32(0); n < ticks; n++ {
		t.tick()
	}
}

func (t *Timer8) tick() {
	top := t.top()

	switch t.WGM {
	case 1: // phase-correct PWM: bounce between 0 and top
		if t.direction > 0 {
			if t.TCNT == top {
				t.direction = -1
				t.updateShadows()
			} else {
				t.TCNT++
			}
		} else {
			if t.TCNT == 0 {
				t.direction = 1
				t.TOV = true
			} else {
				t.TCNT--
			}
		}
	default: // Normal, CTC, Fast PWM all count straight up
		if t.TCNT == top {
			t.TCNT = 0
			t.TOV = true
			t.updateShadows()
		} else {
			t.TCNT++
		}
	}

	if t.TCNT == t.ocrAShadow {
		t.OCFA = true
	}
	if t.TCNT == t.ocrBShadow {
		t.OCFB = true
	}
}

// updateShadows latches OCRA/OCRB into the double-buffered compare
// registers actually used by the counter; double buffering happens at
// TOP for phase-correct PWM and at the wrap back to BOTTOM otherwise.
func (t *Timer8) updateShadows() {
	t.ocrAShadow = t.OCRA
	t.ocrBShadow = t.OCRB
}

// WriteOCRA stores a new OCRA; in Normal/CTC mode the change is immediate
// and also used as the live compare value.
func (t *Timer8) WriteOCRA(v uint8) {
	t.OCRA = v
	if t.WGM == 0 || t.WGM == 2 {
		t.ocrAShadow = v
	}
}

func (t *Timer8) WriteOCRB(v uint8) {
	t.OCRB = v
	if t.WGM == 0 || t.WGM == 2 {
		t.ocrBShadow = v
	}
}
