// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package timer

// Timer16 models Timer1 and Timer3: 16-bit counters with Normal, PWM
// phase-correct (8/9/10-bit and ICR/OCRA-bounded), CTC and Fast PWM
// waveform generation modes, each with three compare channels (A/B/C).
type Timer16 struct {
	WGM uint8 // 4 bits, assembled from WGMn3:0
	CS  uint8 // 3 bits: clock select

	TCNT uint16
	ICR  uint16
	OCRA uint16
	OCRB uint16
	OCRC uint16

	icrShadow  uint16
	ocrAShadow uint16
	ocrBShadow uint16
	ocrCShadow uint16

	TOV  bool
	OCFA bool
	OCFB bool
	OCFC bool
	ICF  bool

	direction int8

	prescalerCounter uint32
	prevUpdateCycle  uint64
}

func (t *Timer16) Reset() {
	*t = Timer16{direction: 1}
}

// fixedTop reports the fixed TOP value for the fast/phase-correct n-bit PWM
// modes, and whether the mode in question uses a fixed top at all.
func fixedTop(wgm uint8) (uint16, bool) {
	switch wgm {
	case 1: // PWM, Phase Correct, 8-bit
		return 0x00ff, true
	case 2: // 9-bit
		return 0x01ff, true
	case 3: // 10-bit
		return 0x03ff, true
	case 5:
		return 0x00ff, true
	case 6:
		return 0x01ff, true
	case 7:
		return 0x03ff, true
	}
	return 0, false
}

// usesICR reports whether TOP is ICR (as opposed to OCRA) for the WGM mode.
func usesICR(wgm uint8) bool {
	switch wgm {
	case 8, 10, 12, 14:
		return true
	}
	return false
}

func (t *Timer16) top() uint16 {
	if v, ok := fixedTop(t.WGM); ok {
		return v
	}
	switch t.WGM {
	case 4, 12: // CTC
		if usesICR(t.WGM) {
			return t.icrShadow
		}
		return t.ocrAShadow
	case 8, 9, 10, 11: // PWM phase/freq correct bounded by ICR or OCRA
		if usesICR(t.WGM) {
			return t.icrShadow
		}
		return t.ocrAShadow
	case 14, 15: // fast PWM bounded by ICR or OCRA
		if usesICR(t.WGM) {
			return t.icrShadow
		}
		return t.ocrAShadow
	default: // Normal (0)
		return 0xffff
	}
}

func (t *Timer16) isPWM() bool {
	switch t.WGM {
	case 1, 2, 3, 5, 6, 7, 8, 9, 10, 11, 14, 15:
		return true
	}
	return false
}

func (t *Timer16) isPhaseCorrect() bool {
	switch t.WGM {
	case 1, 2, 3, 8, 9, 10, 11:
		return true
	}
	return false
}

// CatchUp replays every elapsed prescaler tick since the last call.
func (t *Timer16) CatchUp(cycleCount uint64) {
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

func (t *Timer16) tick() {
	top := t.top()

	if t.isPhaseCorrect() {
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
	} else {
		if t.TCNT == top {
			t.TCNT = 0
			if !usesICR(t.WGM) || t.WGM != 12 {
				t.TOV = true
			}
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
	if t.TCNT == t.ocrCShadow {
		t.OCFC = true
	}
	if t.TCNT == t.icrShadow && usesICR(t.WGM) {
		t.ICF = true
	}
}

func (t *Timer16) updateShadows() {
	t.icrShadow = t.ICR
	t.ocrAShadow = t.OCRA
	t.ocrBShadow = t.OCRB
	t.ocrCShadow = t.OCRC
}

func (t *Timer16) WriteOCRA(v uint16) {
	t.OCRA = v
	if !t.isPWM() {
		t.ocrAShadow = v
	}
}

func (t *Timer16) WriteOCRB(v uint16) {
	t.OCRB = v
	if !t.isPWM() {
		t.ocrBShadow = v
	}
}

func (t *Timer16) WriteOCRC(v uint16) {
	t.OCRC = v
	if !t.isPWM() {
		t.ocrCShadow = v
	}
}

// WriteICR stores a new ICR; ICR is not double-buffered, so the change is
// immediate in every mode.
func (t *Timer16) WriteICR(v uint16) {
	t.ICR = v
	t.icrShadow = v
}
