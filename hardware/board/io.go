// This source is part of a cycle-accurate handheld simulator core.
//
// It is free software: you can redistribute it and/or modify it under the
// terms of the GNU General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any
// later version.

package board

// I/O-space addresses (IN/OUT operand form: data address minus 0x20) for
// the registers Board intercepts. Everything not listed here falls back to
// a plain byte of storage, which is enough for GPIO pins the firmware only
// uses as scratch (UART etc. are out of scope).
const (
	ioPINB  = 0x03
	ioDDRB  = 0x04
	ioPORTB = 0x05
	ioPIND  = 0x09
	ioDDRD  = 0x0a
	ioPORTD = 0x0b
	ioPINE  = 0x0c
	ioDDRE  = 0x0d
	ioPORTE = 0x0e
	ioPINF  = 0x0f
	ioDDRF  = 0x10
	ioPORTF = 0x11

	ioSPCR = 0x2c
	ioSPSR = 0x2d
	ioSPDR = 0x2e

	// Timer, ADC and PLL registers live in extended I/O space on real
	// hardware (data addresses 0x35-0x9D); like every other entry in this
	// table they are stored here as that data address minus 0x20, since
	// that is what ReadIO/WriteIO actually receive (see avr.IOBus).
	ioTIFR0 = 0x35 - 0x20
	ioTIFR1 = 0x36 - 0x20
	ioTIFR3 = 0x38 - 0x20

	ioTIMSK0 = 0x6e - 0x20
	ioTIMSK1 = 0x6f - 0x20
	ioTIMSK3 = 0x71 - 0x20

	ioTCCR0A = 0x44 - 0x20
	ioTCCR0B = 0x45 - 0x20
	ioTCNT0  = 0x46 - 0x20
	ioOCR0A  = 0x47 - 0x20
	ioOCR0B  = 0x48 - 0x20

	ioTCCR1A = 0x80 - 0x20
	ioTCCR1B = 0x81 - 0x20
	ioTCCR1C = 0x82 - 0x20
	ioTCNT1L = 0x84 - 0x20
	ioTCNT1H = 0x85 - 0x20
	ioICR1L  = 0x86 - 0x20
	ioICR1H  = 0x87 - 0x20
	ioOCR1AL = 0x88 - 0x20
	ioOCR1AH = 0x89 - 0x20
	ioOCR1BL = 0x8a - 0x20
	ioOCR1BH = 0x8b - 0x20
	ioOCR1CL = 0x8c - 0x20
	ioOCR1CH = 0x8d - 0x20

	ioTCCR3A = 0x90 - 0x20
	ioTCCR3B = 0x91 - 0x20
	ioTCCR3C = 0x92 - 0x20
	ioTCNT3L = 0x94 - 0x20
	ioTCNT3H = 0x95 - 0x20
	ioICR3L  = 0x96 - 0x20
	ioICR3H  = 0x97 - 0x20
	ioOCR3AL = 0x98 - 0x20
	ioOCR3AH = 0x99 - 0x20
	ioOCR3BL = 0x9a - 0x20
	ioOCR3BH = 0x9b - 0x20
	ioOCR3CL = 0x9c - 0x20
	ioOCR3CH = 0x9d - 0x20

	ioPLLCSR = 0x49 - 0x20
	ioADMUX  = 0x7c - 0x20
	ioADCSRA = 0x7a - 0x20
)

// ReadIO implements avr.IOBus.
func (b *Board) ReadIO(addr uint8) uint8 {
	b.syncTimers()
	switch addr {
	case ioPINB:
		return b.pinB
	case ioDDRB:
		return b.ddrB
	case ioPORTB:
		return b.portB
	case ioPIND:
		return b.portD // no external pull, reads back what firmware drove
	case ioDDRD:
		return b.ddrD
	case ioPORTD:
		return b.portD
	case ioPINE, ioDDRE, ioPORTE, ioPINF, ioDDRF, ioPORTF:
		return b.scratch[addr]

	case ioSPCR:
		return b.spcr
	case ioSPSR:
		status := uint8(0)
		if b.SPI.TransferComplete() {
			status |= 0x80
		}
		return status
	case ioSPDR:
		return b.SPI.ReadSPDR()

	case ioTIFR0:
		return b.tifr0()
	case ioTIMSK0:
		return b.timsk0
	case ioTCCR0A:
		return b.tccr0a
	case ioTCCR0B:
		return b.tccr0b
	case ioTCNT0:
		return b.Timer0.TCNT
	case ioOCR0A:
		return b.Timer0.OCRA
	case ioOCR0B:
		return b.Timer0.OCRB

	case ioTIFR1:
		return b.tifr16(b.Timer1)
	case ioTIMSK1:
		return b.timsk1
	case ioTCCR1A:
		return b.tccr1a
	case ioTCCR1B:
		return b.tccr1b
	case ioTCCR1C:
		return b.tccr1c
	case ioTCNT1L:
		return uint8(b.Timer1.TCNT)
	case ioTCNT1H:
		return uint8(b.Timer1.TCNT >> 8)
	case ioICR1L:
		return uint8(b.Timer1.ICR)
	case ioICR1H:
		return uint8(b.Timer1.ICR >> 8)
	case ioOCR1AL:
		return uint8(b.Timer1.OCRA)
	case ioOCR1AH:
		return uint8(b.Timer1.OCRA >> 8)
	case ioOCR1BL:
		return uint8(b.Timer1.OCRB)
	case ioOCR1BH:
		return uint8(b.Timer1.OCRB >> 8)
	case ioOCR1CL:
		return uint8(b.Timer1.OCRC)
	case ioOCR1CH:
		return uint8(b.Timer1.OCRC >> 8)

	case ioTIFR3:
		return b.tifr16(b.Timer3)
	case ioTIMSK3:
		return b.timsk3
	case ioTCCR3A:
		return b.tccr3a
	case ioTCCR3B:
		return b.tccr3b
	case ioTCCR3C:
		return b.tccr3c
	case ioTCNT3L:
		return uint8(b.Timer3.TCNT)
	case ioTCNT3H:
		return uint8(b.Timer3.TCNT >> 8)

	case ioEECR, ioEEDR, ioEEARL, ioEEARH:
		return b.eepromReadIO(addr)

	case ioPLLCSR:
		return b.pllcsr
	case ioADMUX:
		return b.admux
	case ioADCSRA:
		return b.adcsra
	}
	return b.scratch[addr]
}

// WriteIO implements avr.IOBus.
func (b *Board) WriteIO(addr uint8, v uint8) {
	// Any write that can change a timer's counter or configuration must
	// first flush ticks accrued under the old configuration; otherwise the
	// next lazy CatchUp would replay the elapsed cycles against whatever
	// config is current then, not the one that was actually in effect.
	b.syncTimers()
	switch addr {
	case ioPORTB:
		b.portB = v
	case ioDDRB:
		b.ddrB = v
	case ioPORTD:
		b.portD = v
		b.SPI.WritePortD(v)
		b.Display.SetDC(b.SPI.DataCommand())
	case ioDDRD:
		b.ddrD = v
	case ioPINE, ioDDRE, ioPORTE, ioPINF, ioDDRF, ioPORTF:
		b.scratch[addr] = v

	case ioSPCR:
		b.spcr = v
	case ioSPSR:
		// writing 1 to SPI2X or reading SPSR clears SPIF on real hardware;
		// firmware in this corpus never relies on that, so it is a no-op.
	case ioSPDR:
		b.SPI.WriteSPDR(v)

	case ioTIFR0:
		b.clearTIFR0(v)
	case ioTIMSK0:
		b.timsk0 = v
	case ioTCCR0A:
		b.tccr0a = v
		// Timer8 models the four modes selected by WGM01:00 only; WGM02
		// in TCCR0B is stored but does not change the mode.
		b.Timer0.WGM = v & 0x3
	case ioTCCR0B:
		b.tccr0b = v
		b.Timer0.CS = v & 0x7
	case ioTCNT0:
		b.Timer0.TCNT = v
	case ioOCR0A:
		b.Timer0.WriteOCRA(v)
	case ioOCR0B:
		b.Timer0.WriteOCRB(v)

	case ioTIFR1:
		b.clearTIFR16(b.Timer1, v)
	case ioTIMSK1:
		b.timsk1 = v
	case ioTCCR1A:
		b.tccr1a = v
		b.applyWGM16(b.Timer1, b.tccr1a, b.tccr1b)
	case ioTCCR1B:
		b.tccr1b = v
		b.Timer1.CS = v & 0x7
		b.applyWGM16(b.Timer1, b.tccr1a, b.tccr1b)
	case ioTCCR1C:
		b.tccr1c = v
	case ioTCNT1L:
		b.Timer1.TCNT = (b.Timer1.TCNT & 0xff00) | uint16(v)
	case ioTCNT1H:
		b.Timer1.TCNT = (b.Timer1.TCNT & 0x00ff) | uint16(v)<<8
	case ioICR1L:
		b.Timer1.WriteICR((b.Timer1.ICR & 0xff00) | uint16(v))
	case ioICR1H:
		b.Timer1.WriteICR((b.Timer1.ICR & 0x00ff) | uint16(v)<<8)
	case ioOCR1AL:
		b.Timer1.WriteOCRA((b.Timer1.OCRA & 0xff00) | uint16(v))
	case ioOCR1AH:
		b.Timer1.WriteOCRA((b.Timer1.OCRA & 0x00ff) | uint16(v)<<8)
	case ioOCR1BL:
		b.Timer1.WriteOCRB((b.Timer1.OCRB & 0xff00) | uint16(v))
	case ioOCR1BH:
		b.Timer1.WriteOCRB((b.Timer1.OCRB & 0x00ff) | uint16(v)<<8)
	case ioOCR1CL:
		b.Timer1.WriteOCRC((b.Timer1.OCRC & 0xff00) | uint16(v))
	case ioOCR1CH:
		b.Timer1.WriteOCRC((b.Timer1.OCRC & 0x00ff) | uint16(v)<<8)

	case ioTIFR3:
		b.clearTIFR16(b.Timer3, v)
	case ioTIMSK3:
		b.timsk3 = v
	case ioTCCR3A:
		b.tccr3a = v
		b.applyWGM16(b.Timer3, b.tccr3a, b.tccr3b)
	case ioTCCR3B:
		b.tccr3b = v
		b.Timer3.CS = v & 0x7
		b.applyWGM16(b.Timer3, b.tccr3a, b.tccr3b)
	case ioTCCR3C:
		b.tccr3c = v
	case ioTCNT3L:
		b.Timer3.TCNT = (b.Timer3.TCNT & 0xff00) | uint16(v)
	case ioTCNT3H:
		b.Timer3.TCNT = (b.Timer3.TCNT & 0x00ff) | uint16(v)<<8

	case ioEECR, ioEEDR, ioEEARL, ioEEARH:
		b.eepromWriteIO(addr, v)

	case ioPLLCSR:
		b.pllcsr = v
	case ioADMUX:
		b.admux = v
	case ioADCSRA:
		b.adcsra = v &^ 0x40 // ADSC (start conversion) clears immediately: no conversion delay modelled

	default:
		b.scratch[addr] = v
	}
}
