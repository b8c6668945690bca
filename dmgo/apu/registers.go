package apu

import (
	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/bit"
)

// ReadRegister returns the value of an NRxx/wave-RAM register, with the
// unused bits that always read as 1 already set per Pan Docs.
func (a *APU) ReadRegister(address uint16) uint8 {
	if !a.enabled && address != addr.NR52 && !(address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd) {
		// Most registers read back all-1s while the APU is powered off;
		// NR52 itself and wave RAM remain readable.
		if address >= addr.AudioStart && address <= addr.AudioEnd {
			return 0xFF
		}
	}

	switch address {
	case addr.NR10:
		return a.nr10 | 0x80
	case addr.NR11:
		return a.nr11 | 0x3F
	case addr.NR12:
		return a.nr12
	case addr.NR13:
		return 0xFF
	case addr.NR14:
		return a.nr14 | 0xBF

	case addr.NR21:
		return a.nr21 | 0x3F
	case addr.NR22:
		return a.nr22
	case addr.NR23:
		return 0xFF
	case addr.NR24:
		return a.nr24 | 0xBF

	case addr.NR30:
		return a.nr30 | 0x7F
	case addr.NR31:
		return 0xFF
	case addr.NR32:
		return a.nr32 | 0x9F
	case addr.NR33:
		return 0xFF
	case addr.NR34:
		return a.nr34 | 0xBF

	case addr.NR41:
		return 0xFF
	case addr.NR42:
		return a.nr42
	case addr.NR43:
		return a.nr43
	case addr.NR44:
		return a.nr44 | 0xBF

	case addr.NR50:
		return a.nr50
	case addr.NR51:
		return a.nr51
	case addr.NR52:
		return a.readNR52()

	default:
		if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
			return a.waveRAM[address-addr.WaveRAMStart]
		}
		return 0xFF
	}
}

func (a *APU) readNR52() uint8 {
	v := a.nr52 & 0x80
	v |= 0x70
	for i, ch := range a.ch {
		if ch.enabled {
			v |= 1 << uint(i)
		}
	}
	return v
}

// WriteRegister writes an NRxx/wave-RAM register, applying it to the
// live channel state (mapRegistersToState) and handling the NR52
// power-on/off and trigger (bit 7 of NRx4) side effects.
func (a *APU) WriteRegister(address uint16, value uint8) {
	if address == addr.NR52 {
		wasEnabled := a.enabled
		a.enabled = bit.IsSet(7, value)
		a.nr52 = value & 0x80
		if wasEnabled && !a.enabled {
			a.powerOff()
		} else if !wasEnabled && a.enabled {
			a.step = 0
		}
		return
	}

	if address >= addr.WaveRAMStart && address <= addr.WaveRAMEnd {
		a.waveRAM[address-addr.WaveRAMStart] = value
		return
	}

	if !a.enabled {
		// While powered off, only length-counter bits of NRx1 are writable
		// (DMG quirk used by some test ROMs); the rest of the bus is inert.
		switch address {
		case addr.NR11:
			a.ch[0].length = 64 - uint16(value&0x3F)
		case addr.NR21:
			a.ch[1].length = 64 - uint16(value&0x3F)
		case addr.NR31:
			a.ch[2].length = 256 - uint16(value)
		case addr.NR41:
			a.ch[3].length = 64 - uint16(value&0x3F)
		}
		return
	}

	switch address {
	case addr.NR10:
		a.nr10 = value
	case addr.NR11:
		a.nr11 = value
	case addr.NR12:
		a.nr12 = value
	case addr.NR13:
		a.nr13 = value
	case addr.NR14:
		a.nr14 = value

	case addr.NR21:
		a.nr21 = value
	case addr.NR22:
		a.nr22 = value
	case addr.NR23:
		a.nr23 = value
	case addr.NR24:
		a.nr24 = value

	case addr.NR30:
		a.nr30 = value
	case addr.NR31:
		a.nr31 = value
	case addr.NR32:
		a.nr32 = value
	case addr.NR33:
		a.nr33 = value
	case addr.NR34:
		a.nr34 = value

	case addr.NR41:
		a.nr41 = value
	case addr.NR42:
		a.nr42 = value
	case addr.NR43:
		a.nr43 = value
	case addr.NR44:
		a.nr44 = value

	case addr.NR50:
		a.nr50 = value
	case addr.NR51:
		a.nr51 = value
	default:
		return
	}

	a.mapRegistersToState(address, value)
}

// powerOff clears all registers and channel state, matching the DMG's
// documented behavior of zeroing everything but wave RAM and the length
// counters, which keep their values across the power cycle. Nothing is
// clocked while the APU is off (Step returns early), so the preserved
// lengths do not count down until it is powered on again.
func (a *APU) powerOff() {
	a.nr10, a.nr11, a.nr12, a.nr13, a.nr14 = 0, 0, 0, 0, 0
	a.nr21, a.nr22, a.nr23, a.nr24 = 0, 0, 0, 0
	a.nr30, a.nr31, a.nr32, a.nr33, a.nr34 = 0, 0, 0, 0, 0
	a.nr41, a.nr42, a.nr43, a.nr44 = 0, 0, 0, 0
	a.nr50, a.nr51 = 0, 0

	for i := range a.ch {
		length := a.ch[i].length
		a.ch[i] = channel{}
		a.ch[i].length = length
	}
	a.step = 0
}

// mapRegistersToState projects a raw NRxx write onto the live channel
// fields consumed by the generators and frame sequencer, including the
// NRx4 trigger (bit 7) and length-enable (bit 6) handling.
func (a *APU) mapRegistersToState(address uint16, value uint8) {
	switch address {
	case addr.NR10:
		ch := &a.ch[0]
		ch.sweepPeriod = (value >> 4) & 0x7
		ch.sweepDown = bit.IsSet(3, value)
		ch.sweepStep = value & 0x7
	case addr.NR11:
		ch := &a.ch[0]
		ch.duty = (value >> 6) & 0x3
		ch.length = 64 - uint16(value&0x3F)
	case addr.NR12:
		ch := &a.ch[0]
		a.loadEnvelope(ch, value)
	case addr.NR13:
		a.ch[0].period = (a.ch[0].period & 0x700) | uint16(value)
	case addr.NR14:
		ch := &a.ch[0]
		ch.period = (ch.period & 0xFF) | (uint16(value&0x7) << 8)
		ch.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(0, ch)
		}

	case addr.NR21:
		ch := &a.ch[1]
		ch.duty = (value >> 6) & 0x3
		ch.length = 64 - uint16(value&0x3F)
	case addr.NR22:
		a.loadEnvelope(&a.ch[1], value)
	case addr.NR23:
		a.ch[1].period = (a.ch[1].period & 0x700) | uint16(value)
	case addr.NR24:
		ch := &a.ch[1]
		ch.period = (ch.period & 0xFF) | (uint16(value&0x7) << 8)
		ch.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(1, ch)
		}

	case addr.NR30:
		a.ch[2].dacEnabled = bit.IsSet(7, value)
		if !a.ch[2].dacEnabled {
			a.ch[2].enabled = false
		}
	case addr.NR31:
		a.ch[2].length = 256 - uint16(value)
	case addr.NR32:
		a.ch[2].volume = (value >> 5) & 0x3
	case addr.NR33:
		a.ch[2].period = (a.ch[2].period & 0x700) | uint16(value)
	case addr.NR34:
		ch := &a.ch[2]
		ch.period = (ch.period & 0xFF) | (uint16(value&0x7) << 8)
		ch.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(2, ch)
		}

	case addr.NR41:
		a.ch[3].length = 64 - uint16(value&0x3F)
	case addr.NR42:
		a.loadEnvelope(&a.ch[3], value)
	case addr.NR43:
		ch := &a.ch[3]
		ch.shift = (value >> 4) & 0xF
		ch.use7bitLFSR = bit.IsSet(3, value)
		ch.divider = value & 0x7
	case addr.NR44:
		ch := &a.ch[3]
		ch.lengthEnable = bit.IsSet(6, value)
		if bit.IsSet(7, value) {
			a.trigger(3, ch)
		}

	case addr.NR51:
		for i := range a.ch {
			a.ch[i].right = bit.IsSet(uint8(i), value)
			a.ch[i].left = bit.IsSet(uint8(i+4), value)
		}
	case addr.NR50:
		a.volLeft = (value >> 4) & 0x7
		a.volRight = value & 0x7
		a.vinLeft = bit.IsSet(7, value)
		a.vinRight = bit.IsSet(3, value)
	}
}

func (a *APU) loadEnvelope(ch *channel, value uint8) {
	ch.volume = (value >> 4) & 0xF
	ch.envelopeUp = bit.IsSet(3, value)
	ch.envelopePace = value & 0x7
	ch.dacEnabled = value&0xF8 != 0
	if !ch.dacEnabled {
		ch.enabled = false
	}
}

// trigger implements the NRx4 bit-7 write: (re)starts the channel with
// its current register-derived parameters, per Pan Docs' trigger event
// rules (length reload when exhausted, envelope/sweep reset, LFSR reset).
func (a *APU) trigger(index int, ch *channel) {
	if !ch.dacEnabled {
		return
	}
	ch.enabled = true
	ch.envelopeLatched = false
	if ch.length == 0 {
		switch index {
		case 2:
			ch.length = 256
		default:
			ch.length = 64
		}
	}

	switch index {
	case 0:
		ch.shadowFreq = ch.period
		ch.sweepTimer = ch.sweepPeriod
		if ch.sweepTimer == 0 {
			ch.sweepTimer = 8
		}
		ch.sweepEnabled = ch.sweepPeriod != 0 || ch.sweepStep != 0
		ch.sweepNegUsed = false
		if ch.sweepStep != 0 {
			if _, overflow := ch.calculateSweepFrequency(); overflow {
				ch.enabled = false
			}
		}
		ch.envelopeCounter = ch.envelopePace
		ch.freqTimer = a.squarePeriodCycles(ch)
	case 1:
		ch.envelopeCounter = ch.envelopePace
		ch.freqTimer = a.squarePeriodCycles(ch)
	case 2:
		ch.waveIndex = 0
		ch.freqTimer = a.wavePeriodCycles(ch)
	case 3:
		ch.lfsr = 0x7FFF
		ch.envelopeCounter = ch.envelopePace
		ch.noiseTimer = a.noisePeriodCycles(ch)
	}
}
