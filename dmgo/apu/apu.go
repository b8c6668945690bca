// Package apu implements the DMG's 4-channel audio processing unit: two
// pulse generators (one with frequency sweep), a programmable wave
// channel, a noise generator with a linear-feedback shift register, the
// 512Hz frame sequencer that drives their length/sweep/envelope units,
// and a mixer that downsamples the result into a lock-free ring buffer
// of mono float samples for a host audio thread to consume.
package apu

import (
	"github.com/adelrune/dmgo/dmgo/bit"
	"github.com/adelrune/dmgo/dmgo/timing"
)

// cyclesPerSequencerStep is 8192 T-cycles, i.e. the frame sequencer runs
// at 512Hz off the 4.194304MHz master clock.
const cyclesPerSequencerStep = 8192

const waveRAMSize = 16

// APU is the Audio Processing Unit: registers, four channels, the frame
// sequencer, and the mixer/sampler feeding the output ring buffer.
type APU struct {
	enabled bool
	ch      [4]channel

	// NR50/NR51 derived state.
	vinLeft, vinRight bool
	volLeft, volRight uint8

	// Frame sequencer.
	step   int
	cycles int

	// Raw registers, read back (with fixed bits) by ReadRegister.
	nr10, nr11, nr12, nr13, nr14 uint8
	nr21, nr22, nr23, nr24       uint8
	nr30, nr31, nr32, nr33, nr34 uint8
	nr41, nr42, nr43, nr44       uint8
	nr50, nr51, nr52             uint8
	waveRAM                      [waveRAMSize]uint8

	// Sampler: downsamples the 4.194304MHz channel mix to the host rate.
	sampleRate     int
	cyclesPerSample float64
	sampleAcc       float64
	mixAccum        float64
	mixAccumCycles  int
	hpAlpha         float64
	hpPrevIn        float64
	hpPrevOut       float64

	out ring
}

// New creates an APU configured for the given host sample rate.
func New(sampleRate int) *APU {
	a := &APU{
		sampleRate: sampleRate,
		hpAlpha:    0.995,
	}
	a.cyclesPerSample = float64(timing.CPUFrequency) / float64(sampleRate)
	return a
}

// Step advances the APU by the given number of T-cycles.
func (a *APU) Step(cycles int) {
	if !a.enabled {
		return
	}

	a.tickGenerators(cycles)

	a.cycles += cycles
	for a.cycles >= cyclesPerSequencerStep {
		a.cycles -= cyclesPerSequencerStep
		a.tickSequencer()
	}
}

// Samples drains up to max available mono float samples from the ring
// buffer into out, returning the number copied. Reading from an empty
// buffer never blocks; the caller gets 0 samples back.
func (a *APU) Samples(out []float32) int {
	n := 0
	for n < len(out) {
		s, ok := a.out.pop()
		if !ok {
			break
		}
		out[n] = s
		n++
	}
	return n
}

// Pending reports how many samples are waiting to be drained.
func (a *APU) Pending() int {
	return a.out.Len()
}

// SampleRate reports the host sample rate this APU was configured for.
func (a *APU) SampleRate() int {
	return a.sampleRate
}

func (a *APU) tickGenerators(cycles int) {
	if cycles <= 0 {
		return
	}

	var left, right float64
	for i := range a.ch {
		ch := &a.ch[i]
		if !ch.enabled || !ch.dacEnabled || ch.muted {
			continue
		}

		var level float64
		switch i {
		case 0, 1:
			level = a.stepSquare(ch, cycles)
		case 2:
			level = a.stepWave(ch, cycles)
		case 3:
			level = a.stepNoise(ch, cycles)
		}

		if ch.left {
			left += level
		}
		if ch.right {
			right += level
		}
	}

	leftGain := float64(a.volLeft+1) / 8.0
	rightGain := float64(a.volRight+1) / 8.0
	mono := (left*leftGain + right*rightGain) / 2.0 / 15.0

	a.mixAccum += mono * float64(cycles)
	a.mixAccumCycles += cycles
	a.flushMix(cycles)
}

func (a *APU) flushMix(cycles int) {
	if a.cyclesPerSample == 0 {
		return
	}

	a.sampleAcc += float64(cycles)
	if a.sampleAcc < a.cyclesPerSample {
		return
	}
	a.sampleAcc -= a.cyclesPerSample

	var avg float64
	if a.mixAccumCycles > 0 {
		avg = a.mixAccum / float64(a.mixAccumCycles)
	}
	a.mixAccum = 0
	a.mixAccumCycles = 0

	filtered := a.highPass(avg)
	a.out.push(float32(clamp(filtered, -1, 1)))
}

// highPass is a single-pole DC-blocking filter: y[n] = a*(y[n-1] + x[n] - x[n-1]).
func (a *APU) highPass(x float64) float64 {
	y := a.hpAlpha * (a.hpPrevOut + x - a.hpPrevIn)
	a.hpPrevIn = x
	a.hpPrevOut = y
	return y
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (a *APU) stepSquare(ch *channel, cycles int) float64 {
	period := a.squarePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}
	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.dutyStep = (ch.dutyStep + 1) & 0x7
	}

	if ch.volume == 0 {
		return 0
	}
	if dutyPatterns[ch.duty&0x3][ch.dutyStep] == 0 {
		return -float64(ch.volume)
	}
	return float64(ch.volume)
}

func (a *APU) stepWave(ch *channel, cycles int) float64 {
	period := a.wavePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.freqTimer <= 0 {
		ch.freqTimer = period
	}
	ch.freqTimer -= cycles
	for ch.freqTimer <= 0 {
		ch.freqTimer += period
		ch.waveIndex = (ch.waveIndex + 1) & 0x1F
	}

	sample := float64(a.readWaveSample(ch.waveIndex)) - 8
	switch ch.volume & 0b11 {
	case 0:
		return 0
	case 1:
		return sample
	case 2:
		return sample / 2
	case 3:
		return sample / 4
	default:
		return sample
	}
}

func (a *APU) stepNoise(ch *channel, cycles int) float64 {
	period := a.noisePeriodCycles(ch)
	if period == 0 {
		return 0
	}
	if ch.lfsr == 0 {
		ch.lfsr = 0x7FFF
	}
	if ch.noiseTimer <= 0 {
		ch.noiseTimer = period
	}
	ch.noiseTimer -= cycles
	for ch.noiseTimer <= 0 {
		ch.noiseTimer += period
		newBit := (ch.lfsr & 1) ^ ((ch.lfsr >> 1) & 1)
		ch.lfsr = (ch.lfsr >> 1) | (newBit << 14)
		if ch.use7bitLFSR {
			ch.lfsr = (ch.lfsr &^ (1 << 6)) | (newBit << 6)
		}
	}

	if ch.volume == 0 {
		return 0
	}
	// LFSR bit 0 clear means audible; set means silence (inverted before the DAC).
	if bit.IsSet(0, uint8(ch.lfsr)) {
		return -float64(ch.volume)
	}
	return float64(ch.volume)
}

func (a *APU) squarePeriodCycles(ch *channel) int {
	period := 2048 - int(ch.period&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 4
}

func (a *APU) wavePeriodCycles(ch *channel) int {
	period := 2048 - int(ch.period&0x7FF)
	if period <= 0 {
		return 0
	}
	return period * 2
}

func (a *APU) noisePeriodCycles(ch *channel) int {
	divisor := noiseDivisors[ch.divider&0x7]
	return divisor << ch.shift
}

func (a *APU) readWaveSample(index uint8) uint8 {
	value := a.waveRAM[index>>1]
	a.ch[2].waveSample = value
	if index&1 == 0 {
		return value >> 4
	}
	return value & 0x0F
}

// waveRAMLocked reports whether wave RAM is currently owned by the
// playing channel 3, per Pan Docs' CPU-vs-channel access rules.
func (a *APU) waveRAMLocked() bool {
	return a.enabled && a.ch[2].enabled && a.ch[2].dacEnabled
}

// tickSequencer advances the 3-bit frame-sequencer step and clocks the
// length/sweep/envelope units per the §4.3 step table.
func (a *APU) tickSequencer() {
	switch a.step {
	case 0:
		a.tickLength()
	case 2:
		a.tickLength()
		a.tickSweep()
	case 4:
		a.tickLength()
	case 6:
		a.tickLength()
		a.tickSweep()
	case 7:
		a.tickEnvelope()
	}
	a.step = (a.step + 1) % 8
}

func (a *APU) tickLength() {
	for i := range a.ch {
		ch := &a.ch[i]
		if ch.lengthEnable && ch.length > 0 {
			ch.length--
			if ch.length == 0 {
				ch.enabled = false
			}
		}
	}
}

func (a *APU) tickSweep() {
	ch := &a.ch[0]
	if !ch.sweepEnabled {
		return
	}

	ch.sweepTimer--
	if ch.sweepTimer > 0 {
		return
	}
	ch.sweepTimer = ch.sweepPeriod
	if ch.sweepTimer == 0 {
		ch.sweepTimer = 8
	}
	if ch.sweepPeriod == 0 {
		return
	}

	newFreq, overflow := ch.calculateSweepFrequency()
	if overflow {
		ch.enabled = false
		return
	}
	if ch.sweepDown {
		ch.sweepNegUsed = true
	}
	if ch.sweepStep == 0 {
		return
	}

	ch.shadowFreq = newFreq
	ch.period = newFreq
	a.nr14 = (a.nr14 & 0b1111_1000) | uint8((newFreq>>8)&0b111)
	a.nr13 = uint8(newFreq)

	if _, overflow := ch.calculateSweepFrequency(); overflow {
		ch.enabled = false
	}
}

func (a *APU) tickEnvelope() {
	for _, idx := range [3]int{0, 1, 3} {
		ch := &a.ch[idx]
		if !ch.dacEnabled || ch.envelopeLatched {
			continue
		}

		pace := ch.envelopePace
		if pace == 0 {
			pace = 8
		}
		if ch.envelopeCounter == 0 {
			ch.envelopeCounter = pace
		}
		ch.envelopeCounter--
		if ch.envelopeCounter > 0 {
			continue
		}

		if ch.envelopeUp {
			if ch.volume < 15 {
				ch.volume++
				ch.envelopeCounter = pace
				if ch.volume == 15 {
					ch.envelopeLatched = true
				}
			} else {
				ch.envelopeLatched = true
			}
		} else {
			if ch.volume > 0 {
				ch.volume--
				ch.envelopeCounter = pace
				if ch.volume == 0 {
					ch.envelopeLatched = true
				}
			} else {
				ch.envelopeLatched = true
			}
		}
	}
}
