package apu

// ChannelState mirrors the unexported channel struct field-for-field, so
// a save state can restore a generator mid-period instead of only its
// register-visible projection.
type ChannelState struct {
	Enabled    bool
	DACEnabled bool
	Muted      bool

	Left, Right bool

	Length       uint16
	LengthEnable bool

	Volume          uint8
	EnvelopeUp      bool
	EnvelopePace    uint8
	EnvelopeCounter uint8
	EnvelopeLatched bool

	SweepPeriod  uint8
	SweepDown    bool
	SweepStep    uint8
	SweepEnabled bool
	SweepTimer   uint8
	ShadowFreq   uint16
	SweepNegUsed bool

	Duty      uint8
	DutyStep  uint8
	FreqTimer int
	Period    uint16

	WaveIndex  uint8
	WaveSample uint8

	LFSR        uint16
	Use7bitLFSR bool
	Shift       uint8
	Divider     uint8
	NoiseTimer  int
}

// State is a flat, gob-friendly snapshot of the APU: raw registers (for
// ReadRegister's bit-masking to keep working exactly as before), the
// frame sequencer, the four channels' live generator state, and the
// sampler/high-pass-filter state so resumed audio has no DC-offset pop.
type State struct {
	Enabled bool

	VinLeft, VinRight bool
	VolLeft, VolRight uint8

	Step   int
	Cycles int

	NR10, NR11, NR12, NR13, NR14 uint8
	NR21, NR22, NR23, NR24       uint8
	NR30, NR31, NR32, NR33, NR34 uint8
	NR41, NR42, NR43, NR44       uint8
	NR50, NR51, NR52             uint8
	WaveRAM                      [waveRAMSize]uint8

	Channels [4]ChannelState

	SampleAcc      float64
	MixAccum       float64
	MixAccumCycles int
	HPPrevIn       float64
	HPPrevOut      float64
}

func channelToState(ch *channel) ChannelState {
	return ChannelState{
		Enabled: ch.enabled, DACEnabled: ch.dacEnabled, Muted: ch.muted,
		Left: ch.left, Right: ch.right,
		Length: ch.length, LengthEnable: ch.lengthEnable,
		Volume: ch.volume, EnvelopeUp: ch.envelopeUp, EnvelopePace: ch.envelopePace,
		EnvelopeCounter: ch.envelopeCounter, EnvelopeLatched: ch.envelopeLatched,
		SweepPeriod: ch.sweepPeriod, SweepDown: ch.sweepDown, SweepStep: ch.sweepStep,
		SweepEnabled: ch.sweepEnabled, SweepTimer: ch.sweepTimer, ShadowFreq: ch.shadowFreq,
		SweepNegUsed: ch.sweepNegUsed,
		Duty:         ch.duty, DutyStep: ch.dutyStep, FreqTimer: ch.freqTimer, Period: ch.period,
		WaveIndex: ch.waveIndex, WaveSample: ch.waveSample,
		LFSR: ch.lfsr, Use7bitLFSR: ch.use7bitLFSR, Shift: ch.shift, Divider: ch.divider,
		NoiseTimer: ch.noiseTimer,
	}
}

func stateToChannel(s ChannelState) channel {
	return channel{
		enabled: s.Enabled, dacEnabled: s.DACEnabled, muted: s.Muted,
		left: s.Left, right: s.Right,
		length: s.Length, lengthEnable: s.LengthEnable,
		volume: s.Volume, envelopeUp: s.EnvelopeUp, envelopePace: s.EnvelopePace,
		envelopeCounter: s.EnvelopeCounter, envelopeLatched: s.EnvelopeLatched,
		sweepPeriod: s.SweepPeriod, sweepDown: s.SweepDown, sweepStep: s.SweepStep,
		sweepEnabled: s.SweepEnabled, sweepTimer: s.SweepTimer, shadowFreq: s.ShadowFreq,
		sweepNegUsed: s.SweepNegUsed,
		duty:         s.Duty, dutyStep: s.DutyStep, freqTimer: s.FreqTimer, period: s.Period,
		waveIndex: s.WaveIndex, waveSample: s.WaveSample,
		lfsr: s.LFSR, use7bitLFSR: s.Use7bitLFSR, shift: s.Shift, divider: s.Divider,
		noiseTimer: s.NoiseTimer,
	}
}

// State captures the APU's full internal state, including in-flight
// generator phase that the register-level read/write surface can't see.
func (a *APU) State() State {
	s := State{
		Enabled: a.enabled,
		VinLeft: a.vinLeft, VinRight: a.vinRight,
		VolLeft: a.volLeft, VolRight: a.volRight,
		Step: a.step, Cycles: a.cycles,
		NR10: a.nr10, NR11: a.nr11, NR12: a.nr12, NR13: a.nr13, NR14: a.nr14,
		NR21: a.nr21, NR22: a.nr22, NR23: a.nr23, NR24: a.nr24,
		NR30: a.nr30, NR31: a.nr31, NR32: a.nr32, NR33: a.nr33, NR34: a.nr34,
		NR41: a.nr41, NR42: a.nr42, NR43: a.nr43, NR44: a.nr44,
		NR50: a.nr50, NR51: a.nr51, NR52: a.nr52,
		WaveRAM:        a.waveRAM,
		SampleAcc:      a.sampleAcc,
		MixAccum:       a.mixAccum,
		MixAccumCycles: a.mixAccumCycles,
		HPPrevIn:       a.hpPrevIn,
		HPPrevOut:      a.hpPrevOut,
	}
	for i := range a.ch {
		s.Channels[i] = channelToState(&a.ch[i])
	}
	return s
}

// LoadState restores a previously captured APU state verbatim. Every
// field is written directly, so restoring never re-triggers a channel or
// pops the mixer the way writing NRx4's trigger bit through WriteRegister
// would.
func (a *APU) LoadState(s State) {
	a.enabled = s.Enabled
	a.vinLeft, a.vinRight = s.VinLeft, s.VinRight
	a.volLeft, a.volRight = s.VolLeft, s.VolRight
	a.step, a.cycles = s.Step, s.Cycles
	a.nr10, a.nr11, a.nr12, a.nr13, a.nr14 = s.NR10, s.NR11, s.NR12, s.NR13, s.NR14
	a.nr21, a.nr22, a.nr23, a.nr24 = s.NR21, s.NR22, s.NR23, s.NR24
	a.nr30, a.nr31, a.nr32, a.nr33, a.nr34 = s.NR30, s.NR31, s.NR32, s.NR33, s.NR34
	a.nr41, a.nr42, a.nr43, a.nr44 = s.NR41, s.NR42, s.NR43, s.NR44
	a.nr50, a.nr51, a.nr52 = s.NR50, s.NR51, s.NR52
	a.waveRAM = s.WaveRAM
	a.sampleAcc = s.SampleAcc
	a.mixAccum = s.MixAccum
	a.mixAccumCycles = s.MixAccumCycles
	a.hpPrevIn = s.HPPrevIn
	a.hpPrevOut = s.HPPrevOut
	for i := range a.ch {
		a.ch[i] = stateToChannel(s.Channels[i])
	}
}
