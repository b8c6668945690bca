package apu

// channel holds the state shared by one of the four sound generators.
// Not every field applies to every channel; see the comments on each
// group below for which channels use them.
type channel struct {
	enabled    bool
	dacEnabled bool
	muted      bool // debug mute, independent of enabled/dacEnabled

	left, right bool // panning from NR51

	// Length unit (all channels).
	length       uint16
	lengthEnable bool

	// Volume envelope (ch1, ch2, ch4).
	volume          uint8
	envelopeUp      bool
	envelopePace    uint8
	envelopeCounter uint8
	envelopeLatched bool

	// Frequency sweep (ch1 only).
	sweepPeriod  uint8
	sweepDown    bool
	sweepStep    uint8
	sweepEnabled bool
	sweepTimer   uint8
	shadowFreq   uint16
	sweepNegUsed bool

	// Pulse generators (ch1, ch2).
	duty      uint8
	dutyStep  uint8
	freqTimer int
	period    uint16 // 11-bit frequency period, shared meaning with ch3

	// Wave channel (ch3).
	waveIndex  uint8
	waveSample uint8

	// Noise channel (ch4).
	lfsr        uint16
	use7bitLFSR bool
	shift       uint8
	divider     uint8
	noiseTimer  int
}

// calculateSweepFrequency computes the sweep target frequency and
// whether it overflows 11 bits. Used both for the tick-time update and
// the trigger-time dummy overflow check.
func (ch *channel) calculateSweepFrequency() (newFreq uint16, overflow bool) {
	freqChange := ch.shadowFreq >> ch.sweepStep
	if ch.sweepDown {
		if freqChange > ch.shadowFreq {
			return 0, false
		}
		newFreq = ch.shadowFreq - freqChange
	} else {
		newFreq = ch.shadowFreq + freqChange
	}
	return newFreq, newFreq > 2047
}

var dutyPatterns = [4][8]int{
	{0, 1, 0, 0, 0, 0, 0, 0},
	{0, 1, 1, 0, 0, 0, 0, 0},
	{0, 1, 1, 1, 1, 0, 0, 0},
	{1, 0, 0, 1, 1, 1, 1, 1},
}

var noiseDivisors = [8]int{8, 16, 32, 48, 64, 80, 96, 112}
