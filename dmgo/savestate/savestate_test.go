package savestate

import (
	"path/filepath"
	"testing"

	"github.com/adelrune/dmgo/dmgo/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalROM(program ...uint8) []byte {
	rom := make([]byte, 0x8000)
	rom[0x147] = 0x03 // MBC1+RAM+BATTERY, so RAM round-trips too
	rom[0x149] = 0x02
	copy(rom[0x0100:], program)
	return rom
}

func TestCaptureApplyRoundTripsCPUAndMemory(t *testing.T) {
	e := core.New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00, 0x00, 0x00)))

	e.Bus().Write(0xC000, 0x77)
	e.Step() // NOP, PC advances to 0x0101

	snapshot := Capture(e)

	// Mutate everything the snapshot should restore.
	e.Bus().Write(0xC000, 0xFF)
	for i := 0; i < 10; i++ {
		e.Step()
	}
	mutatedPC := e.CPU().PC()
	assert.NotEqual(t, snapshot.CPU.PC, mutatedPC)

	require.NoError(t, Apply(e, snapshot))

	assert.Equal(t, snapshot.CPU.PC, e.CPU().PC())
	assert.Equal(t, uint8(0x77), e.Bus().Read(0xC000))
}

func TestApplyRejectsMismatchedVersion(t *testing.T) {
	e := core.New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00)))

	s := Capture(e)
	s.Version = formatVersion + 1

	err := Apply(e, s)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := core.New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00)))
	e.Bus().Write(0xFF80, 0x55) // HRAM

	s := Capture(e)
	data, err := Encode(s)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, s.Bus.HRAM, decoded.Bus.HRAM)
	assert.Equal(t, s.CPU, decoded.CPU)
}

func TestSaveLoadFileRoundTrip(t *testing.T) {
	e := core.New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00)))

	e.Bus().Write(0x0000, 0x0A) // enable cartridge RAM
	e.Bus().Write(0xA000, 0x42)

	path := filepath.Join(t.TempDir(), "test.state")
	require.NoError(t, Save(e, path))

	e.Bus().Write(0xA000, 0x00)

	require.NoError(t, Load(e, path))
	assert.Equal(t, uint8(0x42), e.Bus().Read(0xA000))
}

func TestApplyRestoringLCDCDoesNotFireStatInterrupt(t *testing.T) {
	e := core.New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00)))

	e.Bus().Write(0xFF41, 0x78) // enable every STAT interrupt source
	e.Bus().Write(0xFF40, 0x91) // LCD on, BG on

	for i := 0; i < 500; i++ {
		e.Step()
	}
	e.Bus().Write(0xFF0F, 0x00) // clear IF so the snapshot carries no pending flag of its own
	snapshot := Capture(e)

	require.NoError(t, Apply(e, snapshot))

	assert.Equal(t, uint8(0x00), e.Bus().Read(0xFF0F)&0x02, "restoring STAT state must not itself raise LCDSTAT")
}
