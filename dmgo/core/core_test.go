package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalROM builds a 32KiB cartridge image (type 0x00, no MBC) with the
// given program placed at 0x0100, the DMG entry point.
func minimalROM(program ...uint8) []byte {
	rom := make([]byte, 0x8000)
	copy(rom[0x0100:], program)
	return rom
}

func TestRunUntilFrameAdvancesFrameCount(t *testing.T) {
	// An infinite JR -2 loop (a jump to itself) at the entry point; enough CPU steps will
	// still tick the PPU through a full 70224-cycle frame.
	e := New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x18, 0xFE))) // JR -2

	e.RunUntilFrame()
	assert.Equal(t, uint64(1), e.FrameCount())

	e.RunUntilFrame()
	assert.Equal(t, uint64(2), e.FrameCount())
}

func TestModePausedSkipsExecution(t *testing.T) {
	e := New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x18, 0xFE)))

	e.SetMode(ModePaused)
	e.RunUntilFrame()
	assert.Equal(t, uint64(0), e.FrameCount())
}

func TestModeStepInstructionExecutesExactlyOneStep(t *testing.T) {
	e := New()
	require.NoError(t, e.LoadROMBytes(minimalROM(0x00, 0x00, 0x00))) // NOP NOP NOP

	e.SetMode(ModeStepInstruction)
	startPC := e.CPU().PC()
	e.RunUntilFrame()
	assert.Equal(t, startPC+1, e.CPU().PC())

	// Mode reverts to paused-like behavior until SetMode is called again.
	e.RunUntilFrame()
	assert.Equal(t, startPC+1, e.CPU().PC())
}

func TestSaveRAMWritesSidecarFile(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x147] = 0x03 // MBC1+RAM+BATTERY
	rom[0x149] = 0x02 // 1 RAM bank

	e := New()
	require.NoError(t, e.LoadROMBytes(rom))

	e.Bus().Write(0x0000, 0x0A) // enable external RAM
	e.Bus().Write(0xA000, 0x42)

	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gb")
	require.NoError(t, e.SaveRAM(romPath))

	saved, err := os.ReadFile(filepath.Join(dir, "game.sav"))
	require.NoError(t, err)
	assert.Equal(t, uint8(0x42), saved[0])
}

func TestNewFromFileLoadsExistingSidecar(t *testing.T) {
	rom := make([]byte, 0x8000)
	rom[0x147] = 0x03
	rom[0x149] = 0x02

	dir := t.TempDir()
	romPath := filepath.Join(dir, "game.gb")
	require.NoError(t, os.WriteFile(romPath, rom, 0o644))

	sav := make([]byte, 0x2000)
	sav[5] = 0x99
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game.sav"), sav, 0o644))

	e, err := NewFromFile(romPath)
	require.NoError(t, err)

	e.Bus().Write(0x0000, 0x0A) // enable external RAM
	assert.Equal(t, uint8(0x99), e.Bus().Read(0xA005))
}
