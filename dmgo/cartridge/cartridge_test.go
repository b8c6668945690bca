package cartridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func romOfSize(n int, cartType, romSizeByte, ramSizeByte uint8) []byte {
	data := make([]byte, n)
	if n > cartridgeTypeAddress {
		data[cartridgeTypeAddress] = cartType
	}
	if n > romSizeAddress {
		data[romSizeAddress] = romSizeByte
	}
	if n > ramSizeAddress {
		data[ramSizeAddress] = ramSizeByte
	}
	return data
}

func TestNoMBCReadsDirectlyFromROM(t *testing.T) {
	rom := romOfSize(0x8000, 0x00, 0, 0)
	rom[0x100] = 0xAB
	c := NewFromBytes(rom)

	require.Equal(t, KindNone, c.Kind)
	assert.Equal(t, uint8(0xAB), c.Read(0x0100))
}

func TestMBC1BankSwitchesROM(t *testing.T) {
	numBanks := 4
	rom := romOfSize(numBanks*0x4000, 0x01, 1, 0) // type 1 = MBC1, romSizeByte 1 -> 4 banks
	rom[2*0x4000] = 0x77                          // a marker byte in bank 2

	c := NewFromBytes(rom)
	require.Equal(t, KindMBC1, c.Kind)

	c.Write(0x2000, 0x02) // select ROM bank 2
	assert.Equal(t, uint8(0x77), c.Read(0x4000))
}

func TestMBC1Bank0SelectMapsToBank1(t *testing.T) {
	rom := romOfSize(4*0x4000, 0x01, 1, 0)
	rom[0x4000] = 0x99 // tag bank 1 so a forced remap is observable

	c := NewFromBytes(rom)
	c.Write(0x2000, 0x00) // writing bank 0 should force bank 1
	assert.Equal(t, uint8(0x99), c.Read(0x4000))
}

func TestMBC1ExternalRAMRequiresEnable(t *testing.T) {
	rom := romOfSize(2*0x4000, 0x03, 0, 2) // MBC1+RAM+battery, 1 RAM bank
	c := NewFromBytes(rom)
	require.True(t, c.HasBattery)

	c.Write(0xA000, 0x55) // RAM disabled: write discarded
	assert.Equal(t, uint8(0xFF), c.Read(0xA000))

	c.Write(0x0000, 0x0A) // enable RAM
	c.Write(0xA000, 0x55)
	assert.Equal(t, uint8(0x55), c.Read(0xA000))
}

func TestMBC3RTCLatchIsFrozen(t *testing.T) {
	rom := romOfSize(2*0x4000, 0x0F, 0, 0) // MBC3+TIMER+BATTERY
	c := NewFromBytes(rom)
	require.True(t, c.HasRTC)

	c.Write(0x0000, 0x0A) // enable RAM/RTC
	c.Write(0x4000, 0x08) // select RTC seconds register
	c.Write(0xA000, 42)
	assert.Equal(t, uint8(42), c.Read(0xA000), "RTC register should hold whatever was last written, never advancing on its own")
}

func TestLoadRAMClampsToCapacity(t *testing.T) {
	rom := romOfSize(2*0x4000, 0x03, 0, 2) // 1 RAM bank = 0x2000 bytes
	c := NewFromBytes(rom)

	oversized := make([]byte, 0x4000)
	for i := range oversized {
		oversized[i] = 0xFF
	}
	c.LoadRAM(oversized)

	assert.Len(t, c.RAM(), 0x2000)
}

func TestCleanTitleStripsNullPadding(t *testing.T) {
	rom := make([]byte, 0x200)
	copy(rom[titleAddress:], []byte("TETRIS\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00"))
	c := NewFromBytes(rom)
	assert.Equal(t, "TETRIS", c.Title)
}
