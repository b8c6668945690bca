package bus

import (
	"testing"

	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/stretchr/testify/assert"
)

func TestWRAMEchoMirrorsWRAM(t *testing.T) {
	b := New()
	b.Write(0xC012, 0x42)
	assert.Equal(t, uint8(0x42), b.Read(0xE012))

	b.Write(0xE034, 0x7A)
	assert.Equal(t, uint8(0x7A), b.Read(0xC034))
}

func TestHRAMIsIndependentOfWRAM(t *testing.T) {
	b := New()
	b.Write(0xFF80, 0x11)
	b.Write(0xFFFE, 0x22)
	assert.Equal(t, uint8(0x11), b.Read(0xFF80))
	assert.Equal(t, uint8(0x22), b.Read(0xFFFE))
}

func TestDMACopiesSourceRangeIntoOAM(t *testing.T) {
	b := New()
	for i := 0; i < 160; i++ {
		b.Write(0xC000+uint16(i), uint8(i))
	}
	b.Write(addr.DMA, 0xC0)

	for i := 0; i < 160; i++ {
		assert.Equal(t, uint8(i), b.PPU.ReadOAM(addr.OAMStart+uint16(i)))
	}
}

func TestDMARegisterReadableWhileInFlight(t *testing.T) {
	b := New()
	b.Write(addr.DMA, 0x80)
	assert.Equal(t, uint8(0x80), b.Read(addr.DMA))
}

func TestIFUnusedBitsReadAsOne(t *testing.T) {
	b := New()
	b.Write(addr.IF, 0x01)
	assert.Equal(t, uint8(0xE1), b.Read(addr.IF))
}

func TestJoypadSelectsButtonsOrDpad(t *testing.T) {
	b := New()
	b.SetButton(ButtonA, true)
	b.SetButton(ButtonRight, true)

	b.Write(addr.P1, 0x10) // bit4=1,bit5=0 -> buttons group selected
	assert.Equal(t, uint8(0xDE), b.Read(addr.P1), "A pressed should clear bit 0 in the buttons group")

	b.Write(addr.P1, 0x20) // bit4=0,bit5=1 -> dpad group selected
	assert.Equal(t, uint8(0xEE), b.Read(addr.P1), "Right pressed should clear bit 0 in the dpad group")
}

func TestJoypadPressRequestsInterruptOnTransition(t *testing.T) {
	b := New()
	b.Write(addr.P1, 0x20) // select dpad
	b.SetButton(ButtonUp, true)
	assert.NotEqual(t, uint8(0), b.ifReg&uint8(addr.JoypadInterrupt))
}

func TestDIVWriteCanFallAndTickTIMA(t *testing.T) {
	b := New()
	b.Write(addr.TAC, 0x05) // enabled, clock select 1 -> counter bit 3
	b.Step(8)               // system counter = 8 (0b1000), bit 3 set -> lastBit true

	b.Write(addr.DIV, 0x00) // counter resets to 0, bit 3 falls 1->0

	assert.Equal(t, uint8(1), b.Read(addr.TIMA))
}

func TestTACWriteCanFallAndTickTIMA(t *testing.T) {
	b := New()
	b.Write(addr.TAC, 0x05) // enabled, clock select 1 -> counter bit 3
	b.Step(8)               // system counter = 8 (0b1000), bit 3 set -> lastBit true

	b.Write(addr.TAC, 0x04) // clock select 0 -> counter bit 9, currently clear -> falls

	assert.Equal(t, uint8(1), b.Read(addr.TIMA))
}

func TestBootROMOverlayDisablesOnWrite(t *testing.T) {
	b := New()
	b.SetBootROM([]byte{0xAA, 0xBB})
	assert.Equal(t, uint8(0xAA), b.Read(0x0000))

	b.Write(addr.BootROMDisable, 1)
	// With no cartridge loaded, the underlying ROM read is 0xFF.
	assert.Equal(t, uint8(0xFF), b.Read(0x0000))
}
