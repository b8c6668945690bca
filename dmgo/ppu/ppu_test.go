package ppu

import (
	"testing"

	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPPU(t *testing.T) (*PPU, *[]addr.Interrupt) {
	t.Helper()
	var fired []addr.Interrupt
	p := New(func(i addr.Interrupt) { fired = append(fired, i) })
	p.WriteRegister(addr.LCDC, 0x91) // LCD+BG on, tiles at 0x8000, map at 0x9800
	return p, &fired
}

func TestModeSequenceOverOneScanline(t *testing.T) {
	p, _ := newTestPPU(t)
	require.Equal(t, ModeOAMScan, p.mode)

	p.Step(oamScanDots - 1)
	assert.Equal(t, ModeOAMScan, p.mode)

	p.Step(1)
	assert.Equal(t, ModeTransfer, p.mode)

	p.Step(p.mode3Dots)
	assert.Equal(t, ModeHBlank, p.mode)
}

func TestVBlankInterruptFiresAtLine144(t *testing.T) {
	p, fired := newTestPPU(t)

	for i := 0; i < 144; i++ {
		p.Step(totalLineDots)
	}

	assert.Contains(t, *fired, addr.VBlankInterrupt)
	assert.Equal(t, ModeVBlank, p.mode)
	assert.Equal(t, uint8(144), p.ly)
}

func TestFrameWrapsAfterLine153(t *testing.T) {
	p, _ := newTestPPU(t)

	for i := 0; i < 154; i++ {
		p.Step(totalLineDots)
	}

	assert.Equal(t, uint8(0), p.ly)
	assert.Equal(t, ModeOAMScan, p.mode)
}

func TestLYCInterruptFiresOnlyOnRisingEdge(t *testing.T) {
	p, fired := newTestPPU(t)
	p.WriteRegister(addr.LYC, 0)
	p.WriteRegister(addr.STAT, 0x40) // enable LYC=LY interrupt

	*fired = nil
	p.updateStatLine()
	count := len(*fired)

	p.updateStatLine()
	assert.Equal(t, count, len(*fired), "re-evaluating an already-true condition must not refire")
}

func TestWindowTriggerLatchesForRestOfFrame(t *testing.T) {
	p, _ := newTestPPU(t)
	p.WriteRegister(addr.LCDC, 0xB1) // LCD+BG+window on
	p.WriteRegister(addr.WY, 10)
	p.WriteRegister(addr.WX, 7)

	for i := 0; i < 10; i++ {
		p.Step(totalLineDots)
	}
	assert.True(t, p.winYTrigger)

	p.WriteRegister(addr.WY, 200) // moving WY away must not un-latch it
	p.Step(totalLineDots)
	assert.True(t, p.winYTrigger)
}

func TestSpritePriorityLowerXWins(t *testing.T) {
	var sp spritePriority
	sp.reset()

	for px := 5; px < 13; px++ {
		sp.claim(px, 0, 5)
	}
	for px := 10; px < 18; px++ {
		sp.claim(px, 1, 10)
	}

	assert.Equal(t, int8(0), sp.ownerOf(10), "lower X sprite should keep overlapping pixels")
	assert.Equal(t, int8(1), sp.ownerOf(15))
}

func TestSpritePriorityTieBreaksOnOAMIndex(t *testing.T) {
	var sp spritePriority
	sp.reset()

	sp.claim(20, 3, 12)
	sp.claim(20, 1, 12)

	assert.Equal(t, int8(1), sp.ownerOf(20), "equal X should be won by the lower OAM index")
}

func TestDisablingLCDClearsFramebufferToWhite(t *testing.T) {
	p, _ := newTestPPU(t)
	p.Step(1)
	p.WriteRegister(addr.LCDC, 0x00)
	p.Step(1)

	assert.Equal(t, uint32(White), p.fb.pixels[0])
}
