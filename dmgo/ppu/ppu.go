// Package ppu implements the DMG picture processing unit: the
// mode-2/3/0/1 scanline state machine, background/window/sprite
// rendering, and the STAT/LYC interrupt logic that watches them.
package ppu

import (
	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/bit"
)

// Mode is the PPU's current rendering stage, mirrored in STAT bits 1-0.
type Mode uint8

const (
	ModeHBlank Mode = 0
	ModeVBlank Mode = 1
	ModeOAMScan Mode = 2
	ModeTransfer Mode = 3
)

const (
	oamScanDots    = 80
	totalLineDots  = 456
	lastLine       = 153
	vramSize       = 0x2000
	oamSize        = 160
)

// lcdc bit positions.
const (
	lcdcEnable         = 7
	lcdcWindowTileMap  = 6
	lcdcWindowEnable   = 5
	lcdcTileData       = 4
	lcdcBGTileMap      = 3
	lcdcObjSize        = 2
	lcdcObjEnable      = 1
	lcdcBGEnable       = 0
)

// stat bit positions.
const (
	statLYCIrq   = 6
	statOAMIrq   = 5
	statVBlankIrq = 4
	statHBlankIrq = 3
	statLYCEqual  = 2
)

// PPU owns VRAM, OAM, the LCD/palette registers, and the scanline state
// machine. It renders directly into a Framebuffer one scanline at a time,
// as mode 3 finishes for that line.
type PPU struct {
	requestInterrupt func(addr.Interrupt)

	vram [vramSize]byte
	oam  [oamSize]byte

	lcdc, stat               uint8
	scy, scx                 uint8
	ly, lyc                  uint8
	wy, wx                   uint8
	bgp, obp0, obp1          uint8

	mode      Mode
	dots      int // dots elapsed in the current line
	mode3Dots int // latched mode-3 duration for the current line

	lcdWasOn bool

	statLine bool // last computed STAT interrupt condition, for edge detection

	winYTrigger bool // latched true for the rest of the frame once WY==LY
	wc          int  // internal window line counter, advances only on lines that drew window

	fb       Framebuffer
	priority spritePriority

	frameDone bool
}

// New creates a PPU. requestInterrupt is called to raise VBlank or
// LCDSTAT on the bus's IF register.
func New(requestInterrupt func(addr.Interrupt)) *PPU {
	p := &PPU{requestInterrupt: requestInterrupt}
	p.mode = ModeOAMScan
	return p
}

// Framebuffer returns the PPU's current frame, valid to read once
// ConsumeFrame reports a completed frame.
func (p *PPU) Framebuffer() *Framebuffer {
	return &p.fb
}

// ConsumeFrame reports whether a frame finished rendering since the last
// call, clearing the flag either way.
func (p *PPU) ConsumeFrame() bool {
	done := p.frameDone
	p.frameDone = false
	return done
}

// LY exposes the current scanline for callers that need it outside the
// register bus (e.g. the core's frame-boundary bookkeeping).
func (p *PPU) LY() uint8 { return p.ly }

func (p *PPU) enabled() bool {
	return bit.IsSet(lcdcEnable, p.lcdc)
}

// Step advances the PPU by the given number of T-cycles.
func (p *PPU) Step(cycles int) {
	if !p.enabled() {
		if p.lcdWasOn {
			p.onDisable()
		}
		p.lcdWasOn = false
		return
	}
	if !p.lcdWasOn {
		p.onEnable()
	}
	p.lcdWasOn = true

	for i := 0; i < cycles; i++ {
		p.tick()
	}
}

func (p *PPU) onEnable() {
	p.mode = ModeOAMScan
	p.dots = 0
	p.ly = 0
	p.wc = 0
	p.winYTrigger = false
	p.updateStatLine()
}

func (p *PPU) onDisable() {
	p.mode = ModeHBlank
	p.dots = 0
	p.ly = 0
	p.stat = p.stat &^ 0x03
	p.fb.Clear()
	p.statLine = false
}

func (p *PPU) tick() {
	p.dots++

	switch p.mode {
	case ModeOAMScan:
		if p.dots >= oamScanDots {
			p.mode3Dots = 172 + int(p.scx&0x07)
			p.setMode(ModeTransfer)
		}
	case ModeTransfer:
		if p.dots >= oamScanDots+p.mode3Dots {
			p.renderScanline()
			p.setMode(ModeHBlank)
		}
	case ModeHBlank:
		if p.dots >= totalLineDots {
			p.advanceLine()
			if p.ly == 144 {
				p.setMode(ModeVBlank)
				p.requestInterrupt(addr.VBlankInterrupt)
				p.frameDone = true
			} else {
				p.setMode(ModeOAMScan)
			}
		}
	case ModeVBlank:
		if p.dots >= totalLineDots {
			p.advanceLine()
			if int(p.ly) > lastLine {
				p.ly = 0
				p.wc = 0
				p.winYTrigger = false
				p.writeLY()
				p.setMode(ModeOAMScan)
			}
		}
	}

	p.updateStatLine()
}

func (p *PPU) advanceLine() {
	p.dots = 0
	p.ly++
	p.writeLY()
	if p.ly == p.wy {
		p.winYTrigger = true
	}
}

func (p *PPU) setMode(m Mode) {
	p.mode = m
	p.stat = (p.stat &^ 0x03) | uint8(m)
}

func (p *PPU) writeLY() {
	if p.ly == p.lyc {
		p.stat = bit.Set(statLYCEqual, p.stat)
	} else {
		p.stat = bit.Reset(statLYCEqual, p.stat)
	}
}

// updateStatLine recomputes the OR'd STAT interrupt condition and raises
// LCDSTAT only on its 0-to-1 transition, matching the real PPU's
// interrupt-line behavior (a register write that momentarily satisfies
// two enabled conditions only fires once).
func (p *PPU) updateStatLine() {
	line := (bit.IsSet(statLYCIrq, p.stat) && bit.IsSet(statLYCEqual, p.stat)) ||
		(bit.IsSet(statOAMIrq, p.stat) && p.mode == ModeOAMScan) ||
		(bit.IsSet(statVBlankIrq, p.stat) && p.mode == ModeVBlank) ||
		(bit.IsSet(statHBlankIrq, p.stat) && p.mode == ModeHBlank)

	if line && !p.statLine {
		p.requestInterrupt(addr.LCDSTATInterrupt)
	}
	p.statLine = line
}

func (p *PPU) renderScanline() {
	if !p.enabled() {
		return
	}

	line := int(p.ly)
	if line >= ScreenHeight {
		return
	}

	if p.wy == p.ly {
		p.winYTrigger = true
	}

	p.drawBackground(line)
	drewWindow := p.drawWindow(line)
	p.drawSprites(line)

	if drewWindow {
		p.wc++
	}
}
