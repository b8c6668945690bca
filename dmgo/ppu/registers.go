package ppu

import "github.com/adelrune/dmgo/dmgo/addr"

// ReadVRAM and WriteVRAM take a full 0x8000-0x9FFF bus address.
func (p *PPU) ReadVRAM(address uint16) uint8 {
	return p.vram[address-0x8000]
}

func (p *PPU) WriteVRAM(address uint16, value uint8) {
	p.vram[address-0x8000] = value
}

// ReadOAM and WriteOAM take a full 0xFE00-0xFE9F bus address.
func (p *PPU) ReadOAM(address uint16) uint8 {
	return p.oam[address-addr.OAMStart]
}

func (p *PPU) WriteOAM(address uint16, value uint8) {
	p.oam[address-addr.OAMStart] = value
}

// LoadOAM overwrites all 160 OAM bytes at once, used by the bus's DMA
// engine to emulate the hardware's single-shot 0xFE00 transfer.
func (p *PPU) LoadOAM(data [oamSize]byte) {
	p.oam = data
}

func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return p.stat | 0x80
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	default:
		return 0xFF
	}
}

func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		p.lcdc = value
	case addr.STAT:
		// Bits 0-2 are read-only (mode, LYC=LY flag); only the interrupt
		// enable bits 3-6 are writable.
		p.stat = (p.stat & 0x07) | (value & 0x78)
		p.updateStatLine()
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LY:
		// Writes to LY are ignored on real hardware.
	case addr.LYC:
		p.lyc = value
		p.writeLY()
		p.updateStatLine()
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	}
}
