package ppu

import "github.com/adelrune/dmgo/dmgo/bit"

// tileDataSigned is VRAM offset 0x9000-0x8000, the base LCDC bit 4=0 uses
// for its signed -128..127 tile numbering.
const tileDataSigned = 0x1000

func (p *PPU) drawBackground(line int) {
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		shade := p.bgp & 0x03
		color := ShadeToColor(shade)
		for x := 0; x < ScreenWidth; x++ {
			p.fb.setPixel(x, line, color)
			p.fb.setBGShade(x, line, 0)
		}
		return
	}

	tileMapBase := uint16(0x1800) // 0x9800 - 0x8000
	if bit.IsSet(lcdcBGTileMap, p.lcdc) {
		tileMapBase = 0x1C00 // 0x9C00 - 0x8000
	}

	scrolledY := (line + int(p.scy)) & 0xFF
	tileRow := (scrolledY / 8) * 32
	pixelY := scrolledY % 8

	for x := 0; x < ScreenWidth; x++ {
		scrolledX := (x + int(p.scx)) & 0xFF
		tileCol := scrolledX / 8
		pixelX := scrolledX % 8

		tileIndex := p.vram[tileMapBase+uint16(tileRow+tileCol)]
		low, high := p.tileRow(tileIndex, pixelY)

		bitIdx := uint8(7 - pixelX)
		shade := pixelShade(low, high, bitIdx)
		color := (p.bgp >> (shade * 2)) & 0x03

		p.fb.setPixel(x, line, ShadeToColor(color))
		p.fb.setBGShade(x, line, shade)
	}
}

// drawWindow renders the window layer for this scanline, reporting
// whether it actually drew any pixels (the internal window line counter
// only advances on lines where it did).
func (p *PPU) drawWindow(line int) bool {
	if !bit.IsSet(lcdcWindowEnable, p.lcdc) || !p.winYTrigger {
		return false
	}

	wx := int(p.wx) - 7
	if wx >= ScreenWidth {
		return false
	}

	tileMapBase := uint16(0x1800)
	if bit.IsSet(lcdcWindowTileMap, p.lcdc) {
		tileMapBase = 0x1C00
	}

	tileRow := (p.wc / 8) * 32
	pixelY := p.wc % 8

	drew := false
	for x := 0; x < ScreenWidth; x++ {
		screenX := wx + x
		if screenX < 0 || screenX >= ScreenWidth {
			continue
		}

		tileCol := x / 8
		pixelX := x % 8
		if tileCol >= 32 {
			break
		}

		tileIndex := p.vram[tileMapBase+uint16(tileRow+tileCol)]
		low, high := p.tileRow(tileIndex, pixelY)

		bitIdx := uint8(7 - pixelX)
		shade := pixelShade(low, high, bitIdx)
		color := (p.bgp >> (shade * 2)) & 0x03

		p.fb.setPixel(screenX, line, ShadeToColor(color))
		p.fb.setBGShade(screenX, line, shade)
		drew = true
	}

	return drew
}

// tileRow fetches the low/high bit planes for one 8-pixel row of a tile,
// honoring LCDC bit 4's signed/unsigned tile-number addressing.
func (p *PPU) tileRow(tileIndex uint8, pixelY int) (low, high uint8) {
	var base int
	if bit.IsSet(lcdcTileData, p.lcdc) {
		base = int(tileIndex) * 16
	} else {
		base = tileDataSigned + int(int8(tileIndex))*16
	}
	offset := base + pixelY*2
	if offset < 0 || offset+1 >= vramSize {
		return 0, 0
	}
	return p.vram[offset], p.vram[offset+1]
}

func pixelShade(low, high, bitIdx uint8) uint8 {
	shade := uint8(0)
	if bit.IsSet(bitIdx, low) {
		shade |= 1
	}
	if bit.IsSet(bitIdx, high) {
		shade |= 2
	}
	return shade
}

type objAttrs struct {
	y, x  int
	tile  uint8
	flags uint8
}

func (p *PPU) objAt(index int) objAttrs {
	base := index * 4
	return objAttrs{
		y:     int(p.oam[base]) - 16,
		x:     int(p.oam[base+1]) - 8,
		tile:  p.oam[base+2],
		flags: p.oam[base+3],
	}
}

func (p *PPU) drawSprites(line int) {
	if !bit.IsSet(lcdcObjEnable, p.lcdc) {
		return
	}

	height := 8
	if bit.IsSet(lcdcObjSize, p.lcdc) {
		height = 16
	}

	var candidates []int
	for i := 0; i < 40; i++ {
		o := p.objAt(i)
		if o.y > line || o.y+height <= line {
			continue
		}
		candidates = append(candidates, i)
		if len(candidates) >= 10 {
			break
		}
	}

	p.priority.reset()
	for _, idx := range candidates {
		o := p.objAt(idx)
		for px := 0; px < 8; px++ {
			p.priority.claim(o.x+px, int8(idx), int16(o.x))
		}
	}

	for _, idx := range candidates {
		o := p.objAt(idx)

		owns := false
		for px := 0; px < 8; px++ {
			if p.priority.ownerOf(o.x+px) == int8(idx) {
				owns = true
				break
			}
		}
		if !owns {
			continue
		}

		tile := o.tile
		if height == 16 {
			tile &^= 0x01
		}

		flipX := bit.IsSet(5, o.flags)
		flipY := bit.IsSet(6, o.flags)
		behindBG := bit.IsSet(7, o.flags)
		palette := p.obp0
		if bit.IsSet(4, o.flags) {
			palette = p.obp1
		}

		rowInSprite := line - o.y
		if flipY {
			rowInSprite = height - 1 - rowInSprite
		}

		tileOffset := int(tile) * 16
		if height == 16 && rowInSprite >= 8 {
			tileOffset += (rowInSprite - 8) * 2
			tileOffset += 16
		} else {
			tileOffset += rowInSprite * 2
		}

		low := p.vram[tileOffset]
		high := p.vram[tileOffset+1]

		for px := 0; px < 8; px++ {
			screenX := o.x + px
			if p.priority.ownerOf(screenX) != int8(idx) {
				continue
			}

			bitIdx := uint8(7 - px)
			if flipX {
				bitIdx = uint8(px)
			}
			shade := pixelShade(low, high, bitIdx)
			if shade == 0 {
				continue
			}

			if behindBG && p.fb.bgShadeAt(screenX, line) != 0 {
				continue
			}

			color := (palette >> (shade * 2)) & 0x03
			p.fb.setPixel(screenX, line, ShadeToColor(color))
		}
	}
}
