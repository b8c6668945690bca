package ppu

// State is a flat, gob-friendly snapshot of everything the PPU needs to
// resume mid-scanline: VRAM, OAM, every register, and the scanline state
// machine's internal counters and latches.
type State struct {
	VRAM [vramSize]byte
	OAM  [oamSize]byte

	LCDC, STAT              uint8
	SCY, SCX                uint8
	LY, LYC                 uint8
	WY, WX                  uint8
	BGP, OBP0, OBP1         uint8

	Mode      uint8
	Dots      int
	Mode3Dots int

	LCDWasOn    bool
	StatLine    bool
	WinYTrigger bool
	WC          int
}

// State captures the PPU's full internal state.
func (p *PPU) State() State {
	return State{
		VRAM: p.vram,
		OAM:  p.oam,

		LCDC: p.lcdc, STAT: p.stat,
		SCY: p.scy, SCX: p.scx,
		LY: p.ly, LYC: p.lyc,
		WY: p.wy, WX: p.wx,
		BGP: p.bgp, OBP0: p.obp0, OBP1: p.obp1,

		Mode:      uint8(p.mode),
		Dots:      p.dots,
		Mode3Dots: p.mode3Dots,

		LCDWasOn:    p.lcdWasOn,
		StatLine:    p.statLine,
		WinYTrigger: p.winYTrigger,
		WC:          p.wc,
	}
}

// LoadState restores a previously captured PPU state verbatim. It writes
// every field directly rather than going through Step/onEnable/onDisable,
// so restoring a save state never raises VBlank, LCDSTAT, or clears the
// framebuffer as a side effect.
func (p *PPU) LoadState(s State) {
	p.vram = s.VRAM
	p.oam = s.OAM

	p.lcdc, p.stat = s.LCDC, s.STAT
	p.scy, p.scx = s.SCY, s.SCX
	p.ly, p.lyc = s.LY, s.LYC
	p.wy, p.wx = s.WY, s.WX
	p.bgp, p.obp0, p.obp1 = s.BGP, s.OBP0, s.OBP1

	p.mode = Mode(s.Mode)
	p.dots = s.Dots
	p.mode3Dots = s.Mode3Dots

	p.lcdWasOn = s.LCDWasOn
	p.statLine = s.StatLine
	p.winYTrigger = s.WinYTrigger
	p.wc = s.WC

	p.frameDone = false
}
