// Package bus implements the DMG's 16-bit address space: the decode
// logic that routes each region to the cartridge, PPU, APU, timer,
// joypad and serial port, plus the OAM DMA engine and the two interrupt
// registers (IE/IF) that tie everything back to the CPU.
package bus

import (
	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/apu"
	"github.com/adelrune/dmgo/dmgo/cartridge"
	"github.com/adelrune/dmgo/dmgo/ppu"
	"github.com/adelrune/dmgo/dmgo/serial"
)

const (
	wramSize = 0x2000
	hramSize = 0x7F
)

// Bus owns every addressable device and implements the cpu.Bus
// interface.
type Bus struct {
	cart *cartridge.Cartridge

	PPU *ppu.PPU
	APU *apu.APU

	timer  timer
	joypad joypad
	serial serial.Port

	wram [wramSize]byte
	hram [hramSize]byte

	ie, ifReg uint8

	bootROM        []byte
	bootROMEnabled bool

	dmaActive     bool
	dmaSource     uint16
	dmaCycleAccum int
}

// New creates a bus with no cartridge loaded; LoadCartridge attaches one.
func New() *Bus {
	b := &Bus{}
	b.PPU = ppu.New(b.RequestInterrupt)
	b.APU = apu.New(44100)
	b.timer = *newTimer(b.RequestInterrupt)
	b.joypad = *newJoypad(b.RequestInterrupt)
	b.serial = serial.NewStub(func() { b.RequestInterrupt(addr.SerialInterrupt) })
	return b
}

// LoadCartridge attaches a parsed cartridge image, replacing any
// previously loaded one.
func (b *Bus) LoadCartridge(cart *cartridge.Cartridge) {
	b.cart = cart
}

// SetBootROM installs a 256-byte boot ROM overlay for addresses
// 0x0000-0x00FF; it disables itself permanently on the first non-zero
// write to addr.BootROMDisable.
func (b *Bus) SetBootROM(rom []byte) {
	b.bootROM = rom
	b.bootROMEnabled = len(rom) > 0
}

// RequestInterrupt sets the corresponding bit in IF.
func (b *Bus) RequestInterrupt(i addr.Interrupt) {
	b.ifReg |= uint8(1) << i.Bit()
}

// SetButton updates one joypad line's pressed state.
func (b *Bus) SetButton(button Button, pressed bool) {
	b.joypad.setPressed(button, pressed)
}

// Step advances every device that runs off the CPU's cycle count: OAM
// DMA, the timer, the PPU, the APU and the serial stub.
func (b *Bus) Step(cycles int) {
	b.stepDMA(cycles)
	b.timer.step(cycles)
	b.PPU.Step(cycles)
	b.APU.Step(cycles)
	b.serial.Step(cycles)
}

func (b *Bus) Read(address uint16) uint8 {
	if b.bootROMEnabled && address <= 0x00FF && int(address) < len(b.bootROM) {
		return b.bootROM[address]
	}

	switch {
	case address <= 0x7FFF:
		return b.readCart(address)
	case address <= 0x9FFF:
		return b.PPU.ReadVRAM(address)
	case address <= 0xBFFF:
		return b.readCart(address)
	case address <= 0xDFFF:
		return b.wram[address-0xC000]
	case address <= 0xFDFF:
		return b.wram[address-0xE000]
	case address <= 0xFE9F:
		return b.PPU.ReadOAM(address)
	case address <= 0xFEFF:
		return 0xFF
	case address == addr.P1:
		return b.joypad.register()
	case address == addr.SB, address == addr.SC:
		return b.serial.Read(address)
	case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
		return b.timer.read(address)
	case address == addr.IF:
		return b.ifReg | 0xE0
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return b.APU.ReadRegister(address)
	case address == addr.DMA:
		return uint8(b.dmaSource >> 8)
	case address >= addr.LCDC && address <= addr.WX:
		return b.PPU.ReadRegister(address)
	case address >= 0xFF80 && address <= 0xFFFE:
		return b.hram[address-0xFF80]
	case address == addr.IE:
		return b.ie
	default:
		return 0xFF
	}
}

func (b *Bus) Write(address uint16, value uint8) {
	switch {
	case address <= 0x7FFF:
		b.writeCart(address, value)
	case address <= 0x9FFF:
		b.PPU.WriteVRAM(address, value)
	case address <= 0xBFFF:
		b.writeCart(address, value)
	case address <= 0xDFFF:
		b.wram[address-0xC000] = value
	case address <= 0xFDFF:
		b.wram[address-0xE000] = value
	case address <= 0xFE9F:
		b.PPU.WriteOAM(address, value)
	case address <= 0xFEFF:
		// unusable region, writes are discarded
	case address == addr.P1:
		b.joypad.writeSelect(value)
	case address == addr.SB, address == addr.SC:
		b.serial.Write(address, value)
	case address == addr.DIV, address == addr.TIMA, address == addr.TMA, address == addr.TAC:
		b.timer.write(address, value)
	case address == addr.IF:
		b.ifReg = value & 0x1F
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		b.APU.WriteRegister(address, value)
	case address == addr.DMA:
		b.startDMA(value)
	case address >= addr.LCDC && address <= addr.WX:
		b.PPU.WriteRegister(address, value)
	case address == addr.BootROMDisable:
		if value != 0 {
			b.bootROMEnabled = false
		}
	case address >= 0xFF80 && address <= 0xFFFE:
		b.hram[address-0xFF80] = value
	case address == addr.IE:
		b.ie = value
	}
}

func (b *Bus) readCart(address uint16) uint8 {
	if b.cart == nil {
		return 0xFF
	}
	return b.cart.Read(address)
}

func (b *Bus) writeCart(address uint16, value uint8) {
	if b.cart == nil {
		return
	}
	b.cart.Write(address, value)
}

// startDMA begins the 160-byte OAM transfer from (value << 8). Real
// hardware takes 160 M-cycles and locks out most of the bus meanwhile;
// this core copies immediately and only tracks elapsed cycles so DMA
// register reads stay plausible, matching the simplification the rest
// of this codebase makes for CPU/PPU-driven bus access outside DMA.
func (b *Bus) startDMA(value uint8) {
	b.dmaSource = uint16(value) << 8
	b.dmaActive = true
	b.dmaCycleAccum = 0

	var data [160]byte
	for i := range data {
		data[i] = b.Read(b.dmaSource + uint16(i))
	}
	b.PPU.LoadOAM(data)
}

func (b *Bus) stepDMA(cycles int) {
	if !b.dmaActive {
		return
	}
	b.dmaCycleAccum += cycles
	if b.dmaCycleAccum >= 160*4 {
		b.dmaActive = false
	}
}
