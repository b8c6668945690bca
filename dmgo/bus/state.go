package bus

import (
	"github.com/adelrune/dmgo/dmgo/apu"
	"github.com/adelrune/dmgo/dmgo/ppu"
)

// TimerState is a flat snapshot of the DIV/TIMA/TMA/TAC unit, including
// the in-progress overflow countdown so a save state can't lose a
// pending TIMA reload.
type TimerState struct {
	SystemCounter  uint16
	LastBit        bool
	OverflowCycles int
	PendingIRQ     bool
	DIV, TIMA, TMA, TAC uint8
}

// JoypadState is a flat snapshot of the button lines and select bits.
type JoypadState struct {
	Buttons    uint8
	Dpad       uint8
	SelectBits uint8
}

// State is a flat, gob-friendly snapshot of every device on the bus
// except the cartridge (and the CPU, which is not on the bus): the PPU
// and APU states, WRAM, HRAM, the interrupt registers, the boot ROM
// latch, DMA progress, and the timer/joypad sub-devices.
type State struct {
	PPU ppu.State
	APU apu.State

	WRAM [wramSize]byte
	HRAM [hramSize]byte

	IE, IF uint8

	BootROMEnabled bool

	DMAActive     bool
	DMASource     uint16
	DMACycleAccum int

	Timer  TimerState
	Joypad JoypadState
}

// State captures every device on the bus except the cartridge, whose RAM
// is saved separately via Cartridge.RAM so battery saves and save states
// can share the same bytes.
func (b *Bus) State() State {
	return State{
		PPU:  b.PPU.State(),
		APU:  b.APU.State(),
		WRAM: b.wram,
		HRAM: b.hram,
		IE:   b.ie,
		IF:   b.ifReg,

		BootROMEnabled: b.bootROMEnabled,

		DMAActive:     b.dmaActive,
		DMASource:     b.dmaSource,
		DMACycleAccum: b.dmaCycleAccum,

		Timer: TimerState{
			SystemCounter:  b.timer.systemCounter,
			LastBit:        b.timer.lastBit,
			OverflowCycles: b.timer.overflowCycles,
			PendingIRQ:     b.timer.pendingIRQ,
			DIV:            b.timer.div,
			TIMA:           b.timer.tima,
			TMA:            b.timer.tma,
			TAC:            b.timer.tac,
		},
		Joypad: JoypadState{
			Buttons:    b.joypad.buttons,
			Dpad:       b.joypad.dpad,
			SelectBits: b.joypad.selectBits,
		},
	}
}

// LoadState restores a previously captured bus state verbatim. The boot
// ROM bytes themselves are not part of the snapshot (SetBootROM must be
// called again if needed); only the enabled latch is restored.
func (b *Bus) LoadState(s State) {
	b.PPU.LoadState(s.PPU)
	b.APU.LoadState(s.APU)
	b.wram = s.WRAM
	b.hram = s.HRAM
	b.ie = s.IE
	b.ifReg = s.IF

	b.bootROMEnabled = s.BootROMEnabled

	b.dmaActive = s.DMAActive
	b.dmaSource = s.DMASource
	b.dmaCycleAccum = s.DMACycleAccum

	b.timer.systemCounter = s.Timer.SystemCounter
	b.timer.lastBit = s.Timer.LastBit
	b.timer.overflowCycles = s.Timer.OverflowCycles
	b.timer.pendingIRQ = s.Timer.PendingIRQ
	b.timer.div = s.Timer.DIV
	b.timer.tima = s.Timer.TIMA
	b.timer.tma = s.Timer.TMA
	b.timer.tac = s.Timer.TAC

	b.joypad.buttons = s.Joypad.Buttons
	b.joypad.dpad = s.Joypad.Dpad
	b.joypad.selectBits = s.Joypad.SelectBits
}
