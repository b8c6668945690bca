// Package core ties the CPU, Bus, PPU and APU together into a runnable
// Game Boy: it owns the fetch-execute-step loop, ROM/.sav loading, and
// the small amount of bookkeeping (frame count, debugger pause state)
// that doesn't belong to any one hardware component.
package core

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/bus"
	"github.com/adelrune/dmgo/dmgo/cartridge"
	"github.com/adelrune/dmgo/dmgo/cpu"
	"github.com/adelrune/dmgo/dmgo/ppu"
	"github.com/adelrune/dmgo/dmgo/timing"
)

// RunMode selects how RunUntilFrame advances the machine, mirroring a
// debugger's play/pause/step states.
type RunMode int

const (
	// ModeRunning executes continuously until a frame completes.
	ModeRunning RunMode = iota
	// ModePaused executes nothing.
	ModePaused
	// ModeStepInstruction executes exactly one CPU step, then pauses.
	ModeStepInstruction
)

// Emulator is the root struct: one CPU, one Bus (which owns the PPU,
// APU, timer, joypad and serial stub), and the cartridge currently
// inserted.
type Emulator struct {
	cpu *cpu.CPU
	bus *bus.Bus
	cart *cartridge.Cartridge

	limiter timing.Limiter

	mu            sync.RWMutex
	mode          RunMode
	stepRequested bool

	frameCount uint64
}

// New creates an emulator with no cartridge inserted; LoadROMBytes must
// be called before RunUntilFrame produces anything interesting.
func New() *Emulator {
	b := bus.New()
	// The CPU starts from its post-boot-ROM register values; LCDC gets
	// the matching post-boot value (LCD and background on).
	b.PPU.WriteRegister(addr.LCDC, 0x91)
	e := &Emulator{
		bus:     b,
		cpu:     cpu.New(b),
		limiter: timing.NoOpLimiter{},
	}
	return e
}

// NewFromFile loads a ROM from disk, attaches it, and loads a sibling
// ".sav" file into battery RAM if one exists.
func NewFromFile(path string) (*Emulator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rom: %w", err)
	}

	e := New()
	if err := e.LoadROMBytes(data); err != nil {
		return nil, err
	}

	savPath := savPathFor(path)
	if sav, err := os.ReadFile(savPath); err == nil {
		e.cart.LoadRAM(sav)
		slog.Info("loaded battery save", "path", savPath, "bytes", len(sav))
	}

	return e, nil
}

// LoadROMBytes parses and inserts a cartridge image from memory.
func (e *Emulator) LoadROMBytes(data []byte) error {
	cart := cartridge.NewFromBytes(data)
	e.cart = cart
	e.bus.LoadCartridge(cart)
	slog.Info("loaded cartridge", "title", cart.Title, "kind", cart.Kind, "battery", cart.HasBattery)
	return nil
}

// savPathFor derives the battery-save sidecar path for a ROM path by
// swapping its extension for ".sav".
func savPathFor(romPath string) string {
	if idx := strings.LastIndexByte(romPath, '.'); idx >= 0 {
		return romPath[:idx] + ".sav"
	}
	return romPath + ".sav"
}

// SaveRAM writes the cartridge's battery RAM to its ".sav" sidecar, if
// the loaded ROM path is known and the cartridge actually has a battery.
func (e *Emulator) SaveRAM(romPath string) error {
	if e.cart == nil || !e.cart.HasBattery {
		return nil
	}
	ram := e.cart.RAM()
	if len(ram) == 0 {
		return nil
	}
	return os.WriteFile(savPathFor(romPath), ram, 0o644)
}

// SetFrameLimiter installs a pacing strategy for RunUntilFrame's caller
// to use; the core itself never blocks on it (that's left to the host
// render loop, as with the teacher's terminal renderer).
func (e *Emulator) SetFrameLimiter(limiter timing.Limiter) {
	e.limiter = limiter
}

// SetMode switches between free-running, paused, and single-step modes.
func (e *Emulator) SetMode(mode RunMode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
	if mode == ModeStepInstruction {
		e.stepRequested = true
	}
}

func (e *Emulator) currentMode() RunMode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.mode
}

// Step executes exactly one CPU unit of work (instruction, HALT tick, or
// interrupt dispatch) and advances every other device by the same
// number of T-cycles.
func (e *Emulator) Step() int {
	cycles := e.cpu.Step()
	e.bus.Step(cycles)
	return cycles
}

// RunUntilFrame executes CPU steps until the PPU reports a completed
// frame, honoring the current RunMode. In ModePaused it returns
// immediately; in ModeStepInstruction it executes one Step then reverts
// to paused.
func (e *Emulator) RunUntilFrame() {
	switch e.currentMode() {
	case ModePaused:
		return
	case ModeStepInstruction:
		e.mu.Lock()
		requested := e.stepRequested
		e.stepRequested = false
		e.mu.Unlock()
		if requested {
			e.Step()
		}
		return
	}

	for {
		e.Step()
		if e.bus.PPU.ConsumeFrame() {
			e.frameCount++
			return
		}
	}
}

// RunFrames runs exactly n full frames, ignoring RunMode; used by the
// screenshot/wav/mooneye CLI subcommands that don't need a debugger.
func (e *Emulator) RunFrames(n int) {
	for i := 0; i < n; i++ {
		for {
			e.Step()
			if e.bus.PPU.ConsumeFrame() {
				break
			}
		}
	}
}

// Framebuffer exposes the PPU's current frame for rendering.
func (e *Emulator) Framebuffer() *ppu.Framebuffer {
	return e.bus.PPU.Framebuffer()
}

// Samples drains pending audio samples from the APU's ring buffer.
func (e *Emulator) Samples(out []float32) int {
	return e.bus.APU.Samples(out)
}

// SampleRate reports the host sample rate the APU mixes down to.
func (e *Emulator) SampleRate() int {
	return e.bus.APU.SampleRate()
}

// SetButton updates one joypad line.
func (e *Emulator) SetButton(button bus.Button, pressed bool) {
	e.bus.SetButton(button, pressed)
}

// CPU exposes the CPU for debuggers and the Mooneye test-ROM runner.
func (e *Emulator) CPU() *cpu.CPU { return e.cpu }

// Bus exposes the bus for debuggers and save states.
func (e *Emulator) Bus() *bus.Bus { return e.bus }

// Cartridge exposes the loaded cartridge, or nil if none is inserted.
func (e *Emulator) Cartridge() *cartridge.Cartridge { return e.cart }

// FrameCount reports how many frames RunUntilFrame has completed.
func (e *Emulator) FrameCount() uint64 { return e.frameCount }

// SetFrameCount overwrites the frame counter, used when restoring a save
// state so FrameCount keeps reporting the original run's progress.
func (e *Emulator) SetFrameCount(n uint64) { e.frameCount = n }
