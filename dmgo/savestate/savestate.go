// Package savestate serializes an emulator snapshot to and from a byte
// stream using encoding/gob, the same approach the rest of this
// project's corpus reaches for when nothing fancier than "round-trip a
// flat Go struct" is required.
package savestate

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/adelrune/dmgo/dmgo/apu"
	"github.com/adelrune/dmgo/dmgo/bus"
	"github.com/adelrune/dmgo/dmgo/core"
	"github.com/adelrune/dmgo/dmgo/cpu"
	"github.com/adelrune/dmgo/dmgo/ppu"
)

func init() {
	gob.Register(State{})
	gob.Register(cpu.State{})
	gob.Register(bus.State{})
	gob.Register(ppu.State{})
	gob.Register(apu.State{})
}

// formatVersion is bumped whenever the State layout changes in a way
// that breaks compatibility with previously written snapshots.
const formatVersion = 1

// State is a complete, self-contained snapshot of a running emulator:
// every register, every byte of VRAM/OAM/WRAM/HRAM, every channel's
// live generator state, and the cartridge's external RAM. Restoring one
// applies every field directly rather than through the bus's normal
// read/write surface, so no register write side effect (STAT IRQs, LCD
// enable/disable handling, APU channel triggers) fires during Load.
type State struct {
	Version int

	CPU cpu.State
	Bus bus.State

	// CartridgeRAM holds the external RAM contents at save time. It is
	// restored via Cartridge.LoadRAM, which clamps to the cartridge's
	// actual RAM capacity, so a state saved against a different mapper
	// size degrades gracefully instead of panicking.
	CartridgeRAM []byte

	FrameCount uint64
}

// Capture builds a State snapshot from a live emulator.
func Capture(e *core.Emulator) State {
	s := State{
		Version:    formatVersion,
		CPU:        e.CPU().State(),
		Bus:        e.Bus().State(),
		FrameCount: e.FrameCount(),
	}
	if cart := e.Cartridge(); cart != nil {
		s.CartridgeRAM = append([]byte(nil), cart.RAM()...)
	}
	return s
}

// Apply restores a State onto a live emulator. The emulator must already
// have the matching cartridge loaded; Apply only restores RAM contents,
// not the ROM image or mapper identity.
func Apply(e *core.Emulator, s State) error {
	if s.Version != formatVersion {
		return fmt.Errorf("savestate: unsupported format version %d (expected %d)", s.Version, formatVersion)
	}

	e.CPU().LoadState(s.CPU)
	e.Bus().LoadState(s.Bus)
	if cart := e.Cartridge(); cart != nil && len(s.CartridgeRAM) > 0 {
		cart.LoadRAM(s.CartridgeRAM)
	}
	e.SetFrameCount(s.FrameCount)

	return nil
}

// Encode serializes a State to a gob-encoded byte slice.
func Encode(s State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("savestate: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a State from a gob-encoded byte slice.
func Decode(data []byte) (State, error) {
	var s State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return State{}, fmt.Errorf("savestate: decode: %w", err)
	}
	return s, nil
}

// Save captures the emulator's state and writes it to path.
func Save(e *core.Emulator, path string) error {
	data, err := Encode(Capture(e))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads a state file from path and applies it to the emulator.
func Load(e *core.Emulator, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("savestate: reading %s: %w", path, err)
	}
	s, err := Decode(data)
	if err != nil {
		return err
	}
	return Apply(e, s)
}
