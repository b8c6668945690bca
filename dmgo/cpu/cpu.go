// Package cpu implements the Sharp LR35902: registers, the interrupt
// dispatch sequence, and the full primary and CB-prefixed instruction
// set. Step executes exactly one instruction (or one interrupt dispatch,
// or one HALT-idle tick) and returns the T-cycles it consumed; nothing
// in the package blocks or spans multiple calls.
package cpu

import "github.com/adelrune/dmgo/dmgo/addr"

// Bus is everything the CPU needs from the rest of the machine: the
// address-mapped read/write surface, and the two interrupt registers it
// consults every step. IE/IF live on the bus, not the CPU, because the
// PPU, APU and timer all set bits in IF directly.
type Bus interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
}

// CPU is the LR35902 core: registers plus the handful of bits that
// govern interrupt and HALT behavior.
type CPU struct {
	registers

	bus Bus

	ime        bool
	imeEnqueue int // countdown to IME taking effect after EI; -1 = not pending
	halted     bool
	stopped    bool
}

// New creates a CPU wired to bus, with registers at their post-boot-ROM
// power-up values (as if the DMG boot ROM had just handed off control).
func New(bus Bus) *CPU {
	c := &CPU{bus: bus, imeEnqueue: -1}
	c.a, c.f = 0x01, 0xB0
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100
	return c
}

// PC and SP are exported read accessors for debuggers, save states and
// the Mooneye test-ROM sentinel check.
func (c *CPU) PC() uint16 { return c.pc }
func (c *CPU) SP() uint16 { return c.sp }

// Registers8 returns A, B, C, D, E, H, L, F in that order, for save
// states and test assertions that want the raw register file.
func (c *CPU) Registers8() (a, b, cc, d, e, h, l, f uint8) {
	return c.a, c.b, c.c, c.d, c.e, c.h, c.l, c.f
}

// SetState restores a full register file, e.g. from a save state. It
// bypasses IME/HALT bookkeeping entirely: the caller is responsible for
// those if they are part of the restored snapshot.
func (c *CPU) SetState(a, b, d, e, h, l, f uint8, cReg uint8, sp, pc uint16) {
	c.a, c.f = a, f&0xF0
	c.b, c.c = b, cReg
	c.d, c.e = d, e
	c.h, c.l = h, l
	c.sp, c.pc = sp, pc
}

func (c *CPU) IME() bool    { return c.ime }
func (c *CPU) Halted() bool { return c.halted }

// IMEEnqueue exposes the EI-delay countdown (-1 when no EI is pending), for
// save states that want to reproduce the pending-enable window exactly.
func (c *CPU) IMEEnqueue() int { return c.imeEnqueue }

// SetInterruptState restores IME, HALT and the pending EI countdown
// without going through requestEI or serviceInterrupt, so restoring a
// save state never dispatches an interrupt or re-arms the EI delay as a
// side effect.
func (c *CPU) SetInterruptState(ime bool, halted bool, imeEnqueue int) {
	c.ime = ime
	c.halted = halted
	c.imeEnqueue = imeEnqueue
}

// Step executes exactly one "unit" of CPU work and returns how many
// T-cycles it took: an interrupt dispatch (20 cycles), one idle HALT
// tick (4 cycles), or one decoded instruction.
func (c *CPU) Step() int {
	c.tickIME()

	if cycles, serviced := c.serviceInterrupt(); serviced {
		return cycles
	}

	if c.halted {
		return 4
	}

	opcode := c.fetch8()
	if opcode == 0xCB {
		return c.executeCB(c.fetch8())
	}
	return c.execute(opcode)
}

// tickIME applies the one-instruction delay EI imposes: the flag set by
// EI takes effect only after the instruction following it has executed.
func (c *CPU) tickIME() {
	if c.imeEnqueue < 0 {
		return
	}
	if c.imeEnqueue == 0 {
		c.ime = true
		c.imeEnqueue = -1
		return
	}
	c.imeEnqueue--
}

func (c *CPU) requestEI() {
	c.imeEnqueue = 1
}

// serviceInterrupt checks IE&IF for a pending, enabled interrupt and, if
// IME is set, dispatches the highest-priority one: pushes PC, clears its
// IF bit, jumps to its vector, and disables IME. HALT is woken by a
// pending interrupt whether or not IME is set (the "halt bug" where a
// pending interrupt with IME=0 also corrupts the next fetch is not
// modeled here).
func (c *CPU) serviceInterrupt() (cycles int, serviced bool) {
	ie := c.bus.Read(addr.IE)
	ifReg := c.bus.Read(addr.IF)
	pending := ie & ifReg & 0x1F
	if pending == 0 {
		return 0, false
	}

	if c.halted {
		c.halted = false
	}

	if !c.ime {
		return 0, false
	}

	for _, source := range addr.Priority {
		bitMask := uint8(1) << source.Bit()
		if pending&bitMask == 0 {
			continue
		}

		c.ime = false
		c.bus.Write(addr.IF, ifReg&^bitMask)
		c.push16(c.pc)
		c.pc = source.Vector()
		return 20, true
	}

	return 0, false
}

func (c *CPU) fetch8() uint8 {
	v := c.bus.Read(c.pc)
	c.pc++
	return v
}

func (c *CPU) fetch16() uint16 {
	lo := c.fetch8()
	hi := c.fetch8()
	return combine(hi, lo)
}

func (c *CPU) push16(v uint16) {
	c.sp--
	c.bus.Write(c.sp, high(v))
	c.sp--
	c.bus.Write(c.sp, low(v))
}

func (c *CPU) pop16() uint16 {
	lo := c.bus.Read(c.sp)
	c.sp++
	hi := c.bus.Read(c.sp)
	c.sp++
	return combine(hi, lo)
}
