package cpu

import (
	"testing"

	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatBus is a trivial 64KiB address space for exercising the CPU in
// isolation, independent of the real bus's device routing.
type flatBus struct {
	mem [0x10000]uint8
}

func (b *flatBus) Read(address uint16) uint8        { return b.mem[address] }
func (b *flatBus) Write(address uint16, value uint8) { b.mem[address] = value }

func newTestCPU(program ...uint8) (*CPU, *flatBus) {
	bus := &flatBus{}
	for i, b := range program {
		bus.mem[0x0100+i] = b
	}
	return New(bus), bus
}

func TestNOPTakesFourCycles(t *testing.T) {
	c, _ := newTestCPU(0x00)
	assert.Equal(t, 4, c.Step())
	assert.Equal(t, uint16(0x0101), c.pc)
}

func TestLDRegisterToRegister(t *testing.T) {
	c, _ := newTestCPU(0x41) // LD B,C
	c.c = 0x42
	c.Step()
	assert.Equal(t, uint8(0x42), c.b)
}

func TestAddSetsHalfAndFullCarry(t *testing.T) {
	c, _ := newTestCPU(0x80) // ADD A,B
	c.a = 0x0F
	c.b = 0x01
	c.Step()
	assert.Equal(t, uint8(0x10), c.a)
	assert.True(t, c.flag(flagH))
	assert.False(t, c.flag(flagC))
	assert.False(t, c.flag(flagZ))
}

func TestIncDoesNotAffectCarryFlag(t *testing.T) {
	c, _ := newTestCPU(0x3C) // INC A
	c.a = 0xFF
	c.f = flagC
	c.Step()
	assert.Equal(t, uint8(0), c.a)
	assert.True(t, c.flag(flagZ))
	assert.True(t, c.flag(flagC), "INC must never touch the carry flag")
}

func TestDAAAfterBCDAddition(t *testing.T) {
	c, _ := newTestCPU()
	c.a = 0x45
	c.add8(0x38) // 0x45 + 0x38 = 0x7D, BCD should read 83
	c.daa()
	assert.Equal(t, uint8(0x83), c.a)
	assert.False(t, c.flag(flagC))
}

func TestPushPopRoundTrips(t *testing.T) {
	c, _ := newTestCPU(0xC5, 0xD1) // PUSH BC ; POP DE
	c.setBC(0xBEEF)
	c.Step()
	c.Step()
	assert.Equal(t, uint16(0xBEEF), c.de())
}

func TestJRNZTakesExtraCyclesOnlyWhenTaken(t *testing.T) {
	c, _ := newTestCPU(0x20, 0x02) // JR NZ,+2
	c.setFlag(flagZ, false)
	cycles := c.Step()
	assert.Equal(t, 12, cycles)
	assert.Equal(t, uint16(0x0104), c.pc)

	c2, _ := newTestCPU(0x20, 0x02)
	c2.setFlag(flagZ, true)
	cycles2 := c2.Step()
	assert.Equal(t, 8, cycles2)
	assert.Equal(t, uint16(0x0102), c2.pc)
}

func TestEITakesEffectAfterFollowingInstruction(t *testing.T) {
	c, bus := newTestCPU(0xFB, 0x00, 0x00) // EI ; NOP ; NOP
	bus.mem[addr.IE] = 0xFF
	bus.mem[addr.IF] = 0xFF

	c.Step() // EI: IME not yet active
	assert.False(t, c.ime)

	c.Step() // the instruction right after EI still runs with IME off
	assert.False(t, c.ime)
	assert.Equal(t, uint16(0x0102), c.pc)

	cycles := c.Step() // IME is on from here, so the pending interrupt is dispatched
	assert.Equal(t, 20, cycles)
	assert.Equal(t, addr.VBlankInterrupt.Vector(), c.pc)
}

func TestHaltWakesWithoutServicingWhenIMEDisabled(t *testing.T) {
	c, bus := newTestCPU(0x76, 0x00) // HALT ; NOP
	c.ime = false
	c.Step()
	require.True(t, c.halted)

	bus.mem[addr.IE] = 0x01
	bus.mem[addr.IF] = 0x01

	cycles := c.Step()
	assert.False(t, c.halted)
	assert.Equal(t, 4, cycles, "HALT should wake into the next fetch, not an interrupt dispatch, when IME is off")
}

func TestInterruptDispatchPushesPCAndJumpsToVector(t *testing.T) {
	c, bus := newTestCPU(0x00)
	c.ime = true
	c.pc = 0x0150
	c.sp = 0xFFFE
	bus.mem[addr.IE] = uint8(addr.VBlankInterrupt)
	bus.mem[addr.IF] = uint8(addr.VBlankInterrupt)

	cycles := c.Step()

	assert.Equal(t, 20, cycles)
	assert.Equal(t, addr.VBlankInterrupt.Vector(), c.pc)
	assert.False(t, c.ime)
	assert.Equal(t, uint8(0), bus.mem[addr.IF]&uint8(addr.VBlankInterrupt))
	assert.Equal(t, uint16(0x0150), c.pop16())
}

func TestInterruptPriorityServicesLowestBitFirst(t *testing.T) {
	c, bus := newTestCPU(0x00)
	c.ime = true
	bus.mem[addr.IE] = 0xFF
	bus.mem[addr.IF] = uint8(addr.TimerInterrupt) | uint8(addr.VBlankInterrupt)

	c.Step()

	assert.Equal(t, addr.VBlankInterrupt.Vector(), c.pc)
}
