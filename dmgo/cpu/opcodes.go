package cpu

import "log/slog"

// reg8Table maps the 3-bit register field used throughout the primary
// opcode table to its operand; index 6 is always "(HL)".
var reg8Table = [8]reg8{regB, regC, regD, regE, regH, regL, regHLInd, regA}

// execute dispatches one non-CB-prefixed opcode and returns its T-cycle
// cost. The two big regular blocks (LD r,r' and the 8-bit ALU ops) are
// driven by reg8Table off the opcode's 3-bit operand fields; everything
// else is irregular enough in the GB's opcode map to list explicitly.
func (c *CPU) execute(opcode uint8) int {
	switch {
	case opcode >= 0x40 && opcode <= 0x7F:
		return c.executeLD8(opcode)
	case opcode >= 0x80 && opcode <= 0xBF:
		return c.executeALU(opcode)
	default:
		return c.executeMisc(opcode)
	}
}

func (c *CPU) executeLD8(opcode uint8) int {
	if opcode == 0x76 {
		c.halted = true
		return 4
	}

	y := (opcode >> 3) & 7
	z := opcode & 7
	src := reg8Table[z]
	dst := reg8Table[y]

	c.set8(dst, c.get8(src))

	if src == regHLInd || dst == regHLInd {
		return 8
	}
	return 4
}

func (c *CPU) executeALU(opcode uint8) int {
	y := (opcode >> 3) & 7
	z := opcode & 7
	v := c.get8(reg8Table[z])

	switch y {
	case 0:
		c.add8(v)
	case 1:
		c.adc8(v)
	case 2:
		c.sub8(v)
	case 3:
		c.sbc8(v)
	case 4:
		c.and8(v)
	case 5:
		c.xor8(v)
	case 6:
		c.or8(v)
	case 7:
		c.cp8(v)
	}

	if z == 6 {
		return 8
	}
	return 4
}

// condition evaluates one of the four branch conditions the opcode map
// reuses for JR/JP/CALL/RET: 0=NZ, 1=Z, 2=NC, 3=C.
func (c *CPU) condition(cc uint8) bool {
	switch cc {
	case 0:
		return !c.flag(flagZ)
	case 1:
		return c.flag(flagZ)
	case 2:
		return !c.flag(flagC)
	default:
		return c.flag(flagC)
	}
}

func (c *CPU) rst(vector uint16) {
	c.push16(c.pc)
	c.pc = vector
}

func (c *CPU) jr() {
	offset := int8(c.fetch8())
	c.pc = uint16(int32(c.pc) + int32(offset))
}

func (c *CPU) executeMisc(opcode uint8) int {
	switch opcode {
	case 0x00: // NOP
		return 4
	case 0x01:
		c.setBC(c.fetch16())
		return 12
	case 0x02:
		c.bus.Write(c.bc(), c.a)
		return 8
	case 0x03:
		c.setBC(c.bc() + 1)
		return 8
	case 0x04:
		c.b = c.inc8(c.b)
		return 4
	case 0x05:
		c.b = c.dec8(c.b)
		return 4
	case 0x06:
		c.b = c.fetch8()
		return 8
	case 0x07:
		result, carry := rotateLeft(c.a, false, false)
		c.a = c.applyRotate(result, carry, false)
		return 4
	case 0x08:
		address := c.fetch16()
		c.bus.Write(address, low(c.sp))
		c.bus.Write(address+1, high(c.sp))
		return 20
	case 0x09:
		c.addHL16(c.bc())
		return 8
	case 0x0A:
		c.a = c.bus.Read(c.bc())
		return 8
	case 0x0B:
		c.setBC(c.bc() - 1)
		return 8
	case 0x0C:
		c.c = c.inc8(c.c)
		return 4
	case 0x0D:
		c.c = c.dec8(c.c)
		return 4
	case 0x0E:
		c.c = c.fetch8()
		return 8
	case 0x0F:
		result, carry := rotateRight(c.a, false, false)
		c.a = c.applyRotate(result, carry, false)
		return 4

	case 0x10: // STOP, followed by a padding byte
		c.fetch8()
		c.stopped = true
		return 4
	case 0x11:
		c.setDE(c.fetch16())
		return 12
	case 0x12:
		c.bus.Write(c.de(), c.a)
		return 8
	case 0x13:
		c.setDE(c.de() + 1)
		return 8
	case 0x14:
		c.d = c.inc8(c.d)
		return 4
	case 0x15:
		c.d = c.dec8(c.d)
		return 4
	case 0x16:
		c.d = c.fetch8()
		return 8
	case 0x17:
		carryIn := c.flag(flagC)
		result, carry := rotateLeft(c.a, true, carryIn)
		c.a = c.applyRotate(result, carry, false)
		return 4
	case 0x18:
		c.jr()
		return 12
	case 0x19:
		c.addHL16(c.de())
		return 8
	case 0x1A:
		c.a = c.bus.Read(c.de())
		return 8
	case 0x1B:
		c.setDE(c.de() - 1)
		return 8
	case 0x1C:
		c.e = c.inc8(c.e)
		return 4
	case 0x1D:
		c.e = c.dec8(c.e)
		return 4
	case 0x1E:
		c.e = c.fetch8()
		return 8
	case 0x1F:
		carryIn := c.flag(flagC)
		result, carry := rotateRight(c.a, true, carryIn)
		c.a = c.applyRotate(result, carry, false)
		return 4

	case 0x20:
		if c.condition(0) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x21:
		c.setHL(c.fetch16())
		return 12
	case 0x22:
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() + 1)
		return 8
	case 0x23:
		c.setHL(c.hl() + 1)
		return 8
	case 0x24:
		c.h = c.inc8(c.h)
		return 4
	case 0x25:
		c.h = c.dec8(c.h)
		return 4
	case 0x26:
		c.h = c.fetch8()
		return 8
	case 0x27:
		c.daa()
		return 4
	case 0x28:
		if c.condition(1) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x29:
		c.addHL16(c.hl())
		return 8
	case 0x2A:
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() + 1)
		return 8
	case 0x2B:
		c.setHL(c.hl() - 1)
		return 8
	case 0x2C:
		c.l = c.inc8(c.l)
		return 4
	case 0x2D:
		c.l = c.dec8(c.l)
		return 4
	case 0x2E:
		c.l = c.fetch8()
		return 8
	case 0x2F:
		c.cpl()
		return 4

	case 0x30:
		if c.condition(2) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x31:
		c.sp = c.fetch16()
		return 12
	case 0x32:
		c.bus.Write(c.hl(), c.a)
		c.setHL(c.hl() - 1)
		return 8
	case 0x33:
		c.sp++
		return 8
	case 0x34:
		c.bus.Write(c.hl(), c.inc8(c.bus.Read(c.hl())))
		return 12
	case 0x35:
		c.bus.Write(c.hl(), c.dec8(c.bus.Read(c.hl())))
		return 12
	case 0x36:
		c.bus.Write(c.hl(), c.fetch8())
		return 12
	case 0x37:
		c.scf()
		return 4
	case 0x38:
		if c.condition(3) {
			c.jr()
			return 12
		}
		c.pc++
		return 8
	case 0x39:
		c.addHL16(c.sp)
		return 8
	case 0x3A:
		c.a = c.bus.Read(c.hl())
		c.setHL(c.hl() - 1)
		return 8
	case 0x3B:
		c.sp--
		return 8
	case 0x3C:
		c.a = c.inc8(c.a)
		return 4
	case 0x3D:
		c.a = c.dec8(c.a)
		return 4
	case 0x3E:
		c.a = c.fetch8()
		return 8
	case 0x3F:
		c.ccf()
		return 4

	case 0xC0:
		if c.condition(0) {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xC1:
		c.setBC(c.pop16())
		return 12
	case 0xC2:
		address := c.fetch16()
		if c.condition(0) {
			c.pc = address
			return 16
		}
		return 12
	case 0xC3:
		c.pc = c.fetch16()
		return 16
	case 0xC4:
		address := c.fetch16()
		if c.condition(0) {
			c.push16(c.pc)
			c.pc = address
			return 24
		}
		return 12
	case 0xC5:
		c.push16(c.bc())
		return 16
	case 0xC6:
		c.add8(c.fetch8())
		return 8
	case 0xC7:
		c.rst(0x00)
		return 16
	case 0xC8:
		if c.condition(1) {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xC9:
		c.pc = c.pop16()
		return 16
	case 0xCA:
		address := c.fetch16()
		if c.condition(1) {
			c.pc = address
			return 16
		}
		return 12
	case 0xCC:
		address := c.fetch16()
		if c.condition(1) {
			c.push16(c.pc)
			c.pc = address
			return 24
		}
		return 12
	case 0xCD:
		address := c.fetch16()
		c.push16(c.pc)
		c.pc = address
		return 24
	case 0xCE:
		c.adc8(c.fetch8())
		return 8
	case 0xCF:
		c.rst(0x08)
		return 16

	case 0xD0:
		if c.condition(2) {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xD1:
		c.setDE(c.pop16())
		return 12
	case 0xD2:
		address := c.fetch16()
		if c.condition(2) {
			c.pc = address
			return 16
		}
		return 12
	case 0xD4:
		address := c.fetch16()
		if c.condition(2) {
			c.push16(c.pc)
			c.pc = address
			return 24
		}
		return 12
	case 0xD5:
		c.push16(c.de())
		return 16
	case 0xD6:
		c.sub8(c.fetch8())
		return 8
	case 0xD7:
		c.rst(0x10)
		return 16
	case 0xD8:
		if c.condition(3) {
			c.pc = c.pop16()
			return 20
		}
		return 8
	case 0xD9:
		c.pc = c.pop16()
		c.ime = true
		return 16
	case 0xDA:
		address := c.fetch16()
		if c.condition(3) {
			c.pc = address
			return 16
		}
		return 12
	case 0xDC:
		address := c.fetch16()
		if c.condition(3) {
			c.push16(c.pc)
			c.pc = address
			return 24
		}
		return 12
	case 0xDE:
		c.sbc8(c.fetch8())
		return 8
	case 0xDF:
		c.rst(0x18)
		return 16

	case 0xE0:
		address := 0xFF00 + uint16(c.fetch8())
		c.bus.Write(address, c.a)
		return 12
	case 0xE1:
		c.setHL(c.pop16())
		return 12
	case 0xE2:
		c.bus.Write(0xFF00+uint16(c.c), c.a)
		return 8
	case 0xE5:
		c.push16(c.hl())
		return 16
	case 0xE6:
		c.and8(c.fetch8())
		return 8
	case 0xE7:
		c.rst(0x20)
		return 16
	case 0xE8:
		e := int8(c.fetch8())
		c.sp = c.addSPSigned(e)
		return 16
	case 0xE9:
		c.pc = c.hl()
		return 4
	case 0xEA:
		c.bus.Write(c.fetch16(), c.a)
		return 16
	case 0xEE:
		c.xor8(c.fetch8())
		return 8
	case 0xEF:
		c.rst(0x28)
		return 16

	case 0xF0:
		address := 0xFF00 + uint16(c.fetch8())
		c.a = c.bus.Read(address)
		return 12
	case 0xF1:
		c.setAF(c.pop16())
		return 12
	case 0xF2:
		c.a = c.bus.Read(0xFF00 + uint16(c.c))
		return 8
	case 0xF3:
		c.ime = false
		c.imeEnqueue = -1
		return 4
	case 0xF5:
		c.push16(c.af())
		return 16
	case 0xF6:
		c.or8(c.fetch8())
		return 8
	case 0xF7:
		c.rst(0x30)
		return 16
	case 0xF8:
		e := int8(c.fetch8())
		c.setHL(c.addSPSigned(e))
		return 12
	case 0xF9:
		c.sp = c.hl()
		return 8
	case 0xFA:
		c.a = c.bus.Read(c.fetch16())
		return 16
	case 0xFB:
		c.requestEI()
		return 4
	case 0xFE:
		c.cp8(c.fetch8())
		return 8
	case 0xFF:
		c.rst(0x38)
		return 16

	default:
		// 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC, 0xED, 0xF4, 0xFC, 0xFD
		// are unused on the DMG; real hardware locks up, which no licensed
		// ROM should ever trigger.
		slog.Warn("decode miss: unused opcode", "opcode", opcode, "pc", c.pc)
		return 4
	}
}
