package cartridge

// noMBC serves cartridges too small to need banking: ROM is mapped
// directly to 0x0000-0x7FFF and there is no external RAM.
type noMBC struct {
	rom []byte
}

func newNoMBC(c *Cartridge) *noMBC {
	return &noMBC{rom: c.rom}
}

func (m *noMBC) Read(address uint16) uint8 {
	if int(address) >= len(m.rom) {
		return 0xFF
	}
	return m.rom[address]
}

func (m *noMBC) Write(uint16, uint8) {}

func (m *noMBC) ram() []byte { return nil }

// mbc1 implements the most common banking chip: a 5-bit ROM bank
// register plus a 2-bit register that is either the upper ROM bank bits
// (mode 0) or the RAM bank (mode 1).
type mbc1 struct {
	rom []byte
	ext []byte

	romBankLow  uint8 // 5 bits, written at 0x2000-0x3FFF
	bankUpper   uint8 // 2 bits, written at 0x4000-0x5FFF
	mode        uint8 // 0 = ROM banking, 1 = RAM banking
	ramEnabled  bool
	numROMBanks int
}

func newMBC1(c *Cartridge) *mbc1 {
	return &mbc1{
		rom:         c.rom,
		ext:         make([]byte, c.NumRAMBanks*0x2000),
		romBankLow:  1,
		numROMBanks: c.NumROMBanks,
	}
}

func (m *mbc1) romBank() int {
	bank := int(m.romBankLow)
	if bank == 0 {
		bank = 1
	}
	if m.mode == 0 {
		bank |= int(m.bankUpper) << 5
	}
	if m.numROMBanks > 0 {
		bank %= m.numROMBanks
	}
	return bank
}

func (m *mbc1) bank0() int {
	if m.mode == 1 {
		return (int(m.bankUpper) << 5) % max(m.numROMBanks, 1)
	}
	return 0
}

func (m *mbc1) ramBank() int {
	if m.mode == 1 {
		return int(m.bankUpper)
	}
	return 0
}

func (m *mbc1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		offset := m.bank0()*0x4000 + int(address)
		return m.readROM(offset)
	case address <= 0x7FFF:
		offset := m.romBank()*0x4000 + int(address-0x4000)
		return m.readROM(offset)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ext) == 0 {
			return 0xFF
		}
		offset := (m.ramBank()*0x2000 + int(address-0xA000)) % len(m.ext)
		return m.ext[offset]
	default:
		return 0xFF
	}
}

func (m *mbc1) readROM(offset int) uint8 {
	if offset < 0 || offset >= len(m.rom) {
		return 0xFF
	}
	return m.rom[offset]
}

func (m *mbc1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x1F
		if bank == 0 {
			bank = 1
		}
		m.romBankLow = bank
	case address <= 0x5FFF:
		m.bankUpper = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ext) == 0 {
			return
		}
		offset := (m.ramBank()*0x2000 + int(address-0xA000)) % len(m.ext)
		m.ext[offset] = value
	}
}

func (m *mbc1) ram() []byte { return m.ext }

// rtcRegister selects one of the 5 latched clock bytes via an MBC3
// bank-select write of 0x08-0x0C.
type rtcRegister int

const (
	rtcSeconds rtcRegister = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
)

// mbc3 implements the 7-bit ROM banking chip with an optional real-time
// clock. In this core the clock is frozen: a latch write to 0x6000-0x7FFF
// is recorded but the 5 RTC bytes never advance on their own,
// matching the DMG host's "no wall-clock reads inside the core" rule.
type mbc3 struct {
	rom []byte
	ext []byte

	romBank     uint8
	ramBank     uint8 // 0-3 selects RAM, 0x08-0x0C selects an RTC register
	ramEnabled  bool
	latchState  uint8 // tracks the 0->1 latch sequence on 0x6000-0x7FFF
	rtc         [5]uint8
	numROMBanks int
	hasRTC      bool
}

func newMBC3(c *Cartridge) *mbc3 {
	return &mbc3{
		rom:         c.rom,
		ext:         make([]byte, c.NumRAMBanks*0x2000),
		romBank:     1,
		numROMBanks: c.NumROMBanks,
		hasRTC:      c.HasRTC,
	}
}

func (m *mbc3) effectiveROMBank() int {
	bank := int(m.romBank)
	if bank == 0 {
		bank = 1
	}
	if m.numROMBanks > 0 {
		bank %= m.numROMBanks
	}
	return bank
}

func (m *mbc3) selectsRTC() bool {
	return m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C
}

func (m *mbc3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.readROM(int(address))
	case address <= 0x7FFF:
		offset := m.effectiveROMBank()*0x4000 + int(address-0x4000)
		return m.readROM(offset)
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.selectsRTC() {
			return m.rtc[rtcRegister(m.ramBank-0x08)]
		}
		if len(m.ext) == 0 {
			return 0xFF
		}
		offset := (int(m.ramBank)*0x2000 + int(address-0xA000)) % len(m.ext)
		return m.ext[offset]
	default:
		return 0xFF
	}
}

func (m *mbc3) readROM(offset int) uint8 {
	if offset < 0 || offset >= len(m.rom) {
		return 0xFF
	}
	return m.rom[offset]
}

func (m *mbc3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		bank := value & 0x7F
		if bank == 0 {
			bank = 1
		}
		m.romBank = bank
	case address <= 0x5FFF:
		m.ramBank = value
	case address <= 0x7FFF:
		// Latch sequence: a 0 write followed by a 1 write copies the live
		// (frozen) clock into the readable RTC registers.
		if m.latchState == 0 && value == 1 {
			// Nothing to copy from: the clock never advances in this
			// core, so latching is a recorded no-op.
		}
		m.latchState = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.selectsRTC() {
			m.rtc[rtcRegister(m.ramBank-0x08)] = value
			return
		}
		if len(m.ext) == 0 {
			return
		}
		offset := (int(m.ramBank)*0x2000 + int(address-0xA000)) % len(m.ext)
		m.ext[offset] = value
	}
}

func (m *mbc3) ram() []byte { return m.ext }
