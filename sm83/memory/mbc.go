package memory

import (
	"time"

	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

const (
	romBankSize = 0x4000
	ramBankSize = 0x2000
)

// MBC is the interface implemented by every cartridge bank controller.
// Writes into the ROM address range are bank-control commands; they
// mutate bank state instead of storing the byte. RAM returns the raw
// external RAM for battery persistence (nil when the cartridge has
// none). Save/Load cover bank registers only, never RAM contents.
type MBC interface {
	Read(address uint16) uint8
	Write(address uint16, value uint8)
	RAM() []uint8
	LoadRAM(data []uint8)
	snapshot.Stater
}

// romBank resolves a bank index against the ROM, wrapping modulo the
// number of banks actually present.
func romBank(rom []uint8, bank uint16) uint32 {
	count := uint32(len(rom) / romBankSize)
	if count == 0 {
		return 0
	}
	return (uint32(bank) % count) * romBankSize
}

// ramBank resolves a RAM bank index the same way.
func ramBank(ram []uint8, bank uint8) uint32 {
	count := uint32(len(ram) / ramBankSize)
	if count == 0 {
		return 0
	}
	return (uint32(bank) % count) * ramBankSize
}

// NoMBC is a plain 32KB cartridge: ROM mapped 1:1, no banking, no
// external RAM. Bank-control writes are ignored.
type NoMBC struct {
	rom []uint8
}

func NewNoMBC(rom []uint8) *NoMBC {
	return &NoMBC{rom: rom}
}

func (m *NoMBC) Read(address uint16) uint8 {
	if int(address) < len(m.rom) {
		return m.rom[address]
	}
	return 0xFF
}

func (m *NoMBC) Write(address uint16, value uint8) {}

func (m *NoMBC) RAM() []uint8         { return nil }
func (m *NoMBC) LoadRAM(data []uint8) {}

func (m *NoMBC) Save(s *snapshot.State) {}
func (m *NoMBC) Load(s *snapshot.State) {}

// MBC1 supports up to 2MB ROM and 32KB RAM with two banking modes:
// mode 0 routes the 2-bit secondary register to the upper ROM bank
// bits, mode 1 routes it to the RAM bank.
type MBC1 struct {
	rom        []uint8
	ram        []uint8
	bankLow    uint8 // 5-bit primary ROM bank register
	bankHigh   uint8 // 2-bit secondary register
	mode       uint8 // 0 = ROM banking, 1 = RAM banking
	ramEnabled bool
}

func NewMBC1(rom []uint8, ramBanks int) *MBC1 {
	return &MBC1{
		rom:     rom,
		ram:     make([]uint8, ramBanks*ramBankSize),
		bankLow: 1,
	}
}

func (m *MBC1) currentROMBank() uint16 {
	return uint16(m.bankHigh)<<5 | uint16(m.bankLow)
}

func (m *MBC1) currentRAMBank() uint8 {
	if m.mode == 1 {
		return m.bankHigh
	}
	return 0
}

func (m *MBC1) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		base := romBank(m.rom, m.currentROMBank())
		return m.rom[base+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		base := ramBank(m.ram, m.currentRAMBank())
		return m.ram[base+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC1) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		m.bankLow = value & 0x1F
		if m.bankLow == 0 {
			// Bank 0 is not selectable through this register.
			m.bankLow = 1
		}
	case address <= 0x5FFF:
		m.bankHigh = value & 0x03
	case address <= 0x7FFF:
		m.mode = value & 0x01
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		base := ramBank(m.ram, m.currentRAMBank())
		m.ram[base+uint32(address-0xA000)] = value
	}
}

func (m *MBC1) RAM() []uint8 { return m.ram }

func (m *MBC1) LoadRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC1) Save(s *snapshot.State) {
	s.Write8(m.bankLow)
	s.Write8(m.bankHigh)
	s.Write8(m.mode)
	s.WriteBool(m.ramEnabled)
}

func (m *MBC1) Load(s *snapshot.State) {
	m.bankLow = s.Read8()
	m.bankHigh = s.Read8()
	m.mode = s.Read8()
	m.ramEnabled = s.ReadBool()
}

// MBC2 has a built-in 512x4-bit RAM and a 4-bit ROM bank register.
// Bit 8 of the write address selects between RAM enable and ROM bank.
type MBC2 struct {
	rom        []uint8
	ram        [512]uint8
	romBank    uint8
	ramEnabled bool
	hasBattery bool
}

func NewMBC2(rom []uint8, hasBattery bool) *MBC2 {
	return &MBC2{rom: rom, romBank: 1, hasBattery: hasBattery}
}

func (m *MBC2) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		base := romBank(m.rom, uint16(m.romBank))
		return m.rom[base+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		// Only 512 half-bytes exist; the region echoes through 0xBFFF.
		return m.ram[address&0x1FF] | 0xF0
	default:
		return 0xFF
	}
}

func (m *MBC2) Write(address uint16, value uint8) {
	switch {
	case address <= 0x3FFF:
		if address&0x0100 == 0 {
			m.ramEnabled = value&0x0F == 0x0A
		} else {
			m.romBank = value & 0x0F
			if m.romBank == 0 {
				m.romBank = 1
			}
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		m.ram[address&0x1FF] = value & 0x0F
	}
}

func (m *MBC2) RAM() []uint8 {
	if !m.hasBattery {
		return nil
	}
	return m.ram[:]
}

func (m *MBC2) LoadRAM(data []uint8) {
	copy(m.ram[:], data)
}

func (m *MBC2) Save(s *snapshot.State) {
	s.Write8(m.romBank)
	s.WriteBool(m.ramEnabled)
}

func (m *MBC2) Load(s *snapshot.State) {
	m.romBank = s.Read8()
	m.ramEnabled = s.ReadBool()
}

// Clock supplies wall-clock time to the MBC3 RTC so tests can drive it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// rtc register indices within MBC3 register bank selects 0x08-0x0C.
const (
	rtcSeconds = iota
	rtcMinutes
	rtcHours
	rtcDaysLow
	rtcDaysHigh
)

// MBC3 adds a real-time clock on top of MBC1-style banking. Writing
// 0x00 then 0x01 to 0x6000-0x7FFF latches the clock registers; RAM
// bank selects 0x08-0x0C expose the latched registers instead of RAM.
type MBC3 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint8
	ramBank    uint8
	ramEnabled bool

	hasRTC    bool
	rtc       [5]uint8
	latchPrep bool // last 0x6000 write was 0x00
	clock     Clock
	rtcBase   time.Time
}

func NewMBC3(rom []uint8, ramBanks int, hasRTC bool, clock Clock) *MBC3 {
	if clock == nil {
		clock = systemClock{}
	}
	return &MBC3{
		rom:     rom,
		ram:     make([]uint8, ramBanks*ramBankSize),
		romBank: 1,
		hasRTC:  hasRTC,
		clock:   clock,
		rtcBase: clock.Now(),
	}
}

func (m *MBC3) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		base := romBank(m.rom, uint16(m.romBank))
		return m.rom[base+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return 0xFF
		}
		if m.ramBank <= 0x03 {
			if len(m.ram) == 0 {
				return 0xFF
			}
			base := ramBank(m.ram, m.ramBank)
			return m.ram[base+uint32(address-0xA000)]
		}
		if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			return m.rtc[m.ramBank-0x08]
		}
		return 0xFF
	default:
		return 0xFF
	}
}

func (m *MBC3) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x3FFF:
		m.romBank = value & 0x7F
		if m.romBank == 0 {
			m.romBank = 1
		}
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address <= 0x7FFF:
		if value == 0x00 {
			m.latchPrep = true
		} else if value == 0x01 && m.latchPrep {
			m.latchClock()
			m.latchPrep = false
		} else {
			m.latchPrep = false
		}
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled {
			return
		}
		if m.ramBank <= 0x03 {
			if len(m.ram) == 0 {
				return
			}
			base := ramBank(m.ram, m.ramBank)
			m.ram[base+uint32(address-0xA000)] = value
		} else if m.hasRTC && m.ramBank >= 0x08 && m.ramBank <= 0x0C {
			if m.ramBank == 0x0C && m.rtc[rtcDaysHigh]&0x40 != 0 && value&0x40 == 0 {
				// clock resumes; time spent halted must not fold in
				m.rtcBase = m.clock.Now()
			}
			m.rtc[m.ramBank-0x08] = value
		}
	}
}

// latchClock folds the elapsed wall time into the RTC registers. The
// halt bit (DH bit 6) stops the clock, so halted time is discarded.
func (m *MBC3) latchClock() {
	if !m.hasRTC {
		return
	}
	now := m.clock.Now()
	elapsed := now.Sub(m.rtcBase)
	m.rtcBase = now

	total := int64(m.rtc[rtcSeconds]) +
		int64(m.rtc[rtcMinutes])*60 +
		int64(m.rtc[rtcHours])*3600 +
		(int64(m.rtc[rtcDaysHigh]&0x01)<<8|int64(m.rtc[rtcDaysLow]))*86400
	if m.rtc[rtcDaysHigh]&0x40 == 0 {
		total += int64(elapsed.Seconds())
	}

	m.rtc[rtcSeconds] = uint8(total % 60)
	m.rtc[rtcMinutes] = uint8(total / 60 % 60)
	m.rtc[rtcHours] = uint8(total / 3600 % 24)
	days := total / 86400
	m.rtc[rtcDaysLow] = uint8(days)
	m.rtc[rtcDaysHigh] = (m.rtc[rtcDaysHigh] &^ 0x01) | uint8(days>>8&0x01)
	if days > 0x1FF {
		// day counter overflow flag
		m.rtc[rtcDaysHigh] |= 0x80
	}
}

func (m *MBC3) RAM() []uint8 { return m.ram }

func (m *MBC3) LoadRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC3) Save(s *snapshot.State) {
	s.Write8(m.romBank)
	s.Write8(m.ramBank)
	s.WriteBool(m.ramEnabled)
	s.WriteBool(m.latchPrep)
	s.WriteData(m.rtc[:])
}

func (m *MBC3) Load(s *snapshot.State) {
	m.romBank = s.Read8()
	m.ramBank = s.Read8()
	m.ramEnabled = s.ReadBool()
	m.latchPrep = s.ReadBool()
	s.ReadData(m.rtc[:])
}

// MBC5 has a 9-bit ROM bank register split across two address ranges
// and up to 16 RAM banks. Unlike MBC1, bank 0 is selectable.
type MBC5 struct {
	rom        []uint8
	ram        []uint8
	romBank    uint16
	ramBank    uint8
	ramEnabled bool
}

func NewMBC5(rom []uint8, ramBanks int) *MBC5 {
	return &MBC5{
		rom:     rom,
		ram:     make([]uint8, ramBanks*ramBankSize),
		romBank: 1,
	}
}

func (m *MBC5) Read(address uint16) uint8 {
	switch {
	case address <= 0x3FFF:
		return m.rom[address]
	case address <= 0x7FFF:
		base := romBank(m.rom, m.romBank)
		return m.rom[base+uint32(address-0x4000)]
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return 0xFF
		}
		base := ramBank(m.ram, m.ramBank)
		return m.ram[base+uint32(address-0xA000)]
	default:
		return 0xFF
	}
}

func (m *MBC5) Write(address uint16, value uint8) {
	switch {
	case address <= 0x1FFF:
		m.ramEnabled = value&0x0F == 0x0A
	case address <= 0x2FFF:
		m.romBank = m.romBank&0x100 | uint16(value)
	case address <= 0x3FFF:
		m.romBank = m.romBank&0xFF | uint16(value&0x01)<<8
	case address <= 0x5FFF:
		m.ramBank = value & 0x0F
	case address >= 0xA000 && address <= 0xBFFF:
		if !m.ramEnabled || len(m.ram) == 0 {
			return
		}
		base := ramBank(m.ram, m.ramBank)
		m.ram[base+uint32(address-0xA000)] = value
	}
}

func (m *MBC5) RAM() []uint8 { return m.ram }

func (m *MBC5) LoadRAM(data []uint8) {
	copy(m.ram, data)
}

func (m *MBC5) Save(s *snapshot.State) {
	s.Write16(m.romBank)
	s.Write8(m.ramBank)
	s.WriteBool(m.ramEnabled)
}

func (m *MBC5) Load(s *snapshot.State) {
	m.romBank = s.Read16()
	m.ramBank = s.Read8()
	m.ramEnabled = s.ReadBool()
}
