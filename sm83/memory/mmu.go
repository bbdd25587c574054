// Package memory implements the memory-mapped bus: address decode over
// the full 16-bit space, the cartridge bank controllers, the timer
// unit and the interrupt request registers.
package memory

import (
	"log/slog"

	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/audio"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// Model selects the emulated hardware revision. The color model only
// changes behavior where the hardware diverges: VRAM/WRAM banking
// registers are honored, everything else stays monochrome.
type Model uint8

const (
	// DMG is the original monochrome model.
	DMG Model = iota
	// CGB is the color model.
	CGB
)

type memRegion uint8

const (
	regionROM memRegion = iota
	regionVRAM
	regionExtRAM
	regionWRAM
	regionEcho
	regionOAM
	regionIO
)

// MMU routes every bus access to the owning component and applies the
// read/write side effects of the I/O register file.
type MMU struct {
	model Model
	cart  *Cartridge

	// flat backing store for VRAM bank 0, WRAM banks 0-1, OAM, I/O
	// and HRAM; the ROM/external-RAM ranges are served by the cart.
	memory    []byte
	regionMap [256]memRegion

	vramExtra [0x2000]byte    // color model VRAM bank 1
	vramBank  uint8           // VBK bit 0
	wramExtra [6][0x1000]byte // color model WRAM banks 2-7
	wramBank  uint8           // SVBK bits 0-2

	APU    *audio.APU
	timer  Timer
	serial serialPort
	joypad *joypad
}

// New creates a bus with no cartridge loaded; ROM reads return 0xFF.
func New() *MMU {
	return NewWithModel(DMG)
}

// NewWithModel creates an empty bus for the given hardware model.
func NewWithModel(model Model) *MMU {
	m := &MMU{
		model:    model,
		memory:   make([]byte, 0x10000),
		APU:      audio.New(),
		wramBank: 1,
	}
	m.joypad = newJoypad(func() { m.RequestInterrupt(addr.JoypadInterrupt) })
	m.serial.onComplete = func() { m.RequestInterrupt(addr.SerialInterrupt) }
	m.timer.OnOverflow = func() { m.RequestInterrupt(addr.TimerInterrupt) }
	m.initRegionMap()
	return m
}

// NewWithCartridge creates a bus with the given cartridge attached.
func NewWithCartridge(cart *Cartridge, model Model) *MMU {
	m := NewWithModel(model)
	m.cart = cart
	return m
}

func (m *MMU) initRegionMap() {
	for page := 0; page < 256; page++ {
		switch {
		case page <= 0x7F:
			m.regionMap[page] = regionROM
		case page <= 0x9F:
			m.regionMap[page] = regionVRAM
		case page <= 0xBF:
			m.regionMap[page] = regionExtRAM
		case page <= 0xDF:
			m.regionMap[page] = regionWRAM
		case page <= 0xFD:
			m.regionMap[page] = regionEcho
		case page == 0xFE:
			m.regionMap[page] = regionOAM
		default:
			m.regionMap[page] = regionIO
		}
	}
}

// Model returns the emulated hardware model.
func (m *MMU) Model() Model { return m.model }

// Cartridge returns the attached cartridge, nil when none is loaded.
func (m *MMU) Cartridge() *Cartridge { return m.cart }

// Tick advances the bus-owned peripherals (timer, serial port).
func (m *MMU) Tick(cycles int) {
	m.timer.Tick(cycles)
	m.serial.Tick(cycles)
}

// Timer exposes the timer unit for seeding and inspection.
func (m *MMU) Timer() *Timer { return &m.timer }

// OnSerialTransfer installs a hook invoked with the outgoing byte
// whenever an internally clocked serial transfer starts. Test ROMs
// report their results this way.
func (m *MMU) OnSerialTransfer(fn func(value byte)) {
	m.serial.onTransfer = fn
}

// RequestInterrupt sets the IF bit for the given interrupt source.
func (m *MMU) RequestInterrupt(interrupt addr.Interrupt) {
	m.memory[addr.IF] = bit.Set(uint8(interrupt), m.memory[addr.IF])
}

// Press forwards a key press to the joypad matrix.
func (m *MMU) Press(key JoypadKey) { m.joypad.Press(key) }

// Release forwards a key release to the joypad matrix.
func (m *MMU) Release(key JoypadKey) { m.joypad.Release(key) }

// ReadBit reports whether the bit at index of the byte at address is set.
func (m *MMU) ReadBit(index uint8, address uint16) bool {
	return bit.IsSet(index, m.Read(address))
}

func (m *MMU) wram(address uint16) *byte {
	if m.model == CGB && address >= 0xD000 && m.wramBank >= 2 {
		return &m.wramExtra[m.wramBank-2][address-0xD000]
	}
	return &m.memory[address]
}

func (m *MMU) vram(address uint16) *byte {
	if m.model == CGB && m.vramBank == 1 {
		return &m.vramExtra[address-0x8000]
	}
	return &m.memory[address]
}

func (m *MMU) Read(address uint16) byte {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.cart == nil {
			return 0xFF
		}
		return m.cart.Read(address)
	case regionVRAM:
		return *m.vram(address)
	case regionWRAM:
		return *m.wram(address)
	case regionEcho:
		return *m.wram(address - 0x2000)
	case regionOAM:
		if address <= addr.OAMEnd {
			return m.memory[address]
		}
		// 0xFEA0-0xFEFF is unusable
		return 0xFF
	default:
		return m.readIO(address)
	}
}

func (m *MMU) readIO(address uint16) byte {
	switch {
	case address == addr.P1:
		return m.joypad.Read()
	case address == addr.SB || address == addr.SC:
		return m.serial.Read(address)
	case address >= addr.DIV && address <= addr.TAC:
		return m.timer.Read(address)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		return m.APU.ReadRegister(address)
	case address == addr.IF:
		// unused IF bits read as 1
		return m.memory[address] | 0xE0
	case address == addr.VBK:
		if m.model != CGB {
			return 0xFF
		}
		return 0xFE | m.vramBank
	case address == addr.SVBK:
		if m.model != CGB {
			return 0xFF
		}
		return 0xF8 | m.wramBank
	default:
		// remaining I/O registers, HRAM and IE
		return m.memory[address]
	}
}

func (m *MMU) Write(address uint16, value byte) {
	switch m.regionMap[address>>8] {
	case regionROM, regionExtRAM:
		if m.cart == nil {
			slog.Warn("write with no cartridge attached",
				"addr", address, "value", value)
			return
		}
		m.cart.Write(address, value)
	case regionVRAM:
		*m.vram(address) = value
	case regionWRAM:
		*m.wram(address) = value
	case regionEcho:
		*m.wram(address - 0x2000) = value
	case regionOAM:
		if address <= addr.OAMEnd {
			m.memory[address] = value
		}
		// writes into the unusable range are dropped
	default:
		m.writeIO(address, value)
	}
}

func (m *MMU) writeIO(address uint16, value byte) {
	switch {
	case address == addr.P1:
		m.joypad.Write(value)
	case address == addr.SB || address == addr.SC:
		m.serial.Write(address, value)
	case address >= addr.DIV && address <= addr.TAC:
		m.timer.Write(address, value)
	case address >= addr.AudioStart && address <= addr.AudioEnd:
		m.APU.WriteRegister(address, value)
	case address == addr.IF:
		m.memory[address] = value | 0xE0
	case address == addr.LY:
		// LY is read-only from the bus
	case address == addr.STAT:
		// bits 0-2 are read-only status, bit 7 unused reads 1
		m.memory[address] = 0x80 | value&0x78 | m.memory[address]&0x07
	case address == addr.DMA:
		m.oamDMA(value)
	case address == addr.VBK:
		if m.model == CGB {
			m.vramBank = value & 0x01
		}
	case address == addr.SVBK:
		if m.model == CGB {
			m.wramBank = value & 0x07
			if m.wramBank == 0 {
				m.wramBank = 1
			}
		}
	default:
		m.memory[address] = value
	}
}

// oamDMA copies 160 bytes from value<<8 into OAM. The copy is
// performed by the bus; no peripheral holds a reference to another.
func (m *MMU) oamDMA(value byte) {
	source := uint16(value) << 8
	for i := uint16(0); i < 160; i++ {
		m.memory[addr.OAMStart+i] = m.Read(source + i)
	}
	m.memory[addr.DMA] = value
}

// SetIO stores an I/O register byte without triggering write side
// effects. The display controller uses it to publish LY/STAT.
func (m *MMU) SetIO(address uint16, value byte) {
	m.memory[address] = value
}

// GetIO reads an I/O register byte without read side effects.
func (m *MMU) GetIO(address uint16) byte {
	return m.memory[address]
}

// Save serializes all bus-owned state: VRAM, WRAM, OAM, the I/O file,
// HRAM, bank selects, timer, serial, joypad and cartridge bank state.
// Cartridge ROM and persistent RAM contents are excluded.
func (m *MMU) Save(s *snapshot.State) {
	s.WriteData(m.memory[0x8000:0xA000]) // VRAM bank 0
	s.WriteData(m.memory[0xC000:0xE000]) // WRAM banks 0-1
	s.WriteData(m.memory[0xFE00:])       // OAM, I/O, HRAM, IE
	s.Write8(m.vramBank)
	s.Write8(m.wramBank)
	if m.model == CGB {
		s.WriteData(m.vramExtra[:])
		for i := range m.wramExtra {
			s.WriteData(m.wramExtra[i][:])
		}
	}
	m.timer.Save(s)
	m.serial.Save(s)
	m.joypad.Save(s)
	if m.cart != nil {
		m.cart.Save(s)
	}
}

// Load restores bus-owned state in the order written by Save.
func (m *MMU) Load(s *snapshot.State) {
	s.ReadData(m.memory[0x8000:0xA000])
	s.ReadData(m.memory[0xC000:0xE000])
	s.ReadData(m.memory[0xFE00:])
	m.vramBank = s.Read8()
	m.wramBank = s.Read8()
	if m.model == CGB {
		s.ReadData(m.vramExtra[:])
		for i := range m.wramExtra {
			s.ReadData(m.wramExtra[i][:])
		}
	}
	m.timer.Load(s)
	m.serial.Load(s)
	m.joypad.Load(s)
	if m.cart != nil {
		m.cart.Load(s)
	}
}
