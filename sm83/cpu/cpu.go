// Package cpu implements the SM83 core: the register file, the fetch,
// decode and execute loop, and interrupt dispatch.
package cpu

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// Bus provides the interface for component communication.
type Bus interface {
	Read(address uint16) byte
	Write(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
	Tick(cycles int)
}

// Flag is one of the 4 flags in the flag register (low byte of AF).
type Flag uint8

const (
	zeroFlag      Flag = 0x80
	subFlag       Flag = 0x40
	halfCarryFlag Flag = 0x20
	carryFlag     Flag = 0x10
)

const (
	baseInterruptAddress uint16 = 0x40

	// interruptServiceCycles is the cost of dispatching to a handler:
	// two wait cycles, the PC push and the vector load.
	interruptServiceCycles = 20
)

// CPU holds the SM83 register file and execution state.
type CPU struct {
	a  uint8
	f  uint8
	b  uint8
	c  uint8
	d  uint8
	e  uint8
	h  uint8
	l  uint8
	sp uint16
	pc uint16

	interruptsEnabled bool
	eiPending         bool // EI takes effect after the next instruction
	currentOpcode     uint16
	stopped           bool
	halted            bool
	cycles            uint64

	// haltBug means the next instruction executes with HALT bug
	// semantics: the first opcode-byte PC increment is skipped while
	// operand reads still advance PC.
	haltBug bool

	// onUndefined, when set, is invoked for the unmapped opcode slots
	// instead of treating them as a 4-cycle no-op.
	onUndefined func(opcode uint16)

	bus Bus
}

// New returns a CPU with the post-boot register values for the
// monochrome model, PC at the cartridge entry point.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}

	c.setAF(0x01B0)
	c.setBC(0x0013)
	c.setDE(0x00D8)
	c.setHL(0x014D)
	c.sp = 0xFFFE
	c.pc = 0x0100

	return c
}

// OnUndefinedOpcode installs a handler for the unmapped opcode slots.
// Without one they execute as 4-cycle no-ops.
func (c *CPU) OnUndefinedOpcode(fn func(opcode uint16)) {
	c.onUndefined = fn
}

// Step executes one instruction (or services one interrupt, or idles
// one machine cycle when halted), ticks the bus by the elapsed cycles
// and returns them.
func (c *CPU) Step() int {
	if c.stopped {
		// execution is frozen until a joypad press resumes it
		return 4
	}

	cycles, pending := c.handleInterrupts()

	if c.halted {
		if pending {
			// Waking from HALT does not trigger the HALT bug; that
			// only happens on the HALT instruction itself with IME
			// clear and an interrupt already pending.
			c.halted = false
		} else {
			cycles += 4
			c.cycles += uint64(cycles)
			c.bus.Tick(cycles)
			return cycles
		}
	}

	instruction := Decode(c)

	// EI from a previous step takes effect once this instruction ran.
	enableIME := c.eiPending

	// A previous HALT triggered the bug: skip the first PC increment,
	// then clear the flag once the affected instruction ran.
	skipFirstPCInc := c.haltBug
	if !skipFirstPCInc {
		c.pc++
	}
	if bit.High(c.currentOpcode) == 0xCB {
		c.pc++
	}

	cycles += instruction(c)

	if skipFirstPCInc {
		c.haltBug = false
	}

	if enableIME && c.eiPending {
		c.eiPending = false
		c.interruptsEnabled = true
	}

	c.cycles += uint64(cycles)
	c.bus.Tick(cycles)
	return cycles
}

// handleInterrupts services the highest-priority enabled pending
// interrupt when IME is set. It returns the cycles spent and whether
// any enabled interrupt is pending (IE & IF != 0), which also wakes
// the core from HALT.
func (c *CPU) handleInterrupts() (cycles int, pending bool) {
	enabled := c.bus.Read(addr.IE)
	fired := c.bus.Read(addr.IF) & 0x1F

	pending = enabled&fired != 0

	if !c.interruptsEnabled || !pending {
		return 0, pending
	}

	// bit 0 has the highest priority
	for i := uint8(0); i < 5; i++ {
		if bit.IsSet(i, fired) && bit.IsSet(i, enabled) {
			c.bus.Write(addr.IF, bit.Clear(i, fired))

			c.pushStack(c.pc)
			c.pc = baseInterruptAddress + uint16(i)*8
			c.interruptsEnabled = false

			return interruptServiceCycles, true
		}
	}

	return 0, pending
}

// Stopped reports whether a STOP instruction froze execution.
func (c *CPU) Stopped() bool { return c.stopped }

// Resume clears the STOP latch.
func (c *CPU) Resume() { c.stopped = false }

// peekImmediate returns the byte at the address pointed to by PC, the
// immediate operand ('n' in mnemonics).
func (c CPU) peekImmediate() uint8 {
	return c.bus.Read(c.pc)
}

// peekImmediateWord returns the little-endian word at PC ('nn').
func (c CPU) peekImmediateWord() uint16 {
	low := c.bus.Read(c.pc)
	high := c.bus.Read(c.pc + 1)
	return bit.Combine(high, low)
}

// readImmediate reads the immediate operand and advances PC.
func (c *CPU) readImmediate() uint8 {
	n := c.peekImmediate()
	c.pc++
	return n
}

// readImmediateWord reads the word operand and advances PC twice.
func (c *CPU) readImmediateWord() uint16 {
	nn := c.peekImmediateWord()
	c.pc += 2
	return nn
}

// readSignedImmediate reads the signed operand ('*') and advances PC.
func (c *CPU) readSignedImmediate() int8 {
	return int8(c.readImmediate())
}

func (c *CPU) setFlag(flag Flag) {
	c.f |= uint8(flag)
}

func (c *CPU) resetFlag(flag Flag) {
	c.f &^= uint8(flag)
}

func (c CPU) isSetFlag(flag Flag) bool {
	return c.f&uint8(flag) != 0
}

// flagToBit returns 1 if the passed flag is set, 0 otherwise.
func (c CPU) flagToBit(flag Flag) uint8 {
	if c.isSetFlag(flag) {
		return 1
	}
	return 0
}

func (c *CPU) setFlagToCondition(flag Flag, condition bool) {
	if condition {
		c.setFlag(flag)
	} else {
		c.resetFlag(flag)
	}
}

func (c *CPU) setBC(value uint16) {
	c.b = bit.High(value)
	c.c = bit.Low(value)
}

func (c CPU) getBC() uint16 {
	return bit.Combine(c.b, c.c)
}

func (c *CPU) setDE(value uint16) {
	c.d = bit.High(value)
	c.e = bit.Low(value)
}

func (c CPU) getDE() uint16 {
	return bit.Combine(c.d, c.e)
}

func (c *CPU) setHL(value uint16) {
	c.h = bit.High(value)
	c.l = bit.Low(value)
}

func (c CPU) getHL() uint16 {
	return bit.Combine(c.h, c.l)
}

func (c *CPU) setAF(value uint16) {
	c.a = bit.High(value)
	// the low nibble of F always reads 0
	c.f = bit.Low(value) & 0xF0
}

func (c CPU) getAF() uint16 {
	return bit.Combine(c.a, c.f)
}

// Register getters for inspection and tracing.
func (c *CPU) GetA() uint8       { return c.a }
func (c *CPU) GetF() uint8       { return c.f }
func (c *CPU) GetB() uint8       { return c.b }
func (c *CPU) GetC() uint8       { return c.c }
func (c *CPU) GetD() uint8       { return c.d }
func (c *CPU) GetE() uint8       { return c.e }
func (c *CPU) GetH() uint8       { return c.h }
func (c *CPU) GetL() uint8       { return c.l }
func (c *CPU) GetSP() uint16     { return c.sp }
func (c *CPU) GetPC() uint16     { return c.pc }
func (c *CPU) GetCycles() uint64 { return c.cycles }

func (c *CPU) GetIME() bool   { return c.interruptsEnabled }
func (c *CPU) IsHalted() bool { return c.halted }

// Save serializes the register file and execution state.
func (c *CPU) Save(s *snapshot.State) {
	s.Write8(c.a)
	s.Write8(c.f)
	s.Write8(c.b)
	s.Write8(c.c)
	s.Write8(c.d)
	s.Write8(c.e)
	s.Write8(c.h)
	s.Write8(c.l)
	s.Write16(c.sp)
	s.Write16(c.pc)
	s.WriteBool(c.interruptsEnabled)
	s.WriteBool(c.eiPending)
	s.WriteBool(c.stopped)
	s.WriteBool(c.halted)
	s.WriteBool(c.haltBug)
	s.Write64(c.cycles)
}

// Load restores state in the order written by Save.
func (c *CPU) Load(s *snapshot.State) {
	c.a = s.Read8()
	c.f = s.Read8()
	c.b = s.Read8()
	c.c = s.Read8()
	c.d = s.Read8()
	c.e = s.Read8()
	c.h = s.Read8()
	c.l = s.Read8()
	c.sp = s.Read16()
	c.pc = s.Read16()
	c.interruptsEnabled = s.ReadBool()
	c.eiPending = s.ReadBool()
	c.stopped = s.ReadBool()
	c.halted = s.ReadBool()
	c.haltBug = s.ReadBool()
	c.cycles = s.Read64()
}
