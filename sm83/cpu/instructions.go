package cpu

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
)

func (c *CPU) pushStack(value uint16) {
	c.sp--
	c.bus.Write(c.sp, bit.High(value))
	c.sp--
	c.bus.Write(c.sp, bit.Low(value))
}

func (c *CPU) popStack() uint16 {
	low := c.bus.Read(c.sp)
	c.sp++
	high := c.bus.Read(c.sp)
	c.sp++
	return bit.Combine(high, low)
}

func (c *CPU) inc(r *uint8) {
	*r++
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlagToCondition(halfCarryFlag, *r&0xF == 0)
	c.resetFlag(subFlag)
}

func (c *CPU) dec(r *uint8) {
	*r--
	c.setFlagToCondition(zeroFlag, *r == 0)
	c.setFlagToCondition(halfCarryFlag, *r&0xF == 0xF)
	c.setFlag(subFlag)
}

// addToA adds a value to A and sets all relevant flags.
func (c *CPU) addToA(value uint8) {
	a := c.a
	result := a + value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF+value&0xF > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value) > 0xFF)

	c.a = result
}

// adc adds a value plus the carry flag to A.
func (c *CPU) adc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a + value + carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF+value&0xF+carry > 0xF)
	c.setFlagToCondition(carryFlag, uint16(a)+uint16(value)+uint16(carry) > 0xFF)

	c.a = result
}

// sub subtracts a value from A and sets all relevant flags.
func (c *CPU) sub(value uint8) {
	a := c.a
	result := a - value

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)

	c.a = result
}

// sbc subtracts a value and the carry flag from A.
func (c *CPU) sbc(value uint8) {
	a := c.a
	carry := c.flagToBit(carryFlag)
	result := a - value - carry

	c.setFlagToCondition(zeroFlag, result == 0)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF+carry)
	c.setFlagToCondition(carryFlag, uint16(a) < uint16(value)+uint16(carry))

	c.a = result
}

func (c *CPU) and(value uint8) {
	c.a &= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) or(value uint8) {
	c.a |= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

func (c *CPU) xor(value uint8) {
	c.a ^= value
	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)
}

// cp compares a value against A without modifying it.
func (c *CPU) cp(value uint8) {
	a := c.a
	c.setFlagToCondition(zeroFlag, a == value)
	c.setFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, a&0xF < value&0xF)
	c.setFlagToCondition(carryFlag, a < value)
}

// addToHL adds a 16-bit value to HL; the zero flag is untouched.
func (c *CPU) addToHL(value uint16) {
	hl := c.getHL()
	result := hl + value

	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, hl&0xFFF+value&0xFFF > 0xFFF)
	c.setFlagToCondition(carryFlag, uint32(hl)+uint32(value) > 0xFFFF)

	c.setHL(result)
}

// addSPSigned returns SP plus the signed immediate with the flag
// semantics shared by ADD SP,n and LD HL,SP+n: Z and N clear, H and C
// from the unsigned low-byte addition.
func (c *CPU) addSPSigned() uint16 {
	n := c.readSignedImmediate()
	sp := c.sp
	result := uint16(int32(sp) + int32(n))

	c.resetFlag(zeroFlag)
	c.resetFlag(subFlag)
	c.setFlagToCondition(halfCarryFlag, sp&0xF+uint16(uint8(n))&0xF > 0xF)
	c.setFlagToCondition(carryFlag, sp&0xFF+uint16(uint8(n)) > 0xFF)

	return result
}

// rlc rotates left through bit 7; Z is set from the result (the RLCA
// form clears it afterwards).
func (c *CPU) rlc(r *uint8) {
	value := *r
	value = value<<1 | value>>7

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r > 0x7F)

	*r = value
}

// rl rotates left through the carry flag.
func (c *CPU) rl(r *uint8) {
	value := *r<<1 | c.flagToBit(carryFlag)

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r > 0x7F)

	*r = value
}

// rrc rotates right through bit 0.
func (c *CPU) rrc(r *uint8) {
	value := *r
	value = value>>1 | value<<7

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r&1 == 1)

	*r = value
}

// rr rotates right through the carry flag.
func (c *CPU) rr(r *uint8) {
	value := *r>>1 | c.flagToBit(carryFlag)<<7

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r&1 == 1)

	*r = value
}

func (c *CPU) sla(r *uint8) {
	value := *r << 1

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r > 0x7F)

	*r = value
}

// sra shifts right arithmetically, preserving the sign bit.
func (c *CPU) sra(r *uint8) {
	value := *r>>1 | *r&0x80

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r&1 == 1)

	*r = value
}

func (c *CPU) srl(r *uint8) {
	value := *r >> 1

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.setFlagToCondition(carryFlag, *r&1 == 1)

	*r = value
}

func (c *CPU) swap(r *uint8) {
	value := *r<<4 | *r>>4

	c.setFlagToCondition(zeroFlag, value == 0)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	c.resetFlag(carryFlag)

	*r = value
}

// testBit sets Z from the complement of the tested bit.
func (c *CPU) testBit(index uint8, value uint8) {
	c.setFlagToCondition(zeroFlag, !bit.IsSet(index, value))
	c.resetFlag(subFlag)
	c.setFlag(halfCarryFlag)
}

// daa adjusts A to binary-coded decimal after an arithmetic operation.
func (c *CPU) daa() {
	a := uint16(c.a)

	if c.isSetFlag(subFlag) {
		if c.isSetFlag(halfCarryFlag) {
			a = (a - 0x06) & 0xFF
		}
		if c.isSetFlag(carryFlag) {
			a -= 0x60
		}
	} else {
		if c.isSetFlag(halfCarryFlag) || a&0xF > 9 {
			a += 0x06
		}
		if c.isSetFlag(carryFlag) || a > 0x9F {
			a += 0x60
		}
	}

	if a&0x100 != 0 {
		c.setFlag(carryFlag)
	}
	c.a = uint8(a)

	c.setFlagToCondition(zeroFlag, c.a == 0)
	c.resetFlag(halfCarryFlag)
}

// jr adds the signed immediate to PC when the condition holds.
func (c *CPU) jr(condition bool) int {
	n := c.readSignedImmediate()
	if !condition {
		return 8
	}
	c.pc = uint16(int32(c.pc) + int32(n))
	return 12
}

// jp jumps to the immediate address when the condition holds.
func (c *CPU) jp(condition bool) int {
	nn := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pc = nn
	return 16
}

// call pushes the return address and jumps when the condition holds.
func (c *CPU) call(condition bool) int {
	nn := c.readImmediateWord()
	if !condition {
		return 12
	}
	c.pushStack(c.pc)
	c.pc = nn
	return 24
}

// ret pops the return address when the condition holds. Conditional
// forms cost an extra machine cycle for the condition check.
func (c *CPU) ret(condition bool) int {
	if !condition {
		return 8
	}
	c.pc = c.popStack()
	return 20
}

// rst pushes PC and jumps to one of the fixed restart vectors.
func (c *CPU) rst(address uint16) int {
	c.pushStack(c.pc)
	c.pc = address
	return 16
}

// halt suspends execution until an interrupt is pending. Executing it
// with IME clear while one is already pending triggers the HALT bug
// instead.
func (c *CPU) halt() {
	pending := c.bus.Read(addr.IE)&c.bus.Read(addr.IF)&0x1F != 0
	if !c.interruptsEnabled && pending {
		c.haltBug = true
		return
	}
	c.halted = true
}
