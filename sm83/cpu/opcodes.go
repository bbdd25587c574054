package cpu

import "github.com/ThaumielSparrow/go-sm83/sm83/bit"

// the unmapped opcode slots: 0xD3, 0xDB, 0xDD, 0xE3, 0xE4, 0xEB, 0xEC,
// 0xED, 0xF4, 0xFC, 0xFD
func opcodeUndefined(c *CPU) int {
	if c.onUndefined != nil {
		c.onUndefined(c.currentOpcode)
	}
	return 4
}

// NOP
// 0x00:
func opcode0x00(_ *CPU) int {
	return 4
}

// LD BC,nn
// 0x01:
func opcode0x01(c *CPU) int {
	c.setBC(c.readImmediateWord())
	return 12
}

// LD (BC),A
// 0x02:
func opcode0x02(c *CPU) int {
	c.bus.Write(c.getBC(), c.a)
	return 8
}

// INC BC
// 0x03:
func opcode0x03(c *CPU) int {
	c.setBC(c.getBC() + 1)
	return 8
}

// INC B
// 0x04:
func opcode0x04(c *CPU) int {
	c.inc(&c.b)
	return 4
}

// DEC B
// 0x05:
func opcode0x05(c *CPU) int {
	c.dec(&c.b)
	return 4
}

// LD B,n
// 0x06:
func opcode0x06(c *CPU) int {
	c.b = c.readImmediate()
	return 8
}

// RLCA
// 0x07:
func opcode0x07(c *CPU) int {
	c.rlc(&c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// LD (nn),SP
// 0x08:
func opcode0x08(c *CPU) int {
	address := c.readImmediateWord()
	c.bus.Write(address, bit.Low(c.sp))
	c.bus.Write(address+1, bit.High(c.sp))
	return 20
}

// ADD HL,BC
// 0x09:
func opcode0x09(c *CPU) int {
	c.addToHL(c.getBC())
	return 8
}

// LD A,(BC)
// 0x0A:
func opcode0x0A(c *CPU) int {
	c.a = c.bus.Read(c.getBC())
	return 8
}

// DEC BC
// 0x0B:
func opcode0x0B(c *CPU) int {
	c.setBC(c.getBC() - 1)
	return 8
}

// INC C
// 0x0C:
func opcode0x0C(c *CPU) int {
	c.inc(&c.c)
	return 4
}

// DEC C
// 0x0D:
func opcode0x0D(c *CPU) int {
	c.dec(&c.c)
	return 4
}

// LD C,n
// 0x0E:
func opcode0x0E(c *CPU) int {
	c.c = c.readImmediate()
	return 8
}

// RRCA
// 0x0F:
func opcode0x0F(c *CPU) int {
	c.rrc(&c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// STOP
// 0x10:
func opcode0x10(c *CPU) int {
	c.stopped = true
	c.pc++ // skip the padding byte
	return 4
}

// LD DE,nn
// 0x11:
func opcode0x11(c *CPU) int {
	c.setDE(c.readImmediateWord())
	return 12
}

// LD (DE),A
// 0x12:
func opcode0x12(c *CPU) int {
	c.bus.Write(c.getDE(), c.a)
	return 8
}

// INC DE
// 0x13:
func opcode0x13(c *CPU) int {
	c.setDE(c.getDE() + 1)
	return 8
}

// INC D
// 0x14:
func opcode0x14(c *CPU) int {
	c.inc(&c.d)
	return 4
}

// DEC D
// 0x15:
func opcode0x15(c *CPU) int {
	c.dec(&c.d)
	return 4
}

// LD D,n
// 0x16:
func opcode0x16(c *CPU) int {
	c.d = c.readImmediate()
	return 8
}

// RLA
// 0x17:
func opcode0x17(c *CPU) int {
	c.rl(&c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// JR n
// 0x18:
func opcode0x18(c *CPU) int {
	return c.jr(true)
}

// ADD HL,DE
// 0x19:
func opcode0x19(c *CPU) int {
	c.addToHL(c.getDE())
	return 8
}

// LD A,(DE)
// 0x1A:
func opcode0x1A(c *CPU) int {
	c.a = c.bus.Read(c.getDE())
	return 8
}

// DEC DE
// 0x1B:
func opcode0x1B(c *CPU) int {
	c.setDE(c.getDE() - 1)
	return 8
}

// INC E
// 0x1C:
func opcode0x1C(c *CPU) int {
	c.inc(&c.e)
	return 4
}

// DEC E
// 0x1D:
func opcode0x1D(c *CPU) int {
	c.dec(&c.e)
	return 4
}

// LD E,n
// 0x1E:
func opcode0x1E(c *CPU) int {
	c.e = c.readImmediate()
	return 8
}

// RRA
// 0x1F:
func opcode0x1F(c *CPU) int {
	c.rr(&c.a)
	c.resetFlag(zeroFlag)
	return 4
}

// JR NZ,n
// 0x20:
func opcode0x20(c *CPU) int {
	return c.jr(!c.isSetFlag(zeroFlag))
}

// LD HL,nn
// 0x21:
func opcode0x21(c *CPU) int {
	c.setHL(c.readImmediateWord())
	return 12
}

// LD (HL+),A
// 0x22:
func opcode0x22(c *CPU) int {
	c.bus.Write(c.getHL(), c.a)
	c.setHL(c.getHL() + 1)
	return 8
}

// INC HL
// 0x23:
func opcode0x23(c *CPU) int {
	c.setHL(c.getHL() + 1)
	return 8
}

// INC H
// 0x24:
func opcode0x24(c *CPU) int {
	c.inc(&c.h)
	return 4
}

// DEC H
// 0x25:
func opcode0x25(c *CPU) int {
	c.dec(&c.h)
	return 4
}

// LD H,n
// 0x26:
func opcode0x26(c *CPU) int {
	c.h = c.readImmediate()
	return 8
}

// DAA
// 0x27:
func opcode0x27(c *CPU) int {
	c.daa()
	return 4
}

// JR Z,n
// 0x28:
func opcode0x28(c *CPU) int {
	return c.jr(c.isSetFlag(zeroFlag))
}

// ADD HL,HL
// 0x29:
func opcode0x29(c *CPU) int {
	c.addToHL(c.getHL())
	return 8
}

// LD A,(HL+)
// 0x2A:
func opcode0x2A(c *CPU) int {
	c.a = c.bus.Read(c.getHL())
	c.setHL(c.getHL() + 1)
	return 8
}

// DEC HL
// 0x2B:
func opcode0x2B(c *CPU) int {
	c.setHL(c.getHL() - 1)
	return 8
}

// INC L
// 0x2C:
func opcode0x2C(c *CPU) int {
	c.inc(&c.l)
	return 4
}

// DEC L
// 0x2D:
func opcode0x2D(c *CPU) int {
	c.dec(&c.l)
	return 4
}

// LD L,n
// 0x2E:
func opcode0x2E(c *CPU) int {
	c.l = c.readImmediate()
	return 8
}

// CPL
// 0x2F:
func opcode0x2F(c *CPU) int {
	c.a = ^c.a
	c.setFlag(subFlag)
	c.setFlag(halfCarryFlag)
	return 4
}

// JR NC,n
// 0x30:
func opcode0x30(c *CPU) int {
	return c.jr(!c.isSetFlag(carryFlag))
}

// LD SP,nn
// 0x31:
func opcode0x31(c *CPU) int {
	c.sp = c.readImmediateWord()
	return 12
}

// LD (HL-),A
// 0x32:
func opcode0x32(c *CPU) int {
	c.bus.Write(c.getHL(), c.a)
	c.setHL(c.getHL() - 1)
	return 8
}

// INC SP
// 0x33:
func opcode0x33(c *CPU) int {
	c.sp++
	return 8
}

// INC (HL)
// 0x34:
func opcode0x34(c *CPU) int {
	value := c.bus.Read(c.getHL())
	c.inc(&value)
	c.bus.Write(c.getHL(), value)
	return 12
}

// DEC (HL)
// 0x35:
func opcode0x35(c *CPU) int {
	value := c.bus.Read(c.getHL())
	c.dec(&value)
	c.bus.Write(c.getHL(), value)
	return 12
}

// LD (HL),n
// 0x36:
func opcode0x36(c *CPU) int {
	c.bus.Write(c.getHL(), c.readImmediate())
	return 12
}

// SCF
// 0x37:
func opcode0x37(c *CPU) int {
	c.setFlag(carryFlag)
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	return 4
}

// JR C,n
// 0x38:
func opcode0x38(c *CPU) int {
	return c.jr(c.isSetFlag(carryFlag))
}

// ADD HL,SP
// 0x39:
func opcode0x39(c *CPU) int {
	c.addToHL(c.sp)
	return 8
}

// LD A,(HL-)
// 0x3A:
func opcode0x3A(c *CPU) int {
	c.a = c.bus.Read(c.getHL())
	c.setHL(c.getHL() - 1)
	return 8
}

// DEC SP
// 0x3B:
func opcode0x3B(c *CPU) int {
	c.sp--
	return 8
}

// INC A
// 0x3C:
func opcode0x3C(c *CPU) int {
	c.inc(&c.a)
	return 4
}

// DEC A
// 0x3D:
func opcode0x3D(c *CPU) int {
	c.dec(&c.a)
	return 4
}

// LD A,n
// 0x3E:
func opcode0x3E(c *CPU) int {
	c.a = c.readImmediate()
	return 8
}

// CCF
// 0x3F:
func opcode0x3F(c *CPU) int {
	c.setFlagToCondition(carryFlag, !c.isSetFlag(carryFlag))
	c.resetFlag(subFlag)
	c.resetFlag(halfCarryFlag)
	return 4
}

// LD B,B
// 0x40:
func opcode0x40(c *CPU) int {
	c.b = c.b
	return 4
}

// LD B,C
// 0x41:
func opcode0x41(c *CPU) int {
	c.b = c.c
	return 4
}

// LD B,D
// 0x42:
func opcode0x42(c *CPU) int {
	c.b = c.d
	return 4
}

// LD B,E
// 0x43:
func opcode0x43(c *CPU) int {
	c.b = c.e
	return 4
}

// LD B,H
// 0x44:
func opcode0x44(c *CPU) int {
	c.b = c.h
	return 4
}

// LD B,L
// 0x45:
func opcode0x45(c *CPU) int {
	c.b = c.l
	return 4
}

// LD B,(HL)
// 0x46:
func opcode0x46(c *CPU) int {
	c.b = c.bus.Read(c.getHL())
	return 8
}

// LD B,A
// 0x47:
func opcode0x47(c *CPU) int {
	c.b = c.a
	return 4
}

// LD C,B
// 0x48:
func opcode0x48(c *CPU) int {
	c.c = c.b
	return 4
}

// LD C,C
// 0x49:
func opcode0x49(c *CPU) int {
	c.c = c.c
	return 4
}

// LD C,D
// 0x4A:
func opcode0x4A(c *CPU) int {
	c.c = c.d
	return 4
}

// LD C,E
// 0x4B:
func opcode0x4B(c *CPU) int {
	c.c = c.e
	return 4
}

// LD C,H
// 0x4C:
func opcode0x4C(c *CPU) int {
	c.c = c.h
	return 4
}

// LD C,L
// 0x4D:
func opcode0x4D(c *CPU) int {
	c.c = c.l
	return 4
}

// LD C,(HL)
// 0x4E:
func opcode0x4E(c *CPU) int {
	c.c = c.bus.Read(c.getHL())
	return 8
}

// LD C,A
// 0x4F:
func opcode0x4F(c *CPU) int {
	c.c = c.a
	return 4
}

// LD D,B
// 0x50:
func opcode0x50(c *CPU) int {
	c.d = c.b
	return 4
}

// LD D,C
// 0x51:
func opcode0x51(c *CPU) int {
	c.d = c.c
	return 4
}

// LD D,D
// 0x52:
func opcode0x52(c *CPU) int {
	c.d = c.d
	return 4
}

// LD D,E
// 0x53:
func opcode0x53(c *CPU) int {
	c.d = c.e
	return 4
}

// LD D,H
// 0x54:
func opcode0x54(c *CPU) int {
	c.d = c.h
	return 4
}

// LD D,L
// 0x55:
func opcode0x55(c *CPU) int {
	c.d = c.l
	return 4
}

// LD D,(HL)
// 0x56:
func opcode0x56(c *CPU) int {
	c.d = c.bus.Read(c.getHL())
	return 8
}

// LD D,A
// 0x57:
func opcode0x57(c *CPU) int {
	c.d = c.a
	return 4
}

// LD E,B
// 0x58:
func opcode0x58(c *CPU) int {
	c.e = c.b
	return 4
}

// LD E,C
// 0x59:
func opcode0x59(c *CPU) int {
	c.e = c.c
	return 4
}

// LD E,D
// 0x5A:
func opcode0x5A(c *CPU) int {
	c.e = c.d
	return 4
}

// LD E,E
// 0x5B:
func opcode0x5B(c *CPU) int {
	c.e = c.e
	return 4
}

// LD E,H
// 0x5C:
func opcode0x5C(c *CPU) int {
	c.e = c.h
	return 4
}

// LD E,L
// 0x5D:
func opcode0x5D(c *CPU) int {
	c.e = c.l
	return 4
}

// LD E,(HL)
// 0x5E:
func opcode0x5E(c *CPU) int {
	c.e = c.bus.Read(c.getHL())
	return 8
}

// LD E,A
// 0x5F:
func opcode0x5F(c *CPU) int {
	c.e = c.a
	return 4
}

// LD H,B
// 0x60:
func opcode0x60(c *CPU) int {
	c.h = c.b
	return 4
}

// LD H,C
// 0x61:
func opcode0x61(c *CPU) int {
	c.h = c.c
	return 4
}

// LD H,D
// 0x62:
func opcode0x62(c *CPU) int {
	c.h = c.d
	return 4
}

// LD H,E
// 0x63:
func opcode0x63(c *CPU) int {
	c.h = c.e
	return 4
}

// LD H,H
// 0x64:
func opcode0x64(c *CPU) int {
	c.h = c.h
	return 4
}

// LD H,L
// 0x65:
func opcode0x65(c *CPU) int {
	c.h = c.l
	return 4
}

// LD H,(HL)
// 0x66:
func opcode0x66(c *CPU) int {
	c.h = c.bus.Read(c.getHL())
	return 8
}

// LD H,A
// 0x67:
func opcode0x67(c *CPU) int {
	c.h = c.a
	return 4
}

// LD L,B
// 0x68:
func opcode0x68(c *CPU) int {
	c.l = c.b
	return 4
}

// LD L,C
// 0x69:
func opcode0x69(c *CPU) int {
	c.l = c.c
	return 4
}

// LD L,D
// 0x6A:
func opcode0x6A(c *CPU) int {
	c.l = c.d
	return 4
}

// LD L,E
// 0x6B:
func opcode0x6B(c *CPU) int {
	c.l = c.e
	return 4
}

// LD L,H
// 0x6C:
func opcode0x6C(c *CPU) int {
	c.l = c.h
	return 4
}

// LD L,L
// 0x6D:
func opcode0x6D(c *CPU) int {
	c.l = c.l
	return 4
}

// LD L,(HL)
// 0x6E:
func opcode0x6E(c *CPU) int {
	c.l = c.bus.Read(c.getHL())
	return 8
}

// LD L,A
// 0x6F:
func opcode0x6F(c *CPU) int {
	c.l = c.a
	return 4
}

// LD (HL),B
// 0x70:
func opcode0x70(c *CPU) int {
	c.bus.Write(c.getHL(), c.b)
	return 8
}

// LD (HL),C
// 0x71:
func opcode0x71(c *CPU) int {
	c.bus.Write(c.getHL(), c.c)
	return 8
}

// LD (HL),D
// 0x72:
func opcode0x72(c *CPU) int {
	c.bus.Write(c.getHL(), c.d)
	return 8
}

// LD (HL),E
// 0x73:
func opcode0x73(c *CPU) int {
	c.bus.Write(c.getHL(), c.e)
	return 8
}

// LD (HL),H
// 0x74:
func opcode0x74(c *CPU) int {
	c.bus.Write(c.getHL(), c.h)
	return 8
}

// LD (HL),L
// 0x75:
func opcode0x75(c *CPU) int {
	c.bus.Write(c.getHL(), c.l)
	return 8
}

// HALT
// 0x76:
func opcode0x76(c *CPU) int {
	c.halt()
	return 4
}

// LD (HL),A
// 0x77:
func opcode0x77(c *CPU) int {
	c.bus.Write(c.getHL(), c.a)
	return 8
}

// LD A,B
// 0x78:
func opcode0x78(c *CPU) int {
	c.a = c.b
	return 4
}

// LD A,C
// 0x79:
func opcode0x79(c *CPU) int {
	c.a = c.c
	return 4
}

// LD A,D
// 0x7A:
func opcode0x7A(c *CPU) int {
	c.a = c.d
	return 4
}

// LD A,E
// 0x7B:
func opcode0x7B(c *CPU) int {
	c.a = c.e
	return 4
}

// LD A,H
// 0x7C:
func opcode0x7C(c *CPU) int {
	c.a = c.h
	return 4
}

// LD A,L
// 0x7D:
func opcode0x7D(c *CPU) int {
	c.a = c.l
	return 4
}

// LD A,(HL)
// 0x7E:
func opcode0x7E(c *CPU) int {
	c.a = c.bus.Read(c.getHL())
	return 8
}

// LD A,A
// 0x7F:
func opcode0x7F(c *CPU) int {
	c.a = c.a
	return 4
}

// ADD A,B
// 0x80:
func opcode0x80(c *CPU) int {
	c.addToA(c.b)
	return 4
}

// ADD A,C
// 0x81:
func opcode0x81(c *CPU) int {
	c.addToA(c.c)
	return 4
}

// ADD A,D
// 0x82:
func opcode0x82(c *CPU) int {
	c.addToA(c.d)
	return 4
}

// ADD A,E
// 0x83:
func opcode0x83(c *CPU) int {
	c.addToA(c.e)
	return 4
}

// ADD A,H
// 0x84:
func opcode0x84(c *CPU) int {
	c.addToA(c.h)
	return 4
}

// ADD A,L
// 0x85:
func opcode0x85(c *CPU) int {
	c.addToA(c.l)
	return 4
}

// ADD A,(HL)
// 0x86:
func opcode0x86(c *CPU) int {
	c.addToA(c.bus.Read(c.getHL()))
	return 8
}

// ADD A,A
// 0x87:
func opcode0x87(c *CPU) int {
	c.addToA(c.a)
	return 4
}

// ADC A,B
// 0x88:
func opcode0x88(c *CPU) int {
	c.adc(c.b)
	return 4
}

// ADC A,C
// 0x89:
func opcode0x89(c *CPU) int {
	c.adc(c.c)
	return 4
}

// ADC A,D
// 0x8A:
func opcode0x8A(c *CPU) int {
	c.adc(c.d)
	return 4
}

// ADC A,E
// 0x8B:
func opcode0x8B(c *CPU) int {
	c.adc(c.e)
	return 4
}

// ADC A,H
// 0x8C:
func opcode0x8C(c *CPU) int {
	c.adc(c.h)
	return 4
}

// ADC A,L
// 0x8D:
func opcode0x8D(c *CPU) int {
	c.adc(c.l)
	return 4
}

// ADC A,(HL)
// 0x8E:
func opcode0x8E(c *CPU) int {
	c.adc(c.bus.Read(c.getHL()))
	return 8
}

// ADC A,A
// 0x8F:
func opcode0x8F(c *CPU) int {
	c.adc(c.a)
	return 4
}

// SUB B
// 0x90:
func opcode0x90(c *CPU) int {
	c.sub(c.b)
	return 4
}

// SUB C
// 0x91:
func opcode0x91(c *CPU) int {
	c.sub(c.c)
	return 4
}

// SUB D
// 0x92:
func opcode0x92(c *CPU) int {
	c.sub(c.d)
	return 4
}

// SUB E
// 0x93:
func opcode0x93(c *CPU) int {
	c.sub(c.e)
	return 4
}

// SUB H
// 0x94:
func opcode0x94(c *CPU) int {
	c.sub(c.h)
	return 4
}

// SUB L
// 0x95:
func opcode0x95(c *CPU) int {
	c.sub(c.l)
	return 4
}

// SUB (HL)
// 0x96:
func opcode0x96(c *CPU) int {
	c.sub(c.bus.Read(c.getHL()))
	return 8
}

// SUB A
// 0x97:
func opcode0x97(c *CPU) int {
	c.sub(c.a)
	return 4
}

// SBC A,B
// 0x98:
func opcode0x98(c *CPU) int {
	c.sbc(c.b)
	return 4
}

// SBC A,C
// 0x99:
func opcode0x99(c *CPU) int {
	c.sbc(c.c)
	return 4
}

// SBC A,D
// 0x9A:
func opcode0x9A(c *CPU) int {
	c.sbc(c.d)
	return 4
}

// SBC A,E
// 0x9B:
func opcode0x9B(c *CPU) int {
	c.sbc(c.e)
	return 4
}

// SBC A,H
// 0x9C:
func opcode0x9C(c *CPU) int {
	c.sbc(c.h)
	return 4
}

// SBC A,L
// 0x9D:
func opcode0x9D(c *CPU) int {
	c.sbc(c.l)
	return 4
}

// SBC A,(HL)
// 0x9E:
func opcode0x9E(c *CPU) int {
	c.sbc(c.bus.Read(c.getHL()))
	return 8
}

// SBC A,A
// 0x9F:
func opcode0x9F(c *CPU) int {
	c.sbc(c.a)
	return 4
}

// AND B
// 0xA0:
func opcode0xA0(c *CPU) int {
	c.and(c.b)
	return 4
}

// AND C
// 0xA1:
func opcode0xA1(c *CPU) int {
	c.and(c.c)
	return 4
}

// AND D
// 0xA2:
func opcode0xA2(c *CPU) int {
	c.and(c.d)
	return 4
}

// AND E
// 0xA3:
func opcode0xA3(c *CPU) int {
	c.and(c.e)
	return 4
}

// AND H
// 0xA4:
func opcode0xA4(c *CPU) int {
	c.and(c.h)
	return 4
}

// AND L
// 0xA5:
func opcode0xA5(c *CPU) int {
	c.and(c.l)
	return 4
}

// AND (HL)
// 0xA6:
func opcode0xA6(c *CPU) int {
	c.and(c.bus.Read(c.getHL()))
	return 8
}

// AND A
// 0xA7:
func opcode0xA7(c *CPU) int {
	c.and(c.a)
	return 4
}

// XOR B
// 0xA8:
func opcode0xA8(c *CPU) int {
	c.xor(c.b)
	return 4
}

// XOR C
// 0xA9:
func opcode0xA9(c *CPU) int {
	c.xor(c.c)
	return 4
}

// XOR D
// 0xAA:
func opcode0xAA(c *CPU) int {
	c.xor(c.d)
	return 4
}

// XOR E
// 0xAB:
func opcode0xAB(c *CPU) int {
	c.xor(c.e)
	return 4
}

// XOR H
// 0xAC:
func opcode0xAC(c *CPU) int {
	c.xor(c.h)
	return 4
}

// XOR L
// 0xAD:
func opcode0xAD(c *CPU) int {
	c.xor(c.l)
	return 4
}

// XOR (HL)
// 0xAE:
func opcode0xAE(c *CPU) int {
	c.xor(c.bus.Read(c.getHL()))
	return 8
}

// XOR A
// 0xAF:
func opcode0xAF(c *CPU) int {
	c.xor(c.a)
	return 4
}

// OR B
// 0xB0:
func opcode0xB0(c *CPU) int {
	c.or(c.b)
	return 4
}

// OR C
// 0xB1:
func opcode0xB1(c *CPU) int {
	c.or(c.c)
	return 4
}

// OR D
// 0xB2:
func opcode0xB2(c *CPU) int {
	c.or(c.d)
	return 4
}

// OR E
// 0xB3:
func opcode0xB3(c *CPU) int {
	c.or(c.e)
	return 4
}

// OR H
// 0xB4:
func opcode0xB4(c *CPU) int {
	c.or(c.h)
	return 4
}

// OR L
// 0xB5:
func opcode0xB5(c *CPU) int {
	c.or(c.l)
	return 4
}

// OR (HL)
// 0xB6:
func opcode0xB6(c *CPU) int {
	c.or(c.bus.Read(c.getHL()))
	return 8
}

// OR A
// 0xB7:
func opcode0xB7(c *CPU) int {
	c.or(c.a)
	return 4
}

// CP B
// 0xB8:
func opcode0xB8(c *CPU) int {
	c.cp(c.b)
	return 4
}

// CP C
// 0xB9:
func opcode0xB9(c *CPU) int {
	c.cp(c.c)
	return 4
}

// CP D
// 0xBA:
func opcode0xBA(c *CPU) int {
	c.cp(c.d)
	return 4
}

// CP E
// 0xBB:
func opcode0xBB(c *CPU) int {
	c.cp(c.e)
	return 4
}

// CP H
// 0xBC:
func opcode0xBC(c *CPU) int {
	c.cp(c.h)
	return 4
}

// CP L
// 0xBD:
func opcode0xBD(c *CPU) int {
	c.cp(c.l)
	return 4
}

// CP (HL)
// 0xBE:
func opcode0xBE(c *CPU) int {
	c.cp(c.bus.Read(c.getHL()))
	return 8
}

// CP A
// 0xBF:
func opcode0xBF(c *CPU) int {
	c.cp(c.a)
	return 4
}

// RET NZ
// 0xC0:
func opcode0xC0(c *CPU) int {
	return c.ret(!c.isSetFlag(zeroFlag))
}

// POP BC
// 0xC1:
func opcode0xC1(c *CPU) int {
	c.setBC(c.popStack())
	return 12
}

// JP NZ,nn
// 0xC2:
func opcode0xC2(c *CPU) int {
	return c.jp(!c.isSetFlag(zeroFlag))
}

// JP nn
// 0xC3:
func opcode0xC3(c *CPU) int {
	return c.jp(true)
}

// CALL NZ,nn
// 0xC4:
func opcode0xC4(c *CPU) int {
	return c.call(!c.isSetFlag(zeroFlag))
}

// PUSH BC
// 0xC5:
func opcode0xC5(c *CPU) int {
	c.pushStack(c.getBC())
	return 16
}

// ADD A,n
// 0xC6:
func opcode0xC6(c *CPU) int {
	c.addToA(c.readImmediate())
	return 8
}

// RST 0x00
// 0xC7:
func opcode0xC7(c *CPU) int {
	return c.rst(0x0000)
}

// RET Z
// 0xC8:
func opcode0xC8(c *CPU) int {
	return c.ret(c.isSetFlag(zeroFlag))
}

// RET
// 0xC9:
func opcode0xC9(c *CPU) int {
	c.pc = c.popStack()
	return 16
}

// JP Z,nn
// 0xCA:
func opcode0xCA(c *CPU) int {
	return c.jp(c.isSetFlag(zeroFlag))
}

// prefix, routed in Decode
// 0xCB:
func opcode0xCB(_ *CPU) int {
	return 4
}

// CALL Z,nn
// 0xCC:
func opcode0xCC(c *CPU) int {
	return c.call(c.isSetFlag(zeroFlag))
}

// CALL nn
// 0xCD:
func opcode0xCD(c *CPU) int {
	return c.call(true)
}

// ADC A,n
// 0xCE:
func opcode0xCE(c *CPU) int {
	c.adc(c.readImmediate())
	return 8
}

// RST 0x08
// 0xCF:
func opcode0xCF(c *CPU) int {
	return c.rst(0x0008)
}

// RET NC
// 0xD0:
func opcode0xD0(c *CPU) int {
	return c.ret(!c.isSetFlag(carryFlag))
}

// POP DE
// 0xD1:
func opcode0xD1(c *CPU) int {
	c.setDE(c.popStack())
	return 12
}

// JP NC,nn
// 0xD2:
func opcode0xD2(c *CPU) int {
	return c.jp(!c.isSetFlag(carryFlag))
}

// CALL NC,nn
// 0xD4:
func opcode0xD4(c *CPU) int {
	return c.call(!c.isSetFlag(carryFlag))
}

// PUSH DE
// 0xD5:
func opcode0xD5(c *CPU) int {
	c.pushStack(c.getDE())
	return 16
}

// SUB n
// 0xD6:
func opcode0xD6(c *CPU) int {
	c.sub(c.readImmediate())
	return 8
}

// RST 0x10
// 0xD7:
func opcode0xD7(c *CPU) int {
	return c.rst(0x0010)
}

// RET C
// 0xD8:
func opcode0xD8(c *CPU) int {
	return c.ret(c.isSetFlag(carryFlag))
}

// RETI
// 0xD9:
func opcode0xD9(c *CPU) int {
	c.pc = c.popStack()
	c.interruptsEnabled = true
	return 16
}

// JP C,nn
// 0xDA:
func opcode0xDA(c *CPU) int {
	return c.jp(c.isSetFlag(carryFlag))
}

// CALL C,nn
// 0xDC:
func opcode0xDC(c *CPU) int {
	return c.call(c.isSetFlag(carryFlag))
}

// SBC A,n
// 0xDE:
func opcode0xDE(c *CPU) int {
	c.sbc(c.readImmediate())
	return 8
}

// RST 0x18
// 0xDF:
func opcode0xDF(c *CPU) int {
	return c.rst(0x0018)
}

// LD (0xFF00+n),A
// 0xE0:
func opcode0xE0(c *CPU) int {
	c.bus.Write(0xFF00+uint16(c.readImmediate()), c.a)
	return 12
}

// POP HL
// 0xE1:
func opcode0xE1(c *CPU) int {
	c.setHL(c.popStack())
	return 12
}

// LD (0xFF00+C),A
// 0xE2:
func opcode0xE2(c *CPU) int {
	c.bus.Write(0xFF00+uint16(c.c), c.a)
	return 8
}

// PUSH HL
// 0xE5:
func opcode0xE5(c *CPU) int {
	c.pushStack(c.getHL())
	return 16
}

// AND n
// 0xE6:
func opcode0xE6(c *CPU) int {
	c.and(c.readImmediate())
	return 8
}

// RST 0x20
// 0xE7:
func opcode0xE7(c *CPU) int {
	return c.rst(0x0020)
}

// ADD SP,n
// 0xE8:
func opcode0xE8(c *CPU) int {
	c.sp = c.addSPSigned()
	return 16
}

// JP (HL)
// 0xE9:
func opcode0xE9(c *CPU) int {
	c.pc = c.getHL()
	return 4
}

// LD (nn),A
// 0xEA:
func opcode0xEA(c *CPU) int {
	c.bus.Write(c.readImmediateWord(), c.a)
	return 16
}

// XOR n
// 0xEE:
func opcode0xEE(c *CPU) int {
	c.xor(c.readImmediate())
	return 8
}

// RST 0x28
// 0xEF:
func opcode0xEF(c *CPU) int {
	return c.rst(0x0028)
}

// LD A,(0xFF00+n)
// 0xF0:
func opcode0xF0(c *CPU) int {
	c.a = c.bus.Read(0xFF00 + uint16(c.readImmediate()))
	return 12
}

// POP AF
// 0xF1:
func opcode0xF1(c *CPU) int {
	c.setAF(c.popStack())
	return 12
}

// LD A,(0xFF00+C)
// 0xF2:
func opcode0xF2(c *CPU) int {
	c.a = c.bus.Read(0xFF00 + uint16(c.c))
	return 8
}

// DI
// 0xF3:
func opcode0xF3(c *CPU) int {
	c.interruptsEnabled = false
	c.eiPending = false
	return 4
}

// PUSH AF
// 0xF5:
func opcode0xF5(c *CPU) int {
	c.pushStack(c.getAF())
	return 16
}

// OR n
// 0xF6:
func opcode0xF6(c *CPU) int {
	c.or(c.readImmediate())
	return 8
}

// RST 0x30
// 0xF7:
func opcode0xF7(c *CPU) int {
	return c.rst(0x0030)
}

// LD HL,SP+n
// 0xF8:
func opcode0xF8(c *CPU) int {
	c.setHL(c.addSPSigned())
	return 12
}

// LD SP,HL
// 0xF9:
func opcode0xF9(c *CPU) int {
	c.sp = c.getHL()
	return 8
}

// LD A,(nn)
// 0xFA:
func opcode0xFA(c *CPU) int {
	c.a = c.bus.Read(c.readImmediateWord())
	return 16
}

// EI
// 0xFB:
func opcode0xFB(c *CPU) int {
	c.eiPending = true
	return 4
}

// CP n
// 0xFE:
func opcode0xFE(c *CPU) int {
	c.cp(c.readImmediate())
	return 8
}

// RST 0x38
// 0xFF:
func opcode0xFF(c *CPU) int {
	return c.rst(0x0038)
}
