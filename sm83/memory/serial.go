package memory

import "github.com/ThaumielSparrow/go-sm83/sm83/snapshot"

// serialTransferCycles is the length of an internally clocked 8-bit
// transfer: 8 bits at the 8192 Hz bit clock (512 cycles per bit).
const serialTransferCycles = 8 * 512

// serialPort implements the SB/SC registers without a link partner.
// Internally clocked transfers complete after the hardware delay with
// 0xFF shifted in, then raise the serial interrupt. Externally clocked
// transfers never complete (no peer supplies a clock).
type serialPort struct {
	sb      byte
	sc      byte
	counter int
	active  bool

	onComplete func()
	onTransfer func(value byte)
}

func (p *serialPort) Tick(cycles int) {
	if !p.active {
		return
	}
	p.counter += cycles
	if p.counter >= serialTransferCycles {
		p.active = false
		p.counter = 0
		p.sb = 0xFF
		p.sc &^= 0x80
		if p.onComplete != nil {
			p.onComplete()
		}
	}
}

func (p *serialPort) Read(address uint16) byte {
	switch address {
	case 0xFF01:
		return p.sb
	default:
		// unused SC bits read as 1
		return p.sc | 0x7E
	}
}

func (p *serialPort) Write(address uint16, value byte) {
	switch address {
	case 0xFF01:
		p.sb = value
	default:
		p.sc = value & 0x81
		if value&0x80 != 0 && value&0x01 != 0 {
			p.active = true
			p.counter = 0
			if p.onTransfer != nil {
				p.onTransfer(p.sb)
			}
		}
	}
}

func (p *serialPort) Save(s *snapshot.State) {
	s.Write8(p.sb)
	s.Write8(p.sc)
	s.Write32(uint32(p.counter))
	s.WriteBool(p.active)
}

func (p *serialPort) Load(s *snapshot.State) {
	p.sb = s.Read8()
	p.sc = s.Read8()
	p.counter = int(s.Read32())
	p.active = s.ReadBool()
}
