package memory

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// tacBit maps the TAC clock select (bits 1-0) to the bit of the
// internal 16-bit divider whose falling edge clocks TIMA:
//
//	00 -> bit 9  (4096 Hz)
//	01 -> bit 3  (262144 Hz)
//	10 -> bit 5  (65536 Hz)
//	11 -> bit 7  (16384 Hz)
var tacBit = [4]uint8{9, 3, 5, 7}

// Timer implements DIV/TIMA/TMA/TAC. DIV is the high byte of a 16-bit
// counter that increments every clock cycle; TIMA increments on falling
// edges of the TAC-selected divider bit while enabled.
type Timer struct {
	divider      uint16 // internal counter, DIV reads the upper byte
	lastEdge     bool   // previous state of the selected bit
	overflowWait int    // cycles left in the TIMA overflow window
	pendingIRQ   bool   // interrupt raised one cycle after the reload

	tima byte
	tma  byte
	tac  byte

	// OnOverflow is invoked when the timer interrupt should be raised.
	OnOverflow func()
}

// Tick advances the timer by the given number of clock cycles.
func (t *Timer) Tick(cycles int) {
	for i := 0; i < cycles; i++ {
		if t.pendingIRQ {
			if t.OnOverflow != nil {
				t.OnOverflow()
			}
			t.pendingIRQ = false
		}

		t.divider++

		if t.overflowWait > 0 {
			// TIMA reads 0x00 during this window, then reloads from TMA.
			t.overflowWait--
			if t.overflowWait == 0 {
				t.tima = t.tma
				t.pendingIRQ = true
			}
			continue
		}

		if bit.IsSet(2, t.tac) {
			edge := bit.IsSet16(tacBit[t.tac&0x03], t.divider)
			if t.lastEdge && !edge {
				t.incrementTIMA()
			}
			t.lastEdge = edge
		} else {
			t.lastEdge = false
		}
	}
}

func (t *Timer) incrementTIMA() {
	if t.tima == 0xFF {
		t.overflowWait = 4
	}
	t.tima++
}

// Seed initializes the internal divider, clearing any overflow state.
func (t *Timer) Seed(value uint16) {
	t.divider = value
	t.lastEdge = false
	t.overflowWait = 0
	t.pendingIRQ = false
}

// Divider returns the raw internal 16-bit counter.
func (t *Timer) Divider() uint16 {
	return t.divider
}

func (t *Timer) Read(address uint16) byte {
	switch address {
	case addr.DIV:
		return byte(t.divider >> 8)
	case addr.TIMA:
		return t.tima
	case addr.TMA:
		return t.tma
	case addr.TAC:
		return t.tac | 0xF8
	default:
		return 0xFF
	}
}

func (t *Timer) Save(s *snapshot.State) {
	s.Write16(t.divider)
	s.WriteBool(t.lastEdge)
	s.Write8(uint8(t.overflowWait))
	s.WriteBool(t.pendingIRQ)
	s.Write8(t.tima)
	s.Write8(t.tma)
	s.Write8(t.tac)
}

func (t *Timer) Load(s *snapshot.State) {
	t.divider = s.Read16()
	t.lastEdge = s.ReadBool()
	t.overflowWait = int(s.Read8())
	t.pendingIRQ = s.ReadBool()
	t.tima = s.Read8()
	t.tma = s.Read8()
	t.tac = s.Read8()
}

func (t *Timer) Write(address uint16, value byte) {
	switch address {
	case addr.DIV:
		// Any value resets the whole internal counter.
		t.divider = 0
	case addr.TIMA:
		t.tima = value
	case addr.TMA:
		t.tma = value
	case addr.TAC:
		t.tac = value & 0x07
	}
}
