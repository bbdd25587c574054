package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
)

func TestJoypadMatrixSelect(t *testing.T) {
	m := New()
	m.Press(JoypadRight)
	m.Press(JoypadA)

	// neither group selected: low nibble floats high
	m.Write(addr.P1, 0x30)
	assert.Equal(t, uint8(0xFF), m.Read(addr.P1))

	// d-pad group
	m.Write(addr.P1, 0x20)
	assert.Equal(t, uint8(0xEE), m.Read(addr.P1), "Right reads low")

	// button group
	m.Write(addr.P1, 0x10)
	assert.Equal(t, uint8(0xDE), m.Read(addr.P1), "A reads low")

	// both groups: nibbles ANDed
	m.Write(addr.P1, 0x00)
	assert.Equal(t, uint8(0xCE), m.Read(addr.P1))
}

func TestJoypadRelease(t *testing.T) {
	m := New()
	m.Write(addr.P1, 0x20)

	m.Press(JoypadDown)
	assert.Equal(t, uint8(0xE7), m.Read(addr.P1))

	m.Release(JoypadDown)
	assert.Equal(t, uint8(0xEF), m.Read(addr.P1))
}

func TestJoypadInterruptOnPressEdge(t *testing.T) {
	m := New()

	m.Press(JoypadStart)
	assert.NotZero(t, m.Read(addr.IF)&0x10, "joypad interrupt requested")

	// repeated press of an already held key does not re-request
	m.SetIO(addr.IF, 0)
	m.Press(JoypadStart)
	assert.Zero(t, m.Read(addr.IF)&0x10)

	m.Release(JoypadStart)
	m.Press(JoypadStart)
	assert.NotZero(t, m.Read(addr.IF)&0x10)
}
