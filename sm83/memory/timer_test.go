package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
)

func TestDIVIncrements(t *testing.T) {
	var timer Timer

	timer.Tick(255)
	assert.Equal(t, uint8(0), timer.Read(addr.DIV))

	timer.Tick(1)
	assert.Equal(t, uint8(1), timer.Read(addr.DIV))

	timer.Tick(256 * 4)
	assert.Equal(t, uint8(5), timer.Read(addr.DIV))
}

func TestDIVWriteResetsWholeCounter(t *testing.T) {
	var timer Timer
	timer.Seed(0xABCD)

	timer.Write(addr.DIV, 0x42) // any value clears
	assert.Equal(t, uint16(0), timer.Divider())
	assert.Equal(t, uint8(0), timer.Read(addr.DIV))
}

func TestTIMARates(t *testing.T) {
	tests := []struct {
		name   string
		tac    uint8
		period int
	}{
		{"4096Hz", 0x04, 1024},
		{"262144Hz", 0x05, 16},
		{"65536Hz", 0x06, 64},
		{"16384Hz", 0x07, 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var timer Timer
			timer.Write(addr.TAC, tt.tac)

			timer.Tick(tt.period - 1)
			assert.Equal(t, uint8(0), timer.Read(addr.TIMA))

			timer.Tick(1)
			assert.Equal(t, uint8(1), timer.Read(addr.TIMA))

			timer.Tick(tt.period * 3)
			assert.Equal(t, uint8(4), timer.Read(addr.TIMA))
		})
	}
}

func TestTIMADisabled(t *testing.T) {
	var timer Timer
	timer.Write(addr.TAC, 0x01) // fast clock selected but not enabled

	timer.Tick(4096)
	assert.Equal(t, uint8(0), timer.Read(addr.TIMA))
}

func TestTIMAOverflow(t *testing.T) {
	var fired int
	var timer Timer
	timer.OnOverflow = func() { fired++ }
	timer.Write(addr.TAC, 0x05) // enabled, increments every 16 cycles
	timer.Write(addr.TMA, 0xAA)
	timer.Write(addr.TIMA, 0xFF)

	// the increment overflows TIMA; it reads 0x00 for 4 cycles
	timer.Tick(16)
	assert.Equal(t, uint8(0x00), timer.Read(addr.TIMA))
	assert.Zero(t, fired)

	// reload from TMA at the end of the window
	timer.Tick(4)
	assert.Equal(t, uint8(0xAA), timer.Read(addr.TIMA))
	assert.Zero(t, fired, "interrupt lags the reload by one cycle")

	timer.Tick(1)
	assert.Equal(t, 1, fired)
}

func TestTACReadMask(t *testing.T) {
	var timer Timer
	timer.Write(addr.TAC, 0xFF)
	assert.Equal(t, uint8(0xFF), timer.Read(addr.TAC))

	timer.Write(addr.TAC, 0x05)
	assert.Equal(t, uint8(0xFD), timer.Read(addr.TAC), "unused bits read as 1")
}
