package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

func TestEchoRAMMirrorsWRAM(t *testing.T) {
	m := New()

	m.Write(0xC123, 0x42)
	assert.Equal(t, uint8(0x42), m.Read(0xE123))

	m.Write(0xE456, 0x99)
	assert.Equal(t, uint8(0x99), m.Read(0xC456))
}

func TestUnusableRegion(t *testing.T) {
	m := New()

	m.Write(0xFEA5, 0x12)
	assert.Equal(t, uint8(0xFF), m.Read(0xFEA5))

	// OAM proper still works
	m.Write(addr.OAMStart, 0x34)
	assert.Equal(t, uint8(0x34), m.Read(addr.OAMStart))
}

func TestNoCartridgeReadsFloat(t *testing.T) {
	m := New()
	assert.Equal(t, uint8(0xFF), m.Read(0x0000))
	assert.Equal(t, uint8(0xFF), m.Read(0x7FFF))
	assert.Equal(t, uint8(0xFF), m.Read(0xA000))
}

func TestIFUpperBitsReadAsOne(t *testing.T) {
	m := New()
	m.Write(addr.IF, 0x01)
	assert.Equal(t, uint8(0xE1), m.Read(addr.IF))
}

func TestLYIsReadOnly(t *testing.T) {
	m := New()
	m.SetIO(addr.LY, 42)
	m.Write(addr.LY, 0)
	assert.Equal(t, uint8(42), m.Read(addr.LY))
}

func TestSTATWritePreservesStatusBits(t *testing.T) {
	m := New()
	m.SetIO(addr.STAT, 0x83) // mode 3
	m.Write(addr.STAT, 0x45) // try to set enables and clobber the mode

	assert.Equal(t, uint8(0xC3), m.Read(addr.STAT),
		"mode bits kept, enable bits taken, bit 7 reads 1")
}

func TestOAMDMA(t *testing.T) {
	m := New()
	for i := uint16(0); i < 160; i++ {
		m.Write(0xC000+i, uint8(i))
	}

	m.Write(addr.DMA, 0xC0)

	for i := uint16(0); i < 160; i++ {
		require.Equal(t, uint8(i), m.Read(addr.OAMStart+i), "OAM byte %d", i)
	}
	assert.Equal(t, uint8(0xC0), m.GetIO(addr.DMA))
}

func TestBankingRegistersInertOnDMG(t *testing.T) {
	m := New()

	assert.Equal(t, uint8(0xFF), m.Read(addr.VBK))
	assert.Equal(t, uint8(0xFF), m.Read(addr.SVBK))

	m.Write(0x8000, 0x11)
	m.Write(addr.VBK, 0x01)
	assert.Equal(t, uint8(0x11), m.Read(0x8000), "single VRAM bank")
}

func TestCGBVRAMBanking(t *testing.T) {
	m := NewWithModel(CGB)

	m.Write(0x8000, 0x11)
	m.Write(addr.VBK, 0x01)
	assert.Equal(t, uint8(0xFF), m.Read(addr.VBK))

	assert.Zero(t, m.Read(0x8000), "bank 1 is empty")
	m.Write(0x8000, 0x22)

	m.Write(addr.VBK, 0x00)
	assert.Equal(t, uint8(0xFE), m.Read(addr.VBK))
	assert.Equal(t, uint8(0x11), m.Read(0x8000))
}

func TestCGBWRAMBanking(t *testing.T) {
	m := NewWithModel(CGB)

	m.Write(0xD000, 0x11) // bank 1, the default
	m.Write(addr.SVBK, 0x03)
	assert.Equal(t, uint8(0xFB), m.Read(addr.SVBK))

	assert.Zero(t, m.Read(0xD000))
	m.Write(0xD000, 0x33)

	m.Write(addr.SVBK, 0x00) // 0 selects bank 1
	assert.Equal(t, uint8(0x11), m.Read(0xD000))

	m.Write(addr.SVBK, 0x03)
	assert.Equal(t, uint8(0x33), m.Read(0xD000))

	// bank 0 at 0xC000 is unaffected by SVBK
	m.Write(0xC000, 0x44)
	m.Write(addr.SVBK, 0x05)
	assert.Equal(t, uint8(0x44), m.Read(0xC000))
}

func TestMMUSnapshotRoundTrip(t *testing.T) {
	m := New()
	m.Write(0x8abc, 0x11)
	m.Write(0xC123, 0x22)
	m.Write(addr.OAMStart+3, 0x33)
	m.Write(0xFF80, 0x44)
	m.Write(addr.TMA, 0x55)

	state := snapshot.NewState()
	m.Save(state)

	restored := New()
	restored.Load(snapshot.FromBytes(state.Bytes()))

	assert.Equal(t, uint8(0x11), restored.Read(0x8abc))
	assert.Equal(t, uint8(0x22), restored.Read(0xC123))
	assert.Equal(t, uint8(0x33), restored.Read(addr.OAMStart+3))
	assert.Equal(t, uint8(0x44), restored.Read(0xFF80))
	assert.Equal(t, uint8(0x55), restored.Read(addr.TMA))
}
