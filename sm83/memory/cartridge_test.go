package memory

import (
	"testing"

	"github.com/cespare/xxhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// headerROM builds a minimal image with a valid header checksum.
func headerROM(title string, typeByte, ramSizeCode uint8) []uint8 {
	rom := make([]uint8, 0x8000)
	copy(rom[titleAddress:titleAddress+titleLength], title)
	rom[cartridgeTypeAddress] = typeByte
	rom[ramSizeAddress] = ramSizeCode

	var sum uint8
	for i := headerChecksumStart; i <= headerChecksumEnd; i++ {
		sum = sum - rom[i] - 1
	}
	rom[headerChecksumAddress] = sum
	return rom
}

func TestLoadCartridgeHeader(t *testing.T) {
	rom := headerROM("TETRIS", 0x00, 0x00)
	c, err := LoadCartridge(rom, nil)
	require.NoError(t, err)

	assert.Equal(t, "TETRIS", c.Title())
	assert.Equal(t, xxhash.Sum64(rom), c.Hash())
	assert.False(t, c.HasBattery())
	assert.Nil(t, c.DumpRAM())
}

func TestLoadCartridgeTooSmall(t *testing.T) {
	_, err := LoadCartridge(make([]uint8, 0x100), nil)
	assert.ErrorIs(t, err, ErrUnsupportedCartridgeController)
}

func TestLoadCartridgeUnknownController(t *testing.T) {
	rom := headerROM("X", 0x20, 0x00)
	_, err := LoadCartridge(rom, nil)
	assert.ErrorIs(t, err, ErrUnsupportedCartridgeController)
}

func TestControllerSelection(t *testing.T) {
	tests := []struct {
		typeByte uint8
		battery  bool
		mbc      any
	}{
		{0x00, false, &NoMBC{}},
		{0x03, true, &MBC1{}},
		{0x06, true, &MBC2{}},
		{0x10, true, &MBC3{}},
		{0x13, true, &MBC3{}},
		{0x19, false, &MBC5{}},
		{0x1B, true, &MBC5{}},
	}

	for _, tt := range tests {
		c, err := LoadCartridge(headerROM("T", tt.typeByte, 0x02), nil)
		require.NoError(t, err, "type 0x%02X", tt.typeByte)
		assert.Equal(t, tt.battery, c.HasBattery(), "type 0x%02X", tt.typeByte)
		assert.IsType(t, tt.mbc, c.mbc, "type 0x%02X", tt.typeByte)
	}
}

func TestBatteryRAMDump(t *testing.T) {
	c, err := LoadCartridge(headerROM("SAVEGAME", 0x03, 0x02), nil)
	require.NoError(t, err)

	c.Write(0x0000, 0x0A) // enable RAM
	c.Write(0xA000, 0x42)

	dump := c.DumpRAM()
	require.Len(t, dump, ramBankSize)
	assert.Equal(t, uint8(0x42), dump[0])

	restored, err := LoadCartridge(headerROM("SAVEGAME", 0x03, 0x02), nil)
	require.NoError(t, err)
	restored.LoadRAM(dump)
	restored.Write(0x0000, 0x0A)
	assert.Equal(t, uint8(0x42), restored.Read(0xA000))
}

func TestTitleCleaning(t *testing.T) {
	rom := headerROM("", 0x00, 0x00)
	c, err := LoadCartridge(rom, nil)
	require.NoError(t, err)
	assert.Equal(t, "(untitled)", c.Title())

	rom = headerROM("AB\x01CD", 0x00, 0x00)
	c, err = LoadCartridge(rom, nil)
	require.NoError(t, err)
	assert.Equal(t, "AB?CD", c.Title())
}

func TestChecksumMismatchIsNotFatal(t *testing.T) {
	rom := headerROM("BADSUM", 0x00, 0x00)
	rom[headerChecksumAddress] ^= 0xFF

	c, err := LoadCartridge(rom, nil)
	require.NoError(t, err)
	assert.Equal(t, "BADSUM", c.Title())
}
