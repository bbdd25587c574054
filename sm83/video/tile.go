package video

import "github.com/ThaumielSparrow/go-sm83/sm83/bit"

// MemoryReader is the read-only bus access tile fetching needs.
type MemoryReader interface {
	Read(address uint16) byte
}

// TileRow is one 8-pixel row of a tile in the two-byte bit-plane
// format: the low byte provides bit 0 of each pixel's color index, the
// high byte bit 1. Bit 7 is the leftmost pixel.
type TileRow struct {
	Low  byte
	High byte
}

// GetPixel extracts the 2-bit color index for a pixel (0 = leftmost).
func (t TileRow) GetPixel(pixelX int) int {
	bitIndex := uint8(7 - pixelX)

	pixel := 0
	if bit.IsSet(bitIndex, t.Low) {
		pixel |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		pixel |= 2
	}
	return pixel
}

// GetPixelFlipped extracts a pixel color with horizontal flip, used
// for sprites with the flip X attribute.
func (t TileRow) GetPixelFlipped(pixelX int) int {
	bitIndex := uint8(pixelX)

	pixel := 0
	if bit.IsSet(bitIndex, t.Low) {
		pixel |= 1
	}
	if bit.IsSet(bitIndex, t.High) {
		pixel |= 2
	}
	return pixel
}

// Tile is a complete 8x8 pattern, 16 bytes in VRAM.
type Tile struct {
	Index int
	Rows  [8]TileRow
}

// GetPixel returns the color index (0-3) at (x, y), (0,0) top-left.
func (t *Tile) GetPixel(x, y int) int {
	if y < 0 || y >= 8 || x < 0 || x >= 8 {
		return 0
	}
	return t.Rows[y].GetPixel(x)
}

// FetchTileRow reads a single tile row from memory.
func FetchTileRow(memory MemoryReader, address uint16) TileRow {
	return TileRow{
		Low:  memory.Read(address),
		High: memory.Read(address + 1),
	}
}

// FetchTile reads a complete tile starting at baseAddr.
func FetchTile(memory MemoryReader, baseAddr uint16) Tile {
	var tile Tile
	for row := 0; row < 8; row++ {
		tile.Rows[row] = FetchTileRow(memory, baseAddr+uint16(row*2))
	}
	return tile
}
