package video

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
)

// maxSpritesPerLine is the hardware limit on visible objects per
// scanline; further OAM entries are dropped in scan order.
const maxSpritesPerLine = 10

// Sprite is one object from OAM with its attributes decoded. X and Y
// are screen positions with the hardware offsets (8, 16) removed.
type Sprite struct {
	Y         int
	X         int
	TileIndex uint8
	Flags     uint8
	OAMIndex  int
	Height    int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool

	// PixelMask has a bit set (bit 7 leftmost) for each of the 8
	// sprite pixels this sprite owns after priority resolution.
	PixelMask uint8
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// HasPriorityForPixel reports whether this sprite owns its pixel at
// the given X offset (0 = leftmost).
func (s *Sprite) HasPriorityForPixel(pixelX int) bool {
	if pixelX < 0 || pixelX > 7 {
		return false
	}
	return s.PixelMask&(1<<(7-pixelX)) != 0
}

// OAM scans object attribute memory and resolves per-scanline sprite
// selection and priority.
type OAM struct {
	bus            MemoryReader
	priorityBuffer SpritePriorityBuffer
	spriteBuffer   [maxSpritesPerLine]Sprite
}

func NewOAM(bus MemoryReader) *OAM {
	return &OAM{bus: bus}
}

// GetSpritesForScanline returns the sprites overlapping a scanline, at
// most ten, with pixel ownership already resolved. The returned slice
// aliases an internal buffer valid until the next call.
func (o *OAM) GetSpritesForScanline(scanline int) []Sprite {
	sprites := o.spriteBuffer[:0]
	o.priorityBuffer.Clear()

	spriteHeight := 8
	if bit.IsSet(2, o.bus.Read(addr.LCDC)) {
		spriteHeight = 16
	}

	for i := 0; i < 40; i++ {
		base := addr.OAMStart + uint16(i*4)

		spriteY := int(o.bus.Read(base)) - 16
		if scanline < spriteY || scanline >= spriteY+spriteHeight {
			continue
		}

		sprite := Sprite{
			Y:         spriteY,
			X:         int(o.bus.Read(base+1)) - 8,
			TileIndex: o.bus.Read(base + 2),
			Flags:     o.bus.Read(base + 3),
			OAMIndex:  i,
			Height:    spriteHeight,
		}
		sprite.parseFlags()
		sprites = append(sprites, sprite)

		for pixelX := 0; pixelX < 8; pixelX++ {
			o.priorityBuffer.TryClaimPixel(sprite.X+pixelX, sprite.OAMIndex, sprite.X)
		}

		if len(sprites) == maxSpritesPerLine {
			break
		}
	}

	for i := range sprites {
		var mask uint8
		for pixelX := 0; pixelX < 8; pixelX++ {
			if o.priorityBuffer.Owner(sprites[i].X+pixelX) == sprites[i].OAMIndex {
				mask |= 1 << (7 - pixelX)
			}
		}
		sprites[i].PixelMask = mask
	}

	return sprites
}
