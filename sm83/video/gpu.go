// Package video implements the display controller: the mode state
// machine, the scanline renderer and object attribute memory handling.
package video

import (
	"github.com/ThaumielSparrow/go-sm83/sm83/addr"
	"github.com/ThaumielSparrow/go-sm83/sm83/bit"
	"github.com/ThaumielSparrow/go-sm83/sm83/snapshot"
)

// Bus is the access the display controller needs: normal reads for
// VRAM/OAM plus raw register access, since LY and the STAT mode bits
// are read-only from the CPU side.
type Bus interface {
	Read(address uint16) byte
	GetIO(address uint16) byte
	SetIO(address uint16, value byte)
	RequestInterrupt(interrupt addr.Interrupt)
}

// Mode is the current controller mode, numbered as in the STAT
// register.
type Mode uint8

const (
	HBlank Mode = iota
	VBlank
	OAMScan
	PixelTransfer
)

const (
	oamScanCycles       = 80
	pixelTransferCycles = 172 // base length, before scroll and sprite penalties
	scanlineCycles      = 456

	vblankStartLine = 144
	linesPerFrame   = 154

	// FrameCycles is the length of one full frame: 154 lines of 456
	// cycles each.
	FrameCycles = linesPerFrame * scanlineCycles
)

// GPU runs the display controller state machine and renders scanlines
// into a framebuffer at the end of each pixel transfer.
type GPU struct {
	bus         Bus
	oam         *OAM
	framebuffer *FrameBuffer

	mode        Mode
	line        int
	lineCycles  int
	windowLine  int // internal window line counter
	transferEnd int // end of mode 3 for the current line
	statLine    bool
	frameReady  bool

	// background color indexes of the current line, for the sprite
	// behind-background priority check
	lineColors [FramebufferWidth]uint8
}

func New(bus Bus) *GPU {
	return &GPU{
		bus:         bus,
		oam:         NewOAM(bus),
		framebuffer: NewFrameBuffer(),
		mode:        OAMScan,
	}
}

// Framebuffer returns the render target. Pixels for the frame in
// progress are partially drawn; use FrameReady to detect completion.
func (g *GPU) Framebuffer() *FrameBuffer {
	return g.framebuffer
}

// FrameReady reports whether a complete frame has been rendered since
// the last ConsumeFrame.
func (g *GPU) FrameReady() bool { return g.frameReady }

// ConsumeFrame clears the frame-ready flag and returns the buffer.
func (g *GPU) ConsumeFrame() *FrameBuffer {
	g.frameReady = false
	return g.framebuffer
}

// Mode returns the current controller mode.
func (g *GPU) Mode() Mode { return g.mode }

// Line returns the scanline in progress.
func (g *GPU) Line() int { return g.line }

// Tick advances the controller by the given number of clock cycles.
func (g *GPU) Tick(cycles int) {
	if !bit.IsSet(7, g.bus.GetIO(addr.LCDC)) {
		// LCD off: LY and the mode bits read zero, timing restarts
		// from the top of the frame when re-enabled.
		g.line = 0
		g.lineCycles = 0
		g.windowLine = 0
		g.mode = HBlank
		g.statLine = false
		g.bus.SetIO(addr.LY, 0)
		stat := g.bus.GetIO(addr.STAT)
		g.bus.SetIO(addr.STAT, 0x80|stat&0x78)
		return
	}

	g.lineCycles += cycles

	for {
		switch g.mode {
		case OAMScan:
			if g.lineCycles < oamScanCycles {
				return
			}
			g.mode = PixelTransfer
			// mode 3 stretches with the fine background scroll and
			// with every sprite fetched on the line
			penalty := int(g.bus.GetIO(addr.SCX) % 8)
			if bit.IsSet(1, g.bus.GetIO(addr.LCDC)) {
				penalty += 10 * len(g.oam.GetSpritesForScanline(g.line))
			}
			g.transferEnd = oamScanCycles + pixelTransferCycles + penalty

		case PixelTransfer:
			if g.lineCycles < g.transferEnd {
				return
			}
			g.renderScanline()
			g.mode = HBlank

		case HBlank:
			if g.lineCycles < scanlineCycles {
				return
			}
			g.lineCycles -= scanlineCycles
			g.line++
			if g.line == vblankStartLine {
				g.mode = VBlank
				g.frameReady = true
				g.bus.RequestInterrupt(addr.VBlankInterrupt)
			} else {
				g.mode = OAMScan
			}

		case VBlank:
			if g.lineCycles < scanlineCycles {
				return
			}
			g.lineCycles -= scanlineCycles
			g.line++
			if g.line == linesPerFrame {
				g.line = 0
				g.windowLine = 0
				g.mode = OAMScan
			}
		}

		g.syncSTAT()
	}
}

// syncSTAT publishes LY and the STAT status bits, then drives the
// edge-triggered STAT interrupt line: the interrupt fires only when
// the OR of all enabled conditions goes from low to high, so two
// conditions overlapping raise a single request.
func (g *GPU) syncSTAT() {
	g.bus.SetIO(addr.LY, uint8(g.line))

	stat := g.bus.GetIO(addr.STAT)
	coincidence := uint8(g.line) == g.bus.GetIO(addr.LYC)

	stat = 0x80 | stat&0x78 | uint8(g.mode)
	if coincidence {
		stat |= 0x04
	}
	g.bus.SetIO(addr.STAT, stat)

	line := coincidence && bit.IsSet(6, stat) ||
		g.mode == HBlank && bit.IsSet(3, stat) ||
		g.mode == VBlank && bit.IsSet(4, stat) ||
		g.mode == OAMScan && bit.IsSet(5, stat)

	if line && !g.statLine {
		g.bus.RequestInterrupt(addr.LCDSTATInterrupt)
	}
	g.statLine = line
}

func (g *GPU) renderScanline() {
	lcdc := g.bus.GetIO(addr.LCDC)
	y := g.line

	for i := range g.lineColors {
		g.lineColors[i] = 0
	}

	if bit.IsSet(0, lcdc) {
		g.renderBackground(lcdc, y)
		if bit.IsSet(5, lcdc) {
			g.renderWindow(lcdc, y)
		}
	} else {
		// background disabled: the line shows blank (white) pixels
		for x := 0; x < FramebufferWidth; x++ {
			g.framebuffer.SetPixel(x, y, WhiteColor)
		}
	}

	if bit.IsSet(1, lcdc) {
		g.renderSprites(y)
	}
}

// tileRowAddress resolves a tile number to the VRAM address of one of
// its rows, using unsigned indexing from 0x8000 or signed indexing
// around 0x9000 depending on LCDC bit 4.
func tileRowAddress(lcdc uint8, tileNumber uint8, row int) uint16 {
	if bit.IsSet(4, lcdc) {
		return addr.TileData0 + uint16(tileNumber)*16 + uint16(row*2)
	}
	return uint16(int(addr.TileData2) + int(int8(tileNumber))*16 + row*2)
}

func (g *GPU) renderBackground(lcdc uint8, y int) {
	scy := g.bus.GetIO(addr.SCY)
	scx := g.bus.GetIO(addr.SCX)
	bgp := g.bus.GetIO(addr.BGP)

	mapBase := addr.TileMap0
	if bit.IsSet(3, lcdc) {
		mapBase = addr.TileMap1
	}

	bgY := uint8(y) + scy // wraps around the 256-pixel map
	tileRow := uint16(bgY / 8)
	pixelRow := int(bgY % 8)

	for x := 0; x < FramebufferWidth; x++ {
		bgX := uint8(x) + scx
		tileCol := uint16(bgX / 8)

		tileNumber := g.bus.Read(mapBase + tileRow*32 + tileCol)
		row := FetchTileRow(g.bus, tileRowAddress(lcdc, tileNumber, pixelRow))

		colorIndex := row.GetPixel(int(bgX % 8))
		g.lineColors[x] = uint8(colorIndex)
		g.framebuffer.SetPixel(x, y, paletteShade(bgp, colorIndex))
	}
}

func (g *GPU) renderWindow(lcdc uint8, y int) {
	wy := int(g.bus.GetIO(addr.WY))
	wx := int(g.bus.GetIO(addr.WX)) - 7

	if y < wy || wx >= FramebufferWidth {
		return
	}

	bgp := g.bus.GetIO(addr.BGP)
	mapBase := addr.TileMap0
	if bit.IsSet(6, lcdc) {
		mapBase = addr.TileMap1
	}

	// the window keeps its own line counter: hiding it for a few
	// scanlines and showing it again resumes where it left off
	winY := g.windowLine
	tileRow := uint16(winY / 8)
	pixelRow := winY % 8

	start := wx
	if start < 0 {
		start = 0
	}
	for x := start; x < FramebufferWidth; x++ {
		winX := x - wx
		tileCol := uint16(winX / 8)

		tileNumber := g.bus.Read(mapBase + tileRow*32 + tileCol)
		row := FetchTileRow(g.bus, tileRowAddress(lcdc, tileNumber, pixelRow))

		colorIndex := row.GetPixel(winX % 8)
		g.lineColors[x] = uint8(colorIndex)
		g.framebuffer.SetPixel(x, y, paletteShade(bgp, colorIndex))
	}

	g.windowLine++
}

func (g *GPU) renderSprites(y int) {
	obp0 := g.bus.GetIO(addr.OBP0)
	obp1 := g.bus.GetIO(addr.OBP1)

	sprites := g.oam.GetSpritesForScanline(y)
	for i := range sprites {
		s := &sprites[i]

		rowIndex := y - s.Y
		if s.FlipY {
			rowIndex = s.Height - 1 - rowIndex
		}

		tile := s.TileIndex
		if s.Height == 16 {
			// tall sprites ignore bit 0 of the tile index
			tile &= 0xFE
		}
		row := FetchTileRow(g.bus, addr.TileData0+uint16(tile)*16+uint16(rowIndex*2))

		palette := obp0
		if s.PaletteOBP1 {
			palette = obp1
		}

		for px := 0; px < 8; px++ {
			x := s.X + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			if !s.HasPriorityForPixel(px) {
				continue
			}

			var colorIndex int
			if s.FlipX {
				colorIndex = row.GetPixelFlipped(px)
			} else {
				colorIndex = row.GetPixel(px)
			}
			if colorIndex == 0 {
				// color 0 is transparent for sprites
				continue
			}
			if s.BehindBG && g.lineColors[x] != 0 {
				continue
			}

			g.framebuffer.SetPixel(x, y, paletteShade(palette, colorIndex))
		}
	}
}

// paletteShade maps a color index through a palette register to a
// display color.
func paletteShade(palette uint8, colorIndex int) GBColor {
	return shades[palette>>(2*colorIndex)&0x03]
}

// Save serializes the controller state. The framebuffer is excluded;
// it is fully redrawn within a frame.
func (g *GPU) Save(s *snapshot.State) {
	s.Write8(uint8(g.mode))
	s.Write16(uint16(g.line))
	s.Write32(uint32(g.lineCycles))
	s.Write16(uint16(g.windowLine))
	s.Write32(uint32(g.transferEnd))
	s.WriteBool(g.statLine)
	s.WriteBool(g.frameReady)
}

// Load restores state in the order written by Save.
func (g *GPU) Load(s *snapshot.State) {
	g.mode = Mode(s.Read8())
	g.line = int(s.Read16())
	g.lineCycles = int(s.Read32())
	g.windowLine = int(s.Read16())
	g.transferEnd = int(s.Read32())
	g.statLine = s.ReadBool()
	g.frameReady = s.ReadBool()
}
