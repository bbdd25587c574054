package video

// GBColor is a 32-bit ARGB color.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

const (
	// FramebufferWidth is the visible screen width in pixels.
	FramebufferWidth = 160
	// FramebufferHeight is the visible screen height in pixels.
	FramebufferHeight = 144
)

// shades maps a 2-bit palette shade to its display color.
var shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// FrameBuffer holds one rendered frame as ARGB pixels.
type FrameBuffer struct {
	width  int
	height int
	buffer []uint32
}

// NewFrameBuffer creates a screen-sized frame buffer.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{
		width:  FramebufferWidth,
		height: FramebufferHeight,
		buffer: make([]uint32, FramebufferWidth*FramebufferHeight),
	}
}

func (fb *FrameBuffer) GetPixel(x, y int) uint32 {
	return fb.buffer[y*fb.width+x]
}

func (fb *FrameBuffer) SetPixel(x, y int, color GBColor) {
	fb.buffer[y*fb.width+x] = uint32(color)
}

// Clear fills the whole buffer with one color.
func (fb *FrameBuffer) Clear(color GBColor) {
	for i := range fb.buffer {
		fb.buffer[i] = uint32(color)
	}
}

// ToSlice returns the backing pixel slice, row-major.
func (fb *FrameBuffer) ToSlice() []uint32 {
	return fb.buffer
}
