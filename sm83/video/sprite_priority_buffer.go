package video

// SpritePriorityBuffer resolves sprite-to-sprite pixel ownership for
// monochrome rendering:
//
//   - the sprite with the lower X coordinate wins a pixel
//   - when X coordinates match, the lower OAM index wins
//
// Instead of sorting the scanline sprites, each sprite claims the
// pixels it covers in OAM order; a claim succeeds only when the pixel
// is unowned or the claimer outranks the current owner. At render
// time a sprite draws only the pixels it owns.
type SpritePriorityBuffer struct {
	// ownerIndex is the OAM index owning each pixel, -1 when unowned
	ownerIndex [FramebufferWidth]int
	// ownerX is the owner's X coordinate, for rank comparison
	ownerX [FramebufferWidth]int
}

// Clear resets the buffer for a new scanline.
func (s *SpritePriorityBuffer) Clear() {
	for i := range s.ownerIndex {
		s.ownerIndex[i] = -1
		s.ownerX[i] = 0xFF
	}
}

// TryClaimPixel attempts to claim a pixel for a sprite and reports
// whether the claim won.
func (s *SpritePriorityBuffer) TryClaimPixel(pixelX, spriteIndex, spriteX int) bool {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return false
	}

	owner := s.ownerIndex[pixelX]

	switch {
	case owner == -1:
	case spriteX < s.ownerX[pixelX]:
	case spriteX == s.ownerX[pixelX] && spriteIndex < owner:
	default:
		return false
	}

	s.ownerIndex[pixelX] = spriteIndex
	s.ownerX[pixelX] = spriteX
	return true
}

// Owner returns the OAM index owning a pixel, -1 when none.
func (s *SpritePriorityBuffer) Owner(pixelX int) int {
	if pixelX < 0 || pixelX >= FramebufferWidth {
		return -1
	}
	return s.ownerIndex[pixelX]
}
