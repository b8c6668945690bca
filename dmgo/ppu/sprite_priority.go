package ppu

// spritePriority resolves DMG object-priority for one scanline: lower X
// wins, ties go to the lower OAM index. Rather than sorting the up-to-10
// visible sprites before drawing, each candidate sprite claims the pixels
// it covers up front, so the draw pass only paints pixels it still owns.
type spritePriority struct {
	owner [ScreenWidth]int8  // OAM index of the owning sprite, -1 if none
	ownerX [ScreenWidth]int16 // X coordinate that sprite claimed with
}

func (s *spritePriority) reset() {
	for i := range s.owner {
		s.owner[i] = -1
		s.ownerX[i] = 0x7FFF
	}
}

// claim attempts to give pixelX to spriteIndex, entered at spriteX.
func (s *spritePriority) claim(pixelX int, spriteIndex int8, spriteX int16) {
	if pixelX < 0 || pixelX >= ScreenWidth {
		return
	}

	current := s.owner[pixelX]
	if current == -1 || spriteX < s.ownerX[pixelX] ||
		(spriteX == s.ownerX[pixelX] && spriteIndex < current) {
		s.owner[pixelX] = spriteIndex
		s.ownerX[pixelX] = spriteX
	}
}

func (s *spritePriority) ownerOf(pixelX int) int8 {
	if pixelX < 0 || pixelX >= ScreenWidth {
		return -1
	}
	return s.owner[pixelX]
}
