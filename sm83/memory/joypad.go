package memory

import "github.com/ThaumielSparrow/go-sm83/sm83/snapshot"

// JoypadKey identifies one key of the button matrix.
type JoypadKey uint8

const (
	JoypadRight JoypadKey = iota
	JoypadLeft
	JoypadUp
	JoypadDown
	JoypadA
	JoypadB
	JoypadSelect
	JoypadStart
)

// joypad models the P1 register. Bits 4-5 select which button group
// appears on the low nibble; 0 means pressed. If both groups are
// selected the nibbles are ANDed, if neither the nibble floats high.
type joypad struct {
	selector uint8 // writable bits 4-5, stored as written
	buttons  uint8 // A/B/Select/Start on bits 0-3, 1 = released
	dpad     uint8 // Right/Left/Up/Down on bits 0-3, 1 = released

	onPress func()
}

func newJoypad(onPress func()) *joypad {
	return &joypad{
		selector: 0x30,
		buttons:  0x0F,
		dpad:     0x0F,
		onPress:  onPress,
	}
}

func (j *joypad) Read() byte {
	// bits 6-7 are unused and read as 1
	result := uint8(0xC0) | j.selector

	selectDpad := j.selector&0x10 == 0
	selectButtons := j.selector&0x20 == 0

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons
	case selectDpad && !selectButtons:
		result |= j.dpad
	case selectButtons && selectDpad:
		result |= j.buttons & j.dpad
	default:
		result |= 0x0F
	}
	return result
}

func (j *joypad) Write(value byte) {
	j.selector = value & 0x30
}

func (j *joypad) keyBit(key JoypadKey) (group *uint8, mask uint8) {
	if key <= JoypadDown {
		return &j.dpad, 1 << key
	}
	return &j.buttons, 1 << (key - JoypadA)
}

// Press marks a key down and raises the joypad interrupt on the
// high-to-low transition.
func (j *joypad) Press(key JoypadKey) {
	group, mask := j.keyBit(key)
	if *group&mask != 0 {
		*group &^= mask
		if j.onPress != nil {
			j.onPress()
		}
	}
}

// Release marks a key up.
func (j *joypad) Release(key JoypadKey) {
	group, mask := j.keyBit(key)
	*group |= mask
}

func (j *joypad) Save(s *snapshot.State) {
	s.Write8(j.selector)
	s.Write8(j.buttons)
	s.Write8(j.dpad)
}

func (j *joypad) Load(s *snapshot.State) {
	j.selector = s.Read8()
	j.buttons = s.Read8()
	j.dpad = s.Read8()
}
