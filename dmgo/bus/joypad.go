package bus

import (
	"github.com/adelrune/dmgo/dmgo/addr"
	"github.com/adelrune/dmgo/dmgo/bit"
)

// Button names the 8 physical inputs, matching the two 4-bit groups the
// P1 register multiplexes onto its low nibble.
type Button uint8

const (
	ButtonRight Button = iota
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
)

// joypad tracks which of the 8 buttons are held and projects them onto
// P1 according to its selection bits 4-5. A bit of 0 means pressed: the
// register is active-low, matching real hardware.
type joypad struct {
	buttons uint8 // low nibble: A,B,Select,Start
	dpad    uint8 // low nibble: Right,Left,Up,Down

	selectBits uint8 // raw bits 4-5 as last written

	requestInterrupt func(addr.Interrupt)
}

func newJoypad(requestInterrupt func(addr.Interrupt)) *joypad {
	return &joypad{
		buttons:          0x0F,
		dpad:             0x0F,
		requestInterrupt: requestInterrupt,
	}
}

func (j *joypad) register() uint8 {
	result := uint8(0xC0) | j.selectBits

	selectDpad := !bit.IsSet(4, j.selectBits)
	selectButtons := !bit.IsSet(5, j.selectBits)

	switch {
	case selectButtons && !selectDpad:
		result |= j.buttons
	case selectDpad && !selectButtons:
		result |= j.dpad
	case selectDpad && selectButtons:
		result |= j.buttons & j.dpad
	default:
		result |= 0x0F
	}

	return result
}

func (j *joypad) writeSelect(value uint8) {
	j.selectBits = value & 0x30
}

func (j *joypad) setPressed(b Button, pressed bool) {
	before := j.register()

	switch b {
	case ButtonRight:
		j.dpad = bit.SetTo(0, j.dpad, !pressed)
	case ButtonLeft:
		j.dpad = bit.SetTo(1, j.dpad, !pressed)
	case ButtonUp:
		j.dpad = bit.SetTo(2, j.dpad, !pressed)
	case ButtonDown:
		j.dpad = bit.SetTo(3, j.dpad, !pressed)
	case ButtonA:
		j.buttons = bit.SetTo(0, j.buttons, !pressed)
	case ButtonB:
		j.buttons = bit.SetTo(1, j.buttons, !pressed)
	case ButtonSelect:
		j.buttons = bit.SetTo(2, j.buttons, !pressed)
	case ButtonStart:
		j.buttons = bit.SetTo(3, j.buttons, !pressed)
	}

	after := j.register()
	// A high-to-low transition on any of the 4 selected lines raises the
	// joypad interrupt, which is how the DMG wakes from HALT on input.
	if before&^after&0x0F != 0 {
		j.requestInterrupt(addr.JoypadInterrupt)
	}
}
