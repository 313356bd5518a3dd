// Package core provides the value types shared by the miner: controller pads,
// solutions, seeds and observed simulation state. It has no external
// dependencies so every other package can build on it.
package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Button is a controller button bitmask. Bit assignments match the native
// controller struct bit-for-bit.
type Button uint16

const (
	ButtonA      Button = 0x8000
	ButtonB      Button = 0x4000
	ButtonZ      Button = 0x2000
	ButtonStart  Button = 0x1000
	ButtonDUp    Button = 0x0800
	ButtonDDown  Button = 0x0400
	ButtonDLeft  Button = 0x0200
	ButtonDRight Button = 0x0100
	ButtonL      Button = 0x0020
	ButtonR      Button = 0x0010
	ButtonCUp    Button = 0x0008
	ButtonCDown  Button = 0x0004
	ButtonCLeft  Button = 0x0002
	ButtonCRight Button = 0x0001
)

// Control roles layered on top of the raw buttons.
const (
	// ResumeButton hands control back to the player during playback.
	ResumeButton = ButtonStart
	// AbortButton ends a live recording and keeps the partial solution.
	AbortButton = ButtonDUp
	// FastForwardButton speeds up live recording while held.
	FastForwardButton = ButtonDDown
)

var buttonNames = []struct {
	b    Button
	name string
}{
	{ButtonA, "A"}, {ButtonB, "B"}, {ButtonZ, "Z"}, {ButtonStart, "Start"},
	{ButtonDUp, "DUp"}, {ButtonDDown, "DDown"}, {ButtonDLeft, "DLeft"}, {ButtonDRight, "DRight"},
	{ButtonL, "L"}, {ButtonR, "R"},
	{ButtonCUp, "CUp"}, {ButtonCDown, "CDown"}, {ButtonCLeft, "CLeft"}, {ButtonCRight, "CRight"},
}

// String returns the pressed buttons joined with '+', or "-" for none.
func (b Button) String() string {
	if b == 0 {
		return "-"
	}
	var parts []string
	for _, n := range buttonNames {
		if b&n.b != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "+")
}

// StickMax is the largest magnitude an analog axis may report.
const StickMax = 80

// PadSize is the encoded size of a Pad in bytes.
const PadSize = 4

// ErrPadSize is returned when decoding a pad from a buffer of the wrong size.
var ErrPadSize = errors.New("core: pad must be exactly 4 bytes")

// Pad is one frame of controller input.
type Pad struct {
	Button Button
	StickX int8
	StickY int8
}

// NewPad creates a pad, clamping the sticks to [-StickMax, StickMax].
func NewPad(button Button, x, y int) Pad {
	return Pad{
		Button: button,
		StickX: clampStick(x),
		StickY: clampStick(y),
	}
}

func clampStick(v int) int8 {
	if v > StickMax {
		return StickMax
	}
	if v < -StickMax {
		return -StickMax
	}
	return int8(v)
}

// Equal reports whether both pads carry the same buttons and stick values.
func (p Pad) Equal(o Pad) bool {
	return p.Button == o.Button && p.StickX == o.StickX && p.StickY == o.StickY
}

// Pressed returns true if any button in mask is held.
func (p Pad) Pressed(mask Button) bool {
	return p.Button&mask != 0
}

// Press sets the buttons in mask.
func (p *Pad) Press(mask Button) {
	p.Button |= mask
}

// Release clears the buttons in mask.
func (p *Pad) Release(mask Button) {
	p.Button &^= mask
}

// Clone returns a copy of the pad.
func (p Pad) Clone() Pad {
	return p
}

func (p Pad) String() string {
	return fmt.Sprintf("Pad{%s %d,%d}", p.Button, p.StickX, p.StickY)
}

// AppendBinary appends the 4-byte wire encoding of the pad to b:
// little-endian button mask, then stick_x, then stick_y.
func (p Pad) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint16(b, uint16(p.Button))
	return append(b, byte(p.StickX), byte(p.StickY)), nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p Pad) MarshalBinary() ([]byte, error) {
	return p.AppendBinary(make([]byte, 0, PadSize))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Pad) UnmarshalBinary(data []byte) error {
	if len(data) != PadSize {
		return ErrPadSize
	}
	p.Button = Button(binary.LittleEndian.Uint16(data[0:2]))
	p.StickX = int8(data[2])
	p.StickY = int8(data[3])
	return nil
}
