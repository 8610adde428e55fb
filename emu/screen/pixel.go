package screen

import (
	"github.com/chyp8/chyp8/emu/cpu"
	"github.com/faiface/pixel"
	"github.com/faiface/pixel/pixelgl"
)

// KeyMap returns the conventional keyboard layout for the hex keypad:
//
//	1 2 3 4        1 2 3 C
//	Q W E R   ->   4 5 6 D
//	A S D F        7 8 9 E
//	Z X C V        A 0 B F
func KeyMap() map[uint16]pixelgl.Button {
	return map[uint16]pixelgl.Button{
		0x1: pixelgl.Key1, 0x2: pixelgl.Key2, 0x3: pixelgl.Key3, 0xC: pixelgl.Key4,
		0x4: pixelgl.KeyQ, 0x5: pixelgl.KeyW, 0x6: pixelgl.KeyE, 0xD: pixelgl.KeyR,
		0x7: pixelgl.KeyA, 0x8: pixelgl.KeyS, 0x9: pixelgl.KeyD, 0xE: pixelgl.KeyF,
		0xA: pixelgl.KeyZ, 0x0: pixelgl.KeyX, 0xB: pixelgl.KeyC, 0xF: pixelgl.KeyV,
	}
}

// pixelRect is the window area of the CHIP-8 pixel at x, y. The window
// origin is bottom left, the frame buffer origin top left.
func pixelRect(x, y int, scale float64) pixel.Rect {
	top := float64(cpu.DisplayHeight-y) * scale
	left := float64(x) * scale
	return pixel.R(left, top-scale, left+scale, top)
}
